// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package irc

import (
	"github.com/ergochat/irc-go/ircmsg"
)

// Command represents a command accepted from a client.
type Command struct {
	handler      func(server *Server, client *Client, msg ircmsg.Message) (exiting bool)
	usablePreReg bool
	minParams    int
}

// Run runs this command with the given client/message.
func (cmd *Command) Run(server *Server, client *Client, msg ircmsg.Message) (exiting bool) {
	if !client.Registered() && !cmd.usablePreReg {
		client.Send(nil, server.name, ERR_NOTREGISTERED, client.Nick(), "You need to register before you can use that command")
		return false
	}
	if len(msg.Params) < cmd.minParams {
		client.Send(nil, server.name, ERR_NEEDMOREPARAMS, client.Nick(), msg.Command, "Not enough parameters")
		return false
	}

	exiting = cmd.handler(server, client, msg)

	// after each pre-registration command, check if we can complete
	// registration
	if !exiting && !client.Registered() {
		exiting = server.tryRegister(client)
	}
	return exiting
}

var unknownCommand = Command{
	handler:      unknownCommandHandler,
	usablePreReg: true,
}

// Commands holds all commands executable by a client connected to us.
var Commands map[string]Command

func init() {
	Commands = map[string]Command{
		"CAP": {
			handler:      capHandler,
			usablePreReg: true,
			minParams:    1,
		},
		"INVITE": {
			handler:   inviteHandler,
			minParams: 2,
		},
		"JOIN": {
			handler:   joinHandler,
			minParams: 1,
		},
		"KICK": {
			handler:   kickHandler,
			minParams: 2,
		},
		"LIST": {
			handler: listHandler,
		},
		"MODE": {
			handler:   modeHandler,
			minParams: 1,
		},
		"MOTD": {
			handler: motdHandler,
		},
		"NAMES": {
			handler:   namesHandler,
			minParams: 1,
		},
		"NICK": {
			handler:      nickHandler,
			usablePreReg: true,
		},
		"NOTICE": {
			handler: messageHandler,
		},
		"PART": {
			handler:   partHandler,
			minParams: 1,
		},
		"PASS": {
			handler:      passHandler,
			usablePreReg: true,
			minParams:    1,
		},
		"PING": {
			handler:      pingHandler,
			usablePreReg: true,
			minParams:    1,
		},
		"PONG": {
			handler:      pongHandler,
			usablePreReg: true,
			minParams:    1,
		},
		"PRIVMSG": {
			handler: messageHandler,
		},
		"QUIT": {
			handler:      quitHandler,
			usablePreReg: true,
		},
		"TOPIC": {
			handler:   topicHandler,
			minParams: 1,
		},
		"USER": {
			handler:      userHandler,
			usablePreReg: true,
			minParams:    4,
		},
		"WHOIS": {
			handler:   whoisHandler,
			minParams: 1,
		},
	}
}
