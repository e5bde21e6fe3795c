// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package irc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ergochat/irc-go/ircmsg"

	"github.com/ratel-irc/ratel/irc/modes"
	"github.com/ratel-irc/ratel/irc/utils"
)

// unknownCommandHandler is invoked for any verb without a Commands entry.
func unknownCommandHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	client.Send(nil, server.name, ERR_UNKNOWNCOMMAND, client.Nick(), utils.SafeErrorParam(msg.Command), "Unknown command")
	return false
}

// CAP <subcommand> [<caps>]
// We advertise no capabilities; the subcommands exist so that clients that
// open with CAP LS can still register.
func capHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	subCommand := strings.ToUpper(msg.Params[0])

	switch subCommand {
	case "LS", "LIST":
		client.Send(nil, server.name, "CAP", client.Nick(), subCommand, "")
	case "REQ":
		caps := ""
		if len(msg.Params) > 1 {
			caps = msg.Params[1]
		}
		client.Send(nil, server.name, "CAP", client.Nick(), "NAK", caps)
	case "END":
		// no-op: we never suspend registration for capability negotiation
	}
	return false
}

// PASS <password>
func passHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	if client.Registered() {
		client.Send(nil, server.name, ERR_ALREADYREGISTRED, client.Nick(), "You may not reregister")
		return false
	}

	config := server.Config()
	if !config.PasswordRequired() {
		return false
	}
	if ComparePassword(config.Server.Password, msg.Params[0]) != nil {
		client.Send(nil, server.name, ERR_PASSWDMISMATCH, client.Nick(), "Password incorrect")
		client.Send(nil, "", "ERROR", "Password incorrect")
		return true
	}
	client.SetAuthorized(true)
	return false
}

// NICK <nickname>
func nickHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	if len(msg.Params) == 0 || msg.Params[0] == "" {
		if client.Registered() {
			// an empty NICK from a registered client is a query
			client.Send(nil, server.name, "NICK", client.Nick())
		} else {
			client.Send(nil, server.name, ERR_NONICKNAMEGIVEN, client.Nick(), "No nickname given")
		}
		return false
	}

	nickname := msg.Params[0]
	oldCfNick := client.NickCasefolded()
	oldMask := client.NickMaskString()

	err := server.clients.SetNick(client, nickname)
	switch err {
	case errNicknameInvalid:
		client.Send(nil, server.name, ERR_ERRONEUSNICKNAME, client.Nick(), utils.SafeErrorParam(nickname), "Erroneous nickname")
		return false
	case errNicknameInUse:
		client.Send(nil, server.name, ERR_NICKNAMEINUSE, client.Nick(), nickname, "Nickname is already in use")
		return false
	}

	if !client.Registered() {
		return false
	}

	// rekey the channel membership tables before anyone can observe the
	// new nick, then tell everyone who shares a channel
	newCfNick := client.NickCasefolded()
	for _, channel := range client.Channels() {
		channel.renameMember(oldCfNick, newCfNick)
	}
	for friend := range client.Friends() {
		if fclient := server.clients.Get(friend); fclient != nil {
			fclient.Send(nil, oldMask, "NICK", client.Nick())
		}
	}
	server.logger.Debug("nick", fmt.Sprintf("%s changed nickname to %s", oldMask, client.Nick()))
	return false
}

// USER <username> <hostname> <servername> :<realname>
func userHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	if client.Registered() {
		client.Send(nil, server.name, ERR_ALREADYREGISTRED, client.Nick(), "You may not reregister")
		return false
	}

	username, realname := msg.Params[0], msg.Params[3]
	if username == "" || realname == "" {
		client.Send(nil, server.name, ERR_NEEDMOREPARAMS, client.Nick(), "USER", "Not enough parameters")
		return false
	}

	err := client.SetNames(username, realname)
	if err != nil {
		client.Send(nil, server.name, ERR_ALREADYREGISTRED, client.Nick(), "You may not reregister")
	}
	return false
}

// PING <token>
func pingHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	client.Send(nil, server.name, "PONG", server.name, msg.Params[0])
	return false
}

// PONG <token>
func pongHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	// client gets touched when they send this command, so we don't need to
	// do anything else
	return false
}

// QUIT [:<reason>]
func quitHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	reason := "Quit"
	if len(msg.Params) > 0 {
		reason += ": " + msg.Params[0]
	}
	client.SetQuitMessage(reason)
	return true
}

// JOIN <channel> [<key>]
func joinHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	name := msg.Params[0]
	key := ""
	if len(msg.Params) > 1 {
		key = msg.Params[1]
	}

	_, err := server.channels.Join(client, name, key)
	switch err {
	case errInvalidChannelName:
		client.Send(nil, server.name, ERR_NOSUCHCHANNEL, client.Nick(), utils.SafeErrorParam(name), "No such channel")
	case errAlreadyJoined:
		client.Send(nil, server.name, ERR_USERONCHANNEL, client.Nick(), client.Nick(), name, "is already on channel")
	case errWrongChannelKey:
		client.Send(nil, server.name, ERR_BADCHANNELKEY, client.Nick(), name, "Cannot join channel (+k)")
	case errInviteOnlyChannel:
		client.Send(nil, server.name, ERR_INVITEONLYCHAN, client.Nick(), name, "Cannot join channel (+i)")
	case errChannelIsFull:
		client.Send(nil, server.name, ERR_CHANNELISFULL, client.Nick(), name, "Cannot join channel (+l)")
	}
	return false
}

// PART <channel> [:<reason>]
func partHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	name := msg.Params[0]
	reason := "Leaving"
	if len(msg.Params) > 1 {
		reason = msg.Params[1]
	}

	channel := server.channels.Get(name)
	if channel == nil {
		client.Send(nil, server.name, ERR_NOSUCHCHANNEL, client.Nick(), utils.SafeErrorParam(name), "No such channel")
		return false
	}

	if channel.Part(client, reason) != nil {
		client.Send(nil, server.name, ERR_NOTONCHANNEL, client.Nick(), name, "You're not on that channel")
	}
	return false
}

// KICK <channel> <nick> [:<comment>]
func kickHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	name, nickname := msg.Params[0], msg.Params[1]
	comment := client.Nick()
	if len(msg.Params) > 2 {
		comment = msg.Params[2]
	}

	channel := server.channels.Get(name)
	if channel == nil {
		client.Send(nil, server.name, ERR_NOSUCHCHANNEL, client.Nick(), utils.SafeErrorParam(name), "No such channel")
		return false
	}
	target := server.clients.Get(nickname)
	if target == nil {
		client.Send(nil, server.name, ERR_NOSUCHNICK, client.Nick(), utils.SafeErrorParam(nickname), "No such nick")
		return false
	}

	switch channel.Kick(client, target, comment) {
	case errNotChannelOperator:
		client.Send(nil, server.name, ERR_CHANOPRIVSNEEDED, client.Nick(), name, "You're not channel operator")
	case errNotOnChannel:
		client.Send(nil, server.name, ERR_USERNOTINCHANNEL, client.Nick(), target.Nick(), name, "They aren't on that channel")
	}
	return false
}

// INVITE <nick> <channel>
func inviteHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	nickname, name := msg.Params[0], msg.Params[1]

	target := server.clients.Get(nickname)
	if target == nil {
		client.Send(nil, server.name, ERR_NOSUCHNICK, client.Nick(), utils.SafeErrorParam(nickname), "No such nick")
		return false
	}
	channel := server.channels.Get(name)
	if channel == nil {
		client.Send(nil, server.name, ERR_NOSUCHCHANNEL, client.Nick(), utils.SafeErrorParam(name), "No such channel")
		return false
	}

	switch channel.Invite(client, target) {
	case errNotChannelOperator:
		client.Send(nil, server.name, ERR_CHANOPRIVSNEEDED, client.Nick(), name, "You're not channel operator")
	case errAlreadyJoined:
		client.Send(nil, server.name, ERR_USERONCHANNEL, client.Nick(), target.Nick(), name, "is already on channel")
	}
	return false
}

// TOPIC <channel> [:<topic>]
func topicHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	name := msg.Params[0]

	channel := server.channels.Get(name)
	if channel == nil {
		client.Send(nil, server.name, ERR_NOSUCHCHANNEL, client.Nick(), utils.SafeErrorParam(name), "No such channel")
		return false
	}

	if len(msg.Params) == 1 {
		channel.SendTopic(client, true)
		return false
	}

	switch channel.SetTopic(client, msg.Params[1]) {
	case errNotOnChannel:
		client.Send(nil, server.name, ERR_NOTONCHANNEL, client.Nick(), name, "You're not on that channel")
	case errNotChannelOperator:
		client.Send(nil, server.name, ERR_CHANOPRIVSNEEDED, client.Nick(), name, "You're not channel operator")
	}
	return false
}

// MODE <channel> [<modestring> [<arguments>...]]
func modeHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	name := msg.Params[0]

	channel := server.channels.Get(name)
	if channel == nil {
		client.Send(nil, server.name, ERR_NOSUCHCHANNEL, client.Nick(), utils.SafeErrorParam(name), "No such channel")
		return false
	}

	// a bare MODE is a query and is open to anyone
	if len(msg.Params) == 1 {
		client.Send(nil, server.name, RPL_CHANNELMODEIS, client.Nick(), channel.Name(), channel.ModeString())
		return false
	}

	if !channel.ClientIsOperator(client) {
		client.Send(nil, server.name, ERR_CHANOPRIVSNEEDED, client.Nick(), channel.Name(), "You're not channel operator")
		return false
	}

	changes, unknown, err := modes.ParseChannelModeChanges(msg.Params[1:]...)
	if err != nil {
		if len(unknown) > 0 {
			for _, char := range unknown {
				client.Send(nil, server.name, ERR_UNKNOWNMODE, client.Nick(), string(char), "is unknown mode char to me")
			}
		} else {
			client.Send(nil, server.name, ERR_UNKNOWNMODE, client.Nick(), utils.SafeErrorParam(msg.Params[1]), "Invalid mode string")
		}
		return false
	}

	channel.ApplyModeChanges(client, changes)
	channel.Names(client)
	return false
}

// PRIVMSG <target> :<message>
// NOTICE <target> :<message>
func messageHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	notice := msg.Command == "NOTICE"

	if len(msg.Params) == 0 {
		if !notice {
			client.Send(nil, server.name, ERR_NORECIPIENT, client.Nick(), fmt.Sprintf("No recipient given (%s)", msg.Command))
		}
		return false
	}
	if len(msg.Params) == 1 || msg.Params[1] == "" {
		if !notice {
			client.Send(nil, server.name, ERR_NOTEXTTOSEND, client.Nick(), "No text to send")
		}
		return false
	}

	target, message := msg.Params[0], msg.Params[1]

	if strings.HasPrefix(target, "#") {
		channel := server.channels.Get(target)
		if channel == nil {
			if !notice {
				client.Send(nil, server.name, ERR_NOSUCHCHANNEL, client.Nick(), utils.SafeErrorParam(target), "No such channel")
			}
			return false
		}
		if channel.PrivMsg(msg.Command, client, message) != nil && !notice {
			client.Send(nil, server.name, ERR_NOTONCHANNEL, client.Nick(), channel.Name(), "You're not on that channel")
		}
		return false
	}

	user := server.clients.Get(target)
	if user == nil || user == client {
		// self-messaging is rejected like an unknown nick
		if !notice {
			client.Send(nil, server.name, ERR_NOSUCHNICK, client.Nick(), utils.SafeErrorParam(target), "No such nick")
		}
		return false
	}
	user.Send(nil, client.NickMaskString(), msg.Command, user.Nick(), message)
	return false
}

// NAMES <channel>{,<channel>}
func namesHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	for _, name := range strings.Split(msg.Params[0], ",") {
		channel := server.channels.Get(name)
		if channel == nil {
			client.Send(nil, server.name, RPL_ENDOFNAMES, client.Nick(), utils.SafeErrorParam(name), "End of /NAMES list")
			continue
		}
		channel.Names(client)
	}
	return false
}

// LIST
func listHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	client.Send(nil, server.name, RPL_LISTSTART, client.Nick(), "Channel", "Users Name")

	channels := server.channels.Channels()
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].NameCasefolded() < channels[j].NameCasefolded()
	})
	for _, channel := range channels {
		memberCount := len(channel.MemberNicks())
		client.Send(nil, server.name, RPL_LIST, client.Nick(), channel.Name(), strconv.Itoa(memberCount), channel.GetTopic())
	}

	client.Send(nil, server.name, RPL_LISTEND, client.Nick(), "End of /LIST")
	return false
}

// MOTD
func motdHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	server.MOTD(client)
	return false
}

// WHOIS <nick>
func whoisHandler(server *Server, client *Client, msg ircmsg.Message) bool {
	nickname := msg.Params[0]

	target := server.clients.Get(nickname)
	if target == nil {
		client.Send(nil, server.name, ERR_NOSUCHNICK, client.Nick(), utils.SafeErrorParam(nickname), "No such nick")
		return false
	}

	client.Send(nil, server.name, RPL_WHOISUSER, client.Nick(), target.Nick(), target.Username(), target.Hostname(), "*", target.Realname())
	client.Send(nil, server.name, RPL_ENDOFWHOIS, client.Nick(), target.Nick(), "End of /WHOIS list")
	return false
}
