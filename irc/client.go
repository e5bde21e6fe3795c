// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package irc

import (
	"fmt"
	"net"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/ergochat/irc-go/ircreader"
)

// Client is a connected client.
type Client struct {
	server *Server
	conn   *IRCConn
	id     uint64
	ctime  time.Time

	stateMutex     sync.RWMutex // tier 1
	nick           string
	nickCasefolded string
	username       string
	realname       string
	hostname       string
	authorized     bool
	hasNick        bool
	hasUser        bool
	registered     bool
	destroyed      bool
	quitMessage    string
	channels       map[*Channel]bool
}

// NewClient sets up a new client on the given connection, under the guest
// nickname Guest<id>, and registers it with the client manager.
func NewClient(server *Server, conn net.Conn, id uint64) *Client {
	now := time.Now().UTC()
	guestNick := fmt.Sprintf("Guest%d", id)
	hostname, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		hostname = conn.RemoteAddr().String()
	}
	client := &Client{
		server:         server,
		conn:           NewIRCConn(conn),
		id:             id,
		ctime:          now,
		nick:           guestNick,
		nickCasefolded: Casefold(guestNick),
		authorized:     !server.Config().PasswordRequired(),
		hostname:       hostname,
		channels:       make(map[*Channel]bool),
	}
	server.clients.Add(client)
	return client
}

func (client *Client) run() {
	defer func() {
		if r := recover(); r != nil {
			client.server.logger.Error("internal",
				fmt.Sprintf("Client caused panic: %v\n%s", r, debug.Stack()))
		}
		// ensure client connection gets closed
		client.destroy("")
	}()

	for {
		line, err := client.conn.ReadLine()
		if err != nil {
			quitMessage := "connection closed"
			if err == ircreader.ErrReadQ {
				quitMessage = "readQ exceeded"
				client.Send(nil, "", "ERROR", quitMessage)
			}
			client.SetQuitMessage(quitMessage)
			return
		}

		isExiting := client.handleLine(string(line))
		if isExiting {
			return
		}
	}
}

// handleLine parses and dispatches one inbound line; the returned bool
// reports whether the connection should be torn down.
func (client *Client) handleLine(line string) (exiting bool) {
	if line == "" {
		return false
	}
	// interactive-client tolerance: some clients send the slash prefix of
	// their own command syntax over the wire
	line = strings.TrimPrefix(line, "/")

	client.server.logger.Debug("userinput", client.Nick(), "<- ", line)

	msg, err := ircmsg.ParseLineStrict(line, true, maxLineLen)
	if err == ircmsg.ErrorLineIsEmpty {
		return false
	} else if err == ircmsg.ErrorBodyTooLong {
		client.Send(nil, client.server.name, ERR_UNKNOWNCOMMAND, client.Nick(), "Input line too long")
		return false
	} else if err != nil {
		client.SetQuitMessage("received malformed line")
		return true
	}

	cmd, exists := Commands[msg.Command]
	if !exists {
		cmd = unknownCommand
	}

	return cmd.Run(client.server, client, msg)
}

// Send sends an IRC line to the client.
func (client *Client) Send(tags map[string]string, prefix string, command string, params ...string) (err error) {
	msg := ircmsg.MakeMessage(tags, prefix, command, params...)
	line, err := msg.LineBytesStrict(false, maxLineLen)
	if err != nil {
		client.server.logger.Error("internal",
			fmt.Sprintf("Could not assemble message for client: %v", err))
		return err
	}
	client.server.logger.Debug("useroutput", client.Nick(), " ->", strings.TrimRight(string(line), "\r\n"))
	return client.conn.WriteLine(line)
}

// SetQuitMessage sets the quit message shown to the client's channels if
// none has been set already.
func (client *Client) SetQuitMessage(message string) {
	if message == "" {
		message = "Quit"
	}
	client.stateMutex.Lock()
	defer client.stateMutex.Unlock()
	if client.quitMessage == "" {
		client.quitMessage = message
	}
}

func (client *Client) addChannel(channel *Channel) {
	client.stateMutex.Lock()
	defer client.stateMutex.Unlock()
	client.channels[channel] = true
}

func (client *Client) removeChannel(channel *Channel) {
	client.stateMutex.Lock()
	defer client.stateMutex.Unlock()
	delete(client.channels, channel)
}

// Channels returns the channels this client is joined to.
func (client *Client) Channels() (result []*Channel) {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	result = make([]*Channel, 0, len(client.channels))
	for channel := range client.channels {
		result = append(result, channel)
	}
	return
}

// Friends returns the casefolded nicks of everyone sharing a channel with
// this client, the client itself included.
func (client *Client) Friends() map[string]bool {
	result := map[string]bool{
		client.NickCasefolded(): true,
	}
	for _, channel := range client.Channels() {
		for _, nick := range channel.MemberNicks() {
			result[nick] = true
		}
	}
	return result
}

// destroy gets rid of a client: it broadcasts the quit to everyone sharing
// a channel, revokes its memberships and removes it from the server lists.
// It is idempotent.
func (client *Client) destroy(quitMessage string) {
	if quitMessage != "" {
		client.SetQuitMessage(quitMessage)
	}

	client.stateMutex.Lock()
	alreadyDestroyed := client.destroyed
	client.destroyed = true
	registered := client.registered
	quitMessage = client.quitMessage
	client.stateMutex.Unlock()

	if alreadyDestroyed {
		return
	}
	if quitMessage == "" {
		quitMessage = "Quit"
	}

	friends := client.Friends()
	delete(friends, client.NickCasefolded())

	for _, channel := range client.Channels() {
		channel.Quit(client)
	}

	if registered {
		for friend := range friends {
			if fclient := client.server.clients.Get(friend); fclient != nil {
				fclient.Send(nil, client.NickMaskString(), "QUIT", quitMessage)
			}
		}
	}

	client.server.clients.Remove(client)
	client.Send(nil, "", "ERROR", quitMessage)
	client.conn.Close()

	client.server.logger.Debug("quit",
		fmt.Sprintf("%s exited (%s)", client.Nick(), quitMessage))
}
