// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package irc

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okzk/sdnotify"

	"github.com/ratel-irc/ratel/irc/isupport"
	"github.com/ratel-irc/ratel/irc/logger"
)

// supportedChannelModesString is advertised in the 004 reply.
const supportedChannelModesString = "itkol"

// Server is the main Oragono-style server object: it owns the managers,
// the listeners and the registration pipeline.
type Server struct {
	name      string
	config    *Config
	logger    *logger.Manager
	clients   *ClientManager
	channels  *ChannelManager
	isupport  *isupport.List
	listeners []net.Listener
	motdLines []string
	ctime     time.Time

	connectionCount uint64 // accessed with sync/atomic
}

// NewServer returns a new Server instance, with its listeners already
// bound; any bind failure is fatal and reported to the caller.
func NewServer(config *Config, logger *logger.Manager) (*Server, error) {
	server := &Server{
		name:    config.Server.Name,
		config:  config,
		logger:  logger,
		clients: NewClientManager(),
		ctime:   time.Now().UTC(),
	}
	server.channels = NewChannelManager(server)
	server.setISupport()

	if config.Server.MOTD != "" {
		data, err := os.ReadFile(config.Server.MOTD)
		if err != nil {
			return nil, fmt.Errorf("Could not read MOTD file %s: %w", config.Server.MOTD, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			server.motdLines = append(server.motdLines, strings.TrimRight(line, "\r"))
		}
	}

	for _, addr := range config.Server.Listeners {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("Could not listen on %s: %w", addr, err)
		}
		server.logger.Info("listeners", fmt.Sprintf("listening on %s", addr))
		server.listeners = append(server.listeners, listener)
	}

	return server, nil
}

// Config returns the server configuration.
func (server *Server) Config() *Config {
	return server.config
}

func (server *Server) setISupport() {
	config := server.config
	il := isupport.NewList()
	il.Add("CASEMAPPING", casemappingName)
	il.Add("CHANMODES", ",k,l,it")
	il.Add("CHANNELLEN", strconv.Itoa(config.Limits.ChannelLen))
	il.Add("CHANTYPES", "#")
	il.Add("KICKLEN", strconv.Itoa(config.Limits.KickLen))
	il.Add("MAXTARGETS", "1")
	il.Add("NETWORK", config.Server.NetworkName)
	il.Add("NICKLEN", strconv.Itoa(config.Limits.NickLen))
	il.Add("PREFIX", "(o)@")
	il.Add("TOPICLEN", strconv.Itoa(config.Limits.TopicLen))
	il.RegenerateCachedReply()
	server.isupport = il
}

// Run starts the accept loops and blocks until the context is cancelled,
// then tears everything down.
func (server *Server) Run(ctx context.Context) {
	sdnotify.Ready()
	server.logger.Info("server", fmt.Sprintf("%s running", Ver))

	var wg sync.WaitGroup
	for _, listener := range server.listeners {
		wg.Add(1)
		go func(listener net.Listener) {
			defer wg.Done()
			server.acceptLoop(ctx, listener)
		}(listener)
	}

	<-ctx.Done()
	server.logger.Info("server", "shutting down")
	sdnotify.Stopping()

	for _, listener := range server.listeners {
		listener.Close()
	}
	wg.Wait()

	for _, client := range server.clients.AllClients() {
		client.destroy("server shutting down")
	}
}

func (server *Server) acceptLoop(ctx context.Context, listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				server.logger.Error("listeners", fmt.Sprintf("accept error: %v", err))
				return
			}
		}
		server.acceptClient(conn)
	}
}

func (server *Server) acceptClient(conn net.Conn) {
	if server.clients.Count() >= server.config.Server.MaxClients {
		conn.Write([]byte("ERROR :Server is full\r\n"))
		conn.Close()
		return
	}

	id := atomic.AddUint64(&server.connectionCount, 1)
	client := NewClient(server, conn, id)
	server.logger.Debug("connect",
		fmt.Sprintf("%s connected from %s", client.Nick(), conn.RemoteAddr().String()))
	go client.run()
}

// tryRegister completes registration once the nickname and username are
// both set. A required password that is missing or wrong at this point
// disconnects the client.
func (server *Server) tryRegister(client *Client) (exiting bool) {
	if client.Registered() || !client.HasNick() || !client.HasUsername() {
		return false
	}

	if !client.Authorized() {
		client.Send(nil, server.name, ERR_PASSWDMISMATCH, client.Nick(), "Password incorrect")
		client.Send(nil, "", "ERROR", "Password incorrect")
		return true
	}

	client.SetRegistered()
	server.playRegistrationBurst(client)
	server.logger.Info("connect", fmt.Sprintf("%s registered", client.NickMaskString()))
	return false
}

// playRegistrationBurst sends the 001-005 welcome burst, followed by the
// MOTD.
func (server *Server) playRegistrationBurst(client *Client) {
	config := server.config
	nick := client.Nick()

	client.Send(nil, server.name, RPL_WELCOME, nick,
		fmt.Sprintf("Welcome to the %s IRC Network %s", config.Server.NetworkName, client.NickMaskString()))
	client.Send(nil, server.name, RPL_YOURHOST, nick,
		fmt.Sprintf("Your host is %s, running version %s", server.name, Ver))
	client.Send(nil, server.name, RPL_CREATED, nick,
		fmt.Sprintf("This server was created %s", server.ctime.Format(time.RFC1123)))
	client.Send(nil, server.name, RPL_MYINFO, nick, server.name, Ver, "o", supportedChannelModesString)
	server.RplISupport(client)
	server.MOTD(client)
}

// RplISupport outputs our ISUPPORT lines to the client.
func (server *Server) RplISupport(client *Client) {
	nick := client.Nick()
	for _, cachedTokenLine := range server.isupport.CachedReply {
		params := make([]string, 0, len(cachedTokenLine)+2)
		params = append(params, nick)
		params = append(params, cachedTokenLine...)
		params = append(params, "are supported by this server")
		client.Send(nil, server.name, RPL_ISUPPORT, params...)
	}
}

// MOTD serves the Message of the Day.
func (server *Server) MOTD(client *Client) {
	nick := client.Nick()
	if len(server.motdLines) == 0 {
		client.Send(nil, server.name, ERR_NOMOTD, nick, "MOTD File is missing")
		return
	}

	client.Send(nil, server.name, RPL_MOTDSTART, nick,
		fmt.Sprintf("- %s Message of the day - ", server.name))
	for _, line := range server.motdLines {
		client.Send(nil, server.name, RPL_MOTD, nick, "- "+line)
	}
	client.Send(nil, server.name, RPL_ENDOFMOTD, nick, "End of MOTD command")
}
