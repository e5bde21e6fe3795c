// Copyright (c) 2017 Shivaram Lingamneni <slingamn@cs.stanford.edu>
// released under the MIT license

package irc

func (client *Client) Nick() string {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	return client.nick
}

func (client *Client) NickCasefolded() string {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	return client.nickCasefolded
}

// NickMaskString returns the nick!user@host source prefix for lines sent
// on this client's behalf.
func (client *Client) NickMaskString() string {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	username := client.username
	if username == "" {
		username = "*"
	}
	return client.nick + "!" + username + "@" + client.hostname
}

func (client *Client) Username() string {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	return client.username
}

func (client *Client) Realname() string {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	return client.realname
}

func (client *Client) Hostname() string {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	return client.hostname
}

// HasNick returns true if the client's nickname is set (used in
// registration).
func (client *Client) HasNick() bool {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	return client.hasNick
}

// HasUsername returns true if the client's username is set (used in
// registration).
func (client *Client) HasUsername() bool {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	return client.hasUser
}

// SetNames sets the client's username and realname. It only succeeds once.
func (client *Client) SetNames(username, realname string) error {
	client.stateMutex.Lock()
	defer client.stateMutex.Unlock()
	if client.hasUser {
		return errNameAlreadySet
	}
	client.username = username
	client.realname = realname
	client.hasUser = true
	return nil
}

func (client *Client) Authorized() bool {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	return client.authorized
}

func (client *Client) SetAuthorized(authorized bool) {
	client.stateMutex.Lock()
	defer client.stateMutex.Unlock()
	client.authorized = authorized
}

func (client *Client) Registered() bool {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	return client.registered
}

// SetRegistered transitions the client into the registered state; the
// transition is one-way.
func (client *Client) SetRegistered() {
	client.stateMutex.Lock()
	defer client.stateMutex.Unlock()
	client.registered = true
}

func (client *Client) Destroyed() bool {
	client.stateMutex.RLock()
	defer client.stateMutex.RUnlock()
	return client.destroyed
}

// updateNick is called by the client manager while it holds its own lock,
// so the nickname tables and the client's view of its nick change together.
func (client *Client) updateNick(nick, nickCasefolded string) {
	client.stateMutex.Lock()
	defer client.stateMutex.Unlock()
	client.nick = nick
	client.nickCasefolded = nickCasefolded
	client.hasNick = true
}
