// Copyright (c) 2017 Shivaram Lingamneni <slingamn@cs.stanford.edu>
// released under the MIT license

package irc

import (
	"sync"
)

// ClientManager keeps track of all connected clients, keyed both by
// connection id and by casefolded nickname. It is the sole authority on
// nickname uniqueness: nicknames are claimed and released under its lock.
type ClientManager struct {
	sync.RWMutex // tier 2
	byNick       map[string]*Client
	byConn       map[uint64]*Client
}

// NewClientManager returns a new ClientManager.
func NewClientManager() *ClientManager {
	return &ClientManager{
		byNick: make(map[string]*Client),
		byConn: make(map[uint64]*Client),
	}
}

// Count returns how many clients are connected.
func (clients *ClientManager) Count() int {
	clients.RLock()
	defer clients.RUnlock()
	return len(clients.byConn)
}

// Get retrieves a client by nickname, or nil if they aren't connected.
func (clients *ClientManager) Get(nick string) *Client {
	casefoldedName, err := CasefoldName(nick)
	if err != nil {
		return nil
	}
	clients.RLock()
	defer clients.RUnlock()
	return clients.byNick[casefoldedName]
}

// Add registers a newly accepted connection under its guest nickname.
func (clients *ClientManager) Add(client *Client) {
	clients.Lock()
	defer clients.Unlock()
	clients.byConn[client.id] = client
	clients.byNick[client.NickCasefolded()] = client
}

// Remove removes the client from the tables on disconnect.
func (clients *ClientManager) Remove(client *Client) {
	clients.Lock()
	defer clients.Unlock()
	delete(clients.byConn, client.id)
	casefolded := client.NickCasefolded()
	if clients.byNick[casefolded] == client {
		delete(clients.byNick, casefolded)
	}
}

// SetNick claims the given nickname for the client, releasing their previous
// one. The check and the claim happen under one lock so two clients can
// never hold the same nickname.
func (clients *ClientManager) SetNick(client *Client, newNick string) error {
	newCasefolded, err := CasefoldName(newNick)
	if err != nil {
		return errNicknameInvalid
	}

	clients.Lock()
	defer clients.Unlock()

	if holder := clients.byNick[newCasefolded]; holder != nil && holder != client {
		return errNicknameInUse
	}

	oldCasefolded := client.NickCasefolded()
	if clients.byNick[oldCasefolded] == client {
		delete(clients.byNick, oldCasefolded)
	}
	clients.byNick[newCasefolded] = client
	client.updateNick(newNick, newCasefolded)
	return nil
}

// AllClients returns a snapshot of all connected clients.
func (clients *ClientManager) AllClients() (result []*Client) {
	clients.RLock()
	defer clients.RUnlock()
	result = make([]*Client, 0, len(clients.byConn))
	for _, client := range clients.byConn {
		result = append(result, client)
	}
	return
}
