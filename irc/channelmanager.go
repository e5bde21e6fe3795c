// Copyright (c) 2017 Shivaram Lingamneni <slingamn@cs.stanford.edu>
// released under the MIT license

package irc

import (
	"sync"
)

type channelManagerEntry struct {
	channel *Channel
	// this is a refcount for joins, so we can avoid a race where we
	// incorrectly think the channel is empty (without holding a lock across
	// the entire Channel.Join() call)
	pendingJoins int
}

// ChannelManager keeps track of all the channels on the server, providing
// synchronization for creation of new channels on first join and cleanup of
// empty channels on last part.
type ChannelManager struct {
	sync.RWMutex // tier 2
	// chans is the main data structure, mapping casefolded name -> entry
	chans  map[string]*channelManagerEntry
	server *Server
}

// NewChannelManager returns a new ChannelManager.
func NewChannelManager(server *Server) *ChannelManager {
	return &ChannelManager{
		chans:  make(map[string]*channelManagerEntry),
		server: server,
	}
}

// Get returns an existing channel with name equivalent to `name`, or nil.
func (cm *ChannelManager) Get(name string) *Channel {
	casefoldedName, err := CasefoldChannel(name)
	if err != nil {
		return nil
	}
	cm.RLock()
	defer cm.RUnlock()
	if entry := cm.chans[casefoldedName]; entry != nil {
		return entry.channel
	}
	return nil
}

// Join causes `client` to join the channel named `name`, creating it if
// necessary. A key supplied on the creating join becomes the channel key.
func (cm *ChannelManager) Join(client *Client, name string, key string) (channel *Channel, err error) {
	casefoldedName, err := CasefoldChannel(name)
	if err != nil || len(casefoldedName) > cm.server.Config().Limits.ChannelLen {
		return nil, errInvalidChannelName
	}

	cm.Lock()
	entry := cm.chans[casefoldedName]
	if entry == nil {
		entry = &channelManagerEntry{
			channel: NewChannel(cm.server, name, casefoldedName),
		}
		if key != "" {
			entry.channel.setKey(key)
		}
		cm.chans[casefoldedName] = entry
	}
	entry.pendingJoins++
	channel = entry.channel
	cm.Unlock()

	err = channel.Join(client, key)
	cm.maybeCleanup(channel)
	if err != nil {
		return nil, err
	}
	return channel, nil
}

func (cm *ChannelManager) maybeCleanup(channel *Channel) {
	cm.Lock()
	defer cm.Unlock()
	entry := cm.chans[channel.NameCasefolded()]
	if entry == nil || entry.channel != channel {
		return
	}
	if entry.pendingJoins > 0 {
		entry.pendingJoins--
	}
	if entry.pendingJoins == 0 && entry.channel.IsEmpty() {
		delete(cm.chans, channel.NameCasefolded())
	}
}

// Cleanup deletes the channel from the table once its last member is gone.
func (cm *ChannelManager) Cleanup(channel *Channel) {
	cm.Lock()
	defer cm.Unlock()
	entry := cm.chans[channel.NameCasefolded()]
	if entry != nil && entry.channel == channel && entry.pendingJoins == 0 && channel.IsEmpty() {
		delete(cm.chans, channel.NameCasefolded())
	}
}

// Channels returns a snapshot of all current channels.
func (cm *ChannelManager) Channels() (result []*Channel) {
	cm.RLock()
	defer cm.RUnlock()
	result = make([]*Channel, 0, len(cm.chans))
	for _, entry := range cm.chans {
		result = append(result, entry.channel)
	}
	return
}

// Len returns the number of channels.
func (cm *ChannelManager) Len() int {
	cm.RLock()
	defer cm.RUnlock()
	return len(cm.chans)
}
