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
	"sync"
	"time"

	"github.com/ratel-irc/ratel/irc/modes"
)

// Channel represents a channel that clients can join.
type Channel struct {
	server         *Server
	name           string
	nameCasefolded string
	createdTime    time.Time

	stateMutex  sync.RWMutex // tier 1
	members     map[string]bool
	operators   map[string]bool
	invited     map[string]bool
	topic       string
	key         string
	inviteOnly  bool
	opOnlyTopic bool
	userLimit   int
}

// NewChannel creates a new channel from a `name` string.
func NewChannel(s *Server, name, casefoldedName string) *Channel {
	return &Channel{
		server:         s,
		name:           name,
		nameCasefolded: casefoldedName,
		createdTime:    time.Now().UTC(),
		members:        make(map[string]bool),
		operators:      make(map[string]bool),
		invited:        make(map[string]bool),
	}
}

// Name returns the casemapped name of this channel.
func (channel *Channel) Name() string {
	return channel.name
}

func (channel *Channel) NameCasefolded() string {
	return channel.nameCasefolded
}

// setKey is only for the creating join, before the channel is visible.
func (channel *Channel) setKey(key string) {
	channel.stateMutex.Lock()
	defer channel.stateMutex.Unlock()
	channel.key = key
}

func (channel *Channel) IsEmpty() bool {
	channel.stateMutex.RLock()
	defer channel.stateMutex.RUnlock()
	return len(channel.members) == 0
}

// MemberNicks returns a snapshot of the casefolded nicks of the members.
func (channel *Channel) MemberNicks() (nicks []string) {
	channel.stateMutex.RLock()
	defer channel.stateMutex.RUnlock()
	nicks = make([]string, 0, len(channel.members))
	for nick := range channel.members {
		nicks = append(nicks, nick)
	}
	return
}

// ClientIsMember returns true if the client is in this channel.
func (channel *Channel) ClientIsMember(client *Client) bool {
	channel.stateMutex.RLock()
	defer channel.stateMutex.RUnlock()
	return channel.members[client.NickCasefolded()]
}

// ClientIsOperator returns true if the client is an operator of this channel.
func (channel *Channel) ClientIsOperator(client *Client) bool {
	channel.stateMutex.RLock()
	defer channel.stateMutex.RUnlock()
	return channel.operators[client.NickCasefolded()]
}

// broadcast sends a line to every member, optionally excluding one
// (casefolded) nick. Members are snapshotted under the read lock and
// resolved through the client manager, so no channel lock is held during
// socket writes.
func (channel *Channel) broadcast(excludedNick string, prefix string, command string, params ...string) {
	for _, nick := range channel.MemberNicks() {
		if nick == excludedNick {
			continue
		}
		if member := channel.server.clients.Get(nick); member != nil {
			member.Send(nil, prefix, command, params...)
		}
	}
}

// Join joins the given client to this channel, enforcing the key, the
// invite list and the member limit. The first member of a channel becomes
// its operator.
func (channel *Channel) Join(client *Client, key string) (err error) {
	cfnick := client.NickCasefolded()

	channel.stateMutex.Lock()
	switch {
	case channel.members[cfnick]:
		err = errAlreadyJoined
	case channel.key != "" && channel.key != key:
		err = errWrongChannelKey
	case channel.inviteOnly && !channel.invited[cfnick]:
		err = errInviteOnlyChannel
	case channel.userLimit > 0 && len(channel.members) >= channel.userLimit:
		err = errChannelIsFull
	default:
		channel.members[cfnick] = true
		delete(channel.invited, cfnick)
		if len(channel.members) == 1 {
			channel.operators[cfnick] = true
		}
	}
	channel.stateMutex.Unlock()

	if err != nil {
		return err
	}

	client.addChannel(channel)
	channel.broadcast("", client.NickMaskString(), "JOIN", channel.name)
	channel.SendTopic(client, false)
	channel.Names(client)
	return nil
}

// Part parts the given client from this channel, broadcasting the part to
// every member (the leaver included).
func (channel *Channel) Part(client *Client, message string) (err error) {
	if !channel.ClientIsMember(client) {
		return errNotOnChannel
	}

	channel.broadcast("", client.NickMaskString(), "PART", channel.name, message)
	channel.removeMember(client)
	return nil
}

// Kick removes the target from the channel. The issuer must be an operator
// and the target must be a member; the target sees the broadcast KICK line
// like everyone else.
func (channel *Channel) Kick(kicker *Client, target *Client, comment string) (err error) {
	channel.stateMutex.RLock()
	switch {
	case !channel.operators[kicker.NickCasefolded()]:
		err = errNotChannelOperator
	case !channel.members[target.NickCasefolded()]:
		err = errNotOnChannel
	}
	channel.stateMutex.RUnlock()
	if err != nil {
		return err
	}

	kicklimit := channel.server.Config().Limits.KickLen
	if len(comment) > kicklimit {
		comment = comment[:kicklimit]
	}

	channel.broadcast("", kicker.NickMaskString(), "KICK", channel.name, target.Nick(), comment)
	channel.removeMember(target)
	return nil
}

// Invite records an invitation for the target, letting them through a
// future +i check, and notifies both parties.
func (channel *Channel) Invite(inviter *Client, target *Client) (err error) {
	channel.stateMutex.Lock()
	switch {
	case !channel.operators[inviter.NickCasefolded()]:
		err = errNotChannelOperator
	case channel.members[target.NickCasefolded()]:
		err = errAlreadyJoined
	default:
		channel.invited[target.NickCasefolded()] = true
	}
	channel.stateMutex.Unlock()
	if err != nil {
		return err
	}

	inviter.Send(nil, channel.server.name, RPL_INVITING, inviter.Nick(), target.Nick(), channel.name)
	target.Send(nil, inviter.NickMaskString(), "INVITE", target.Nick(), channel.name)
	return nil
}

// GetTopic returns the channel topic.
func (channel *Channel) GetTopic() string {
	channel.stateMutex.RLock()
	defer channel.stateMutex.RUnlock()
	return channel.topic
}

// SendTopic sends the channel topic to the given client; 331 is only sent
// on an explicit TOPIC query.
func (channel *Channel) SendTopic(client *Client, sendNoTopic bool) {
	topic := channel.GetTopic()
	if topic == "" {
		if sendNoTopic {
			client.Send(nil, channel.server.name, RPL_NOTOPIC, client.Nick(), channel.name, "No topic is set")
		}
		return
	}
	client.Send(nil, channel.server.name, RPL_TOPIC, client.Nick(), channel.name, topic)
}

// SetTopic sets the topic of this channel. Setting requires membership,
// and operator status when the channel is +t.
func (channel *Channel) SetTopic(client *Client, topic string) (err error) {
	cfnick := client.NickCasefolded()

	channel.stateMutex.Lock()
	switch {
	case !channel.members[cfnick]:
		err = errNotOnChannel
	case channel.opOnlyTopic && !channel.operators[cfnick]:
		err = errNotChannelOperator
	default:
		if limit := channel.server.Config().Limits.TopicLen; len(topic) > limit {
			topic = topic[:limit]
		}
		channel.topic = topic
	}
	channel.stateMutex.Unlock()
	if err != nil {
		return err
	}

	channel.broadcast("", client.NickMaskString(), "TOPIC", channel.name, topic)
	return nil
}

// Names sends the list of members (operators prefixed with @) to the
// given client.
func (channel *Channel) Names(client *Client) {
	type memberEntry struct {
		cfnick string
		isOp   bool
	}
	channel.stateMutex.RLock()
	entries := make([]memberEntry, 0, len(channel.members))
	for cfnick := range channel.members {
		entries = append(entries, memberEntry{cfnick, channel.operators[cfnick]})
	}
	channel.stateMutex.RUnlock()

	nicks := make([]string, 0, len(entries))
	for _, entry := range entries {
		if member := channel.server.clients.Get(entry.cfnick); member != nil {
			prefix := ""
			if entry.isOp {
				prefix = "@"
			}
			nicks = append(nicks, prefix+member.Nick())
		}
	}
	sort.Strings(nicks)

	client.Send(nil, channel.server.name, RPL_NAMREPLY, client.Nick(), "=", channel.name, strings.Join(nicks, " "))
	client.Send(nil, channel.server.name, RPL_ENDOFNAMES, client.Nick(), channel.name, "End of /NAMES list")
}

// PrivMsg relays a PRIVMSG or NOTICE from a member to every other member.
func (channel *Channel) PrivMsg(command string, sender *Client, message string) (err error) {
	if !channel.ClientIsMember(sender) {
		return errNotOnChannel
	}
	channel.broadcast(sender.NickCasefolded(), sender.NickMaskString(), command, channel.name, message)
	return nil
}

// ModeString returns the enabled flags of this channel in fixed itkl order.
func (channel *Channel) ModeString() string {
	channel.stateMutex.RLock()
	defer channel.stateMutex.RUnlock()

	var builder strings.Builder
	builder.WriteRune('+')
	if channel.inviteOnly {
		builder.WriteRune(rune(modes.InviteOnly))
	}
	if channel.opOnlyTopic {
		builder.WriteRune(rune(modes.OpOnlyTopic))
	}
	if channel.key != "" {
		builder.WriteRune(rune(modes.Key))
	}
	if channel.userLimit > 0 {
		builder.WriteRune(rune(modes.UserLimit))
	}
	return builder.String()
}

// ApplyModeChanges applies parsed mode changes left to right on behalf of
// `client`, who must already be an operator. Redundant toggles report back
// to the issuer without a broadcast; effective changes are broadcast to the
// membership one at a time.
func (channel *Channel) ApplyModeChanges(client *Client, changes modes.ModeChanges) {
	server := channel.server

	for _, change := range changes {
		switch change.Mode {
		case modes.InviteOnly:
			channel.applyFlagToggle(client, change.Op, modes.InviteOnly, "Invite-only mode")
		case modes.OpOnlyTopic:
			channel.applyFlagToggle(client, change.Op, modes.OpOnlyTopic, "Topic restriction mode")
		case modes.Key:
			if change.Op == modes.Add && change.Arg == "" {
				client.Send(nil, server.name, ERR_NEEDMOREPARAMS, client.Nick(), "MODE", "Not enough parameters")
				continue
			}
			channel.stateMutex.Lock()
			if change.Op == modes.Add {
				channel.key = change.Arg
			} else {
				channel.key = ""
			}
			channel.stateMutex.Unlock()
		case modes.ChannelOperator:
			channel.applyOperatorChange(client, change)
		case modes.UserLimit:
			channel.applyLimitChange(client, change)
		}
	}
}

// applyFlagToggle handles the two plain boolean channel modes, i and t.
func (channel *Channel) applyFlagToggle(client *Client, op modes.ModeOp, mode modes.Mode, what string) {
	adding := op == modes.Add

	channel.stateMutex.Lock()
	var current *bool
	switch mode {
	case modes.InviteOnly:
		current = &channel.inviteOnly
	case modes.OpOnlyTopic:
		current = &channel.opOnlyTopic
	}
	redundant := *current == adding
	if !redundant {
		*current = adding
	}
	channel.stateMutex.Unlock()

	if redundant {
		state := "disabled"
		if adding {
			state = "enabled"
		}
		client.Send(nil, channel.server.name, RPL_CHANNELMODEIS, client.Nick(), channel.name,
			string(op)+mode.String(), fmt.Sprintf("%s is already %s", what, state))
		return
	}
	channel.broadcast("", client.NickMaskString(), "MODE", channel.name, string(op)+mode.String())
}

// applyOperatorChange handles +o/-o. The original daemon reported these
// through 381/481 notices to the issuer rather than standard numerics, and
// we keep that behavior.
func (channel *Channel) applyOperatorChange(client *Client, change modes.ModeChange) {
	server := channel.server
	targetNick := change.Arg
	if targetNick == "" {
		client.Send(nil, server.name, ERR_NEEDMOREPARAMS, client.Nick(), "MODE", "Not enough parameters")
		return
	}
	cftarget, err := CasefoldName(targetNick)
	if err != nil {
		client.Send(nil, server.name, ERR_NOSUCHNICK, client.Nick(), targetNick, "No such nick")
		return
	}

	var verr error
	channel.stateMutex.Lock()
	if change.Op == modes.Add {
		switch {
		case channel.operators[cftarget]:
			verr = errAlreadyChannelOperator
		case !channel.members[cftarget]:
			verr = errNotOnChannel
		default:
			channel.operators[cftarget] = true
		}
	} else {
		if !channel.operators[cftarget] {
			verr = errNotChannelOperator
		} else {
			delete(channel.operators, cftarget)
		}
	}
	channel.stateMutex.Unlock()

	switch verr {
	case errAlreadyChannelOperator:
		client.Send(nil, server.name, ERR_NOPRIVILEGES, client.Nick(), "User is already an operator")
		return
	case errNotOnChannel:
		client.Send(nil, server.name, ERR_USERNOTINCHANNEL, client.Nick(), targetNick, "They aren't on the channel")
		return
	case errNotChannelOperator:
		client.Send(nil, server.name, ERR_NOPRIVILEGES, client.Nick(), "User is not an operator")
		return
	}

	if change.Op == modes.Add {
		client.Send(nil, server.name, RPL_YOUREOPER, client.Nick(), targetNick, "User is now an operator")
	} else {
		client.Send(nil, server.name, RPL_YOUREOPER, client.Nick(), targetNick, "User is no longer an operator")
	}
	channel.broadcast("", client.NickMaskString(), "MODE", channel.name, string(change.Op)+modes.ChannelOperator.String(), targetNick)

	if change.Op == modes.Remove {
		channel.ensureOperators()
	}
}

// applyLimitChange handles +l/-l with bounds validation.
func (channel *Channel) applyLimitChange(client *Client, change modes.ModeChange) {
	server := channel.server

	if change.Op == modes.Add {
		limit, err := strconv.Atoi(change.Arg)
		if err != nil || limit < 1 || limit > server.Config().Limits.MemberLimitMax {
			client.Send(nil, server.name, ERR_KEYSET, client.Nick(), channel.name, "Invalid channel limit")
			return
		}
		channel.stateMutex.Lock()
		channel.userLimit = limit
		channel.stateMutex.Unlock()
		channel.broadcast("", client.NickMaskString(), "MODE", channel.name, "+l", change.Arg)
		return
	}

	channel.stateMutex.Lock()
	redundant := channel.userLimit == 0
	channel.userLimit = 0
	channel.stateMutex.Unlock()

	if redundant {
		client.Send(nil, server.name, RPL_CHANNELMODEIS, client.Nick(), channel.name,
			"-l", "Channel limit is already disabled")
		return
	}
	channel.broadcast("", client.NickMaskString(), "MODE", channel.name, "-l")
}

// removeMember drops the client from the membership and operator tables,
// restores the operator invariant and reaps the channel if it is now empty.
func (channel *Channel) removeMember(client *Client) {
	cfnick := client.NickCasefolded()

	channel.stateMutex.Lock()
	delete(channel.members, cfnick)
	delete(channel.operators, cfnick)
	channel.stateMutex.Unlock()

	client.removeChannel(channel)
	channel.ensureOperators()
	channel.server.channels.Cleanup(channel)
}

// Quit removes a disconnecting client; the QUIT broadcast itself is handled
// by the client teardown, which snapshots its channels first.
func (channel *Channel) Quit(client *Client) {
	channel.removeMember(client)
}

// ensureOperators enforces the invariant that a non-empty channel always
// has at least one operator, promoting the casefold-sorted first member.
func (channel *Channel) ensureOperators() {
	channel.stateMutex.Lock()
	promoted := ""
	if len(channel.members) > 0 && len(channel.operators) == 0 {
		nicks := make([]string, 0, len(channel.members))
		for nick := range channel.members {
			nicks = append(nicks, nick)
		}
		sort.Strings(nicks)
		promoted = nicks[0]
		channel.operators[promoted] = true
	}
	channel.stateMutex.Unlock()

	if promoted == "" {
		return
	}
	if member := channel.server.clients.Get(promoted); member != nil {
		channel.broadcast("", channel.server.name, "MODE", channel.name, "+o", member.Nick())
	}
}

// renameMember rekeys the given member after a nick change. The caller is
// responsible for broadcasting the NICK line.
func (channel *Channel) renameMember(oldCfNick, newCfNick string) {
	channel.stateMutex.Lock()
	defer channel.stateMutex.Unlock()
	if channel.members[oldCfNick] {
		delete(channel.members, oldCfNick)
		channel.members[newCfNick] = true
	}
	if channel.operators[oldCfNick] {
		delete(channel.operators, oldCfNick)
		channel.operators[newCfNick] = true
	}
	if channel.invited[oldCfNick] {
		delete(channel.invited, oldCfNick)
		channel.invited[newCfNick] = true
	}
}
