// Copyright (c) 2020 Shivaram Lingamneni <slingamn@cs.stanford.edu>
// released under the MIT license

package irc

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

func TestJoinCreatesChannelWithOperator(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")

	alice.handleLine("JOIN #test")

	aliceWire.expectEventually("JOIN #test")
	namesLine := aliceWire.expect(" " + RPL_NAMREPLY + " ")
	if !strings.Contains(namesLine, "@alice") {
		t.Fatalf("the first member should be an operator, got %q", namesLine)
	}
	aliceWire.expect(" " + RPL_ENDOFNAMES + " ")

	channel := server.channels.Get("#test")
	if channel == nil {
		t.Fatal("channel should have been created")
	}
	if !channel.ClientIsMember(alice) || !channel.ClientIsOperator(alice) {
		t.Fatal("alice should be the sole member and operator")
	}
}

func TestJoinInvalidChannelName(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")

	alice.handleLine("JOIN badname")
	aliceWire.expectEventually(" " + ERR_NOSUCHCHANNEL + " ")

	alice.handleLine("JOIN #bad name")
	aliceWire.expectEventually(" " + ERR_NOSUCHCHANNEL + " ")
}

func TestJoinTwice(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")

	alice.handleLine("JOIN #test")
	aliceWire.expectEventually(" " + RPL_ENDOFNAMES + " ")
	alice.handleLine("JOIN #test")
	aliceWire.expect(" " + ERR_USERONCHANNEL + " ")
}

func TestKickByNonOperator(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")
	bob, bobWire := dialTestClient(t, server)
	registerClient(t, bob, bobWire, "bob", "")

	alice.handleLine("JOIN #test")
	bob.handleLine("JOIN #test")
	bobWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	bob.handleLine("KICK #test alice :bye")
	bobWire.expect(" " + ERR_CHANOPRIVSNEEDED + " ")

	channel := server.channels.Get("#test")
	if !channel.ClientIsMember(alice) || !channel.ClientIsMember(bob) {
		t.Fatal("membership should be unchanged")
	}
}

func TestKickFlow(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")
	bob, bobWire := dialTestClient(t, server)
	registerClient(t, bob, bobWire, "bob", "")

	alice.handleLine("JOIN #test")
	bob.handleLine("JOIN #test")
	bobWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	alice.handleLine("KICK #test bob :misbehaving")
	bobWire.expectEventually("KICK #test bob")

	channel := server.channels.Get("#test")
	if channel.ClientIsMember(bob) {
		t.Fatal("bob should have been removed")
	}
	if !channel.ClientIsMember(alice) {
		t.Fatal("alice should still be a member")
	}

	alice.handleLine("KICK #test bob :again")
	aliceWire.expectEventually(" " + ERR_USERNOTINCHANNEL + " ")
}

func TestPartReassignsOperator(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")
	bob, bobWire := dialTestClient(t, server)
	registerClient(t, bob, bobWire, "bob", "")

	alice.handleLine("JOIN #test")
	bob.handleLine("JOIN #test")
	bobWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	alice.handleLine("PART #test")
	bobWire.expectEventually("PART #test")
	bobWire.expectEventually("MODE #test +o bob")

	channel := server.channels.Get("#test")
	if channel == nil || !channel.ClientIsOperator(bob) {
		t.Fatal("bob should have been promoted when the last operator left")
	}

	bob.handleLine("PART #test :goodbye")
	bobWire.expectEventually("PART #test :goodbye")
	if server.channels.Get("#test") != nil {
		t.Fatal("the empty channel should have been reaped")
	}
}

func TestPartNotOnChannel(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")
	bob, bobWire := dialTestClient(t, server)
	registerClient(t, bob, bobWire, "bob", "")

	alice.handleLine("JOIN #test")
	aliceWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	bob.handleLine("PART #test")
	bobWire.expectEventually(" " + ERR_NOTONCHANNEL + " ")

	bob.handleLine("PART #nonexistent")
	bobWire.expect(" " + ERR_NOSUCHCHANNEL + " ")
}

func TestInviteOnlyFlow(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")
	carol, carolWire := dialTestClient(t, server)
	registerClient(t, carol, carolWire, "carol", "")

	alice.handleLine("JOIN #test")
	aliceWire.expectEventually(" " + RPL_ENDOFNAMES + " ")
	alice.handleLine("MODE #test +i")
	aliceWire.expectEventually("MODE #test +i")

	carol.handleLine("JOIN #test")
	carolWire.expectEventually(" " + ERR_INVITEONLYCHAN + " ")

	// only operators may invite
	carol.handleLine("INVITE carol #test")
	carolWire.expect(" " + ERR_CHANOPRIVSNEEDED + " ")

	alice.handleLine("INVITE carol #test")
	aliceWire.expectEventually(" " + RPL_INVITING + " ")
	carolWire.expect("INVITE carol #test")

	carol.handleLine("JOIN #test")
	carolWire.expectEventually("JOIN #test")

	channel := server.channels.Get("#test")
	if !channel.ClientIsMember(carol) {
		t.Fatal("carol should have been let in after the invite")
	}

	alice.handleLine("INVITE carol #test")
	aliceWire.expectEventually(" " + ERR_USERONCHANNEL + " ")
}

func TestChannelKey(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")
	bob, bobWire := dialTestClient(t, server)
	registerClient(t, bob, bobWire, "bob", "")

	// the key supplied on the creating join becomes the channel key
	alice.handleLine("JOIN #secret hunter2")
	aliceWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	bob.handleLine("JOIN #secret")
	bobWire.expectEventually(" " + ERR_BADCHANNELKEY + " ")
	bob.handleLine("JOIN #secret wrong")
	bobWire.expect(" " + ERR_BADCHANNELKEY + " ")
	bob.handleLine("JOIN #secret hunter2")
	bobWire.expectEventually("JOIN #secret")

	// -k clears the key
	bob.handleLine("PART #secret")
	bobWire.expectEventually("PART #secret")
	alice.handleLine("MODE #secret -k")
	bob.handleLine("JOIN #secret")
	bobWire.expectEventually("JOIN #secret")
}

func TestChannelLimit(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")
	bob, bobWire := dialTestClient(t, server)
	registerClient(t, bob, bobWire, "bob", "")

	alice.handleLine("JOIN #test")
	aliceWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	alice.handleLine("MODE #test +l bogus")
	aliceWire.expectEventually(" " + ERR_KEYSET + " ")
	alice.handleLine("MODE #test +l 0")
	aliceWire.expectEventually(" " + ERR_KEYSET + " ")

	alice.handleLine("MODE #test +l 1")
	aliceWire.expectEventually("MODE #test +l 1")

	bob.handleLine("JOIN #test")
	bobWire.expectEventually(" " + ERR_CHANNELISFULL + " ")

	alice.handleLine("MODE #test -l")
	aliceWire.expectEventually("MODE #test -l")
	bob.handleLine("JOIN #test")
	bobWire.expectEventually("JOIN #test")

	// a redundant clear only notifies the issuer
	alice.handleLine("MODE #test -l")
	alice.handleLine("MODE #test -l")
	aliceWire.expectEventually("already disabled")
}

func TestTopic(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")
	bob, bobWire := dialTestClient(t, server)
	registerClient(t, bob, bobWire, "bob", "")

	alice.handleLine("JOIN #test")
	bob.handleLine("JOIN #test")
	bobWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	alice.handleLine("TOPIC #test")
	aliceWire.expectEventually(" " + RPL_NOTOPIC + " ")

	// without +t any member may set the topic
	bob.handleLine("TOPIC #test :hello world")
	bobWire.expectEventually("TOPIC #test :hello world")

	alice.handleLine("TOPIC #test")
	aliceWire.expectEventually(" " + RPL_TOPIC + " ")

	alice.handleLine("MODE #test +t")
	aliceWire.expectEventually("MODE #test +t")

	bob.handleLine("TOPIC #test :bob was here")
	bobWire.expectEventually(" " + ERR_CHANOPRIVSNEEDED + " ")

	alice.handleLine("TOPIC #test :ops only")
	aliceWire.expectEventually("TOPIC #test :ops only")
}

func TestModeIdempotence(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")

	alice.handleLine("JOIN #test")
	aliceWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	alice.handleLine("MODE #test +i")
	aliceWire.expectEventually("MODE #test +i")

	channel := server.channels.Get("#test")
	if channel.ModeString() != "+i" {
		t.Fatalf("expected +i, got %q", channel.ModeString())
	}

	// the second application reports "already enabled" and does not
	// re-broadcast
	alice.handleLine("MODE #test +i")
	line := aliceWire.expectEventually("already enabled")
	if !strings.Contains(line, " "+RPL_CHANNELMODEIS+" ") {
		t.Fatalf("expected a 324-style notice, got %q", line)
	}
	if channel.ModeString() != "+i" {
		t.Fatalf("state should be unchanged, got %q", channel.ModeString())
	}
}

func TestModeQueryRoundTrip(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")

	alice.handleLine("JOIN #test")
	aliceWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	alice.handleLine("MODE #test +ik hunter2")
	alice.handleLine("MODE #test +l 42")
	aliceWire.expectEventually("MODE #test +l 42")

	alice.handleLine("MODE #test")
	aliceWire.expectEventually(" " + RPL_CHANNELMODEIS + " alice #test +ikl")

	alice.handleLine("MODE #test -i")
	aliceWire.expectEventually("MODE #test -i")
	alice.handleLine("MODE #test")
	aliceWire.expectEventually(" " + RPL_CHANNELMODEIS + " alice #test +kl")
}

func TestModeValidation(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")

	alice.handleLine("JOIN #test")
	aliceWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	// flag strings must open with a sign
	alice.handleLine("MODE #test it")
	aliceWire.expectEventually(" " + ERR_UNKNOWNMODE + " ")

	// no two consecutive identical signs
	alice.handleLine("MODE #test ++i")
	aliceWire.expectEventually(" " + ERR_UNKNOWNMODE + " ")

	// unknown letters are rejected outright
	alice.handleLine("MODE #test +x")
	aliceWire.expectEventually(" " + ERR_UNKNOWNMODE + " ")
	if server.channels.Get("#test").ModeString() != "+" {
		t.Fatal("no mode should have been applied")
	}
}

func TestOperatorModeChanges(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")
	bob, bobWire := dialTestClient(t, server)
	registerClient(t, bob, bobWire, "bob", "")
	carol, carolWire := dialTestClient(t, server)
	registerClient(t, carol, carolWire, "carol", "")
	_ = carolWire

	alice.handleLine("JOIN #test")
	bob.handleLine("JOIN #test")
	bobWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	// only operators may change modes
	bob.handleLine("MODE #test +o bob")
	bobWire.expect(" " + ERR_CHANOPRIVSNEEDED + " ")

	// promoting a non-member is rejected
	alice.handleLine("MODE #test +o carol")
	aliceWire.expectEventually(" " + ERR_USERNOTINCHANNEL + " ")

	alice.handleLine("MODE #test +o bob")
	bobWire.expectEventually("MODE #test +o bob")
	channel := server.channels.Get("#test")
	if !channel.ClientIsOperator(bob) {
		t.Fatal("bob should be an operator")
	}

	// promoting an operator is rejected with a notice
	alice.handleLine("MODE #test +o bob")
	aliceWire.expectEventually("already an operator")

	alice.handleLine("MODE #test -o bob")
	bobWire.expectEventually("MODE #test -o bob")
	if channel.ClientIsOperator(bob) {
		t.Fatal("bob should have been demoted")
	}

	// demoting a non-operator is rejected with a notice
	alice.handleLine("MODE #test -o bob")
	aliceWire.expectEventually("not an operator")
}

func TestSelfDemotionPromotesSuccessor(t *testing.T) {
	server := newTestServer(t, "")
	alice, aliceWire := dialTestClient(t, server)
	registerClient(t, alice, aliceWire, "alice", "")
	bob, bobWire := dialTestClient(t, server)
	registerClient(t, bob, bobWire, "bob", "")

	alice.handleLine("JOIN #test")
	bob.handleLine("JOIN #test")
	bobWire.expectEventually(" " + RPL_ENDOFNAMES + " ")

	// alice demotes herself; the channel must not be left operator-less
	alice.handleLine("MODE #test -o alice")
	aliceWire.expectEventually("MODE #test +o")

	channel := server.channels.Get("#test")
	if !channel.ClientIsOperator(alice) && !channel.ClientIsOperator(bob) {
		t.Fatal("someone should have been promoted")
	}
}

// TestOperatorInvariant drives random interleavings of joins, parts, kicks
// and demotions and checks that a non-empty channel never ends up without
// an operator.
func TestOperatorInvariant(t *testing.T) {
	server := newTestServer(t, "")
	rng := rand.New(rand.NewSource(42))

	const numClients = 5
	clients := make([]*Client, numClients)
	wires := make([]*testWire, numClients)
	for i := range clients {
		nick := fmt.Sprintf("nick%d", i)
		clients[i], wires[i] = dialTestClient(t, server)
		registerClient(t, clients[i], wires[i], nick, "")
	}

	checkInvariant := func(step int) {
		channel := server.channels.Get("#fuzz")
		if channel == nil {
			return
		}
		channel.stateMutex.RLock()
		members, operators := len(channel.members), len(channel.operators)
		channel.stateMutex.RUnlock()
		if members > 0 && operators == 0 {
			t.Fatalf("step %d: channel has %d members but no operator", step, members)
		}
		if operators > members {
			t.Fatalf("step %d: more operators (%d) than members (%d)", step, operators, members)
		}
	}

	for step := 0; step < 500; step++ {
		actor := rng.Intn(numClients)
		subject := rng.Intn(numClients)
		switch rng.Intn(4) {
		case 0:
			clients[actor].handleLine("JOIN #fuzz")
		case 1:
			clients[actor].handleLine("PART #fuzz")
		case 2:
			clients[actor].handleLine(fmt.Sprintf("KICK #fuzz nick%d", subject))
		case 3:
			clients[actor].handleLine(fmt.Sprintf("MODE #fuzz -o nick%d", subject))
		}
		for i := range wires {
			wires[i].drain()
		}
		checkInvariant(step)
	}
}
