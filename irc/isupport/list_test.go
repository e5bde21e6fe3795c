// Copyright (c) 2016 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package isupport

import (
	"strings"
	"testing"
)

func TestISupportList(t *testing.T) {
	list := NewList()
	list.Add("CASEMAPPING", "ascii")
	list.Add("CHANTYPES", "#")
	list.AddNoValue("EXCEPTS")
	list.Add("NICKLEN", "9")
	list.RegenerateCachedReply()

	if len(list.CachedReply) != 1 {
		t.Fatalf("expected a single 005 line, got %d", len(list.CachedReply))
	}

	joined := strings.Join(list.CachedReply[0], " ")
	expected := "CASEMAPPING=ascii CHANTYPES=# EXCEPTS NICKLEN=9"
	if joined != expected {
		t.Errorf("expected [%s], got [%s]", expected, joined)
	}
}

func TestISupportListSplitting(t *testing.T) {
	list := NewList()
	// more than 13 tokens forces a second 005 line
	for _, name := range []string{
		"AWAYLEN", "BOT", "CASEMAPPING", "CHANLIMIT", "CHANMODES", "CHANNELLEN",
		"CHANTYPES", "ELIST", "EXCEPTS", "HOSTLEN", "INVEX", "KICKLEN",
		"MAXLIST", "MAXTARGETS", "MODES", "NETWORK",
	} {
		list.AddNoValue(name)
	}
	list.RegenerateCachedReply()

	if len(list.CachedReply) != 2 {
		t.Fatalf("expected two 005 lines, got %d", len(list.CachedReply))
	}
	if len(list.CachedReply[0]) != 13 {
		t.Errorf("expected 13 tokens on the first line, got %d", len(list.CachedReply[0]))
	}
}
