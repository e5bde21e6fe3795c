// Copyright (c) 2016 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package isupport

import (
	"fmt"
	"slices"
)

const (
	maxLastArgLength = 400

	/* Modern: "As the maximum number of message parameters to any reply is 15,
	the maximum number of RPL_ISUPPORT tokens that can be advertised is 13."
	<nickname> [up to 13 parameters] <human-readable trailing>
	*/
	maxParameters = 13
)

// List holds a list of ISUPPORT tokens.
type List struct {
	Tokens      map[string]string
	CachedReply [][]string
}

// NewList returns a new List.
func NewList() *List {
	var il List
	il.Tokens = make(map[string]string)
	return &il
}

// Add adds an RPL_ISUPPORT token to our internal list.
func (il *List) Add(name string, value string) {
	il.Tokens[name] = value
}

// AddNoValue adds an RPL_ISUPPORT token that does not have a value.
func (il *List) AddNoValue(name string) {
	il.Tokens[name] = ""
}

func getTokenString(name string, value string) string {
	if len(value) == 0 {
		return name
	}

	return fmt.Sprintf("%s=%s", name, value)
}

// RegenerateCachedReply regenerates the cached RPL_ISUPPORT parameter lists:
// each element of CachedReply is the parameter list of one 005 line (without
// the target nick and the trailing explanation).
func (il *List) RegenerateCachedReply() {
	var tokens []string
	for name, value := range il.Tokens {
		tokens = append(tokens, getTokenString(name, value))
	}
	slices.Sort(tokens)

	var replies [][]string
	var cache []string
	var length int

	for _, token := range tokens {
		if len(token)+length <= maxLastArgLength {
			// account for the space separating tokens
			if len(cache) > 0 {
				length++
			}
			cache = append(cache, token)
			length += len(token)
		}

		if len(cache) == maxParameters || len(token)+length >= maxLastArgLength {
			replies = append(replies, cache)
			cache = nil
			length = 0
		}
	}

	if len(cache) > 0 {
		replies = append(replies, cache)
	}

	il.CachedReply = replies
}
