// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package irc

import "errors"

// Runtime errors
var (
	errNicknameInUse          = errors.New("nickname in use")
	errNicknameInvalid        = errors.New("invalid nickname")
	errNickMissing            = errors.New("nick missing")
	errNoSuchClient           = errors.New("no such client")
	errNoSuchChannel          = errors.New("no such channel")
	errInvalidChannelName     = errors.New("invalid channel name")
	errAlreadyJoined          = errors.New("already joined")
	errNotOnChannel           = errors.New("not on channel")
	errWrongChannelKey        = errors.New("wrong channel key")
	errInviteOnlyChannel      = errors.New("channel is invite-only")
	errChannelIsFull          = errors.New("channel is full")
	errNotChannelOperator     = errors.New("not a channel operator")
	errAlreadyChannelOperator = errors.New("already a channel operator")
	errPasswordMismatch       = errors.New("password incorrect")
	errNameAlreadySet         = errors.New("realname already set")
)

// String errors
var (
	errStringIsEmpty    = errors.New("string is empty")
	errInvalidCharacter = errors.New("invalid character")
)

// Config errors
var (
	ErrServerNameMissing     = errors.New("Server name missing")
	ErrNoListenersDefined    = errors.New("Server listening addresses missing")
	ErrLimitsAreInsane       = errors.New("Limits aren't setup properly, check them and make them sane")
	ErrLoggerFilenameMissing = errors.New("Logging configuration specifies 'file' method but 'filename' is empty")
	ErrLoggerHasNoTypes      = errors.New("Logger has no types to log")
)
