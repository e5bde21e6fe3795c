// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package modes

import (
	"errors"
	"strings"
)

var (
	ErrMalformedModeString = errors.New("malformed mode string")

	// SupportedChannelModes are the channel modes that we support.
	SupportedChannelModes = Modes{
		InviteOnly, OpOnlyTopic, Key, ChannelOperator, UserLimit,
	}
)

// ModeOp is an operation performed with modes.
type ModeOp rune

const (
	// Add is used when adding the given mode.
	Add ModeOp = '+'
	// Remove is used when taking away the given mode.
	Remove ModeOp = '-'
)

// Mode represents a channel mode.
type Mode rune

func (mode Mode) String() string {
	return string(mode)
}

// Channel modes
const (
	InviteOnly      Mode = 'i' // flag
	OpOnlyTopic     Mode = 't' // flag
	Key             Mode = 'k' // flag arg
	ChannelOperator Mode = 'o' // arg
	UserLimit       Mode = 'l' // flag arg
)

// Modes is just a raw list of modes.
type Modes []Mode

func (modes Modes) String() string {
	var builder strings.Builder
	for _, m := range modes {
		builder.WriteRune(rune(m))
	}
	return builder.String()
}

// ModeChange is a single mode changing.
type ModeChange struct {
	Mode Mode
	Op   ModeOp
	Arg  string
}

// ModeChanges are a collection of 'ModeChange's.
type ModeChanges []ModeChange

// Strings returns the mode changes as a flag string followed by its
// positional arguments, ready to be used as the trailing params of a MODE
// line.
func (changes ModeChanges) Strings() (result []string) {
	if len(changes) == 0 {
		return
	}

	var builder strings.Builder

	op := changes[0].Op
	builder.WriteRune(rune(op))

	for _, change := range changes {
		if change.Op != op {
			op = change.Op
			builder.WriteRune(rune(op))
		}
		builder.WriteRune(rune(change.Mode))
	}

	result = append(result, builder.String())

	for _, change := range changes {
		if change.Arg == "" {
			continue
		}
		result = append(result, change.Arg)
	}
	return
}

func isSupported(mode Mode) bool {
	for _, supported := range SupportedChannelModes {
		if mode == supported {
			return true
		}
	}
	return false
}

// ValidateModeString checks the shape of a MODE flag string before any flag
// is applied: it must open with a sign, contain no two consecutive identical
// signs, and use only supported mode letters. Unknown letters are returned so
// the caller can report them individually.
func ValidateModeString(modeArg string) (unknown []rune, err error) {
	if len(modeArg) == 0 {
		return nil, ErrMalformedModeString
	}
	if modeArg[0] != '+' && modeArg[0] != '-' {
		return nil, ErrMalformedModeString
	}

	var prev rune
	for _, chr := range modeArg {
		if chr == '+' || chr == '-' {
			if chr == prev {
				return nil, ErrMalformedModeString
			}
			prev = chr
			continue
		}
		prev = 0
		if !isSupported(Mode(chr)) {
			unknown = append(unknown, chr)
		}
	}
	if len(unknown) != 0 {
		return unknown, ErrMalformedModeString
	}
	return nil, nil
}

// ParseChannelModeChanges parses a MODE flag string plus positional
// parameters into the individual changes, validating the flag string first.
// Each flag is bound to the most recently seen sign; 'k' consumes a
// positional parameter when adding, 'o' always, and 'l' when adding.
func ParseChannelModeChanges(params ...string) (changes ModeChanges, unknown []rune, err error) {
	if len(params) == 0 {
		return nil, nil, ErrMalformedModeString
	}

	modeArg := params[0]
	unknown, err = ValidateModeString(modeArg)
	if err != nil {
		return nil, unknown, err
	}

	op := Add
	skipArgs := 1

	for _, mode := range modeArg {
		if mode == '+' || mode == '-' {
			op = ModeOp(mode)
			continue
		}
		change := ModeChange{
			Mode: Mode(mode),
			Op:   op,
		}

		// bind positional arguments where the mode takes one
		switch Mode(mode) {
		case ChannelOperator:
			if len(params) > skipArgs {
				change.Arg = params[skipArgs]
				skipArgs++
			}
		case Key, UserLimit:
			if change.Op == Add && len(params) > skipArgs {
				change.Arg = params[skipArgs]
				skipArgs++
			}
		}

		changes = append(changes, change)
	}

	return changes, nil, nil
}
