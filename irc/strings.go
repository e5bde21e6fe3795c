// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package irc

import (
	"strings"
)

const (
	casemappingName = "ascii"

	maxNickLen = 9
)

// Casefold returns a canonical lowercased form of str. Nicknames and channel
// names are restricted to printable ASCII, so plain ASCII lowercasing is the
// whole casemapping (advertised as CASEMAPPING=ascii in RPL_ISUPPORT).
func Casefold(str string) string {
	var builder strings.Builder
	for i := 0; i < len(str); i++ {
		chr := str[i]
		if 'A' <= chr && chr <= 'Z' {
			chr += 'a' - 'A'
		}
		builder.WriteByte(chr)
	}
	return builder.String()
}

func isValidNicknameChar(chr byte) bool {
	switch {
	case 'a' <= chr && chr <= 'z', 'A' <= chr && chr <= 'Z', '0' <= chr && chr <= '9':
		return true
	}
	switch chr {
	case '-', '_', '[', ']', '\\', '^', '{', '}':
		return true
	}
	return false
}

// CasefoldName validates a nickname (1-9 characters from the restricted
// alphabet) and returns its casefolded form.
func CasefoldName(name string) (string, error) {
	if len(name) == 0 {
		return "", errStringIsEmpty
	}
	if len(name) > maxNickLen {
		return "", errNicknameInvalid
	}
	for i := 0; i < len(name); i++ {
		if !isValidNicknameChar(name[i]) {
			return "", errInvalidCharacter
		}
	}
	return Casefold(name), nil
}

// CasefoldChannel validates a channel name (a '#' followed by at least one
// character, no separators or whitespace) and returns its casefolded form.
func CasefoldChannel(name string) (string, error) {
	if len(name) < 2 || name[0] != '#' {
		return "", errInvalidChannelName
	}
	rest := name[1:]
	if strings.ContainsAny(rest, " ,*?\x07") || strings.Contains(rest, "#") {
		return "", errInvalidChannelName
	}
	return "#" + Casefold(rest), nil
}
