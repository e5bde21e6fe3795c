// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package irc

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func looksLikeBcryptHash(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

// ComparePassword checks a supplied password against the configured server
// password, which may be either a bcrypt hash from `ratel genpasswd` or a
// plaintext string.
func ComparePassword(stored, supplied string) error {
	if looksLikeBcryptHash(stored) {
		if bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) != nil {
			return errPasswordMismatch
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) != 1 {
		return errPasswordMismatch
	}
	return nil
}
