// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package irc

import "fmt"

const (
	// SemVer is the semantic version of ratel.
	SemVer = "1.0.0"
)

var (
	// Commit is the current git commit, set via linker flags.
	Commit = ""

	// Ver is the full version string used in responses to clients.
	Ver = fmt.Sprintf("ratel-%s", SemVer)
)

// SetVersionString sets the release version or commit hash reported to
// clients, when supplied by the build.
func SetVersionString(version, commit string) {
	Commit = commit
	if version != "" {
		Ver = fmt.Sprintf("ratel-%s", version)
	} else if commit != "" {
		Ver = fmt.Sprintf("ratel-%s-%s", SemVer, commit)
	}
}
