// Copyright (c) 2020 Matt Ouille
// Copyright (c) 2020 Shivaram Lingamneni
// released under the MIT license

package irc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ircd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
    name: ratel.test
    listeners:
        - ":6667"
logging:
    -
        method: stderr
        type: "*"
        level: info
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ratel.test", config.Server.Name)
	assert.Equal(t, "ratel.test", config.Server.NetworkName)
	assert.Equal(t, 100, config.Server.MaxClients)
	assert.False(t, config.PasswordRequired())
	assert.Equal(t, maxNickLen, config.Limits.NickLen)
	assert.Equal(t, 64, config.Limits.ChannelLen)
	assert.Equal(t, 390, config.Limits.TopicLen)
	assert.Equal(t, 9999, config.Limits.MemberLimitMax)

	require.Len(t, config.Logging, 1)
	assert.True(t, config.Logging[0].MethodStderr)
	assert.Equal(t, []string{"*"}, config.Logging[0].Types)
}

func TestLoadConfigPassword(t *testing.T) {
	path := writeConfig(t, `
server:
    name: ratel.test
    listeners:
        - ":6667"
    password: hunter2
`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, config.PasswordRequired())
	assert.NoError(t, ComparePassword(config.Server.Password, "hunter2"))
	assert.Error(t, ComparePassword(config.Server.Password, "swordfish"))
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
		err  error
	}{
		{
			"missing server name",
			`
server:
    listeners:
        - ":6667"
`,
			ErrServerNameMissing,
		},
		{
			"missing listeners",
			`
server:
    name: ratel.test
`,
			ErrNoListenersDefined,
		},
		{
			"insane nicklen",
			`
server:
    name: ratel.test
    listeners:
        - ":6667"
limits:
    nicklen: 100
`,
			ErrLimitsAreInsane,
		},
		{
			"file logger without filename",
			`
server:
    name: ratel.test
    listeners:
        - ":6667"
logging:
    -
        method: file
        type: "*"
        level: info
`,
			ErrLoggerFilenameMissing,
		},
		{
			"logger without types",
			`
server:
    name: ratel.test
    listeners:
        - ":6667"
logging:
    -
        method: stderr
        type: ""
        level: info
`,
			ErrLoggerHasNoTypes,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.yaml))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}
