// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package irc

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/ratel-irc/ratel/irc/logger"
)

// Limits holds the maximum limits for various things such as topic lengths.
type Limits struct {
	NickLen        int `yaml:"nicklen"`
	ChannelLen     int `yaml:"channellen"`
	TopicLen       int `yaml:"topiclen"`
	KickLen        int `yaml:"kicklen"`
	MemberLimitMax int `yaml:"member-limit-max"`
}

// Config defines the overall configuration.
type Config struct {
	Server struct {
		Name        string
		NetworkName string `yaml:"network-name"`
		Listeners   []string
		// optional connection password; either a bcrypt hash produced by
		// `ratel genpasswd` or a plaintext string
		Password   string
		MOTD       string
		MaxClients int `yaml:"max-clients"`
	}

	Limits Limits

	Logging []logger.LoggingConfig

	Filename string
}

// PasswordRequired is whether clients must send PASS before registering.
func (config *Config) PasswordRequired() bool {
	return config.Server.Password != ""
}

// LoadConfig loads the given YAML configuration file.
func LoadConfig(filename string) (config *Config, err error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	config.Filename = filename

	if config.Server.Name == "" {
		return nil, ErrServerNameMissing
	}
	if len(config.Server.Listeners) == 0 {
		return nil, ErrNoListenersDefined
	}
	if config.Server.NetworkName == "" {
		config.Server.NetworkName = config.Server.Name
	}
	if config.Server.MaxClients <= 0 {
		config.Server.MaxClients = 100
	}

	// limits
	if config.Limits.NickLen <= 0 {
		config.Limits.NickLen = maxNickLen
	}
	if config.Limits.ChannelLen <= 0 {
		config.Limits.ChannelLen = 64
	}
	if config.Limits.TopicLen <= 0 {
		config.Limits.TopicLen = 390
	}
	if config.Limits.KickLen <= 0 {
		config.Limits.KickLen = 390
	}
	if config.Limits.MemberLimitMax <= 0 {
		config.Limits.MemberLimitMax = 9999
	}
	if config.Limits.NickLen > maxNickLen || config.Limits.ChannelLen < 2 {
		return nil, ErrLimitsAreInsane
	}

	// process logging configs
	var newLogConfigs []logger.LoggingConfig
	for _, logConfig := range config.Logging {
		// methods
		methods := make(map[string]bool)
		for _, method := range strings.Split(logConfig.Method, " ") {
			if len(method) > 0 {
				methods[strings.ToLower(method)] = true
			}
		}
		if methods["file"] && logConfig.Filename == "" {
			return nil, ErrLoggerFilenameMissing
		}
		logConfig.MethodFile = methods["file"]
		logConfig.MethodStdout = methods["stdout"]
		logConfig.MethodStderr = methods["stderr"]

		// levels
		level, exists := logger.LogLevelNames[strings.ToLower(logConfig.LevelString)]
		if !exists {
			return nil, fmt.Errorf("Could not translate log level [%s]", logConfig.LevelString)
		}
		logConfig.Level = level

		// types
		for _, typeStr := range strings.Split(logConfig.TypeString, " ") {
			if len(typeStr) == 0 {
				continue
			}
			if typeStr[0] == '-' && len(typeStr) > 1 {
				logConfig.ExcludedTypes = append(logConfig.ExcludedTypes, typeStr[1:])
			} else {
				logConfig.Types = append(logConfig.Types, typeStr)
			}
		}
		if len(logConfig.Types) < 1 {
			return nil, ErrLoggerHasNoTypes
		}

		newLogConfigs = append(newLogConfigs, logConfig)
	}
	config.Logging = newLogConfigs

	return config, nil
}
