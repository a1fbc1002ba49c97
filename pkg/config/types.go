package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the persistent ssechat configuration stored as config.toml
// in the .ssechat/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Client      ClientConfig      `toml:"client"`
	Server      ServerConfig      `toml:"server"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// ClientConfig holds settings for "ssechat chat".
// Endpoint is a full URL (scheme + host + port) of the chat backend.
type ClientConfig struct {
	Endpoint string `toml:"endpoint,omitempty"`
}

// ServerConfig holds mock backend settings for "ssechat serve".
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`

	// TokenDelay is a Go duration string (e.g. "50ms").
	TokenDelay string `toml:"token_delay,omitempty"`
}

// EventStreamConfig holds settings for mirroring message events to a broker.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.endpoint": {
		get: func(c *Config) string { return c.Client.Endpoint },
		set: func(c *Config, v string) error { c.Client.Endpoint = v; return nil },
	},
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"server.token_delay": {
		get: func(c *Config) string { return c.Server.TokenDelay },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for server.token_delay: %w", err)
			}
			c.Server.TokenDelay = v
			return nil
		},
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			if !IsValidEventStreamProvider(v) {
				return fmt.Errorf("invalid value for eventstream.provider: %q (available: %s)",
					v, strings.Join(EventStreamProviders(), ", "))
			}
			c.EventStream.Provider = v
			return nil
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error { c.EventStream.Brokers = SplitList(v); return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}

// Event stream providers.
const (
	EventStreamNop   = "nop"
	EventStreamKafka = "kafka"
)

// EventStreamProviders returns the recognized event stream provider names.
func EventStreamProviders() []string {
	return []string{EventStreamNop, EventStreamKafka}
}

// IsValidEventStreamProvider reports whether name is a recognized provider.
func IsValidEventStreamProvider(name string) bool {
	return name == EventStreamNop || name == EventStreamKafka
}

// SplitList splits a comma separated list, trimming whitespace and dropping
// empty entries.
func SplitList(v string) []string {
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
