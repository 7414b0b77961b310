// Package config loads and validates the engine's YAML configuration.
// Environment variables referenced as ${VAR} in the file are expanded
// before parsing, so tokens never need to live in the file itself.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/haasonsaas/chatcmd/internal/observability"
	"github.com/haasonsaas/chatcmd/pkg/throttle"
)

// Config is the root configuration for the chatcmd daemon.
type Config struct {
	Logging  observability.LogConfig `yaml:"logging"`
	Engine   EngineConfig            `yaml:"engine"`
	Throttle throttle.Config         `yaml:"throttle"`
	Channels ChannelsConfig          `yaml:"channels"`
}

// EngineConfig holds the dispatcher policy knobs.
type EngineConfig struct {
	// Prefix is the default command prefix. Defaults to "!".
	Prefix string `yaml:"prefix"`

	// SelfIdentity is the bot's own identity; its messages are ignored.
	SelfIdentity string `yaml:"self_identity"`

	// AnnounceUnknown replies to unresolvable command tokens instead of
	// staying silent.
	AnnounceUnknown bool `yaml:"announce_unknown"`
}

// ChannelsConfig enables and configures the transport adapters.
type ChannelsConfig struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// DiscordConfig configures the Discord adapter.
type DiscordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`

	// RateLimit is outbound messages per second; RateBurst the burst
	// capacity. Zero values pick the adapter defaults.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// TelegramConfig configures the Telegram adapter.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`

	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// Load reads, expands, parses, and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration bytes. Exposed for tests and embedding.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Engine.Prefix == "" {
		c.Engine.Prefix = "!"
	}

	def := throttle.DefaultConfig()
	if c.Throttle.InitialPoints == 0 {
		c.Throttle.InitialPoints = def.InitialPoints
	}
	if c.Throttle.PenaltyPerUse == 0 {
		c.Throttle.PenaltyPerUse = def.PenaltyPerUse
	}
	if c.Throttle.RestorePerTick == 0 {
		c.Throttle.RestorePerTick = def.RestorePerTick
	}
	if c.Throttle.TickInterval == 0 {
		c.Throttle.TickInterval = def.TickInterval
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Channels.Discord.Enabled && c.Channels.Discord.Token == "" {
		return fmt.Errorf("channels.discord: token is required when enabled")
	}
	if c.Channels.Telegram.Enabled && c.Channels.Telegram.Token == "" {
		return fmt.Errorf("channels.telegram: token is required when enabled")
	}
	if c.Throttle.InitialPoints < 0 || c.Throttle.PenaltyPerUse < 0 || c.Throttle.RestorePerTick < 0 {
		return fmt.Errorf("throttle: point values must not be negative")
	}
	return nil
}
