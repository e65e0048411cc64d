/*
Package config manages TOML config for wordpilot services.

InitConfig handles automatic config file creation and loading with fallback
to defaults. LoadConfig and SaveConfig provide direct fs access for runtime
changes. LoadConfigWithPriority resolves a config path the way the CLI does:
an explicit flag first, then the platform config directory, creating a
default file if neither exists.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/arvindr/wordpilot/internal/utils"
)

// Config holds the entire config structure.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Builder BuilderConfig `toml:"builder"`
	Suggest SuggestConfig `toml:"suggest"`
	History HistoryConfig `toml:"history"`
	CLI     CliConfig     `toml:"cli"`
}

// ServerConfig has server related options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	MinPrefix    int  `toml:"min_prefix"`
	MaxPrefix    int  `toml:"max_prefix"`
	EnableFilter bool `toml:"enable_filter"`
}

// BuilderConfig configures the bigram/trigram build pipeline (§4.2-4.3).
type BuilderConfig struct {
	TopN     int `toml:"top_n"`     // max successors stored per entry
	Shards   int `toml:"shards"`    // bigram sharded-build fan-out; 0 selects the streaming builder
	MaxPairs int `toml:"max_pairs"` // trigram pair-table size K
}

// SuggestConfig configures the online suggestion engine (§4.5).
type SuggestConfig struct {
	GatingWordsPath string `toml:"gating_words_path"` // empty uses the built-in English list
	MergeThreshold  int    `toml:"merge_threshold"`   // minimum user-history score to interleave
	DefaultLimit    int    `toml:"default_limit"`
}

// HistoryConfig configures the per-user adaptive model (§4.6).
type HistoryConfig struct {
	PersistPath string `toml:"persist_path"`
	TopN        int    `toml:"top_n"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit    int  `toml:"default_limit"`
	DefaultMinLen   int  `toml:"default_min_len"`
	DefaultMaxLen   int  `toml:"default_max_len"`
	DefaultNoFilter bool `toml:"default_no_filter"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit:     64,
			MinPrefix:    1,
			MaxPrefix:    60,
			EnableFilter: true,
		},
		Builder: BuilderConfig{
			TopN:     8,
			Shards:   4,
			MaxPairs: 20000,
		},
		Suggest: SuggestConfig{
			GatingWordsPath: "",
			MergeThreshold:  8000,
			DefaultLimit:    5,
		},
		History: HistoryConfig{
			PersistPath: "wordpilot-history.json",
			TopN:        8,
		},
		CLI: CliConfig{
			DefaultLimit:    5,
			DefaultMinLen:   1,
			DefaultMaxLen:   60,
			DefaultNoFilter: false,
		},
	}
}

// InitConfig loads config from file or creates default if missing.
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, err
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			return nil, err
		}
		log.Debugf("Created default config file at: ( %s )", configPath)
		return config, nil
	}
	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("Failed to load config, using defaults: %v", err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file.
func LoadConfig(configPath string) (*Config, error) {
	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		log.Errorf("Failed to decode config file: %v", err)
		return nil, err
	}
	return &config, nil
}

// SaveConfig saves into a TOML file.
func SaveConfig(config *Config, configPath string) error {
	file, err := os.Create(configPath)
	if err != nil {
		log.Errorf("Failed to create config file: %v", err)
		return err
	}
	defer file.Close()
	encoder := toml.NewEncoder(file)
	return encoder.Encode(config)
}

// LoadConfigWithPriority resolves a config path (explicit flag, then the
// platform config directory via internal/utils.PathResolver) and loads it,
// creating a default file if none exists yet. Returns the config and the
// path it was loaded from/written to.
func LoadConfigWithPriority(explicitPath string) (*Config, string, error) {
	if explicitPath != "" {
		cfg, err := InitConfig(explicitPath)
		return cfg, explicitPath, err
	}

	resolver, err := utils.NewPathResolver()
	if err != nil {
		log.Warnf("Could not resolve platform config directory, using defaults: %v", err)
		return DefaultConfig(), "", nil
	}
	configPath, err := resolver.GetConfigPath("wordpilot-config.toml")
	if err != nil {
		log.Warnf("Could not resolve config path, using defaults: %v", err)
		return DefaultConfig(), "", nil
	}
	cfg, err := InitConfig(configPath)
	return cfg, configPath, err
}

// Update changes server-facing config values and saves to file.
func (c *Config) Update(configPath string, maxLimit, minPrefix, maxPrefix *int, enableFilter *bool) error {
	server := &c.Server
	if maxLimit != nil {
		server.MaxLimit = *maxLimit
	}
	if minPrefix != nil {
		server.MinPrefix = *minPrefix
	}
	if maxPrefix != nil {
		server.MaxPrefix = *maxPrefix
	}
	if enableFilter != nil {
		server.EnableFilter = *enableFilter
	}
	return SaveConfig(c, configPath)
}
