package config

import (
	"encoding/json"
	"os"

	"github.com/pg-sharding/shardplan/pkg/shlog"
	"github.com/pkg/errors"
)

type Config struct {
	LogLevel      string `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFileName   string `json:"log_filename" toml:"log_filename" yaml:"log_filename"`
	PrettyLogging bool   `json:"pretty_logging" toml:"pretty_logging" yaml:"pretty_logging"`

	RouterConfig   RouterCfg           `json:"router" toml:"router" yaml:"router"`
	JaegerConfig   JaegerCfg           `json:"jaeger" toml:"jaeger" yaml:"jaeger"`
	ShardingConfig ShardingCfg         `json:"sharding" toml:"sharding" yaml:"sharding"`
	Metadata       map[string][]string `json:"metadata" toml:"metadata" yaml:"metadata"`
}

type JaegerCfg struct {
	Enabled           bool   `json:"enabled" toml:"enabled" yaml:"enabled"`
	ServiceName       string `json:"service_name" toml:"service_name" yaml:"service_name"`
	AgentAddress      string `json:"agent_address" toml:"agent_address" yaml:"agent_address"`
	SamplingServerURL string `json:"sampling_server_url" toml:"sampling_server_url" yaml:"sampling_server_url"`
}

var cfg Config

// Load reads the configuration file, validates it and makes it the running config.
func Load(cfgPath string) (*Config, error) {
	file, err := os.Open(cfgPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var loaded Config
	if err := initConfig(file, &loaded); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config %s", cfgPath)
	}
	if err := loaded.Validate(); err != nil {
		return nil, err
	}

	configBytes, err := json.MarshalIndent(loaded, "", "  ")
	if err != nil {
		return nil, err
	}
	shlog.Zero.Debug().Str("path", cfgPath).RawJSON("config", configBytes).Msg("running config")

	cfg = loaded
	return &cfg, nil
}

func Get() *Config {
	return &cfg
}

// Validate checks cross references inside the sharding section.
func (c *Config) Validate() error {
	return c.ShardingConfig.Validate()
}
