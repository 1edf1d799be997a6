package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// listKeys are flat config keys whose env values are comma-separated lists.
var listKeys = map[string]bool{
	"kafka_brokers":  true,
	"steam_api_keys": true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if CASTASSIST_CONFIG is set
//  3. env (prefix CASTASSIST_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("CASTASSIST_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CASTASSIST_ADDR, CASTASSIST_QUEUE_SIZE, ...
	// Map env keys like CASTASSIST_QUEUE_SIZE -> queue_size (flat keys).
	// List-valued keys are split on commas.
	envProvider := env.ProviderWithValue("CASTASSIST_", ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, "CASTASSIST_"))
		if listKeys[key] {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return key, parts
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case len(c.KafkaBrokers) == 0:
		return fmt.Errorf("%w: at least one kafka broker is required", ErrInvalidConfig)
	case c.KafkaTopic == "":
		return fmt.Errorf("%w: kafka topic must not be empty", ErrInvalidConfig)
	case c.MongoURI == "":
		return fmt.Errorf("%w: mongo uri must not be empty", ErrInvalidConfig)
	case c.WindowSeconds <= 0:
		return fmt.Errorf("%w: window seconds must be positive", ErrInvalidConfig)
	case c.EventTTLSeconds <= 0:
		return fmt.Errorf("%w: event ttl seconds must be positive", ErrInvalidConfig)
	}
	return nil
}
