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

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if MEDRIFT_CONFIG is set
//  3. env (prefix MEDRIFT_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("MEDRIFT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: MEDRIFT_ADDR, MEDRIFT_QUEUE_SIZE, ...
	// Map env keys like MEDRIFT_QUEUE_SIZE -> queue_size (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("MEDRIFT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "medrift_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case cfg.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case cfg.WindowSeconds <= 0:
		return fmt.Errorf("%w: window_seconds must be positive", ErrInvalidConfig)
	case cfg.AdmitTimeoutMS <= 0:
		return fmt.Errorf("%w: admit_timeout_ms must be positive", ErrInvalidConfig)
	case cfg.PersistIntervalSeconds <= 0:
		return fmt.Errorf("%w: persist_interval_seconds must be positive", ErrInvalidConfig)
	case cfg.ScoringLatencyMinMS < 0 || cfg.ScoringLatencyMaxMS < cfg.ScoringLatencyMinMS && cfg.ScoringLatencyMaxMS != 0:
		return fmt.Errorf("%w: scoring latency range is inverted", ErrInvalidConfig)
	}
	return nil
}
