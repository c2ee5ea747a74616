package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so yaml values like "20s" parse directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// AppConfig is the file-backed service configuration. Environment
// variables override the file for deployment-specific values.
type AppConfig struct {
	Game struct {
		SessionDuration Duration `yaml:"session_duration"`
		PostClosePause  Duration `yaml:"post_close_pause"`
		TickInterval    Duration `yaml:"tick_interval"`
	} `yaml:"game"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	Outbox struct {
		PollInterval Duration `yaml:"poll_interval"`
		BatchSize    int32    `yaml:"batch_size"`
	} `yaml:"outbox"`
}

// LoadAppConfig reads the yaml config, falling back to defaults when the
// file is absent, then applies environment overrides.
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := defaultAppConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}

	if cfg.Game.SessionDuration <= 0 {
		return nil, fmt.Errorf("session_duration must be positive")
	}
	if cfg.Game.TickInterval <= 0 {
		return nil, fmt.Errorf("tick_interval must be positive")
	}

	return cfg, nil
}

func defaultAppConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.Game.SessionDuration = Duration(20 * time.Second)
	cfg.Game.PostClosePause = Duration(3 * time.Second)
	cfg.Game.TickInterval = Duration(time.Second)
	cfg.Server.Port = "8080"
	cfg.NATS.URL = "nats://localhost:4222"
	cfg.Outbox.PollInterval = Duration(250 * time.Millisecond)
	cfg.Outbox.BatchSize = 100
	return cfg
}
