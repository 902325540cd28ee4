package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads, validates and defaults the application configuration.
// A .env file, if present, is folded into the environment first; the
// RAILTRACKER_API_KEY and RAILTRACKER_NATS_URL variables override their
// YAML counterparts so secrets stay out of the config file.
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	paths := []string{path, "config.yml"}
	var data []byte
	var err error
	for _, p := range paths {
		if p == "" {
			continue
		}
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if key := os.Getenv("RAILTRACKER_API_KEY"); key != "" {
		cfg.Feed.Key = key
	}
	if url := os.Getenv("RAILTRACKER_NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}

	applyDefaults(&cfg)

	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return nil, fmt.Errorf("validate server config: %w", err)
	}
	if err := v.Struct(cfg.Feed); err != nil {
		return nil, fmt.Errorf("validate feed config: %w", err)
	}
	if err := v.Struct(cfg.Network); err != nil {
		return nil, fmt.Errorf("validate network config: %w", err)
	}
	if err := v.Struct(cfg.Engine); err != nil {
		return nil, fmt.Errorf("validate engine config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Feed.RefreshMS == 0 {
		cfg.Feed.RefreshMS = 5000
	}
	if cfg.Feed.TimeoutMS == 0 {
		cfg.Feed.TimeoutMS = 10000
	}
	if cfg.Engine.ConnectTolerance == 0 {
		cfg.Engine.ConnectTolerance = 5e-4
	}
	if cfg.Engine.SnapThreshold == 0 {
		cfg.Engine.SnapThreshold = 0.02
	}
	if cfg.Engine.RetireProximity == 0 {
		cfg.Engine.RetireProximity = 0.01
	}
	if cfg.Engine.CorrectionMS == 0 {
		cfg.Engine.CorrectionMS = 4000
	}
	if cfg.Engine.RetireTimeoutMS == 0 {
		cfg.Engine.RetireTimeoutMS = 30000
	}
	if cfg.Engine.FrameMS == 0 {
		cfg.Engine.FrameMS = 100
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://127.0.0.1:4222"
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = "trains"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
