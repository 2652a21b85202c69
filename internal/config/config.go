// Package config handles loading and validation of recommender.yaml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/propsignal/incentive-recommender/pkg/types"
)

// ModelPathEnv overrides the configured artifact path when set.
const ModelPathEnv = "RECOMMENDER_MODEL_PATH"

// Default returns the configuration used when no recommender.yaml exists.
func Default() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 1 << 20,
		},
		Model: types.ModelConfig{
			Path: filepath.Join("artifacts", "incentive_recommender.gob"),
		},
		Training: types.TrainingConfig{
			TestSize: 0.2,
			Seed:     42,
			Trees:    300,
		},
		Landscape: types.LandscapeConfig{
			Source: types.LandscapePayload,
		},
	}
}

// Load reads and parses recommender.yaml from the given directory, falling
// back to defaults when the file does not exist. The artifact path honors
// the RECOMMENDER_MODEL_PATH environment override in either case.
func Load(dir string) (*types.Config, error) {
	cfg := Default()

	path := filepath.Join(dir, "recommender.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err != nil && os.IsNotExist(err):
		// defaults apply
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if p := os.Getenv(ModelPathEnv); p != "" {
		cfg.Model.Path = p
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func validate(cfg *types.Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Model.Path == "" {
		return fmt.Errorf("model.path is required")
	}
	if cfg.Training.TestSize <= 0 || cfg.Training.TestSize >= 1 {
		return fmt.Errorf("training.testSize must be in (0, 1)")
	}
	if cfg.Training.Trees <= 0 {
		return fmt.Errorf("training.trees must be positive")
	}
	switch cfg.Landscape.Source {
	case "", types.LandscapePayload:
	case types.LandscapeFile:
		if cfg.Landscape.CatalogPath == "" {
			return fmt.Errorf("landscape.catalogPath is required when source is file")
		}
	case types.LandscapeHTTP:
		if cfg.Landscape.CatalogURL == "" {
			return fmt.Errorf("landscape.catalogURL is required when source is http")
		}
	default:
		return fmt.Errorf("unknown landscape.source %q", cfg.Landscape.Source)
	}
	return nil
}
