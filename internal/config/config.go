// Package config loads the optional .justparse.yaml project file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/toolprint/justparse/internal/pipeline"
)

// FileName is looked up in the working directory.
const FileName = ".justparse.yaml"

// Config holds the user-tunable knobs of the parsing pipeline and the
// catalog location.
type Config struct {
	// Tier is auto, ast, command or regex.
	Tier string `yaml:"tier"`
	// MaxNestingDepth bounds {{...}} nesting during evaluation.
	MaxNestingDepth int `yaml:"max_nesting_depth"`
	// TypeInference toggles parameter-type heuristics.
	TypeInference bool `yaml:"type_inference"`
	// Catalog is the sqlite recipe catalog path.
	Catalog string `yaml:"catalog"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Tier:            pipeline.TierAuto,
		MaxNestingDepth: 5,
		TypeInference:   true,
		Catalog:         ".justparse/catalog.db",
	}
}

// Load reads dir/.justparse.yaml over the defaults. A missing file is not an
// error.
func Load(dir string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", FileName, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing %s: %w", FileName, err)
	}

	switch cfg.Tier {
	case pipeline.TierAuto, "ast", "command", "regex":
	case "":
		cfg.Tier = pipeline.TierAuto
	default:
		return Default(), fmt.Errorf("%s: unknown tier %q", FileName, cfg.Tier)
	}
	if cfg.MaxNestingDepth <= 0 {
		cfg.MaxNestingDepth = Default().MaxNestingDepth
	}
	if cfg.Catalog == "" {
		cfg.Catalog = Default().Catalog
	}
	return cfg, nil
}

// Pipeline converts to the orchestrator's configuration.
func (c Config) Pipeline() pipeline.Config {
	pc := pipeline.DefaultConfig()
	pc.Tier = c.Tier
	pc.MaxNestingDepth = c.MaxNestingDepth
	pc.TypeInference = c.TypeInference
	return pc
}
