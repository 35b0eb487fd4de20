package engine

import (
	"fmt"
	"os"

	"baduk/searcher"

	"gopkg.in/yaml.v3"
)

// Config is the engine configuration: the search core record plus the
// engine-level options layered on top of it.
type Config struct {
	searcher.Config `yaml:",inline"`

	Pondering    bool   `yaml:"pondering"`
	PassAllAlive bool   `yaml:"pass_all_alive"`
	NoBook       bool   `yaml:"no_book"`
	BookPath     string `yaml:"book_path"`
}

func DefaultConfig() Config {
	return Config{Config: searcher.DefaultConfig()}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
