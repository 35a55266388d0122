// Package config loads the optional YAML configuration file accepted via
// the CLI's --config flag: default export paths, colour theme, and a
// priority-category list. The CLI applies only the default export paths;
// the priority-category list is decoded but nothing reads it, so category
// priority comes from ifc.Families alone.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Theme names the colour used for each of the UI Controller's three views.
// The terminal runner's plain-text renderer ignores these; a richer
// renderer can read them without touching the controller.
type Theme struct {
	Dashboard       string `yaml:"dashboard"`
	TypeDetail      string `yaml:"type_detail"`
	InstanceBrowser string `yaml:"instance_browser"`
}

// Config is the shape of the optional --config YAML document.
type Config struct {
	DefaultCSVPath     string   `yaml:"default_csv_path"`
	DefaultJSONPath    string   `yaml:"default_json_path"`
	Theme              Theme    `yaml:"theme"`
	PriorityCategories []string `yaml:"priority_categories"`
}

// Load reads and parses path. Callers only invoke Load when --config was
// given explicitly; the zero Config is the default when it was not.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}
