// Package config loads workspace configuration from YAML: the model
// catalogue and the psyche descriptors. Loading and validation are separate
// steps so callers can validate configuration assembled programmatically.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/weavehq/weave/core"
)

// Model describes one entry of the model catalogue. Provider selects the
// vendor adapter; Name is the vendor's own model identifier.
type Model struct {
	ID          string  `yaml:"id"`
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Config is the full workspace configuration document.
type Config struct {
	Workspace string        `yaml:"workspace"`
	Root      string        `yaml:"root"`
	Models    []Model       `yaml:"models"`
	Psyches   []core.Psyche `yaml:"psyches"`
}

// Load reads and parses the YAML file at path and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration bytes and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks referential integrity: unique names, every psyche bound to
// a declared model, and successor chains that neither dangle nor loop.
func (c *Config) Validate() error {
	models := make(map[string]struct{}, len(c.Models))
	for _, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("config: model with empty id")
		}
		if _, dup := models[m.ID]; dup {
			return fmt.Errorf("config: duplicate model id %q", m.ID)
		}
		models[m.ID] = struct{}{}
	}

	psyches := make(map[string]core.Psyche, len(c.Psyches))
	for _, p := range c.Psyches {
		if p.Name == "" {
			return fmt.Errorf("config: psyche with empty name")
		}
		if _, dup := psyches[p.Name]; dup {
			return fmt.Errorf("config: duplicate psyche %q", p.Name)
		}
		if _, ok := models[p.ModelID]; !ok {
			return fmt.Errorf("config: psyche %q references unknown model %q", p.Name, p.ModelID)
		}
		if p.Chain != nil && p.Chain.MaxDepth < 0 {
			return fmt.Errorf("config: psyche %q has negative chain depth", p.Name)
		}
		psyches[p.Name] = p
	}

	for _, p := range c.Psyches {
		if p.Chain == nil || p.Chain.Successor == "" {
			continue
		}
		if _, ok := psyches[p.Chain.Successor]; !ok {
			return fmt.Errorf("config: psyche %q chains to unknown psyche %q", p.Name, p.Chain.Successor)
		}
		if cycle := findCycle(psyches, p.Name); cycle != "" {
			return fmt.Errorf("config: successor cycle through %q", cycle)
		}
	}
	return nil
}

// findCycle walks the successor edges from start and returns the name where
// the walk revisits a psyche, or empty. Depth budgets bound execution at run
// time, but a configured cycle is almost always a typo worth rejecting.
func findCycle(psyches map[string]core.Psyche, start string) string {
	seen := map[string]struct{}{}
	current := start
	for {
		if _, revisit := seen[current]; revisit {
			return current
		}
		seen[current] = struct{}{}
		p, ok := psyches[current]
		if !ok || p.Chain == nil || p.Chain.Successor == "" {
			return ""
		}
		current = p.Chain.Successor
	}
}

// Model returns the catalogue entry with the given id.
func (c *Config) Model(id string) (Model, bool) {
	for _, m := range c.Models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}
