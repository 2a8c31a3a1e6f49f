package config

import (
	"fmt"
	"os"

	"finsim/internal/sim"

	"gopkg.in/yaml.v3"
)

// LoadTuning reads a YAML tuning file over sim.DefaultTuning. Keys missing
// from the file keep their defaults; a sectors list replaces the default
// catalog wholesale. An empty path returns the defaults.
func LoadTuning(path string) (sim.Tuning, error) {
	t := sim.DefaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read tuning: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}
