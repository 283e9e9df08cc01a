package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLFeeder loads a RunConfig from a YAML file at Path.
type YAMLFeeder struct {
	Path string
}

// Feed implements Feeder.
func (f *YAMLFeeder) Feed() (RunConfig, error) {
	raw := make(map[string]any)
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return RunConfig{}, err
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return RunConfig{}, err
	}
	return Coerce(raw)
}
