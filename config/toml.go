package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// TOMLFeeder loads a RunConfig from a TOML file at Path.
type TOMLFeeder struct {
	Path string
}

// Feed implements Feeder.
func (f *TOMLFeeder) Feed() (RunConfig, error) {
	raw := make(map[string]any)
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return RunConfig{}, err
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return RunConfig{}, err
	}
	return Coerce(raw)
}
