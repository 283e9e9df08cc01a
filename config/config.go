// Package config provides the ambient configuration layer around a
// simulation run: the RNG seed, log levels, and the tshare overflow-reset
// threshold. None of this is simulation state — the kernel and tshare
// models themselves take only a seed and a pair of functions respectively
// — this package exists purely for hosts that want those few values
// externalized to a file.
package config

import "github.com/golobby/cast"

// RunConfig holds everything a host application may want to externalize
// about one simulation run.
type RunConfig struct {
	Seed               uint64            `toml:"seed" yaml:"seed"`
	LogLevel           string            `toml:"log_level" yaml:"log_level"`
	ComponentLogLevels map[string]string `toml:"component_log_levels" yaml:"component_log_levels"`
	OverflowThreshold  float64           `toml:"overflow_threshold" yaml:"overflow_threshold"`
}

// defaults returns the configuration a host gets if it loads nothing at
// all, matching the kernel's own zero-value behavior as closely as
// possible.
func defaults() RunConfig {
	return RunConfig{
		Seed:              0,
		LogLevel:          "info",
		OverflowThreshold: 1e12,
	}
}

// Coerce normalizes loosely-typed values a feeder may have produced (e.g.
// a seed written as a quoted decimal string in YAML) into RunConfig's
// declared field types, using golobby/cast to do the type coercion.
func Coerce(raw map[string]any) (RunConfig, error) {
	cfg := defaults()

	if v, ok := raw["seed"]; ok {
		seed, err := cast.ToUint64E(v)
		if err != nil {
			return cfg, err
		}
		cfg.Seed = seed
	}
	if v, ok := raw["log_level"]; ok {
		level, err := cast.ToStringE(v)
		if err != nil {
			return cfg, err
		}
		cfg.LogLevel = level
	}
	if v, ok := raw["overflow_threshold"]; ok {
		threshold, err := cast.ToFloat64E(v)
		if err != nil {
			return cfg, err
		}
		cfg.OverflowThreshold = threshold
	}
	if v, ok := raw["component_log_levels"]; ok {
		levels, err := coerceStringMap(v)
		if err != nil {
			return cfg, err
		}
		cfg.ComponentLogLevels = levels
	}
	return cfg, nil
}

func coerceStringMap(v any) (map[string]string, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for k, val := range raw {
		s, err := cast.ToStringE(val)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}
