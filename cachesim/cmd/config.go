package cmd

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/sarchlab/cachesim/sim"
	"gopkg.in/yaml.v3"
)

// Config holds the component parameters read from a YAML file.
//
//	cache:
//	  sets: 64
//	  ways: 4
//	  policy: plru
//	memory:
//	  capacity: 1048576
type Config struct {
	Cache  map[string]any `yaml:"cache"`
	Memory map[string]any `yaml:"memory"`
}

// LoadConfig reads a YAML config file. An empty path gives the default
// config.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		cfg.fillDefaults()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.fillDefaults()

	return cfg, nil
}

// fillDefaults gives the cache a 16 KiB 4-way geometry unless the config
// describes one.
func (c *Config) fillDefaults() {
	if c.Cache == nil {
		c.Cache = make(map[string]any)
	}

	if _, ok := c.Cache["ways"]; !ok {
		c.Cache["ways"] = 4
	}

	_, hasSets := c.Cache["sets"]
	_, hasCapacity := c.Cache["capacity"]
	if !hasSets && !hasCapacity {
		c.Cache["capacity"] = 16 * 1024
	}
}

func toConfigValue(v any) (sim.ConfigValue, error) {
	switch v := v.(type) {
	case int:
		return sim.IntValue(int64(v)), nil
	case int64:
		return sim.IntValue(v), nil
	case uint64:
		return sim.UintValue(v)
	case string:
		return sim.StringValue(v), nil
	case bool:
		return sim.BoolValue(v), nil
	default:
		return sim.ConfigValue{}, fmt.Errorf("%w: %T",
			sim.ErrWrongValueType, v)
	}
}

// applyParams feeds every parameter in the map to the component. Parameters
// are applied in a sorted order so that the first error is stable.
func applyParams(c sim.Configurable, params map[string]any) error {
	for _, name := range slices.Sorted(maps.Keys(params)) {
		value, err := toConfigValue(params[name])
		if err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}

		err = c.SetConfigParameter(name, value)
		if err != nil {
			return err
		}
	}

	return nil
}
