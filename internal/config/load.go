// internal/config/load.go
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and decodes a YAML config file.
// Unknown keys are rejected. No validation, no defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes into a Config.
func Parse(raw []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// Default is the configuration used when no file is given:
// an in-process simulated arm on the bench address map.
func Default() *Config {
	return &Config{
		Armcheck: ArmcheckConfig{
			Device: DeviceConfig{
				Driver: DriverSimulated,
			},
			AddressMap: AddressMapConfig{
				Variant: VariantBench,
			},
			Simulator: SimulatorConfig{
				Routines: map[uint16]int{
					0: 500,
					1: 750,
					2: 1000,
					3: 200,
				},
			},
		},
	}
}
