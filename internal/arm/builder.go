// internal/arm/builder.go
package arm

import (
	"errors"
	"fmt"

	cfg "github.com/tamzrod/modbus-armcheck/internal/config"
)

// MapFromConfig converts a normalized address map config.
// Assumes config has already passed Validate and Normalize.
func MapFromConfig(c cfg.AddressMapConfig) (AddressMap, error) {
	if c.EnableCoil == nil || c.RunningAddress == nil || c.IndexRegister == nil {
		return AddressMap{}, errors.New("arm: address map not normalized")
	}

	m := AddressMap{
		EnableCoil:    *c.EnableCoil,
		RunningAddr:   *c.RunningAddress,
		IndexRegister: *c.IndexRegister,
	}

	switch c.RunningKind {
	case "", cfg.RunningCoil:
		m.RunningKind = RunningOnCoil
	case cfg.RunningDiscreteInput:
		m.RunningKind = RunningOnDiscreteInput
	default:
		return AddressMap{}, fmt.Errorf("arm: unknown running kind %q", c.RunningKind)
	}

	if c.ProgramSelectCoil != nil {
		ps := *c.ProgramSelectCoil
		m.ProgramSelectCoil = &ps
	}

	if err := m.Validate(); err != nil {
		return AddressMap{}, err
	}
	return m, nil
}
