// internal/arm/arm.go
package arm

import (
	"fmt"

	"github.com/tamzrod/modbus-armcheck/internal/bus"
)

// RunningKind says where the device publishes its running signal.
type RunningKind int

const (
	RunningOnCoil RunningKind = iota
	RunningOnDiscreteInput
)

func (k RunningKind) String() string {
	if k == RunningOnDiscreteInput {
		return "discrete input"
	}
	return "coil"
}

// AddressMap is the fixed set of offsets shared by controller and device.
type AddressMap struct {
	EnableCoil    uint16
	RunningKind   RunningKind
	RunningAddr   uint16
	IndexRegister uint16

	// ProgramSelectCoil is optional. When set the device expects it high
	// once the index is written and low again once enable is asserted.
	ProgramSelectCoil *uint16
}

// Validate rejects maps where two coils share an offset.
func (m AddressMap) Validate() error {
	if m.RunningKind == RunningOnCoil && m.RunningAddr == m.EnableCoil {
		return fmt.Errorf("arm: running coil and enable coil collide at %d", m.EnableCoil)
	}
	if ps := m.ProgramSelectCoil; ps != nil {
		if *ps == m.EnableCoil {
			return fmt.Errorf("arm: program select coil and enable coil collide at %d", *ps)
		}
		if m.RunningKind == RunningOnCoil && *ps == m.RunningAddr {
			return fmt.Errorf("arm: program select coil and running coil collide at %d", *ps)
		}
	}
	return nil
}

// Facade exposes the logical arm operations over a bus.
// Each call is a single round trip; retry policy belongs to the caller.
type Facade struct {
	b bus.Bus
	m AddressMap
}

func New(b bus.Bus, m AddressMap) *Facade {
	return &Facade{b: b, m: m}
}

// Map returns the address map in use.
func (f *Facade) Map() AddressMap { return f.m }

// SetIndex selects the subroutine to run on the next enable.
func (f *Facade) SetIndex(idx uint16) error {
	return f.b.WriteRegister(f.m.IndexRegister, idx)
}

// SetEnable drives the enable coil.
func (f *Facade) SetEnable(on bool) error {
	return f.b.WriteCoil(f.m.EnableCoil, on)
}

// ReadEnable reads back the enable coil.
func (f *Facade) ReadEnable() (bool, error) {
	return bus.ReadCoil(f.b, f.m.EnableCoil)
}

// ReadRunning reads the running signal from wherever the map puts it.
func (f *Facade) ReadRunning() (bool, error) {
	if f.m.RunningKind == RunningOnDiscreteInput {
		return bus.ReadDiscreteInput(f.b, f.m.RunningAddr)
	}
	return bus.ReadCoil(f.b, f.m.RunningAddr)
}

// SelectProgram drives the program select coil. No I/O when the map has none.
func (f *Facade) SelectProgram(on bool) error {
	if f.m.ProgramSelectCoil == nil {
		return nil
	}
	return f.b.WriteCoil(*f.m.ProgramSelectCoil, on)
}
