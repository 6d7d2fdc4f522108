// internal/bus/bus.go
package bus

import (
	"errors"
	"fmt"
)

// Bus abstracts the Modbus operations the arm facade needs.
// Every call is exactly one request/response round trip. No retries.
type Bus interface {
	ReadCoils(addr, qty uint16) ([]bool, error)              // FC 1
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error)     // FC 2
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	WriteCoil(addr uint16, v bool) error                     // FC 5
	WriteRegister(addr, v uint16) error                      // FC 6
	WriteCoils(addr uint16, vs []bool) error                 // FC 15
	WriteRegisters(addr uint16, vs []uint16) error           // FC 16
	Close() error
}

// ReadCoil reads a single coil.
func ReadCoil(b Bus, addr uint16) (bool, error) {
	v, err := b.ReadCoils(addr, 1)
	if err != nil {
		return false, err
	}
	if len(v) != 1 {
		return false, &Error{Op: "read coil", Addr: addr, Kind: KindTransport, Err: errShort}
	}
	return v[0], nil
}

// ReadDiscreteInput reads a single discrete input.
func ReadDiscreteInput(b Bus, addr uint16) (bool, error) {
	v, err := b.ReadDiscreteInputs(addr, 1)
	if err != nil {
		return false, err
	}
	if len(v) != 1 {
		return false, &Error{Op: "read discrete input", Addr: addr, Kind: KindTransport, Err: errShort}
	}
	return v[0], nil
}

// ReadRegister reads a single holding register.
func ReadRegister(b Bus, addr uint16) (uint16, error) {
	v, err := b.ReadHoldingRegisters(addr, 1)
	if err != nil {
		return 0, err
	}
	if len(v) != 1 {
		return 0, &Error{Op: "read register", Addr: addr, Kind: KindTransport, Err: errShort}
	}
	return v[0], nil
}

// ---- errors ----

// Kind classifies a bus failure.
type Kind int

const (
	// KindTransport covers connectivity, timeouts and malformed replies.
	KindTransport Kind = iota
	// KindAddressing is a device-reported illegal data address.
	KindAddressing
	// KindFunction is a device-reported illegal function.
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindAddressing:
		return "addressing"
	case KindFunction:
		return "function"
	default:
		return "transport"
	}
}

var (
	ErrIllegalAddress  = errors.New("illegal data address")
	ErrIllegalFunction = errors.New("illegal function")

	errShort = errors.New("short reply")
)

// Error is the single error type returned by every Bus implementation.
type Error struct {
	Op   string
	Addr uint16
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bus: %s @%d (%s): %v", e.Op, e.Addr, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the kind sentinels regardless of the driver error.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrIllegalAddress:
		return e.Kind == KindAddressing
	case ErrIllegalFunction:
		return e.Kind == KindFunction
	}
	return false
}

// Wrap builds an *Error. A nil err stays nil.
func Wrap(op string, addr uint16, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Addr: addr, Kind: kind, Err: err}
}

// KindOf returns the kind of a bus error; anything unrecognised is transport.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindTransport
}

// IsAddressing reports a device-side addressing failure.
func IsAddressing(err error) bool {
	return err != nil && KindOf(err) == KindAddressing
}

// IsTransport reports a connectivity-level failure.
func IsTransport(err error) bool {
	return err != nil && KindOf(err) == KindTransport
}
