// internal/bus/memory/memory.go
package memory

import (
	"errors"
	"sync/atomic"

	"github.com/tamzrod/modbus-armcheck/internal/bus"
	"github.com/tamzrod/modbus-armcheck/internal/store"
)

var errClosed = errors.New("memory bus: closed")

// Bus implements bus.Bus directly over a shared store, without a wire.
type Bus struct {
	st     *store.Store
	closed atomic.Bool
}

var _ bus.Bus = (*Bus)(nil)

func New(st *store.Store) *Bus {
	return &Bus{st: st}
}

func (b *Bus) Close() error {
	b.closed.Store(true)
	return nil
}

func (b *Bus) check(op string, addr uint16) error {
	if b.closed.Load() {
		return bus.Wrap(op, addr, bus.KindTransport, errClosed)
	}
	return nil
}

func (b *Bus) ReadCoils(addr, qty uint16) ([]bool, error) {
	if err := b.check("read coils", addr); err != nil {
		return nil, err
	}
	return b.st.ReadCoils(addr, qty), nil
}

func (b *Bus) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	if err := b.check("read discrete inputs", addr); err != nil {
		return nil, err
	}
	return b.st.ReadInputs(addr, qty), nil
}

func (b *Bus) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	if err := b.check("read holding registers", addr); err != nil {
		return nil, err
	}
	v, err := b.st.ReadRegisters(addr, qty)
	if err != nil {
		return nil, bus.Wrap("read holding registers", addr, kindOf(err), err)
	}
	return v, nil
}

func (b *Bus) WriteCoil(addr uint16, v bool) error {
	if err := b.check("write coil", addr); err != nil {
		return err
	}
	b.st.WriteCoil(addr, v)
	return nil
}

func (b *Bus) WriteCoils(addr uint16, vs []bool) error {
	if err := b.check("write coils", addr); err != nil {
		return err
	}
	b.st.WriteCoils(addr, vs)
	return nil
}

func (b *Bus) WriteRegister(addr, v uint16) error {
	if err := b.check("write register", addr); err != nil {
		return err
	}
	err := b.st.WriteRegister(addr, v)
	return bus.Wrap("write register", addr, kindOf(err), err)
}

func (b *Bus) WriteRegisters(addr uint16, vs []uint16) error {
	if err := b.check("write registers", addr); err != nil {
		return err
	}
	err := b.st.WriteRegisters(addr, vs)
	return bus.Wrap("write registers", addr, kindOf(err), err)
}

func kindOf(err error) bus.Kind {
	if errors.Is(err, store.ErrIllegalAddress) {
		return bus.KindAddressing
	}
	return bus.KindTransport
}
