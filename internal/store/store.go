// internal/store/store.go
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tamzrod/modbus-armcheck/internal/logging"
)

// ErrIllegalAddress is returned for register access to an unmapped address.
var ErrIllegalAddress = errors.New("store: illegal register address")

// Store is the addressable memory of a simulated peripheral.
//
// Coils and discrete inputs are bit namespaces: unmapped addresses read
// false and ignore writes, with a warning. Holding registers are strict:
// any unmapped address in a request fails the whole request.
//
// Each namespace has its own lock and no method holds two at once.
type Store struct {
	coils     bitSpace
	inputs    bitSpace
	registers wordSpace
}

// New returns an empty store. Addresses must be defined before use.
func New(log *slog.Logger) *Store {
	log = logging.For(log, logging.ComponentStore)
	return &Store{
		coils:     bitSpace{name: "coil", m: map[uint16]bool{}, log: log},
		inputs:    bitSpace{name: "discrete input", m: map[uint16]bool{}, log: log},
		registers: wordSpace{m: map[uint16]uint16{}, log: log},
	}
}

// DefineCoils maps addrs with value false. Existing values are kept.
func (s *Store) DefineCoils(addrs ...uint16) { s.coils.define(addrs) }

// DefineInputs maps discrete input addrs with value false.
func (s *Store) DefineInputs(addrs ...uint16) { s.inputs.define(addrs) }

// DefineRegisters maps addrs with value 0. Existing values are kept.
func (s *Store) DefineRegisters(addrs ...uint16) { s.registers.define(addrs) }

// ---- coils ----

func (s *Store) ReadCoil(addr uint16) bool { return s.coils.read(addr, 1)[0] }
func (s *Store) ReadCoils(addr, count uint16) []bool { return s.coils.read(addr, count) }
func (s *Store) WriteCoil(addr uint16, v bool) { s.coils.write(addr, []bool{v}) }
func (s *Store) WriteCoils(addr uint16, values []bool) { s.coils.write(addr, values) }

// ---- discrete inputs ----

func (s *Store) ReadInput(addr uint16) bool { return s.inputs.read(addr, 1)[0] }
func (s *Store) ReadInputs(addr, count uint16) []bool { return s.inputs.read(addr, count) }
func (s *Store) WriteInput(addr uint16, v bool) { s.inputs.write(addr, []bool{v}) }

// ---- holding registers ----

func (s *Store) ReadRegister(addr uint16) (uint16, error) {
	v, err := s.registers.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (s *Store) ReadRegisters(addr, count uint16) ([]uint16, error) {
	return s.registers.read(addr, count)
}

func (s *Store) WriteRegister(addr, v uint16) error {
	return s.registers.write(addr, []uint16{v})
}

func (s *Store) WriteRegisters(addr uint16, values []uint16) error {
	return s.registers.write(addr, values)
}

// ---- namespaces ----

type bitSpace struct {
	name string
	mu   sync.RWMutex
	m    map[uint16]bool
	log  *slog.Logger
}

func (b *bitSpace) define(addrs []uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range addrs {
		if _, ok := b.m[a]; !ok {
			b.m[a] = false
		}
	}
}

func (b *bitSpace) read(addr, count uint16) []bool {
	out := make([]bool, count)

	b.mu.RLock()
	var missing []uint32
	for i := uint32(0); i < uint32(count); i++ {
		a := uint32(addr) + i
		if a > 0xFFFF {
			missing = append(missing, a)
			continue
		}
		v, ok := b.m[uint16(a)]
		if !ok {
			missing = append(missing, a)
			continue
		}
		out[i] = v
	}
	b.mu.RUnlock()

	for _, a := range missing {
		b.log.Warn("read from unmapped "+b.name, "addr", a)
	}
	return out
}

func (b *bitSpace) write(addr uint16, values []bool) {
	b.mu.Lock()
	var missing []uint32
	for i, v := range values {
		a := uint32(addr) + uint32(i)
		if a > 0xFFFF {
			missing = append(missing, a)
			continue
		}
		if _, ok := b.m[uint16(a)]; !ok {
			missing = append(missing, a)
			continue
		}
		b.m[uint16(a)] = v
	}
	b.mu.Unlock()

	for _, a := range missing {
		b.log.Warn("write to unmapped "+b.name, "addr", a)
	}
}

type wordSpace struct {
	mu  sync.RWMutex
	m   map[uint16]uint16
	log *slog.Logger
}

func (w *wordSpace) define(addrs []uint16) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range addrs {
		if _, ok := w.m[a]; !ok {
			w.m[a] = 0
		}
	}
}

// checkLocked reports the first unmapped address in [addr, addr+count).
func (w *wordSpace) checkLocked(addr uint16, count int) error {
	for i := 0; i < count; i++ {
		a := uint32(addr) + uint32(i)
		if a > 0xFFFF {
			return fmt.Errorf("%w: %d", ErrIllegalAddress, a)
		}
		if _, ok := w.m[uint16(a)]; !ok {
			return fmt.Errorf("%w: %d", ErrIllegalAddress, a)
		}
	}
	return nil
}

func (w *wordSpace) read(addr, count uint16) ([]uint16, error) {
	w.mu.RLock()
	err := w.checkLocked(addr, int(count))
	var out []uint16
	if err == nil {
		out = make([]uint16, count)
		for i := range out {
			out[i] = w.m[addr+uint16(i)]
		}
	}
	w.mu.RUnlock()

	if err != nil {
		w.log.Warn("read from unmapped register", "addr", addr, "count", count, "error", err)
		return nil, err
	}
	return out, nil
}

// write is all-or-nothing: nothing is applied unless every address is mapped.
func (w *wordSpace) write(addr uint16, values []uint16) error {
	w.mu.Lock()
	err := w.checkLocked(addr, len(values))
	if err == nil {
		for i, v := range values {
			w.m[addr+uint16(i)] = v
		}
	}
	w.mu.Unlock()

	if err != nil {
		w.log.Warn("write to unmapped register", "addr", addr, "count", len(values), "error", err)
	}
	return err
}
