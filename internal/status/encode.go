// internal/status/encode.go
package status

import (
	"math"
	"time"
)

// Encode converts a Snapshot into the live slots of a status block.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) [LiveSlots]uint16 {
	var regs [LiveSlots]uint16

	regs[SlotHealth] = s.Health
	regs[SlotLastClass] = s.LastClass
	regs[SlotLastIndex] = s.LastIndex
	regs[SlotPassed] = s.Passed
	regs[SlotFailed] = s.Failed
	regs[SlotElapsedMs] = s.ElapsedMs
	regs[SlotDelayMs] = s.DelayMs

	return regs
}

// EncodeBlock returns the full block: live slots, zeroed reserved slots
// and the packed name.
func EncodeBlock(s Snapshot, name string) []uint16 {
	regs := make([]uint16, SlotsPerBlock)

	live := Encode(s)
	copy(regs, live[:])

	copy(regs[SlotNameStart:SlotNameEnd+1], EncodeName(name))

	return regs
}

// EncodeName packs up to 16 ASCII characters into 8 registers.
// Each register stores two bytes, big-endian. Non-printable bytes become '?'.
func EncodeName(name string) []uint16 {
	out := make([]uint16, SlotNameSlots)

	b := []byte(name)
	if len(b) > NameMaxChars {
		b = b[:NameMaxChars]
	}
	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < NameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}

// Millis converts d to whole milliseconds. It MUST NOT wrap.
func Millis(d time.Duration) uint16 {
	if d <= 0 {
		return 0
	}
	return Count(int(d / time.Millisecond))
}

// Count clamps n to a register.
func Count(n int) uint16 {
	if n < 0 {
		return 0
	}
	if n > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(n)
}
