// internal/status/status_test.go
package status

import (
	"testing"
	"time"
)

func TestEncodeBlock_Layout(t *testing.T) {
	s := Snapshot{Health: HealthOK, LastClass: 2, LastIndex: 3, Passed: 4, Failed: 1, ElapsedMs: 205, DelayMs: 20}
	regs := EncodeBlock(s, "BENCH-01")

	if len(regs) != SlotsPerBlock {
		t.Fatalf("block length: got=%d", len(regs))
	}
	want := map[int]uint16{
		SlotHealth: HealthOK, SlotLastClass: 2, SlotLastIndex: 3,
		SlotPassed: 4, SlotFailed: 1, SlotElapsedMs: 205, SlotDelayMs: 20,
	}
	for slot, v := range want {
		if regs[slot] != v {
			t.Fatalf("slot %d: got=%d want=%d", slot, regs[slot], v)
		}
	}
	for slot := SlotReservedStart; slot <= SlotReservedEnd; slot++ {
		if regs[slot] != 0 {
			t.Fatalf("reserved slot %d written: %d", slot, regs[slot])
		}
	}
	if regs[SlotNameStart] != uint16('B')<<8|uint16('E') {
		t.Fatalf("name slot: got=%#04x", regs[SlotNameStart])
	}
}

func TestEncodeName(t *testing.T) {
	regs := EncodeName("abc\x01" + "0123456789abcdefXYZ")
	if regs[0] != uint16('a')<<8|uint16('b') {
		t.Fatalf("slot 0: got=%#04x", regs[0])
	}
	if regs[1] != uint16('c')<<8|uint16('?') {
		t.Fatalf("non-printable not replaced: got=%#04x", regs[1])
	}
	// truncated at 16 characters
	if regs[7] != uint16('a')<<8|uint16('b') {
		t.Fatalf("slot 7: got=%#04x", regs[7])
	}

	short := EncodeName("A")
	if short[0] != uint16('A')<<8 || short[1] != 0 {
		t.Fatalf("short name: got=%v", short)
	}
}

func TestMillisSaturates(t *testing.T) {
	if Millis(-time.Second) != 0 || Millis(1500*time.Microsecond) != 1 {
		t.Fatalf("conversion off")
	}
	if Millis(2*time.Minute) != 65535 {
		t.Fatalf("wrapped: got=%d", Millis(2*time.Minute))
	}
	if Count(70000) != 65535 || Count(-1) != 0 {
		t.Fatalf("count not clamped")
	}
}
