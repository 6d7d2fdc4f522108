// internal/status/constants.go
package status

// Run Status Block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerBlock is the fixed number of registers per status block.
const SlotsPerBlock = 20

// ---- SLOT INDICES ----

// SlotHealth holds the tester health state.
const SlotHealth = 0

// SlotLastClass holds the outcome class code of the last attempt.
const SlotLastClass = 1

// SlotLastIndex holds the subroutine index of the last attempt.
const SlotLastIndex = 2

// SlotPassed and SlotFailed count attempts since start (saturating).
const (
	SlotPassed = 3
	SlotFailed = 4
)

// SlotElapsedMs holds the last attempt's enable-to-stop time in ms (saturating).
const SlotElapsedMs = 5

// SlotDelayMs holds the last attempt's cancel delay in ms (saturating).
const SlotDelayMs = 6

// LiveSlots is the number of leading slots that change between attempts.
const LiveSlots = SlotDelayMs + 1

// ---- RESERVED RANGE ----

// Slots 7–10 are reserved for future use.
const SlotReservedStart = 7
const SlotReservedEnd = 10

// ---- STATION NAME ----

// SlotNameStart is the first slot used for the station name.
// The name is always placed at the END of the status block.
const SlotNameStart = 11

// SlotNameSlots is the number of slots reserved for the station name.
const SlotNameSlots = 8

// SlotNameEnd is the last slot used for the name (inclusive).
const SlotNameEnd = SlotNameStart + SlotNameSlots - 1

// ---- LIMITS ----

// NameMaxChars is the maximum number of ASCII characters stored for the name.
const NameMaxChars = 16

// ---- HEALTH CODES ----

// HealthUnknown represents the boot state, before any attempt.
const HealthUnknown uint16 = 0

// HealthOK: the last attempt succeeded.
const HealthOK uint16 = 1

// HealthError: the last attempt failed.
const HealthError uint16 = 2
