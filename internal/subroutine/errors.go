// internal/subroutine/errors.go
package subroutine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/modbus-armcheck/internal/bus"
)

// Phase names the wait that timed out.
type Phase string

const (
	PhaseStart Phase = "start" // waiting for running=true
	PhaseStop  Phase = "stop"  // waiting for running=false
)

// TimeoutError: a wait exceeded its horizon with no cancellation racing it.
type TimeoutError struct {
	Index  uint16
	Phase  Phase
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	target := e.Phase == PhaseStart
	return fmt.Sprintf("subroutine %d: timeout waiting for running=%v (%s phase), waited %v",
		e.Index, target, e.Phase, e.Waited)
}

// Reason distinguishes the two post-condition checks.
type Reason int

const (
	// ReasonIgnoredStop: enable was cleared mid-run and running stayed high
	// past the grace period.
	ReasonIgnoredStop Reason = iota
	// ReasonRestarted: after completion and acknowledge, running came back.
	// The device is running whenever enable is high instead of on the
	// rising edge only.
	ReasonRestarted
)

// PostconditionError: the device did not honour a stop.
type PostconditionError struct {
	Index  uint16
	Reason Reason
	After  time.Duration
}

func (e *PostconditionError) Error() string {
	if e.Reason == ReasonRestarted {
		return fmt.Sprintf("subroutine %d: running re-asserted %v after completion with enable cleared; "+
			"device likely runs while enable is high, not only on its rising edge", e.Index, e.After)
	}
	return fmt.Sprintf("subroutine %d: still running %v after enable was cleared", e.Index, e.After)
}

// IsAnomaly reports the completion post-check failure, the one a scenario
// may be configured to tolerate.
func IsAnomaly(err error) bool {
	var pe *PostconditionError
	return errors.As(err, &pe) && pe.Reason == ReasonRestarted
}

// StepError wraps a bus failure with the state it interrupted.
type StepError struct {
	Index uint16
	State State
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("subroutine %d: %s: %v", e.Index, e.State, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ---- classification ----

// Class is the reporting classification of one invocation.
type Class string

const (
	ClassCompleted     Class = "completed"
	ClassStoppedEarly  Class = "stopped-early"
	ClassTooLate       Class = "too-late"
	ClassTimedOut      Class = "timed-out"
	ClassPostcondition Class = "postcondition-violated"
	ClassAddressing    Class = "addressing-error"
	ClassTransport     Class = "transport-error"
	ClassAborted       Class = "aborted"
)

// Classify maps an invocation's return values to a Class.
func Classify(res Result, err error) Class {
	if err == nil {
		switch res.Outcome {
		case StoppedEarly:
			return ClassStoppedEarly
		case TooLate:
			return ClassTooLate
		default:
			return ClassCompleted
		}
	}

	var te *TimeoutError
	var pe *PostconditionError
	switch {
	case errors.As(err, &te):
		return ClassTimedOut
	case errors.As(err, &pe):
		return ClassPostcondition
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassAborted
	case bus.IsAddressing(err):
		return ClassAddressing
	default:
		return ClassTransport
	}
}

// OK reports whether the class is a successful (or informational) outcome.
func (c Class) OK() bool {
	return c == ClassCompleted || c == ClassStoppedEarly || c == ClassTooLate
}

// Code is a stable numeric code for register-based reporting.
func (c Class) Code() uint16 {
	switch c {
	case ClassCompleted:
		return 1
	case ClassStoppedEarly:
		return 2
	case ClassTooLate:
		return 3
	case ClassTimedOut:
		return 10
	case ClassPostcondition:
		return 11
	case ClassAddressing:
		return 12
	case ClassTransport:
		return 13
	case ClassAborted:
		return 14
	default:
		return 0
	}
}
