package cubetimer

import "time"

// InputKind identifies a timer input.
type InputKind int

const (
	// InputReadyHold signals "about to start": a touch target pressed or
	// hands placed on a smart timer.
	InputReadyHold InputKind = iota + 1
	// InputRelease ends a ReadyHold.
	InputRelease
	// InputStart starts the solve clock.
	InputStart
	// InputStop stops the solve clock and records a result.
	InputStop
	// InputAbort cancels inspection or a running solve without a result.
	InputAbort
	// InputScramble replaces the scramble shown for the next solve.
	InputScramble
)

// String returns the input name used in logs.
func (k InputKind) String() string {
	switch k {
	case InputReadyHold:
		return "ready_hold"
	case InputRelease:
		return "release"
	case InputStart:
		return "start"
	case InputStop:
		return "stop"
	case InputAbort:
		return "abort"
	case InputScramble:
		return "scramble"
	default:
		return "unknown"
	}
}

// TimerInput is a normalized timer event. Local gestures and smart-timer
// notifications produce the same values.
type TimerInput struct {
	Kind InputKind

	// Measured is the duration reported by a smart timer with a Stop.
	// It is authoritative over the local clock when HasMeasured is set.
	Measured    Duration
	HasMeasured bool

	// Scramble is the new scramble text for InputScramble.
	Scramble string
}

// ReadyHold builds an InputReadyHold.
func ReadyHold() TimerInput { return TimerInput{Kind: InputReadyHold} }

// Release builds an InputRelease.
func Release() TimerInput { return TimerInput{Kind: InputRelease} }

// Start builds an InputStart.
func Start() TimerInput { return TimerInput{Kind: InputStart} }

// Stop builds an InputStop measured by the local clock.
func Stop() TimerInput { return TimerInput{Kind: InputStop} }

// StopMeasured builds an InputStop carrying a device-measured duration.
func StopMeasured(d time.Duration) TimerInput {
	return TimerInput{Kind: InputStop, Measured: DurationOf(d), HasMeasured: true}
}

// Abort builds an InputAbort.
func Abort() TimerInput { return TimerInput{Kind: InputAbort} }

// SetScramble builds an InputScramble.
func SetScramble(s string) TimerInput { return TimerInput{Kind: InputScramble, Scramble: s} }
