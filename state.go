package cubetimer

import "time"

// State is an immutable view of a session published after every change.
// Time-dependent values are derived from it on demand with the caller's
// clock, so readers never need to be woken on a schedule.
type State struct {
	Phase               Phase
	Holding             bool
	HoldStartedAt       time.Time
	HoldThreshold       time.Duration
	InspectionStartedAt time.Time
	Inspection          time.Duration
	StartedAt           time.Time
	Scramble            string
	Stats               StatsSnapshot
	Results             []Result
	CanRestore          bool
	Device              DeviceStatus
}

// Elapsed returns the running solve time at now.
func (s State) Elapsed(now time.Time) Duration {
	if s.Phase != PhaseRunning {
		return 0
	}
	return DurationOf(now.Sub(s.StartedAt))
}

// Indicator returns the ready-light state at now.
func (s State) Indicator(now time.Time) Indicator {
	return indicatorAt(s.Holding, s.HoldStartedAt, s.HoldThreshold, now)
}

// InspectionRemaining returns the inspection time left at now.
func (s State) InspectionRemaining(now time.Time) time.Duration {
	if s.Phase != PhaseInspecting {
		return 0
	}
	return s.Inspection - now.Sub(s.InspectionStartedAt)
}

// Last returns the most recent result.
func (s State) Last() (Result, bool) {
	if len(s.Results) == 0 {
		return Result{}, false
	}
	return s.Results[len(s.Results)-1], true
}
