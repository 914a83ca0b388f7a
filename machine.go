package cubetimer

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Phase is the state of the timing state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInspecting
	PhaseRunning
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInspecting:
		return "inspecting"
	case PhaseRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Indicator is the state of the two ready lights.
type Indicator int

const (
	IndicatorOff      Indicator = iota // both lights off
	IndicatorNotReady                  // red: holding, threshold not reached
	IndicatorReady                     // red and green: release to go
)

// String returns the string representation of the indicator.
func (i Indicator) String() string {
	switch i {
	case IndicatorOff:
		return "off"
	case IndicatorNotReady:
		return "not_ready"
	case IndicatorReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Persister receives every mutation of the session log.
// Errors are logged; they never roll back the in-memory log.
type Persister interface {
	ResultAppended(r Result) error
	ResultUpdated(r Result) error
	ResultDeleted(r Result) error
}

// Machine is the timing state machine. It owns the session log and
// recomputes statistics after every mutation.
//
// Machine is synchronous and not safe for concurrent use. Session wraps
// it in a single-owner event loop.
type Machine struct {
	cfg    *config
	clock  clockwork.Clock
	logger zerolog.Logger

	log   *SessionLog
	stats StatsSnapshot

	phase        Phase
	holding      bool
	holdStart    time.Time
	inspectStart time.Time
	startTime    time.Time

	scramble      string // shown for the next solve
	solveScramble string // captured at Start
	solvePenalty  Penalty
}

// NewMachine creates a state machine resuming from initial, so statistics
// are valid immediately.
func NewMachine(initial []Result, opts ...Option) *Machine {
	return newMachine(initial, buildConfig(opts))
}

func newMachine(initial []Result, cfg *config) *Machine {
	m := &Machine{
		cfg:    cfg,
		clock:  cfg.clock,
		logger: cfg.logger,
		log:    NewSessionLog(initial),
		phase:  PhaseIdle,
	}
	m.recompute()
	return m
}

// Handle applies one input. It reports whether the input changed state;
// inputs that do not apply to the current phase are dropped.
func (m *Machine) Handle(in TimerInput) bool {
	now := m.clock.Now()
	applied := m.apply(in, now)
	if !applied {
		m.logger.Debug().
			Str("input", in.Kind.String()).
			Str("phase", m.phase.String()).
			Msg("input ignored")
	}
	return applied
}

func (m *Machine) apply(in TimerInput, now time.Time) bool {
	switch in.Kind {
	case InputReadyHold:
		if m.phase != PhaseIdle || m.holding {
			return false
		}
		m.holding = true
		m.holdStart = now
		return true

	case InputRelease:
		if m.phase != PhaseIdle || !m.holding {
			return false
		}
		m.holding = false
		if now.Sub(m.holdStart) < m.cfg.holdThreshold {
			m.logger.Debug().Dur("held", now.Sub(m.holdStart)).Msg("hold released early")
			return true
		}
		if m.cfg.inspection > 0 {
			m.phase = PhaseInspecting
			m.inspectStart = now
			return true
		}
		m.startRunning(now, PenaltyNone)
		return true

	case InputStart:
		switch m.phase {
		case PhaseIdle:
			// with inspection on, every solve starts from Inspecting
			if m.cfg.inspection > 0 {
				return false
			}
			m.holding = false
			m.startRunning(now, PenaltyNone)
			return true
		case PhaseInspecting:
			m.startRunning(now, m.inspectionPenalty(now))
			return true
		}
		return false

	case InputStop:
		if m.phase != PhaseRunning {
			return false
		}
		m.finish(in, now)
		return true

	case InputAbort:
		switch {
		case m.phase == PhaseInspecting, m.phase == PhaseRunning:
			m.logger.Info().Str("phase", m.phase.String()).Msg("solve aborted")
			m.reset()
			return true
		case m.holding:
			m.holding = false
			return true
		}
		return false

	case InputScramble:
		m.scramble = in.Scramble
		return true
	}
	return false
}

func (m *Machine) startRunning(now time.Time, penalty Penalty) {
	m.phase = PhaseRunning
	m.startTime = now
	m.solveScramble = m.scramble
	m.solvePenalty = penalty
}

func (m *Machine) inspectionPenalty(now time.Time) Penalty {
	if !m.cfg.inspectionPenalties {
		return PenaltyNone
	}
	used := now.Sub(m.inspectStart)
	switch {
	case used > m.cfg.inspection+PlusTwoPenalty.Std():
		return PenaltyDNF
	case used > m.cfg.inspection:
		return PenaltyPlusTwo
	default:
		return PenaltyNone
	}
}

func (m *Machine) finish(in TimerInput, now time.Time) {
	raw := DurationOf(now.Sub(m.startTime))
	if in.HasMeasured {
		raw = in.Measured
	}

	r := Result{
		ID:        m.cfg.newID(),
		Raw:       raw,
		Penalty:   m.solvePenalty,
		Scramble:  m.solveScramble,
		Timestamp: now,
	}
	m.log.Append(r)
	m.recompute()
	m.scramble = ""
	m.reset()

	m.logger.Info().
		Str("result_id", r.ID).
		Int64("raw_ms", r.Raw.Millis()).
		Bool("device_measured", in.HasMeasured).
		Msg("solve recorded")

	if m.cfg.persister != nil {
		if err := m.cfg.persister.ResultAppended(r); err != nil {
			m.logger.Error().Err(err).Str("result_id", r.ID).Msg("failed to persist result")
		}
	}
}

func (m *Machine) reset() {
	m.phase = PhaseIdle
	m.holding = false
	m.startTime = time.Time{}
	m.inspectStart = time.Time{}
	m.solveScramble = ""
	m.solvePenalty = PenaltyNone
}

func (m *Machine) recompute() {
	m.stats = ComputeStats(m.log.results)
}

// SetPenalty changes the penalty of a recorded result.
// Penalties may be edited in any phase.
func (m *Machine) SetPenalty(id string, p Penalty) (Result, error) {
	r, err := m.log.SetPenalty(id, p)
	if err != nil {
		return Result{}, err
	}
	m.recompute()

	if m.cfg.persister != nil {
		if err := m.cfg.persister.ResultUpdated(r); err != nil {
			m.logger.Error().Err(err).Str("result_id", r.ID).Msg("failed to persist penalty")
		}
	}
	return r, nil
}

// Delete removes a recorded result. The last deleted result can be
// brought back with Restore.
func (m *Machine) Delete(id string) (Result, error) {
	r, _, err := m.log.Delete(id)
	if err != nil {
		return Result{}, err
	}
	m.recompute()

	if m.cfg.persister != nil {
		if err := m.cfg.persister.ResultDeleted(r); err != nil {
			m.logger.Error().Err(err).Str("result_id", r.ID).Msg("failed to persist delete")
		}
	}
	return r, nil
}

// Restore undoes the last Delete.
func (m *Machine) Restore() (Result, error) {
	r, _, err := m.log.Restore()
	if err != nil {
		return Result{}, err
	}
	m.recompute()

	if m.cfg.persister != nil {
		if err := m.cfg.persister.ResultAppended(r); err != nil {
			m.logger.Error().Err(err).Str("result_id", r.ID).Msg("failed to persist restore")
		}
	}
	return r, nil
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// Indicator returns the ready-light state at the current instant.
func (m *Machine) Indicator() Indicator {
	return indicatorAt(m.holding, m.holdStart, m.cfg.holdThreshold, m.clock.Now())
}

// Elapsed returns the running solve time, computed from the clock on
// every call. It is zero outside PhaseRunning.
func (m *Machine) Elapsed() Duration {
	if m.phase != PhaseRunning {
		return 0
	}
	return DurationOf(m.clock.Since(m.startTime))
}

// InspectionRemaining returns the inspection time left. It goes negative
// once inspection overruns and is zero outside PhaseInspecting.
func (m *Machine) InspectionRemaining() time.Duration {
	if m.phase != PhaseInspecting {
		return 0
	}
	return m.cfg.inspection - m.clock.Since(m.inspectStart)
}

// Scramble returns the scramble shown for the next solve.
func (m *Machine) Scramble() string {
	return m.scramble
}

// Stats returns the current statistics.
func (m *Machine) Stats() StatsSnapshot {
	return m.stats
}

// Results returns a copy of the session log.
func (m *Machine) Results() []Result {
	return m.log.Results()
}

// Snapshot captures the published view of the machine.
func (m *Machine) Snapshot() State {
	return State{
		Phase:               m.phase,
		Holding:             m.holding,
		HoldStartedAt:       m.holdStart,
		HoldThreshold:       m.cfg.holdThreshold,
		InspectionStartedAt: m.inspectStart,
		Inspection:          m.cfg.inspection,
		StartedAt:           m.startTime,
		Scramble:            m.scramble,
		Stats:               m.stats,
		Results:             m.log.Results(),
		CanRestore:          m.log.CanRestore(),
	}
}

func indicatorAt(holding bool, since time.Time, threshold time.Duration, now time.Time) Indicator {
	if !holding {
		return IndicatorOff
	}
	if now.Sub(since) >= threshold {
		return IndicatorReady
	}
	return IndicatorNotReady
}
