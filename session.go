package cubetimer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Event is a message accepted by a Session's inbox: a TimerInput, a
// DeviceStatus, or an internal request.
type Event interface {
	sessionEvent()
}

func (TimerInput) sessionEvent()   {}
func (DeviceStatus) sessionEvent() {}

// request runs fn on the owner goroutine and replies on done.
type request struct {
	fn   func(m *Machine) (Result, error)
	done chan reply
}

type reply struct {
	result Result
	err    error
}

func (request) sessionEvent() {}

// Session serializes every state transition on a single owner goroutine.
// Local input and the smart-timer adapter post events into one inbox, so
// transitions are totally ordered regardless of their source. Readers get
// immutable State snapshots and never touch the machine directly.
//
// Create a Session with NewSession and drive it with Run:
//
//	s := cubetimer.NewSession(previous, cubetimer.WithPersister(store))
//	go s.Run(ctx)
//	s.Post(ctx, cubetimer.Start())
type Session struct {
	machine *Machine
	logger  zerolog.Logger
	inbox   chan Event
	done    chan struct{}
	started atomic.Bool

	state  atomic.Pointer[State]
	device DeviceStatus

	mu             sync.RWMutex
	onChange       func(State)
	onDeviceStatus func(DeviceStatus)
}

// NewSession creates a session resuming from initial results.
func NewSession(initial []Result, opts ...Option) *Session {
	cfg := buildConfig(opts)
	s := &Session{
		machine: newMachine(initial, cfg),
		logger:  cfg.logger,
		inbox:   make(chan Event, cfg.inboxSize),
		done:    make(chan struct{}),
	}
	s.publish()
	return s
}

// Inbox returns the send side of the event queue, for producers such as
// the Adapter.
func (s *Session) Inbox() chan<- Event {
	return s.inbox
}

// OnChange sets a callback fired on the owner goroutine after each
// published change.
func (s *Session) OnChange(cb func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = cb
}

// OnDeviceStatus sets a callback for smart-timer connection changes.
func (s *Session) OnDeviceStatus(cb func(DeviceStatus)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDeviceStatus = cb
}

// State returns the latest published snapshot.
func (s *Session) State() State {
	return *s.state.Load()
}

// Post queues an event. It blocks only while the inbox is full.
func (s *Session) Post(ctx context.Context, ev Event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.inbox <- ev:
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetPenalty changes the penalty of a result by id.
func (s *Session) SetPenalty(ctx context.Context, id string, p Penalty) (Result, error) {
	return s.call(ctx, func(m *Machine) (Result, error) {
		return m.SetPenalty(id, p)
	})
}

// Delete removes a result by id.
func (s *Session) Delete(ctx context.Context, id string) (Result, error) {
	return s.call(ctx, func(m *Machine) (Result, error) {
		return m.Delete(id)
	})
}

// Restore undoes the last delete.
func (s *Session) Restore(ctx context.Context) (Result, error) {
	return s.call(ctx, func(m *Machine) (Result, error) {
		return m.Restore()
	})
}

func (s *Session) call(ctx context.Context, fn func(m *Machine) (Result, error)) (Result, error) {
	req := request{fn: fn, done: make(chan reply, 1)}
	if err := s.Post(ctx, req); err != nil {
		return Result{}, err
	}
	select {
	case r := <-req.done:
		return r.result, r.err
	case <-s.done:
		return Result{}, ErrSessionClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Run processes events until ctx is cancelled. It may be called once.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrSessionClosed
	}
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.inbox:
			s.dispatch(ev)
		}
	}
}

func (s *Session) dispatch(ev Event) {
	switch ev := ev.(type) {
	case TimerInput:
		if s.machine.Handle(ev) {
			s.publish()
		}

	case DeviceStatus:
		s.device = ev
		if ev.Err != nil {
			s.logger.Warn().Err(ev.Err).Str("device", ev.Device.Name).Str("state", ev.State.String()).Msg("device status")
		} else {
			s.logger.Info().Str("device", ev.Device.Name).Str("state", ev.State.String()).Msg("device status")
		}
		s.publish()

		s.mu.RLock()
		cb := s.onDeviceStatus
		s.mu.RUnlock()
		if cb != nil {
			cb(ev)
		}

	case request:
		r, err := ev.fn(s.machine)
		if err == nil {
			s.publish()
		}
		ev.done <- reply{result: r, err: err}
	}
}

func (s *Session) publish() {
	st := s.machine.Snapshot()
	st.Device = s.device
	s.state.Store(&st)

	s.mu.RLock()
	cb := s.onChange
	s.mu.RUnlock()
	if cb != nil {
		cb(st)
	}
}
