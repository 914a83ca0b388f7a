package cubetimer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/SeamusWaldron/cubetimer/internal/protocol"
)

// ErrLinkLost is reported in a DeviceStatus when the link drops without
// an explicit Disconnect.
var ErrLinkLost = errors.New("cubetimer: device link lost")

// Advertisement is a single advertisement seen by a Transport scan.
type Advertisement struct {
	ID   string
	Name string
	RSSI int16
}

// Transport is the wireless channel to smart timers.
type Transport interface {
	// Scan reports advertisements to found until ctx is done.
	// found is never called after Scan returns.
	Scan(ctx context.Context, found func(Advertisement)) error
	// Connect opens a link to the device with the given identifier.
	Connect(ctx context.Context, id string) (Link, error)
}

// Link is an open connection to one device.
type Link interface {
	// Notifications delivers raw frames. It is closed when the link drops
	// or after Disconnect.
	Notifications() <-chan []byte
	// Send writes a raw frame to the device.
	Send(frame []byte) error
	// Disconnect closes the link.
	Disconnect() error
}

// DiscoveredDevice is a device seen during discovery.
// Repeated advertisements update RSSI in place.
type DiscoveredDevice struct {
	ID   string
	Name string
	RSSI int16 // dBm, higher is stronger
}

// DiscoveryState is the state of device discovery.
type DiscoveryState int

const (
	DiscoveryIdle DiscoveryState = iota
	DiscoveryScanning
)

// String returns the string representation of the discovery state.
func (s DiscoveryState) String() string {
	switch s {
	case DiscoveryIdle:
		return "idle"
	case DiscoveryScanning:
		return "scanning"
	default:
		return "unknown"
	}
}

// ConnectionState is the state of the device link.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

// String returns the string representation of the connection state.
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// DeviceStatus is a connection-status notification for the UI.
// Err is set for failed connects and lost links.
type DeviceStatus struct {
	State  ConnectionState
	Device DiscoveredDevice
	Err    error
}

// Adapter discovers smart timers, holds at most one connection, and
// translates the timer's contact-sensor states into TimerInputs posted to
// a Session inbox. Device I/O runs on the adapter's own goroutines; the
// inbox is the only thing it shares with the session.
type Adapter struct {
	transport Transport
	events    chan<- Event
	clock     clockwork.Clock
	logger    zerolog.Logger
	cfg       *config

	connectMu sync.Mutex // serializes Connect and Disconnect

	mu         sync.Mutex
	discovery  DiscoveryState
	devices    []DiscoveredDevice
	index      map[string]int
	scanCancel context.CancelFunc
	scanDone   chan struct{}

	conn          ConnectionState
	current       DiscoveredDevice
	link          Link
	readerDone    chan struct{}
	stopReader    context.CancelFunc
	connectCancel context.CancelFunc

	closeOnce sync.Once
	closed    chan struct{}
}

// NewAdapter creates an adapter posting into events, normally
// Session.Inbox().
func NewAdapter(transport Transport, events chan<- Event, opts ...Option) *Adapter {
	cfg := buildConfig(opts)
	return &Adapter{
		transport: transport,
		events:    events,
		clock:     cfg.clock,
		logger:    cfg.logger,
		cfg:       cfg,
		index:     make(map[string]int),
		closed:    make(chan struct{}),
	}
}

// Discovery

// StartScan starts discovery and returns a channel yielding each device as
// it is first seen or updated. The channel is closed when scanning stops,
// on StopScan, on ctx cancellation, or on a successful Connect. Scanning
// can be restarted afterwards; a restart begins a fresh device list.
func (a *Adapter) StartScan(ctx context.Context) (<-chan DiscoveredDevice, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.discovery == DiscoveryScanning {
		return nil, ErrScanInProgress
	}

	scanCtx, cancel := context.WithCancel(ctx)
	updates := make(chan DiscoveredDevice, 16)
	done := make(chan struct{})

	a.discovery = DiscoveryScanning
	a.devices = nil
	a.index = make(map[string]int)
	a.scanCancel = cancel
	a.scanDone = done

	go func() {
		defer close(done)
		defer close(updates)

		err := a.transport.Scan(scanCtx, func(adv Advertisement) {
			dev, ok := a.observe(adv)
			if !ok {
				return
			}
			select {
			case updates <- dev:
			case <-scanCtx.Done():
			}
		})
		if err != nil && scanCtx.Err() == nil {
			a.logger.Warn().Err(err).Msg("scan failed")
		}

		a.mu.Lock()
		if a.scanDone == done {
			a.discovery = DiscoveryIdle
			a.scanCancel = nil
		}
		a.mu.Unlock()
		cancel()
	}()

	a.logger.Debug().Msg("scan started")
	return updates, nil
}

// observe records an advertisement and reports the updated entry.
func (a *Adapter) observe(adv Advertisement) (DiscoveredDevice, bool) {
	if !a.matchesName(adv.Name) {
		return DiscoveredDevice{}, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if i, seen := a.index[adv.ID]; seen {
		a.devices[i].RSSI = adv.RSSI
		if adv.Name != "" {
			a.devices[i].Name = adv.Name
		}
		return a.devices[i], true
	}

	dev := DiscoveredDevice{ID: adv.ID, Name: adv.Name, RSSI: adv.RSSI}
	a.index[adv.ID] = len(a.devices)
	a.devices = append(a.devices, dev)
	return dev, true
}

func (a *Adapter) matchesName(name string) bool {
	if len(a.cfg.namePrefixes) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, p := range a.cfg.namePrefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// StopScan stops discovery and waits for the scan goroutine to finish.
func (a *Adapter) StopScan() {
	a.mu.Lock()
	cancel, done := a.scanCancel, a.scanDone
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Devices returns the devices found by the current or last scan, in the
// order they were first seen.
func (a *Adapter) Devices() []DiscoveredDevice {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]DiscoveredDevice, len(a.devices))
	copy(out, a.devices)
	return out
}

// Discovery returns the discovery state.
func (a *Adapter) Discovery() DiscoveryState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.discovery
}

// Connection

// Status returns the connection state and current device.
func (a *Adapter) Status() DeviceStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return DeviceStatus{State: a.conn, Device: a.current}
}

// Connect connects to the device with the given id. An existing connection
// is closed first; the disconnect is abandoned after the disconnect
// timeout. The attempt itself is bounded by the connect timeout and can be
// cancelled through ctx or CancelConnect, leaving the adapter Disconnected.
func (a *Adapter) Connect(ctx context.Context, id string) error {
	a.connectMu.Lock()
	defer a.connectMu.Unlock()

	select {
	case <-a.closed:
		return ErrSessionClosed
	default:
	}

	a.disconnectCurrent(ctx)

	dev := a.lookup(id)
	attemptCtx, cancel := clockwork.WithTimeout(ctx, a.clock, a.cfg.connectTimeout)
	defer cancel()

	a.mu.Lock()
	a.conn = Connecting
	a.current = dev
	a.connectCancel = cancel
	a.mu.Unlock()
	a.emit(attemptCtx, DeviceStatus{State: Connecting, Device: dev})

	link, err := a.transport.Connect(attemptCtx, id)
	if err == nil && attemptCtx.Err() != nil {
		// connected after the attempt was abandoned
		_ = link.Disconnect()
		err = attemptCtx.Err()
	}
	if err != nil {
		err = a.classifyConnectErr(ctx, attemptCtx, err)
		a.mu.Lock()
		a.conn = Disconnected
		a.current = DiscoveredDevice{}
		a.connectCancel = nil
		a.mu.Unlock()

		a.logger.Warn().Err(err).Str("device_id", id).Msg("connect failed")
		// attemptCtx is done here: delivered only if the inbox has room
		a.emit(attemptCtx, DeviceStatus{State: Disconnected, Device: dev, Err: err})
		return err
	}

	readerDone := make(chan struct{})
	readerCtx, stopReader := context.WithCancel(context.Background())
	a.mu.Lock()
	a.conn = Connected
	a.link = link
	a.readerDone = readerDone
	a.stopReader = stopReader
	a.connectCancel = nil
	a.mu.Unlock()

	a.StopScan()
	go a.readLoop(readerCtx, link, dev, readerDone)

	a.logger.Info().Str("device_id", dev.ID).Str("device", dev.Name).Msg("connected")
	a.emit(attemptCtx, DeviceStatus{State: Connected, Device: dev})
	return nil
}

func (a *Adapter) classifyConnectErr(parent, attempt context.Context, err error) error {
	switch {
	case parent.Err() != nil:
		return ErrConnectCancelled
	case errors.Is(attempt.Err(), context.DeadlineExceeded):
		return ErrConnectTimeout
	case errors.Is(attempt.Err(), context.Canceled):
		return ErrConnectCancelled
	default:
		return err
	}
}

// CancelConnect abandons a pending connection attempt.
func (a *Adapter) CancelConnect() {
	a.mu.Lock()
	cancel := a.connectCancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *Adapter) lookup(id string) DiscoveredDevice {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i, ok := a.index[id]; ok {
		return a.devices[i]
	}
	return DiscoveredDevice{ID: id, Name: id}
}

// Disconnect closes the current link. It is a no-op when not connected.
func (a *Adapter) Disconnect() error {
	a.connectMu.Lock()
	defer a.connectMu.Unlock()
	return a.disconnectCurrent(context.Background())
}

// disconnectCurrent must be called with connectMu held. The final status
// is posted for at most the disconnect timeout.
func (a *Adapter) disconnectCurrent(ctx context.Context) error {
	a.mu.Lock()
	link, dev, readerDone, stopReader := a.link, a.current, a.readerDone, a.stopReader
	if link == nil {
		a.mu.Unlock()
		return nil
	}
	// clearing link first tells the reader the close is intentional
	a.link = nil
	a.readerDone = nil
	a.stopReader = nil
	a.conn = Disconnected
	a.current = DiscoveredDevice{}
	a.mu.Unlock()
	stopReader()

	errCh := make(chan error, 1)
	go func() {
		errCh <- link.Disconnect()
	}()

	var err error
	select {
	case err = <-errCh:
		if err == nil {
			select {
			case <-readerDone:
			case <-a.clock.After(a.cfg.disconnectTimeout):
			}
		}
	case <-a.clock.After(a.cfg.disconnectTimeout):
		a.logger.Warn().Str("device_id", dev.ID).Msg("disconnect timed out, abandoning link")
	}

	a.logger.Info().Str("device_id", dev.ID).Msg("disconnected")
	emitCtx, cancel := clockwork.WithTimeout(ctx, a.clock, a.cfg.disconnectTimeout)
	defer cancel()
	a.emit(emitCtx, DeviceStatus{State: Disconnected, Device: dev})
	return err
}

// Send writes a raw frame to the connected device.
func (a *Adapter) Send(frame []byte) error {
	a.mu.Lock()
	link := a.link
	a.mu.Unlock()
	if link == nil {
		return ErrNotConnected
	}
	return link.Send(frame)
}

// Close disconnects, stops scanning and stops posting events.
func (a *Adapter) Close() error {
	a.closeOnce.Do(func() { close(a.closed) })
	a.StopScan()
	a.CancelConnect()
	return a.Disconnect()
}

func (a *Adapter) readLoop(ctx context.Context, link Link, dev DiscoveredDevice, done chan struct{}) {
	defer close(done)

	for frame := range link.Notifications() {
		ev, err := protocol.Decode(frame)
		if err != nil {
			a.logger.Debug().Err(err).Msg("dropping malformed frame")
			continue
		}
		a.logger.Debug().Str("state", ev.State.String()).Dur("recorded", ev.Recorded).Msg("timer event")

		if in, ok := Translate(ev); ok {
			a.emit(ctx, in)
		}
	}

	a.mu.Lock()
	lost := a.link == link
	var stop context.CancelFunc
	if lost {
		stop = a.stopReader
		a.link = nil
		a.readerDone = nil
		a.stopReader = nil
		a.conn = Disconnected
		a.current = DiscoveredDevice{}
	}
	a.mu.Unlock()

	if lost {
		defer stop()
		a.logger.Warn().Str("device_id", dev.ID).Msg("device link lost")
		emitCtx, cancel := clockwork.WithTimeout(ctx, a.clock, a.cfg.disconnectTimeout)
		defer cancel()
		a.emit(emitCtx, DeviceStatus{State: Disconnected, Device: dev, Err: ErrLinkLost})
	}
}

// emit posts to the session inbox. While the inbox is full it waits until
// ctx is done or the adapter is closed, then drops the event.
func (a *Adapter) emit(ctx context.Context, ev Event) bool {
	select {
	case a.events <- ev:
		return true
	default:
	}
	select {
	case a.events <- ev:
		return true
	case <-ctx.Done():
	case <-a.closed:
	}
	a.logger.Warn().Str("event", fmt.Sprintf("%T", ev)).Msg("session inbox full, event dropped")
	return false
}

// Translate maps a timer state to the input a local touch gesture would
// produce. The timer arms itself and reports Running when the armed hands
// are lifted, so the lift maps to Start rather than Release. States that
// carry no input report false.
func Translate(ev *protocol.Event) (TimerInput, bool) {
	switch ev.State {
	case protocol.StateHandsOn:
		return ReadyHold(), true
	case protocol.StateHandsOff:
		// hands lifted before the timer armed: the hold is cancelled
		return Abort(), true
	case protocol.StateRunning:
		return Start(), true
	case protocol.StateStopped:
		return StopMeasured(ev.Recorded), true
	case protocol.StateIdle:
		return Abort(), true
	default:
		return TimerInput{}, false
	}
}
