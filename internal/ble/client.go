// Package ble provides the Bluetooth Low Energy transport for smart timers.
package ble

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"

	"github.com/SeamusWaldron/cubetimer"
	"github.com/SeamusWaldron/cubetimer/internal/protocol"
)

// Errors
var (
	ErrServiceNotFound = errors.New("ble: timer service not found")
	ErrCharNotFound    = errors.New("ble: state characteristic not found")
)

// BLE UUIDs
var (
	serviceUUID   = mustParseUUID(protocol.ServiceUUID)
	stateCharUUID = mustParseUUID(protocol.StateCharUUID)
)

func mustParseUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(fmt.Sprintf("ble: invalid uuid %q: %v", s, err))
	}
	return uuid
}

// stoppedWait bounds how long a stopped frame waits for a stalled reader.
const stoppedWait = time.Second

// Transport implements cubetimer.Transport over the system BLE adapter.
type Transport struct {
	adapter *bluetooth.Adapter
	logger  zerolog.Logger

	mu        sync.Mutex
	addresses map[string]bluetooth.Address // seen during scans
	links     map[string]*Link             // open links by address
}

// NewTransport enables the default BLE adapter.
func NewTransport() (*Transport, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("failed to enable BLE adapter: %w", err)
	}

	t := &Transport{
		adapter:   adapter,
		logger:    zerolog.Nop(),
		addresses: make(map[string]bluetooth.Address),
		links:     make(map[string]*Link),
	}
	adapter.SetConnectHandler(t.handleConnect)
	return t, nil
}

// Scan reports advertisements until ctx is done.
func (t *Transport) Scan(ctx context.Context, found func(cubetimer.Advertisement)) error {
	done := make(chan error, 1)

	go func() {
		done <- t.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			addr := result.Address.String()

			t.mu.Lock()
			t.addresses[addr] = result.Address
			t.mu.Unlock()

			found(cubetimer.Advertisement{
				ID:   addr,
				Name: result.LocalName(),
				RSSI: result.RSSI,
			})
		})
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	t.adapter.StopScan()
	<-done
	return nil
}

// Connect connects to the device with the given address.
// A device that was not seen by an earlier scan is searched for first.
func (t *Transport) Connect(ctx context.Context, id string) (cubetimer.Link, error) {
	addr, err := t.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	type result struct {
		device bluetooth.Device
		err    error
	}
	connected := make(chan result, 1)
	go func() {
		device, err := t.adapter.Connect(addr, bluetooth.ConnectionParams{})
		connected <- result{device, err}
	}()

	var device bluetooth.Device
	select {
	case r := <-connected:
		if r.err != nil {
			return nil, fmt.Errorf("failed to connect: %w", r.err)
		}
		device = r.device
	case <-ctx.Done():
		// the stack cannot cancel a pending connect; drop it when it lands
		go func() {
			if r := <-connected; r.err == nil {
				r.device.Disconnect()
			}
		}()
		return nil, ctx.Err()
	}

	link, err := t.open(device, id)
	if err != nil {
		device.Disconnect()
		return nil, err
	}
	return link, nil
}

func (t *Transport) resolve(ctx context.Context, id string) (bluetooth.Address, error) {
	t.mu.Lock()
	addr, ok := t.addresses[id]
	t.mu.Unlock()
	if ok {
		return addr, nil
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var once sync.Once
	err := t.Scan(scanCtx, func(adv cubetimer.Advertisement) {
		if adv.ID == id {
			once.Do(cancel)
		}
	})
	if err != nil {
		return bluetooth.Address{}, err
	}

	t.mu.Lock()
	addr, ok = t.addresses[id]
	t.mu.Unlock()
	if !ok {
		if ctx.Err() != nil {
			return bluetooth.Address{}, ctx.Err()
		}
		return bluetooth.Address{}, cubetimer.ErrDeviceNotFound
	}
	return addr, nil
}

func (t *Transport) open(device bluetooth.Device, id string) (*Link, error) {
	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil {
		return nil, fmt.Errorf("failed to discover services: %w", err)
	}
	if len(services) == 0 {
		return nil, ErrServiceNotFound
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{stateCharUUID})
	if err != nil {
		return nil, fmt.Errorf("failed to discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return nil, ErrCharNotFound
	}

	link := &Link{
		device:    device,
		stateChar: chars[0],
		logger:    t.logger.With().Str("device_id", id).Logger(),
		frames:    make(chan []byte, 32),
		onClose: func() {
			t.mu.Lock()
			delete(t.links, id)
			t.mu.Unlock()
		},
	}

	err = link.stateChar.EnableNotifications(link.handleNotification)
	if err != nil {
		return nil, fmt.Errorf("failed to enable notifications: %w", err)
	}

	t.mu.Lock()
	t.links[id] = link
	t.mu.Unlock()

	return link, nil
}

// SetLogger sets the logger used for links opened afterwards.
func (t *Transport) SetLogger(logger zerolog.Logger) {
	t.logger = logger
}

// handleConnect closes the link of a device the stack reports as gone.
func (t *Transport) handleConnect(device bluetooth.Device, connected bool) {
	if connected {
		return
	}
	t.mu.Lock()
	link := t.links[device.Address.String()]
	t.mu.Unlock()
	if link != nil {
		link.close()
	}
}

// Link is an open connection to one smart timer.
type Link struct {
	device    bluetooth.Device
	stateChar bluetooth.DeviceCharacteristic

	logger  zerolog.Logger
	mu      sync.Mutex
	frames  chan []byte
	closed  bool
	onClose func()
}

// Notifications delivers raw state frames until the link closes.
func (l *Link) Notifications() <-chan []byte {
	return l.frames
}

// Send writes a raw frame to the timer.
func (l *Link) Send(frame []byte) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return cubetimer.ErrNotConnected
	}

	_, err := l.stateChar.WriteWithoutResponse(frame)
	if err != nil {
		_, err = l.stateChar.Write(frame)
	}
	return err
}

// Disconnect closes the link.
func (l *Link) Disconnect() error {
	err := l.device.Disconnect()
	l.close()
	return err
}

func (l *Link) handleNotification(data []byte) {
	// the stack may reuse its buffer
	frame := make([]byte, len(data))
	copy(frame, data)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	select {
	case l.frames <- frame:
		return
	default:
	}

	// a stopped frame carries the only copy of the measured time
	if ev, err := protocol.Decode(frame); err == nil && ev.State == protocol.StateStopped {
		timer := time.NewTimer(stoppedWait)
		defer timer.Stop()
		select {
		case l.frames <- frame:
			return
		case <-timer.C:
		}
	}
	l.logger.Warn().Hex("frame", frame).Msg("reader stalled, frame dropped")
}

func (l *Link) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.frames)
	if l.onClose != nil {
		l.onClose()
	}
}
