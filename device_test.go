package cubetimer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/cubetimer/internal/protocol"
)

type fakeLink struct {
	frames chan []byte
	block  chan struct{} // when set, Disconnect waits on it

	mu           sync.Mutex
	sent         [][]byte
	disconnected bool
	closeOnce    sync.Once
}

func newFakeLink() *fakeLink {
	return &fakeLink{frames: make(chan []byte, 16)}
}

func (l *fakeLink) Notifications() <-chan []byte { return l.frames }

func (l *fakeLink) Send(frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sent = append(l.sent, frame)
	return nil
}

func (l *fakeLink) Disconnect() error {
	if l.block != nil {
		<-l.block
	}
	l.mu.Lock()
	l.disconnected = true
	l.mu.Unlock()
	l.drop()
	return nil
}

// drop closes the notification stream as a lost link would.
func (l *fakeLink) drop() {
	l.closeOnce.Do(func() { close(l.frames) })
}

func (l *fakeLink) isDisconnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disconnected
}

type fakeTransport struct {
	ads   []Advertisement
	links map[string]*fakeLink

	// connect overrides the default of returning links[id]
	connect func(ctx context.Context, id string) (Link, error)
}

func (f *fakeTransport) Scan(ctx context.Context, found func(Advertisement)) error {
	for _, ad := range f.ads {
		found(ad)
	}
	<-ctx.Done()
	return nil
}

func (f *fakeTransport) Connect(ctx context.Context, id string) (Link, error) {
	if f.connect != nil {
		return f.connect(ctx, id)
	}
	link, ok := f.links[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return link, nil
}

func newTestAdapter(t *testing.T, transport Transport, events chan<- Event, opts ...Option) (*Adapter, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	a := NewAdapter(transport, events, append([]Option{WithClock(clock)}, opts...)...)
	t.Cleanup(func() { a.Close() })
	return a, clock
}

func nextStatus(t *testing.T, events <-chan Event) DeviceStatus {
	t.Helper()
	for {
		select {
		case ev := <-events:
			if ds, ok := ev.(DeviceStatus); ok {
				return ds
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for device status")
		}
	}
}

func TestScanDedupesDevices(t *testing.T) {
	transport := &fakeTransport{ads: []Advertisement{
		{ID: "A", Name: "GAN-A", RSSI: -70},
		{ID: "B", Name: "gan-b", RSSI: -60},
		{ID: "A", Name: "GAN-A", RSSI: -50},
		{ID: "C", Name: "Headphones", RSSI: -40},
	}}
	a, _ := newTestAdapter(t, transport, make(chan Event, 16), WithNamePrefixes("GAN"))

	updates, err := a.StartScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DiscoveryScanning, a.Discovery())

	_, err = a.StartScan(context.Background())
	assert.ErrorIs(t, err, ErrScanInProgress)

	var seen []DiscoveredDevice
	for i := 0; i < 3; i++ {
		seen = append(seen, <-updates)
	}
	assert.Equal(t, "A", seen[0].ID)
	assert.Equal(t, "B", seen[1].ID)
	assert.Equal(t, int16(-50), seen[2].RSSI)

	assert.Equal(t, []DiscoveredDevice{
		{ID: "A", Name: "GAN-A", RSSI: -50},
		{ID: "B", Name: "gan-b", RSSI: -60},
	}, a.Devices())

	a.StopScan()
	_, open := <-updates
	assert.False(t, open)
	assert.Equal(t, DiscoveryIdle, a.Discovery())

	// a restart begins a fresh list
	transport.ads = transport.ads[3:]
	updates, err = a.StartScan(context.Background())
	require.NoError(t, err)
	a.StopScan()
	for range updates {
	}
	assert.Empty(t, a.Devices())
}

func TestConnectStopsScanAndTranslates(t *testing.T) {
	link := newFakeLink()
	transport := &fakeTransport{
		ads:   []Advertisement{{ID: "A", Name: "GAN-A", RSSI: -70}},
		links: map[string]*fakeLink{"A": link},
	}
	events := make(chan Event, 16)
	a, _ := newTestAdapter(t, transport, events)

	updates, err := a.StartScan(context.Background())
	require.NoError(t, err)
	<-updates

	require.NoError(t, a.Connect(context.Background(), "A"))
	assert.Equal(t, DiscoveryIdle, a.Discovery())
	assert.Equal(t, DeviceStatus{State: Connecting, Device: DiscoveredDevice{ID: "A", Name: "GAN-A", RSSI: -70}}, nextStatus(t, events))
	assert.Equal(t, Connected, nextStatus(t, events).State)
	assert.Equal(t, Connected, a.Status().State)

	link.frames <- protocol.EncodeState(protocol.StateHandsOn)
	link.frames <- []byte{0x00, 0x01} // malformed, dropped
	link.frames <- protocol.EncodeState(protocol.StateGetSet)
	link.frames <- protocol.EncodeState(protocol.StateRunning)
	link.frames <- protocol.EncodeStopped(9876 * time.Millisecond)

	want := []TimerInput{ReadyHold(), Start(), StopMeasured(9876 * time.Millisecond)}
	for _, w := range want {
		select {
		case ev := <-events:
			assert.Equal(t, w, ev)
		case <-time.After(time.Second):
			t.Fatal("missing translated input")
		}
	}

	require.NoError(t, a.Send([]byte{1, 2, 3}))
	require.NoError(t, a.Disconnect())
	assert.True(t, link.isDisconnected())
	assert.Equal(t, DeviceStatus{State: Disconnected, Device: DiscoveredDevice{ID: "A", Name: "GAN-A", RSSI: -70}}, nextStatus(t, events))
	assert.ErrorIs(t, a.Send([]byte{1}), ErrNotConnected)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		state protocol.State
		want  TimerInput
		ok    bool
	}{
		{protocol.StateHandsOn, ReadyHold(), true},
		{protocol.StateHandsOff, Abort(), true},
		{protocol.StateRunning, Start(), true},
		{protocol.StateIdle, Abort(), true},
		{protocol.StateGetSet, TimerInput{}, false},
		{protocol.StateFinished, TimerInput{}, false},
		{protocol.StateDisconnect, TimerInput{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			got, ok := Translate(&protocol.Event{State: tt.state})
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	got, ok := Translate(&protocol.Event{State: protocol.StateStopped, Recorded: 12340 * time.Millisecond})
	require.True(t, ok)
	assert.Equal(t, StopMeasured(12340*time.Millisecond), got)
}

func TestReconnectDisconnectsFirst(t *testing.T) {
	linkA, linkB := newFakeLink(), newFakeLink()
	transport := &fakeTransport{links: map[string]*fakeLink{"A": linkA, "B": linkB}}
	events := make(chan Event, 16)
	a, _ := newTestAdapter(t, transport, events)

	require.NoError(t, a.Connect(context.Background(), "A"))
	require.NoError(t, a.Connect(context.Background(), "B"))
	assert.True(t, linkA.isDisconnected())
	assert.False(t, linkB.isDisconnected())

	var got []string
	for i := 0; i < 5; i++ {
		ds := nextStatus(t, events)
		got = append(got, ds.Device.ID+":"+ds.State.String())
	}
	assert.Equal(t, []string{
		"A:connecting", "A:connected", "A:disconnected", "B:connecting", "B:connected",
	}, got)
}

func TestReconnectAbandonsStuckDisconnect(t *testing.T) {
	linkA, linkB := newFakeLink(), newFakeLink()
	linkA.block = make(chan struct{})
	defer close(linkA.block)
	transport := &fakeTransport{links: map[string]*fakeLink{"A": linkA, "B": linkB}}
	a, clock := newTestAdapter(t, transport, make(chan Event, 16))

	require.NoError(t, a.Connect(context.Background(), "A"))

	done := make(chan error, 1)
	go func() { done <- a.Connect(context.Background(), "B") }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(DefaultDisconnectTimeout)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("connect did not proceed after the disconnect timeout")
	}
	assert.Equal(t, "B", a.Status().Device.ID)
}

func TestConnectTimeout(t *testing.T) {
	transport := &fakeTransport{connect: func(ctx context.Context, id string) (Link, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	events := make(chan Event, 16)
	a, clock := newTestAdapter(t, transport, events, WithConnectTimeout(5*time.Second))

	done := make(chan error, 1)
	go func() { done <- a.Connect(context.Background(), "A") }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(5 * time.Second)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrConnectTimeout)
	case <-time.After(time.Second):
		t.Fatal("connect did not time out")
	}
	assert.Equal(t, Disconnected, a.Status().State)

	assert.Equal(t, Connecting, nextStatus(t, events).State)
	failed := nextStatus(t, events)
	assert.Equal(t, Disconnected, failed.State)
	assert.ErrorIs(t, failed.Err, ErrConnectTimeout)
}

func TestConnectReturnsWhileInboxIsFull(t *testing.T) {
	link := newFakeLink()
	transport := &fakeTransport{links: map[string]*fakeLink{"A": link}}
	// nothing reads events: Connecting fills it
	events := make(chan Event, 1)
	a, _ := newTestAdapter(t, transport, events, WithConnectTimeout(50*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Connect(ctx, "A") }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("connect blocked on a full inbox")
	}
	assert.Equal(t, Connected, a.Status().State)
	assert.Equal(t, Connecting, nextStatus(t, events).State)
}

func TestCloseUnblocksReaderOnFullInbox(t *testing.T) {
	link := newFakeLink()
	transport := &fakeTransport{links: map[string]*fakeLink{"A": link}}
	events := make(chan Event, 1)
	a := NewAdapter(transport, events, WithClock(clockwork.NewFakeClockAt(epoch)))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Connect(ctx, "A"))

	// the reader is now stuck posting into the full inbox
	link.frames <- protocol.EncodeState(protocol.StateHandsOn)

	done := make(chan error, 1)
	go func() { done <- a.Close() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("close blocked on a full inbox")
	}
	assert.True(t, link.isDisconnected())
	assert.Equal(t, Disconnected, a.Status().State)
}

func TestCancelConnect(t *testing.T) {
	started := make(chan struct{})
	transport := &fakeTransport{connect: func(ctx context.Context, id string) (Link, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	a, _ := newTestAdapter(t, transport, make(chan Event, 16))

	done := make(chan error, 1)
	go func() { done <- a.Connect(context.Background(), "A") }()
	<-started
	a.CancelConnect()

	assert.ErrorIs(t, <-done, ErrConnectCancelled)
	assert.Equal(t, Disconnected, a.Status().State)
}

func TestConnectFailure(t *testing.T) {
	boom := errors.New("gatt failure")
	transport := &fakeTransport{connect: func(context.Context, string) (Link, error) {
		return nil, boom
	}}
	events := make(chan Event, 16)
	a, _ := newTestAdapter(t, transport, events)

	assert.ErrorIs(t, a.Connect(context.Background(), "A"), boom)
	nextStatus(t, events)
	assert.ErrorIs(t, nextStatus(t, events).Err, boom)
}

func TestLinkLossMidSolveFallsBackToLocalClock(t *testing.T) {
	link := newFakeLink()
	transport := &fakeTransport{links: map[string]*fakeLink{"A": link}}
	s, clock := startSession(t, nil)
	a := NewAdapter(transport, s.Inbox(), WithClock(clock))
	t.Cleanup(func() { a.Close() })

	require.NoError(t, a.Connect(context.Background(), "A"))
	require.Eventually(t, func() bool { return s.State().Device.State == Connected }, time.Second, time.Millisecond)

	link.frames <- protocol.EncodeState(protocol.StateRunning)
	require.Eventually(t, func() bool { return s.State().Phase == PhaseRunning }, time.Second, time.Millisecond)

	clock.Advance(12 * time.Second)
	link.drop()
	require.Eventually(t, func() bool { return s.State().Device.State == Disconnected }, time.Second, time.Millisecond)

	st := s.State()
	assert.ErrorIs(t, st.Device.Err, ErrLinkLost)
	assert.Equal(t, PhaseRunning, st.Phase, "link loss must not abort the solve")

	clock.Advance(340 * time.Millisecond)
	post(t, s, Stop())
	drain(t, s)

	results := s.State().Results
	require.Len(t, results, 1)
	assert.Equal(t, Duration(12340), results[0].Raw)
}

func TestDeviceDrivenSolve(t *testing.T) {
	link := newFakeLink()
	transport := &fakeTransport{links: map[string]*fakeLink{"A": link}}
	s, clock := startSession(t, nil)
	a := NewAdapter(transport, s.Inbox(), WithClock(clock))
	t.Cleanup(func() { a.Close() })

	require.NoError(t, a.Connect(context.Background(), "A"))
	post(t, s, SetScramble("R2 U2"))

	link.frames <- protocol.EncodeState(protocol.StateHandsOn)
	require.Eventually(t, func() bool { return s.State().Holding }, time.Second, time.Millisecond)
	link.frames <- protocol.EncodeState(protocol.StateRunning)
	require.Eventually(t, func() bool { return s.State().Phase == PhaseRunning }, time.Second, time.Millisecond)

	clock.Advance(10 * time.Second)
	link.frames <- protocol.EncodeStopped(9876 * time.Millisecond)
	require.Eventually(t, func() bool { return len(s.State().Results) == 1 }, time.Second, time.Millisecond)

	r := s.State().Results[0]
	assert.Equal(t, Duration(9876), r.Raw)
	assert.Equal(t, "R2 U2", r.Scramble)

	// the idle that follows a stop is a no-op
	link.frames <- protocol.EncodeState(protocol.StateIdle)
	drain(t, s)
	assert.Len(t, s.State().Results, 1)
}
