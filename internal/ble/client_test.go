package ble

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/cubetimer/internal/protocol"
)

func newTestLink(buffer int) *Link {
	return &Link{logger: zerolog.Nop(), frames: make(chan []byte, buffer)}
}

func TestNotificationCopiesFrame(t *testing.T) {
	l := newTestLink(1)
	data := protocol.EncodeState(protocol.StateHandsOn)
	l.handleNotification(data)
	data[0] = 0

	got := <-l.frames
	assert.Equal(t, protocol.EncodeState(protocol.StateHandsOn), got)
}

func TestStalledReaderDropsStates(t *testing.T) {
	l := newTestLink(1)
	l.handleNotification(protocol.EncodeState(protocol.StateHandsOn))

	done := make(chan struct{})
	go func() {
		l.handleNotification(protocol.EncodeState(protocol.StateRunning))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stoppedWait / 2):
		t.Fatal("state frame waited for the reader")
	}
	require.Len(t, l.frames, 1)
}

func TestStalledReaderKeepsStoppedFrame(t *testing.T) {
	l := newTestLink(1)
	l.handleNotification(protocol.EncodeState(protocol.StateHandsOn))

	stopped := protocol.EncodeStopped(12340 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		l.handleNotification(stopped)
		close(done)
	}()

	// the reader catches up within the wait
	time.Sleep(50 * time.Millisecond)
	<-l.frames
	select {
	case <-done:
	case <-time.After(stoppedWait):
		t.Fatal("stopped frame was not delivered")
	}

	ev, err := protocol.Decode(<-l.frames)
	require.NoError(t, err)
	assert.Equal(t, protocol.StateStopped, ev.State)
	assert.Equal(t, 12340*time.Millisecond, ev.Recorded)
}

func TestNotificationAfterCloseIsIgnored(t *testing.T) {
	l := newTestLink(1)
	l.close()
	l.handleNotification(protocol.EncodeState(protocol.StateHandsOn))

	_, open := <-l.frames
	assert.False(t, open)
}
