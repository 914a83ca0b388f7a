package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC16(t *testing.T) {
	// CRC-16/CCITT-FALSE check value
	assert.Equal(t, uint16(0x29B1), CRC16([]byte("123456789")))
	assert.Equal(t, uint16(0xFFFF), CRC16(nil))
}

func TestBuildParseFrame(t *testing.T) {
	frame := BuildFrame(StateHandsOn, nil)
	require.Len(t, frame, MinFrameLen)
	assert.Equal(t, FrameMagic, frame[0])
	assert.Equal(t, byte(MinFrameLen), frame[1])

	parsed, err := ParseFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, StateHandsOn, parsed.State)
	assert.Empty(t, parsed.Payload)
	assert.Equal(t, "fe06", parsed.Raw[:4])
}

func TestParseFrameErrors(t *testing.T) {
	_, err := ParseFrame([]byte{0xFE, 0x03})
	assert.ErrorIs(t, err, ErrFrameTooShort)

	frame := BuildFrame(StateIdle, nil)
	bad := append([]byte{}, frame...)
	bad[0] = 0xAA
	_, err = ParseFrame(bad)
	assert.ErrorIs(t, err, ErrInvalidMagic)

	bad = append([]byte{}, frame...)
	bad[3] = byte(StateRunning)
	_, err = ParseFrame(bad)
	assert.ErrorIs(t, err, ErrInvalidChecksum)
}

func TestDecodeStates(t *testing.T) {
	for s := StateDisconnect; s <= StateFinished; s++ {
		if s == StateStopped {
			continue
		}
		ev, err := Decode(EncodeState(s))
		require.NoError(t, err, s.String())
		assert.Equal(t, s, ev.State)
		assert.Zero(t, ev.Recorded)
	}

	_, err := Decode(BuildFrame(State(0x09), nil))
	assert.ErrorIs(t, err, ErrUnknownState)
	assert.Equal(t, "unknown_0x09", State(0x09).String())
}

func TestDecodeStopped(t *testing.T) {
	tests := []time.Duration{
		0,
		12340 * time.Millisecond,
		time.Minute + 4*time.Second + 205*time.Millisecond,
		9*time.Minute + 59*time.Second + 999*time.Millisecond,
	}
	for _, d := range tests {
		t.Run(d.String(), func(t *testing.T) {
			frame := EncodeStopped(d)
			assert.Len(t, frame, StoppedFrameLen)

			ev, err := Decode(frame)
			require.NoError(t, err)
			assert.Equal(t, StateStopped, ev.State)
			assert.Equal(t, d, ev.Recorded)
		})
	}
}

func TestDecodeRecordedTime(t *testing.T) {
	// 1 minute, 2 seconds, 0x0159 = 345 ms
	d, err := DecodeRecordedTime([]byte{0x01, 0x02, 0x59, 0x01})
	require.NoError(t, err)
	assert.Equal(t, time.Minute+2*time.Second+345*time.Millisecond, d)

	_, err = DecodeRecordedTime([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrFrameTooShort)

	// a stopped frame without its time payload
	_, err = Decode(BuildFrame(StateStopped, nil))
	assert.ErrorIs(t, err, ErrFrameTooShort)
}
