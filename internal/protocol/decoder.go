package protocol

import (
	"fmt"
	"time"
)

// State is the contact-sensor state reported by the timer.
type State byte

const (
	StateDisconnect State = 0x00
	StateGetSet     State = 0x01 // hands held long enough, release to start
	StateHandsOff   State = 0x02 // hands lifted before the timer armed
	StateRunning    State = 0x03
	StateStopped    State = 0x04 // carries the recorded time
	StateIdle       State = 0x05 // display reset
	StateHandsOn    State = 0x06
	StateFinished   State = 0x07 // stopped time acknowledged
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateDisconnect:
		return "disconnect"
	case StateGetSet:
		return "get_set"
	case StateHandsOff:
		return "hands_off"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateIdle:
		return "idle"
	case StateHandsOn:
		return "hands_on"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("unknown_0x%02X", byte(s))
	}
}

// Event is a decoded timer notification.
type Event struct {
	State    State
	Recorded time.Duration // set for StateStopped only
	Raw      string
}

// Decode parses and decodes a raw notification.
func Decode(data []byte) (*Event, error) {
	frame, err := ParseFrame(data)
	if err != nil {
		return nil, err
	}
	if frame.State > StateFinished {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownState, byte(frame.State))
	}

	ev := &Event{State: frame.State, Raw: frame.Raw}
	if frame.State == StateStopped {
		rec, err := DecodeRecordedTime(frame.Payload)
		if err != nil {
			return nil, err
		}
		ev.Recorded = rec
	}
	return ev, nil
}

// DecodeRecordedTime decodes [minutes] [seconds] [ms lo] [ms hi].
func DecodeRecordedTime(payload []byte) (time.Duration, error) {
	if len(payload) < 4 {
		return 0, fmt.Errorf("%w: recorded time needs 4 bytes, got %d", ErrFrameTooShort, len(payload))
	}
	minutes := time.Duration(payload[0])
	seconds := time.Duration(payload[1])
	millis := time.Duration(uint16(payload[2]) | uint16(payload[3])<<8)
	return minutes*time.Minute + seconds*time.Second + millis*time.Millisecond, nil
}

// EncodeRecordedTime is the inverse of DecodeRecordedTime.
// Sub-millisecond precision is dropped.
func EncodeRecordedTime(d time.Duration) []byte {
	ms := d.Milliseconds()
	minutes := ms / 60000
	seconds := (ms / 1000) % 60
	millis := uint16(ms % 1000)
	return []byte{byte(minutes), byte(seconds), byte(millis), byte(millis >> 8)}
}

// EncodeState builds a frame for a state without payload.
func EncodeState(s State) []byte {
	return BuildFrame(s, nil)
}

// EncodeStopped builds a stopped frame carrying the recorded time.
func EncodeStopped(d time.Duration) []byte {
	return BuildFrame(StateStopped, EncodeRecordedTime(d))
}
