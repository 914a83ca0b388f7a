// Package protocol implements the smart timer BLE frame format.
package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Smart timer BLE Service and Characteristic UUIDs
const (
	ServiceUUID   = "0000fff0-0000-1000-8000-00805f9b34fb"
	StateCharUUID = "0000fff5-0000-1000-8000-00805f9b34fb" // Notify
	TimeCharUUID  = "0000fff2-0000-1000-8000-00805f9b34fb" // Read (stored times)
)

// Frame constants
const (
	FrameMagic byte = 0xFE

	// magic, length, flags, state, crc(2)
	MinFrameLen = 6
	// stopped frames carry minutes, seconds and a 16-bit millisecond field
	StoppedFrameLen = MinFrameLen + 4

	headerLen = 2 // magic + length are outside the checksum
)

// Errors
var (
	ErrFrameTooShort   = errors.New("frame too short")
	ErrInvalidMagic    = errors.New("invalid frame magic")
	ErrInvalidChecksum = errors.New("invalid checksum")
	ErrUnknownState    = errors.New("unknown timer state")
)

// Frame is a validated smart timer notification.
type Frame struct {
	Flags   byte
	State   State
	Payload []byte // bytes between the state and the checksum
	Raw     string // hex of the whole frame, for logs
}

// ParseFrame validates a raw notification.
// Frame format: [0xFE] [length] [flags] [state] [payload...] [crc lo] [crc hi]
// The CRC covers everything after the length byte up to the checksum.
func ParseFrame(data []byte) (*Frame, error) {
	if len(data) < MinFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(data))
	}
	if data[0] != FrameMagic {
		return nil, fmt.Errorf("%w: 0x%02X", ErrInvalidMagic, data[0])
	}

	end := len(data) - 2
	want := uint16(data[end]) | uint16(data[end+1])<<8
	got := CRC16(data[headerLen:end])
	if want != got {
		return nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrInvalidChecksum, want, got)
	}

	return &Frame{
		Flags:   data[2],
		State:   State(data[3]),
		Payload: data[4:end],
		Raw:     hex.EncodeToString(data),
	}, nil
}

// BuildFrame encodes a frame with the given state and payload.
// It is the inverse of ParseFrame and is used by simulators and tests.
func BuildFrame(state State, payload []byte) []byte {
	n := MinFrameLen + len(payload)
	frame := make([]byte, 0, n)
	frame = append(frame, FrameMagic, byte(n), 0x01, byte(state))
	frame = append(frame, payload...)
	crc := CRC16(frame[headerLen:])
	return append(frame, byte(crc), byte(crc>>8))
}

// CRC16 computes CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF).
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
