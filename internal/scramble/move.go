// Package scramble generates and validates random-move scrambles in
// standard face-turn notation.
package scramble

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNotation is returned for a move that is not standard notation.
var ErrInvalidNotation = errors.New("scramble: invalid move notation")

// Face represents a cube face in standard notation.
type Face string

const (
	FaceR Face = "R" // Right
	FaceL Face = "L" // Left
	FaceU Face = "U" // Up
	FaceD Face = "D" // Down
	FaceF Face = "F" // Front
	FaceB Face = "B" // Back
)

// Faces lists all faces in generation order.
var Faces = []Face{FaceR, FaceL, FaceU, FaceD, FaceF, FaceB}

// Axis groups opposite faces: turns on one axis commute.
func (f Face) Axis() int {
	switch f {
	case FaceR, FaceL:
		return 0
	case FaceU, FaceD:
		return 1
	default:
		return 2
	}
}

// Turn represents the direction and magnitude of a face turn.
type Turn int

const (
	CW     Turn = 1  // Clockwise (90 degrees)
	CCW    Turn = -1 // Counter-clockwise (90 degrees)
	Double Turn = 2  // Half turn (180 degrees)
)

var turns = []Turn{CW, CCW, Double}

// Move is a single face turn.
type Move struct {
	Face Face
	Turn Turn
}

// Notation returns the standard cube notation string for this move.
// Examples: R, R', R2
func (m Move) Notation() string {
	switch m.Turn {
	case CCW:
		return string(m.Face) + "'"
	case Double:
		return string(m.Face) + "2"
	default:
		return string(m.Face)
	}
}

// String returns the notation string.
func (m Move) String() string {
	return m.Notation()
}

// Inverse returns the move that undoes m.
func (m Move) Inverse() Move {
	switch m.Turn {
	case CW:
		return Move{Face: m.Face, Turn: CCW}
	case CCW:
		return Move{Face: m.Face, Turn: CW}
	default:
		return m
	}
}

// ParseMove parses a standard notation string into a Move.
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return Move{}, ErrInvalidNotation
	}

	var face Face
	switch s[0] {
	case 'R':
		face = FaceR
	case 'L':
		face = FaceL
	case 'U':
		face = FaceU
	case 'D':
		face = FaceD
	case 'F':
		face = FaceF
	case 'B':
		face = FaceB
	default:
		return Move{}, ErrInvalidNotation
	}

	turn := CW
	switch s[1:] {
	case "":
	case "'", "`":
		turn = CCW
	case "2", "2'":
		turn = Double
	default:
		return Move{}, ErrInvalidNotation
	}

	return Move{Face: face, Turn: turn}, nil
}

// Sequence is an ordered list of moves.
type Sequence []Move

// String renders the moves separated by single spaces.
func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = m.Notation()
	}
	return strings.Join(parts, " ")
}

// Inverse returns the sequence that undoes s.
func (s Sequence) Inverse() Sequence {
	inv := make(Sequence, len(s))
	for i, m := range s {
		inv[len(s)-1-i] = m.Inverse()
	}
	return inv
}

// Parse parses a whitespace-separated move sequence.
func Parse(s string) (Sequence, error) {
	fields := strings.Fields(s)
	seq := make(Sequence, 0, len(fields))
	for _, f := range fields {
		m, err := ParseMove(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, f)
		}
		seq = append(seq, m)
	}
	return seq, nil
}
