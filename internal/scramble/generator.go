package scramble

import (
	"math/rand/v2"
)

// DefaultLength is the number of moves in a generated scramble.
const DefaultLength = 20

// Generator produces random-move scrambles. Consecutive moves never turn
// the same face, and no three consecutive moves share an axis, so no move
// cancels or merges with its neighbours.
type Generator struct {
	rng    *rand.Rand
	length int
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLength sets the scramble length.
func WithLength(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.length = n
		}
	}
}

// WithSeed makes generation reproducible.
func WithSeed(seed uint64) GeneratorOption {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	}
}

// NewGenerator creates a generator.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		length: DefaultLength,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns a new scramble.
func (g *Generator) Next() Sequence {
	seq := make(Sequence, 0, g.length)
	for len(seq) < g.length {
		face := Faces[g.rng.IntN(len(Faces))]
		if !allowed(seq, face) {
			continue
		}
		seq = append(seq, Move{Face: face, Turn: turns[g.rng.IntN(len(turns))]})
	}
	return seq
}

// String returns a new scramble rendered in notation.
func (g *Generator) String() string {
	return g.Next().String()
}

func allowed(seq Sequence, face Face) bool {
	n := len(seq)
	if n == 0 {
		return true
	}
	last := seq[n-1].Face
	if last == face {
		return false
	}
	// R L R: the outer moves would merge
	if n >= 2 && last.Axis() == face.Axis() && seq[n-2].Face.Axis() == face.Axis() {
		return false
	}
	return true
}
