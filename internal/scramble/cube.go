package scramble

import "strings"

// Color is a sticker color in the standard scheme, white on top and green
// in front.
type Color byte

const (
	White Color = iota
	Yellow
	Green
	Blue
	Red
	Orange
)

func (c Color) String() string {
	switch c {
	case White:
		return "W"
	case Yellow:
		return "Y"
	case Green:
		return "G"
	case Blue:
		return "B"
	case Red:
		return "R"
	case Orange:
		return "O"
	default:
		return "?"
	}
}

// faceOrder fixes the row of each face in Cube.Facelets.
var faceOrder = [6]Face{FaceU, FaceD, FaceF, FaceB, FaceR, FaceL}

func faceIndex(f Face) int {
	for i, o := range faceOrder {
		if o == f {
			return i
		}
	}
	return -1
}

// sticker addresses one facelet.
type sticker struct {
	face  int
	index int
}

// strip is the row or column of three stickers a turn carries to the next
// face, listed in matching order.
type strip [3]sticker

func stripOf(f Face, a, b, c int) strip {
	i := faceIndex(f)
	return strip{{i, a}, {i, b}, {i, c}}
}

// ring lists the four strips around a face in clockwise turn order:
// a clockwise turn carries ring[k] onto ring[k+1].
//
// Each face is read from outside the cube, indexed
//
//	0 1 2
//	3 4 5
//	6 7 8
//
// with U and D oriented as in the usual net (B above U, F above D).
var rings = map[Face][4]strip{
	FaceU: {stripOf(FaceF, 0, 1, 2), stripOf(FaceL, 0, 1, 2), stripOf(FaceB, 0, 1, 2), stripOf(FaceR, 0, 1, 2)},
	FaceD: {stripOf(FaceF, 6, 7, 8), stripOf(FaceR, 6, 7, 8), stripOf(FaceB, 6, 7, 8), stripOf(FaceL, 6, 7, 8)},
	FaceF: {stripOf(FaceU, 6, 7, 8), stripOf(FaceR, 0, 3, 6), stripOf(FaceD, 2, 1, 0), stripOf(FaceL, 8, 5, 2)},
	FaceB: {stripOf(FaceU, 2, 1, 0), stripOf(FaceL, 0, 3, 6), stripOf(FaceD, 6, 7, 8), stripOf(FaceR, 8, 5, 2)},
	FaceR: {stripOf(FaceF, 2, 5, 8), stripOf(FaceU, 2, 5, 8), stripOf(FaceB, 6, 3, 0), stripOf(FaceD, 2, 5, 8)},
	FaceL: {stripOf(FaceU, 0, 3, 6), stripOf(FaceF, 0, 3, 6), stripOf(FaceD, 0, 3, 6), stripOf(FaceB, 8, 5, 2)},
}

// Cube is a facelet model of a 3x3, used to preview what a scramble
// should produce.
type Cube struct {
	Facelets [6][9]Color // indexed by faceOrder
}

// NewCube returns a solved cube.
func NewCube() *Cube {
	c := &Cube{}
	for i := range c.Facelets {
		for j := range c.Facelets[i] {
			c.Facelets[i][j] = Color(i)
		}
	}
	return c
}

// Scrambled returns a solved cube with seq applied.
func Scrambled(seq Sequence) *Cube {
	c := NewCube()
	c.Apply(seq...)
	return c
}

// Face returns the nine stickers of f.
func (c *Cube) Face(f Face) [9]Color {
	return c.Facelets[faceIndex(f)]
}

// IsSolved reports whether every face shows a single color.
func (c *Cube) IsSolved() bool {
	for _, face := range c.Facelets {
		for _, col := range face {
			if col != face[4] {
				return false
			}
		}
	}
	return true
}

// Apply turns the cube by each move in order.
func (c *Cube) Apply(moves ...Move) {
	for _, m := range moves {
		quarters := 1
		switch m.Turn {
		case CCW:
			quarters = 3
		case Double:
			quarters = 2
		}
		for range quarters {
			c.quarter(m.Face)
		}
	}
}

// quarter applies one clockwise quarter turn of f.
func (c *Cube) quarter(f Face) {
	s := &c.Facelets[faceIndex(f)]
	s[0], s[2], s[8], s[6] = s[6], s[0], s[2], s[8]
	s[1], s[5], s[7], s[3] = s[3], s[1], s[5], s[7]

	ring := rings[f]
	last := c.read(ring[3])
	for k := 3; k > 0; k-- {
		c.write(ring[k], c.read(ring[k-1]))
	}
	c.write(ring[0], last)
}

func (c *Cube) read(s strip) [3]Color {
	var out [3]Color
	for i, st := range s {
		out[i] = c.Facelets[st.face][st.index]
	}
	return out
}

func (c *Cube) write(s strip, cols [3]Color) {
	for i, st := range s {
		c.Facelets[st.face][st.index] = cols[i]
	}
}

// Net renders the cube unfolded, U above L F R B with D below. Each
// sticker is drawn by paint as a cell cellWidth columns wide on screen.
// A nil paint prints color letters.
func (c *Cube) Net(paint func(Color) string, cellWidth int) string {
	if paint == nil {
		paint = func(col Color) string { return col.String() + " " }
		cellWidth = 2
	}
	blank := strings.Repeat(" ", cellWidth*3)

	var b strings.Builder
	row := func(faces []Face, r int) {
		for _, f := range faces {
			face := c.Face(f)
			for col := 0; col < 3; col++ {
				b.WriteString(paint(face[r*3+col]))
			}
		}
	}

	for r := 0; r < 3; r++ {
		b.WriteString(blank)
		row([]Face{FaceU}, r)
		b.WriteString("\n")
	}
	for r := 0; r < 3; r++ {
		row([]Face{FaceL, FaceF, FaceR, FaceB}, r)
		b.WriteString("\n")
	}
	for r := 0; r < 3; r++ {
		b.WriteString(blank)
		row([]Face{FaceD}, r)
		b.WriteString("\n")
	}
	return b.String()
}

// String renders the net with color letters.
func (c *Cube) String() string {
	return c.Net(nil, 0)
}
