package cubetimer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationString(t *testing.T) {
	tests := []struct {
		ms         Duration
		hundredths string
		tenths     string
	}{
		{12830, "12.83", "12.8"},
		{0, "0.00", "0.0"},
		{600000, "10:00.00", "10:00.0"},
		{1090, "1.09", "1.0"},
		{4300, "4.30", "4.3"},
		{64205, "1:04.20", "1:04.2"},
		{9999, "9.99", "9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.hundredths, func(t *testing.T) {
			assert.Equal(t, tt.hundredths, tt.ms.String())
			assert.Equal(t, tt.tenths, tt.ms.FormatTenths())
		})
	}
}

func TestDurationOf(t *testing.T) {
	assert.Equal(t, Duration(12340), DurationOf(12340*time.Millisecond+999*time.Microsecond))
	assert.Equal(t, Duration(0), DurationOf(-time.Second))
	assert.Equal(t, 1500*time.Millisecond, Duration(1500).Std())
}

func TestParsePenalty(t *testing.T) {
	for in, want := range map[string]Penalty{
		"none": PenaltyNone,
		"":     PenaltyNone,
		"+2":   PenaltyPlusTwo,
		"DNF":  PenaltyDNF,
	} {
		got, err := ParsePenalty(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePenalty("+3")
	assert.ErrorIs(t, err, ErrInvalidPenalty)

	for _, p := range []Penalty{PenaltyNone, PenaltyPlusTwo, PenaltyDNF} {
		got, err := ParsePenalty(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestEffectiveOrdering(t *testing.T) {
	fast := Finite(9000)
	slow := Finite(60000)

	assert.True(t, fast.Less(slow))
	assert.True(t, slow.Less(DNF))
	assert.False(t, DNF.Less(slow))
	assert.Equal(t, 0, DNF.Compare(DNF))
	assert.Equal(t, 0, fast.Compare(Finite(9000)))
	assert.Equal(t, -1, fast.Compare(DNF))
	assert.Equal(t, 1, DNF.Compare(fast))

	d, ok := DNF.Duration()
	assert.False(t, ok)
	assert.Zero(t, d)
	assert.Equal(t, "DNF", DNF.String())
}

func TestResultEffective(t *testing.T) {
	r := Result{ID: "a", Raw: 12340}

	assert.Equal(t, Finite(12340), r.Effective())
	assert.Equal(t, "12.34", r.String())

	plus := r.WithPenalty(PenaltyPlusTwo)
	assert.Equal(t, Finite(14340), plus.Effective())
	assert.Equal(t, "14.34+", plus.String())
	assert.Equal(t, Duration(12340), plus.Raw)

	dnf := r.WithPenalty(PenaltyDNF)
	assert.True(t, dnf.Effective().IsDNF())
	assert.Equal(t, "DNF(12.34)", dnf.String())
	assert.Equal(t, Duration(12340), dnf.Raw)

	// the original value is untouched
	assert.Equal(t, PenaltyNone, r.Penalty)
	assert.Equal(t, r, dnf.WithPenalty(PenaltyNone))
}
