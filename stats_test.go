package cubetimer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// times builds results from milliseconds; a negative value is a DNF.
func times(ms ...int64) []Result {
	out := make([]Result, len(ms))
	for i, v := range ms {
		out[i] = Result{ID: fmt.Sprintf("r%d", i), Raw: Duration(v)}
		if v < 0 {
			out[i].Raw = Duration(-v)
			out[i].Penalty = PenaltyDNF
		}
	}
	return out
}

func TestAverageOf5(t *testing.T) {
	tests := []struct {
		name   string
		window []Result
		want   Effective
		wantOK bool
	}{
		{"one dnf is the discarded worst", times(10000, 11000, 9500, -12000, 10500), Finite(10500), true},
		{"two dnfs", times(10000, -11000, 9500, -12000, 10500), DNF, true},
		{"all equal", times(10000, 10000, 10000, 10000, 10000), Finite(10000), true},
		{"rounds to nearest", times(1000, 1001, 1001, 1002, 5000), Finite(1001), true},
		{"rounds up", times(1000, 1001, 1002, 1002, 5000), Finite(1002), true},
		{"too few", times(1000, 2000, 3000, 4000), Effective{}, false},
		{"too many", times(1, 2, 3, 4, 5, 6), Effective{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AverageOf5(tt.window)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAverageOf5PlusTwo(t *testing.T) {
	w := times(10000, 11000, 9500, 10000, 10500)
	// 10.00+2 = 12.00 becomes the worst
	w[0].Penalty = PenaltyPlusTwo

	got, ok := AverageOf5(w)
	require.True(t, ok)
	// kept: 11.00, 10.00, 10.50
	assert.Equal(t, Finite(10500), got)
}

func TestAverageOf5DiscardsOneOfTiedExtremes(t *testing.T) {
	got, ok := AverageOf5(times(9000, 9000, 12000, 12000, 10500))
	require.True(t, ok)
	// kept: 9.00, 12.00, 10.50
	assert.Equal(t, Finite(10500), got)
}

func TestCurrentAo5(t *testing.T) {
	_, ok := CurrentAo5(times(1000, 2000, 3000, 4000))
	assert.False(t, ok)

	got, ok := CurrentAo5(times(99999, 10000, 11000, 9500, -12000, 10500))
	require.True(t, ok)
	assert.Equal(t, Finite(10500), got)
}

func TestBestAo5SkipsDNFWindows(t *testing.T) {
	log := times(10000, 11000, 9500, -1, 10500, -1, 8000)
	best, ok := BestAo5(log)
	require.True(t, ok)
	assert.Equal(t, Duration(10500), best)

	log = append(log, times(9000, 9000, 9000)...)
	best, ok = BestAo5(log)
	require.True(t, ok)
	assert.Equal(t, Duration(9000), best)

	_, ok = BestAo5(times(-1, -1, 1000, 2000, 3000))
	assert.False(t, ok)
	_, ok = BestAo5(nil)
	assert.False(t, ok)
}

func TestSessionAverage(t *testing.T) {
	_, ok := SessionAverage(nil)
	assert.False(t, ok)

	avg, ok := SessionAverage(times(12340))
	require.True(t, ok)
	assert.Equal(t, Duration(12340), avg)

	avg, ok = SessionAverage(times(1000, 2001))
	require.True(t, ok)
	assert.Equal(t, Duration(1501), avg)

	plus := times(1000, 1000)
	plus[1].Penalty = PenaltyPlusTwo
	avg, ok = SessionAverage(plus)
	require.True(t, ok)
	assert.Equal(t, Duration(2000), avg)

	_, ok = SessionAverage(times(1000, -2000, 3000))
	assert.False(t, ok)
}

func TestRoundDiv(t *testing.T) {
	assert.Equal(t, int64(3), roundDiv(5, 2))
	assert.Equal(t, int64(-3), roundDiv(-5, 2))
	assert.Equal(t, int64(1), roundDiv(4, 3))
	assert.Equal(t, int64(2), roundDiv(5, 3))
	assert.Equal(t, int64(0), roundDiv(0, 7))
}

func TestComputeStats(t *testing.T) {
	snap := ComputeStats(nil)
	assert.Equal(t, 0, snap.Count)
	assert.False(t, snap.SessionAverage.Valid)
	assert.False(t, snap.BestSingle.Valid)
	assert.Equal(t, "-", snap.CurrentAo5.String())

	snap = ComputeStats(times(10000, 11000, 9500, -12000, 10500))
	assert.Equal(t, 5, snap.Count)
	assert.False(t, snap.SessionAverage.Valid)
	assert.Equal(t, Stat{Finite(10500), true}, snap.CurrentAo5)
	assert.Equal(t, Stat{Finite(10500), true}, snap.BestAo5)
	assert.False(t, snap.CurrentAo12.Valid)
	assert.Equal(t, Stat{Finite(9500), true}, snap.BestSingle)
	assert.Equal(t, Stat{DNF, true}, snap.WorstSingle)
	assert.Equal(t, "10.50", snap.CurrentAo5.String())
}

func TestComputeStatsAo12(t *testing.T) {
	log := times(10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 10000, 1000, -1)
	snap := ComputeStats(log)
	require.True(t, snap.CurrentAo12.Valid)
	assert.Equal(t, Finite(10000), snap.CurrentAo12.Value)
	assert.Equal(t, Stat{Finite(10000), true}, snap.BestAo12)

	log[0].Penalty = PenaltyDNF
	snap = ComputeStats(log)
	assert.Equal(t, Stat{DNF, true}, snap.CurrentAo12)
	assert.False(t, snap.BestAo12.Valid)
}

func TestAppendThenDeleteRestoresStats(t *testing.T) {
	l := NewSessionLog(times(10000, 11000, 9500, -12000, 10500, 9900))
	before := ComputeStats(l.Results())

	l.Append(Result{ID: "new", Raw: 5000})
	require.NotEqual(t, before, ComputeStats(l.Results()))

	_, _, err := l.Delete("new")
	require.NoError(t, err)
	assert.Equal(t, before, ComputeStats(l.Results()))
}
