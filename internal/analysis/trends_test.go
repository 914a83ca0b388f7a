package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeamusWaldron/cubetimer"
)

func result(id string, day, ms int, p cubetimer.Penalty) cubetimer.Result {
	return cubetimer.Result{
		ID:        id,
		Raw:       cubetimer.Duration(ms),
		Penalty:   p,
		Timestamp: time.Date(2026, 3, day, 12, 0, len(id), 0, time.Local),
	}
}

func TestAnalyzeTrendsEmpty(t *testing.T) {
	report := AnalyzeTrends(nil)
	assert.Zero(t, report.TotalSolves)
	assert.Nil(t, report.Best)
	assert.Empty(t, report.Days)
}

func TestAnalyzeTrends(t *testing.T) {
	results := []cubetimer.Result{
		result("a", 1, 10000, cubetimer.PenaltyNone),
		result("bb", 1, 12000, cubetimer.PenaltyNone),
		result("ccc", 1, 11000, cubetimer.PenaltyDNF),
		result("dddd", 2, 14000, cubetimer.PenaltyNone),
		result("eeeee", 2, 9000, cubetimer.PenaltyPlusTwo),
		result("ffffff", 2, 8000, cubetimer.PenaltyNone),
	}

	report := AnalyzeTrends(results)

	assert.Equal(t, 6, report.TotalSolves)
	assert.Equal(t, 5, report.CompletedSolves)
	assert.Equal(t, 1, report.DNFCount)
	assert.Equal(t, results[0].Timestamp, report.DateRange.Start)
	assert.Equal(t, results[5].Timestamp, report.DateRange.End)

	assert.InDelta(t, 11000, report.MeanMs, 0.001)
	assert.InDelta(t, 2000, report.StdDevMs, 0.001)
	assert.InDelta(t, 20, report.ImprovementPct, 0.001)
	assert.InDelta(t, 100-2000.0/11000*100, report.ConsistencyScore, 0.001)

	require.NotNil(t, report.Best)
	assert.Equal(t, "ffffff", report.Best.ID)
	assert.EqualValues(t, 8000, report.Best.EffectiveMs)
	require.NotNil(t, report.Worst)
	assert.Equal(t, "dddd", report.Worst.ID)

	assert.Equal(t, map[int]int64{5: 12333}, report.CurrentAverages)
	assert.Equal(t, map[int]int64{5: 12333}, report.BestAverages)

	require.Len(t, report.Days, 2)
	assert.Equal(t, DayStats{Date: "2026-03-01", Solves: 3, DNFs: 1, MeanMs: 11000, BestMs: 10000}, report.Days[0])
	assert.Equal(t, DayStats{Date: "2026-03-02", Solves: 3, MeanMs: 11000, BestMs: 8000}, report.Days[1])
}

func TestConsistencyClamps(t *testing.T) {
	assert.Equal(t, 100.0, consistency(10000, 0, 1))
	assert.Equal(t, 0.0, consistency(1000, 5000, 10))
}
