// Package analysis computes progress trends across a session's results.
package analysis

import (
	"math"
	"time"

	"github.com/SeamusWaldron/cubetimer"
)

// RollingWindows are the average sizes reported in a TrendReport.
var RollingWindows = []int{5, 12, 50, 100}

// TrendReport summarizes how a session has developed over time.
type TrendReport struct {
	TotalSolves     int       `json:"total_solves"`
	CompletedSolves int       `json:"completed_solves"`
	DNFCount        int       `json:"dnf_count"`
	DateRange       DateRange `json:"date_range"`

	MeanMs   float64 `json:"mean_ms"`
	StdDevMs float64 `json:"stddev_ms"`

	Best  *SolveStats `json:"best_solve,omitempty"`
	Worst *SolveStats `json:"worst_solve,omitempty"`

	// ImprovementPct compares the first quarter of completed solves to the
	// last; negative means slower.
	ImprovementPct float64 `json:"improvement_pct"`
	// ConsistencyScore is 100 minus the coefficient of variation in percent,
	// clamped to 0..100.
	ConsistencyScore float64 `json:"consistency_score"`

	// Current and best trimmed averages by window size, in milliseconds.
	// Windows that are absent or DNF are omitted.
	CurrentAverages map[int]int64 `json:"current_averages"`
	BestAverages    map[int]int64 `json:"best_averages"`

	Days []DayStats `json:"days"`
}

// DateRange is the span of recorded results.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SolveStats identifies one result in a report.
type SolveStats struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	EffectiveMs int64     `json:"effective_ms"`
}

// DayStats groups results by local calendar day.
type DayStats struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Solves int     `json:"solves"`
	DNFs   int     `json:"dnfs"`
	MeanMs float64 `json:"mean_ms"` // over completed solves
	BestMs int64   `json:"best_ms"`
}

// AnalyzeTrends builds a report from results in log order.
func AnalyzeTrends(results []cubetimer.Result) *TrendReport {
	report := &TrendReport{
		TotalSolves:     len(results),
		CurrentAverages: make(map[int]int64),
		BestAverages:    make(map[int]int64),
	}
	if len(results) == 0 {
		return report
	}

	report.DateRange = DateRange{Start: results[0].Timestamp, End: results[0].Timestamp}

	var completed []int64
	for _, r := range results {
		if r.Timestamp.Before(report.DateRange.Start) {
			report.DateRange.Start = r.Timestamp
		}
		if r.Timestamp.After(report.DateRange.End) {
			report.DateRange.End = r.Timestamp
		}

		d, ok := r.Effective().Duration()
		if !ok {
			report.DNFCount++
			continue
		}
		ms := d.Millis()
		completed = append(completed, ms)

		if report.Best == nil || ms < report.Best.EffectiveMs {
			report.Best = &SolveStats{ID: r.ID, Timestamp: r.Timestamp, EffectiveMs: ms}
		}
		if report.Worst == nil || ms > report.Worst.EffectiveMs {
			report.Worst = &SolveStats{ID: r.ID, Timestamp: r.Timestamp, EffectiveMs: ms}
		}
	}
	report.CompletedSolves = len(completed)

	report.MeanMs, report.StdDevMs = meanStdDev(completed)
	report.ImprovementPct = improvement(completed)
	report.ConsistencyScore = consistency(report.MeanMs, report.StdDevMs, len(completed))

	for _, n := range RollingWindows {
		if avg, ok := cubetimer.CurrentAverage(results, n); ok {
			if d, finite := avg.Duration(); finite {
				report.CurrentAverages[n] = d.Millis()
			}
		}
		if best, ok := cubetimer.BestAverage(results, n); ok {
			report.BestAverages[n] = best.Millis()
		}
	}

	report.Days = byDay(results)
	return report
}

func meanStdDev(ms []int64) (mean, stddev float64) {
	if len(ms) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range ms {
		sum += float64(v)
	}
	mean = sum / float64(len(ms))

	var sq float64
	for _, v := range ms {
		diff := float64(v) - mean
		sq += diff * diff
	}
	return mean, math.Sqrt(sq / float64(len(ms)))
}

// improvement compares the mean of the first quarter to the last quarter.
func improvement(ms []int64) float64 {
	if len(ms) < 4 {
		return 0
	}
	q := len(ms) / 4
	first, _ := meanStdDev(ms[:q])
	last, _ := meanStdDev(ms[len(ms)-q:])
	if first <= 0 {
		return 0
	}
	return (first - last) / first * 100
}

func consistency(mean, stddev float64, n int) float64 {
	if n < 2 || mean <= 0 {
		return 100
	}
	score := 100 - stddev/mean*100
	return math.Max(0, math.Min(100, score))
}

func byDay(results []cubetimer.Result) []DayStats {
	var days []DayStats
	var sum float64
	for _, r := range results {
		date := r.Timestamp.Local().Format(time.DateOnly)
		if len(days) == 0 || days[len(days)-1].Date != date {
			sum = 0
			days = append(days, DayStats{Date: date})
		}
		day := &days[len(days)-1]
		day.Solves++

		d, ok := r.Effective().Duration()
		if !ok {
			day.DNFs++
			continue
		}
		completed := day.Solves - day.DNFs
		sum += float64(d.Millis())
		day.MeanMs = sum / float64(completed)
		if completed == 1 || d.Millis() < day.BestMs {
			day.BestMs = d.Millis()
		}
	}
	return days
}
