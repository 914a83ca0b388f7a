package cubetimer

// Stat is an optional statistic. Valid is false when there are not enough
// results to compute it.
type Stat struct {
	Value Effective
	Valid bool
}

func stat(v Effective, ok bool) Stat {
	return Stat{Value: v, Valid: ok}
}

// String renders "-" for an absent statistic.
func (s Stat) String() string {
	if !s.Valid {
		return "-"
	}
	return s.Value.String()
}

// StatsSnapshot is the read-only view of a session's statistics.
// It is always a pure function of the log contents.
type StatsSnapshot struct {
	Count          int
	SessionAverage Stat
	CurrentAo5     Stat
	BestAo5        Stat
	CurrentAo12    Stat
	BestAo12       Stat
	BestSingle     Stat
	WorstSingle    Stat
}

// ComputeStats recomputes every statistic from the results in log order.
func ComputeStats(results []Result) StatsSnapshot {
	snap := StatsSnapshot{Count: len(results)}

	if d, ok := SessionAverage(results); ok {
		snap.SessionAverage = stat(Finite(d), true)
	}
	snap.CurrentAo5 = stat(CurrentAverage(results, 5))
	if d, ok := BestAverage(results, 5); ok {
		snap.BestAo5 = stat(Finite(d), true)
	}
	snap.CurrentAo12 = stat(CurrentAverage(results, 12))
	if d, ok := BestAverage(results, 12); ok {
		snap.BestAo12 = stat(Finite(d), true)
	}

	for i, r := range results {
		e := r.Effective()
		if i == 0 || e.Less(snap.BestSingle.Value) {
			snap.BestSingle = stat(e, true)
		}
		if i == 0 || snap.WorstSingle.Value.Less(e) {
			snap.WorstSingle = stat(e, true)
		}
	}

	return snap
}

// AverageOf5 computes the competition average of exactly five results:
// the single best and single worst are discarded and the remaining three
// are averaged. ok is false unless the window holds exactly five results.
func AverageOf5(window []Result) (avg Effective, ok bool) {
	if len(window) != 5 {
		return Effective{}, false
	}
	return trimmedMean(window), true
}

// CurrentAverage is the trimmed average of the trailing n results.
func CurrentAverage(results []Result, n int) (Effective, bool) {
	if n < 3 || len(results) < n {
		return Effective{}, false
	}
	return trimmedMean(results[len(results)-n:]), true
}

// CurrentAo5 is the average of the five most recent results.
func CurrentAo5(results []Result) (Effective, bool) {
	return CurrentAverage(results, 5)
}

// BestAverage returns the best finite trimmed average over every window of
// n consecutive results. DNF windows are skipped; ok is false if no window
// has a finite average.
func BestAverage(results []Result, n int) (best Duration, ok bool) {
	if n < 3 {
		return 0, false
	}
	for start := 0; start+n <= len(results); start++ {
		d, finite := trimmedMean(results[start : start+n]).Duration()
		if !finite {
			continue
		}
		if !ok || d < best {
			best, ok = d, true
		}
	}
	return best, ok
}

// BestAo5 is the best finite average of five over the whole log.
func BestAo5(results []Result) (Duration, bool) {
	return BestAverage(results, 5)
}

// SessionAverage is the plain mean of every effective duration.
// Any DNF in the log makes it absent, as does an empty log.
func SessionAverage(results []Result) (Duration, bool) {
	if len(results) == 0 {
		return 0, false
	}
	var sum int64
	for _, r := range results {
		d, ok := r.Effective().Duration()
		if !ok {
			return 0, false
		}
		sum += int64(d)
	}
	return Duration(roundDiv(sum, int64(len(results)))), true
}

// trimmedMean drops one best and one worst result (first occurrence on
// ties) and averages the rest. More than one DNF yields DNF.
func trimmedMean(window []Result) Effective {
	values := make([]Effective, len(window))
	for i, r := range window {
		values[i] = r.Effective()
	}

	bestIdx := 0
	for i := 1; i < len(values); i++ {
		if values[i].Less(values[bestIdx]) {
			bestIdx = i
		}
	}
	worstIdx := -1
	for i := range values {
		if i == bestIdx {
			continue
		}
		if worstIdx < 0 || values[worstIdx].Less(values[i]) {
			worstIdx = i
		}
	}

	var sum int64
	for i, v := range values {
		if i == bestIdx || i == worstIdx {
			continue
		}
		d, ok := v.Duration()
		if !ok {
			return DNF
		}
		sum += int64(d)
	}
	return Finite(Duration(roundDiv(sum, int64(len(values)-2))))
}

// roundDiv divides rounding half away from zero.
func roundDiv(sum, n int64) int64 {
	if sum < 0 {
		return -((-sum*2 + n) / (2 * n))
	}
	return (sum*2 + n) / (2 * n)
}
