package cubetimer

// SessionLog is the ordered list of results of one session.
// Index order is insertion order is chronological order.
//
// SessionLog is not safe for concurrent use; it is owned by a Machine.
type SessionLog struct {
	results []Result

	// one-slot undo buffer for the last delete
	backup      *Result
	backupIndex int
}

// NewSessionLog creates a log resuming from the given results.
func NewSessionLog(initial []Result) *SessionLog {
	results := make([]Result, len(initial))
	copy(results, initial)
	return &SessionLog{results: results}
}

// Len returns the number of results.
func (l *SessionLog) Len() int {
	return len(l.results)
}

// Results returns a copy of the results in log order.
func (l *SessionLog) Results() []Result {
	out := make([]Result, len(l.results))
	copy(out, l.results)
	return out
}

// At returns the result at index i, reporting false when i is out of
// range.
func (l *SessionLog) At(i int) (Result, bool) {
	if i < 0 || i >= len(l.results) {
		return Result{}, false
	}
	return l.results[i], true
}

// Last returns the most recent result.
func (l *SessionLog) Last() (Result, bool) {
	if len(l.results) == 0 {
		return Result{}, false
	}
	return l.results[len(l.results)-1], true
}

// Find returns the index of the result with the given id, or -1.
func (l *SessionLog) Find(id string) int {
	for i := len(l.results) - 1; i >= 0; i-- {
		if l.results[i].ID == id {
			return i
		}
	}
	return -1
}

// Append adds a result at the end. It drops any pending undo backup.
func (l *SessionLog) Append(r Result) {
	l.backup = nil
	l.results = append(l.results, r)
}

// SetPenalty replaces the penalty of the result with the given id and
// returns the updated result.
func (l *SessionLog) SetPenalty(id string, p Penalty) (Result, error) {
	i := l.Find(id)
	if i < 0 {
		return Result{}, ErrResultNotFound
	}
	l.results[i] = l.results[i].WithPenalty(p)
	return l.results[i], nil
}

// Delete removes the result with the given id and keeps it as the undo
// backup. It returns the removed result and its former index.
func (l *SessionLog) Delete(id string) (Result, int, error) {
	i := l.Find(id)
	if i < 0 {
		return Result{}, -1, ErrResultNotFound
	}
	removed := l.results[i]
	l.results = append(l.results[:i], l.results[i+1:]...)
	l.backup = &removed
	l.backupIndex = i
	return removed, i, nil
}

// Restore reinserts the last deleted result at its former index.
func (l *SessionLog) Restore() (Result, int, error) {
	if l.backup == nil {
		return Result{}, -1, ErrNothingToRestore
	}
	r, i := *l.backup, l.backupIndex
	l.backup = nil
	if i > len(l.results) {
		i = len(l.results)
	}
	l.results = append(l.results, Result{})
	copy(l.results[i+1:], l.results[i:])
	l.results[i] = r
	return r, i, nil
}

// CanRestore reports whether a deleted result is waiting in the undo buffer.
func (l *SessionLog) CanRestore() bool {
	return l.backup != nil
}
