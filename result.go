package cubetimer

import (
	"fmt"
	"strings"
	"time"
)

// Duration is a solve time in whole milliseconds.
// It is kept as an integer so that sums and comparisons are exact.
type Duration int64

// PlusTwoPenalty is the time added to a result marked +2.
const PlusTwoPenalty Duration = 2000

// DurationOf truncates a time.Duration to millisecond precision.
// Negative values clamp to zero.
func DurationOf(d time.Duration) Duration {
	if d < 0 {
		return 0
	}
	return Duration(d.Milliseconds())
}

// Millis returns the duration as a plain millisecond count.
func (d Duration) Millis() int64 {
	return int64(d)
}

// Std converts to a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d) * time.Millisecond
}

// String renders the duration with hundredths: "12.83", "1:04.20".
func (d Duration) String() string {
	return renderTime(d, true)
}

// FormatTenths renders the duration with a single decimal, as shown on the
// live display while the clock is running: "12.8", "1:04.2".
func (d Duration) FormatTenths() string {
	return renderTime(d, false)
}

func renderTime(d Duration, hundredths bool) string {
	if d < 0 {
		d = 0
	}
	rem := int64(d) / 10
	hunds := rem % 100
	rem /= 100
	secs := rem % 60
	mins := rem / 60

	if mins == 0 {
		if hundredths {
			return fmt.Sprintf("%d.%02d", secs, hunds)
		}
		return fmt.Sprintf("%d.%d", secs, hunds/10)
	}
	if hundredths {
		return fmt.Sprintf("%d:%02d.%02d", mins, secs, hunds)
	}
	return fmt.Sprintf("%d:%02d.%d", mins, secs, hunds/10)
}

// Penalty is the penalty attached to a single attempt.
type Penalty int

const (
	PenaltyNone Penalty = iota
	PenaltyPlusTwo
	PenaltyDNF
)

// String returns the short label used in listings and storage.
func (p Penalty) String() string {
	switch p {
	case PenaltyNone:
		return "none"
	case PenaltyPlusTwo:
		return "+2"
	case PenaltyDNF:
		return "dnf"
	default:
		return "unknown"
	}
}

// ParsePenalty parses the labels produced by Penalty.String.
// "ok", "" and "plus2" are accepted as aliases.
func ParsePenalty(s string) (Penalty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "ok", "":
		return PenaltyNone, nil
	case "+2", "plus2", "plustwo":
		return PenaltyPlusTwo, nil
	case "dnf":
		return PenaltyDNF, nil
	default:
		return PenaltyNone, fmt.Errorf("%w: %q", ErrInvalidPenalty, s)
	}
}

// Effective is the ranked value of an attempt: a finite time or DNF.
// Every DNF ranks worse than every finite time; two DNFs are equal.
type Effective struct {
	ms  Duration
	dnf bool
}

// DNF is the effective value of an attempt that did not finish.
var DNF = Effective{dnf: true}

// Finite wraps a finite duration.
func Finite(d Duration) Effective {
	return Effective{ms: d}
}

// IsDNF reports whether e is a DNF.
func (e Effective) IsDNF() bool {
	return e.dnf
}

// Duration returns the finite value. ok is false for a DNF.
func (e Effective) Duration() (d Duration, ok bool) {
	if e.dnf {
		return 0, false
	}
	return e.ms, true
}

// Compare returns -1 if e ranks better than o, +1 if worse, 0 if equal.
func (e Effective) Compare(o Effective) int {
	switch {
	case e.dnf && o.dnf:
		return 0
	case e.dnf:
		return 1
	case o.dnf:
		return -1
	case e.ms < o.ms:
		return -1
	case e.ms > o.ms:
		return 1
	default:
		return 0
	}
}

// Less reports whether e ranks strictly better than o.
func (e Effective) Less(o Effective) bool {
	return e.Compare(o) < 0
}

// String renders "DNF" or the finite time.
func (e Effective) String() string {
	if e.dnf {
		return "DNF"
	}
	return e.ms.String()
}

// Result is a single recorded attempt.
// Raw is fixed once recorded; only Penalty changes afterwards.
type Result struct {
	ID        string
	Raw       Duration
	Penalty   Penalty
	Scramble  string
	Timestamp time.Time
}

// Effective returns the ranked value of the attempt after its penalty.
func (r Result) Effective() Effective {
	switch r.Penalty {
	case PenaltyPlusTwo:
		return Finite(r.Raw + PlusTwoPenalty)
	case PenaltyDNF:
		return DNF
	default:
		return Finite(r.Raw)
	}
}

// WithPenalty returns a copy of r carrying p. Raw is untouched.
func (r Result) WithPenalty(p Penalty) Result {
	r.Penalty = p
	return r
}

// String renders the attempt as shown in a results list:
// "12.34", "14.34+" or "DNF(12.34)".
func (r Result) String() string {
	switch r.Penalty {
	case PenaltyPlusTwo:
		return (r.Raw + PlusTwoPenalty).String() + "+"
	case PenaltyDNF:
		return "DNF(" + r.Raw.String() + ")"
	default:
		return r.Raw.String()
	}
}
