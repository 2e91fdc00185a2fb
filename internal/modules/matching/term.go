// README: Month-granularity term ranges and their overlap classification.
package matching

import (
	"encoding/json"
	"fmt"
	"time"
)

// Month counts months since January of year 0. The zero value means "not set".
type Month int

func NewMonth(year int, m time.Month) Month {
	return Month(year*12 + int(m) - 1)
}

func MonthOf(t time.Time) Month {
	return NewMonth(t.Year(), t.Month())
}

// ParseMonth reads "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

func (m Month) Year() int {
	return int(m) / 12
}

func (m Month) Month() time.Month {
	return time.Month(int(m)%12 + 1)
}

// FirstDay returns the first day of the month in UTC.
func (m Month) FirstDay() time.Time {
	return time.Date(m.Year(), m.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year(), int(m.Month()))
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// MonthRange is an inclusive [Start, End] span of months.
type MonthRange struct {
	Start Month `json:"start"`
	End   Month `json:"end"`
}

func (r MonthRange) IsZero() bool {
	return r.Start == 0 && r.End == 0
}

type OverlapKind string

const (
	OverlapKindNone    OverlapKind = "none"
	OverlapKindPartial OverlapKind = "partial"
	OverlapKindFull    OverlapKind = "full"
)

// ClassifyOverlap reports Full when the candidate covers the requester's whole span, Partial when
// the ranges merely intersect. Boundary months count as shared.
func ClassifyOverlap(requester, candidate MonthRange) OverlapKind {
	if candidate.Start <= requester.Start && requester.End <= candidate.End {
		return OverlapKindFull
	}
	if requester.Start <= candidate.End && candidate.Start <= requester.End {
		return OverlapKindPartial
	}
	return OverlapKindNone
}

type TermOutcome struct {
	Kind   OverlapKind
	Passed bool
}

func EvaluateTerm(requester, candidate MonthRange, mode OverlapMode) TermOutcome {
	kind := ClassifyOverlap(requester, candidate)
	out := TermOutcome{Kind: kind}
	switch mode {
	case OverlapPartial:
		out.Passed = kind != OverlapKindNone
	case OverlapFull:
		out.Passed = kind == OverlapKindFull
	default:
		out.Passed = true
	}
	return out
}
