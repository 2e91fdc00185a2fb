// README: Weekly working-day sets and day-of-week overlap evaluation.
package matching

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"
	"time"
)

// DaySet is a set of weekdays; bit i holds time.Weekday(i).
type DaySet uint8

const allDays DaySet = 1<<7 - 1

var dayAbbrev = [7]string{"Su", "M", "Tu", "W", "Th", "F", "S"}

func NewDaySet(days ...time.Weekday) DaySet {
	var s DaySet
	for _, d := range days {
		s = s.Add(d)
	}
	return s
}

// DaySetFromFlags reads up to seven Sunday-first flags.
func DaySetFromFlags(flags []bool) DaySet {
	var s DaySet
	for i, on := range flags {
		if i >= 7 {
			break
		}
		if on {
			s |= 1 << i
		}
	}
	return s
}

// ParseDayFlags reads the comma-joined "1"/"0" form, e.g. "0,1,0,1,0,1,0".
func ParseDayFlags(s string) (DaySet, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 7 {
		return 0, fmt.Errorf("day flags %q: want 7 entries, got %d", s, len(parts))
	}
	flags := make([]bool, 7)
	for i, p := range parts {
		switch strings.TrimSpace(p) {
		case "1":
			flags[i] = true
		case "0":
		default:
			return 0, fmt.Errorf("day flags %q: bad entry %q", s, p)
		}
	}
	return DaySetFromFlags(flags), nil
}

func (s DaySet) Add(d time.Weekday) DaySet {
	return (s | 1<<uint(d)) & allDays
}

func (s DaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

func (s DaySet) Len() int {
	return bits.OnesCount8(uint8(s & allDays))
}

func (s DaySet) Intersect(o DaySet) DaySet {
	return s & o & allDays
}

func (s DaySet) Days() []time.Weekday {
	out := make([]time.Weekday, 0, s.Len())
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s DaySet) Flags() []bool {
	flags := make([]bool, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		flags[d] = s.Has(d)
	}
	return flags
}

func (s DaySet) String() string {
	names := make([]string, 0, s.Len())
	for _, d := range s.Days() {
		names = append(names, dayAbbrev[d])
	}
	return strings.Join(names, ",")
}

func (s DaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Flags())
}

type DayOutcome struct {
	SharedDays int
	Passed     bool
}

// EvaluateDays compares two working-day sets under mode. minShared only applies to DayModeFlex and is
// clamped into [1, |requester|].
func EvaluateDays(requester, candidate DaySet, mode DayMode, minShared int) DayOutcome {
	shared := requester.Intersect(candidate).Len()
	out := DayOutcome{SharedDays: shared}
	switch mode {
	case DayModeExact:
		out.Passed = requester&allDays == candidate&allDays
	case DayModeFlex:
		out.Passed = shared >= clampShared(minShared, requester.Len())
	default:
		out.Passed = true
	}
	return out
}

func clampShared(minShared, requesterDays int) int {
	if minShared > requesterDays {
		minShared = requesterDays
	}
	if minShared < 1 {
		minShared = 1
	}
	return minShared
}
