// README: Start/end time deviation on a 24-hour clock.
package matching

import (
	"encoding/json"
	"math"
)

// Deviation is an absolute time difference in hours. Known is false when either side's time is
// unspecified; Hours is then meaningless.
type Deviation struct {
	Hours float64
	Known bool
}

func (d Deviation) MarshalJSON() ([]byte, error) {
	if !d.Known {
		return []byte("null"), nil
	}
	return json.Marshal(math.Round(d.Hours*100) / 100)
}

// DeviationBetween is the shorter way round the clock between a and b.
func DeviationBetween(a, b ClockTime) Deviation {
	ta, okA := a.Get()
	tb, okB := b.Get()
	if !okA || !okB {
		return Deviation{}
	}
	diff := ta.Minutes() - tb.Minutes()
	if diff < 0 {
		diff = -diff
	}
	if diff > minutesPerDay/2 {
		diff = minutesPerDay - diff
	}
	return Deviation{Hours: float64(diff) / 60, Known: true}
}

// allows never fails an unknown deviation.
func (d Deviation) allows(limit Limit) bool {
	return !d.Known || limit.Allows(d.Hours)
}

type TimeOutcome struct {
	Start       Deviation
	End         Deviation
	StartPassed bool
	EndPassed   bool
	Passed      bool
}

// EvaluateTimes checks start and end deviations independently against their limits.
func EvaluateTimes(reqStart, reqEnd, candStart, candEnd ClockTime, maxStart, maxEnd Limit) TimeOutcome {
	out := TimeOutcome{
		Start: DeviationBetween(reqStart, candStart),
		End:   DeviationBetween(reqEnd, candEnd),
	}
	out.StartPassed = out.Start.allows(maxStart)
	out.EndPassed = out.End.allows(maxEnd)
	out.Passed = out.StartPassed && out.EndPassed
	return out
}
