// README: Ranking of passed match results by the caller-selected strategy.
package matching

import (
	"sort"
)

const (
	// Reference scales for the recommended score: the distance and deviation slider maxima.
	referenceMiles = 20.0
	referenceHours = 4.0
)

// Weights tune the recommended score. Distance and Time weights make a result worse as they grow,
// Days makes it better.
type Weights struct {
	Distance float64
	Time     float64
	Days     float64
}

func DefaultWeights() Weights {
	return Weights{Distance: 0.5, Time: 0.3, Days: 0.2}
}

// Score is lower-is-better. An unknown deviation counts as the reference maximum.
func Score(r MatchResult, w Weights) float64 {
	dist := (r.StartDistance + r.EndDistance) / (2 * referenceMiles)
	dev := (scoringHours(r.StartDeviation) + scoringHours(r.EndDeviation)) / (2 * referenceHours)
	days := float64(r.SharedDayCount) / 7
	return w.Distance*dist + w.Time*dev - w.Days*days
}

func scoringHours(d Deviation) float64 {
	if !d.Known {
		return referenceHours
	}
	return d.Hours
}

// Rank returns the passed results ordered by strategy. Ties fall back to candidate id so the output
// is reproducible. An empty or unknown strategy ranks as recommended. The input slice is not modified.
func Rank(results []MatchResult, strategy Strategy, w Weights) []MatchResult {
	if strategy != SortDistance && strategy != SortTime {
		strategy = SortRecommended
	}
	out := make([]MatchResult, 0, len(results))
	for _, r := range results {
		if !r.Passed {
			continue
		}
		r.Score = nil
		if strategy == SortRecommended {
			s := Score(r, w)
			r.Score = &s
		}
		out = append(out, r)
	}

	var less func(a, b MatchResult) (bool, bool)
	switch strategy {
	case SortDistance:
		less = func(a, b MatchResult) (bool, bool) {
			da, db := a.StartDistance+a.EndDistance, b.StartDistance+b.EndDistance
			return da < db, da == db
		}
	case SortTime:
		less = byDeviation
	default:
		less = func(a, b MatchResult) (bool, bool) {
			return *a.Score < *b.Score, *a.Score == *b.Score
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		lt, eq := less(out[i], out[j])
		if eq {
			return out[i].CandidateID < out[j].CandidateID
		}
		return lt
	})
	return out
}

// byDeviation puts results with any unknown side after all fully known ones.
func byDeviation(a, b MatchResult) (bool, bool) {
	ka := a.StartDeviation.Known && a.EndDeviation.Known
	kb := b.StartDeviation.Known && b.EndDeviation.Known
	if ka != kb {
		return ka, false
	}
	if !ka {
		return false, true
	}
	sa := a.StartDeviation.Hours + a.EndDeviation.Hours
	sb := b.StartDeviation.Hours + b.EndDeviation.Hours
	return sa < sb, sa == sb
}
