// README: Filter engine combining every evaluator into one pass/fail result per candidate.
package matching

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Apply evaluates every candidate against the requester. Results keep input order and are populated
// in full even when a candidate fails. A malformed candidate yields a failed result flagged Invalid;
// only a malformed requester aborts the batch.
func Apply(requester CommuteProfile, candidates []CommuteProfile, spec FilterSpec, favorited, messaged IDSet) ([]MatchResult, error) {
	if err := ValidateProfile(requester); err != nil {
		return nil, fmt.Errorf("requester: %w", err)
	}
	ref := effectiveRequester(requester, spec)
	out := make([]MatchResult, len(candidates))
	for i, c := range candidates {
		out[i] = evaluate(ref, c, spec, favorited, messaged)
	}
	return out, nil
}

// ApplyParallel is Apply spread across at most workers goroutines.
func ApplyParallel(ctx context.Context, requester CommuteProfile, candidates []CommuteProfile, spec FilterSpec, favorited, messaged IDSet, workers int) ([]MatchResult, error) {
	if err := ValidateProfile(requester); err != nil {
		return nil, fmt.Errorf("requester: %w", err)
	}
	ref := effectiveRequester(requester, spec)
	out := make([]MatchResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range candidates {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = evaluate(ref, candidates[i], spec, favorited, messaged)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// effectiveRequester applies the filter's day and term selections over the requester's own.
func effectiveRequester(r CommuteProfile, spec FilterSpec) CommuteProfile {
	if spec.Days.Len() > 0 {
		r.Days = spec.Days
	}
	if !spec.Term.IsZero() {
		r.Term = spec.Term
	}
	return r
}

func evaluate(r, c CommuteProfile, spec FilterSpec, favorited, messaged IDSet) MatchResult {
	res := MatchResult{CandidateID: c.ID}
	if err := ValidateProfile(c); err != nil {
		res.Invalid = err.Error()
		res.Failed = []Check{CheckProfile}
		return res
	}

	res.StartDistance = Distance(r.Start, c.Start)
	res.EndDistance = Distance(r.End, c.End)
	if !WithinRange(res.StartDistance, spec.MaxStartDistance) {
		res.Failed = append(res.Failed, CheckStartDistance)
	}
	if !WithinRange(res.EndDistance, spec.MaxEndDistance) {
		res.Failed = append(res.Failed, CheckEndDistance)
	}

	days := EvaluateDays(r.Days, c.Days, spec.DayMode, spec.MinSharedDays)
	res.SharedDayCount = days.SharedDays
	if !days.Passed {
		res.Failed = append(res.Failed, CheckDays)
	}

	times := EvaluateTimes(r.StartTime, r.EndTime, c.StartTime, c.EndTime, spec.MaxStartDeviation, spec.MaxEndDeviation)
	res.StartDeviation = times.Start
	res.EndDeviation = times.End
	if !times.StartPassed {
		res.Failed = append(res.Failed, CheckStartTime)
	}
	if !times.EndPassed {
		res.Failed = append(res.Failed, CheckEndTime)
	}

	term := EvaluateTerm(r.Term, c.Term, spec.DateOverlap)
	res.DateOverlap = term.Kind
	if !term.Passed {
		res.Failed = append(res.Failed, CheckTerm)
	}

	if spec.FavoritesOnly && !favorited.Has(c.ID) {
		res.Failed = append(res.Failed, CheckFavorites)
	}
	if spec.MessagedOnly && !messaged.Has(c.ID) {
		res.Failed = append(res.Failed, CheckMessaged)
	}

	res.Passed = len(res.Failed) == 0
	return res
}
