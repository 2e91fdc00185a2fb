package matching

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"carpool/internal/types"
)

var (
	downtownSJ = types.Point{Lat: 37.3382, Lng: -121.8863}
	paloAlto   = types.Point{Lat: 37.4419, Lng: -122.1430}
)

func profile(t *testing.T, id string, days DaySet, start string) CommuteProfile {
	t.Helper()
	p := CommuteProfile{
		ID:      types.ID(id),
		Role:    RoleRider,
		Start:   downtownSJ,
		End:     paloAlto,
		Days:    days,
		EndTime: Unspecified(),
		Term:    months(t, "2024-01", "2024-06"),
	}
	if start == "" {
		p.StartTime = Unspecified()
	} else {
		p.StartTime = clock(t, start)
	}
	return p
}

func TestApply_Scenario(t *testing.T) {
	requester := profile(t, "req", monWedFri, "08:00")
	requester.Role = RoleDriver

	a := profile(t, "a", monWedFri, "08:30")
	a.Term = months(t, "2024-03", "2024-09")
	b := profile(t, "b", monWed, "08:15")

	spec := DefaultFilterSpec()
	spec.DayMode = DayModeExact
	spec.MaxStartDeviation = Bounded(1)
	spec.DateOverlap = OverlapPartial

	results, err := Apply(requester, []CommuteProfile{a, b}, spec, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !results[0].Passed || results[0].CandidateID != "a" {
		t.Errorf("candidate a should pass: %+v", results[0])
	}
	if results[0].DateOverlap != OverlapKindPartial || results[0].SharedDayCount != 3 {
		t.Errorf("candidate a diagnostics: %+v", results[0])
	}
	if results[1].Passed {
		t.Errorf("candidate b should fail: %+v", results[1])
	}
	if !slices.Equal(results[1].Failed, []Check{CheckDays}) {
		t.Errorf("candidate b should fail only on days, got %v", results[1].Failed)
	}
	if !results[1].StartDeviation.Known || results[1].StartDeviation.Hours != 0.25 {
		t.Errorf("candidate b deviation still reported: %+v", results[1].StartDeviation)
	}
}

func TestApply_InvalidRequester(t *testing.T) {
	requester := profile(t, "req", 0, "08:00")
	_, err := Apply(requester, nil, DefaultFilterSpec(), nil, nil)
	if !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestApply_InvalidCandidateDoesNotAbort(t *testing.T) {
	requester := profile(t, "req", monWedFri, "08:00")
	bad := profile(t, "bad", monWedFri, "08:00")
	bad.Start = types.Point{Lat: 91, Lng: 0}
	reversed := profile(t, "reversed", monWedFri, "08:00")
	reversed.Term = MonthRange{Start: NewMonth(2024, time.June), End: NewMonth(2024, time.January)}
	good := profile(t, "good", monWedFri, "08:00")

	results, err := Apply(requester, []CommuteProfile{bad, reversed, good}, DefaultFilterSpec(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results[:2] {
		if r.Passed || r.Invalid == "" || !slices.Equal(r.Failed, []Check{CheckProfile}) {
			t.Errorf("%s should be flagged invalid: %+v", r.CandidateID, r)
		}
	}
	if !results[2].Passed {
		t.Errorf("good candidate should pass: %+v", results[2])
	}
}

func TestApply_UnknownTimeNeverFails(t *testing.T) {
	requester := profile(t, "req", monWedFri, "06:00")
	cand := profile(t, "c", monWedFri, "")

	spec := DefaultFilterSpec()
	spec.MaxStartDeviation = Bounded(0)
	spec.MaxEndDeviation = Bounded(0)

	results, err := Apply(requester, []CommuteProfile{cand}, spec, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].Passed {
		t.Errorf("unknown time should pass: %+v", results[0])
	}
}

func TestApply_DistanceAndSocialFilters(t *testing.T) {
	requester := profile(t, "req", monWedFri, "08:00")
	near := profile(t, "near", monWedFri, "08:00")
	far := profile(t, "far", monWedFri, "08:00")
	far.Start = types.Point{Lat: 37.7749, Lng: -122.4194}

	spec := DefaultFilterSpec()
	spec.MaxStartDistance = Bounded(5)
	spec.FavoritesOnly = true
	spec.MessagedOnly = true

	results, err := Apply(requester, []CommuteProfile{near, far}, spec, NewIDSet("near"), NewIDSet("far"))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(results[0].Failed, []Check{CheckMessaged}) {
		t.Errorf("near: failed = %v", results[0].Failed)
	}
	if !slices.Equal(results[1].Failed, []Check{CheckStartDistance, CheckFavorites}) {
		t.Errorf("far: failed = %v", results[1].Failed)
	}
}

func TestApply_FilterOverridesRequester(t *testing.T) {
	requester := profile(t, "req", monWedFri, "08:00")
	cand := profile(t, "c", monWed, "08:00")
	cand.Term = months(t, "2024-09", "2024-12")

	spec := DefaultFilterSpec()
	spec.DayMode = DayModeExact
	spec.DateOverlap = OverlapFull
	spec.Days = monWed
	spec.Term = months(t, "2024-10", "2024-11")

	results, err := Apply(requester, []CommuteProfile{cand}, spec, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].Passed {
		t.Errorf("filter-level days and term should apply: %+v", results[0])
	}
}

func TestApplyParallel_MatchesApply(t *testing.T) {
	requester := profile(t, "req", monWedFri, "08:00")
	var cands []CommuteProfile
	for i := 0; i < 50; i++ {
		days := monWedFri
		if i%3 == 0 {
			days = monWed
		}
		c := profile(t, fmt.Sprintf("c%02d", i), days, fmt.Sprintf("%02d:00", i%24))
		cands = append(cands, c)
	}
	spec := DefaultFilterSpec()
	spec.DayMode = DayModeExact
	spec.MaxStartDeviation = Bounded(2)

	want, err := Apply(requester, cands, spec, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ApplyParallel(context.Background(), requester, cands, spec, nil, nil, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].CandidateID != want[i].CandidateID || got[i].Passed != want[i].Passed {
			t.Errorf("result %d differs: %+v vs %+v", i, got[i], want[i])
		}
	}
}

func TestApplyParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	requester := profile(t, "req", monWedFri, "08:00")
	cands := []CommuteProfile{profile(t, "a", monWedFri, "08:00")}
	if _, err := ApplyParallel(ctx, requester, cands, DefaultFilterSpec(), nil, nil, 2); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
