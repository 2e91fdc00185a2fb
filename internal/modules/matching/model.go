// README: Commute profiles, filter specs and match results for the compatibility engine.
package matching

import (
	"errors"
	"fmt"

	"carpool/internal/types"
)

var ErrInvalidProfile = errors.New("invalid profile")

type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
	// RoleViewer browses without ever being offered as a candidate.
	RoleViewer Role = "VIEWER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleRider, RoleDriver, RoleViewer:
		return true
	}
	return false
}

// CommuteProfile is an immutable snapshot of one user's commute.
type CommuteProfile struct {
	ID        types.ID
	Role      Role
	Start     types.Point
	End       types.Point
	Days      DaySet
	StartTime ClockTime
	EndTime   ClockTime
	Term      MonthRange
}

// ValidateProfile rejects snapshots that break the profile invariants.
func ValidateProfile(p CommuteProfile) error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidProfile)
	case p.Days.Len() == 0:
		return fmt.Errorf("%w: %s has no working days", ErrInvalidProfile, p.ID)
	case !p.Start.Valid():
		return fmt.Errorf("%w: %s start coordinates %s out of range", ErrInvalidProfile, p.ID, p.Start)
	case !p.End.Valid():
		return fmt.Errorf("%w: %s end coordinates %s out of range", ErrInvalidProfile, p.ID, p.End)
	case p.Term.Start > p.Term.End:
		return fmt.Errorf("%w: %s term starts %s after it ends %s", ErrInvalidProfile, p.ID, p.Term.Start, p.Term.End)
	}
	return nil
}

// IDSet is a membership set of profile ids supplied by the social graph.
type IDSet map[types.ID]struct{}

func NewIDSet(ids ...types.ID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id types.ID) bool {
	_, ok := s[id]
	return ok
}

type DayMode int

const (
	DayModeAny DayMode = iota
	DayModeExact
	DayModeFlex
)

type OverlapMode int

const (
	OverlapAny OverlapMode = iota
	OverlapPartial
	OverlapFull
)

type Strategy string

const (
	SortRecommended Strategy = "recommended"
	SortDistance    Strategy = "distance"
	SortTime        Strategy = "time"
)

func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case SortRecommended, SortDistance, SortTime:
		return Strategy(s), true
	case "":
		return SortRecommended, true
	}
	return "", false
}

// FilterSpec is built by the caller for one matching request.
type FilterSpec struct {
	MaxStartDistance  Limit
	MaxEndDistance    Limit
	DayMode           DayMode
	MinSharedDays     int
	MaxStartDeviation Limit
	MaxEndDeviation   Limit
	DateOverlap       OverlapMode
	FavoritesOnly     bool
	MessagedOnly      bool

	// Days and Term replace the requester's own values when set.
	Days DaySet
	Term MonthRange
}

// DefaultFilterSpec disables every check.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		MaxStartDistance:  Unbounded(),
		MaxEndDistance:    Unbounded(),
		DayMode:           DayModeAny,
		MinSharedDays:     1,
		MaxStartDeviation: Unbounded(),
		MaxEndDeviation:   Unbounded(),
		DateOverlap:       OverlapAny,
	}
}

// Check names one filter dimension a candidate can fail.
type Check string

const (
	CheckStartDistance Check = "start_distance"
	CheckEndDistance   Check = "end_distance"
	CheckDays          Check = "days"
	CheckStartTime     Check = "start_time"
	CheckEndTime       Check = "end_time"
	CheckTerm          Check = "term"
	CheckFavorites     Check = "favorites"
	CheckMessaged      Check = "messaged"
	CheckProfile       Check = "profile"
)

// MatchResult explains how one candidate compares to the requester.
type MatchResult struct {
	CandidateID    types.ID    `json:"candidate_id"`
	StartDistance  float64     `json:"start_distance"`
	EndDistance    float64     `json:"end_distance"`
	SharedDayCount int         `json:"shared_day_count"`
	StartDeviation Deviation   `json:"start_deviation"`
	EndDeviation   Deviation   `json:"end_deviation"`
	DateOverlap    OverlapKind `json:"date_overlap"`
	Passed         bool        `json:"passed"`
	Failed         []Check     `json:"failed,omitempty"`
	Invalid        string      `json:"invalid,omitempty"`
	Score          *float64    `json:"score,omitempty"`
}
