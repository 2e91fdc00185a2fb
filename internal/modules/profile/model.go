// README: Persisted commute profile and the raw input used to create or edit it.
package profile

import (
	"time"

	"carpool/internal/modules/matching"
	"carpool/internal/types"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

type Profile struct {
	ID            types.ID            `json:"id"`
	Name          string              `json:"name"`
	PreferredName string              `json:"preferred_name"`
	Role          matching.Role       `json:"role"`
	Status        Status              `json:"status"`
	SeatAvail     int                 `json:"seat_avail"`
	StartAddress  string              `json:"start_address"`
	EndAddress    string              `json:"end_address"`
	Start         types.Point         `json:"start"`
	End           types.Point         `json:"end"`
	Days          matching.DaySet     `json:"days"`
	StartTime     matching.ClockTime  `json:"start_time"`
	EndTime       matching.ClockTime  `json:"end_time"`
	TimeZone      string              `json:"time_zone"`
	Term          matching.MonthRange `json:"term"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Commute is the snapshot the matching engine evaluates.
func (p Profile) Commute() matching.CommuteProfile {
	return matching.CommuteProfile{
		ID:        p.ID,
		Role:      p.Role,
		Start:     p.Start,
		End:       p.End,
		Days:      p.Days,
		StartTime: p.StartTime,
		EndTime:   p.EndTime,
		Term:      p.Term,
	}
}

// EligibleFor reports whether p may be offered to requester. Viewers and inactive profiles are never
// offered; a viewer requester sees both riders and drivers, everyone else only the opposite role.
func (p Profile) EligibleFor(requester Profile) bool {
	if p.ID == requester.ID || p.Status != StatusActive || p.Role == matching.RoleViewer {
		return false
	}
	return requester.Role == matching.RoleViewer || p.Role != requester.Role
}

// UpsertCommand is the user's raw input. Times are local "HH:MM" in TimeZone; an empty time means it
// differs daily. Months are "YYYY-MM". Coordinates are geocoded from the address when missing.
type UpsertCommand struct {
	UserID        types.ID
	Name          string
	PreferredName string
	Role          string
	SeatAvail     int
	StartAddress  string
	EndAddress    string
	Start         *types.Point
	End           *types.Point
	Days          []bool
	StartTime     string
	EndTime       string
	TimeZone      string
	TermStart     string
	TermEnd       string
}
