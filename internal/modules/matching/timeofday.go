// README: Time-of-day normalization so commute times from different zones compare directly.
package matching

import (
	"encoding/json"
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

// anchorDate is a placeholder day for storing a TimeOfDay as a timestamp. Only hour and minute matter.
var anchorDate = time.Date(2022, time.February, 2, 0, 0, 0, 0, time.UTC)

// TimeOfDay is a UTC hour/minute pair with no calendar date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func timeOfDayFromMinutes(m int) TimeOfDay {
	m = ((m % minutesPerDay) + minutesPerDay) % minutesPerDay
	return TimeOfDay{Hour: m / 60, Minute: m % 60}
}

// Normalize converts a wall-clock time to UTC time-of-day. toUTC is the signed shift that takes the
// source zone's wall clock to UTC, at minute granularity; the result wraps around midnight.
func Normalize(local time.Time, toUTC time.Duration) TimeOfDay {
	m := local.Hour()*60 + local.Minute() + int(toUTC/time.Minute)
	return timeOfDayFromMinutes(m)
}

// NormalizeIn normalizes local using the UTC offset of its own location. The shift is the negated
// offset, so 08:00 EST (UTC-5) becomes 13:00 UTC, not hour+offset.
func NormalizeIn(local time.Time) TimeOfDay {
	_, offset := local.Zone()
	return Normalize(local, -time.Duration(offset)*time.Second)
}

// ParseTimeOfDay reads "HH:MM" in 24-hour form.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Time anchors t to the placeholder date in UTC.
func (t TimeOfDay) Time() time.Time {
	return anchorDate.Add(time.Duration(t.Minutes()) * time.Minute)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// ClockTime is a commute time that may be unspecified ("time differs daily").
type ClockTime struct {
	tod   TimeOfDay
	known bool
}

func Known(t TimeOfDay) ClockTime {
	return ClockTime{tod: t, known: true}
}

func Unspecified() ClockTime {
	return ClockTime{}
}

func (c ClockTime) Get() (TimeOfDay, bool) {
	return c.tod, c.known
}

func (c ClockTime) String() string {
	if !c.known {
		return "unspecified"
	}
	return c.tod.String()
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	if !c.known {
		return []byte("null"), nil
	}
	return json.Marshal(c.tod.String())
}
