// README: Straight-line proximity helpers and filter thresholds.
package matching

import (
	"math"

	"carpool/internal/types"
)

const earthRadiusMiles = 3958.8

// Distance returns the great-circle distance in miles between two points.
func Distance(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMiles * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// WithinRange reports whether distance is inside limit. Unbounded always passes.
func WithinRange(distance float64, limit Limit) bool {
	return limit.Allows(distance)
}

// Limit is a filter threshold that may be switched off.
type Limit struct {
	max     float64
	bounded bool
}

func Bounded(n float64) Limit {
	return Limit{max: n, bounded: true}
}

func Unbounded() Limit {
	return Limit{}
}

// SliderLimit maps a slider position to a Limit; the slider's maximum means "no cap".
func SliderLimit(value, max float64) Limit {
	if value >= max {
		return Unbounded()
	}
	if value < 0 {
		value = 0
	}
	return Bounded(value)
}

func (l Limit) Max() (float64, bool) {
	return l.max, l.bounded
}

func (l Limit) Allows(v float64) bool {
	return !l.bounded || v <= l.max
}
