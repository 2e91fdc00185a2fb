package matching

import (
	"math"
	"testing"

	"carpool/internal/types"
)

func TestDistance_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantMiles float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         types.Point{Lat: 37.3352, Lng: -121.8811},
			b:         types.Point{Lat: 37.3352, Lng: -121.8811},
			wantMiles: 0,
			tolerance: 0.0001,
		},
		{
			name:      "San Jose to Palo Alto (~16mi)",
			a:         types.Point{Lat: 37.3382, Lng: -121.8863},
			b:         types.Point{Lat: 37.4419, Lng: -122.1430},
			wantMiles: 15.9,
			tolerance: 0.5,
		},
		{
			name:      "New York to Los Angeles (~2451mi)",
			a:         types.Point{Lat: 40.7128, Lng: -74.0060},
			b:         types.Point{Lat: 34.0522, Lng: -118.2437},
			wantMiles: 2451,
			tolerance: 30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if math.Abs(got-tt.wantMiles) > tt.tolerance {
				t.Errorf("Distance() = %f, want %f (±%f)", got, tt.wantMiles, tt.tolerance)
			}
		})
	}
}

func TestDistance_Symmetry(t *testing.T) {
	a := types.Point{Lat: 25.0, Lng: 121.0}
	b := types.Point{Lat: 26.0, Lng: 122.0}
	if d1, d2 := Distance(a, b), Distance(b, a); math.Abs(d1-d2) > 0.0001 {
		t.Errorf("distance is not symmetric: %f vs %f", d1, d2)
	}
}

func TestWithinRange(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		limit    Limit
		want     bool
	}{
		{name: "inside", distance: 3, limit: Bounded(5), want: true},
		{name: "on the boundary", distance: 5, limit: Bounded(5), want: true},
		{name: "outside", distance: 5.01, limit: Bounded(5), want: false},
		{name: "unbounded", distance: 1000, limit: Unbounded(), want: true},
		{name: "slider max is unlimited", distance: 1000, limit: SliderLimit(20, 20), want: true},
		{name: "zero slider", distance: 0.1, limit: SliderLimit(0, 20), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinRange(tt.distance, tt.limit); got != tt.want {
				t.Errorf("WithinRange(%v) = %v, want %v", tt.distance, got, tt.want)
			}
		})
	}
}

func TestSliderLimit(t *testing.T) {
	if _, bounded := SliderLimit(4, 4).Max(); bounded {
		t.Error("slider at max should be unbounded")
	}
	if _, bounded := SliderLimit(25, 20).Max(); bounded {
		t.Error("slider beyond max should be unbounded")
	}
	if max, bounded := SliderLimit(-3, 20).Max(); !bounded || max != 0 {
		t.Errorf("negative slider = (%v, %v), want (0, true)", max, bounded)
	}
	if max, bounded := SliderLimit(1.5, 4).Max(); !bounded || max != 1.5 {
		t.Errorf("SliderLimit(1.5, 4) = (%v, %v)", max, bounded)
	}
}
