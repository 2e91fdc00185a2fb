package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"carpool/internal/types"
)

// RoutePreview summarizes the driving route of one commute.
type RoutePreview struct {
	DistanceMeters int           `json:"distance_meters"`
	Duration       time.Duration `json:"-"`
	DurationText   string        `json:"duration"`
	Polyline       string        `json:"polyline"`
}

// RouteService handles interactions with Google Maps API.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a new RouteService with the given API Key.
func NewRouteService(apiKey string, opts ...maps.ClientOption) (*RouteService, error) {
	client, err := newClient(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &RouteService{client: client}, nil
}

// Preview returns the driving route from one point to another.
func (s *RouteService) Preview(ctx context.Context, from, to types.Point) (RoutePreview, error) {
	r := &maps.DirectionsRequest{
		Origin:      from.String(),
		Destination: to.String(),
		Mode:        maps.TravelModeDriving,
		Region:      region,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return RoutePreview{}, fmt.Errorf("%w: directions: %v", ErrUnavailable, err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return RoutePreview{}, fmt.Errorf("%w: no route from %s to %s", ErrNoResults, from, to)
	}

	leg := routes[0].Legs[0]
	return RoutePreview{
		DistanceMeters: leg.Distance.Meters,
		Duration:       leg.Duration,
		DurationText:   leg.Duration.Round(time.Minute).String(),
		Polyline:       routes[0].OverviewPolyline.Points,
	}, nil
}
