package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"carpool/internal/types"
)

// GeocodeService resolves commute addresses to coordinates.
type GeocodeService struct {
	client *maps.Client
}

func NewGeocodeService(apiKey string, opts ...maps.ClientOption) (*GeocodeService, error) {
	client, err := newClient(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &GeocodeService{client: client}, nil
}

// Geocode returns the location of the best match for address.
func (s *GeocodeService) Geocode(ctx context.Context, address string) (types.Point, error) {
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  region,
	})
	if err != nil {
		return types.Point{}, fmt.Errorf("%w: geocode: %v", ErrUnavailable, err)
	}
	if len(results) == 0 {
		return types.Point{}, fmt.Errorf("%w for %q", ErrNoResults, address)
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
