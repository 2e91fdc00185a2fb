package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// Place is one address suggestion.
type Place struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

// PlacesService suggests addresses while a user types their commute.
type PlacesService struct {
	client *maps.Client
}

func NewPlacesService(apiKey string, opts ...maps.ClientOption) (*PlacesService, error) {
	client, err := newClient(apiKey, opts...)
	if err != nil {
		return nil, err
	}
	return &PlacesService{client: client}, nil
}

// SearchAddress autocompletes query to street addresses within the US.
func (s *PlacesService) SearchAddress(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	resp, err := s.client.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{
		Input:      query,
		Types:      maps.AutocompletePlaceTypeAddress,
		Components: map[maps.Component][]string{maps.ComponentCountry: {region}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: autocomplete: %v", ErrUnavailable, err)
	}

	places := make([]Place, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		places = append(places, Place{Description: p.Description, PlaceID: p.PlaceID})
	}
	return places, nil
}
