// README: Shared Google Maps client construction and error values.
package maps

import (
	"errors"
	"fmt"

	"googlemaps.github.io/maps"
)

var (
	// ErrUnavailable wraps any failure talking to the Maps API.
	ErrUnavailable = errors.New("maps unavailable")
	ErrNoResults   = errors.New("no maps results")
)

// region biases every lookup to the United States.
const region = "us"

func newClient(apiKey string, opts ...maps.ClientOption) (*maps.Client, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}
