// README: Location index of commute start points backed by Redis GEO.
package location

import (
	"context"

	"github.com/redis/go-redis/v9"

	"carpool/internal/types"
)

const startsKey = "location:commute_starts"

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// Index records or moves the commute start of id.
func (s *Store) Index(ctx context.Context, id types.ID, p types.Point) error {
	return s.redis.GeoAdd(ctx, startsKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (s *Store) Remove(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, startsKey, string(id)).Err()
}

// Nearby returns the ids whose commute start lies within radiusMiles of p, nearest first.
func (s *Store) Nearby(ctx context.Context, p types.Point, radiusMiles float64) ([]types.ID, error) {
	results, err := s.redis.GeoSearch(ctx, startsKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusMiles,
		RadiusUnit: "mi",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}
