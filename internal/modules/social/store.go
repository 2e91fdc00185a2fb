// README: Social store backed by Redis sets, one set per user and relation.
package social

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"carpool/internal/types"
)

const (
	favoritesKeyPrefix = "social:favorites:%s"
	messagedKeyPrefix  = "social:messaged:%s"
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) AddFavorite(ctx context.Context, uid, other types.ID) error {
	return s.redis.SAdd(ctx, favoritesKey(uid), string(other)).Err()
}

func (s *Store) RemoveFavorite(ctx context.Context, uid, other types.ID) error {
	return s.redis.SRem(ctx, favoritesKey(uid), string(other)).Err()
}

func (s *Store) Favorites(ctx context.Context, uid types.ID) ([]types.ID, error) {
	return s.members(ctx, favoritesKey(uid))
}

func (s *Store) IsFavorite(ctx context.Context, uid, other types.ID) (bool, error) {
	return s.redis.SIsMember(ctx, favoritesKey(uid), string(other)).Result()
}

// AddMessaged records the contact in both directions; a conversation is shared.
func (s *Store) AddMessaged(ctx context.Context, uid, other types.ID) error {
	pipe := s.redis.TxPipeline()
	pipe.SAdd(ctx, messagedKey(uid), string(other))
	pipe.SAdd(ctx, messagedKey(other), string(uid))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Messaged(ctx context.Context, uid types.ID) ([]types.ID, error) {
	return s.members(ctx, messagedKey(uid))
}

func (s *Store) members(ctx context.Context, key string) ([]types.ID, error) {
	vals, err := s.redis.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(vals)
	ids := make([]types.ID, len(vals))
	for i, v := range vals {
		ids[i] = types.ID(v)
	}
	return ids, nil
}

func favoritesKey(uid types.ID) string {
	return fmt.Sprintf(favoritesKeyPrefix, string(uid))
}

func messagedKey(uid types.ID) string {
	return fmt.Sprintf(messagedKeyPrefix, string(uid))
}
