// README: Social service exposes favorites and messaged contacts as matching id sets.
package social

import (
	"context"
	"errors"

	"carpool/internal/modules/matching"
	"carpool/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// SetFavorite adds or removes other from uid's favorites. Users cannot favorite themselves.
func (s *Service) SetFavorite(ctx context.Context, uid, other types.ID, add bool) error {
	if err := checkPair(uid, other); err != nil {
		return err
	}
	if add {
		return s.store.AddFavorite(ctx, uid, other)
	}
	return s.store.RemoveFavorite(ctx, uid, other)
}

// FavoriteIDs lists uid's favorites in id order.
func (s *Service) FavoriteIDs(ctx context.Context, uid types.ID) ([]types.ID, error) {
	return s.store.Favorites(ctx, uid)
}

func (s *Service) IsFavorite(ctx context.Context, uid, other types.ID) (bool, error) {
	return s.store.IsFavorite(ctx, uid, other)
}

func (s *Service) MarkMessaged(ctx context.Context, uid, other types.ID) error {
	if err := checkPair(uid, other); err != nil {
		return err
	}
	return s.store.AddMessaged(ctx, uid, other)
}

func (s *Service) Messaged(ctx context.Context, uid types.ID) (matching.IDSet, error) {
	ids, err := s.store.Messaged(ctx, uid)
	if err != nil {
		return nil, err
	}
	return matching.NewIDSet(ids...), nil
}

func checkPair(uid, other types.ID) error {
	if uid == "" || other == "" || uid == other {
		return ErrBadRequest
	}
	return nil
}
