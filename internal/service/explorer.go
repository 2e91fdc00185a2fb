// README: Explorer orchestrates one match request: requester lookup, pool gathering, evaluation and ranking.
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"carpool/internal/config"
	"carpool/internal/metrics"
	"carpool/internal/modules/matching"
	"carpool/internal/modules/profile"
	"carpool/internal/types"
)

// geoSlack pads the Redis radius; Redis measures on a slightly larger sphere than the engine.
const geoSlack = 1.01

type ProfileSource interface {
	Get(ctx context.Context, id types.ID) (*profile.Profile, error)
	Candidates(ctx context.Context, requester profile.Profile, narrowTo []types.ID) ([]profile.Profile, error)
}

type SocialGraph interface {
	FavoriteIDs(ctx context.Context, uid types.ID) ([]types.ID, error)
	Messaged(ctx context.Context, uid types.ID) (matching.IDSet, error)
}

type NearbyIndex interface {
	Nearby(ctx context.Context, p types.Point, radiusMiles float64) ([]types.ID, error)
}

type ExploreCommand struct {
	UserID types.ID
	Filter matching.FilterSpec
	Sort   matching.Strategy
}

// Match pairs a ranked result with the profile it describes.
type Match struct {
	Profile profile.Profile      `json:"profile"`
	Result  matching.MatchResult `json:"result"`
}

type ExploreResult struct {
	Matches   []Match `json:"matches"`
	Evaluated int     `json:"evaluated"`
	Passed    int     `json:"passed"`
	Invalid   int     `json:"invalid"`
}

type Explorer struct {
	profiles ProfileSource
	social   SocialGraph
	index    NearbyIndex
	cfg      config.MatchingConfig
	log      *zap.Logger
}

// NewExplorer wires the explorer. index may be nil, which disables radius prefiltering.
func NewExplorer(profiles ProfileSource, social SocialGraph, index NearbyIndex, cfg config.MatchingConfig, log *zap.Logger) *Explorer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Explorer{profiles: profiles, social: social, index: index, cfg: cfg, log: log}
}

func (e *Explorer) weights() matching.Weights {
	w := e.cfg.Weights
	if w.Distance == 0 && w.Time == 0 && w.Days == 0 {
		return matching.DefaultWeights()
	}
	return matching.Weights{Distance: w.Distance, Time: w.Time, Days: w.Days}
}

func (e *Explorer) Explore(ctx context.Context, cmd ExploreCommand) (*ExploreResult, error) {
	started := time.Now()
	if cmd.Sort == "" {
		cmd.Sort = matching.SortRecommended
	}
	metrics.MatchRequests.WithLabelValues(string(cmd.Sort)).Inc()

	requester, err := e.profiles.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	var favorited, messaged matching.IDSet
	var narrowTo []types.ID
	if cmd.Filter.FavoritesOnly {
		ids, err := e.social.FavoriteIDs(ctx, cmd.UserID)
		if err != nil {
			return nil, err
		}
		favorited = matching.NewIDSet(ids...)
		narrowTo = append([]types.ID{}, ids...)
	}
	if cmd.Filter.MessagedOnly {
		if messaged, err = e.social.Messaged(ctx, cmd.UserID); err != nil {
			return nil, err
		}
	}
	if nearby, ok := e.nearby(ctx, requester, cmd.Filter); ok {
		narrowTo = intersect(narrowTo, nearby, cmd.Filter.FavoritesOnly)
	}

	pool, err := e.profiles.Candidates(ctx, *requester, narrowTo)
	if err != nil {
		return nil, err
	}
	byID := make(map[types.ID]profile.Profile, len(pool))
	commutes := make([]matching.CommuteProfile, len(pool))
	for i, p := range pool {
		byID[p.ID] = p
		commutes[i] = p.Commute()
	}

	results, err := matching.ApplyParallel(ctx, requester.Commute(), commutes, cmd.Filter, favorited, messaged, e.cfg.Workers)
	if err != nil {
		return nil, err
	}

	out := &ExploreResult{Evaluated: len(results)}
	for _, r := range results {
		switch {
		case r.Invalid != "":
			out.Invalid++
			e.log.Warn("skipping invalid candidate profile",
				zap.String("candidate_id", string(r.CandidateID)),
				zap.String("reason", r.Invalid),
			)
		case r.Passed:
			out.Passed++
		}
	}
	metrics.MatchCandidates.WithLabelValues("passed").Add(float64(out.Passed))
	metrics.MatchCandidates.WithLabelValues("invalid").Add(float64(out.Invalid))
	metrics.MatchCandidates.WithLabelValues("failed").Add(float64(out.Evaluated - out.Passed - out.Invalid))

	ranked := matching.Rank(results, cmd.Sort, e.weights())
	out.Matches = make([]Match, len(ranked))
	for i, r := range ranked {
		out.Matches[i] = Match{Profile: byID[r.CandidateID], Result: r}
	}

	elapsed := time.Since(started)
	metrics.MatchDuration.Observe(elapsed.Seconds())
	e.log.Info("match request evaluated",
		zap.String("user_id", string(cmd.UserID)),
		zap.String("sort", string(cmd.Sort)),
		zap.Int("initial_candidates", out.Evaluated),
		zap.Int("dropped_candidates", out.Evaluated-out.Passed),
		zap.Int("left_candidates", out.Passed),
		zap.Int("invalid_candidates", out.Invalid),
		zap.Duration("elapsed", elapsed),
	)
	return out, nil
}

// FavoriteProfiles lists the user's favorites that are still eligible to be offered to them.
func (e *Explorer) FavoriteProfiles(ctx context.Context, uid types.ID) ([]profile.Profile, error) {
	requester, err := e.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	ids, err := e.social.FavoriteIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []types.ID{}
	}
	return e.profiles.Candidates(ctx, *requester, ids)
}

// nearby prefilters by start radius when the start distance is capped. Index failures fall back to
// the full pool.
func (e *Explorer) nearby(ctx context.Context, requester *profile.Profile, spec matching.FilterSpec) ([]types.ID, bool) {
	if !e.cfg.GeoPrefilter || e.index == nil {
		return nil, false
	}
	radius, bounded := spec.MaxStartDistance.Max()
	if !bounded {
		return nil, false
	}
	ids, err := e.index.Nearby(ctx, requester.Start, radius*geoSlack+0.01)
	if err != nil {
		e.log.Warn("location prefilter failed, evaluating full pool",
			zap.String("user_id", string(requester.ID)),
			zap.Error(err),
		)
		return nil, false
	}
	if ids == nil {
		ids = []types.ID{}
	}
	return ids, true
}

// intersect narrows current by next. When current is not yet a restriction, next is returned as is.
func intersect(current, next []types.ID, restricted bool) []types.ID {
	if !restricted {
		return next
	}
	keep := matching.NewIDSet(next...)
	out := make([]types.ID, 0, len(current))
	for _, id := range current {
		if keep.Has(id) {
			out = append(out, id)
		}
	}
	return out
}
