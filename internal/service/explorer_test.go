package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"carpool/internal/config"
	"carpool/internal/modules/matching"
	"carpool/internal/modules/profile"
	"carpool/internal/types"
)

type fakeProfiles struct {
	byID     map[types.ID]profile.Profile
	narrowed [][]types.ID
}

func newFakeProfiles(ps ...profile.Profile) *fakeProfiles {
	f := &fakeProfiles{byID: map[types.ID]profile.Profile{}}
	for _, p := range ps {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeProfiles) Get(_ context.Context, id types.ID) (*profile.Profile, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfiles) Candidates(_ context.Context, requester profile.Profile, narrowTo []types.ID) ([]profile.Profile, error) {
	f.narrowed = append(f.narrowed, narrowTo)
	var keep matching.IDSet
	if narrowTo != nil {
		keep = matching.NewIDSet(narrowTo...)
	}
	var out []profile.Profile
	for _, p := range f.byID {
		if keep != nil && !keep.Has(p.ID) {
			continue
		}
		if p.EligibleFor(requester) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeSocial struct {
	favorites []types.ID
	messaged  []types.ID
}

func (f fakeSocial) FavoriteIDs(context.Context, types.ID) ([]types.ID, error) {
	return f.favorites, nil
}

func (f fakeSocial) Messaged(context.Context, types.ID) (matching.IDSet, error) {
	return matching.NewIDSet(f.messaged...), nil
}

type fakeIndex struct {
	ids    []types.ID
	err    error
	radius float64
}

func (f *fakeIndex) Nearby(_ context.Context, _ types.Point, radius float64) ([]types.ID, error) {
	f.radius = radius
	return f.ids, f.err
}

var (
	home   = types.Point{Lat: 37.3382, Lng: -121.8863}
	office = types.Point{Lat: 37.4419, Lng: -122.1430}
)

func commuter(id string, role matching.Role, start string, days ...time.Weekday) profile.Profile {
	tod, _ := matching.ParseTimeOfDay(start)
	end, _ := matching.ParseTimeOfDay("17:00")
	return profile.Profile{
		ID:        types.ID(id),
		Role:      role,
		Status:    profile.StatusActive,
		Start:     home,
		End:       office,
		Days:      matching.NewDaySet(days...),
		StartTime: matching.Known(tod),
		EndTime:   matching.Known(end),
		Term: matching.MonthRange{
			Start: matching.NewMonth(2024, time.January),
			End:   matching.NewMonth(2024, time.June),
		},
	}
}

func matchIDs(ms []Match) []types.ID {
	out := make([]types.ID, len(ms))
	for i, m := range ms {
		out[i] = m.Result.CandidateID
	}
	return out
}

func testConfig() config.MatchingConfig {
	return config.MatchingConfig{Workers: 2, GeoPrefilter: true}
}

func TestExplore_RanksEligibleCandidates(t *testing.T) {
	mwf := []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	late := commuter("d-late", matching.RoleDriver, "09:30", mwf...)
	late.Start = types.Point{Lat: 37.35, Lng: -121.90}
	profiles := newFakeProfiles(
		commuter("me", matching.RoleRider, "08:00", mwf...),
		commuter("d-ontime", matching.RoleDriver, "08:00", mwf...),
		late,
		commuter("d-tuesday", matching.RoleDriver, "08:00", time.Tuesday),
		commuter("r-other", matching.RoleRider, "08:00", mwf...),
	)
	explorer := NewExplorer(profiles, fakeSocial{}, nil, testConfig(), zaptest.NewLogger(t))

	spec := matching.DefaultFilterSpec()
	spec.DayMode = matching.DayModeFlex
	spec.MinSharedDays = 2

	res, err := explorer.Explore(context.Background(), ExploreCommand{UserID: "me", Filter: spec})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Evaluated)
	assert.Equal(t, 2, res.Passed)
	assert.Equal(t, []types.ID{"d-ontime", "d-late"}, matchIDs(res.Matches))
	assert.Equal(t, types.ID("d-ontime"), res.Matches[0].Profile.ID)
	require.NotNil(t, res.Matches[0].Result.Score)
}

func TestExplore_SortByTime(t *testing.T) {
	profiles := newFakeProfiles(
		commuter("me", matching.RoleRider, "08:00", time.Monday),
		commuter("a", matching.RoleDriver, "10:00", time.Monday),
		commuter("b", matching.RoleDriver, "08:15", time.Monday),
	)
	explorer := NewExplorer(profiles, fakeSocial{}, nil, testConfig(), zaptest.NewLogger(t))

	res, err := explorer.Explore(context.Background(), ExploreCommand{
		UserID: "me",
		Filter: matching.DefaultFilterSpec(),
		Sort:   matching.SortTime,
	})
	require.NoError(t, err)
	assert.Equal(t, []types.ID{"b", "a"}, matchIDs(res.Matches))
	assert.Nil(t, res.Matches[0].Result.Score)
}

func TestExplore_GeoPrefilter(t *testing.T) {
	profiles := newFakeProfiles(
		commuter("me", matching.RoleRider, "08:00", time.Monday),
		commuter("a", matching.RoleDriver, "08:00", time.Monday),
		commuter("b", matching.RoleDriver, "08:00", time.Monday),
	)
	index := &fakeIndex{ids: []types.ID{"b"}}
	explorer := NewExplorer(profiles, fakeSocial{}, index, testConfig(), zaptest.NewLogger(t))

	spec := matching.DefaultFilterSpec()
	spec.MaxStartDistance = matching.Bounded(5)

	res, err := explorer.Explore(context.Background(), ExploreCommand{UserID: "me", Filter: spec})
	require.NoError(t, err)
	assert.Equal(t, []types.ID{"b"}, matchIDs(res.Matches))
	assert.Greater(t, index.radius, 5.0)
}

func TestExplore_GeoPrefilterSkippedWhenUnbounded(t *testing.T) {
	profiles := newFakeProfiles(
		commuter("me", matching.RoleRider, "08:00", time.Monday),
		commuter("a", matching.RoleDriver, "08:00", time.Monday),
	)
	index := &fakeIndex{ids: []types.ID{}}
	explorer := NewExplorer(profiles, fakeSocial{}, index, testConfig(), zaptest.NewLogger(t))

	res, err := explorer.Explore(context.Background(), ExploreCommand{UserID: "me", Filter: matching.DefaultFilterSpec()})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
	assert.Zero(t, index.radius)
}

func TestExplore_GeoPrefilterFailureFallsBack(t *testing.T) {
	profiles := newFakeProfiles(
		commuter("me", matching.RoleRider, "08:00", time.Monday),
		commuter("a", matching.RoleDriver, "08:00", time.Monday),
	)
	index := &fakeIndex{err: errors.New("redis down")}
	explorer := NewExplorer(profiles, fakeSocial{}, index, testConfig(), zaptest.NewLogger(t))

	spec := matching.DefaultFilterSpec()
	spec.MaxStartDistance = matching.Bounded(1)

	res, err := explorer.Explore(context.Background(), ExploreCommand{UserID: "me", Filter: spec})
	require.NoError(t, err)
	assert.Equal(t, []types.ID{"a"}, matchIDs(res.Matches))
	assert.Nil(t, profiles.narrowed[0])
}

func TestExplore_FavoritesAndMessaged(t *testing.T) {
	profiles := newFakeProfiles(
		commuter("me", matching.RoleRider, "08:00", time.Monday),
		commuter("a", matching.RoleDriver, "08:00", time.Monday),
		commuter("b", matching.RoleDriver, "08:00", time.Monday),
		commuter("c", matching.RoleDriver, "08:00", time.Monday),
	)
	social := fakeSocial{favorites: []types.ID{"a", "b"}, messaged: []types.ID{"b", "c"}}
	explorer := NewExplorer(profiles, social, nil, testConfig(), zaptest.NewLogger(t))

	spec := matching.DefaultFilterSpec()
	spec.FavoritesOnly = true
	res, err := explorer.Explore(context.Background(), ExploreCommand{UserID: "me", Filter: spec, Sort: matching.SortDistance})
	require.NoError(t, err)
	assert.Equal(t, []types.ID{"a", "b"}, matchIDs(res.Matches))

	spec.MessagedOnly = true
	res, err = explorer.Explore(context.Background(), ExploreCommand{UserID: "me", Filter: spec, Sort: matching.SortDistance})
	require.NoError(t, err)
	assert.Equal(t, []types.ID{"b"}, matchIDs(res.Matches))
}

func TestExplore_FavoritesIntersectNearby(t *testing.T) {
	profiles := newFakeProfiles(
		commuter("me", matching.RoleRider, "08:00", time.Monday),
		commuter("a", matching.RoleDriver, "08:00", time.Monday),
		commuter("b", matching.RoleDriver, "08:00", time.Monday),
	)
	social := fakeSocial{favorites: []types.ID{"a", "b"}}
	index := &fakeIndex{ids: []types.ID{"b", "zzz"}}
	explorer := NewExplorer(profiles, social, index, testConfig(), zaptest.NewLogger(t))

	spec := matching.DefaultFilterSpec()
	spec.FavoritesOnly = true
	spec.MaxStartDistance = matching.Bounded(3)

	res, err := explorer.Explore(context.Background(), ExploreCommand{UserID: "me", Filter: spec})
	require.NoError(t, err)
	assert.Equal(t, []types.ID{"b"}, matchIDs(res.Matches))
	assert.Equal(t, []types.ID{"b"}, profiles.narrowed[0])
}

func TestExplore_InvalidCandidateCounted(t *testing.T) {
	broken := commuter("broken", matching.RoleDriver, "08:00", time.Monday)
	broken.Days = 0
	profiles := newFakeProfiles(
		commuter("me", matching.RoleRider, "08:00", time.Monday),
		commuter("ok", matching.RoleDriver, "08:00", time.Monday),
		broken,
	)
	explorer := NewExplorer(profiles, fakeSocial{}, nil, testConfig(), zaptest.NewLogger(t))

	res, err := explorer.Explore(context.Background(), ExploreCommand{UserID: "me", Filter: matching.DefaultFilterSpec()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Invalid)
	assert.Equal(t, []types.ID{"ok"}, matchIDs(res.Matches))
}

func TestExplore_Errors(t *testing.T) {
	broken := commuter("me", matching.RoleRider, "08:00")
	explorer := NewExplorer(newFakeProfiles(broken), fakeSocial{}, nil, testConfig(), zaptest.NewLogger(t))

	_, err := explorer.Explore(context.Background(), ExploreCommand{UserID: "me", Filter: matching.DefaultFilterSpec()})
	assert.ErrorIs(t, err, matching.ErrInvalidProfile)

	_, err = explorer.Explore(context.Background(), ExploreCommand{UserID: "ghost", Filter: matching.DefaultFilterSpec()})
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestFavoriteProfiles(t *testing.T) {
	inactive := commuter("d-gone", matching.RoleDriver, "08:00", time.Monday)
	inactive.Status = profile.StatusInactive
	profiles := newFakeProfiles(
		commuter("me", matching.RoleRider, "08:00", time.Monday),
		commuter("d1", matching.RoleDriver, "08:00", time.Monday),
		commuter("r1", matching.RoleRider, "08:00", time.Monday),
		commuter("v1", matching.RoleViewer, "08:00", time.Monday),
		inactive,
	)
	social := fakeSocial{favorites: []types.ID{"d1", "r1", "v1", "d-gone"}}
	explorer := NewExplorer(profiles, social, nil, testConfig(), zaptest.NewLogger(t))

	got, err := explorer.FavoriteProfiles(context.Background(), "me")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.ID("d1"), got[0].ID)

	none, err := NewExplorer(profiles, fakeSocial{}, nil, testConfig(), nil).FavoriteProfiles(context.Background(), "me")
	require.NoError(t, err)
	assert.Empty(t, none)
}
