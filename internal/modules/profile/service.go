// README: Profile service validates raw commute input, normalizes it and keeps the location index in sync.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"carpool/internal/modules/matching"
	"carpool/internal/types"
)

var (
	ErrNotFound   = errors.New("profile not found")
	ErrBadRequest = errors.New("bad request")
)

type Repository interface {
	Get(ctx context.Context, id types.ID) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
	ListCandidates(ctx context.Context, requester Profile) ([]Profile, error)
	GetMany(ctx context.Context, ids []types.ID) ([]Profile, error)
	SetStatus(ctx context.Context, id types.ID, status Status) error
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (types.Point, error)
}

// Indexer tracks commute start points for radius prefiltering.
type Indexer interface {
	Index(ctx context.Context, id types.ID, p types.Point) error
	Remove(ctx context.Context, id types.ID) error
}

type Service struct {
	store Repository
	geo   Geocoder
	index Indexer
	log   *zap.Logger
	now   func() time.Time
}

// NewService wires the profile service. geo and index may be nil.
func NewService(store Repository, geo Geocoder, index Indexer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, geo: geo, index: index, log: log, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Profile, error) {
	if id == "" {
		return nil, ErrBadRequest
	}
	return s.store.Get(ctx, id)
}

func (s *Service) Upsert(ctx context.Context, cmd UpsertCommand) (*Profile, error) {
	if cmd.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrBadRequest)
	}
	role := matching.Role(cmd.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrBadRequest, cmd.Role)
	}
	if cmd.SeatAvail < 0 {
		return nil, fmt.Errorf("%w: negative seat count", ErrBadRequest)
	}
	if len(cmd.Days) != 7 {
		return nil, fmt.Errorf("%w: want 7 day flags, got %d", ErrBadRequest, len(cmd.Days))
	}

	zone := cmd.TimeZone
	if zone == "" {
		zone = "UTC"
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: time zone %q", ErrBadRequest, zone)
	}
	startTime, err := s.normalizeClock(cmd.StartTime, loc)
	if err != nil {
		return nil, err
	}
	endTime, err := s.normalizeClock(cmd.EndTime, loc)
	if err != nil {
		return nil, err
	}

	term, err := parseTerm(cmd.TermStart, cmd.TermEnd)
	if err != nil {
		return nil, err
	}

	start, err := s.resolve(ctx, cmd.Start, cmd.StartAddress)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := s.resolve(ctx, cmd.End, cmd.EndAddress)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	seats := cmd.SeatAvail
	if role != matching.RoleDriver {
		seats = 0
	}

	p := &Profile{
		ID:            cmd.UserID,
		Name:          cmd.Name,
		PreferredName: cmd.PreferredName,
		Role:          role,
		Status:        StatusActive,
		SeatAvail:     seats,
		StartAddress:  cmd.StartAddress,
		EndAddress:    cmd.EndAddress,
		Start:         start,
		End:           end,
		Days:          matching.DaySetFromFlags(cmd.Days),
		StartTime:     startTime,
		EndTime:       endTime,
		TimeZone:      zone,
		Term:          term,
		UpdatedAt:     s.now().UTC(),
	}
	if err := matching.ValidateProfile(p.Commute()); err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, p); err != nil {
		return nil, err
	}
	s.syncIndex(ctx, p)
	return p, nil
}

// Deactivate hides the profile from every other user's results.
func (s *Service) Deactivate(ctx context.Context, id types.ID) error {
	if id == "" {
		return ErrBadRequest
	}
	if err := s.store.SetStatus(ctx, id, StatusInactive); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			s.log.Warn("location index remove failed", zap.String("profile_id", string(id)), zap.Error(err))
		}
	}
	return nil
}

// Candidates returns the profiles eligible for requester. A non-nil narrowTo restricts the pool to
// those ids; an empty narrowTo yields no candidates.
func (s *Service) Candidates(ctx context.Context, requester Profile, narrowTo []types.ID) ([]Profile, error) {
	if narrowTo == nil {
		return s.store.ListCandidates(ctx, requester)
	}
	loaded, err := s.store.GetMany(ctx, narrowTo)
	if err != nil {
		return nil, err
	}
	out := loaded[:0]
	for _, p := range loaded {
		if p.EligibleFor(requester) {
			out = append(out, p)
		}
	}
	return out, nil
}

// normalizeClock converts a local "HH:MM" to UTC using the zone's offset today.
func (s *Service) normalizeClock(raw string, loc *time.Location) (matching.ClockTime, error) {
	if raw == "" {
		return matching.Unspecified(), nil
	}
	tod, err := matching.ParseTimeOfDay(raw)
	if err != nil {
		return matching.ClockTime{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	today := s.now().In(loc)
	local := time.Date(today.Year(), today.Month(), today.Day(), tod.Hour, tod.Minute, 0, 0, loc)
	return matching.Known(matching.NormalizeIn(local)), nil
}

func (s *Service) resolve(ctx context.Context, p *types.Point, address string) (types.Point, error) {
	if p != nil {
		return *p, nil
	}
	if address == "" {
		return types.Point{}, fmt.Errorf("%w: coordinates or address required", ErrBadRequest)
	}
	if s.geo == nil {
		return types.Point{}, fmt.Errorf("%w: coordinates required, geocoding disabled", ErrBadRequest)
	}
	return s.geo.Geocode(ctx, address)
}

func (s *Service) syncIndex(ctx context.Context, p *Profile) {
	if s.index == nil {
		return
	}
	var err error
	if p.Role == matching.RoleViewer {
		err = s.index.Remove(ctx, p.ID)
	} else {
		err = s.index.Index(ctx, p.ID, p.Start)
	}
	if err != nil {
		s.log.Warn("location index update failed", zap.String("profile_id", string(p.ID)), zap.Error(err))
	}
}

func parseTerm(start, end string) (matching.MonthRange, error) {
	if start == "" || end == "" {
		return matching.MonthRange{}, fmt.Errorf("%w: term start and end required", ErrBadRequest)
	}
	s, err := matching.ParseMonth(start)
	if err != nil {
		return matching.MonthRange{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	e, err := matching.ParseMonth(end)
	if err != nil {
		return matching.MonthRange{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return matching.MonthRange{Start: s, End: e}, nil
}
