// README: Profile store backed by PostgreSQL.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"carpool/internal/modules/matching"
	"carpool/internal/types"
)

const profileColumns = `
    id, name, preferred_name, role, status, seat_avail,
    start_address, end_address, start_lat, start_lng, end_lat, end_lng,
    days, start_time, end_time, time_zone, term_start, term_end, updated_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Profile, error) {
	row := s.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, string(id))
	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) Upsert(ctx context.Context, p *Profile) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO profiles (`+profileColumns+`)
        VALUES (
            $1, $2, $3, $4, $5, $6,
            $7, $8, $9, $10, $11, $12,
            $13, $14, $15, $16, $17, $18, $19
        )
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            preferred_name = EXCLUDED.preferred_name,
            role = EXCLUDED.role,
            status = EXCLUDED.status,
            seat_avail = EXCLUDED.seat_avail,
            start_address = EXCLUDED.start_address,
            end_address = EXCLUDED.end_address,
            start_lat = EXCLUDED.start_lat,
            start_lng = EXCLUDED.start_lng,
            end_lat = EXCLUDED.end_lat,
            end_lng = EXCLUDED.end_lng,
            days = EXCLUDED.days,
            start_time = EXCLUDED.start_time,
            end_time = EXCLUDED.end_time,
            time_zone = EXCLUDED.time_zone,
            term_start = EXCLUDED.term_start,
            term_end = EXCLUDED.term_end,
            updated_at = EXCLUDED.updated_at`,
		string(p.ID), p.Name, p.PreferredName, string(p.Role), string(p.Status), p.SeatAvail,
		p.StartAddress, p.EndAddress, p.Start.Lat, p.Start.Lng, p.End.Lat, p.End.Lng,
		int16(p.Days), toTimePtr(p.StartTime), toTimePtr(p.EndTime), p.TimeZone,
		p.Term.Start.FirstDay(), p.Term.End.FirstDay(), p.UpdatedAt,
	)
	return err
}

// ListCandidates returns every profile eligible to be offered to requester, ordered by id.
func (s *Store) ListCandidates(ctx context.Context, requester Profile) ([]Profile, error) {
	rows, err := s.db.Query(ctx, `
        SELECT `+profileColumns+`
        FROM profiles
        WHERE status = 'ACTIVE'
          AND role <> 'VIEWER'
          AND id <> $1
          AND ($2 = 'VIEWER' OR role <> $2)
        ORDER BY id`,
		string(requester.ID), string(requester.Role),
	)
	if err != nil {
		return nil, err
	}
	return collectProfiles(rows)
}

// GetMany loads the given profiles in id order. Unknown ids are skipped.
func (s *Store) GetMany(ctx context.Context, ids []types.ID) ([]Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ANY($1) ORDER BY id`, keys)
	if err != nil {
		return nil, err
	}
	return collectProfiles(rows)
}

func (s *Store) SetStatus(ctx context.Context, id types.ID, status Status) error {
	tag, err := s.db.Exec(ctx, `
        UPDATE profiles SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectProfiles(rows pgx.Rows) ([]Profile, error) {
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var (
		p                  Profile
		role, status       string
		days               int16
		startTime, endTime *time.Time
		termStart, termEnd time.Time
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.PreferredName, &role, &status, &p.SeatAvail,
		&p.StartAddress, &p.EndAddress, &p.Start.Lat, &p.Start.Lng, &p.End.Lat, &p.End.Lng,
		&days, &startTime, &endTime, &p.TimeZone, &termStart, &termEnd, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = matching.Role(role)
	p.Status = Status(status)
	p.Days = matching.DaySet(days)
	p.StartTime = fromTimePtr(startTime)
	p.EndTime = fromTimePtr(endTime)
	p.Term = matching.MonthRange{Start: matching.MonthOf(termStart), End: matching.MonthOf(termEnd)}
	return &p, nil
}

func toTimePtr(c matching.ClockTime) *time.Time {
	tod, ok := c.Get()
	if !ok {
		return nil
	}
	t := tod.Time()
	return &t
}

func fromTimePtr(t *time.Time) matching.ClockTime {
	if t == nil {
		return matching.Unspecified()
	}
	u := t.UTC()
	return matching.Known(matching.TimeOfDay{Hour: u.Hour(), Minute: u.Minute()})
}
