// README: Smoke checks for DB, Redis and API plus load checks for in-process matching and POST /api/matches.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"carpool/internal/modules/location"
	"carpool/internal/modules/matching"
	"carpool/internal/types"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

// probeID is indexed and removed again by the GEO round-trip check.
const probeID types.ID = "bench-probe"

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{Name: "Env: Postgres connect", Run: pingDB},
		{Name: "Env: Redis connect", Run: pingRedis},
		{Name: "Migration: apply (optional)", Run: applyMigration},
		{Name: "Migration: tables exist", Run: tablesExist},
		{Name: "Redis: location index round trip", Run: geoRoundTrip},

		httpCase("API: health", http.MethodGet, base+"/health", nil, "", []int{200}),
		httpCase("API: metrics exposed", http.MethodGet, base+"/metrics", nil, "", []int{200}),
		httpCase("API: matches require auth", http.MethodPost, base+"/api/matches", map[string]any{}, "", []int{401}),
		authCase("API: own profile", http.MethodGet, base+"/api/profiles/me", nil, []int{200, 404}),
		authCase("API: matches (default filter)", http.MethodPost, base+"/api/matches", map[string]any{}, []int{200, 404}),
		authCase("API: matches (bad sort -> 400)", http.MethodPost, base+"/api/matches", map[string]any{"sort": "alphabetical"}, []int{400}),
		authCase("API: favorites list", http.MethodGet, base+"/api/favorites", nil, []int{200, 404}),

		{Name: "Perf: in-process matching", Run: matchThroughput},
		{Name: "Perf: POST /api/matches load", Run: func(ctx context.Context, r *Runner) Result {
			if r.cfg.Token == "" {
				return Result{Status: statusSkip, Note: "token not set"}
			}
			return perfLoad(ctx, r, base+"/api/matches", map[string]any{"start_distance": 10, "sort": "recommended"})
		}},
	}
}

func pingDB(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.db.Ping(ctx); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func pingRedis(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusFail, Note: "redis not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	return Result{Status: statusPass}
}

func applyMigration(ctx context.Context, r *Runner) Result {
	if !r.cfg.ApplyMigration {
		return Result{Status: statusSkip, Note: "apply-migration=false"}
	}
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	sql, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, s := range splitSQL(string(sql)) {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
	}
	return Result{Status: statusPass}
}

func tablesExist(ctx context.Context, r *Runner) Result {
	if r.db == nil {
		return Result{Status: statusFail, Note: "db not configured"}
	}
	b, err := os.ReadFile(r.cfg.MigrationPath)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	for _, t := range extractTables(string(b)) {
		var exists bool
		err := r.db.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
			t,
		).Scan(&exists)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		if !exists {
			return Result{Status: statusFail, Note: "missing table: " + t}
		}
	}
	return Result{Status: statusPass}
}

func geoRoundTrip(ctx context.Context, r *Runner) Result {
	if r.redis == nil {
		return Result{Status: statusFail, Note: "redis not configured"}
	}
	store := location.NewStore(r.redis)
	at := types.Point{Lat: 37.3352, Lng: -121.8811}
	start := time.Now()
	if err := store.Index(ctx, probeID, at); err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	defer func() { _ = store.Remove(ctx, probeID) }()

	ids, err := store.Nearby(ctx, at, 0.5)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	latency := time.Since(start)
	for _, id := range ids {
		if id == probeID {
			return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("nearby=%d", len(ids))}
		}
	}
	return Result{Status: statusFail, Latency: latency, Note: "probe not returned by radius search"}
}

func httpCase(name, method, url string, body any, token string, okStatuses []int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			return r.do(ctx, method, url, body, token, okStatuses)
		},
	}
}

// authCase is skipped unless a token was supplied.
func authCase(name, method, url string, body any, okStatuses []int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			if r.cfg.Token == "" {
				return Result{Status: statusSkip, Note: "token not set"}
			}
			return r.do(ctx, method, url, body, r.cfg.Token, okStatuses)
		},
	}
}

func (r *Runner) do(ctx context.Context, method, url string, body any, token string, okStatuses []int) Result {
	req, err := newRequest(ctx, method, url, body, token)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	latency := time.Since(start)
	if contains(okStatuses, resp.StatusCode) {
		return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
	}
	return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
}

func newRequest(ctx context.Context, method, url string, body any, token string) (*http.Request, error) {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// matchThroughput runs full filter and rank passes over a synthetic pool for the configured duration.
func matchThroughput(ctx context.Context, r *Runner) Result {
	rng := rand.New(rand.NewSource(r.cfg.Seed))
	requester := syntheticProfile(rng, "requester", matching.RoleRider)
	pool := syntheticPool(rng, r.cfg.Profiles)

	spec := matching.DefaultFilterSpec()
	spec.MaxStartDistance = matching.Bounded(10)
	spec.MaxStartDeviation = matching.Bounded(1)
	spec.DayMode = matching.DayModeFlex
	spec.MinSharedDays = 2

	end := time.Now().Add(r.cfg.Duration)
	passes, passed := 0, 0
	for time.Now().Before(end) {
		results, err := matching.ApplyParallel(ctx, requester, pool, spec, nil, nil, r.cfg.Concurrency)
		if err != nil {
			return Result{Status: statusFail, Note: err.Error()}
		}
		passed = len(matching.Rank(results, matching.SortRecommended, matching.DefaultWeights()))
		passes++
	}
	if passes == 0 {
		return Result{Status: statusFail, Note: "no passes completed"}
	}
	perSec := float64(passes*len(pool)) / r.cfg.Duration.Seconds()
	return Result{
		Status:  statusPass,
		Latency: r.cfg.Duration / time.Duration(passes),
		Note:    fmt.Sprintf("candidates/s=%.0f pool=%d passed=%d", perSec, len(pool), passed),
	}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, err := newRequest(ctx, http.MethodPost, url, payload, r.cfg.Token)
				if err != nil {
					errCount.Add(1)
					continue
				}
				resp, err := r.httpc.Do(req)
				if err != nil {
					errCount.Add(1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				if resp.StatusCode >= 500 {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
		}()
	}
	wg.Wait()

	if count.Load() == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load())}
}

// syntheticPool scatters drivers around San Jose with weekday schedules and morning starts.
func syntheticPool(rng *rand.Rand, n int) []matching.CommuteProfile {
	out := make([]matching.CommuteProfile, n)
	for i := range out {
		out[i] = syntheticProfile(rng, types.ID(fmt.Sprintf("driver-%05d", i)), matching.RoleDriver)
	}
	return out
}

func syntheticProfile(rng *rand.Rand, id types.ID, role matching.Role) matching.CommuteProfile {
	jitter := func(center, spread float64) float64 {
		return center + (rng.Float64()*2-1)*spread
	}
	var days matching.DaySet
	for d := time.Monday; d <= time.Friday; d++ {
		if rng.Intn(3) > 0 {
			days = days.Add(d)
		}
	}
	if days.Len() == 0 {
		days = matching.NewDaySet(time.Wednesday)
	}
	// 15:00-18:45 UTC is a 07:00-10:45 Pacific morning start.
	start := matching.Known(matching.TimeOfDay{Hour: 15 + rng.Intn(4), Minute: 15 * rng.Intn(4)})
	end := matching.Unspecified()
	if rng.Intn(2) == 0 {
		end = matching.Known(matching.TimeOfDay{Hour: rng.Intn(4), Minute: 15 * rng.Intn(4)})
	}
	first := matching.NewMonth(2024, time.Month(1+rng.Intn(6)))
	return matching.CommuteProfile{
		ID:        id,
		Role:      role,
		Start:     types.Point{Lat: jitter(37.3352, 0.25), Lng: jitter(-121.8811, 0.25)},
		End:       types.Point{Lat: jitter(37.3861, 0.1), Lng: jitter(-122.0839, 0.1)},
		Days:      days,
		StartTime: start,
		EndTime:   end,
		Term:      matching.MonthRange{Start: first, End: first + matching.Month(rng.Intn(9))},
	}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

var createTableRe = regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)

func extractTables(sql string) []string {
	matches := createTableRe.FindAllStringSubmatch(sql, -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
