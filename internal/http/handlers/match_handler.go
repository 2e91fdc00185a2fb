// README: Match handler turns the slider-style filter form into a matching request.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	httpmiddleware "carpool/internal/http/middleware"
	"carpool/internal/modules/matching"
	"carpool/internal/service"
	"carpool/internal/types"
)

// Slider maxima; a slider at its maximum means "any".
const (
	maxDistanceSlider  = 20
	maxDeviationSlider = 4
)

type MatchExplorer interface {
	Explore(ctx context.Context, cmd service.ExploreCommand) (*service.ExploreResult, error)
}

type MatchHandler struct {
	explorer MatchExplorer
}

func NewMatchHandler(explorer MatchExplorer) *MatchHandler {
	return &MatchHandler{explorer: explorer}
}

type matchReq struct {
	StartDistance *float64 `json:"start_distance"`
	EndDistance   *float64 `json:"end_distance"`
	Days          int      `json:"days"`
	FlexDays      int      `json:"flex_days"`
	DaysWorking   dayFlags `json:"days_working"`
	StartTime     *float64 `json:"start_time"`
	EndTime       *float64 `json:"end_time"`
	DateOverlap   int      `json:"date_overlap"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
	Favorites     bool     `json:"favorites"`
	Messaged      bool     `json:"messaged"`
	Sort          string   `json:"sort"`
}

func (h *MatchHandler) Explore(c *gin.Context) {
	var req matchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	spec, err := req.filterSpec()
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	sort, ok := matching.ParseStrategy(req.Sort)
	if !ok {
		writeError(c, http.StatusBadRequest, fmt.Sprintf("unknown sort %q", req.Sort))
		return
	}
	res, err := h.explorer.Explore(c.Request.Context(), service.ExploreCommand{
		UserID: types.ID(httpmiddleware.CallerUID(c)),
		Filter: spec,
		Sort:   sort,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (r matchReq) filterSpec() (matching.FilterSpec, error) {
	spec := matching.DefaultFilterSpec()
	var err error
	if spec.MaxStartDistance, err = sliderLimit("start_distance", r.StartDistance, maxDistanceSlider); err != nil {
		return spec, err
	}
	if spec.MaxEndDistance, err = sliderLimit("end_distance", r.EndDistance, maxDistanceSlider); err != nil {
		return spec, err
	}
	if spec.MaxStartDeviation, err = sliderLimit("start_time", r.StartTime, maxDeviationSlider); err != nil {
		return spec, err
	}
	if spec.MaxEndDeviation, err = sliderLimit("end_time", r.EndTime, maxDeviationSlider); err != nil {
		return spec, err
	}

	if r.Days < int(matching.DayModeAny) || r.Days > int(matching.DayModeFlex) {
		return spec, fmt.Errorf("days must be 0, 1 or 2")
	}
	spec.DayMode = matching.DayMode(r.Days)
	// Minimums above the selected day count are clamped by the engine.
	if r.FlexDays < 0 {
		return spec, fmt.Errorf("flex_days must not be negative")
	}
	if r.FlexDays > 0 {
		spec.MinSharedDays = r.FlexDays
	}
	if r.DaysWorking.given {
		spec.Days = r.DaysWorking.set
	}

	if r.DateOverlap < int(matching.OverlapAny) || r.DateOverlap > int(matching.OverlapFull) {
		return spec, fmt.Errorf("date_overlap must be 0, 1 or 2")
	}
	spec.DateOverlap = matching.OverlapMode(r.DateOverlap)
	if r.StartDate != "" || r.EndDate != "" {
		start, err := matching.ParseMonth(r.StartDate)
		if err != nil {
			return spec, fmt.Errorf("start_date: %w", err)
		}
		end, err := matching.ParseMonth(r.EndDate)
		if err != nil {
			return spec, fmt.Errorf("end_date: %w", err)
		}
		if end < start {
			return spec, fmt.Errorf("end_date before start_date")
		}
		spec.Term = matching.MonthRange{Start: start, End: end}
	}

	spec.FavoritesOnly = r.Favorites
	spec.MessagedOnly = r.Messaged
	return spec, nil
}

func sliderLimit(field string, v *float64, top float64) (matching.Limit, error) {
	if v == nil {
		return matching.Unbounded(), nil
	}
	if *v < 0 {
		return matching.Limit{}, fmt.Errorf("%s must not be negative", field)
	}
	return matching.SliderLimit(*v, top), nil
}

// dayFlags accepts seven booleans (Sunday first) or the comma-joined form "0,1,0,1,0,1,0".
type dayFlags struct {
	set   matching.DaySet
	given bool
}

func (f *dayFlags) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var joined string
	if err := json.Unmarshal(b, &joined); err == nil {
		set, err := matching.ParseDayFlags(joined)
		if err != nil {
			return err
		}
		f.set, f.given = set, true
		return nil
	}
	var flags []bool
	if err := json.Unmarshal(b, &flags); err != nil {
		return fmt.Errorf("days_working: %w", err)
	}
	if len(flags) != 7 {
		return fmt.Errorf("days_working needs 7 flags, got %d", len(flags))
	}
	f.set, f.given = matching.DaySetFromFlags(flags), true
	return nil
}

// flags returns nil when the field was absent.
func (f dayFlags) flags() []bool {
	if !f.given {
		return nil
	}
	return f.set.Flags()
}
