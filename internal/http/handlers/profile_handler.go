// README: Profile handlers for the caller's own commute profile and other users' public view.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	httpmiddleware "carpool/internal/http/middleware"
	"carpool/internal/maps"
	"carpool/internal/modules/profile"
	"carpool/internal/types"
)

type ProfileService interface {
	Get(ctx context.Context, id types.ID) (*profile.Profile, error)
	Upsert(ctx context.Context, cmd profile.UpsertCommand) (*profile.Profile, error)
	Deactivate(ctx context.Context, id types.ID) error
}

type FavoriteChecker interface {
	IsFavorite(ctx context.Context, uid, other types.ID) (bool, error)
}

// RoutePreviewer is nil when no Maps API key is configured.
type RoutePreviewer interface {
	Preview(ctx context.Context, from, to types.Point) (maps.RoutePreview, error)
}

type ProfileHandler struct {
	profiles  ProfileService
	favorites FavoriteChecker
	routes    RoutePreviewer
}

func NewProfileHandler(profiles ProfileService, favorites FavoriteChecker, routes RoutePreviewer) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, favorites: favorites, routes: routes}
}

type upsertProfileReq struct {
	Name          string       `json:"name"`
	PreferredName string       `json:"preferred_name"`
	Role          string       `json:"role"`
	SeatAvail     int          `json:"seat_avail"`
	StartAddress  string       `json:"start_address"`
	EndAddress    string       `json:"end_address"`
	Start         *types.Point `json:"start"`
	End           *types.Point `json:"end"`
	DaysWorking   dayFlags     `json:"days_working"`
	StartTime     string       `json:"start_time"`
	EndTime       string       `json:"end_time"`
	TimeZone      string       `json:"time_zone"`
	StartDate     string       `json:"start_date"`
	EndDate       string       `json:"end_date"`
}

func (h *ProfileHandler) GetMe(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), types.ID(httpmiddleware.CallerUID(c)))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *ProfileHandler) PutMe(c *gin.Context) {
	var req upsertProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	// The token's role claim is the default when the form leaves the role out.
	role := req.Role
	if role == "" {
		role = httpmiddleware.CallerRole(c)
	}
	p, err := h.profiles.Upsert(c.Request.Context(), profile.UpsertCommand{
		UserID:        types.ID(httpmiddleware.CallerUID(c)),
		Name:          req.Name,
		PreferredName: req.PreferredName,
		Role:          role,
		SeatAvail:     req.SeatAvail,
		StartAddress:  req.StartAddress,
		EndAddress:    req.EndAddress,
		Start:         req.Start,
		End:           req.End,
		Days:          req.DaysWorking.flags(),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		TimeZone:      req.TimeZone,
		TermStart:     req.StartDate,
		TermEnd:       req.EndDate,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, p)
}

func (h *ProfileHandler) DeleteMe(c *gin.Context) {
	if err := h.profiles.Deactivate(c.Request.Context(), types.ID(httpmiddleware.CallerUID(c))); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Get returns another user's profile. Inactive profiles are only visible to their owner.
func (h *ProfileHandler) Get(c *gin.Context) {
	p, ok := h.visibleProfile(c)
	if !ok {
		return
	}
	uid := types.ID(httpmiddleware.CallerUID(c))
	favorite := false
	if h.favorites != nil && p.ID != uid {
		var err error
		if favorite, err = h.favorites.IsFavorite(c.Request.Context(), uid, p.ID); err != nil {
			writeServiceError(c, err)
			return
		}
	}
	writeJSON(c, http.StatusOK, gin.H{"profile": p, "is_favorite": favorite})
}

// Route previews the driving route of a profile's commute.
func (h *ProfileHandler) Route(c *gin.Context) {
	if h.routes == nil {
		writeError(c, http.StatusServiceUnavailable, "route preview disabled")
		return
	}
	p, ok := h.visibleProfile(c)
	if !ok {
		return
	}
	preview, err := h.routes.Preview(c.Request.Context(), p.Start, p.End)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, preview)
}

func (h *ProfileHandler) visibleProfile(c *gin.Context) (*profile.Profile, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid profile id")
		return nil, false
	}
	p, err := h.profiles.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return nil, false
	}
	if p.Status != profile.StatusActive && id != httpmiddleware.CallerUID(c) {
		writeServiceError(c, profile.ErrNotFound)
		return nil, false
	}
	return p, true
}
