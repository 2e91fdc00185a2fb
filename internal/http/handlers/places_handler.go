// README: Address autocomplete for the profile form.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carpool/internal/maps"
)

// AddressSearcher is nil when no Maps API key is configured.
type AddressSearcher interface {
	SearchAddress(ctx context.Context, query string) ([]maps.Place, error)
}

type PlacesHandler struct {
	places AddressSearcher
}

func NewPlacesHandler(places AddressSearcher) *PlacesHandler {
	return &PlacesHandler{places: places}
}

func (h *PlacesHandler) Search(c *gin.Context) {
	if h.places == nil {
		writeError(c, http.StatusServiceUnavailable, "address search disabled")
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		writeError(c, http.StatusBadRequest, "missing query")
		return
	}
	places, err := h.places.SearchAddress(c.Request.Context(), q)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if places == nil {
		places = []maps.Place{}
	}
	writeJSON(c, http.StatusOK, gin.H{"places": places})
}
