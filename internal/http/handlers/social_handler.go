// README: Social handlers for favorites and messaged contacts.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	httpmiddleware "carpool/internal/http/middleware"
	"carpool/internal/modules/profile"
	"carpool/internal/types"
)

type SocialService interface {
	SetFavorite(ctx context.Context, uid, other types.ID, add bool) error
	MarkMessaged(ctx context.Context, uid, other types.ID) error
}

type FavoriteLister interface {
	FavoriteProfiles(ctx context.Context, uid types.ID) ([]profile.Profile, error)
}

type SocialHandler struct {
	social    SocialService
	favorites FavoriteLister
}

func NewSocialHandler(social SocialService, favorites FavoriteLister) *SocialHandler {
	return &SocialHandler{social: social, favorites: favorites}
}

// ListFavorites returns the caller's favorites that could still match them.
func (h *SocialHandler) ListFavorites(c *gin.Context) {
	ps, err := h.favorites.FavoriteProfiles(c.Request.Context(), types.ID(httpmiddleware.CallerUID(c)))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if ps == nil {
		ps = []profile.Profile{}
	}
	writeJSON(c, http.StatusOK, gin.H{"profiles": ps})
}

func (h *SocialHandler) AddFavorite(c *gin.Context) {
	h.setFavorite(c, true)
}

func (h *SocialHandler) RemoveFavorite(c *gin.Context) {
	h.setFavorite(c, false)
}

func (h *SocialHandler) setFavorite(c *gin.Context, add bool) {
	other, ok := targetID(c)
	if !ok {
		return
	}
	if err := h.social.SetFavorite(c.Request.Context(), types.ID(httpmiddleware.CallerUID(c)), other, add); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkMessaged records that the caller opened a conversation with the target user.
func (h *SocialHandler) MarkMessaged(c *gin.Context) {
	other, ok := targetID(c)
	if !ok {
		return
	}
	if err := h.social.MarkMessaged(c.Request.Context(), types.ID(httpmiddleware.CallerUID(c)), other); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func targetID(c *gin.Context) (types.ID, bool) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid user id")
		return "", false
	}
	return types.ID(id), true
}
