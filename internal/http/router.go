// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"carpool/internal/http/handlers"
	httpmiddleware "carpool/internal/http/middleware"
	"carpool/internal/infra"
)

type Handlers struct {
	Profiles *handlers.ProfileHandler
	Matches  *handlers.MatchHandler
	Social   *handlers.SocialHandler
	Places   *handlers.PlacesHandler
}

func NewRouter(h Handlers, verifier infra.TokenVerifier, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(httpmiddleware.Recovery(log), httpmiddleware.Logging(log), httpmiddleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", httpmiddleware.Auth(verifier))

	api.GET("/profiles/me", h.Profiles.GetMe)
	api.PUT("/profiles/me", h.Profiles.PutMe)
	api.DELETE("/profiles/me", h.Profiles.DeleteMe)
	api.GET("/profiles/:id", h.Profiles.Get)
	api.GET("/profiles/:id/route", h.Profiles.Route)

	api.POST("/matches", h.Matches.Explore)

	api.GET("/favorites", h.Social.ListFavorites)
	api.PUT("/favorites/:id", h.Social.AddFavorite)
	api.DELETE("/favorites/:id", h.Social.RemoveFavorite)
	api.POST("/messaged/:id", h.Social.MarkMessaged)

	api.GET("/places", h.Places.Search)
	return r
}
