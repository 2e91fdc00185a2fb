package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"carpool/internal/http/handlers"
	httpmiddleware "carpool/internal/http/middleware"
	"carpool/internal/infra"
)

// stubTokenVerifier is a test double for infra.TokenVerifier.
type stubTokenVerifier struct {
	token *infra.FirebaseToken
	err   error
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.FirebaseToken, error) {
	return s.token, s.err
}

func makeVerifier(uid string) *stubTokenVerifier {
	return makeRoleVerifier(uid, "")
}

func makeRoleVerifier(uid, role string) *stubTokenVerifier {
	claims := map[string]interface{}{}
	if role != "" {
		claims["role"] = role
	}
	return &stubTokenVerifier{token: &infra.FirebaseToken{UID: uid, Claims: claims}}
}

type testDeps struct {
	profiles  handlers.ProfileService
	favorites handlers.FavoriteChecker
	routes    handlers.RoutePreviewer
	explorer  *fakeExplorer
	social    handlers.SocialService
	places    handlers.AddressSearcher
}

// buildTestRouter wires a minimal Gin engine with the auth middleware and every handler.
func buildTestRouter(verifier infra.TokenVerifier, d testDeps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", httpmiddleware.Auth(verifier))

	ph := handlers.NewProfileHandler(d.profiles, d.favorites, d.routes)
	api.GET("/profiles/me", ph.GetMe)
	api.PUT("/profiles/me", ph.PutMe)
	api.DELETE("/profiles/me", ph.DeleteMe)
	api.GET("/profiles/:id", ph.Get)
	api.GET("/profiles/:id/route", ph.Route)

	var explorer *fakeExplorer
	if d.explorer != nil {
		explorer = d.explorer
	} else {
		explorer = &fakeExplorer{}
	}
	mh := handlers.NewMatchHandler(explorer)
	api.POST("/matches", mh.Explore)

	sh := handlers.NewSocialHandler(d.social, explorer)
	api.GET("/favorites", sh.ListFavorites)
	api.PUT("/favorites/:id", sh.AddFavorite)
	api.DELETE("/favorites/:id", sh.RemoveFavorite)
	api.POST("/messaged/:id", sh.MarkMessaged)

	api.GET("/places", handlers.NewPlacesHandler(d.places).Search)
	return r
}

func doRequest(r *gin.Engine, method, path string, body interface{}, authHeader string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
}
