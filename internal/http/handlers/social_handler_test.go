package handlers_test

import (
	"context"
	"net/http"
	"testing"

	"carpool/internal/modules/profile"
	"carpool/internal/modules/social"
	"carpool/internal/types"
)

type socialCall struct {
	uid, other types.ID
	add        bool
}

type fakeSocial struct {
	favorites []socialCall
	messaged  []socialCall
}

func (f *fakeSocial) SetFavorite(_ context.Context, uid, other types.ID, add bool) error {
	if uid == other {
		return social.ErrBadRequest
	}
	f.favorites = append(f.favorites, socialCall{uid: uid, other: other, add: add})
	return nil
}

func (f *fakeSocial) MarkMessaged(_ context.Context, uid, other types.ID) error {
	if uid == other {
		return social.ErrBadRequest
	}
	f.messaged = append(f.messaged, socialCall{uid: uid, other: other})
	return nil
}

func TestFavorites_AddRemove(t *testing.T) {
	fs := &fakeSocial{}
	r := buildTestRouter(makeVerifier("me"), testDeps{social: fs})

	if w := doRequest(r, http.MethodPut, "/api/favorites/driver1", nil, "Bearer token"); w.Code != http.StatusNoContent {
		t.Fatalf("add: expected 204, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodDelete, "/api/favorites/driver1", nil, "Bearer token"); w.Code != http.StatusNoContent {
		t.Fatalf("remove: expected 204, got %d", w.Code)
	}
	want := []socialCall{{"me", "driver1", true}, {"me", "driver1", false}}
	if len(fs.favorites) != 2 || fs.favorites[0] != want[0] || fs.favorites[1] != want[1] {
		t.Errorf("unexpected calls: %+v", fs.favorites)
	}
}

func TestFavorites_Self(t *testing.T) {
	r := buildTestRouter(makeVerifier("me"), testDeps{social: &fakeSocial{}})
	w := doRequest(r, http.MethodPut, "/api/favorites/me", nil, "Bearer token")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestFavorites_InvalidID(t *testing.T) {
	fs := &fakeSocial{}
	r := buildTestRouter(makeVerifier("me"), testDeps{social: fs})
	w := doRequest(r, http.MethodPut, "/api/favorites/a%20b", nil, "Bearer token")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if len(fs.favorites) != 0 {
		t.Errorf("service should not be called for an invalid id")
	}
}

func TestListFavorites(t *testing.T) {
	explorer := &fakeExplorer{favorites: []profile.Profile{{ID: "driver1"}, {ID: "driver2"}}}
	r := buildTestRouter(makeVerifier("me"), testDeps{explorer: explorer})
	w := doRequest(r, http.MethodGet, "/api/favorites", nil, "Bearer token")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got struct {
		Profiles []struct {
			ID string `json:"id"`
		} `json:"profiles"`
	}
	decode(t, w, &got)
	if len(got.Profiles) != 2 || got.Profiles[1].ID != "driver2" {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestListFavorites_EmptyIsArray(t *testing.T) {
	r := buildTestRouter(makeVerifier("me"), testDeps{})
	w := doRequest(r, http.MethodGet, "/api/favorites", nil, "Bearer token")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"profiles":[]}` {
		t.Errorf("expected empty array, got %s", body)
	}
}

func TestMarkMessaged(t *testing.T) {
	fs := &fakeSocial{}
	r := buildTestRouter(makeVerifier("me"), testDeps{social: fs})
	w := doRequest(r, http.MethodPost, "/api/messaged/driver1", nil, "Bearer token")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if len(fs.messaged) != 1 || fs.messaged[0].other != "driver1" {
		t.Errorf("unexpected calls: %+v", fs.messaged)
	}
}
