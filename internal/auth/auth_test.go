package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"inkcal/internal/config"
	"inkcal/internal/token"
)

type memStore struct{ refresh string }

func (m *memStore) Load(context.Context) (string, error) {
	if m.refresh == "" {
		return "", token.ErrNotFound
	}
	return m.refresh, nil
}

func (m *memStore) Save(_ context.Context, rt string) error { m.refresh = rt; return nil }

func (m *memStore) Delete(context.Context) error { m.refresh = ""; return nil }

// tokenServer fakes Google's token endpoint.
func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Error(err)
			return
		}
		if r.PostForm.Get("client_id") != "cid" || r.PostForm.Get("client_secret") != "secret" {
			t.Errorf("client credentials not sent in body: %v", r.PostForm)
		}

		resp := map[string]any{"token_type": "Bearer", "expires_in": 3600}
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			switch r.PostForm.Get("code") {
			case "good":
				resp["access_token"] = "access-1"
				resp["refresh_token"] = "refresh-1"
			case "no-refresh":
				resp["access_token"] = "access-1"
			default:
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
		case "refresh_token":
			if r.PostForm.Get("refresh_token") != "refresh-1" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
				return
			}
			resp["access_token"] = "access-2"
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(t *testing.T, store token.Store) *Provider {
	t.Helper()
	srv := tokenServer(t)
	cfg := config.GoogleConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost:8000/oauth/callback",
		AuthURL:      "https://accounts.example.com/auth",
		TokenURL:     srv.URL + "/token",
	}
	return NewProvider(cfg, store, srv.Client())
}

func TestAuthCodeURL(t *testing.T) {
	p := newTestProvider(t, &memStore{})
	u, err := url.Parse(p.AuthCodeURL("st4te"))
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	checks := map[string]string{
		"client_id":     "cid",
		"redirect_uri":  "http://localhost:8000/oauth/callback",
		"response_type": "code",
		"scope":         CalendarScope,
		"access_type":   "offline",
		"prompt":        "consent",
		"state":         "st4te",
	}
	for k, want := range checks {
		if got := q.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestExchangeAndRefresh(t *testing.T) {
	store := &memStore{}
	p := newTestProvider(t, store)
	ctx := context.Background()

	if _, err := p.AccessToken(ctx); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("AccessToken before connect: err = %v", err)
	}
	if p.Authenticated(ctx) {
		t.Fatal("Authenticated before connect")
	}

	if err := p.Exchange(ctx, "good"); err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if store.refresh != "refresh-1" || !p.Authenticated(ctx) {
		t.Fatalf("refresh token not stored: %q", store.refresh)
	}

	at, err := p.AccessToken(ctx)
	if err != nil || at != "access-2" {
		t.Fatalf("AccessToken = %q, %v", at, err)
	}

	if err := p.Disconnect(ctx); err != nil {
		t.Fatal(err)
	}
	if p.Authenticated(ctx) {
		t.Fatal("still authenticated after Disconnect")
	}
}

func TestExchange_Failures(t *testing.T) {
	store := &memStore{}
	p := newTestProvider(t, store)

	for _, code := range []string{"bad", "no-refresh"} {
		err := p.Exchange(context.Background(), code)
		var ae *Error
		if !errors.As(err, &ae) {
			t.Errorf("Exchange(%q): err = %v, want *Error", code, err)
		}
	}
	if store.refresh != "" {
		t.Errorf("refresh token stored after failure: %q", store.refresh)
	}
}

func TestAccessToken_RevokedRefreshToken(t *testing.T) {
	p := newTestProvider(t, &memStore{refresh: "revoked"})
	_, err := p.AccessToken(context.Background())
	var ae *Error
	if !errors.As(err, &ae) || ae.Op != "token refresh" {
		t.Fatalf("err = %v, want refresh *Error", err)
	}
}

func TestPendingState(t *testing.T) {
	var s PendingState
	if s.Validate("") || s.Validate("anything") {
		t.Fatal("empty state validated")
	}

	first, err := s.Generate()
	if err != nil {
		t.Fatal(err)
	}
	if len(first) < 40 || !s.Validate(first) {
		t.Fatalf("state %q not valid", first)
	}

	second, _ := s.Generate()
	if first == second || s.Validate(first) || !s.Validate(second) {
		t.Fatal("new flow must replace the pending state")
	}

	s.Clear()
	if s.Validate(second) {
		t.Fatal("state still valid after Clear")
	}
}
