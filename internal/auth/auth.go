// Package auth obtains Google access tokens from a stored refresh token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"inkcal/internal/config"
	appLog "inkcal/internal/log"
	"inkcal/internal/metrics"
	"inkcal/internal/token"
)

// CalendarScope grants read-only calendar access.
const CalendarScope = "https://www.googleapis.com/auth/calendar.readonly"

const service = "google_oauth"

// ErrNoCredential means no refresh token has been stored yet.
var ErrNoCredential = errors.New("auth: no refresh token stored")

// Error reports a rejected code exchange or token refresh. It is never
// retried; the user has to reconnect through the setup page.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("auth: %s failed: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Provider runs the OAuth authorization-code flow and mints access tokens.
type Provider struct {
	oauth  *oauth2.Config
	store  token.Store
	client *http.Client
}

// NewProvider builds a provider for cfg. A nil client uses the oauth2
// package default.
func NewProvider(cfg config.GoogleConfig, store token.Store, client *http.Client) *Provider {
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{CalendarScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		store:  store,
		client: client,
	}
}

func (p *Provider) ctx(ctx context.Context) context.Context {
	if p.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

// AuthCodeURL returns the consent URL. Offline access and a forced consent
// prompt make Google return a refresh token every time.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens and stores the refresh
// token.
func (p *Provider) Exchange(ctx context.Context, code string) error {
	tok, err := p.oauth.Exchange(p.ctx(ctx), code)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(service, "error").Inc()
		return &Error{Op: "token exchange", Err: err}
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(service, "ok").Inc()

	if tok.RefreshToken == "" {
		return &Error{Op: "token exchange", Err: errors.New("no refresh token in response")}
	}
	if err := p.store.Save(ctx, tok.RefreshToken); err != nil {
		return err
	}
	appLog.Info("google account connected")
	return nil
}

// AccessToken refreshes a short-lived access token from the stored refresh
// token.
func (p *Provider) AccessToken(ctx context.Context) (string, error) {
	refresh, err := p.store.Load(ctx)
	if errors.Is(err, token.ErrNotFound) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", err
	}

	tok, err := p.oauth.TokenSource(p.ctx(ctx), &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(service, "error").Inc()
		return "", &Error{Op: "token refresh", Err: err}
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(service, "ok").Inc()

	if tok.RefreshToken != "" && tok.RefreshToken != refresh {
		if err := p.store.Save(ctx, tok.RefreshToken); err != nil {
			appLog.Error("rotated refresh token not saved", err)
		}
	}
	return tok.AccessToken, nil
}

// Authenticated reports whether a refresh token is stored.
func (p *Provider) Authenticated(ctx context.Context) bool {
	_, err := p.store.Load(ctx)
	return err == nil
}

// Disconnect forgets the stored refresh token.
func (p *Provider) Disconnect(ctx context.Context) error {
	if err := p.store.Delete(ctx); err != nil {
		return err
	}
	appLog.Info("google account disconnected")
	return nil
}
