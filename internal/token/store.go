// Package token persists the OAuth refresh credential between runs.
package token

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when no refresh token is stored.
var ErrNotFound = errors.New("token: no refresh token stored")

// Store holds a single refresh token.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, refreshToken string) error
	Delete(ctx context.Context) error
}

// record is the persisted shape. created_at is RFC 3339 UTC.
type record struct {
	RefreshToken string `json:"refresh_token" db:"refresh_token"`
	CreatedAt    string `json:"created_at" db:"created_at"`
}

func newRecord(refreshToken string, now time.Time) record {
	return record{
		RefreshToken: refreshToken,
		CreatedAt:    now.UTC().Format(time.RFC3339),
	}
}
