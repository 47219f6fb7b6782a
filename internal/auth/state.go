package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"sync"
)

// PendingState is the single in-flight authorization state token. Starting
// a new flow replaces the previous token.
type PendingState struct {
	mu    sync.Mutex
	value string
}

// Generate creates and remembers a fresh URL-safe state token.
func (s *PendingState) Generate() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	v := base64.RawURLEncoding.EncodeToString(b)

	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	return v, nil
}

// Validate reports whether state matches the pending token.
func (s *PendingState) Validate(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.value), []byte(state)) == 1
}

// Clear drops the pending token once a flow completes.
func (s *PendingState) Clear() {
	s.mu.Lock()
	s.value = ""
	s.mu.Unlock()
}
