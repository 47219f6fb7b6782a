package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"inkcal/internal/fsutil"
	appLog "inkcal/internal/log"
)

// FileStore keeps the token as a small JSON document on disk.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("token: read %s: %w", s.path, err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil || rec.RefreshToken == "" {
		appLog.Debug("token file unreadable, treating as absent", "path", s.path, "err", err)
		return "", ErrNotFound
	}
	return rec.RefreshToken, nil
}

func (s *FileStore) Save(_ context.Context, refreshToken string) error {
	data, err := json.MarshalIndent(newRecord(refreshToken, s.now()), "", "  ")
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("token: save: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("token: delete: %w", err)
	}
	return nil
}
