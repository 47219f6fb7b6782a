// Package snapshot writes the display payload to disk, once or on a cron
// schedule, for displays that poll a static file instead of the API.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"

	"inkcal/internal/fsutil"
	appLog "inkcal/internal/log"
	"inkcal/internal/model"
)

// buildTimeout bounds a single scheduled build.
const buildTimeout = 2 * time.Minute

// Builder produces the payload. *pipeline.Builder implements it.
type Builder interface {
	Build(ctx context.Context) (*model.Payload, error)
}

// Encode renders p as indented JSON with a trailing newline.
func Encode(p *model.Payload) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteTo builds one payload and writes it to w.
func WriteTo(ctx context.Context, b Builder, w io.Writer) error {
	p, err := b.Build(ctx)
	if err != nil {
		return err
	}
	data, err := Encode(p)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile builds one payload and replaces path atomically. A failed build
// leaves the previous file in place.
func WriteFile(ctx context.Context, b Builder, path string) error {
	p, err := b.Build(ctx)
	if err != nil {
		return err
	}
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	appLog.Info("snapshot written", "path", path, "events", p.EventCount, "weather", p.Weather != nil)
	return nil
}

// Scheduler rewrites the snapshot file on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	builder Builder
	path    string
}

// NewScheduler validates spec (standard five-field cron syntax, or
// descriptors such as "@every 15m") and registers the write job.
func NewScheduler(spec string, b Builder, path string) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		builder: b,
		path:    path,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("snapshot schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()
	if err := WriteFile(ctx, s.builder, s.path); err != nil {
		appLog.Error("snapshot refresh failed", err, "path", s.path)
	}
}

// Run writes one snapshot immediately, then follows the schedule until ctx
// is cancelled. Running jobs are allowed to finish before it returns.
func (s *Scheduler) Run(ctx context.Context) {
	s.run()
	s.cron.Start()
	appLog.Info("snapshot schedule started", "path", s.path, "next", s.cron.Entries()[0].Next.Format(time.RFC3339))

	<-ctx.Done()
	<-s.cron.Stop().Done()
}
