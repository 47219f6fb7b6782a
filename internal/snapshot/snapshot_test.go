package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"inkcal/internal/model"
)

type fakeBuilder struct {
	payload *model.Payload
	err     error
}

func (b fakeBuilder) Build(context.Context) (*model.Payload, error) { return b.payload, b.err }

func payload(n int) *model.Payload {
	events := make([]model.Event, n)
	for i := range events {
		events[i] = model.Event{ID: "e", Summary: "Standup", Date: "2024-03-18", DateFormatted: "Mon Mar 18"}
	}
	return &model.Payload{
		GeneratedAt: time.Date(2024, 3, 18, 8, 0, 0, 0, time.UTC),
		Timezone:    "UTC",
		EventCount:  n,
		Events:      events,
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "payload.json")

	if err := WriteFile(context.Background(), fakeBuilder{payload: payload(2)}, path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got model.Payload
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.EventCount != 2 || len(got.Events) != 2 {
		t.Errorf("got %+v", got)
	}

	boom := errors.New("boom")
	if err := WriteFile(context.Background(), fakeBuilder{err: boom}, path); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(after, data) {
		t.Error("failed build replaced the previous snapshot")
	}
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTo(context.Background(), fakeBuilder{payload: payload(0)}, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"weather": null`)) || !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestNewScheduler(t *testing.T) {
	if _, err := NewScheduler("not a schedule", fakeBuilder{}, "x"); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if _, err := NewScheduler("*/15 * * * *", fakeBuilder{}, "x"); err != nil {
		t.Errorf("five-field schedule rejected: %v", err)
	}
	if _, err := NewScheduler("@every 10m", fakeBuilder{}, "x"); err != nil {
		t.Errorf("descriptor rejected: %v", err)
	}
}

func TestSchedulerRunWritesImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.json")
	s, err := NewScheduler("@every 1h", fakeBuilder{payload: payload(1)}, path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("snapshot not written")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
