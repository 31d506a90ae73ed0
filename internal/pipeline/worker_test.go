package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgallion1/maillink/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		WorkerCount:      1,
		MaxQueueSize:     1,
		SessionTTL:       time.Hour,
		JobTTL:           time.Hour,
		SurroundingRange: 20,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestWorker_ProcessConvertsHTML(t *testing.T) {
	w := NewWorker(testConfig(), testLogger())
	job := &Job{ID: "j1", Filename: "team.html", Status: StatusQueued, UpdatedAt: time.Now()}
	job.SetFileData([]byte(`<p>new@test.org</p><a href="mailto:x@y.com">x@y.com</a>`))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (errors %v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.AddressesFound != 2 || snap.Progress.AddressesConverted != 1 {
		t.Errorf("expected found=2 converted=1, got %+v", snap.Progress)
	}
	res, extracted := job.Result()
	want := `<p><a href="mailto:new@test.org">new@test.org</a></p><a href="mailto:x@y.com">x@y.com</a>`
	if res.Text != want {
		t.Errorf("expected %q, got %q", want, res.Text)
	}
	if extracted {
		t.Error("html should not be marked extracted")
	}
	if job.ContentHash == "" {
		t.Error("expected content hash to be set")
	}
	if stats := w.Stats(); stats.Conversions != 1 || stats.AddressesConverted != 1 {
		t.Errorf("expected one recorded conversion, got %+v", stats)
	}
}

func TestWorker_ProcessNothingFound(t *testing.T) {
	w := NewWorker(testConfig(), testLogger())
	job := &Job{ID: "j2", Filename: "plain.txt", UpdatedAt: time.Now()}
	job.SetFileData([]byte("no addresses here"))

	w.Process(context.Background(), job)

	if snap := job.Snapshot(); snap.Status != StatusNothingFound {
		t.Fatalf("expected nothing_found, got %q", snap.Status)
	}
	res, _ := job.Result()
	if res == nil || res.Text != "no addresses here" {
		t.Errorf("expected unchanged text in result, got %+v", res)
	}
}

func TestWorker_ProcessUnsupported(t *testing.T) {
	w := NewWorker(testConfig(), testLogger())
	job := &Job{ID: "j3", Filename: "image.png", UpdatedAt: time.Now()}
	job.SetFileData([]byte{0x89, 'P', 'N', 'G'})

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", snap.Progress.Errors)
	}
}

func TestOrchestrator_RunsSubmittedJobs(t *testing.T) {
	o := NewOrchestrator(testConfig(), testLogger())
	o.Start(context.Background())
	defer o.Stop()

	job := &Job{ID: "j4", Filename: "a.txt", Status: StatusQueued, UpdatedAt: time.Now()}
	job.SetFileData([]byte("write a@b.com"))
	if err := o.Submit(job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if job.Snapshot().Status == StatusCompleted {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := o.GetJob("j4"); got == nil || got.Snapshot().Status != StatusCompleted {
		t.Fatalf("expected job to complete, got %+v", job.Snapshot())
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// Not started: nothing drains the queue.
	o := NewOrchestrator(testConfig(), testLogger())

	first := &Job{ID: "q1", Filename: "a.txt", UpdatedAt: time.Now()}
	if err := o.Submit(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second := &Job{ID: "q2", Filename: "b.txt", UpdatedAt: time.Now()}
	err := o.Submit(second)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if second.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", second.Snapshot().Status)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(testConfig(), testLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	job := &Job{ID: "late", Filename: "a.txt", UpdatedAt: time.Now()}
	err := o.Submit(job)
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if job.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", job.Snapshot().Status)
	}
}
