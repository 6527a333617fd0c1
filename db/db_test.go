package db

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nijaru/yt-channel-text/models"
	apperrors "github.com/nijaru/yt-channel-text/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	store, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open file store: %v", err)
	}
	defer store.Close()

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}
}

func TestCreateAndGetJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &models.Job{ID: "job-1", Kind: models.JobKindChannel, Input: "@canal", Filter: "all", Status: models.StatusQueued}
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if got.Kind != models.JobKindChannel || got.Input != "@canal" || got.Status != models.StatusQueued {
		t.Errorf("unexpected job: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestGetJobNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetJob(context.Background(), "missing")
	if !apperrors.Is(err, apperrors.KindNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestUpdateJob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &models.Job{ID: "job-1", Kind: models.JobKindVideo, Input: "https://youtu.be/abc", Status: models.StatusQueued}
	if err := store.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	job.Status = models.StatusTranscribing
	job.Done, job.Total = 1, 3
	if err := store.UpdateJob(ctx, job); err != nil {
		t.Fatalf("Failed to update job: %v", err)
	}

	got, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusTranscribing || got.Done != 1 || got.Total != 3 {
		t.Errorf("unexpected job after update: %+v", got)
	}

	missing := &models.Job{ID: "nope"}
	if err := store.UpdateJob(ctx, missing); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Errorf("expected not found updating missing job, got %v", err)
	}
}

func TestSaveResultsKeepsOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateJob(ctx, &models.Job{ID: "job-1", Kind: models.JobKindChannel, Input: "x", Status: models.StatusQueued}); err != nil {
		t.Fatal(err)
	}

	results := []models.Result{
		{VideoID: "c", URL: "u/c", OK: true, Text: "third"},
		{VideoID: "a", URL: "u/a", Error: "no transcript"},
		{VideoID: "b", URL: "u/b", OK: true, Text: "second"},
	}
	if err := store.SaveResults(ctx, "job-1", results); err != nil {
		t.Fatalf("Failed to save results: %v", err)
	}

	job, err := store.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(job.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(job.Results))
	}
	for i, want := range []string{"c", "a", "b"} {
		if job.Results[i].VideoID != want {
			t.Errorf("result %d: expected %s, got %s", i, want, job.Results[i].VideoID)
		}
		if job.Results[i].Text != "" {
			t.Errorf("manifest should not carry text, got %q", job.Results[i].Text)
		}
	}

	full, err := store.GetResults(ctx, "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if full[0].Text != "third" || full[1].OK || full[1].Error != "no transcript" {
		t.Errorf("unexpected full results: %+v", full)
	}

	if err := store.SaveResults(ctx, "job-1", results[:1]); err != nil {
		t.Fatal(err)
	}
	full, _ = store.GetResults(ctx, "job-1")
	if len(full) != 1 {
		t.Errorf("expected results to be replaced, got %d", len(full))
	}
}

func TestListJobs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		job := &models.Job{ID: fmt.Sprintf("job-%d", i), Kind: models.JobKindVideo, Input: "x", Status: models.StatusQueued, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.CreateJob(ctx, job); err != nil {
			t.Fatal(err)
		}
	}

	jobs, err := store.ListJobs(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 || jobs[0].ID != "job-2" || jobs[1].ID != "job-1" {
		t.Errorf("unexpected job order: %v", jobs)
	}
}

func TestFailStaleJobs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"running", "done"} {
		if err := store.CreateJob(ctx, &models.Job{ID: id, Kind: models.JobKindVideo, Input: "x", Status: models.StatusTranscribing}); err != nil {
			t.Fatal(err)
		}
	}
	done, _ := store.GetJob(ctx, "done")
	done.Status = models.StatusCompleted
	if err := store.UpdateJob(ctx, done); err != nil {
		t.Fatal(err)
	}

	n, err := store.FailStaleJobs(ctx, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 stale job, got %d", n)
	}

	job, _ := store.GetJob(ctx, "running")
	if job.Status != models.StatusFailed {
		t.Errorf("expected stale job to fail, got %s", job.Status)
	}
}

func TestTranscriptCache(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.GetTranscript(ctx, "abc123")
	if err != nil || found {
		t.Fatalf("expected cache miss, got found=%v err=%v", found, err)
	}

	if err := store.SaveTranscript(ctx, "abc123", "pt", "olá mundo"); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveTranscript(ctx, "abc123", "en", "hello world"); err != nil {
		t.Fatal(err)
	}

	cached, found, err := store.GetTranscript(ctx, "abc123")
	if err != nil || !found {
		t.Fatalf("expected cache hit, got found=%v err=%v", found, err)
	}
	if cached.Text != "hello world" {
		t.Errorf("expected upserted text, got %q", cached.Text)
	}
	if cached.Language != "en" {
		t.Errorf("expected upserted language en, got %q", cached.Language)
	}
	if cached.VideoID != "abc123" {
		t.Errorf("expected video id abc123, got %q", cached.VideoID)
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTransaction(ctx, func(tx Executor) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO transcripts (video_id, text, created_at) VALUES (?, ?, ?)", "x", "t", time.Now()); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	if err == nil {
		t.Fatal("expected error from transaction")
	}

	if _, found, _ := store.GetTranscript(ctx, "x"); found {
		t.Error("expected insert to be rolled back")
	}
}
