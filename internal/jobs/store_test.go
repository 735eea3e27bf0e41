package jobs_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"rumen/internal/jobs"
	"rumen/internal/testsupport"
)

func TestStoreInsertAndFetch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	created, err := store.NewJob(ctx, uuid.NewString(), "/dropbox/notes/a.md", "notes")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if created.Status != jobs.StatusQueued {
		t.Fatalf("expected queued status, got %s", created.Status)
	}

	fetched, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected job, got nil")
	}
	if fetched.SourcePath != created.SourcePath || fetched.Folder != "notes" {
		t.Fatalf("unexpected job data: %+v", fetched)
	}
	if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to round-trip")
	}
}

func TestStoreGetByIDMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.GetByID(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil for unknown id, got %+v", job)
	}
}

func TestStoreUpdateLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "/dropbox/notes/b.md", "notes")

	job.SetProcessing()
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("update to processing: %v", err)
	}

	job.SetRetrying(1, "rate limited")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("update to retrying: %v", err)
	}

	job.SetCompleted("/results/notes_b_20240101T000000Z.md", 2)
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("update to completed: %v", err)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed, got %s", fetched.Status)
	}
	if fetched.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", fetched.Attempts)
	}
	if fetched.ErrorMessage != "" {
		t.Fatalf("expected cleared error message, got %q", fetched.ErrorMessage)
	}
	if fetched.OutputPath == "" {
		t.Fatal("expected output path to persist")
	}
	if !fetched.UpdatedAt.After(fetched.CreatedAt) {
		t.Fatal("expected updated_at to advance")
	}
}

func TestStoreUpdateMissingJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ghost := &jobs.Job{ID: uuid.NewString(), Status: jobs.StatusProcessing}
	if err := store.Update(context.Background(), ghost); err == nil {
		t.Fatal("expected error updating unknown job")
	}
}

func TestStoreListOrdersNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewJob(t, store, "/dropbox/notes/1.md", "notes")
	second := testsupport.NewJob(t, store, "/dropbox/notes/2.md", "notes")
	third := testsupport.NewJob(t, store, "/dropbox/notes/3.md", "notes")

	listed, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(listed))
	}
	if listed[0].ID == first.ID {
		t.Fatal("expected newest jobs first")
	}
	_ = second
	_ = third
}

func TestStoreListByStatus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	queued := testsupport.NewJob(t, store, "/dropbox/notes/q.md", "notes")
	failed := testsupport.NewJob(t, store, "/dropbox/notes/f.md", "notes")
	failed.SetFailed("permanent", 1, "invalid request")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("update: %v", err)
	}

	failedJobs, err := store.ListByStatus(ctx, jobs.StatusFailed, 10)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(failedJobs) != 1 || failedJobs[0].ID != failed.ID {
		t.Fatalf("unexpected failed jobs: %+v", failedJobs)
	}
	if failedJobs[0].ErrorClass != "permanent" {
		t.Fatalf("expected permanent error class, got %q", failedJobs[0].ErrorClass)
	}

	queuedJobs, err := store.ListByStatus(ctx, jobs.StatusQueued, 10)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(queuedJobs) != 1 || queuedJobs[0].ID != queued.ID {
		t.Fatalf("unexpected queued jobs: %+v", queuedJobs)
	}
}

func TestStoreHealthCounts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, store, "/dropbox/notes/a.md", "notes")

	processing := testsupport.NewJob(t, store, "/dropbox/notes/b.md", "notes")
	processing.SetProcessing()
	if err := store.Update(ctx, processing); err != nil {
		t.Fatalf("update: %v", err)
	}

	retrying := testsupport.NewJob(t, store, "/dropbox/notes/c.md", "notes")
	retrying.SetRetrying(1, "timeout")
	if err := store.Update(ctx, retrying); err != nil {
		t.Fatalf("update: %v", err)
	}

	done := testsupport.NewJob(t, store, "/dropbox/notes/d.md", "notes")
	done.SetCompleted("/results/out.md", 1)
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("update: %v", err)
	}

	summary, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if summary.Total != 4 {
		t.Fatalf("expected 4 total, got %d", summary.Total)
	}
	if summary.Queued != 1 || summary.Processing != 2 || summary.Completed != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestStoreResetStale(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	queued := testsupport.NewJob(t, store, "/dropbox/notes/a.md", "notes")

	processing := testsupport.NewJob(t, store, "/dropbox/notes/b.md", "notes")
	processing.SetProcessing()
	if err := store.Update(ctx, processing); err != nil {
		t.Fatalf("update: %v", err)
	}

	done := testsupport.NewJob(t, store, "/dropbox/notes/c.md", "notes")
	done.SetCompleted("/results/out.md", 1)
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("update: %v", err)
	}

	affected, err := store.ResetStale(ctx, "")
	if err != nil {
		t.Fatalf("ResetStale: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 stale jobs reset, got %d", affected)
	}

	for _, id := range []string{queued.ID, processing.ID} {
		job, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if job.Status != jobs.StatusFailed {
			t.Fatalf("expected failed after reset, got %s", job.Status)
		}
		if job.ErrorMessage != jobs.DaemonStopReason {
			t.Fatalf("unexpected reset message: %q", job.ErrorMessage)
		}
		if job.ErrorClass != jobs.DaemonStopClass {
			t.Fatalf("unexpected reset class: %q", job.ErrorClass)
		}
	}

	completed, err := store.GetByID(ctx, done.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if completed.Status != jobs.StatusCompleted {
		t.Fatalf("completed job should be untouched, got %s", completed.Status)
	}
}

func TestStoreFindByIDPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := store.NewJob(ctx, "aaaa1111-0000-0000-0000-000000000001", "/dropbox/notes/a.md", "notes")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if _, err := store.NewJob(ctx, "aaaa2222-0000-0000-0000-000000000002", "/dropbox/notes/b.md", "notes"); err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	found, err := store.FindByIDPrefix(ctx, first.ID)
	if err != nil {
		t.Fatalf("FindByIDPrefix exact: %v", err)
	}
	if found == nil || found.ID != first.ID {
		t.Fatalf("exact lookup returned %+v", found)
	}

	found, err = store.FindByIDPrefix(ctx, "aaaa1111")
	if err != nil {
		t.Fatalf("FindByIDPrefix: %v", err)
	}
	if found == nil || found.ID != first.ID {
		t.Fatalf("prefix lookup returned %+v", found)
	}

	if _, err := store.FindByIDPrefix(ctx, "aaaa"); err == nil {
		t.Fatal("expected ambiguous prefix to error")
	}

	found, err = store.FindByIDPrefix(ctx, "ffff")
	if err != nil {
		t.Fatalf("FindByIDPrefix missing: %v", err)
	}
	if found != nil {
		t.Fatalf("expected nil for unmatched prefix, got %+v", found)
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]struct {
		want jobs.Status
		ok   bool
	}{
		"queued":     {jobs.StatusQueued, true},
		" Completed": {jobs.StatusCompleted, true},
		"RETRYING":   {jobs.StatusRetrying, true},
		"unknown":    {"", false},
		"":           {"", false},
	}
	for input, expected := range cases {
		got, ok := jobs.ParseStatus(input)
		if ok != expected.ok {
			t.Fatalf("ParseStatus(%q) ok = %v, want %v", input, ok, expected.ok)
		}
		if expected.ok && got != expected.want {
			t.Fatalf("ParseStatus(%q) = %s, want %s", input, got, expected.want)
		}
	}
}
