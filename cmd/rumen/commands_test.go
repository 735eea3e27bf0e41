package main

import (
	"context"
	"path/filepath"
	"testing"

	"rumen/internal/testsupport"
)

func TestStatusCommandRendersSections(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon")
	requireContains(t, out, "Running")
	requireContains(t, out, "1 watched")
	requireContains(t, out, "Total")
}

func TestJobsCommandListsAndShowsDetail(t *testing.T) {
	env := setupCLITestEnv(t)

	job := testsupport.NewJob(t, env.store, "/watch/notes/memo.md", "notes")
	job.SetCompleted("/out/notes_memo.md", 2)
	if err := env.store.Update(context.Background(), job); err != nil {
		t.Fatalf("update job: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, "memo.md")
	requireContains(t, out, "completed")

	out, _, err = runCLI(t, []string{"jobs", job.ID[:8]}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("jobs detail: %v", err)
	}
	requireContains(t, out, job.ID)
	requireContains(t, out, "/out/notes_memo.md")

	if _, _, err := runCLI(t, []string{"jobs", "--status", "bogus"}, env.address, env.configPath); err == nil {
		t.Fatal("expected error for unknown status filter")
	}
}

func TestJobsCommandEmptyList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"jobs"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, "No jobs recorded")
}

func TestResultsCommandListsFiles(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"results"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	requireContains(t, out, "No results yet")

	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.OutputDir, "notes_memo_20240101T000000Z.md"), "body")

	out, _, err = runCLI(t, []string{"results"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	requireContains(t, out, "notes_memo_20240101T000000Z.md")
}

func TestFoldersCommandListsConfiguredFolders(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"folders"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("folders: %v", err)
	}
	requireContains(t, out, "notes")
	requireContains(t, out, "yes")
}

func TestProcessCommandTransformsFile(t *testing.T) {
	env := setupCLITestEnv(t)

	source := filepath.Join(t.TempDir(), "memo.md")
	testsupport.WriteFile(t, source, "raw content")

	out, _, err := runCLI(t, []string{"process", source, "--folder", "notes"}, env.address, env.configPath)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	requireContains(t, out, "Processed in 1 attempt(s)")
	requireContains(t, out, "Result:")

	if _, _, err := runCLI(t, []string{"process", source}, env.address, env.configPath); err == nil {
		t.Fatal("expected error when --folder is missing")
	}
}
