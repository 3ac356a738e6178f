package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"rewind/internal/importer"
)

func decodeResult(t *testing.T, out string) *importer.Result {
	t.Helper()
	var result importer.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result JSON: %v\noutput: %s", err, out)
	}
	return &result
}

func TestImportCSVCreatesAndIsIdempotent(t *testing.T) {
	env := setupCLITestEnv(t)
	fixture := writeFixture(t, env.baseDir, "history.csv",
		"show,season,episode,date\n"+
			"Severance,1,1,2024-01-15\n"+
			"Severance,1,1,2024-01-16\n"+
			"Severance,1,2,2024-02-01\n")

	out, _, err := runCLI(t, []string{"import", "csv", fixture, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	result := decodeResult(t, out)
	if got := result.Count(importer.OutcomeCreated); got != 2 {
		t.Fatalf("created = %d, want 2\noutput: %s", got, out)
	}
	if got := result.Count(importer.OutcomeSkippedDuplicate); got != 1 {
		t.Fatalf("skipped_duplicate = %d, want 1", got)
	}
	if got := env.remote.writeCount(); got != 2 {
		t.Fatalf("remote writes = %d, want 2", got)
	}

	out, _, err = runCLI(t, []string{"import", "csv", fixture, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	rerun := decodeResult(t, out)
	if got := rerun.Writes(); got != 0 {
		t.Fatalf("second run writes = %d, want 0", got)
	}
	if got := env.remote.writeCount(); got != 2 {
		t.Fatalf("remote writes after rerun = %d, want 2", got)
	}
}

func TestImportCSVAppliesSourceTag(t *testing.T) {
	env := setupCLITestEnv(t)
	fixture := writeFixture(t, env.baseDir, "history.csv",
		"show,season,episode,date,tags\nSeverance,1,1,2024-01-15,rewatch\n")

	_, _, err := runCLI(t, []string{"import", "csv", fixture, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	env.remote.mu.Lock()
	defer env.remote.mu.Unlock()
	if len(env.remote.logged) != 1 {
		t.Fatalf("expected 1 write, got %d", len(env.remote.logged))
	}
	tags, _ := env.remote.logged[0]["tags"].([]any)
	if len(tags) != 2 || tags[0] != "#csvimport" || tags[1] != "rewatch" {
		t.Fatalf("unexpected tags: %v", tags)
	}
}

func TestImportNetflixDryRunWritesNothing(t *testing.T) {
	env := setupCLITestEnv(t)
	fixture := writeFixture(t, env.baseDir, "ViewingActivity.csv",
		"Title,Start Time,Profile Name\n"+
			"\"Severance: Season 1: Good News About Hell (Episode 1)\",2024-01-15 20:00:00,Michael\n"+
			"\"Some Movie\",2024-01-16 20:00:00,Michael\n")

	out, _, err := runCLI(t, []string{"import", "netflix", fixture, "--dry-run", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	result := decodeResult(t, out)
	if !result.DryRun {
		t.Fatal("expected dry-run result")
	}
	if got := result.Count(importer.OutcomeCreated); got != 1 {
		t.Fatalf("created = %d, want 1\noutput: %s", got, out)
	}
	if got := env.remote.writeCount(); got != 0 {
		t.Fatalf("dry run performed %d writes", got)
	}
}

func TestImportExcludeFlagSkipsShow(t *testing.T) {
	env := setupCLITestEnv(t)
	fixture := writeFixture(t, env.baseDir, "history.csv",
		"show,season,episode,date\n"+
			"Severance,1,1,2024-01-15\n"+
			"Breaking Bad,1,1,2024-01-16\n")

	out, _, err := runCLI(t, []string{
		"import", "csv", fixture, "--exclude", "Breaking Bad", "--json",
	}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	result := decodeResult(t, out)
	if got := result.Count(importer.OutcomeSkippedExcluded); got != 1 {
		t.Fatalf("skipped_excluded = %d, want 1", got)
	}
	if got := result.Count(importer.OutcomeCreated); got != 1 {
		t.Fatalf("created = %d, want 1", got)
	}
}

func TestImportExcludeFileSkipsShows(t *testing.T) {
	env := setupCLITestEnv(t)
	fixture := writeFixture(t, env.baseDir, "history.csv",
		"show,season,episode,date\nBreaking Bad,1,1,2024-01-16\n")
	excludeFile := writeFixture(t, env.baseDir, "excludes.txt",
		"# shows to never import\nBreaking Bad\n")

	out, _, err := runCLI(t, []string{
		"import", "csv", fixture, "--exclude-file", excludeFile, "--json",
	}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	result := decodeResult(t, out)
	if got := result.Count(importer.OutcomeSkippedExcluded); got != 1 {
		t.Fatalf("skipped_excluded = %d, want 1", got)
	}
}

func TestImportRejectsUnknownOrder(t *testing.T) {
	env := setupCLITestEnv(t)
	fixture := writeFixture(t, env.baseDir, "history.csv",
		"show,season,episode,date\nSeverance,1,1,2024-01-15\n")

	_, _, err := runCLI(t, []string{"import", "csv", fixture, "--order", "sideways"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "order") {
		t.Fatalf("expected order validation error, got %v", err)
	}
}

func TestImportRefusesWhenLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	fixture := writeFixture(t, env.baseDir, "history.csv",
		"show,season,episode,date\nSeverance,1,1,2024-01-15\n")

	if err := os.MkdirAll(env.stateDir, 0o755); err != nil {
		t.Fatalf("mkdir state dir: %v", err)
	}
	lock := flock.New(filepath.Join(env.stateDir, "rewind.lock"))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("acquire test lock: locked=%v err=%v", locked, err)
	}
	defer func() { _ = lock.Unlock() }()

	_, _, err = runCLI(t, []string{"import", "csv", fixture}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestImportHumanReportListsOutcomes(t *testing.T) {
	env := setupCLITestEnv(t)
	fixture := writeFixture(t, env.baseDir, "history.csv",
		"show,season,episode,date\n"+
			"Severance,1,1,2024-01-15\n"+
			"Unknown Show,1,1,2024-01-16\n")

	out, _, err := runCLI(t, []string{"import", "csv", fixture}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "created")
	requireContains(t, out, "skipped_unresolved")
	requireContains(t, out, "Needs attention:")
	requireContains(t, out, "Unknown Show")
}
