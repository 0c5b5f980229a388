package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"editpdf/internal/queue"
	"editpdf/internal/submission"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Attempt limit: 3")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestQueueCommands(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Queue is empty")

	out, _, err = runCLI(t, []string{"queue", "add", "12", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("queue add: %v", err)
	}
	requireContains(t, out, "Queued submission 12 attempt 1 as entry 1")

	out, _, err = runCLI(t, []string{"queue", "add", "12", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("queue add duplicate: %v", err)
	}
	requireContains(t, out, "as entry 1")

	if _, _, err := runCLI(t, []string{"queue", "add", "13"}, env.configPath); err != nil {
		t.Fatalf("queue add: %v", err)
	}
	if _, _, err := runCLI(t, []string{"queue", "add", "abc"}, env.configPath); err == nil {
		t.Fatal("expected invalid id to fail")
	}

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "0/3")
	requireContains(t, out, "13")

	out, _, err = runCLI(t, []string{"queue", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "Fresh")
	requireContains(t, out, "Total")

	out, _, err = runCLI(t, []string{"queue", "remove", "1", "99"}, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Removed entry 1")
	requireContains(t, out, "Entry 99 not found")

	out, _, err = runCLI(t, []string{"queue", "clear", "--exhausted"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear --exhausted: %v", err)
	}
	requireContains(t, out, "Removed 0 entries")

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 1 entries")
}

func TestDrainCommandConvertsQueuedSubmission(t *testing.T) {
	var pageCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/combined"):
			_, _ = w.Write([]byte(`{"status":"complete"}`))
		case strings.HasSuffix(r.URL.Path, "/pages"):
			pageCalls++
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	env := setupCLITestEnv(t, server.URL)
	seedSubmission(t, env, submission.Submission{ID: 10, AssignmentID: 7, UserID: 42})

	if _, _, err := runCLI(t, []string{"queue", "add", "10"}, env.configPath); err != nil {
		t.Fatalf("queue add: %v", err)
	}
	if _, _, err := runCLI(t, []string{"queue", "add", "404"}, env.configPath); err != nil {
		t.Fatalf("queue add: %v", err)
	}

	out, _, err := runCLI(t, []string{"drain"}, env.configPath)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	requireContains(t, out, "Completed")
	requireContains(t, out, "Abandoned")
	if pageCalls != 2 {
		t.Fatalf("expected two page image requests, got %d", pageCalls)
	}

	out, _, err = runCLI(t, []string{"queue", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestDrainCommandFailsWhenLocked(t *testing.T) {
	env := setupCLITestEnv(t, "http://127.0.0.1:1")
	if err := os.MkdirAll(env.dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data: %v", err)
	}
	holder := flock.New(filepath.Join(env.dataDir, "drain.lock"))
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer holder.Unlock()

	_, _, err = runCLI(t, []string{"drain"}, env.configPath)
	if err == nil {
		t.Fatal("expected drain to fail while locked")
	}
	requireContains(t, err.Error(), "already running")
}

func TestDrainCommandRequiresConverterURL(t *testing.T) {
	env := setupCLITestEnv(t, "")
	_, _, err := runCLI(t, []string{"drain"}, env.configPath)
	if err == nil {
		t.Fatal("expected drain to fail without converter url")
	}
	requireContains(t, err.Error(), "base_url")
}

func TestHealthCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := setupCLITestEnv(t, server.URL)
	out, _, err := runCLI(t, []string{"health"}, env.configPath)
	if err != nil {
		t.Fatalf("health: %v\n%s", err, out)
	}
	requireContains(t, out, "Converter")
	requireContains(t, out, "Queue database")

	env = setupCLITestEnv(t, "")
	if _, _, err := runCLI(t, []string{"health"}, env.configPath); err == nil {
		t.Fatal("expected health to fail without converter")
	}
}

func seedSubmission(t *testing.T, env *cliTestEnv, sub submission.Submission) {
	t.Helper()
	if err := os.MkdirAll(env.dataDir, 0o755); err != nil {
		t.Fatalf("mkdir data: %v", err)
	}
	store, err := queue.Open(filepath.Join(env.dataDir, "editpdf.db"))
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	subs, err := submission.Open(ctx, store.DB())
	if err != nil {
		t.Fatalf("submission.Open: %v", err)
	}
	if err := subs.SaveAssignment(ctx, submission.Assignment{ID: sub.AssignmentID, Name: "Essay"}); err != nil {
		t.Fatalf("SaveAssignment: %v", err)
	}
	if err := subs.SaveSubmission(ctx, sub); err != nil {
		t.Fatalf("SaveSubmission: %v", err)
	}
}
