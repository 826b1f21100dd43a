package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/time/rate"

	"github.com/shaiso/ghreport/internal/domain"
)

// newTestServer отдаёт фиктивный репозиторий RelationalAI/raicode:
// issues на двух страницах, пустые milestones, две метки, два участника.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith подменяет обработчики путей из overrides.
func newTestServerWith(t *testing.T, overrides map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		if o, ok := overrides[pattern]; ok {
			h = o
		}
		mux.HandleFunc(pattern, h)
	}
	var server *httptest.Server

	handle("/repos/RelationalAI/raicode/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token")
		}
		if r.URL.Query().Get("state") != "all" {
			t.Errorf("issues must be listed with state=all")
		}
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/RelationalAI/raicode/issues?state=all&page=2>; rel="next"`, server.URL))
			fmt.Fprint(w, `[{"number": 1, "title": "first"}, {"number": 2, "title": "second"}]`)
		case "2":
			fmt.Fprint(w, `[{"number": 3, "title": "third"}]`)
		default:
			t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
		}
	})
	handle("/repos/RelationalAI/raicode/milestones", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	handle("/repos/RelationalAI/raicode/labels", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"name": "bug"}, {"name": "feature"}]`)
	})
	handle("/repos/RelationalAI/raicode/contributors", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"login": "alice"}, {"login": "bob"}]`)
	})
	handle("/users/", func(w http.ResponseWriter, r *http.Request) {
		login := filepath.Base(r.URL.Path)
		fmt.Fprintf(w, `{"login": %q, "name": "User %s"}`, login, login)
	})
	handle("/repos/RelationalAI/raicode", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "raicode", "full_name": "RelationalAI/raicode"}`)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestFetcher(t *testing.T, serverURL, dir string) *Fetcher {
	t.Helper()

	client, err := NewClient("test-token", serverURL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return New(Config{
		Client:   client,
		DataDir:  dir,
		UserRate: rate.Inf,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func readArray(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var out []map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return out
}

func TestFetchAll_WritesSixFiles(t *testing.T) {
	server := newTestServer(t)
	dir := filepath.Join(t.TempDir(), "data")

	summary, err := newTestFetcher(t, server.URL, dir).FetchAll(context.Background(), "RelationalAI", "raicode")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[domain.BatchKind]int{
		domain.BatchIssues:      3,
		domain.BatchMilestones:  0,
		domain.BatchLabels:      2,
		domain.BatchUsers:       2,
		domain.BatchUserDetails: 2,
		domain.BatchRepo:        1,
	}
	for kind, n := range want {
		if summary[kind] != n {
			t.Errorf("%s: expected %d records, got %d", kind, n, summary[kind])
		}
	}

	for _, b := range domain.FetchedBatches {
		records := readArray(t, b.Path(dir, "raicode"))
		if len(records) != want[b.Kind] {
			t.Errorf("%s file: expected %d records, got %d", b.Kind, want[b.Kind], len(records))
		}
	}

	issues := readArray(t, filepath.Join(dir, "raicode-issues.json"))
	if issues[2]["title"] != "third" {
		t.Errorf("pages must be concatenated in order, got %v", issues)
	}

	repo := readArray(t, filepath.Join(dir, "raicode-repo.json"))
	if repo[0]["name"] != "raicode" {
		t.Errorf("unexpected repo record: %v", repo[0])
	}

	details := readArray(t, filepath.Join(dir, "raicode-user-details.json"))
	if details[1]["name"] != "User bob" {
		t.Errorf("unexpected user details: %v", details)
	}
}

func TestFetchAll_NoTempFilesLeft(t *testing.T) {
	server := newTestServer(t)
	dir := t.TempDir()

	if _, err := newTestFetcher(t, server.URL, dir).FetchAll(context.Background(), "RelationalAI", "raicode"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != len(domain.FetchedBatches) {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only batch files, got %v", names)
	}
}

func TestFetchAll_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	}))
	t.Cleanup(server.Close)

	dir := t.TempDir()
	_, err := newTestFetcher(t, server.URL, dir).FetchAll(context.Background(), "RelationalAI", "raicode")
	if err == nil {
		t.Fatal("expected error")
	}

	if _, statErr := os.Stat(filepath.Join(dir, "raicode-milestones.json")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("no file should be written for a failed batch")
	}
}

func TestFetchAll_RepoErrorWritesNoRepoFile(t *testing.T) {
	server := newTestServerWith(t, map[string]http.HandlerFunc{
		"/repos/RelationalAI/raicode": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message": "server error"}`)
		},
	})
	dir := t.TempDir()

	summary, err := newTestFetcher(t, server.URL, dir).FetchAll(context.Background(), "RelationalAI", "raicode")
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := summary[domain.BatchRepo]; ok {
		t.Errorf("failed repo batch must not be counted: %v", summary)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "raicode-repo.json")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("no repo file should be written for a failed lookup")
	}
}

func TestFetchAll_MissingRepository(t *testing.T) {
	f := New(Config{DataDir: t.TempDir()})
	if _, err := f.FetchAll(context.Background(), "", "raicode"); !errors.Is(err, ErrMissingRepository) {
		t.Fatalf("expected ErrMissingRepository, got %v", err)
	}
}

func TestNewClient_RequiresToken(t *testing.T) {
	if _, err := NewClient("", ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}
