package loader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/rai"
)

type fakeQuery struct {
	queries  []string
	readonly []bool
	result   *rai.TransactionResult
	err      error
}

func (f *fakeQuery) Query(_ context.Context, _, _, source string, readonly bool) (*rai.TransactionResult, error) {
	f.queries = append(f.queries, source)
	f.readonly = append(f.readonly, readonly)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &rai.TransactionResult{}, nil
}

// writeBatches создаёт файлы всех загружаемых batches.
func writeBatches(t *testing.T, dir, repo string, contents map[domain.BatchKind]string) {
	t.Helper()
	for _, b := range domain.LoadOrder {
		data, ok := contents[b.Kind]
		if !ok {
			data = `[{"id": 1}]`
		}
		if err := os.WriteFile(b.Path(dir, repo), []byte(data), 0o644); err != nil {
			t.Fatalf("write %s: %v", b.Kind, err)
		}
	}
}

func newLoader(t *testing.T, client QueryAPI, dir string) *Loader {
	t.Helper()
	l, err := New(Config{
		Client:  client,
		DataDir: dir,
		Repo:    "raicode",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}
	return l
}

func TestLoad_SingleMutatingQuery(t *testing.T) {
	dir := t.TempDir()
	writeBatches(t, dir, "raicode", nil)

	fake := &fakeQuery{}
	if err := newLoader(t, fake, dir).Load(context.Background(), "db", "eng"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.queries) != 1 {
		t.Fatalf("expected one combined query, got %d", len(fake.queries))
	}
	if fake.readonly[0] {
		t.Error("update must not be readonly")
	}

	q := fake.queries[0]
	for _, b := range domain.LoadOrder {
		for _, want := range []string{
			"def data_config[:raicode][:" + b.Relation + "][:data] = ",
			"def delete[:" + b.Relation + "][:raicode](xs...) = " + b.Relation + "[:raicode](xs...)",
			"def insert[:" + b.Relation + "][:raicode](xs...) = load_json[ data_config[:raicode][:" + b.Relation + "] ](xs...)",
		} {
			if !strings.Contains(q, want) {
				t.Errorf("query missing %q", want)
			}
		}
	}
	if n := strings.Count(q, "def insert["); n != len(domain.LoadOrder) {
		t.Errorf("expected %d inserts, got %d", len(domain.LoadOrder), n)
	}
}

func TestLoad_EmptyMilestones(t *testing.T) {
	dir := t.TempDir()
	writeBatches(t, dir, "raicode", map[domain.BatchKind]string{domain.BatchMilestones: "[]"})

	fake := &fakeQuery{}
	if err := newLoader(t, fake, dir).Load(context.Background(), "db", "eng"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := fake.queries[0]
	if !strings.Contains(q, `def data_config[:raicode][:json_milestones][:data] = "[]"`) {
		t.Errorf("empty milestones should be registered as empty array:\n%s", q)
	}
	if !strings.Contains(q, "def delete[:json_milestones][:raicode](xs...)") {
		t.Error("old milestones must still be deleted")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	writeBatches(t, dir, "raicode", nil)
	os.Remove(filepath.Join(dir, "raicode-issues.json"))

	fake := &fakeQuery{}
	err := newLoader(t, fake, dir).Load(context.Background(), "db", "eng")
	if !errors.Is(err, ErrBatchFileMissing) {
		t.Fatalf("expected ErrBatchFileMissing, got %v", err)
	}
	if len(fake.queries) != 0 {
		t.Error("no query should be sent when a file is missing")
	}
}

func TestLoad_InvalidBatch(t *testing.T) {
	dir := t.TempDir()
	writeBatches(t, dir, "raicode", map[domain.BatchKind]string{domain.BatchLabels: `{"not": "array"}`})

	err := newLoader(t, &fakeQuery{}, dir).Load(context.Background(), "db", "eng")
	if !errors.Is(err, ErrInvalidBatch) {
		t.Fatalf("expected ErrInvalidBatch, got %v", err)
	}
}

func TestLoad_QueryError(t *testing.T) {
	dir := t.TempDir()
	writeBatches(t, dir, "raicode", nil)

	fake := &fakeQuery{err: rai.ErrTransactionAborted}
	err := newLoader(t, fake, dir).Load(context.Background(), "db", "eng")
	if !errors.Is(err, rai.ErrTransactionAborted) {
		t.Fatalf("expected wrapped abort, got %v", err)
	}
}

func TestNew_InvalidRepo(t *testing.T) {
	for _, repo := range []string{"", "a b", "owner/repo", `x"y`} {
		if _, err := New(Config{Repo: repo}); !errors.Is(err, ErrInvalidRepoName) {
			t.Errorf("repo %q: expected ErrInvalidRepoName, got %v", repo, err)
		}
	}
}

func TestRepoKey(t *testing.T) {
	tests := []struct {
		repo string
		want string
	}{
		{"raicode", ":raicode"},
		{"rai_sdk", ":rai_sdk"},
		{"go-github", `"go-github"`},
		{"docs.github.com", `"docs.github.com"`},
		{"1repo", `"1repo"`},
	}

	for _, tt := range tests {
		if got := RepoKey(tt.repo); got != tt.want {
			t.Errorf("RepoKey(%q) = %s, want %s", tt.repo, got, tt.want)
		}
	}
}

func TestLoad_HyphenatedRepo(t *testing.T) {
	dir := t.TempDir()
	writeBatches(t, dir, "go-github", nil)

	fake := &fakeQuery{result: &rai.TransactionResult{}}
	l, err := New(Config{
		Client:  fake,
		DataDir: dir,
		Repo:    "go-github",
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new loader: %v", err)
	}

	if err := l.Load(context.Background(), "db", "eng"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := fake.queries[0]
	for _, want := range []string{
		`def data_config["go-github"][:json_issues][:data] = `,
		`def delete[:json_issues]["go-github"](xs...) = json_issues["go-github"](xs...)`,
		`def insert[:json_issues]["go-github"](xs...) = load_json[ data_config["go-github"][:json_issues] ](xs...)`,
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q", want)
		}
	}

	probe, err := l.Probe(context.Background(), "db", "eng")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if fake.queries[1] != `def output = json_repos["go-github"][:[], 1, :name]` {
		t.Errorf("unexpected probe query: %s", fake.queries[1])
	}
	if probe.Expected != "go-github" {
		t.Errorf("probe must expect the repository name, got %q", probe.Expected)
	}
}

func TestRelString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`[]`, `"[]"`},
		{`[{"title":"a <b> & c"}]`, `"[{\"title\":\"a <b> & c\"}]"`},
		{"[\"100%\"]", `"[\"100\%\"]"`},
		{"[\"line\\nbreak\"]", `"[\"line\\nbreak\"]"`},
	}

	for _, tt := range tests {
		got, err := relString([]byte(tt.in))
		if err != nil {
			t.Fatalf("relString(%s): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("relString(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name    string
		columns [][]any
		match   bool
	}{
		{"match", [][]any{{"raicode"}}, true},
		{"mismatch", [][]any{{"other"}}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &rai.TransactionResult{}
			if tt.columns != nil {
				result.Output = []rai.Relation{{RelKey: rai.RelKey{Name: "output"}, Columns: tt.columns}}
			}
			fake := &fakeQuery{result: result}

			probe, err := newLoader(t, fake, t.TempDir()).Probe(context.Background(), "db", "eng")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if probe.Matches() != tt.match {
				t.Errorf("Matches() = %v, want %v (got %v)", probe.Matches(), tt.match, probe.Got)
			}
			if fake.queries[0] != "def output = json_repos[:raicode][:[], 1, :name]" {
				t.Errorf("unexpected probe query: %s", fake.queries[0])
			}
			if !fake.readonly[0] {
				t.Error("probe must be readonly")
			}
		})
	}
}

func TestProbe_RequestFailure(t *testing.T) {
	fake := &fakeQuery{err: errors.New("connection reset")}
	if _, err := newLoader(t, fake, t.TempDir()).Probe(context.Background(), "db", "eng"); err == nil {
		t.Fatal("expected error")
	}
}
