package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/rai"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fakes ---

type fakeEngines struct {
	mu       sync.Mutex
	engines  map[string]*domain.Engine
	getErr   error
	createFn func(name string) error
	deleteFn func(name string) error

	gets    int
	creates int
	deletes int
}

func newFakeEngines() *fakeEngines {
	return &fakeEngines{engines: make(map[string]*domain.Engine)}
}

func (f *fakeEngines) GetEngine(_ context.Context, name string) (*domain.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	eng, ok := f.engines[name]
	if !ok {
		return nil, rai.ErrNotFound
	}
	cp := *eng
	return &cp, nil
}

func (f *fakeEngines) CreateEngine(_ context.Context, name string, size domain.EngineSize) (*domain.Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createFn != nil {
		if err := f.createFn(name); err != nil {
			return nil, err
		}
	}
	eng := &domain.Engine{Name: name, Size: size, State: domain.EngineStateRequested}
	f.engines[name] = eng
	return eng, nil
}

func (f *fakeEngines) DeleteEngine(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteFn != nil {
		return f.deleteFn(name)
	}
	delete(f.engines, name)
	return nil
}

type fakeDatabases struct {
	databases map[string]bool
	createErr error

	creates   int
	overwrite []bool
	deletes   int
}

func (f *fakeDatabases) GetDatabase(_ context.Context, name string) (*domain.Database, error) {
	if !f.databases[name] {
		return nil, rai.ErrNotFound
	}
	return &domain.Database{Name: name, State: "CREATED"}, nil
}

func (f *fakeDatabases) CreateDatabase(_ context.Context, name, _ string, overwrite bool) error {
	f.creates++
	f.overwrite = append(f.overwrite, overwrite)
	if f.createErr != nil {
		return f.createErr
	}
	f.databases[name] = true
	return nil
}

func (f *fakeDatabases) DeleteDatabase(_ context.Context, name string) error {
	f.deletes++
	delete(f.databases, name)
	return nil
}

func newEngineManager(client EngineAPI, attempts int, interval time.Duration) *EngineManager {
	return NewEngineManager(EngineConfig{
		Client:       client,
		PollAttempts: attempts,
		PollInterval: interval,
		Logger:       testLogger(),
	})
}

// --- EnsureCreated ---

func TestEnsureCreated_Idempotent(t *testing.T) {
	fake := newFakeEngines()
	m := newEngineManager(fake, 1, time.Millisecond)
	ctx := context.Background()

	if err := m.EnsureCreated(ctx, "github-engine-2026-10-19-s", domain.EngineSizeS); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := m.EnsureCreated(ctx, "github-engine-2026-10-19-s", domain.EngineSizeS); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if fake.creates != 1 {
		t.Errorf("expected exactly 1 create request, got %d", fake.creates)
	}
}

func TestEnsureCreated_ExistingIsNotResized(t *testing.T) {
	fake := newFakeEngines()
	fake.engines["eng"] = &domain.Engine{Name: "eng", Size: domain.EngineSizeXL, State: domain.EngineStateProvisioned}
	m := newEngineManager(fake, 1, time.Millisecond)

	if err := m.EnsureCreated(context.Background(), "eng", domain.EngineSizeS); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.creates != 0 {
		t.Errorf("expected no create request, got %d", fake.creates)
	}
	if fake.engines["eng"].Size != domain.EngineSizeXL {
		t.Error("existing engine must not be modified")
	}
}

func TestEnsureCreated_ConflictIsSuccess(t *testing.T) {
	fake := newFakeEngines()
	fake.createFn = func(string) error {
		return &rai.APIError{StatusCode: http.StatusConflict, Message: "already exists"}
	}
	m := newEngineManager(fake, 1, time.Millisecond)

	if err := m.EnsureCreated(context.Background(), "eng", domain.EngineSizeS); err != nil {
		t.Fatalf("conflict should be treated as success, got %v", err)
	}
}

func TestEnsureCreated_OtherErrorSurfaced(t *testing.T) {
	fake := newFakeEngines()
	fake.createFn = func(string) error {
		return &rai.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}
	}
	m := newEngineManager(fake, 1, time.Millisecond)

	err := m.EnsureCreated(context.Background(), "eng", domain.EngineSizeS)
	if rai.StatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500 to be surfaced, got %v", err)
	}
}

// --- EnsureDeleted ---

func TestEnsureDeleted_States(t *testing.T) {
	tests := []struct {
		name        string
		state       domain.EngineState
		exists      bool
		wantDeletes int
	}{
		{"absent", "", false, 0},
		{"already deleted", domain.EngineStateDeleted, true, 0},
		{"deprovisioning", domain.EngineStateDeprovisioning, true, 0},
		{"provisioned", domain.EngineStateProvisioned, true, 1},
		{"provisioning", domain.EngineStateProvisioning, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeEngines()
			if tt.exists {
				fake.engines["eng"] = &domain.Engine{Name: "eng", State: tt.state}
			}
			m := newEngineManager(fake, 1, time.Millisecond)

			if err := m.EnsureDeleted(context.Background(), "eng"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fake.deletes != tt.wantDeletes {
				t.Errorf("expected %d delete requests, got %d", tt.wantDeletes, fake.deletes)
			}
		})
	}
}

func TestEnsureDeleted_NotFoundOnDeleteIsBenign(t *testing.T) {
	fake := newFakeEngines()
	fake.engines["eng"] = &domain.Engine{Name: "eng", State: domain.EngineStateProvisioned}
	fake.deleteFn = func(string) error {
		return &rai.APIError{StatusCode: http.StatusNotFound, Message: "gone"}
	}
	m := newEngineManager(fake, 1, time.Millisecond)

	if err := m.EnsureDeleted(context.Background(), "eng"); err != nil {
		t.Fatalf("404 on delete should be benign, got %v", err)
	}
}

func TestEnsureDeleted_YesterdayDoesNotTouchToday(t *testing.T) {
	dates := domain.NewDates(time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC), time.UTC)
	today := domain.EngineName("github-engine", dates.Today, domain.EngineSizeS)
	yesterday := domain.EngineName("github-engine", dates.Yesterday, domain.EngineSizeS)

	fake := newFakeEngines()
	fake.engines[today] = &domain.Engine{Name: today, State: domain.EngineStateProvisioning}
	fake.engines[yesterday] = &domain.Engine{Name: yesterday, State: domain.EngineStateProvisioned}
	m := newEngineManager(fake, 1, time.Millisecond)

	if err := m.EnsureDeleted(context.Background(), yesterday); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fake.engines[today]; !ok {
		t.Error("today's engine must survive deleting yesterday's")
	}
	if _, ok := fake.engines[yesterday]; ok {
		t.Error("yesterday's engine should be deleted")
	}
}

// --- Await ---

func TestAwait_ProvisionedAfterPolls(t *testing.T) {
	fake := newFakeEngines()
	fake.engines["eng"] = &domain.Engine{Name: "eng", State: domain.EngineStateProvisioning}

	polls := 0
	wrapped := &pollingEngines{fakeEngines: fake, onGet: func() {
		polls++
		if polls == 3 {
			fake.engines["eng"].State = domain.EngineStateProvisioned
		}
	}}
	m := newEngineManager(wrapped, 5, time.Millisecond)

	if !m.AwaitProvisioned(context.Background(), "eng") {
		t.Fatal("expected engine to be provisioned")
	}
	if fake.gets != 3 {
		t.Errorf("expected 3 polls, got %d", fake.gets)
	}
}

func TestAwait_ExactAttemptBudget(t *testing.T) {
	fake := newFakeEngines()
	fake.engines["eng"] = &domain.Engine{Name: "eng", State: domain.EngineStateProvisioning}

	const attempts = 4
	interval := 20 * time.Millisecond
	m := newEngineManager(fake, attempts, interval)

	start := time.Now()
	err := m.Await(context.Background(), "eng")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrProvisionTimeout) {
		t.Fatalf("expected ErrProvisionTimeout, got %v", err)
	}
	if fake.gets != attempts {
		t.Errorf("expected exactly %d polls, got %d", attempts, fake.gets)
	}
	if elapsed > attempts*interval+interval {
		t.Errorf("waited %v, budget is %v plus one interval", elapsed, attempts*interval)
	}
}

func TestAwait_ErrorsConsumeAttempts(t *testing.T) {
	fake := newFakeEngines()
	fake.getErr = &rai.APIError{StatusCode: http.StatusServiceUnavailable, Message: "unavailable"}
	m := newEngineManager(fake, 3, time.Millisecond)

	if m.AwaitProvisioned(context.Background(), "eng") {
		t.Fatal("expected failure")
	}
	if fake.gets != 3 {
		t.Errorf("expected 3 polls, got %d", fake.gets)
	}
}

func TestAwait_ProvisionFailedStopsEarly(t *testing.T) {
	fake := newFakeEngines()
	fake.engines["eng"] = &domain.Engine{Name: "eng", State: domain.EngineStateProvisionFailed}
	m := newEngineManager(fake, 5, time.Millisecond)

	err := m.Await(context.Background(), "eng")
	if !errors.Is(err, ErrProvisionFailed) {
		t.Fatalf("expected ErrProvisionFailed, got %v", err)
	}
	if fake.gets != 1 {
		t.Errorf("expected 1 poll, got %d", fake.gets)
	}
}

func TestAwait_ContextCancelled(t *testing.T) {
	fake := newFakeEngines()
	fake.engines["eng"] = &domain.Engine{Name: "eng", State: domain.EngineStateProvisioning}
	m := newEngineManager(fake, 5, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.Await(ctx, "eng")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewEngineManager_Defaults(t *testing.T) {
	m := NewEngineManager(EngineConfig{Client: newFakeEngines()})
	if m.pollAttempts != 5 {
		t.Errorf("expected 5 attempts, got %d", m.pollAttempts)
	}
	if m.pollInterval != 180*time.Second {
		t.Errorf("expected 180s interval, got %v", m.pollInterval)
	}
}

type pollingEngines struct {
	*fakeEngines
	onGet func()
}

func (p *pollingEngines) GetEngine(ctx context.Context, name string) (*domain.Engine, error) {
	p.onGet()
	return p.fakeEngines.GetEngine(ctx, name)
}

// --- DatabaseManager ---

func TestEnsureConnected_CreatesWithOverwrite(t *testing.T) {
	fake := &fakeDatabases{databases: map[string]bool{}}
	m := NewDatabaseManager(fake, testLogger())

	if err := m.EnsureConnected(context.Background(), "db", "eng"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.creates != 1 || !fake.overwrite[0] {
		t.Fatalf("expected one create with overwrite, got %d %v", fake.creates, fake.overwrite)
	}

	if err := m.EnsureConnected(context.Background(), "db", "eng"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.creates != 1 {
		t.Errorf("existing database must not be recreated, got %d creates", fake.creates)
	}
}

func TestEnsureConnected_CreateFailure(t *testing.T) {
	fake := &fakeDatabases{
		databases: map[string]bool{},
		createErr: &rai.APIError{StatusCode: http.StatusBadRequest, Message: "bad engine"},
	}
	m := NewDatabaseManager(fake, testLogger())

	if err := m.EnsureConnected(context.Background(), "db", "eng"); err == nil {
		t.Fatal("expected error")
	}
}

func TestDatabaseEnsureDeleted(t *testing.T) {
	fake := &fakeDatabases{databases: map[string]bool{"db": true}}
	m := NewDatabaseManager(fake, testLogger())

	if err := m.EnsureDeleted(context.Background(), "db"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.EnsureDeleted(context.Background(), "db"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.deletes != 1 {
		t.Errorf("expected 1 delete request, got %d", fake.deletes)
	}
}
