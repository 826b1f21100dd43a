package domain

import (
	"strings"
	"testing"
	"time"
)

func TestEngineName(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	got := EngineName("github-engine", day, EngineSizeS)
	if got != "github-engine-2026-10-19-s" {
		t.Errorf("unexpected engine name: %s", got)
	}

	got = EngineName("github-engine", day, EngineSizeXL)
	if got != "github-engine-2026-10-19-xl" {
		t.Errorf("unexpected engine name: %s", got)
	}
}

func TestEngineName_ConsecutiveDaysNeverCollide(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)

	// Два года подряд, включая високосный 29 февраля
	for i := 0; i < 731; i++ {
		day := start.AddDate(0, 0, i)
		name := EngineName("github-engine", day, EngineSizeS)
		if seen[name] {
			t.Fatalf("engine name collision on %s: %s", day.Format(DayLayout), name)
		}
		seen[name] = true

		prev := EngineName("github-engine", day.AddDate(0, 0, -1), EngineSizeS)
		if prev == name {
			t.Fatalf("yesterday's engine name equals today's: %s", name)
		}
		// Имя вчерашнего engine не должно быть префиксом сегодняшнего
		if strings.HasPrefix(name, prev) || strings.HasPrefix(prev, name) {
			t.Fatalf("engine names overlap: %s / %s", prev, name)
		}
	}
}

func TestNewDates(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}

	// 02:00 UTC 1 марта — в Нью-Йорке ещё 28 февраля
	now := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)
	dates := NewDates(now, loc)

	if dates.TodayString() != "2024-02-29" {
		t.Errorf("expected today 2024-02-29, got %s", dates.TodayString())
	}
	if dates.Yesterday.Format(DayLayout) != "2024-02-28" {
		t.Errorf("expected yesterday 2024-02-28, got %s", dates.Yesterday.Format(DayLayout))
	}
}

func TestNewDates_YearBoundary(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	dates := NewDates(now, time.UTC)

	if dates.Yesterday.Format(DayLayout) != "2025-12-31" {
		t.Errorf("expected 2025-12-31, got %s", dates.Yesterday.Format(DayLayout))
	}
}

func TestParseEngineSize(t *testing.T) {
	tests := []struct {
		in      string
		want    EngineSize
		wantErr bool
	}{
		{"S", EngineSizeS, false},
		{"xs", EngineSizeXS, false},
		{" m ", EngineSizeM, false},
		{"XL", EngineSizeXL, false},
		{"huge", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseEngineSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEngineSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEngineSize(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestEngineState_IsTerminal(t *testing.T) {
	if !EngineStateProvisioned.IsTerminal() {
		t.Error("PROVISIONED should be terminal")
	}
	if !EngineStateDeleted.IsTerminal() {
		t.Error("DELETED should be terminal")
	}
	if EngineStateProvisioning.IsTerminal() {
		t.Error("PROVISIONING should not be terminal")
	}
}

func TestBatch_FileName(t *testing.T) {
	b := Batch{Kind: BatchUserDetails, Relation: "json_users"}
	if b.FileName("raicode") != "raicode-user-details.json" {
		t.Errorf("unexpected file name: %s", b.FileName("raicode"))
	}
	if !b.Loadable() {
		t.Error("user-details should be loadable")
	}
	if (Batch{Kind: BatchUsers}).Loadable() {
		t.Error("users should not be loadable")
	}
}

func TestLoadOrder_SubsetOfFetched(t *testing.T) {
	fetched := make(map[BatchKind]string)
	for _, b := range FetchedBatches {
		fetched[b.Kind] = b.Relation
	}
	for _, b := range LoadOrder {
		rel, ok := fetched[b.Kind]
		if !ok {
			t.Errorf("batch %s is loaded but never fetched", b.Kind)
			continue
		}
		if rel != b.Relation {
			t.Errorf("batch %s relation mismatch: %s vs %s", b.Kind, rel, b.Relation)
		}
	}
}

func TestRun_Lifecycle(t *testing.T) {
	run := NewRun("2026-10-19", "cli", "github-engine-2026-10-19-s", "db")
	if run.Status != RunStatusPending {
		t.Fatalf("expected PENDING, got %s", run.Status)
	}

	run.MarkRunning()
	if run.StartedAt == nil || run.IsFinished() {
		t.Error("run should be running")
	}

	run.MarkFailed("boom")
	if !run.IsFinished() || run.Error != "boom" {
		t.Error("run should be failed with error")
	}
	if run.Duration() < 0 {
		t.Error("duration should not be negative")
	}
}

func TestSchedule_IsDue(t *testing.T) {
	s := &Schedule{}
	now := time.Now()
	if s.IsDue(now) {
		t.Error("schedule without next_due_at should not be due")
	}

	past := now.Add(-time.Minute)
	s.NextDueAt = &past
	if !s.IsDue(now) {
		t.Error("schedule should be due")
	}
	if s.Location() != time.UTC {
		t.Error("empty timezone should be UTC")
	}
}
