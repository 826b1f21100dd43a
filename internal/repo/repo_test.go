package repo

import (
	"strings"
	"testing"

	"github.com/shaiso/ghreport/internal/domain"
)

func TestLockKey_Stable(t *testing.T) {
	a := LockKey("ghreport:github-engine-2026-10-19-s")
	b := LockKey("ghreport:github-engine-2026-10-19-s")
	c := LockKey("ghreport:github-engine-2026-10-20-s")

	if a != b {
		t.Error("same name must give same key")
	}
	if a == c {
		t.Error("different days should give different keys")
	}
}

func TestMarshalSteps_NilIsEmptyArray(t *testing.T) {
	data, err := marshalSteps(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected [], got %s", data)
	}

	data, err = marshalSteps([]domain.StepResult{{Name: "load_data", Status: domain.StepStatusSucceeded}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"name":"load_data"`) {
		t.Errorf("unexpected steps json: %s", data)
	}
}

func TestParseDay(t *testing.T) {
	if _, err := parseDay("2026-10-19"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := parseDay("19.10.2026"); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestNullString(t *testing.T) {
	if nullString("") != nil {
		t.Error("empty string should be NULL")
	}
	if s := nullString("x"); s == nil || *s != "x" {
		t.Error("non-empty string should be kept")
	}
	if deref(nil) != "" {
		t.Error("deref(nil) should be empty")
	}
}

func TestSchemaSQL_Embedded(t *testing.T) {
	for _, table := range []string{"pipeline_runs", "schedule_state"} {
		if !strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("schema.sql must create %s", table)
		}
	}
}
