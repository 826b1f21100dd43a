package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaiso/ghreport/internal/domain"
)

const testProfile = `[default]
host = azure.relationalai.com
port = 443
region = us-east
client_id = abc
client_secret = secret

[staging]
host = staging.relationalai.com
port = 8443
scheme = https
client_id = stage
client_secret = stage-secret
`

func writeProfile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(testProfile), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	v := New()
	v.Set(KeyRAIConfig, writeProfile(t))

	s, err := Load(v, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.EnginePrefix != "github-engine" || s.EngineSize != domain.EngineSizeS {
		t.Errorf("unexpected engine defaults: %s %s", s.EnginePrefix, s.EngineSize)
	}
	if s.Database != "github_issues_continuous" {
		t.Errorf("unexpected database: %s", s.Database)
	}
	if s.PollAttempts != 5 || s.PollInterval != 180*time.Second {
		t.Errorf("unexpected poll defaults: %d %v", s.PollAttempts, s.PollInterval)
	}
	if s.Owner != "RelationalAI" || s.Repo != "raicode" {
		t.Errorf("unexpected repository: %s/%s", s.Owner, s.Repo)
	}
	if s.APIAllowReset {
		t.Error("api reset must be disabled by default")
	}
	if s.RAI.Host != "azure.relationalai.com" || s.RAI.ClientID != "abc" || s.RAI.Port != 443 {
		t.Errorf("unexpected profile: %+v", s.RAI)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GHREPORT_ENGINE_SIZE", "m")
	t.Setenv("GHREPORT_POLL_INTERVAL", "30s")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("DB_URL", "postgres://localhost/ghreport")

	v := New()
	s, err := Load(v, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.EngineSize != domain.EngineSizeM {
		t.Errorf("expected size M, got %s", s.EngineSize)
	}
	if s.PollInterval != 30*time.Second {
		t.Errorf("expected 30s, got %v", s.PollInterval)
	}
	if s.GitHubToken != "ghp_test" {
		t.Errorf("expected token from GITHUB_TOKEN, got %q", s.GitHubToken)
	}
	if s.DBURL != "postgres://localhost/ghreport" {
		t.Errorf("unexpected db url: %q", s.DBURL)
	}
}

func TestLoad_InvalidSize(t *testing.T) {
	v := New()
	v.Set(KeyEngineSize, "XXL")

	if _, err := Load(v, false); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	v := New()
	v.Set(KeyTimezone, "Mars/Olympus")

	if _, err := Load(v, false); !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}
}

func TestLoadProfile_NamedSection(t *testing.T) {
	cfg, err := LoadProfile(writeProfile(t), "staging")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "staging.relationalai.com" || cfg.Port != 8443 || cfg.ClientSecret != "stage-secret" {
		t.Errorf("unexpected staging profile: %+v", cfg)
	}
}

func TestLoadProfile_MissingSection(t *testing.T) {
	_, err := LoadProfile(writeProfile(t), "prod")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestLoadProfile_EnvOnly(t *testing.T) {
	t.Setenv("RAI_HOST", "localhost")
	t.Setenv("RAI_PORT", "8010")
	t.Setenv("RAI_SCHEME", "http")

	cfg, err := LoadProfile(filepath.Join(t.TempDir(), "missing"), "default")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "localhost" || cfg.Port != 8010 || cfg.Scheme != "http" {
		t.Errorf("unexpected profile: %+v", cfg)
	}
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "missing"), "default")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestLoadProfile_BadPort(t *testing.T) {
	t.Setenv("RAI_PORT", "https")

	_, err := LoadProfile(writeProfile(t), "default")
	if !errors.Is(err, ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}
}
