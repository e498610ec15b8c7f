package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gsarma/judgekit/internal/config"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Backend != config.BackendPiston {
		t.Errorf("expected piston by default, got %q", cfg.Engine.Backend)
	}
	if cfg.Judge0.MaxPolls != 10 || cfg.Judge0.PollInterval != time.Second {
		t.Errorf("unexpected judge0 polling defaults: %+v", cfg.Judge0)
	}
	if cfg.Server.Mode != config.ModeAll || cfg.Server.Port != 8080 {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
	if err := cfg.ValidateEngine(); err != nil {
		t.Errorf("defaults should build an engine: %v", err)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, "judgekit.yaml", `
server:
  port: 9090
  mode: worker
engine:
  backend: judge0
  max_concurrent: 4
judge0:
  url: http://judge0.internal:2358
  api_key: from-file
  poll_interval: 250ms
rate_limit:
  tenant_rps: 2
`)
	t.Setenv("JUDGE0_API_KEY", "from-env")
	t.Setenv("PORT", "7070")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("env should override file port, got %d", cfg.Server.Port)
	}
	if cfg.Server.Mode != config.ModeWorker {
		t.Errorf("expected worker mode, got %q", cfg.Server.Mode)
	}
	if cfg.Engine.Backend != config.BackendJudge0 || cfg.Engine.MaxConcurrent != 4 {
		t.Errorf("unexpected engine section: %+v", cfg.Engine)
	}
	if cfg.Judge0.APIKey != "from-env" {
		t.Errorf("expected env api key, got %q", cfg.Judge0.APIKey)
	}
	if cfg.Judge0.PollInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms poll interval, got %v", cfg.Judge0.PollInterval)
	}
	if cfg.Judge0.MaxPolls != 10 {
		t.Errorf("unset file keys should keep defaults, got max_polls=%d", cfg.Judge0.MaxPolls)
	}
	if cfg.RateLimit.TenantRPS != 2 || cfg.RateLimit.TenantBurst != 10 {
		t.Errorf("unexpected rate limit: %+v", cfg.RateLimit)
	}
}

func TestLoad_BadEnvNumber(t *testing.T) {
	t.Setenv("PORT", "eighty")
	if _, err := config.Load(""); err == nil || !strings.Contains(err.Error(), "PORT") {
		t.Errorf("expected PORT parse error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("defaults lack database and key, expected error")
	}
	for _, want := range []string{"DATABASE_URL", "ROOT_ENCRYPTION_KEY"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}

	cfg.Database.URL = "postgres://localhost/judgekit"
	cfg.Security.RootEncryptionKey = strings.Repeat("ab", 32)
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.Engine.Backend = "docker"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown backend to be rejected")
	}
	cfg.Engine.Backend = config.BackendPiston

	cfg.Server.Mode = "batch"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown mode to be rejected")
	}
}

func TestNewEngine(t *testing.T) {
	for _, backend := range []string{config.BackendPiston, config.BackendJudge0} {
		cfg := config.Default()
		cfg.Engine.Backend = backend
		e, err := cfg.NewEngine(zerolog.Nop())
		if err != nil {
			t.Fatalf("%s: %v", backend, err)
		}
		if e.Backend() != backend {
			t.Errorf("expected backend %q, got %q", backend, e.Backend())
		}
		if !e.IsLanguageSupported("python") {
			t.Errorf("%s: default registry should include python", backend)
		}
	}

	cfg := config.Default()
	cfg.Engine.Backend = "nope"
	if _, err := cfg.NewEngine(zerolog.Nop()); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewRegistry_FromFile(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.LanguagesFile = writeFile(t, "languages.yaml", `
languages:
  - key: python
    name: Python
    piston_language: python
    file_name: main.py
    judge0_id: 71
`)
	reg, err := cfg.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if got := reg.List(); len(got) != 1 || got[0] != "python" {
		t.Errorf("unexpected registry %v", got)
	}
}

func TestNewLogger_Level(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "warn"
	var buf bytes.Buffer
	log := cfg.NewLogger(&buf)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected log output %q", out)
	}
}
