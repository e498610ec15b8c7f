// Package config loads service configuration: built-in defaults, then an
// optional YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gsarma/judgekit/internal/code"
)

type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Database  DatabaseConfig    `yaml:"database"`
	Security  SecurityConfig    `yaml:"security"`
	Engine    EngineConfig      `yaml:"engine"`
	Piston    code.PistonConfig `yaml:"piston"`
	Judge0    code.Judge0Config `yaml:"judge0"`
	RateLimit RateLimitConfig   `yaml:"rate_limit"`
	Worker    WorkerConfig      `yaml:"worker"`
	Log       LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	Mode            string        `yaml:"mode"` // api, worker or all
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type SecurityConfig struct {
	// RootEncryptionKey is 32 bytes, hex encoded.
	RootEncryptionKey string `yaml:"root_encryption_key"`
}

type EngineConfig struct {
	Backend       string `yaml:"backend"` // piston or judge0
	MaxConcurrent int    `yaml:"max_concurrent"`
	LanguagesFile string `yaml:"languages_file"`
}

type RateLimitConfig struct {
	GlobalRPS   float64 `yaml:"global_rps"`
	TenantRPS   float64 `yaml:"tenant_rps"`
	TenantBurst int     `yaml:"tenant_burst"`
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

const (
	BackendPiston = "piston"
	BackendJudge0 = "judge0"

	ModeAPI    = "api"
	ModeWorker = "worker"
	ModeAll    = "all"
)

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Mode:            ModeAll,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    3 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			Backend:       BackendPiston,
			MaxConcurrent: 32,
		},
		Piston: code.PistonConfig{
			URL:     code.DefaultPistonURL,
			Timeout: 15 * time.Second,
		},
		Judge0: code.Judge0Config{
			URL:          code.DefaultJudge0URL,
			Host:         "judge0-ce.p.rapidapi.com",
			PollInterval: time.Second,
			MaxPolls:     10,
		},
		RateLimit: RateLimitConfig{
			GlobalRPS:   100,
			TenantRPS:   5,
			TenantBurst: 10,
		},
		Worker: WorkerConfig{Concurrency: 5},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads path (if non-empty) over the defaults and applies environment
// overrides. The result is not validated; call Validate or ValidateEngine.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Server.Mode = strings.ToLower(cfg.Server.Mode)
	cfg.Engine.Backend = strings.ToLower(cfg.Engine.Backend)
	return cfg, nil
}

// Path returns the config file named by JUDGEKIT_CONFIG, or "".
func Path() string {
	return os.Getenv("JUDGEKIT_CONFIG")
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}
	float := func(key string, dst *float64) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = f
		return nil
	}

	str("DATABASE_URL", &cfg.Database.URL)
	str("ROOT_ENCRYPTION_KEY", &cfg.Security.RootEncryptionKey)
	str("MODE", &cfg.Server.Mode)
	str("EXECUTION_BACKEND", &cfg.Engine.Backend)
	str("LANGUAGES_FILE", &cfg.Engine.LanguagesFile)
	str("PISTON_URL", &cfg.Piston.URL)
	str("PISTON_AUTH_TOKEN", &cfg.Piston.AuthToken)
	str("JUDGE0_URL", &cfg.Judge0.URL)
	str("JUDGE0_API_KEY", &cfg.Judge0.APIKey)
	str("JUDGE0_HOST", &cfg.Judge0.Host)
	str("JUDGE0_AUTH_TOKEN", &cfg.Judge0.AuthToken)
	str("LOG_LEVEL", &cfg.Log.Level)
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		cfg.Log.Pretty = v == "true" || v == "1"
	}

	return errors.Join(
		num("PORT", &cfg.Server.Port),
		num("MAX_CONCURRENT_EXECUTIONS", &cfg.Engine.MaxConcurrent),
		num("WORKER_CONCURRENCY", &cfg.Worker.Concurrency),
		num("JUDGE0_MAX_POLLS", &cfg.Judge0.MaxPolls),
		dur("JUDGE0_POLL_INTERVAL", &cfg.Judge0.PollInterval),
		dur("PISTON_TIMEOUT", &cfg.Piston.Timeout),
		float("RATE_LIMIT_GLOBAL_RPS", &cfg.RateLimit.GlobalRPS),
		float("RATE_LIMIT_TENANT_RPS", &cfg.RateLimit.TenantRPS),
		num("RATE_LIMIT_TENANT_BURST", &cfg.RateLimit.TenantBurst),
	)
}

// ValidateEngine checks only what is needed to build an engine, so tools
// without a database can share the same configuration.
func (c *Config) ValidateEngine() error {
	var errs []error
	switch c.Engine.Backend {
	case BackendPiston:
		if c.Piston.URL == "" {
			errs = append(errs, errors.New("piston.url is required"))
		}
	case BackendJudge0:
		if c.Judge0.URL == "" {
			errs = append(errs, errors.New("judge0.url is required"))
		}
		if c.Judge0.MaxPolls <= 0 {
			errs = append(errs, errors.New("judge0.max_polls must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("engine.backend must be %q or %q, got %q", BackendPiston, BackendJudge0, c.Engine.Backend))
	}
	if c.Engine.MaxConcurrent < 0 {
		errs = append(errs, errors.New("engine.max_concurrent must not be negative"))
	}
	return errors.Join(errs...)
}

// Validate checks everything the server needs.
func (c *Config) Validate() error {
	errs := []error{c.ValidateEngine()}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Security.RootEncryptionKey == "" {
		errs = append(errs, errors.New("ROOT_ENCRYPTION_KEY is required"))
	}
	switch c.Server.Mode {
	case ModeAPI, ModeWorker, ModeAll:
	default:
		errs = append(errs, fmt.Errorf("server.mode must be api, worker or all, got %q", c.Server.Mode))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Worker.Concurrency <= 0 {
		errs = append(errs, errors.New("worker.concurrency must be positive"))
	}
	if c.RateLimit.GlobalRPS <= 0 || c.RateLimit.TenantRPS <= 0 || c.RateLimit.TenantBurst <= 0 {
		errs = append(errs, errors.New("rate_limit values must be positive"))
	}
	return errors.Join(errs...)
}
