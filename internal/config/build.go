package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/gsarma/judgekit/internal/code"
	"github.com/gsarma/judgekit/internal/engine"
	"github.com/gsarma/judgekit/internal/language"
)

// NewBackend constructs the backend named by engine.backend.
func (c *Config) NewBackend() (code.Backend, error) {
	switch c.Engine.Backend {
	case BackendPiston:
		return code.NewPistonBackend(c.Piston), nil
	case BackendJudge0:
		return code.NewJudge0Backend(c.Judge0), nil
	default:
		return nil, fmt.Errorf("unknown execution backend %q", c.Engine.Backend)
	}
}

// NewRegistry loads engine.languages_file, or the built-in table when unset.
func (c *Config) NewRegistry() (*language.Registry, error) {
	if c.Engine.LanguagesFile == "" {
		return language.Default(), nil
	}
	return language.LoadFile(c.Engine.LanguagesFile)
}

// NewEngine wires registry, backend and admission control into an Engine.
func (c *Config) NewEngine(log zerolog.Logger) (*engine.Engine, error) {
	reg, err := c.NewRegistry()
	if err != nil {
		return nil, err
	}
	backend, err := c.NewBackend()
	if err != nil {
		return nil, err
	}
	return engine.New(reg, backend, engine.Options{
		MaxConcurrent: c.Engine.MaxConcurrent,
		Logger:        log,
	}), nil
}

// NewLogger builds the process logger described by the log section.
func (c *Config) NewLogger(out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if c.Log.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "judgekit").Logger()
}
