package code

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/gsarma/judgekit/internal/language"
)

const (
	DefaultPistonURL = "https://emkc.org/api/v2/piston"

	pistonName           = "piston"
	pistonCompileTimeout = 10000 // ms
	pistonRunTimeout     = 3000  // ms
	pistonRequestTimeout = 15 * time.Second
	maxProviderBodyBytes = 4 << 20
)

// PistonConfig holds the connection settings for a Piston instance.
// AuthToken is optional; when set it is sent as a Bearer token, for
// deployments that sit behind an authenticating proxy.
type PistonConfig struct {
	URL       string        `json:"url" yaml:"url"`
	AuthToken string        `json:"auth_token,omitempty" yaml:"auth_token"`
	Timeout   time.Duration `json:"timeout,omitempty" yaml:"timeout"`
}

// PistonBackend executes code through Piston's synchronous /execute endpoint.
type PistonBackend struct {
	url    string
	client *http.Client
}

func NewPistonBackend(cfg PistonConfig) *PistonBackend {
	url := strings.TrimRight(cfg.URL, "/")
	if url == "" {
		url = DefaultPistonURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = pistonRequestTimeout
	}

	client := &http.Client{Timeout: timeout}
	if cfg.AuthToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AuthToken, TokenType: "Bearer"})
		client.Transport = &oauth2.Transport{Source: src}
	}
	return &PistonBackend{url: url, client: client}
}

func (p *PistonBackend) Name() string { return pistonName }

type pistonFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type pistonRequest struct {
	Language           string       `json:"language"`
	Version            string       `json:"version"`
	Files              []pistonFile `json:"files"`
	Stdin              string       `json:"stdin"`
	Args               []string     `json:"args"`
	CompileTimeout     int          `json:"compile_timeout"`
	RunTimeout         int          `json:"run_timeout"`
	CompileMemoryLimit int          `json:"compile_memory_limit"`
	RunMemoryLimit     int          `json:"run_memory_limit"`
}

type pistonStage struct {
	Stdout   string  `json:"stdout"`
	Stderr   string  `json:"stderr"`
	Output   string  `json:"output"`
	Code     *int    `json:"code"`
	Signal   *string `json:"signal"`
	Memory   *int64  `json:"memory"`    // bytes, newer Piston releases only
	WallTime *int64  `json:"wall_time"` // ms, newer Piston releases only
}

type pistonResponse struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Run      *pistonStage `json:"run"`
	Compile  *pistonStage `json:"compile"`
	Message  string       `json:"message"` // present on error
}

// Run posts the source as a single file and maps Piston's run stage onto a Result.
func (p *PistonBackend) Run(ctx context.Context, lang language.Entry, sourceCode, stdin string) (*Result, error) {
	if lang.PistonLanguage == "" || lang.FileName == "" {
		return nil, newError(UnsupportedLanguage, pistonName, "no piston runtime for %q", lang.Key)
	}

	bodyJSON, err := json.Marshal(pistonRequest{
		Language:           lang.PistonLanguage,
		Version:            "*",
		Files:              []pistonFile{{Name: lang.FileName, Content: sourceCode}},
		Stdin:              stdin,
		Args:               []string{},
		CompileTimeout:     pistonCompileTimeout,
		RunTimeout:         pistonRunTimeout,
		CompileMemoryLimit: -1,
		RunMemoryLimit:     -1,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/execute", bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, requestError(ctx, pistonName, "execute: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBodyBytes))
	if err != nil {
		return nil, requestError(ctx, pistonName, "read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var body pistonResponse
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &body) == nil && body.Message != "" {
			msg = body.Message
		}
		return nil, newError(TransportFailure, pistonName, "HTTP %d: %s", resp.StatusCode, msg)
	}

	var out pistonResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, newError(MalformedResponse, pistonName, "decode response: %w", err)
	}
	if out.Run == nil {
		if out.Message != "" {
			return nil, newError(MalformedResponse, pistonName, "no run result: %s", out.Message)
		}
		return nil, newError(MalformedResponse, pistonName, "no run result")
	}
	return out.result(), nil
}

func (r *pistonResponse) result() *Result {
	if c := r.Compile; c != nil && c.Code != nil && *c.Code != 0 {
		msg := firstNonEmpty(strings.TrimSpace(c.Stderr), strings.TrimSpace(c.Output), "compilation failed")
		return &Result{Success: false, Output: strings.TrimSpace(c.Stdout), Error: msg}
	}

	run := r.Run
	stderr := strings.TrimSpace(run.Stderr)
	exitOK := run.Code != nil && *run.Code == 0

	res := &Result{
		Success: stderr == "" && exitOK,
		Output:  strings.TrimSpace(run.Stdout),
	}
	switch {
	case stderr != "":
		res.Error = stderr
	case run.Code == nil && run.Signal != nil:
		res.Error = "killed by " + *run.Signal
	case run.Code == nil:
		res.Error = "process did not report an exit code"
	case !exitOK:
		res.Error = fmt.Sprintf("process exited with code %d", *run.Code)
	}

	if run.WallTime != nil {
		ms := *run.WallTime
		res.ExecutionTime = &ms
	}
	if run.Memory != nil {
		kb := *run.Memory / 1024
		res.Memory = &kb
	}
	return res
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
