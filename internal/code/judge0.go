package code

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gsarma/judgekit/internal/language"
	"github.com/gsarma/judgekit/internal/metrics"
)

const (
	DefaultJudge0URL = "https://judge0-ce.p.rapidapi.com"

	judge0Name             = "judge0"
	judge0DefaultInterval  = time.Second
	judge0DefaultMaxPolls  = 10
	judge0RequestTimeout   = 15 * time.Second
	judge0StatusProcessing = 2 // 1 = In Queue, 2 = Processing
	judge0StatusAccepted   = 3
	judge0Fields           = "token,stdout,stderr,compile_output,message,status,time,memory"
)

// Judge0Config holds the connection settings for a Judge0 CE instance.
// URL is the base URL (e.g. "https://judge0-ce.p.rapidapi.com").
// APIKey is required and sent as X-RapidAPI-Key; Host defaults to the URL's
// host. AuthToken is optional and sent as X-Auth-Token for self-hosted
// instances with AUTHN_TOKEN configured.
type Judge0Config struct {
	URL          string        `json:"url" yaml:"url"`
	APIKey       string        `json:"api_key,omitempty" yaml:"api_key"`
	Host         string        `json:"host,omitempty" yaml:"host"`
	AuthToken    string        `json:"auth_token,omitempty" yaml:"auth_token"`
	PollInterval time.Duration `json:"poll_interval,omitempty" yaml:"poll_interval"`
	MaxPolls     int           `json:"max_polls,omitempty" yaml:"max_polls"`
}

// Judge0Backend executes code through Judge0's submit-then-poll API.
type Judge0Backend struct {
	url          string
	apiKey       string
	host         string
	authToken    string
	pollInterval time.Duration
	maxPolls     int
	client       *http.Client
}

// NewJudge0Backend constructs a Judge0Backend from the given config.
func NewJudge0Backend(cfg Judge0Config) *Judge0Backend {
	base := strings.TrimRight(cfg.URL, "/")
	if base == "" {
		base = DefaultJudge0URL
	}
	host := cfg.Host
	if host == "" {
		if u, err := url.Parse(base); err == nil {
			host = u.Host
		}
	}
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = judge0DefaultInterval
	}
	maxPolls := cfg.MaxPolls
	if maxPolls <= 0 {
		maxPolls = judge0DefaultMaxPolls
	}
	return &Judge0Backend{
		url:          base,
		apiKey:       cfg.APIKey,
		host:         host,
		authToken:    cfg.AuthToken,
		pollInterval: interval,
		maxPolls:     maxPolls,
		client:       &http.Client{Timeout: judge0RequestTimeout},
	}
}

func (p *Judge0Backend) Name() string { return judge0Name }

type judge0SubmitRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
	Stdin      string `json:"stdin,omitempty"`
}

type judge0Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type judge0Submission struct {
	Token         string       `json:"token"`
	Stdout        *string      `json:"stdout"`
	Stderr        *string      `json:"stderr"`
	CompileOutput *string      `json:"compile_output"`
	Message       *string      `json:"message"`
	Time          numeric      `json:"time"`
	Memory        numeric      `json:"memory"`
	Status        judge0Status `json:"status"`
}

// numeric accepts a JSON number, a numeric string, or null.
type numeric struct {
	Value float64
	Set   bool
}

func (n *numeric) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*n = numeric{}
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*n = numeric{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %s", b)
	}
	*n = numeric{Value: v, Set: true}
	return nil
}

// Run submits source code to Judge0 and polls until the submission reaches a
// terminal status. Source and stdin are base64-encoded in the request; Judge0
// returns stdout/stderr as base64 which we decode before returning.
func (p *Judge0Backend) Run(ctx context.Context, lang language.Entry, sourceCode, stdin string) (*Result, error) {
	if p.apiKey == "" {
		return nil, &Error{Kind: MissingCredentials, Backend: judge0Name, Err: errors.New("JUDGE0_API_KEY is not configured")}
	}
	if lang.Judge0ID == 0 {
		return nil, newError(UnsupportedLanguage, judge0Name, "no judge0 language id for %q", lang.Key)
	}

	token, err := p.submit(ctx, lang.Judge0ID, sourceCode, stdin)
	if err != nil {
		return nil, err
	}

	sub, err := p.poll(ctx, token)
	if err != nil {
		return nil, err
	}
	return sub.result()
}

func (p *Judge0Backend) submit(ctx context.Context, languageID int, sourceCode, stdin string) (string, error) {
	reqBody := judge0SubmitRequest{
		SourceCode: base64.StdEncoding.EncodeToString([]byte(sourceCode)),
		LanguageID: languageID,
	}
	if stdin != "" {
		reqBody.Stdin = base64.StdEncoding.EncodeToString([]byte(stdin))
	}

	bodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.url+"/submissions?base64_encoded=true&wait=false", bytes.NewReader(bodyJSON))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	var sub judge0Submission
	if err := p.do(req, &sub); err != nil {
		return "", err
	}
	if sub.Token == "" {
		return "", newError(MalformedResponse, judge0Name, "submission response has no token")
	}
	return sub.Token, nil
}

// poll waits pollInterval before each status request and gives up after
// maxPolls non-terminal answers. Cancelling ctx aborts the wait.
func (p *Judge0Backend) poll(ctx context.Context, token string) (*judge0Submission, error) {
	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()

	for attempt := 1; attempt <= p.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			metrics.Judge0Polls.Observe(float64(attempt - 1))
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, &Error{Kind: ExecutionTimeout, Backend: judge0Name, Err: ctx.Err()}
			}
			return nil, fmt.Errorf("judge0: polling abandoned: %w", ctx.Err())
		case <-timer.C:
		}

		sub, err := p.fetch(ctx, token)
		if err != nil {
			metrics.Judge0Polls.Observe(float64(attempt))
			return nil, err
		}
		if sub.Status.ID > judge0StatusProcessing {
			metrics.Judge0Polls.Observe(float64(attempt))
			return sub, nil
		}
		timer.Reset(p.pollInterval)
	}

	metrics.Judge0Polls.Observe(float64(p.maxPolls))
	return nil, newError(ExecutionTimeout, judge0Name, "submission %s still running after %d polls", token, p.maxPolls)
}

func (p *Judge0Backend) fetch(ctx context.Context, token string) (*judge0Submission, error) {
	endpoint := fmt.Sprintf("%s/submissions/%s?base64_encoded=true&fields=%s",
		p.url, url.PathEscape(token), judge0Fields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	p.authorize(req)

	var sub judge0Submission
	if err := p.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (p *Judge0Backend) authorize(req *http.Request) {
	req.Header.Set("X-RapidAPI-Key", p.apiKey)
	if p.host != "" {
		req.Header.Set("X-RapidAPI-Host", p.host)
	}
	if p.authToken != "" {
		req.Header.Set("X-Auth-Token", p.authToken)
	}
}

func (p *Judge0Backend) do(req *http.Request, out *judge0Submission) error {
	resp, err := p.client.Do(req)
	if err != nil {
		return requestError(req.Context(), judge0Name, "%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBodyBytes))
	if err != nil {
		return requestError(req.Context(), judge0Name, "read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return newError(TransportFailure, judge0Name, "HTTP %d: %s", resp.StatusCode, errorSnippet(raw, resp.StatusCode))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return newError(MalformedResponse, judge0Name, "decode response: %w", err)
	}
	return nil
}

func (s *judge0Submission) result() (*Result, error) {
	stdout, err := decodeBase64Field(s.Stdout)
	if err != nil {
		return nil, newError(MalformedResponse, judge0Name, "decode stdout: %w", err)
	}
	stderr, err := decodeBase64Field(s.Stderr)
	if err != nil {
		return nil, newError(MalformedResponse, judge0Name, "decode stderr: %w", err)
	}
	compileOutput, err := decodeBase64Field(s.CompileOutput)
	if err != nil {
		return nil, newError(MalformedResponse, judge0Name, "decode compile_output: %w", err)
	}
	// message is base64 too when base64_encoded=true, but older releases send it plain.
	message, err := decodeBase64Field(s.Message)
	if err != nil && s.Message != nil {
		message = *s.Message
	}

	res := &Result{
		Success: s.Status.ID == judge0StatusAccepted,
		Output:  strings.TrimSpace(stdout),
	}
	stderr = strings.TrimSpace(stderr)
	if stderr != "" {
		res.Error = stderr
	} else if !res.Success {
		res.Error = firstNonEmpty(strings.TrimSpace(compileOutput), strings.TrimSpace(message), s.Status.Description)
	}

	if s.Time.Set {
		ms := int64(math.Round(s.Time.Value * 1000))
		res.ExecutionTime = &ms
	}
	if s.Memory.Set {
		kb := int64(s.Memory.Value)
		res.Memory = &kb
	}
	return res, nil
}

// decodeBase64Field tolerates the line breaks Judge0 inserts every 60 characters.
func decodeBase64Field(v *string) (string, error) {
	if v == nil || *v == "" {
		return "", nil
	}
	clean := strings.NewReplacer("\n", "", "\r", "").Replace(*v)
	b, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func errorSnippet(raw []byte, status int) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if msg := firstNonEmpty(body.Error, body.Message); msg != "" {
			return msg
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return firstNonEmpty(s, http.StatusText(status))
}
