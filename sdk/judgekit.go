// Package judgekit provides a Go client for the judgekit execution API.
//
// judgekit runs untrusted source code on a remote execution backend and
// grades it against stdin/stdout test cases.
//
// Usage:
//
//	// Create a tenant (no API key required)
//	provisioner := judgekit.NewProvisioner("https://judge.example.com")
//	tenant, err := provisioner.CreateTenant(ctx)
//
//	client := judgekit.New("https://judge.example.com", tenant.APIKey)
//
//	// Grade a submission synchronously
//	res, err := client.Executions.Run(ctx, judgekit.ExecuteRequest{
//	    Language: "python",
//	    Code:     "a, b = map(int, input().split()); print(a + b)",
//	    TestCases: []judgekit.TestCase{
//	        {Input: "2 3", ExpectedOutput: "5"},
//	    },
//	})
package judgekit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client is the authenticated judgekit API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// Service accessors
	Executions *ExecutionsService
	Languages  *LanguagesService
	Jobs       *JobsService
}

// Provisioner is an unauthenticated client used only for tenant provisioning.
type Provisioner struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. Synchronous executions can take
// as long as the backend does, so set a generous timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates an authenticated client.
// baseURL should be the root URL (e.g. "https://judge.example.com").
// apiKey is the Bearer token returned when a tenant is provisioned.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	c.Executions = &ExecutionsService{c: c}
	c.Languages = &LanguagesService{c: c}
	c.Jobs = &JobsService{c: c}
	return c
}

// NewProvisioner creates an unauthenticated client for tenant provisioning.
func NewProvisioner(baseURL string, opts ...Option) *Provisioner {
	tmp := New(baseURL, "", opts...)
	return &Provisioner{baseURL: tmp.baseURL, httpClient: tmp.httpClient}
}

// CreateTenant provisions a new tenant and returns the API key.
// The API key is shown only once.
func (p *Provisioner) CreateTenant(ctx context.Context) (*CreateTenantResponse, error) {
	c := &Client{baseURL: p.baseURL, httpClient: p.httpClient}
	return doRequest[CreateTenantResponse](ctx, c, http.MethodPost, "/tenants", nil, nil, http.StatusCreated)
}

// Health checks that the server process is up.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	return doRequest[HealthResponse](ctx, c, http.MethodGet, "/health", nil, nil, http.StatusOK)
}

// BackendHealth runs the server's probe program through the execution
// backend. An unhealthy backend is reported as an *APIError with status 503.
func (c *Client) BackendHealth(ctx context.Context) (*HealthResponse, error) {
	return doRequest[HealthResponse](ctx, c, http.MethodGet, "/health/backend", nil, nil, http.StatusOK)
}

// --- internal helpers ---

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("judgekit: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func doRequest[T any](ctx context.Context, c *Client, method, path string, query map[string]string, body any, expectedStatuses ...int) (*T, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	if len(query) > 0 {
		q := req.URL.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	for _, s := range expectedStatuses {
		if resp.StatusCode == s {
			var out T
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return nil, fmt.Errorf("judgekit: decode response: %w", err)
			}
			return &out, nil
		}
	}
	return nil, parseError(resp)
}

func parseError(resp *http.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	var body struct {
		Error  string `json:"error"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && (body.Error != "" || body.Status != "") {
		e.Message = body.Error
		if e.Message == "" {
			e.Message = body.Status
		}
	} else {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
