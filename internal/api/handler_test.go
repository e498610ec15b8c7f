package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/gsarma/judgekit/internal/code"
	"github.com/gsarma/judgekit/internal/crypto"
	"github.com/gsarma/judgekit/internal/language"
	"github.com/gsarma/judgekit/internal/limiter"
	"github.com/gsarma/judgekit/internal/store"
	"github.com/gsarma/judgekit/internal/tenant"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubQuerier implements store.Querier for api handler tests.
type stubQuerier struct {
	tenants map[string]store.Tenant // by key hash, when non-nil

	createJobFn           func(ctx context.Context, arg store.CreateJobParams) (store.Job, error)
	getJobFn              func(ctx context.Context, arg store.GetJobParams) (store.Job, error)
	getTenantByIDFn       func(ctx context.Context, id uuid.UUID) (store.Tenant, error)
	insertCodeExecutionFn func(ctx context.Context, arg store.InsertCodeExecutionParams) (store.CodeExecution, error)
	getCodeExecutionFn    func(ctx context.Context, arg store.GetCodeExecutionParams) (store.CodeExecution, error)
}

func (s *stubQuerier) CreateJob(ctx context.Context, arg store.CreateJobParams) (store.Job, error) {
	if s.createJobFn != nil {
		return s.createJobFn(ctx, arg)
	}
	return store.Job{}, nil
}
func (s *stubQuerier) GetJob(ctx context.Context, arg store.GetJobParams) (store.Job, error) {
	if s.getJobFn != nil {
		return s.getJobFn(ctx, arg)
	}
	return store.Job{}, pgx.ErrNoRows
}
func (s *stubQuerier) ClaimNextJob(ctx context.Context) (store.Job, error) {
	return store.Job{}, pgx.ErrNoRows
}
func (s *stubQuerier) UpdateJobStatus(ctx context.Context, arg store.UpdateJobStatusParams) (store.Job, error) {
	return store.Job{}, nil
}
func (s *stubQuerier) CreateTenant(ctx context.Context, arg store.CreateTenantParams) (store.Tenant, error) {
	t := store.Tenant{ID: uuid.New(), ApiKeyHash: arg.ApiKeyHash, EncryptedDataKey: arg.EncryptedDataKey}
	if s.tenants != nil {
		s.tenants[arg.ApiKeyHash] = t
	}
	return t, nil
}
func (s *stubQuerier) GetTenantByAPIKeyHash(ctx context.Context, apiKeyHash string) (store.Tenant, error) {
	if t, ok := s.tenants[apiKeyHash]; ok {
		return t, nil
	}
	return store.Tenant{}, pgx.ErrNoRows
}
func (s *stubQuerier) GetTenantByID(ctx context.Context, id uuid.UUID) (store.Tenant, error) {
	if s.getTenantByIDFn != nil {
		return s.getTenantByIDFn(ctx, id)
	}
	return store.Tenant{}, pgx.ErrNoRows
}
func (s *stubQuerier) InsertCodeExecution(ctx context.Context, arg store.InsertCodeExecutionParams) (store.CodeExecution, error) {
	if s.insertCodeExecutionFn != nil {
		return s.insertCodeExecutionFn(ctx, arg)
	}
	return store.CodeExecution{}, nil
}
func (s *stubQuerier) GetCodeExecution(ctx context.Context, arg store.GetCodeExecutionParams) (store.CodeExecution, error) {
	if s.getCodeExecutionFn != nil {
		return s.getCodeExecutionFn(ctx, arg)
	}
	return store.CodeExecution{}, pgx.ErrNoRows
}

// Compile-time interface check.
var _ store.Querier = (*stubQuerier)(nil)

// stubEngine records graded requests and returns a canned result.
type stubEngine struct {
	result  code.Result
	healthy bool
	got     []code.Request
}

func (e *stubEngine) Backend() string { return "stub" }
func (e *stubEngine) Languages() []language.Entry {
	return []language.Entry{{Key: "python", Name: "Python"}, {Key: "go", Name: "Go"}}
}
func (e *stubEngine) IsLanguageSupported(lang string) bool { return lang == "python" || lang == "go" }
func (e *stubEngine) ExecuteWithTestCases(_ context.Context, req code.Request) code.Result {
	e.got = append(e.got, req)
	return e.result
}
func (e *stubEngine) TestConnection(context.Context) bool { return e.healthy }

var _ Engine = (*stubEngine)(nil)

// testTenant returns a tenant service and a tenant holding a real sealed data key.
func testTenant(t *testing.T, q store.Querier) (*tenant.Service, *store.Tenant) {
	t.Helper()
	keys, err := crypto.NewKeyring(strings.Repeat("5c", 32))
	if err != nil {
		t.Fatal(err)
	}
	_, sealed, err := keys.NewDataKey()
	if err != nil {
		t.Fatal(err)
	}
	return tenant.NewService(q, keys), &store.Tenant{ID: uuid.New(), EncryptedDataKey: sealed}
}

// ginCtx builds a Gin test context with an authenticated tenant already set.
func ginCtx(method, path string, body []byte, tn *store.Tenant, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	c.Set("tenant", tn)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
	return resp
}

// --- Execute tests ---

func TestExecute_Sync_ReturnsResult(t *testing.T) {
	ms := int64(12)
	eng := &stubEngine{result: code.Result{Success: true, Output: "3", ExecutionTime: &ms}}
	q := &stubQuerier{}
	svc, tn := testTenant(t, q)
	h := &Handler{queries: q, tenantSvc: svc, engine: eng, log: zerolog.Nop()}

	body, _ := json.Marshal(map[string]interface{}{
		"language": "python", "code": "print(1+2)",
		"test_cases": []map[string]string{{"input": "", "expected_output": "3"}},
	})
	c, w := ginCtx("POST", "/executions?sync=true", body, tn, nil)
	h.Execute(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["success"] != true || resp["output"] != "3" || resp["execution_time"] != float64(12) {
		t.Errorf("unexpected body %v", resp)
	}
	if len(eng.got) != 1 || eng.got[0].Language != "python" || len(eng.got[0].TestCases) != 1 {
		t.Errorf("engine got %+v", eng.got)
	}
}

func TestExecute_Sync_FailureIsStill200(t *testing.T) {
	eng := &stubEngine{result: code.Result{Success: false, Error: "Language 'cobol' is not supported"}}
	q := &stubQuerier{}
	svc, tn := testTenant(t, q)
	h := &Handler{queries: q, tenantSvc: svc, engine: eng, log: zerolog.Nop()}

	body, _ := json.Marshal(map[string]string{"language": "cobol", "code": "x"})
	c, w := ginCtx("POST", "/executions?sync=true", body, tn, nil)
	h.Execute(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp := decode(t, w); resp["success"] != false || resp["error"] != "Language 'cobol' is not supported" {
		t.Errorf("unexpected body %v", resp)
	}
}

func manyCases(n int) []map[string]string {
	cases := make([]map[string]string, n)
	for i := range cases {
		cases[i] = map[string]string{"input": strconv.Itoa(i), "expected_output": strconv.Itoa(i)}
	}
	return cases
}

func TestExecute_Sync_TooManyTestCases_Returns400(t *testing.T) {
	eng := &stubEngine{result: code.Result{Success: true}}
	q := &stubQuerier{}
	svc, tn := testTenant(t, q)
	h := &Handler{queries: q, tenantSvc: svc, engine: eng, log: zerolog.Nop()}

	body, _ := json.Marshal(map[string]interface{}{
		"language": "python", "code": "print(input())", "test_cases": manyCases(maxSyncTestCases + 1),
	})
	c, w := ginCtx("POST", "/executions?sync=true", body, tn, nil)
	h.Execute(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if msg, _ := decode(t, w)["error"].(string); !strings.Contains(msg, "?sync=true") {
		t.Errorf("expected the error to point at the queued path, got %q", msg)
	}
	if len(eng.got) != 0 {
		t.Errorf("engine should not run, got %d calls", len(eng.got))
	}
}

func TestExecute_Sync_AtTestCaseLimitRuns(t *testing.T) {
	eng := &stubEngine{result: code.Result{Success: true}}
	q := &stubQuerier{}
	svc, tn := testTenant(t, q)
	h := &Handler{queries: q, tenantSvc: svc, engine: eng, log: zerolog.Nop()}

	body, _ := json.Marshal(map[string]interface{}{
		"language": "python", "code": "print(input())", "test_cases": manyCases(maxSyncTestCases),
	})
	c, w := ginCtx("POST", "/executions?sync=true", body, tn, nil)
	h.Execute(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(eng.got) != 1 || len(eng.got[0].TestCases) != maxSyncTestCases {
		t.Errorf("engine got %+v", eng.got)
	}
}

func TestExecute_Async_AcceptsLargeSuites(t *testing.T) {
	eng := &stubEngine{}
	q := &stubQuerier{}
	svc, tn := testTenant(t, q)
	h := &Handler{queries: q, tenantSvc: svc, engine: eng, log: zerolog.Nop()}

	body, _ := json.Marshal(map[string]interface{}{
		"language": "python", "code": "print(input())", "test_cases": manyCases(maxSyncTestCases * 5),
	})
	c, w := ginCtx("POST", "/executions", body, tn, nil)
	h.Execute(c)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
}

func TestExecute_Async_QueuesSealedJob(t *testing.T) {
	var gotParams store.CreateJobParams
	jobID := uuid.New()
	q := &stubQuerier{
		createJobFn: func(_ context.Context, arg store.CreateJobParams) (store.Job, error) {
			gotParams = arg
			return store.Job{ID: jobID, Status: "pending"}, nil
		},
	}
	eng := &stubEngine{}
	svc, tn := testTenant(t, q)
	h := &Handler{queries: q, tenantSvc: svc, engine: eng, log: zerolog.Nop()}

	body, _ := json.Marshal(map[string]interface{}{
		"language": "python", "code": "print(input())",
		"test_cases": []map[string]string{{"input": "secret", "expected_output": "secret"}},
	})
	c, w := ginCtx("POST", "/executions", body, tn, nil)
	h.Execute(c)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["job_id"] != jobID.String() || resp["status"] != "queued" {
		t.Errorf("unexpected body %v", resp)
	}
	if len(eng.got) != 0 {
		t.Error("async path must not execute inline")
	}
	if gotParams.JobType != code.JobTypeExecute || gotParams.TenantID != tn.ID {
		t.Errorf("unexpected job params %+v", gotParams)
	}
	if bytes.Contains(gotParams.Payload, []byte("secret")) {
		t.Error("queued payload must be sealed")
	}

	opened, err := svc.OpenPayload(tn, code.JobTypeExecute, gotParams.Payload)
	if err != nil {
		t.Fatal(err)
	}
	var req code.Request
	if err := json.Unmarshal(opened, &req); err != nil {
		t.Fatal(err)
	}
	if req.Language != "python" || len(req.TestCases) != 1 || req.TestCases[0].Input != "secret" {
		t.Errorf("unexpected queued request %+v", req)
	}
}

func TestExecute_Async_StoreError_Returns500(t *testing.T) {
	q := &stubQuerier{
		createJobFn: func(_ context.Context, _ store.CreateJobParams) (store.Job, error) {
			return store.Job{}, pgx.ErrTxClosed
		},
	}
	svc, tn := testTenant(t, q)
	h := &Handler{queries: q, tenantSvc: svc, engine: &stubEngine{}, log: zerolog.Nop()}

	body, _ := json.Marshal(map[string]string{"language": "python", "code": "x"})
	c, w := ginCtx("POST", "/executions", body, tn, nil)
	h.Execute(c)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestExecute_MissingLanguage_Returns400(t *testing.T) {
	q := &stubQuerier{}
	svc, tn := testTenant(t, q)
	h := &Handler{queries: q, tenantSvc: svc, engine: &stubEngine{}, log: zerolog.Nop()}

	body, _ := json.Marshal(map[string]string{"code": "print(1)"})
	c, w := ginCtx("POST", "/executions?sync=true", body, tn, nil)
	h.Execute(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing language, got %d", w.Code)
	}
}

// --- ExecuteJob tests ---

func TestExecuteJob_RunsAndStoresResult(t *testing.T) {
	var stored store.InsertCodeExecutionParams
	q := &stubQuerier{
		insertCodeExecutionFn: func(_ context.Context, arg store.InsertCodeExecutionParams) (store.CodeExecution, error) {
			stored = arg
			return store.CodeExecution{}, nil
		},
	}
	svc, tn := testTenant(t, q)
	q.getTenantByIDFn = func(_ context.Context, id uuid.UUID) (store.Tenant, error) {
		if id != tn.ID {
			return store.Tenant{}, pgx.ErrNoRows
		}
		return *tn, nil
	}
	eng := &stubEngine{result: code.Result{Success: false, Output: "1", Error: "1 of 2 test cases failed"}}
	h := &Handler{queries: q, tenantSvc: svc, engine: eng, log: zerolog.Nop()}

	payload, _ := json.Marshal(code.Request{Language: "go", Code: "package main"})
	sealed, err := svc.SealPayload(tn, code.JobTypeExecute, payload)
	if err != nil {
		t.Fatal(err)
	}

	jobID := uuid.New()
	if err := h.ExecuteJob(context.Background(), jobID, tn.ID, code.JobTypeExecute, sealed); err != nil {
		t.Fatalf("a failed execution is a result, not a job error: %v", err)
	}
	if len(eng.got) != 1 || eng.got[0].Language != "go" {
		t.Errorf("engine got %+v", eng.got)
	}
	if stored.JobID != jobID || stored.TenantID != tn.ID || stored.Success || stored.Language != "go" {
		t.Errorf("unexpected stored params %+v", stored)
	}
	var res code.Result
	if err := json.Unmarshal(stored.Result, &res); err != nil || res.Error != "1 of 2 test cases failed" {
		t.Errorf("unexpected stored result %s (%v)", stored.Result, err)
	}
}

func TestExecuteJob_StoreErrorIsRetryable(t *testing.T) {
	q := &stubQuerier{
		insertCodeExecutionFn: func(context.Context, store.InsertCodeExecutionParams) (store.CodeExecution, error) {
			return store.CodeExecution{}, pgx.ErrTxClosed
		},
	}
	svc, tn := testTenant(t, q)
	q.getTenantByIDFn = func(context.Context, uuid.UUID) (store.Tenant, error) { return *tn, nil }
	h := &Handler{queries: q, tenantSvc: svc, engine: &stubEngine{}, log: zerolog.Nop()}

	payload, _ := json.Marshal(code.Request{Language: "python"})
	sealed, _ := svc.SealPayload(tn, code.JobTypeExecute, payload)
	if err := h.ExecuteJob(context.Background(), uuid.New(), tn.ID, code.JobTypeExecute, sealed); err == nil {
		t.Error("expected store failure to surface for retry")
	}
}

func TestExecuteJob_Rejects(t *testing.T) {
	q := &stubQuerier{}
	svc, tn := testTenant(t, q)
	q.getTenantByIDFn = func(context.Context, uuid.UUID) (store.Tenant, error) { return *tn, nil }
	h := &Handler{queries: q, tenantSvc: svc, engine: &stubEngine{}, log: zerolog.Nop()}

	if err := h.ExecuteJob(context.Background(), uuid.New(), tn.ID, "email.send", nil); err == nil {
		t.Error("expected unknown job type error")
	}
	if err := h.ExecuteJob(context.Background(), uuid.New(), tn.ID, code.JobTypeExecute, []byte("garbage")); err == nil {
		t.Error("expected unsealed payload to be rejected")
	}

	q.getTenantByIDFn = nil
	if err := h.ExecuteJob(context.Background(), uuid.New(), uuid.New(), code.JobTypeExecute, nil); err == nil {
		t.Error("expected missing tenant error")
	}
}

// --- GetCodeExecution tests ---

func TestGetCodeExecution_Found(t *testing.T) {
	jobID := uuid.New()
	q := &stubQuerier{
		getCodeExecutionFn: func(_ context.Context, arg store.GetCodeExecutionParams) (store.CodeExecution, error) {
			return store.CodeExecution{JobID: arg.JobID, Language: "python", Result: []byte(`{"success":true,"output":"hi"}`)}, nil
		},
	}
	svc, tn := testTenant(t, q)
	h := &Handler{queries: q, tenantSvc: svc, log: zerolog.Nop()}

	c, w := ginCtx("GET", "/executions/"+jobID.String(), nil, tn, gin.Params{{Key: "job_id", Value: jobID.String()}})
	h.GetCodeExecution(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	result, _ := resp["result"].(map[string]interface{})
	if result["output"] != "hi" || resp["language"] != "python" {
		t.Errorf("unexpected body %v", resp)
	}
}

func TestGetCodeExecution_NotFound(t *testing.T) {
	q := &stubQuerier{}
	svc, tn := testTenant(t, q)
	h := &Handler{queries: q, tenantSvc: svc, log: zerolog.Nop()}

	id := uuid.New().String()
	c, w := ginCtx("GET", "/executions/"+id, nil, tn, gin.Params{{Key: "job_id", Value: id}})
	h.GetCodeExecution(c)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// --- GetJob tests ---

func TestGetJob_Found_Returns200(t *testing.T) {
	tn := &store.Tenant{ID: uuid.New()}
	jobID := uuid.New()
	now := time.Now()
	job := store.Job{
		ID:        jobID,
		TenantID:  tn.ID,
		JobType:   code.JobTypeExecute,
		Status:    "completed",
		Error:     pgtype.Text{Valid: false},
		RunAt:     now,
		CreatedAt: now,
	}

	q := &stubQuerier{
		getJobFn: func(_ context.Context, arg store.GetJobParams) (store.Job, error) {
			if arg.ID != jobID || arg.TenantID != tn.ID {
				t.Errorf("unexpected GetJob params: %+v", arg)
			}
			return job, nil
		},
	}
	h := &Handler{queries: q, log: zerolog.Nop()}

	c, w := ginCtx("GET", "/jobs/"+jobID.String(), nil, tn, gin.Params{{Key: "id", Value: jobID.String()}})
	h.GetJob(c)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["status"] != "completed" {
		t.Errorf("expected status=completed, got %v", resp["status"])
	}
	if _, leaked := resp["payload"]; leaked {
		t.Error("job payload must not be exposed")
	}
}

func TestGetJob_NotFound_Returns404(t *testing.T) {
	h := &Handler{queries: &stubQuerier{}, log: zerolog.Nop()} // getJobFn is nil, returns pgx.ErrNoRows

	jobID := uuid.New()
	c, w := ginCtx("GET", "/jobs/"+jobID.String(), nil, &store.Tenant{ID: uuid.New()},
		gin.Params{{Key: "id", Value: jobID.String()}})
	h.GetJob(c)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestGetJob_InvalidUUID_Returns400(t *testing.T) {
	h := &Handler{queries: &stubQuerier{}, log: zerolog.Nop()}

	c, w := ginCtx("GET", "/jobs/not-a-uuid", nil, &store.Tenant{ID: uuid.New()},
		gin.Params{{Key: "id", Value: "not-a-uuid"}})
	h.GetJob(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGetJob_TenantScoped(t *testing.T) {
	// A job belonging to another tenant must return 404.
	ownerTenant := uuid.New()
	jobID := uuid.New()

	q := &stubQuerier{
		getJobFn: func(_ context.Context, arg store.GetJobParams) (store.Job, error) {
			if arg.TenantID != ownerTenant {
				return store.Job{}, pgx.ErrNoRows
			}
			return store.Job{ID: jobID}, nil
		},
	}
	h := &Handler{queries: q, log: zerolog.Nop()}

	c, w := ginCtx("GET", "/jobs/"+jobID.String(), nil, &store.Tenant{ID: uuid.New()},
		gin.Params{{Key: "id", Value: jobID.String()}})
	h.GetJob(c)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for cross-tenant access, got %d", w.Code)
	}
}

// --- Routing ---

func TestRoutes_EndToEnd(t *testing.T) {
	q := &stubQuerier{tenants: map[string]store.Tenant{}}
	svc, _ := testTenant(t, q)
	eng := &stubEngine{healthy: true, result: code.Result{Success: true, Output: "ok"}}

	r := gin.New()
	RegisterRoutes(r, Deps{
		Queries: q,
		Tenants: svc,
		Engine:  eng,
		Limiter: limiter.New(1000, 1000, 1000),
		Logger:  zerolog.Nop(),
	})

	do := func(method, path, key string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := do("GET", "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health: %d", w.Code)
	}
	if w := do("GET", "/metrics", "", nil); w.Code != http.StatusOK {
		t.Errorf("metrics: %d", w.Code)
	}
	if w := do("GET", "/languages", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("languages without key: expected 401, got %d", w.Code)
	}

	w := do("POST", "/tenants", "", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create tenant: %d", w.Code)
	}
	apiKey, _ := decode(t, w)["api_key"].(string)
	if apiKey == "" {
		t.Fatal("expected api_key in response")
	}

	w = do("GET", "/languages", apiKey, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("languages: %d %s", w.Code, w.Body.String())
	}
	langs, _ := decode(t, w)["languages"].([]interface{})
	if len(langs) != 2 {
		t.Errorf("expected 2 languages, got %v", langs)
	}

	if resp := decode(t, do("GET", "/languages/go", apiKey, nil)); resp["supported"] != true {
		t.Errorf("expected go supported, got %v", resp)
	}
	if resp := decode(t, do("GET", "/languages/cobol", apiKey, nil)); resp["supported"] != false {
		t.Errorf("expected cobol unsupported, got %v", resp)
	}

	if w := do("GET", "/health/backend", apiKey, nil); w.Code != http.StatusOK {
		t.Errorf("backend health: %d", w.Code)
	}
	eng.healthy = false
	if w := do("GET", "/health/backend", apiKey, nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("backend health down: expected 503, got %d", w.Code)
	}

	body, _ := json.Marshal(map[string]string{"language": "go", "code": "package main"})
	if w := do("POST", "/executions?sync=true", apiKey, body); w.Code != http.StatusOK {
		t.Errorf("sync execution: %d", w.Code)
	}
}

func TestRoutes_RateLimited(t *testing.T) {
	q := &stubQuerier{tenants: map[string]store.Tenant{}}
	svc, _ := testTenant(t, q)
	r := gin.New()
	RegisterRoutes(r, Deps{
		Queries: q,
		Tenants: svc,
		Engine:  &stubEngine{},
		Limiter: limiter.New(1000, 0.001, 1),
		Logger:  zerolog.Nop(),
	})

	apiKey, _, err := svc.Create(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest("GET", "/languages", nil)
		req.Header.Set("Authorization", "Bearer "+apiKey)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("expected [200 429], got %v", codes)
	}
}
