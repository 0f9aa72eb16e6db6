package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/talentscout/compscout/internal/config"
	"github.com/talentscout/compscout/internal/orchestrator"
	"github.com/talentscout/compscout/internal/pipeline"
	memorystorage "github.com/talentscout/compscout/internal/storage/memory"
)

type stubRunner struct {
	records     []pipeline.CompRecord
	err         error
	lastReq     pipeline.CrawlRequest
	bulkKeyword string
	bulkCalls   int
}

func (s *stubRunner) Run(_ context.Context, req pipeline.CrawlRequest) ([]pipeline.CompRecord, error) {
	s.lastReq = req
	return s.records, s.err
}

func (s *stubRunner) RunBulk(_ context.Context, roleKeyword string, _ int) ([]pipeline.CompRecord, error) {
	s.bulkCalls++
	s.bulkKeyword = roleKeyword
	return s.records, s.err
}

type stubDiagnoser struct {
	report pipeline.DiagnosticReport
}

func (s *stubDiagnoser) Diagnose(_ context.Context, _ string) pipeline.DiagnosticReport {
	return s.report
}

type stubIDGen struct{ id string }

func (s stubIDGen) NewID() (string, error) { return s.id, nil }

type stubClock struct{ at time.Time }

func (s stubClock) Now() time.Time { return s.at }

func newTestServer(t *testing.T, runner Runner, cfg config.Config) (*Server, *memorystorage.RecordStore, *memorystorage.TargetStore) {
	t.Helper()
	records := memorystorage.NewRecordStore()
	targets := memorystorage.NewTargetStore()
	srv := NewServer(
		runner,
		&stubDiagnoser{report: pipeline.DiagnosticReport{
			Steps:   []string{"1. Fetching https://example.com via direct strategy..."},
			Success: true,
		}},
		records,
		targets,
		stubIDGen{id: "test-id"},
		stubClock{at: time.Unix(1700000000, 0).UTC()},
		cfg,
		zap.NewNop(),
	)
	return srv, records, targets
}

func TestRunCrawlReturnsRecords(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{records: []pipeline.CompRecord{
		{ID: "1", RoleTitle: "Engineer", SalaryMax: 150000, SourceURL: "https://example.com/jobs/1"},
	}}
	srv, _, _ := newTestServer(t, runner, config.Config{})

	body := bytes.NewBufferString(`{"career_url":"https://example.com/careers","role_keyword":"engineer","result_limit":2}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/crawls", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://example.com/careers", runner.lastReq.CareerURL)
	require.Equal(t, 2, runner.lastReq.ResultLimit)

	var resp struct {
		Records []pipeline.CompRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	require.Equal(t, "Engineer", resp.Records[0].RoleTitle)
}

func TestRunCrawlNoMatchesIs404(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{err: orchestrator.ErrNoMatches}
	srv, _, _ := newTestServer(t, runner, config.Config{})

	body := bytes.NewBufferString(`{"career_url":"https://example.com/careers","role_keyword":"underwater basket weaver"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/crawls", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "no matching jobs found")
}

func TestRunCrawlValidatesRequest(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t, &stubRunner{}, config.Config{})

	body := bytes.NewBufferString(`{"career_url":"https://example.com/careers"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/crawls", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunCrawlWithoutURLCrawlsAllTargets(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{records: []pipeline.CompRecord{
		{ID: "1", RoleTitle: "Engineer", SourceURL: "https://acme.example/jobs/1"},
		{ID: "2", RoleTitle: "Engineer", SourceURL: "https://globex.example/jobs/2"},
	}}
	srv, _, _ := newTestServer(t, runner, config.Config{})

	body := bytes.NewBufferString(`{"role_keyword":"engineer"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/crawls", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, runner.bulkCalls)
	require.Equal(t, "engineer", runner.bulkKeyword)

	var resp struct {
		Records []pipeline.CompRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 2)
}

func TestRunCrawlBulkNoTargetsIs404(t *testing.T) {
	t.Parallel()

	runner := &stubRunner{err: orchestrator.ErrNoTargets}
	srv, _, _ := newTestServer(t, runner, config.Config{})

	body := bytes.NewBufferString(`{"role_keyword":"engineer"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/crawls", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "no target companies configured")
}

func TestListRecords(t *testing.T) {
	t.Parallel()

	srv, records, _ := newTestServer(t, &stubRunner{}, config.Config{})
	require.NoError(t, records.Insert(context.Background(), pipeline.CompRecord{ID: "1", RoleTitle: "SRE"}))

	req := httptest.NewRequest(http.MethodGet, "/v1/records", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "SRE")
}

func TestTargetLifecycle(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t, &stubRunner{}, config.Config{})

	body := bytes.NewBufferString(`{"name":"Acme","career_url":"https://acme.example/careers"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/targets/", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/targets/", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Acme")

	req = httptest.NewRequest(http.MethodDelete, "/v1/targets/test-id", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/targets/test-id", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiagnoseEndpoint(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t, &stubRunner{}, config.Config{})

	body := bytes.NewBufferString(`{"url":"https://example.com/careers"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/diagnose", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var report pipeline.DiagnosticReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.True(t, report.Success)
	require.NotEmpty(t, report.Steps)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t, &stubRunner{}, config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.Auth.Enabled = true
	cfg.Auth.APIKey = "secret"
	srv, _, _ := newTestServer(t, &stubRunner{}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/v1/records", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/records", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	// Health endpoints sit behind the same router, so they require the key too.
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	t.Parallel()

	srv, _, _ := newTestServer(t, &stubRunner{}, config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
