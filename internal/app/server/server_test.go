package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phu68/Cong-cu-tinh-luong/internal/domain/auth"
	"github.com/phu68/Cong-cu-tinh-luong/internal/domain/payroll"
	"github.com/phu68/Cong-cu-tinh-luong/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func testConfig() config.Config {
	return config.Config{
		Addr:               ":0",
		Environment:        "test",
		MaxBodyBytes:       4096,
		RateLimitPerMinute: 1000,
		BatchMaxItems:      10,
		BatchWorkers:       2,
		MetricsEnabled:     true,
		ShutdownTimeout:    time.Second,
	}
}

func postJSON(t *testing.T, client *http.Client, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func readEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

const workedExample = `{"netSalary":30000000,"basicSalary":5200000,"nonTaxableIncome":0,"dependents":1}`

func TestCalculatorJourney(t *testing.T) {
	app, err := New(testConfig())
	require.NoError(t, err)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, client, ts.URL+"/api/v1/payroll/net-to-gross", "", workedExample)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	env := readEnvelope(t, resp)

	var res payroll.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.InDelta(t, 32_143_764.705882353, res.GrossSalary, 1e-6)
	assert.InDelta(t, 33_261_764.705882353, res.TotalCompanyCost, 1e-6)

	resp, err = client.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `payroll_calculations_total{outcome="taxed"} 1`)
	assert.Contains(t, string(body), `payroll_calculation_top_bracket_total{level="3"} 1`)
}

func TestProtectedCalculatorRequiresToken(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "test-secret"
	app, err := New(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(app.Router)
	defer ts.Close()
	client := ts.Client()

	resp := postJSON(t, client, ts.URL+"/api/v1/payroll/net-to-gross", "", workedExample)
	env := readEnvelope(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthorized", env.Error.Code)

	token, err := auth.GenerateToken(cfg.JWTSecret, "hr-portal", []string{auth.ScopeCalculate}, time.Hour)
	require.NoError(t, err)
	resp = postJSON(t, client, ts.URL+"/api/v1/payroll/net-to-gross", token, workedExample)
	readEnvelope(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// health stays public
	resp, err = client.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimitAppliesToAPI(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	app, err := New(cfg)
	require.NoError(t, err)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/net-to-gross", strings.NewReader(workedExample))
		req.RemoteAddr = "198.51.100.7:4000"
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestMetricsCanBeDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	app, err := New(cfg)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBodyLimitRejectsOversizedPayload(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 1024
	app, err := New(cfg)
	require.NoError(t, err)

	padding := strings.Repeat(" ", 2048)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payroll/net-to-gross", strings.NewReader(padding+workedExample))
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewWithScheduleFile(t *testing.T) {
	cfg := testConfig()
	cfg.ScheduleFile = filepath.Join("..", "..", "..", "configs", "payroll_schedule.yaml")
	app, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, payroll.DefaultSchedule().View(), app.Service.Schedule().View())

	cfg.ScheduleFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = New(cfg)
	assert.ErrorIs(t, err, payroll.ErrScheduleFile)
}
