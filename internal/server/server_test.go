// internal/server/server_test.go
//
// server 層的整合測試：以 httptest.Server 模擬完整 HTTP 流程，
// 驗證 API 行為、錯誤代碼映射，以及成功變更後 persist 鉤子是否被觸發。
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankaccount/internal/bank"
	"bankaccount/internal/platform/metrics"
	"bankaccount/internal/platform/ratelimiter"
)

// doJSON 送出 JSON 請求並驗證狀態碼；out 非 nil 時解析回應。
func doJSON(t *testing.T, c *http.Client, method, url string, body any, wantCode int, out any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	require.Equal(t, wantCode, resp.StatusCode, "body: %s", raw)
	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)), "got %s want %s", got, want)
}

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *int32) {
	t.Helper()
	var persistCalls int32
	s := NewServer(bank.NewBank(), func() error {
		atomic.AddInt32(&persistCalls, 1)
		return nil
	}, opts...)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts, &persistCalls
}

func TestHTTPFlowAndPersistHook(t *testing.T) {
	ts, persistCalls := newTestServer(t)
	cli := ts.Client()

	var a1, a2 bank.View
	doJSON(t, cli, "POST", ts.URL+"/accounts", map[string]any{"email": "rje@gmail.com", "balance": 100}, 201, &a1)
	doJSON(t, cli, "POST", ts.URL+"/accounts", map[string]any{"email": "redson@ithaca.edu", "balance": "200"}, 201, &a2)
	assert.Equal(t, "rje@gmail.com", a1.Email)
	requireDecimal(t, "200", a2.Balance)

	doJSON(t, cli, "POST", ts.URL+"/accounts/rje@gmail.com/deposit", map[string]any{"amount": 10.99}, 200, &a1)
	requireDecimal(t, "110.99", a1.Balance)
	doJSON(t, cli, "POST", ts.URL+"/accounts/rje@gmail.com/withdraw", map[string]any{"amount": "10.99"}, 200, &a1)
	requireDecimal(t, "100", a1.Balance)

	var tr transferResponse
	doJSON(t, cli, "POST", ts.URL+"/transfer", map[string]any{"from": "rje@gmail.com", "to": "redson@ithaca.edu", "amount": 50}, 200, &tr)
	requireDecimal(t, "50", tr.From.Balance)
	requireDecimal(t, "250", tr.To.Balance)

	doJSON(t, cli, "POST", ts.URL+"/api/v1/transfer", map[string]any{"from": "redson@ithaca.edu", "to": "rje@gmail.com", "amount": "150.95"}, 200, &tr)
	requireDecimal(t, "99.05", tr.From.Balance)
	requireDecimal(t, "200.95", tr.To.Balance)

	var got bank.View
	doJSON(t, cli, "GET", ts.URL+"/accounts/rje@gmail.com", nil, 200, &got)
	requireDecimal(t, "200.95", got.Balance)

	var list []bank.View
	doJSON(t, cli, "GET", ts.URL+"/api/v1/accounts", nil, 200, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "redson@ithaca.edu", list[0].Email)

	var logs []bank.Log
	doJSON(t, cli, "GET", ts.URL+"/accounts/redson@ithaca.edu/logs", nil, 200, &logs)
	require.Len(t, logs, 2)
	assert.Equal(t, bank.DirectionIn, logs[0].Direction)
	assert.Equal(t, bank.DirectionOut, logs[1].Direction)

	// create×2 + deposit + withdraw + transfer×2
	assert.EqualValues(t, 6, atomic.LoadInt32(persistCalls))
}

func TestErrorMapping(t *testing.T) {
	ts, persistCalls := newTestServer(t)
	cli := ts.Client()

	doJSON(t, cli, "POST", ts.URL+"/accounts", map[string]any{"email": "a@b.com", "balance": 100}, 201, nil)
	doJSON(t, cli, "POST", ts.URL+"/accounts", map[string]any{"email": "c@d.com", "balance": 0}, 201, nil)
	before := atomic.LoadInt32(persistCalls)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"invalid email", "POST", "/accounts", map[string]any{"email": "_a@b.com", "balance": 1}, 400, CodeInvalidEmail},
		{"amount before email", "POST", "/accounts", map[string]any{"email": "", "balance": -100}, 400, CodeInvalidAmount},
		{"duplicate", "POST", "/accounts", map[string]any{"email": "a@b.com", "balance": 1}, 409, CodeAccountExists},
		{"three decimals", "POST", "/accounts/a@b.com/withdraw", map[string]any{"amount": 4.955}, 400, CodeInvalidAmount},
		{"negative deposit", "POST", "/accounts/a@b.com/deposit", map[string]any{"amount": -100}, 400, CodeInvalidAmount},
		{"insufficient", "POST", "/accounts/a@b.com/withdraw", map[string]any{"amount": 600}, 409, CodeInsufficientFunds},
		{"unknown account", "GET", "/accounts/ghost@b.com", nil, 404, CodeNotFound},
		{"self transfer", "POST", "/transfer", map[string]any{"from": "a@b.com", "to": "a@b.com", "amount": 1}, 400, CodeInvalidTarget},
		{"unknown recipient", "POST", "/transfer", map[string]any{"from": "a@b.com", "to": "ghost@b.com", "amount": 1}, 404, CodeNotFound},
		{"transfer insufficient", "POST", "/transfer", map[string]any{"from": "c@d.com", "to": "a@b.com", "amount": 1}, 409, CodeInsufficientFunds},
		{"missing balance", "POST", "/accounts", map[string]any{"email": "e@f.com"}, 400, CodeInvalidAmount},
		{"missing deposit amount", "POST", "/accounts/a@b.com/deposit", map[string]any{}, 400, CodeInvalidAmount},
		{"missing withdraw amount", "POST", "/accounts/a@b.com/withdraw", map[string]any{}, 400, CodeInvalidAmount},
		{"missing transfer amount", "POST", "/transfer", map[string]any{"from": "a@b.com", "to": "c@d.com"}, 400, CodeInvalidAmount},
		{"wrong method", "GET", "/transfer", nil, 405, CodeMethodNotAllowed},
		{"unknown route", "GET", "/nope", nil, 404, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			doJSON(t, cli, tt.method, ts.URL+tt.path, tt.body, tt.status, &body)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}

	var a bank.View
	doJSON(t, cli, "GET", ts.URL+"/accounts/a@b.com", nil, 200, &a)
	requireDecimal(t, "100", a.Balance)
	var logs []bank.Log
	doJSON(t, cli, "GET", ts.URL+"/accounts/a@b.com/logs", nil, 200, &logs)
	assert.Empty(t, logs)
	doJSON(t, cli, "GET", ts.URL+"/accounts/e@f.com", nil, 404, nil)
	assert.Equal(t, before, atomic.LoadInt32(persistCalls), "failed operations must not persist")
}

func TestBadJSON(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := ts.Client().Post(ts.URL+"/accounts", "application/json", strings.NewReader("{bad json}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, CodeBadRequest, body.Code)
}

func TestPersistFailureStillSucceeds(t *testing.T) {
	s := NewServer(bank.NewBank(), func() error { return errors.New("disk full") })
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	doJSON(t, ts.Client(), "POST", ts.URL+"/accounts", map[string]any{"email": "a@b.com", "balance": 1}, 201, nil)
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	var body map[string]any
	doJSON(t, ts.Client(), "GET", ts.URL+"/health", nil, 200, &body)
	assert.Equal(t, "ok", body["status"])
	doJSON(t, ts.Client(), "GET", ts.URL+"/api/v1/health", nil, 200, nil)
}

func TestMetricsEndpointAndCounters(t *testing.T) {
	m := metrics.New()
	ts, _ := newTestServer(t, WithMetrics(m))
	cli := ts.Client()

	doJSON(t, cli, "POST", ts.URL+"/accounts", map[string]any{"email": "a@b.com", "balance": 1}, 201, nil)
	doJSON(t, cli, "POST", ts.URL+"/accounts/a@b.com/withdraw", map[string]any{"amount": 5}, 409, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(opCreate, metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(opWithdraw, metrics.ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Accounts))

	resp, err := cli.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "bank_operations_total")
	assert.Contains(t, string(raw), `route="/accounts/{email}/withdraw"`)
}

func TestRateLimit(t *testing.T) {
	m := metrics.New()
	ts, _ := newTestServer(t, WithMetrics(m), WithRateLimiter(ratelimiter.New(0.001, 2, time.Minute)))
	cli := ts.Client()

	doJSON(t, cli, "GET", ts.URL+"/health", nil, 200, nil)
	doJSON(t, cli, "GET", ts.URL+"/health", nil, 200, nil)

	var body errorBody
	doJSON(t, cli, "GET", ts.URL+"/health", nil, 429, &body)
	assert.Equal(t, CodeRateLimited, body.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
}

func TestClassifyUnknownError(t *testing.T) {
	status, code := classify(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, CodeInternal, code)
}
