package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/fourbar/pkg/buildinfo"
	"github.com/matzehuels/fourbar/pkg/cache"
	"github.com/matzehuels/fourbar/pkg/errors"
	"github.com/matzehuels/fourbar/pkg/observability"
	"github.com/matzehuels/fourbar/pkg/pipeline"
)

func newTestServer(t *testing.T, metrics *Metrics) *httptest.Server {
	t.Helper()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := httptest.NewServer(New(pipeline.NewRunner(fc, nil, logger), logger, metrics).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[healthResponse](t, resp)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, buildinfo.Version, body.Build.Version)
	assert.NotEmpty(t, body.Build.GoVersion)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	srv := newTestServer(t, nil)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestClassify(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		lengths  string
		want     string
		grashof  bool
		shortest string
	}{
		{"[120, 30, 90, 80]", "crank-rocker", true, "input"},
		{"[30, 120, 90, 80]", "drag-link", true, "fixed"},
		{"[60, 80, 20, 70]", "double-rocker", true, "coupler"},
		{"[50, 30, 40, 20]", "change-point", false, "output"},
		{"[100, 40, 45, 90]", "triple-rocker", false, "input"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			resp := post(t, srv, "/v1/classify", `{"lengths": `+tt.lengths+`}`)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			body := decodeBody[classifyResponse](t, resp)
			assert.Equal(t, tt.want, string(body.Type))
			assert.Equal(t, tt.grashof, body.Grashof)
			assert.Equal(t, tt.shortest, body.Shortest)
		})
	}
}

func TestValidationErrors(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name, path, body, wantMsg string
	}{
		{"short lengths", "/v1/classify", `{"lengths": [1, 2, 3]}`, "lengths: failed len=4"},
		{"negative length", "/v1/classify", `{"lengths": [1, 2, -3, 4]}`, "lengths[2]: failed gt=0"},
		{"missing lengths", "/v1/classify", `{}`, "lengths: failed required"},
		{"missing angle", "/v1/solve", `{"lengths": [120, 30, 90, 80]}`, "angle: failed required"},
		{"bad branch", "/v1/solve", `{"lengths": [120, 30, 90, 80], "angle": 0, "configuration": "sideways"}`, "configuration: failed oneof"},
		{"bad step", "/v1/sweep", `{"lengths": [120, 30, 90, 80], "step": 400}`, "step: failed lte=360"},
		{"bad format", "/v1/sweep", `{"lengths": [120, 30, 90, 80], "format": "gif"}`, "format: failed oneof"},
		{"unknown field", "/v1/classify", `{"lengths": [1, 2, 3, 4], "colour": "red"}`, "invalid request body"},
		{"malformed", "/v1/classify", `{"lengths": `, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeBody[errorResponse](t, resp)
			assert.Equal(t, errors.ErrCodeInvalidInput, body.Code)
			assert.Contains(t, body.Message, tt.wantMsg)
		})
	}
}

func TestWrongContentType(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Post(srv.URL+"/v1/classify", "text/plain", strings.NewReader(`{"lengths": [1, 2, 3, 4]}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestSolve(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv, "/v1/solve", `{"lengths": [120, 30, 90, 80], "angle": 15}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[solveResponse](t, resp)
	assert.Equal(t, "crank-rocker", string(body.Type))
	assert.Equal(t, "open", string(body.Position.Configuration))
	assert.InDelta(t, 47.46964, body.Position.Theta3, 1e-4)
	assert.InDelta(t, 112.16650, body.Position.Theta4, 1e-4)
	assert.InDelta(t, 28.978, body.Position.Points.B.X, 1e-3)

	resp = post(t, srv, "/v1/solve", `{"lengths": [120, 30, 90, 80], "angle": 15, "configuration": "crossed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody[solveResponse](t, resp)
	assert.InDelta(t, -57.22117, body.Position.Theta3, 1e-4)
}

func TestSolveNoPosition(t *testing.T) {
	srv := newTestServer(t, nil)

	// A triple-rocker that only closes when fully stretched at θ2 = 0.
	resp := post(t, srv, "/v1/solve", `{"lengths": [6, 1, 2, 3], "angle": 90}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decodeBody[errorResponse](t, resp)
	assert.Contains(t, []errors.Code{errors.ErrCodeSingularJacobian, errors.ErrCodeMaxIterExceeded}, body.Code)
	assert.NotNil(t, body.Details)
}

func TestSolveInvalidLinkage(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := post(t, srv, "/v1/solve", `{"lengths": [120, 30, 90, 80], "angle": 15, "max_iter": -1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSweepJSONCached(t *testing.T) {
	srv := newTestServer(t, nil)
	body := `{"lengths": [120, 30, 90, 80], "step": 30}`

	resp := post(t, srv, "/v1/sweep", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "miss", resp.Header.Get("X-Cache"))
	assert.NotEmpty(t, resp.Header.Get("X-Run-ID"))

	var sweep struct {
		Step      int `json:"step"`
		Attempted int `json:"attempted"`
		Results   []json.RawMessage
		Linkage   struct {
			Type string `json:"type"`
		} `json:"linkage"`
	}
	first, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(first, &sweep))
	assert.Equal(t, 30, sweep.Step)
	assert.Equal(t, 24, sweep.Attempted)
	assert.Len(t, sweep.Results, 24)
	assert.Equal(t, "crank-rocker", sweep.Linkage.Type)

	resp = post(t, srv, "/v1/sweep", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hit", resp.Header.Get("X-Cache"))
	second, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "cached sweep should be byte-identical")
}

func TestSweepFormats(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv, "/v1/sweep", `{"lengths": [120, 30, 90, 80], "step": 90, "format": "csv"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 1+8)
	assert.True(t, strings.HasPrefix(lines[0], "theta2,configuration"))

	resp = post(t, srv, "/v1/sweep", `{"lengths": [120, 30, 90, 80], "step": 90, "format": "svg", "width": 400, "height": 300}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	data, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `width="400"`)
}

func TestMetrics(t *testing.T) {
	t.Cleanup(observability.Reset)
	m := NewMetrics()
	m.Install()
	srv := newTestServer(t, m)

	post(t, srv, "/v1/sweep", `{"lengths": [120, 30, 90, 80], "step": 30}`)
	post(t, srv, "/v1/sweep", `{"lengths": [120, 30, 90, 80], "step": 30}`)
	post(t, srv, "/v1/solve", `{"lengths": [120, 30, 90, 80], "angle": 15}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `fourbar_sweep_total{result="ok"} 1`)
	assert.Contains(t, text, `fourbar_sweep_samples_total{outcome="converged"} 24`)
	assert.Contains(t, text, `fourbar_cache_operations_total{op="hit",type="sweep"} 1`)
	assert.Contains(t, text, `fourbar_solver_solves_total{configuration="open",status="converged"} 1`)
	assert.Contains(t, text, `fourbar_http_requests_total{code="200",method="POST",route="/v1/sweep"} 2`)
}

func TestMetricsRouteDisabled(t *testing.T) {
	srv := newTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
