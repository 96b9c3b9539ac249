package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mbd888/fraudgate/internal/config"
	"github.com/mbd888/fraudgate/internal/health"
	"github.com/mbd888/fraudgate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testConfig returns a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Port:      "0",
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
	}
}

// newTestServer creates a server with a silent logger and no drain delay
func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard()), WithDrainDelay(0)}, opts...)
	return New("test", testConfig(), opts...)
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

// ---------------------------------------------------------------------------
// Health endpoint tests
// ---------------------------------------------------------------------------

func TestHealthzEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, "GET", "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
}

func TestLivenessEndpoint(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, serve(s, "GET", "/health/live").Code)
}

func TestReadinessEndpoint_NotReadyBeforeRun(t *testing.T) {
	s := newTestServer(t)

	// Server hasn't called Run() so ready is false
	assert.Equal(t, http.StatusServiceUnavailable, serve(s, "GET", "/health/ready").Code)
}

func TestReadinessEndpoint_RunsCheckers(t *testing.T) {
	reg := health.NewRegistry()
	reg.RegisterPing("review_queue", func(ctx context.Context) error { return errors.New("connection refused") })
	s := newTestServer(t, WithHealthRegistry(reg))
	s.ready.Store(true)

	w := serve(s, "GET", "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp struct {
		Status string          `json:"status"`
		Checks []health.Status `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	require.Len(t, resp.Checks, 1)
	assert.Equal(t, "review_queue", resp.Checks[0].Name)
}

func TestReadinessEndpoint_Ready(t *testing.T) {
	s := newTestServer(t)
	s.ready.Store(true)
	assert.Equal(t, http.StatusOK, serve(s, "GET", "/health/ready").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	serve(s, "GET", "/healthz")

	w := serve(s, "GET", "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fraudgate_http_requests_total")
}

// ---------------------------------------------------------------------------
// Middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, "GET", "/healthz")
	assert.Len(t, w.Header().Get("X-Request-ID"), 32)

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", w.Header().Get("X-Request-ID"))
}

func TestRequestContextCarriesRequestID(t *testing.T) {
	s := newTestServer(t)
	var seen string
	s.Router().GET("/probe", func(c *gin.Context) {
		seen = logging.RequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("X-Request-ID", "abc123")
	s.Router().ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "abc123", seen)
}

func TestPanicRecovery(t *testing.T) {
	s := newTestServer(t)
	s.Router().GET("/boom", func(c *gin.Context) { panic("boom") })

	w := serve(s, "GET", "/boom")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal_error", resp["error"])
}

func TestSecurityHeadersApplied(t *testing.T) {
	s := newTestServer(t)
	w := serve(s, "GET", "/healthz")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestNotFoundRoute(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, serve(s, "GET", "/v1/nonexistent").Code)
}

// ---------------------------------------------------------------------------
// Lifecycle tests
// ---------------------------------------------------------------------------

func TestServe_StopsOnContextCancel(t *testing.T) {
	s := newTestServer(t)

	started := make(chan struct{})
	stopped := make(chan struct{})
	s.Go(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(stopped)
	})

	var closed bool
	s.OnShutdown("store", func(ctx context.Context) error {
		closed = true
		return nil
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("background task never started")
	}

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	<-stopped
	assert.True(t, closed, "shutdown hooks should run")
	assert.False(t, s.ready.Load())
}

func TestShutdown_ReportsCloserError(t *testing.T) {
	s := newTestServer(t)
	s.OnShutdown("broken", func(ctx context.Context) error { return errors.New("close failed") })

	err := s.Shutdown()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close failed")
}
