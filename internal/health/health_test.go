package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverallStatus(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, StatusHealthy, c.OverallStatus())

	connected := true
	c.RegisterFunc("dbus", true, BusCheck(func() bool { return connected }))
	assert.Equal(t, StatusUnknown, c.OverallStatus(), "critical check not run yet")

	c.Check(context.Background())
	assert.Equal(t, StatusHealthy, c.OverallStatus())

	var reloadErr error = errors.New("bad toml")
	c.RegisterFunc("config", false, ConfigCheck("/tmp/keying.toml", func() error { return reloadErr }))
	c.Check(context.Background())
	assert.Equal(t, StatusDegraded, c.OverallStatus())

	connected = false
	c.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, c.OverallStatus())
}

func TestCheckRecoversPanicAndTimeout(t *testing.T) {
	c := NewChecker()
	c.RegisterFunc("boom", false, func(ctx context.Context) CheckResult { panic("nope") })
	c.Register(&Component{
		Name:    "slow",
		Timeout: 10 * time.Millisecond,
		Check: func(ctx context.Context) CheckResult {
			<-ctx.Done()
			time.Sleep(20 * time.Millisecond)
			return CheckResult{Status: StatusHealthy}
		},
	})

	results := c.Check(context.Background())

	assert.Equal(t, StatusUnhealthy, results["boom"].Status)
	assert.Equal(t, "check panicked", results["boom"].Message)
	assert.Equal(t, StatusUnhealthy, results["slow"].Status)
	assert.Equal(t, "check timed out", results["slow"].Message)
	assert.Equal(t, StatusDegraded, c.OverallStatus(), "neither check is critical")
}

func TestReadinessHandler(t *testing.T) {
	c := NewChecker()
	c.RegisterFunc("dbus", true, BusCheck(func() bool { return true }))

	rec := httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	c.SetReady(true)
	rec = httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHealthHandlerIncludesComponents(t *testing.T) {
	c := NewChecker()
	c.SetReady(true)
	c.RegisterFunc("engines", false, EnginesCheck(func() int { return 2 }))

	rec := httptest.NewRecorder()
	c.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz?full=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.True(t, resp.Ready)
	require.Contains(t, resp.Components, "engines")
	assert.EqualValues(t, 2, resp.Components["engines"].Details["engines"])

	rec = httptest.NewRecorder()
	c.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var brief HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &brief))
	assert.Empty(t, brief.Components)
}

func TestHealthHandlerUnhealthy(t *testing.T) {
	c := NewChecker()
	c.RegisterFunc("dbus", true, BusCheck(func() bool { return false }))

	rec := httptest.NewRecorder()
	c.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alive"`)
}
