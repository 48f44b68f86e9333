package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keying/internal/ime"
	"keying/internal/logging"
	"keying/internal/press"
)

var _ ime.Observer = (*EngineMetrics)(nil)

func TestEngineMetricsCounts(t *testing.T) {
	reg := NewRegistry(false)
	m := NewEngineMetrics(reg)

	m.KeyReleased(press.Short, 40*time.Millisecond)
	m.KeyReleased(press.Short, 60*time.Millisecond)
	m.KeyReleased(press.Long, 400*time.Millisecond)
	m.Committed("separator", 3)
	m.Committed("separator", 1)
	m.Degraded("empty_buffer_delete")
	m.SessionStarted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.KeyReleases.WithLabelValues("short")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeyReleases.WithLabelValues("long")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commits.WithLabelValues("separator")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.CommitRunes.WithLabelValues("separator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Degradations.WithLabelValues("empty_buffer_delete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HoldDuration))
}

func TestEngineMetricsFromEngine(t *testing.T) {
	reg := NewRegistry(false)
	m := NewEngineMetrics(reg)

	e := ime.NewEngine(&ime.Recorder{}, ime.DefaultOptions())
	e.SetLogger(logging.Discard())
	e.SetObserver(m)

	e.StartInput(ime.EditorInfo{Class: ime.ClassText})
	e.OnPress('h', 0)
	e.OnRelease('h', 30)
	e.OnPress('i', 100)
	e.OnRelease('i', 400)
	e.OnPress(' ', 500)
	e.OnRelease(' ', 520)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.KeyReleases.WithLabelValues("short")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeyReleases.WithLabelValues("long")))
	// i is a sibling, not a primary, so the long press leaves it alone
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CommitRunes.WithLabelValues(ime.CommitSeparator)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsTotal))
}

func holdSamples(t *testing.T, m *EngineMetrics) uint64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.HoldDuration.Write(&out))
	return out.GetHistogram().GetSampleCount()
}

func TestHoldHistogramSkipsUnknownDurations(t *testing.T) {
	m := NewEngineMetrics(nil)

	m.KeyReleased(press.Short, -1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KeyReleases.WithLabelValues("short")))
	assert.Zero(t, holdSamples(t, m))

	m.KeyReleased(press.Short, 0)
	assert.Equal(t, uint64(1), holdSamples(t, m))
}

func TestEngineReportsStrayReleasesAndRawSeparators(t *testing.T) {
	m := NewEngineMetrics(nil)
	e := ime.NewEngine(&ime.Recorder{}, ime.DefaultOptions())
	e.SetLogger(logging.Discard())
	e.SetObserver(m)

	e.OnRelease('a', 10)
	e.OnPress('\n', 100)
	e.OnRelease('\n', 130)

	assert.Equal(t, uint64(1), holdSamples(t, m), "the stray release has no hold time")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Degradations.WithLabelValues(ime.DegradeNoActiveSession)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Commits.WithLabelValues(ime.CommitSeparator)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CommitRunes.WithLabelValues(ime.CommitSeparator)))
}

func TestNilRegistererLeavesMetricsUnregistered(t *testing.T) {
	m := NewEngineMetrics(nil)
	m.SessionStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsTotal))
}

func TestHTTPHandlerExposesMetrics(t *testing.T) {
	reg := NewRegistry(false)
	m := NewEngineMetrics(reg)
	m.Degraded("no_active_session")

	srv := httptest.NewServer(reg.HTTPHandler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `keying_degradations_total{kind="no_active_session"} 1`)
}

func TestListenServesMetrics(t *testing.T) {
	reg := NewRegistry(true)
	NewEngineMetrics(reg).SessionStarted()

	s, err := reg.Listen("127.0.0.1:0")
	require.NoError(t, err)
	defer s.Shutdown(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "keying_sessions_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestListenServesExtraRoutes(t *testing.T) {
	reg := NewRegistry(false)
	s, err := reg.Listen("127.0.0.1:0", Route{
		Pattern: "/livez",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	})
	require.NoError(t, err)
	defer s.Shutdown(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/livez")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
