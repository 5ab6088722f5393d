package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveRequest("status")
	m.ObserveRelayCommand(1, true)
	m.ObserveSnapshot([]bool{true}, 10)
	m.ObserveConnectionError("read")
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveRequest("relay_command")
	m.ObserveRequest("relay_command")
	m.ObserveRelayCommand(2, true)
	m.ObserveRelayCommand(7, false)
	m.ObserveSnapshot([]bool{false, true}, 120)
	m.ObserveConnectionError("read")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("relay_command")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelayCommands.WithLabelValues("2", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelayCommands.WithLabelValues("7", "fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelayLevel.WithLabelValues("2")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RelayLevel.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotsTotal))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.SnapshotBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionErrors.WithLabelValues("read")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("page")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `relayboard_requests_total{kind="page"} 1`))
}
