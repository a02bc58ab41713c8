package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitsettle/internal/ledger"
)

func TestObserveRPC(t *testing.T) {
	m := New()
	m.ObserveRPC("/svc/A", "ok", 10*time.Millisecond)
	m.ObserveRPC("/svc/A", "ok", 20*time.Millisecond)
	m.ObserveRPC("/svc/A", "not_found", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/svc/A", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/svc/A", "not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.rpcDuration))
}

func TestObserveBalance(t *testing.T) {
	m := New()
	m.ObserveBalance(nil)
	m.ObserveBalance(errors.New("storage down"))
	m.ObserveBalance(&ledger.DataIntegrityError{GroupID: "g", Record: "expense e1", UserID: "x"})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.balanceComputations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.integrityErrors))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRPC("/svc/A", "ok", time.Second)
		m.ObserveBalance(nil)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRPC("/svc/A", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `splitsettle_rpc_requests_total{code="ok",procedure="/svc/A"} 1`)
	assert.Contains(t, body, "go_goroutines")
}
