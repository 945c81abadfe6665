package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pension-engine/pension"
)

func TestObserveOperation_CountsByKind(t *testing.T) {
	// GIVEN: a fresh metrics instance
	m := New()

	// WHEN: one success and two rejections are observed
	m.ObserveOperation(pension.OpInitiatePayout, "", time.Millisecond)
	m.ObserveOperation(pension.OpInitiatePayout, pension.KindNotYetEligibleForPayout, time.Millisecond)
	m.ObserveOperation(pension.OpInitiatePayout, pension.KindNotYetEligibleForPayout, time.Millisecond)

	// THEN: success is labelled "ok" and rejections carry the kind verbatim
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues(pension.OpInitiatePayout, "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues(pension.OpInitiatePayout, "NotYetEligibleForPayout")))
}

func TestNew_IndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration.
	a, b := New(), New()
	a.ObserveOperation(pension.OpReportDeath, "", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Operations.WithLabelValues(pension.OpReportDeath, "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Operations.WithLabelValues(pension.OpReportDeath, "ok")))
}

func TestNilMetrics_IsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOperation(pension.OpAddInsurance, "", time.Second)
		m.ObservePayout(100)
	})
}

func TestHandler_ServesExposition(t *testing.T) {
	m := New()
	m.ObserveOperation(pension.OpApplyTaxRate, pension.KindInvalidInput, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pension_operations_total{kind="InvalidInput",op="apply_tax_rate"} 1`)
}
