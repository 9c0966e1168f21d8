package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler(t *testing.T) {
	m := New("devehub_test")

	r := chi.NewRouter()
	r.Use(m.InstrumentHandler)
	r.Get("/v1/projects/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/projects/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/v1/projects/{id}", "418"))
	assert.Equal(t, float64(2), got)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPInFlight))
}

func TestRecorders(t *testing.T) {
	m := New("devehub_test")

	m.RecordLicenseIssued("standard_9_9", 990)
	m.RecordRefund("admin")
	m.RecordPayoutRun("release", "ready", 3)
	m.RecordDeferred("purchase", "cancelled")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.LicensesIssued.WithLabelValues("standard_9_9")))
	assert.Equal(t, float64(990), testutil.ToFloat64(m.Revenue))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.PayoutTransitions.WithLabelValues("ready")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "devehub_test_licenses_refunds_total"))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordRefund("admin")
	m.RecordUserDeleted()

	h := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
