package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Observe(t *testing.T) {
	r := New()

	r.ObserveUpstream("openlibrary", "search", OutcomeSuccess, 120*time.Millisecond)
	r.ObserveUpstream("openlibrary", "search", OutcomeSuccess, 80*time.Millisecond)
	r.ObserveUpstream("openlibrary", "item", OutcomeFailure, 10*time.Millisecond)
	r.ObserveCache(true)
	r.ObserveCache(false)
	r.ObserveCache(false)
	r.ObserveHTTP(http.MethodGet, http.StatusOK)
	r.SetActiveSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.upstreamRequests.WithLabelValues("openlibrary", "search", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.upstreamRequests.WithLabelValues("openlibrary", "item", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "200")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.activeSessions))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry

	assert.NotPanics(t, func() {
		r.ObserveUpstream("openlibrary", "search", OutcomeSuccess, time.Second)
		r.ObserveCache(true)
		r.ObserveHTTP(http.MethodGet, http.StatusOK)
		r.SetActiveSessions(1)
	})

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.ObserveCache(true)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), MetricRecentCacheLookupsTotal)
}
