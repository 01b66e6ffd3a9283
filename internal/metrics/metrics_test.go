package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RecordCacheLookup(true)
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordRebuild("residency", 12, 30*time.Millisecond)
	m.RecordSearch("hit", 3, 2*time.Millisecond)
	m.SetCorpusSize(40)
	m.RecordIndexBuild(40)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheRebuildsTotal))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.DocumentsLoaded.WithLabelValues("residency")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchRequestsTotal.WithLabelValues("hit")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.CorpusSize))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.IndexEntriesTotal))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCacheLookup(true)
		m.RecordRebuild("", 1, time.Second)
		m.RecordSearch("empty", 0, 0)
		m.SetCorpusSize(1)
		m.RecordIndexBuild(1)
		m.RecordHTTPRequest("/health", 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordHTTPRequest("/api/v1/search", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `almanac_http_requests_total{code="200",route="/api/v1/search"} 1`), body)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordIndexBuild(3)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.IndexBuildsTotal))
}
