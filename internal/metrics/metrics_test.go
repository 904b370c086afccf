package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMetrics(t *testing.T) {
	m := New(zap.NewNop())

	m.RecordNormalization("api", 2*time.Millisecond)
	m.RecordNormalization("api", time.Millisecond)
	m.RecordTTS("piper", true, time.Second)
	m.RecordTTS("piper", false, time.Second)
	m.RecordDocument("docx", true)
	m.RecordConversions("update", 42)
	m.RecordArtifactsRemoved(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.normalizations.WithLabelValues("api")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ttsRequests.WithLabelValues("piper", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documentsProcessed.WithLabelValues("docx", "success")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.conversionEntries))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.artifactsRemoved))
}

func TestUnknownMetricsAreIgnored(t *testing.T) {
	m := New(zap.NewNop())

	m.IncrementCounter("nope_total", "x")
	m.SetGauge("nope", 1)
	m.ObserveHistogram("nope", 1)
}

func TestInstancesDoNotConflict(t *testing.T) {
	assert.NotPanics(t, func() {
		New(zap.NewNop())
		New(zap.NewNop())
	})
}

func TestHandlers(t *testing.T) {
	m := New(zap.NewNop())
	m.RecordDocument("txt", true)
	h := NewHandler(m, zap.NewNop())

	rec := httptest.NewRecorder()
	h.MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), `documents_processed_total{format="txt",status="success"} 1`))

	rec = httptest.NewRecorder()
	h.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"doc-reader"}`, rec.Body.String())
}
