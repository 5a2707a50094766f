package observability

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/founderflow-backend/internal/platform/logger"
)

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI(http.MethodPost, "/api/v1/generate/:template", 200, 120*time.Millisecond)
	m.ObserveAPI(http.MethodPost, "/api/v1/generate/:template", 200, 80*time.Millisecond)
	m.ObserveLLM("gemini", "ok", 2*time.Second)
	m.ObserveLLM("gemini", "rate-limit", 100*time.Millisecond)
	m.ObserveState("idea_generator", "done")
	m.IncStaleReply("idea_generator")
	m.APIInflight(1)

	var buf bytes.Buffer
	require.NoError(t, m.WritePrometheus(&buf))
	out := buf.String()

	assert.Contains(t, out, "# TYPE ff_api_requests_total counter\n")
	assert.Contains(t, out, `ff_api_requests_total{method="POST",route="/api/v1/generate/:template",status="200"} 2`)
	assert.Contains(t, out, `ff_api_request_duration_seconds_bucket{method="POST",route="/api/v1/generate/:template",le="0.1"} 1`)
	assert.Contains(t, out, `ff_api_request_duration_seconds_count{method="POST",route="/api/v1/generate/:template"} 2`)
	assert.Contains(t, out, `ff_llm_requests_total{model="gemini",outcome="rate-limit"} 1`)
	assert.Contains(t, out, `ff_pipeline_transitions_total{template="idea_generator",state="done"} 1`)
	assert.Contains(t, out, `ff_surface_stale_replies_total{template="idea_generator"} 1`)
	assert.Contains(t, out, "ff_api_inflight_requests 1\n")

	// output is stable across scrapes
	var again bytes.Buffer
	require.NoError(t, m.WritePrometheus(&again))
	assert.Equal(t, out, again.String())
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", 200, time.Millisecond)
	m.ObserveLLM("x", "ok", time.Millisecond)
	m.ObserveState("t", "done")
	m.IncStaleReply("t")
	m.APIInflight(1)
	m.StartRedisCollector(context.Background(), logger.Nop(), nil, 0)
	assert.NoError(t, m.WritePrometheus(&bytes.Buffer{}))

	rec := httptest.NewRecorder()
	m.WriteHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLabelEscaping(t *testing.T) {
	c := NewCounterVec("x_total", "x", []string{"a", "b"})
	c.Inc(`q"uo\te`)
	assert.Equal(t, 1.0, c.Value(`q"uo\te`))

	var buf bytes.Buffer
	require.NoError(t, c.WritePrometheus(&buf))
	assert.True(t, strings.Contains(buf.String(), `x_total{a="q\"uo\\te",b="unknown"} 1`), buf.String())
}

func TestParseHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"api-key": "abc", "x": "y=z"}, parseHeaders(" api-key=abc, broken ,x=y=z,=v"))
	assert.Nil(t, parseHeaders(""))
}

func TestInitOTelDisabled(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	shutdown := InitOTel(context.Background(), nil, OtelConfig{ServiceName: "ff-test"})
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
