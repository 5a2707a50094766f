package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/founderflow-backend/internal/platform/envutil"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
)

// Metrics is nil-safe: every method on a nil *Metrics is a no-op.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	llmRequests *CounterVec
	llmLatency  *HistogramVec

	pipelineStates *CounterVec
	staleReplies   *CounterVec

	redisUp   *Gauge
	redisPing *Gauge
}

// Enabled reports METRICS_ENABLED.
func Enabled() bool { return envutil.Bool("METRICS_ENABLED", false) }

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("ff_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ff_api_request_duration_seconds",
			"API request latency in seconds by method/route.",
			[]string{"method", "route"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("ff_api_inflight_requests", "In-flight API requests."),
		llmRequests: NewCounterVec("ff_llm_requests_total", "Upstream model calls by model and outcome.", []string{"model", "outcome"}),
		llmLatency: NewHistogramVec(
			"ff_llm_request_duration_seconds",
			"Upstream model call latency in seconds.",
			[]string{"model"},
			[]float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		),
		pipelineStates: NewCounterVec("ff_pipeline_transitions_total", "Pipeline state transitions by template.", []string{"template", "state"}),
		staleReplies:   NewCounterVec("ff_surface_stale_replies_total", "Replies dropped because a newer submission exists.", []string{"template"}),
		redisUp:        NewGauge("ff_redis_up", "1 when the last redis ping succeeded."),
		redisPing:      NewGauge("ff_redis_ping_seconds", "Latency of the last redis ping."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, wr := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency,
		m.pipelineStates, m.staleReplies,
		m.redisUp, m.redisPing,
	} {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflight(delta float64) {
	if m == nil {
		return
	}
	m.apiInflight.Add(delta)
}

// ObserveLLM records one upstream call. outcome is "ok" or a failure cause.
func (m *Metrics) ObserveLLM(model, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.Inc(model, outcome)
	m.llmLatency.Observe(dur.Seconds(), model)
}

func (m *Metrics) ObserveState(template, state string) {
	if m == nil {
		return
	}
	m.pipelineStates.Inc(template, state)
}

func (m *Metrics) IncStaleReply(template string) {
	if m == nil {
		return
	}
	m.staleReplies.Inc(template)
}

// StartRedisCollector pings rdb every interval until ctx ends.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			m.pingRedis(ctx, log, rdb)
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
}

func (m *Metrics) pingRedis(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		m.redisUp.Set(0)
		if log != nil && ctx.Err() == nil {
			log.Warn("metrics: redis ping failed", "error", err)
		}
		return
	}
	m.redisUp.Set(1)
	m.redisPing.Set(time.Since(start).Seconds())
}
