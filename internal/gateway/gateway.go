// Package gateway sends one rendered instruction to the configured model and
// returns the raw reply. It owns the per-call timeout and turns every upstream
// failure into a classified *Error. It never retries.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/founderflow-backend/internal/gateway/engine"
	"github.com/yungbote/founderflow-backend/internal/gateway/router"
	"github.com/yungbote/founderflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
)

type Gateway struct {
	router   *router.Router
	log      *logger.Logger
	tracer   trace.Tracer
	observer CallObserver
}

// CallObserver sees every upstream call. outcome is "ok" or the failure cause.
type CallObserver interface {
	ObserveLLM(model, outcome string, dur time.Duration)
}

type Option func(*Gateway)

func WithCallObserver(o CallObserver) Option {
	return func(g *Gateway) { g.observer = o }
}

func New(r *router.Router, log *logger.Logger, opts ...Option) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	g := &Gateway{
		router: r,
		log:    log.With("service", "Gateway"),
		tracer: otel.Tracer("founderflow/gateway"),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Gateway) observe(model, outcome string, d time.Duration) {
	if g.observer != nil {
		g.observer.ObserveLLM(model, outcome, d)
	}
}

type ModelInfo struct {
	ID         string `json:"id"`
	Engine     string `json:"engine"`
	Upstream   string `json:"upstream_model"`
	TimeoutSec int    `json:"timeout_seconds"`
	Default    bool   `json:"default"`
}

func (g *Gateway) Models() []ModelInfo {
	ids := g.router.ListModels()
	out := make([]ModelInfo, 0, len(ids))
	for _, id := range ids {
		rt, _ := g.router.RouteForModel(id)
		out = append(out, ModelInfo{
			ID:         id,
			Engine:     rt.EngineType,
			Upstream:   rt.UpstreamModel,
			TimeoutSec: int(rt.Timeout / time.Second),
			Default:    id == g.router.DefaultModel(),
		})
	}
	return out
}

// Resolve returns the model id an empty or explicit request maps to.
func (g *Gateway) Resolve(model string) (string, error) {
	rt, ok := g.router.RouteForModel(model)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, strings.TrimSpace(model))
	}
	return rt.Model, nil
}

type call struct {
	schema *engine.JSONSchema
}

type CallOption func(*call)

// WithJSONSchema passes a structured-output hint to engines that support one.
func WithJSONSchema(name string, schema map[string]any) CallOption {
	return func(c *call) {
		c.schema = &engine.JSONSchema{Name: name, Schema: schema}
	}
}

// Generate makes exactly one upstream call bounded by the model's timeout.
// An empty model selects the default.
func (g *Gateway) Generate(ctx context.Context, model, instruction string, opts ...CallOption) (string, error) {
	rt, ok := g.router.RouteForModel(model)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, strings.TrimSpace(model))
	}
	var c call
	for _, o := range opts {
		o(&c)
	}

	ctx, span := g.tracer.Start(ctx, "gateway.generate", trace.WithAttributes(
		attribute.String("ff.model", rt.Model),
		attribute.String("ff.engine", rt.EngineType),
		attribute.Int("ff.prompt_bytes", len(instruction)),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, rt.Timeout)
	defer cancel()

	start := time.Now()
	text, err := rt.Engine.GenerateText(callCtx, rt.UpstreamModel, []engine.Message{
		{Role: "user", Content: instruction},
	}, engine.GenerateOptions{Temperature: rt.Temperature, JSONSchema: c.schema})
	if err == nil && strings.TrimSpace(text) == "" {
		err = engine.ErrEmptyReply
	}
	elapsed := time.Since(start)

	log := g.log.With(ctxutil.LogFields(ctx)...)
	if err != nil {
		ge := Classify(err)
		ge.Model = rt.Model
		span.SetAttributes(attribute.String("ff.cause", string(ge.Cause)), attribute.Bool("ff.timeout", ge.Timeout))
		g.observe(rt.Model, string(ge.Cause), elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(ge.Cause))
		log.Warn("upstream call failed",
			"model", rt.Model,
			"cause", ge.Cause,
			"timeout", ge.Timeout,
			"status", ge.StatusCode,
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return "", ge
	}
	g.observe(rt.Model, "ok", elapsed)
	span.SetAttributes(attribute.Int("ff.reply_bytes", len(text)))
	log.Debug("upstream call ok", "model", rt.Model, "duration_ms", elapsed.Milliseconds(), "reply_bytes", len(text))
	return text, nil
}
