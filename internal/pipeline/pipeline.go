// Package pipeline runs one submission through build, call and extract.
package pipeline

import (
	"context"
	"time"

	"github.com/yungbote/founderflow-backend/internal/extract"
	"github.com/yungbote/founderflow-backend/internal/gateway"
	"github.com/yungbote/founderflow-backend/internal/platform/ctxutil"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
	"github.com/yungbote/founderflow-backend/internal/prompt"
)

type State string

const (
	Idle          State = "idle"
	Building      State = "building"
	AwaitingReply State = "awaiting_reply"
	Extracting    State = "extracting"
	Done          State = "done"
	Failed        State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool { return s == Done || s == Failed }

type Submission struct {
	Template string         `json:"template"`
	Request  prompt.Request `json:"fields"`
	Model    string         `json:"model,omitempty"`
}

// Outcome is either Done with Result set, or Failed with Err set.
type Outcome struct {
	Template string
	Model    string
	State    State
	Result   extract.Result
	Err      error
	Duration time.Duration
}

func (o Outcome) Ok() bool { return o.State == Done }

type Builder interface {
	Build(name string, req prompt.Request) (prompt.Prompt, error)
}

type Generator interface {
	Resolve(model string) (string, error)
	Generate(ctx context.Context, model, instruction string, opts ...gateway.CallOption) (string, error)
}

// Observer sees every state transition of a run, in order.
type Observer func(ctx context.Context, tmpl string, s State)

type Pipeline struct {
	builder   Builder
	gateway   Generator
	extractor *extract.Extractor
	observer  Observer
	log       *logger.Logger
}

type Option func(*Pipeline)

func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l.With("service", "Pipeline")
		}
	}
}

func New(b Builder, g Generator, x *extract.Extractor, opts ...Option) *Pipeline {
	if x == nil {
		x = extract.New(extract.Greedy)
	}
	p := &Pipeline{
		builder:   b,
		gateway:   g,
		extractor: x,
		log:       logger.Nop(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run blocks only while waiting for the model reply. The request is cloned
// first so the caller may reuse its map.
func (p *Pipeline) Run(ctx context.Context, sub Submission) Outcome {
	start := time.Now()
	req := sub.Request.Clone()
	out := Outcome{Template: sub.Template, Model: sub.Model}

	finish := func(s State, res extract.Result, err error) Outcome {
		out.State, out.Result, out.Err = s, res, err
		out.Duration = time.Since(start)
		p.emit(ctx, sub.Template, s)
		p.logOutcome(ctx, out)
		return out
	}

	p.emit(ctx, sub.Template, Building)
	pr, err := p.builder.Build(sub.Template, req)
	if err != nil {
		return finish(Failed, nil, err)
	}
	model, err := p.gateway.Resolve(sub.Model)
	if err != nil {
		return finish(Failed, nil, err)
	}
	out.Model = model

	p.emit(ctx, sub.Template, AwaitingReply)
	reply, err := p.gateway.Generate(ctx, model, pr.Text, gateway.WithJSONSchema(pr.Schema.Name, pr.Schema.JSONSchema()))
	if err != nil {
		return finish(Failed, nil, err)
	}

	p.emit(ctx, sub.Template, Extracting)
	res, err := p.extractor.Extract(reply, pr.Schema)
	if err != nil {
		return finish(Failed, nil, err)
	}
	return finish(Done, res, nil)
}

func (p *Pipeline) emit(ctx context.Context, tmpl string, s State) {
	if p.observer != nil {
		p.observer(ctx, tmpl, s)
	}
}

func (p *Pipeline) logOutcome(ctx context.Context, o Outcome) {
	log := p.log.With(ctxutil.LogFields(ctx)...)
	if o.Ok() {
		log.Info("pipeline done", "template", o.Template, "model", o.Model, "duration_ms", o.Duration.Milliseconds())
		return
	}
	v := Describe(o.Err)
	log.Warn("pipeline failed",
		"template", o.Template,
		"model", o.Model,
		"kind", v.Kind,
		"reason", v.Reason,
		"cause", v.Cause,
		"duration_ms", o.Duration.Milliseconds(),
		"error", o.Err,
	)
}
