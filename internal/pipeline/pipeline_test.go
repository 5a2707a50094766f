package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/founderflow-backend/internal/extract"
	"github.com/yungbote/founderflow-backend/internal/gateway"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine/mock"
	"github.com/yungbote/founderflow-backend/internal/gateway/router"
	"github.com/yungbote/founderflow-backend/internal/prompt"
)

type engineFunc func(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error)

func (f engineFunc) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	return f(ctx, model, messages, opts)
}

func replying(reply string, calls *int32) engineFunc {
	return func(context.Context, string, []engine.Message, engine.GenerateOptions) (string, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		return reply, nil
	}
}

func newPipeline(t *testing.T, eng engine.Engine, timeout time.Duration, opts ...Option) *Pipeline {
	t.Helper()
	r := router.Empty()
	require.NoError(t, r.Add(router.Route{Model: "test", Engine: eng, Timeout: timeout}))
	return New(prompt.Default(), gateway.New(r, nil), extract.New(extract.Greedy), opts...)
}

const timeWiseReply = "Great question! Here's an idea for you:\n\n" +
	`{"name":"TimeWise","description":"An AI study planner that turns deadlines into daily plans. Built for busy students.",` +
	`"analysis":{"merits":["Clear pain point"],"demerits":["Crowded market"],"suggestions":["Partner with universities"]}}` +
	"\n\nHope this helps!"

func TestRunTimeWise(t *testing.T) {
	var calls int32
	var prompts []string
	eng := engineFunc(func(_ context.Context, _ string, msgs []engine.Message, _ engine.GenerateOptions) (string, error) {
		atomic.AddInt32(&calls, 1)
		prompts = append(prompts, engine.UserPrompt(msgs))
		return timeWiseReply, nil
	})
	p := newPipeline(t, eng, time.Second)

	out := p.Run(context.Background(), Submission{
		Template: prompt.IdeaGenerator,
		Request:  prompt.Request{"industry": "Tech", "problem": "Time Management"},
	})
	require.True(t, out.Ok(), "%v", out.Err)
	assert.Equal(t, Done, out.State)
	assert.NoError(t, out.Err)
	assert.Equal(t, "test", out.Model)
	assert.Equal(t, "TimeWise", out.Result["name"])
	analysis := out.Result["analysis"].(map[string]any)
	assert.Equal(t, []any{"Clear pain point"}, analysis["merits"])

	require.EqualValues(t, 1, calls)
	assert.Contains(t, prompts[0], "- Industry: Tech\n- Problem: Time Management\n")
}

func TestRunReplyWithoutBraces(t *testing.T) {
	p := newPipeline(t, replying("I cannot help with that", nil), time.Second)
	out := p.Run(context.Background(), Submission{
		Template: prompt.IdeaGenerator,
		Request:  prompt.Request{"industry": "Tech"},
	})
	assert.Equal(t, Failed, out.State)
	assert.Nil(t, out.Result)
	var xe *extract.Error
	require.True(t, errors.As(out.Err, &xe))
	assert.Equal(t, extract.ReasonUnparseable, xe.Reason)

	v := Describe(out.Err)
	assert.Equal(t, KindExtraction, v.Kind)
	assert.Equal(t, extract.ReasonUnparseable, v.Reason)
}

func TestRunSchemaMismatch(t *testing.T) {
	p := newPipeline(t, replying(`{"steps":[{"name":"Launch","description":"go"},{"description":"no name"}]}`, nil), time.Second)
	out := p.Run(context.Background(), Submission{Template: prompt.Roadmap, Request: prompt.Request{"industry": "Fintech"}})
	require.Equal(t, Failed, out.State)
	v := Describe(out.Err)
	assert.Equal(t, KindExtraction, v.Kind)
	assert.Equal(t, extract.ReasonSchemaMismatch, v.Reason)
	assert.Equal(t, "steps[0].timeframe", v.Field)
}

func TestRunTimeout(t *testing.T) {
	var calls int32
	eng := engineFunc(func(ctx context.Context, _ string, _ []engine.Message, _ engine.GenerateOptions) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return "", ctx.Err()
	})
	p := newPipeline(t, eng, 25*time.Millisecond)
	out := p.Run(context.Background(), Submission{Template: prompt.Roadmap, Request: prompt.Request{"stage": "MVP"}})

	require.Equal(t, Failed, out.State)
	var ge *gateway.Error
	require.True(t, errors.As(out.Err, &ge))
	assert.Equal(t, gateway.CauseNetwork, ge.Cause)
	assert.True(t, ge.Timeout)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "no retry")

	v := Describe(out.Err)
	assert.Equal(t, KindGateway, v.Kind)
	assert.Equal(t, "network", v.Cause)
	assert.True(t, v.Timeout)
}

func TestRunValidationSkipsGateway(t *testing.T) {
	var calls int32
	p := newPipeline(t, replying(timeWiseReply, &calls), time.Second)
	out := p.Run(context.Background(), Submission{
		Template: prompt.IdeaGenerator,
		Request:  prompt.Request{"industry": "  ", "color": "blue"},
	})
	require.Equal(t, Failed, out.State)
	var ve *prompt.ValidationError
	assert.True(t, errors.As(out.Err, &ve))
	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Equal(t, KindValidation, Describe(out.Err).Kind)
}

func TestRunConfigErrors(t *testing.T) {
	var calls int32
	p := newPipeline(t, replying(timeWiseReply, &calls), time.Second)

	out := p.Run(context.Background(), Submission{Template: "nope", Request: prompt.Request{"a": "b"}})
	assert.ErrorIs(t, out.Err, prompt.ErrUnknownTemplate)
	assert.Equal(t, KindConfig, Describe(out.Err).Kind)

	out = p.Run(context.Background(), Submission{Template: prompt.Branding, Model: "gpt-9", Request: prompt.Request{"keywords": "fast"}})
	assert.ErrorIs(t, out.Err, gateway.ErrUnknownModel)
	assert.Equal(t, KindConfig, Describe(out.Err).Kind)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRunObserverOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []State
	obs := func(_ context.Context, _ string, s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}

	p := newPipeline(t, replying(timeWiseReply, nil), time.Second, WithObserver(obs))
	p.Run(context.Background(), Submission{Template: prompt.IdeaGenerator, Request: prompt.Request{"industry": "Tech"}})
	if diff := cmp.Diff([]State{Building, AwaitingReply, Extracting, Done}, seen); diff != "" {
		t.Fatalf("transitions (-want +got):\n%s", diff)
	}

	seen = nil
	p.Run(context.Background(), Submission{Template: prompt.IdeaGenerator, Request: prompt.Request{}})
	if diff := cmp.Diff([]State{Building, Failed}, seen); diff != "" {
		t.Fatalf("transitions (-want +got):\n%s", diff)
	}
}

func TestRunWithMockEngineEveryTemplate(t *testing.T) {
	p := newPipeline(t, mock.New(), time.Second)
	for _, tpl := range prompt.Default().List() {
		req := prompt.Request{}
		for _, f := range tpl.Fields {
			req[f.Key] = "sample " + strings.ReplaceAll(f.Label, " ", "-")
		}
		out := p.Run(context.Background(), Submission{Template: tpl.Name, Request: req})
		assert.True(t, out.Ok(), "%s: %v", tpl.Name, out.Err)
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{Idle, Building, AwaitingReply, Extracting} {
		assert.False(t, s.Terminal(), s)
	}
	assert.True(t, Done.Terminal())
	assert.True(t, Failed.Terminal())
}

func TestDescribeNil(t *testing.T) {
	assert.Nil(t, Describe(nil))
	assert.Equal(t, KindInternal, Describe(errors.New("boom")).Kind)
}
