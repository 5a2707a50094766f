package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/founderflow-backend/internal/gateway/engine"
	"github.com/yungbote/founderflow-backend/internal/gateway/router"
)

type engineFunc func(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error)

func (f engineFunc) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	return f(ctx, model, messages, opts)
}

func newGateway(t *testing.T, timeout time.Duration, eng engine.Engine) *Gateway {
	t.Helper()
	r := router.Empty()
	require.NoError(t, r.Add(router.Route{Model: "m", UpstreamModel: "up", EngineType: "fake", Engine: eng, Timeout: timeout, Temperature: 0.4}))
	return New(r, nil)
}

func TestGenerateSuccess(t *testing.T) {
	var gotModel, gotPrompt string
	var gotOpts engine.GenerateOptions
	g := newGateway(t, time.Second, engineFunc(func(ctx context.Context, model string, msgs []engine.Message, opts engine.GenerateOptions) (string, error) {
		gotModel, gotPrompt, gotOpts = model, engine.UserPrompt(msgs), opts
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return "  reply with {json}  ", nil
	}))

	out, err := g.Generate(context.Background(), "", "do the thing", WithJSONSchema("s", map[string]any{"type": "object"}))
	require.NoError(t, err)
	assert.Equal(t, "  reply with {json}  ", out, "reply is returned verbatim")
	assert.Equal(t, "up", gotModel)
	assert.Equal(t, "do the thing", gotPrompt)
	assert.Equal(t, 0.4, gotOpts.Temperature)
	require.NotNil(t, gotOpts.JSONSchema)
	assert.Equal(t, "s", gotOpts.JSONSchema.Name)
}

func TestGenerateUnknownModel(t *testing.T) {
	g := newGateway(t, time.Second, engineFunc(func(context.Context, string, []engine.Message, engine.GenerateOptions) (string, error) {
		t.Fatal("engine must not be called")
		return "", nil
	}))
	_, err := g.Generate(context.Background(), "nope", "x")
	assert.ErrorIs(t, err, ErrUnknownModel)
	_, err = g.Resolve("nope")
	assert.ErrorIs(t, err, ErrUnknownModel)
	id, err := g.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "m", id)
}

// A reply that never arrives within the bound yields a network timeout after
// exactly one attempt.
func TestGenerateTimeoutNoRetry(t *testing.T) {
	var calls int32
	g := newGateway(t, 30*time.Millisecond, engineFunc(func(ctx context.Context, _ string, _ []engine.Message, _ engine.GenerateOptions) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-ctx.Done()
		return "", ctx.Err()
	}))

	start := time.Now()
	_, err := g.Generate(context.Background(), "m", "x")
	var ge *Error
	require.True(t, errors.As(err, &ge), "%v", err)
	assert.Equal(t, CauseNetwork, ge.Cause)
	assert.True(t, ge.Timeout)
	assert.Equal(t, "m", ge.Model)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGenerateEmptyReply(t *testing.T) {
	g := newGateway(t, time.Second, engineFunc(func(context.Context, string, []engine.Message, engine.GenerateOptions) (string, error) {
		return " \n\t", nil
	}))
	_, err := g.Generate(context.Background(), "m", "x")
	var ge *Error
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, CauseUnknown, ge.Cause)
	assert.ErrorIs(t, err, engine.ErrEmptyReply)
}

func TestClassify(t *testing.T) {
	urlTimeout := &url.Error{Op: "Post", URL: "http://x", Err: context.DeadlineExceeded}
	dnsErr := &net.DNSError{Err: "no such host", Name: "x", IsNotFound: true}
	cases := []struct {
		name    string
		err     error
		cause   Cause
		timeout bool
		status  int
	}{
		{"deadline", context.DeadlineExceeded, CauseNetwork, true, 0},
		{"wrapped deadline", fmt.Errorf("call: %w", urlTimeout), CauseNetwork, true, 0},
		{"canceled", context.Canceled, CauseNetwork, false, 0},
		{"dns", &url.Error{Op: "Post", URL: "http://x", Err: dnsErr}, CauseNetwork, false, 0},
		{"unexpected eof", io.ErrUnexpectedEOF, CauseNetwork, false, 0},
		{"401", &engine.UpstreamError{StatusCode: http.StatusUnauthorized}, CauseAuth, false, 401},
		{"403", &engine.UpstreamError{StatusCode: http.StatusForbidden}, CauseAuth, false, 403},
		{"429", &engine.UpstreamError{StatusCode: http.StatusTooManyRequests}, CauseRateLimit, false, 429},
		{"500", &engine.UpstreamError{StatusCode: http.StatusInternalServerError}, CauseServer, false, 500},
		{"503", fmt.Errorf("x: %w", &engine.UpstreamError{StatusCode: http.StatusServiceUnavailable}), CauseServer, false, 503},
		{"400", &engine.UpstreamError{StatusCode: http.StatusBadRequest}, CauseUnknown, false, 400},
		{"empty", engine.ErrEmptyReply, CauseUnknown, false, 0},
		{"opaque", errors.New("weird"), CauseUnknown, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ge := Classify(tc.err)
			require.NotNil(t, ge)
			assert.Equal(t, tc.cause, ge.Cause)
			assert.Equal(t, tc.timeout, ge.Timeout)
			assert.Equal(t, tc.status, ge.StatusCode)
			assert.ErrorIs(t, ge, tc.err)
		})
	}
	assert.Nil(t, Classify(nil))
}

func TestModels(t *testing.T) {
	g := newGateway(t, 5*time.Second, engineFunc(func(context.Context, string, []engine.Message, engine.GenerateOptions) (string, error) {
		return "x", nil
	}))
	assert.Equal(t, []ModelInfo{{ID: "m", Engine: "fake", Upstream: "up", TimeoutSec: 5, Default: true}}, g.Models())
}

type recordingObserver struct{ outcomes []string }

func (r *recordingObserver) ObserveLLM(model, outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, model+":"+outcome)
}

func TestCallObserver(t *testing.T) {
	obs := &recordingObserver{}
	reply := "ok"
	r := router.Empty()
	require.NoError(t, r.Add(router.Route{Model: "m", Engine: engineFunc(func(context.Context, string, []engine.Message, engine.GenerateOptions) (string, error) {
		if reply == "" {
			return "", &engine.UpstreamError{StatusCode: http.StatusTooManyRequests}
		}
		return reply, nil
	})}))
	g := New(r, nil, WithCallObserver(obs))

	_, err := g.Generate(context.Background(), "m", "x")
	require.NoError(t, err)
	reply = ""
	_, err = g.Generate(context.Background(), "m", "x")
	require.Error(t, err)
	_, _ = g.Generate(context.Background(), "missing", "x")

	assert.Equal(t, []string{"m:ok", "m:rate-limit"}, obs.outcomes)
}
