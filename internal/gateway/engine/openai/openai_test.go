package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine"
)

func newTestEngine(t *testing.T, h http.HandlerFunc) *Engine {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	e, err := New(config.EngineConfig{Type: config.EngineOpenAI, APIKey: "sk-test", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	return e
}

func TestGenerateText(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "gpt-4o-mini", in["model"])
		assert.Equal(t, map[string]any{"type": "json_object"}, in["response_format"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
	})

	out, err := e.GenerateText(context.Background(), "gpt-4o-mini",
		[]engine.Message{{Role: "user", Content: "hi"}},
		engine.GenerateOptions{JSONSchema: &engine.JSONSchema{Name: "x"}})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
}

func TestGenerateTextStatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusBadGateway} {
		e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
		})
		_, err := e.GenerateText(context.Background(), "m", []engine.Message{{Role: "user", Content: "hi"}}, engine.GenerateOptions{})
		var ue *engine.UpstreamError
		require.True(t, errors.As(err, &ue), "status %d: %v", status, err)
		assert.Equal(t, status, ue.StatusCode)
	}
}

func TestGenerateTextEmpty(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  "}}]}`))
	})
	_, err := e.GenerateText(context.Background(), "m", []engine.Message{{Role: "user", Content: "hi"}}, engine.GenerateOptions{})
	assert.ErrorIs(t, err, engine.ErrEmptyReply)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(config.EngineConfig{Type: config.EngineOpenAI})
	assert.Error(t, err)
}
