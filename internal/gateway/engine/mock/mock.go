// Package mock is an offline engine. It answers with the worked example
// embedded in the prompt, wrapped in chatty prose the way hosted models
// tend to reply.
package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/founderflow-backend/internal/gateway/engine"
)

const fence = "```json\n"

type Engine struct {
	// Delay simulates upstream latency. The wait honours ctx.
	Delay func(model string) <-chan struct{}
}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	if e.Delay != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-e.Delay(model):
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	user := engine.UserPrompt(messages)
	if strings.TrimSpace(user) == "" {
		return "", engine.ErrEmptyReply
	}
	example, ok := lastJSONBlock(user)
	if !ok {
		return fmt.Sprintf("mock: %s", strings.TrimSpace(user)), nil
	}
	return "Sure! Here is what I came up with:\n\n" + example + "\n\nLet me know if you would like any changes.", nil
}

func lastJSONBlock(s string) (string, bool) {
	start := strings.LastIndex(s, fence)
	if start < 0 {
		return "", false
	}
	body := s[start+len(fence):]
	end := strings.Index(body, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}
