package engine

import (
	"context"
	"errors"
	"fmt"
)

type Message struct {
	Role    string
	Content string
}

// JSONSchema is a structured-output hint. Engines that cannot enforce it
// ignore it; the reply is validated downstream either way.
type JSONSchema struct {
	Name   string
	Schema map[string]any
}

type GenerateOptions struct {
	Temperature float64
	JSONSchema  *JSONSchema
}

// Engine performs exactly one upstream call per GenerateText. Retrying is
// the caller's decision.
type Engine interface {
	GenerateText(ctx context.Context, model string, messages []Message, opts GenerateOptions) (string, error)
}

// ErrEmptyReply is returned when the upstream answered successfully but with
// no text.
var ErrEmptyReply = errors.New("empty upstream completion")

// UpstreamError is a non-success answer from the upstream service.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "upstream error"
	}
	if e.Message == "" {
		return fmt.Sprintf("upstream error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream error: status=%d body=%s", e.StatusCode, e.Message)
}

func (e *UpstreamError) HTTPStatusCode() int { return e.StatusCode }

// UserPrompt returns the content of the last user message.
func UserPrompt(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// SystemPrompt joins the system messages.
func SystemPrompt(messages []Message) string {
	var out string
	for _, m := range messages {
		if m.Role != "system" || m.Content == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}
