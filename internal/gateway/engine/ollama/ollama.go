// Package ollama runs prompts against a local Ollama server through
// github.com/JexSrs/go-ollama.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	goollama "github.com/JexSrs/go-ollama"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine"
)

type request struct {
	model       string
	system      string
	prompt      string
	temperature float64
}

type generateFunc func(req request) (text string, done bool, err error)

type Engine struct {
	generate generateFunc
}

func New(cfg config.EngineConfig) (*Engine, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = "http://localhost:11434"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid base_url: %w", err)
	}
	client := goollama.New(*u)
	return &Engine{
		generate: func(req request) (string, bool, error) {
			opts := []func(*goollama.GenerateRequestBuilder){
				client.Generate.WithModel(req.model),
				client.Generate.WithSystem(req.system),
				client.Generate.WithPrompt(req.prompt),
			}
			if req.temperature > 0 {
				opts = append(opts, client.Generate.WithTemperature(req.temperature))
			}
			res, err := client.Generate(opts...)
			if err != nil {
				return "", false, upstreamError(err)
			}
			return res.Response, res.Done, nil
		},
	}, nil
}

type result struct {
	text string
	done bool
	err  error
}

// GenerateText issues one generate request. The client library takes no
// context, so the call runs in its own goroutine and ctx only bounds how long
// we wait for it.
func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	prompt := engine.UserPrompt(messages)
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("no messages")
	}
	req := request{
		model:       model,
		system:      engine.SystemPrompt(messages),
		prompt:      prompt,
		temperature: opts.Temperature,
	}

	ch := make(chan result, 1)
	go func() {
		text, done, err := e.generate(req)
		ch <- result{text: text, done: done, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		if !r.done || strings.TrimSpace(r.text) == "" {
			return "", engine.ErrEmptyReply
		}
		return r.text, nil
	}
}

// The client reports HTTP failures only as text, "status code: N, body: B".
var statusPattern = regexp.MustCompile(`(?s)^status code: (\d{3}), (?:body: )?(.*)$`)

// upstreamError turns the client's status errors into engine.UpstreamError.
// Transport errors pass through unchanged.
func upstreamError(err error) error {
	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	code, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return err
	}
	return &engine.UpstreamError{StatusCode: code, Message: strings.TrimSpace(m[2])}
}
