// Package gemini is the Google Gemini engine, built on google.golang.org/genai.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine"
)

type Engine struct {
	client *genai.Client
}

func New(cfg config.EngineConfig) (*Engine, error) {
	return NewWithHTTPClient(cfg, nil)
}

func NewWithHTTPClient(cfg config.EngineConfig, httpClient *http.Client) (*Engine, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("gemini: api_key required")
	}
	cc := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if httpClient != nil {
		cc.HTTPClient = httpClient
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Engine{client: client}, nil
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	user := engine.UserPrompt(messages)
	if strings.TrimSpace(user) == "" {
		return "", errors.New("no messages")
	}

	gc := &genai.GenerateContentConfig{}
	if sys := engine.SystemPrompt(messages); sys != "" {
		gc.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}
	if opts.Temperature > 0 {
		t := float32(opts.Temperature)
		gc.Temperature = &t
	}
	if opts.JSONSchema != nil && opts.JSONSchema.Schema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = ToSchema(opts.JSONSchema.Schema)
	}

	resp, err := e.client.Models.GenerateContent(ctx, model, genai.Text(user), gc)
	if err != nil {
		return "", upstreamError(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", engine.ErrEmptyReply
	}
	return text, nil
}

func upstreamError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return &engine.UpstreamError{StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && apiErrPtr.Code != 0 {
		return &engine.UpstreamError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return err
}

// ToSchema converts a JSON Schema document into the genai response schema.
// Keywords genai has no field for are dropped.
func ToSchema(js map[string]any) *genai.Schema {
	if js == nil {
		return nil
	}
	s := &genai.Schema{}
	if t, ok := js["type"].(string); ok {
		s.Type = schemaType(t)
	}
	if d, ok := js["description"].(string); ok {
		s.Description = d
	}
	if props, ok := js["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if p, ok := raw.(map[string]any); ok {
				s.Properties[name] = ToSchema(p)
			}
		}
	}
	if items, ok := js["items"].(map[string]any); ok {
		s.Items = ToSchema(items)
	}
	switch req := js["required"].(type) {
	case []string:
		s.Required = append([]string(nil), req...)
	case []any:
		for _, r := range req {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
	}
	return s
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}
