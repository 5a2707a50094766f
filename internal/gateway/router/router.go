package router

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine/gemini"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine/mock"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine/oaihttp"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine/ollama"
	"github.com/yungbote/founderflow-backend/internal/gateway/engine/openai"
)

type Route struct {
	Model         string
	UpstreamModel string
	EngineType    string
	Engine        engine.Engine
	Timeout       time.Duration
	Temperature   float64
}

type Router struct {
	routes       map[string]Route
	defaultModel string
}

// Empty returns a router with no routes; populate it with Add.
func Empty() *Router {
	return &Router{routes: map[string]Route{}}
}

// New builds one engine per configured model.
func New(cfg config.GatewayConfig) (*Router, error) {
	r := &Router{routes: map[string]Route{}, defaultModel: strings.TrimSpace(cfg.DefaultModel)}
	for _, m := range cfg.Models {
		eng, err := newEngine(m.Engine)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", m.ID, err)
		}
		if err := r.Add(Route{
			Model:         m.ID,
			UpstreamModel: m.UpstreamModel,
			EngineType:    m.Engine.Type,
			Engine:        eng,
			Timeout:       m.Engine.Timeout.Duration,
			Temperature:   m.Engine.Temperature,
		}); err != nil {
			return nil, err
		}
	}
	if r.defaultModel == "" && len(cfg.Models) > 0 {
		r.defaultModel = cfg.Models[0].ID
	}
	return r, nil
}

func newEngine(ec config.EngineConfig) (engine.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(ec.Type)) {
	case config.EngineMock:
		return mock.New(), nil
	case config.EngineOAIHTTP, "openai_http":
		return oaihttp.New(ec)
	case config.EngineOpenAI:
		return openai.New(ec)
	case config.EngineGemini:
		return gemini.New(ec)
	case config.EngineOllama:
		return ollama.New(ec)
	default:
		return nil, fmt.Errorf("unsupported engine type %q", ec.Type)
	}
}

// Add registers a route directly, bypassing config. Used to plug in custom
// engines.
func (r *Router) Add(rt Route) error {
	id := strings.TrimSpace(rt.Model)
	if id == "" {
		return fmt.Errorf("model id required")
	}
	if rt.Engine == nil {
		return fmt.Errorf("model %q: engine required", id)
	}
	if _, exists := r.routes[id]; exists {
		return fmt.Errorf("duplicate model id: %s", id)
	}
	rt.Model = id
	if strings.TrimSpace(rt.UpstreamModel) == "" {
		rt.UpstreamModel = id
	}
	if rt.Timeout <= 0 {
		rt.Timeout = config.DefaultTimeout
	}
	r.routes[id] = rt
	if r.defaultModel == "" {
		r.defaultModel = id
	}
	return nil
}

func (r *Router) DefaultModel() string { return r.defaultModel }

// ListModels returns the configured model ids, sorted.
func (r *Router) ListModels() []string {
	out := make([]string, 0, len(r.routes))
	for id := range r.routes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// RouteForModel resolves a model id; empty selects the default.
func (r *Router) RouteForModel(model string) (Route, bool) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = r.defaultModel
	}
	route, ok := r.routes[model]
	return route, ok
}
