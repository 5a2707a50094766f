package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/founderflow-backend/internal/platform/envutil"
)

const (
	DefaultTimeout = 30 * time.Second

	defaultGeminiModel = "gemini-2.0-flash"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultOllamaModel = "llama3"
)

func Default() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Dur(5 * time.Second),
			IdleTimeout:       Dur(2 * time.Minute),
			ShutdownTimeout:   Dur(15 * time.Second),
			MaxRequestBytes:   1 << 20,
		},
		Gateway: GatewayConfig{
			DefaultModel: "mock-1",
			Models: []ModelConfig{
				{ID: "mock-1", Engine: EngineConfig{Type: EngineMock}},
			},
		},
		Extractor: ExtractorConfig{Strategy: "greedy"},
		Surface: SurfaceConfig{
			Store:     StoreMemory,
			KeyPrefix: "founderflow:surface:",
			TTL:       Dur(24 * time.Hour),
		},
		History: HistoryConfig{Enabled: true, DSN: "founderflow.db"},
	}
}

// Load reads .env, then the config file (FF_CONFIG_PATH, or
// ./config/config.{json,yaml,yml}), then environment overrides, then
// normalizes and validates.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := strings.TrimSpace(os.Getenv("FF_CONFIG_PATH"))
	if path == "" {
		path = findConfigFile()
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit config path. An empty path uses defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		loaded, err := decode(path, b)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = loaded
	}
	applyEnv(cfg)
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range []string{"config.json", "config.yaml", "config.yml"} {
		p := filepath.Join(wd, "config", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// decode starts from defaults so a file only needs the keys it changes. A
// file that lists models replaces the default model set.
func decode(path string, b []byte) (*Config, error) {
	cfg := Default()
	cfg.Gateway.DefaultModel = ""
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Env = envutil.String("FF_ENV", envutil.String("LOG_MODE", cfg.Env))
	cfg.LogLevel = envutil.String("LOG_LEVEL", cfg.LogLevel)
	cfg.HTTP.Addr = envutil.String("FF_HTTP_ADDR", cfg.HTTP.Addr)
	if v := envutil.String("FF_CORS_ORIGINS", ""); v != "" {
		cfg.HTTP.CORSOrigins = splitList(v)
	}
	cfg.Gateway.DefaultModel = envutil.String("FF_DEFAULT_MODEL", cfg.Gateway.DefaultModel)
	cfg.Extractor.Strategy = envutil.String("FF_EXTRACTOR_STRATEGY", cfg.Extractor.Strategy)
	cfg.Surface.Store = envutil.String("FF_SURFACE_STORE", cfg.Surface.Store)
	cfg.Surface.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Surface.Redis.Addr)
	cfg.Surface.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Surface.Redis.Password)
	cfg.Surface.Redis.DB = envutil.Int("REDIS_DB", cfg.Surface.Redis.DB)
	cfg.Surface.TTL.Duration = envutil.Duration("FF_SURFACE_TTL", cfg.Surface.TTL.Duration)
	cfg.History.Enabled = envutil.Bool("FF_HISTORY_ENABLED", cfg.History.Enabled)
	cfg.History.DSN = envutil.String("FF_HISTORY_DSN", cfg.History.DSN)
	cfg.Auth.JWTSecret = envutil.String("FF_JWT_SECRET", cfg.Auth.JWTSecret)

	timeout := Dur(envutil.Duration("FF_GATEWAY_TIMEOUT", DefaultTimeout))

	// Hosted engines are registered automatically when their credential is
	// present and no model with the same id was configured.
	if key := envutil.String("GEMINI_API_KEY", ""); key != "" {
		addModel(cfg, ModelConfig{
			ID:            "gemini",
			UpstreamModel: envutil.String("GEMINI_MODEL", defaultGeminiModel),
			Engine:        EngineConfig{Type: EngineGemini, APIKeyEnv: "GEMINI_API_KEY", Timeout: timeout},
		})
	}
	if key := envutil.String("OPENAI_API_KEY", ""); key != "" {
		addModel(cfg, ModelConfig{
			ID:            "openai",
			UpstreamModel: envutil.String("OPENAI_MODEL", defaultOpenAIModel),
			Engine:        EngineConfig{Type: EngineOpenAI, APIKeyEnv: "OPENAI_API_KEY", Timeout: timeout},
		})
	}
	if host := envutil.String("OLLAMA_HOST", ""); host != "" {
		addModel(cfg, ModelConfig{
			ID:            "ollama",
			UpstreamModel: envutil.String("OLLAMA_MODEL", defaultOllamaModel),
			Engine:        EngineConfig{Type: EngineOllama, BaseURL: host, Timeout: timeout},
		})
	}
}

func addModel(cfg *Config, m ModelConfig) {
	if _, exists := cfg.Model(m.ID); exists {
		return
	}
	cfg.Gateway.Models = append(cfg.Gateway.Models, m)
}

// Normalize fills defaults and rejects invalid settings.
func (c *Config) Normalize() error {
	if strings.TrimSpace(c.Env) == "" {
		c.Env = "development"
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.MaxRequestBytes <= 0 {
		c.HTTP.MaxRequestBytes = 1 << 20
	}
	if c.HTTP.ShutdownTimeout.Duration <= 0 {
		c.HTTP.ShutdownTimeout = Dur(15 * time.Second)
	}

	if len(c.Gateway.Models) == 0 {
		return errors.New("config must define at least one model")
	}
	seen := map[string]struct{}{}
	for i := range c.Gateway.Models {
		m := &c.Gateway.Models[i]
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return errors.New("model id is required")
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("duplicate model id: %s", m.ID)
		}
		seen[m.ID] = struct{}{}
		if err := normalizeModel(m); err != nil {
			return err
		}
	}
	c.Gateway.DefaultModel = strings.TrimSpace(c.Gateway.DefaultModel)
	if c.Gateway.DefaultModel == "" {
		c.Gateway.DefaultModel = c.Gateway.Models[0].ID
	}
	if _, ok := seen[c.Gateway.DefaultModel]; !ok {
		return fmt.Errorf("default_model %q is not a configured model", c.Gateway.DefaultModel)
	}

	c.Extractor.Strategy = strings.ToLower(strings.TrimSpace(c.Extractor.Strategy))
	switch c.Extractor.Strategy {
	case "":
		c.Extractor.Strategy = "greedy"
	case "greedy", "balanced":
	default:
		return fmt.Errorf("invalid extractor.strategy=%q", c.Extractor.Strategy)
	}

	c.Surface.Store = strings.ToLower(strings.TrimSpace(c.Surface.Store))
	switch c.Surface.Store {
	case "":
		c.Surface.Store = StoreMemory
	case StoreMemory:
	case StoreRedis:
		if strings.TrimSpace(c.Surface.Redis.Addr) == "" {
			return errors.New("surface.store=redis requires surface.redis.addr")
		}
	default:
		return fmt.Errorf("invalid surface.store=%q", c.Surface.Store)
	}
	if c.Surface.KeyPrefix == "" {
		c.Surface.KeyPrefix = "founderflow:surface:"
	}
	if c.Surface.TTL.Duration < 0 {
		return errors.New("surface.ttl must not be negative")
	}

	if c.History.Enabled && strings.TrimSpace(c.History.DSN) == "" {
		return errors.New("history.enabled requires history.dsn")
	}
	return nil
}

func normalizeModel(m *ModelConfig) error {
	if strings.TrimSpace(m.UpstreamModel) == "" {
		m.UpstreamModel = m.ID
	}
	e := &m.Engine
	e.Type = strings.ToLower(strings.TrimSpace(e.Type))
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	e.ChatCompletionsPath = strings.TrimSpace(e.ChatCompletionsPath)
	if e.APIKey == "" && e.APIKeyEnv != "" {
		e.APIKey = strings.TrimSpace(os.Getenv(e.APIKeyEnv))
	}
	if e.Timeout.Duration < 0 {
		return fmt.Errorf("model %q invalid engine.timeout", m.ID)
	}
	if e.Timeout.Duration == 0 {
		e.Timeout = Dur(DefaultTimeout)
	}
	if e.Temperature < 0 || e.Temperature > 2 {
		return fmt.Errorf("model %q engine.temperature must be within [0, 2]", m.ID)
	}

	switch e.Type {
	case "":
		return fmt.Errorf("model %q missing engine.type", m.ID)
	case EngineMock:
	case "openai_http", EngineOAIHTTP:
		e.Type = EngineOAIHTTP
		if e.BaseURL == "" {
			return fmt.Errorf("model %q (oai_http) missing engine.base_url", m.ID)
		}
		if e.ChatCompletionsPath == "" {
			e.ChatCompletionsPath = "/v1/chat/completions"
		}
	case EngineOpenAI:
		if e.APIKey == "" {
			return fmt.Errorf("model %q (openai) missing engine.api_key", m.ID)
		}
	case "google", "genai", EngineGemini:
		e.Type = EngineGemini
		if e.APIKey == "" {
			return fmt.Errorf("model %q (gemini) missing engine.api_key", m.ID)
		}
	case EngineOllama:
		if e.BaseURL == "" {
			e.BaseURL = "http://localhost:11434"
		}
	default:
		return fmt.Errorf("model %q unsupported engine.type=%q", m.ID, e.Type)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
