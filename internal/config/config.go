package config

const (
	EngineMock    = "mock"
	EngineOAIHTTP = "oai_http"
	EngineOpenAI  = "openai"
	EngineGemini  = "gemini"
	EngineOllama  = "ollama"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type HTTPConfig struct {
	Addr              string   `json:"addr" yaml:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes" yaml:"max_request_bytes"`

	// CORSOrigins lists browser origins allowed to call the API. Empty allows
	// none; "*" allows all.
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

type EngineConfig struct {
	Type string `json:"type" yaml:"type"`

	// BaseURL is the upstream endpoint. Required for oai_http, optional
	// override for the SDK-backed engines.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// APIKey may be given inline or through APIKeyEnv, the name of an
	// environment variable holding it.
	APIKey    string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`

	ChatCompletionsPath string `json:"chat_completions_path,omitempty" yaml:"chat_completions_path,omitempty"`

	// Timeout bounds one upstream call. There are no retries.
	Timeout     Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Temperature float64  `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

type ModelConfig struct {
	ID string `json:"id" yaml:"id"`

	// UpstreamModel overrides the model name sent to the engine. Defaults to ID.
	UpstreamModel string `json:"upstream_model,omitempty" yaml:"upstream_model,omitempty"`

	Engine EngineConfig `json:"engine" yaml:"engine"`
}

type GatewayConfig struct {
	DefaultModel string        `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	Models       []ModelConfig `json:"models" yaml:"models"`
}

type ExtractorConfig struct {
	// Strategy is "greedy" (first '{' to last '}') or "balanced".
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
}

type SurfaceConfig struct {
	Store     string      `json:"store,omitempty" yaml:"store,omitempty"`
	Redis     RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
	KeyPrefix string      `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	TTL       Duration    `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

type HistoryConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// DSN is a sqlite file path, or a postgres:// URL.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
}

type AuthConfig struct {
	// JWTSecret enables HS256 bearer auth on /api when set.
	JWTSecret string `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`
	Issuer    string `json:"issuer,omitempty" yaml:"issuer,omitempty"`
}

type Config struct {
	Env       string          `json:"env" yaml:"env"`
	LogLevel  string          `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	HTTP      HTTPConfig      `json:"http" yaml:"http"`
	Gateway   GatewayConfig   `json:"gateway" yaml:"gateway"`
	Extractor ExtractorConfig `json:"extractor" yaml:"extractor"`
	Surface   SurfaceConfig   `json:"surface" yaml:"surface"`
	History   HistoryConfig   `json:"history" yaml:"history"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
}

// Model returns the config for id.
func (c *Config) Model(id string) (ModelConfig, bool) {
	for _, m := range c.Gateway.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelConfig{}, false
}
