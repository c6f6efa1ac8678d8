package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"resume-optimizer/internal/llm"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	CORSAllowOrigin    []string
	LLMProvider        string
	LLMModel           string
	LLMTemperature     float32
	LLMMaxOutputTokens int
	LLMTimeout         time.Duration
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	GeminiAPIKey       string
	FetchTimeout       time.Duration
	MaxUploadBytes     int64
	RateLimitPerMinute int
	RateLimitBurst     int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("LLM_PROVIDER", llm.ProviderOpenAI)
	v.SetDefault("LLM_TEMPERATURE", llm.DefaultTemperature)
	v.SetDefault("LLM_MAX_OUTPUT_TOKENS", llm.DefaultMaxOutputTokens)
	v.SetDefault("LLM_TIMEOUT_SECONDS", 120)
	v.SetDefault("FETCH_TIMEOUT_SECONDS", 10)
	v.SetDefault("MAX_UPLOAD_BYTES", 5<<20)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 10)
	v.SetDefault("RATE_LIMIT_BURST", 3)
	return v
}

func fromViper(v *viper.Viper) Config {
	provider := strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER")))
	return Config{
		Port:               v.GetString("PORT"),
		Env:                normalizeEnv(v.GetString("ENV")),
		CORSAllowOrigin:    splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		LLMProvider:        provider,
		LLMModel:           defaultModel(provider, v.GetString("LLM_MODEL")),
		LLMTemperature:     float32(v.GetFloat64("LLM_TEMPERATURE")),
		LLMMaxOutputTokens: v.GetInt("LLM_MAX_OUTPUT_TOKENS"),
		LLMTimeout:         time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second,
		OpenAIAPIKey:       strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		OpenAIBaseURL:      strings.TrimSpace(v.GetString("OPENAI_BASE_URL")),
		GeminiAPIKey:       strings.TrimSpace(v.GetString("GEMINI_API_KEY")),
		FetchTimeout:       time.Duration(v.GetInt("FETCH_TIMEOUT_SECONDS")) * time.Second,
		MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),
		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
		RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
	}
}

// LLMSettings returns the model configuration handed to provider clients.
func (c Config) LLMSettings() llm.Settings {
	return llm.Settings{
		Provider:        c.LLMProvider,
		Model:           c.LLMModel,
		Temperature:     c.LLMTemperature,
		MaxOutputTokens: c.LLMMaxOutputTokens,
	}
}

// APIKey returns the credential for the configured provider.
func (c Config) APIKey() string {
	if c.LLMProvider == llm.ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// loadEnvFiles loads KEY=VALUE files that exist. Variables already present in
// the environment win.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

func defaultModel(provider, model string) string {
	if model = strings.TrimSpace(model); model != "" {
		return model
	}
	if provider == llm.ProviderGemini {
		return llm.DefaultGeminiModel
	}
	return llm.DefaultModel
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
