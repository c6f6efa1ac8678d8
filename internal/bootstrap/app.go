package bootstrap

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/fetch"
	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/llm/gemini"
	"resume-optimizer/internal/llm/openai"
	"resume-optimizer/internal/optimizer"
	"resume-optimizer/internal/services/health"
	"resume-optimizer/internal/shared/config"
	"resume-optimizer/internal/shared/server"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/internal/web"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	LLM              llm.Client
	Fetcher          *fetch.Fetcher
	OptimizerService *optimizer.Service
	OptimizeHandler  *optimizer.Handler
	FetchHandler     *fetch.Handler
	PageHandler      *web.Handler
}

// Build prepares shared dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	settings := cfg.LLMSettings()
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	client, err := BuildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		LLM:     client,
		Fetcher: fetch.New(&fetch.Options{Timeout: cfg.FetchTimeout}),
	}
	app.OptimizerService = &optimizer.Service{LLM: client, Settings: settings}
	app.OptimizeHandler = optimizer.NewHandler(app.OptimizerService, app.Fetcher, cfg.MaxUploadBytes)
	app.FetchHandler = fetch.NewHandler(app.Fetcher)
	app.PageHandler = web.NewHandler(app.OptimizerService, app.Fetcher, cfg.MaxUploadBytes)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Page:            app.PageHandler,
		OptimizeHandler: app.OptimizeHandler,
		FetchHandler:    app.FetchHandler,
		RateLimiter:     middleware.NewRateLimiter(nil),
		Health:          health.NewService(settings.Provider, settings.Model, strings.TrimSpace(cfg.APIKey()) != ""),
	})

	return app, nil
}

// BuildLLM selects the provider client. Without a credential in a dev-like
// environment it falls back to llm.PlaceholderClient so the page still loads.
func BuildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	settings := cfg.LLMSettings()
	if strings.TrimSpace(cfg.APIKey()) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{
				"provider": settings.Provider,
				"reason":   "no API key configured",
			})
			return llm.PlaceholderClient{}, nil
		}
	}

	if settings.Provider == llm.ProviderGemini {
		geminiClient, err := gemini.NewClient(ctx, settings, gemini.Options{
			APIKey:  cfg.GeminiAPIKey,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, err
		}
		return geminiClient, nil
	}

	openaiClient, err := openai.NewClient(settings, openai.Options{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}
	return openaiClient, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
