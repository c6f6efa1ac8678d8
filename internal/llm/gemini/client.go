package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/shared/telemetry"
)

// Options carries the credential and transport settings.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Client on top of the Gemini API.
type Client struct {
	client   *genai.Client
	settings llm.Settings
}

// NewClient constructs a Gemini-backed client.
func NewClient(ctx context.Context, settings llm.Settings, opts Options) (*Client, error) {
	if strings.TrimSpace(settings.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for Gemini")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client, settings: settings}, nil
}

// Generate sends the user prompt with the system prompt as system instruction.
func (c *Client) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	temp := c.settings.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(c.settings.MaxOutputTokens),
	}
	if prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	result, err := c.client.Models.GenerateContent(ctx, c.settings.Model, genai.Text(prompt.User), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("gemini response missing output text")
	}
	logUsage(c.settings.Model, result)
	return text, nil
}

func logUsage(model string, result *genai.GenerateContentResponse) {
	fields := map[string]any{
		"provider": llm.ProviderGemini,
		"model":    model,
	}
	if usage := result.UsageMetadata; usage != nil {
		fields["input_tokens"] = usage.PromptTokenCount
		fields["output_tokens"] = usage.CandidatesTokenCount
		fields["total_tokens"] = usage.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.Client = (*Client)(nil)
