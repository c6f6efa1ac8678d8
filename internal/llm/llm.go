package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultModel           = "gpt-4o-mini"
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultTemperature     = 0.1
	DefaultMaxOutputTokens = 1600
)

// Client abstracts the hosted text-generation model.
type Client interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// Settings is the fixed model configuration handed to a provider client.
type Settings struct {
	Provider        string  `validate:"required,oneof=openai gemini"`
	Model           string  `validate:"required"`
	Temperature     float32 `validate:"gte=0,lte=2"`
	MaxOutputTokens int     `validate:"gt=0"`
}

// DefaultSettings returns gpt-4o-mini at temperature 0.1 capped at 1600 output tokens.
func DefaultSettings() Settings {
	return Settings{
		Provider:        ProviderOpenAI,
		Model:           DefaultModel,
		Temperature:     DefaultTemperature,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

var settingsValidator = validator.New()

// Validate reports the first invalid field, if any.
func (s Settings) Validate() error {
	if err := settingsValidator.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid llm settings: %s failed %q", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("invalid llm settings: %w", err)
	}
	return nil
}

// Call invokes client and converts a panic inside the provider into an error,
// so the caller always gets either text or an error.
func Call(ctx context.Context, client Client, prompt Prompt) (out string, err error) {
	if client == nil {
		return "", ErrNotConfigured
	}
	defer func() {
		if rec := recover(); rec != nil {
			out, err = "", fmt.Errorf("model client panic: %v", rec)
		}
	}()
	out, err = client.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ErrNotConfigured is returned when no provider client was built.
var ErrNotConfigured = errors.New("LLM client not configured")

// PlaceholderClient stands in when no API credential is available.
type PlaceholderClient struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderClient) Generate(ctx context.Context, prompt Prompt) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}
