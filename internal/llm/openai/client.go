package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/shared/telemetry"
)

const defaultBaseURL = "https://api.openai.com/v1"

// apiURL is overridden in tests.
var apiURL = defaultBaseURL + "/responses"

// Options carries the credential and transport settings.
type Options struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Client using the OpenAI Responses API.
type Client struct {
	apiKey     string
	url        string
	settings   llm.Settings
	httpClient *http.Client
}

// NewClient constructs a new OpenAI client.
func NewClient(settings llm.Settings, opts Options) (*Client, error) {
	if strings.TrimSpace(settings.Model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for OpenAI")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	url := apiURL
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		url = base + "/responses"
	}
	return &Client{
		apiKey:   opts.APIKey,
		url:      url,
		settings: settings,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string         `json:"model"`
	Input           []inputMessage `json:"input"`
	Temperature     *float32       `json:"temperature,omitempty"`
	MaxOutputTokens int            `json:"max_output_tokens,omitempty"`
}

type responsesResponse struct {
	ID     string `json:"id"`
	Model  string `json:"model"`
	Status string `json:"status"`
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// outputText joins every output_text part across message items.
func (r responsesResponse) outputText() (string, bool) {
	var (
		b     strings.Builder
		found bool
	)
	for _, item := range r.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type != "output_text" {
				continue
			}
			b.WriteString(part.Text)
			found = true
		}
	}
	return b.String(), found
}

// Generate sends the system and user prompts and returns the output text.
func (c *Client) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	reqBody := responsesRequest{
		Model: c.settings.Model,
		Input: []inputMessage{
			{Role: "system", Content: prompt.System},
			{Role: "user", Content: prompt.User},
		},
		MaxOutputTokens: c.settings.MaxOutputTokens,
	}
	// gpt-5 models reject sampling parameters.
	if !isGPT5(c.settings.Model) {
		temp := c.settings.Temperature
		reqBody.Temperature = &temp
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", fmt.Errorf("openai request timeout: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed responsesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode >= 400 {
			return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return "", fmt.Errorf("openai response parse: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openai http status %d: %s (%s)", resp.StatusCode, parsed.Error.Message, parsed.Error.Type)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("openai http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	text, ok := parsed.outputText()
	if !ok {
		return "", fmt.Errorf("openai response missing output text (status %q)", parsed.Status)
	}
	logUsage(c.settings.Model, parsed)
	return text, nil
}

func logUsage(model string, resp responsesResponse) {
	fields := map[string]any{
		"provider":    llm.ProviderOpenAI,
		"model":       model,
		"response_id": resp.ID,
		"status":      resp.Status,
	}
	if resp.Usage != nil {
		fields["input_tokens"] = resp.Usage.InputTokens
		fields["output_tokens"] = resp.Usage.OutputTokens
		fields["total_tokens"] = resp.Usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
