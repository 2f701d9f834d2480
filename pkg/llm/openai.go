package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deepsage/deepsage/pkg/config"
	"github.com/deepsage/deepsage/pkg/httpclient"
)

// OpenAIProvider calls the OpenAI chat completions API.
type OpenAIProvider struct {
	client  *httpclient.Client
	apiKey  string
	baseURL string
	model   string
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func NewOpenAIProvider(cfg config.LLMConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenAI provider")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		client:  newProviderClient(cfg),
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
	}, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var messages []openAIChatMessage
	if systemPrompt != "" {
		messages = append(messages, openAIChatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, openAIChatMessage{Role: "user", Content: userPrompt})

	reqBody, err := json.Marshal(openAIChatRequest{Model: p.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read openai response: %w", err)
	}

	var data openAIChatResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("failed to decode openai response: %w", err)
	}
	if data.Error != nil {
		return "", fmt.Errorf("openai error: %s", data.Error.Message)
	}
	if len(data.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return data.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) ModelName() string {
	return p.model
}

// newProviderClient builds the retrying HTTP client shared by the API-backed
// providers.
func newProviderClient(cfg config.LLMConfig) *httpclient.Client {
	timeout := 120 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	retries := 3
	if cfg.MaxRetries > 0 {
		retries = cfg.MaxRetries
	}
	return httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: timeout}),
		httpclient.WithMaxRetries(retries),
		httpclient.WithBaseDelay(time.Second),
		httpclient.WithRetryDecider(func(status int) bool {
			return status == http.StatusTooManyRequests || status >= 500
		}),
	)
}
