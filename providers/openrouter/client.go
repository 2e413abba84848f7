package openrouter

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

	"go.uber.org/zap"

	"feed-report/config"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "anthropic/claude-3-haiku"
	// Fehlertexte des Providers werden nur bis zu dieser Länge übernommen.
	maxErrorBody = 512
)

// ErrEmptyResponse wird geliefert, wenn das Modell keinen Text zurückgibt.
var ErrEmptyResponse = errors.New("openrouter: empty completion")

// Client implementiert providers.Completer für die OpenRouter Chat Completions API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	appURL     string
	appTitle   string
	httpClient *http.Client
	Logger     *zap.Logger
}

// NewClient erstellt einen Client aus der Service-Konfiguration.
// Ein nil httpClient erzeugt einen Client mit cfg.LLMTimeout.
func NewClient(cfg *config.Config, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.OpenRouterAPIKey)
	if apiKey == "" {
		return nil, errors.New("openrouter: api key must not be empty")
	}

	baseURL := strings.TrimSpace(cfg.LLMBaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.LLMModel)
	if model == "" {
		model = defaultModel
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.LLMTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		appURL:     cfg.LLMAppURL,
		appTitle:   cfg.LLMAppTitle,
		httpClient: httpClient,
		Logger:     logger,
	}, nil
}

// Name gibt den Namen des Providers zurück.
func (c *Client) Name() string {
	return "openrouter"
}

// Model gibt das konfigurierte Modell zurück.
func (c *Client) Model() string {
	return c.model
}

// Complete führt genau einen Chat-Completion-Aufruf aus, ohne Retry.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	log := c.Logger.With(zap.String("model", c.model))

	body, err := json.Marshal(ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openrouter: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openrouter: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.appURL != "" {
		req.Header.Set("HTTP-Referer", c.appURL)
	}
	if c.appTitle != "" {
		req.Header.Set("X-Title", c.appTitle)
	}

	start := time.Now()
	log.Debug("Calling chat completions", zap.Int("user_prompt_len", len(userPrompt)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter: call api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openrouter: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("openrouter: api returned status %d: %s", resp.StatusCode, providerMessage(raw))
	}

	var parsed ChatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("openrouter: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("openrouter: api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("openrouter: api returned no choices")
	}

	content := parsed.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}

	log.Info("Chat completion finished",
		zap.Duration("took", time.Since(start)),
		zap.Int("response_len", len(content)),
		zap.String("finish_reason", parsed.Choices[0].FinishReason))
	return content, nil
}

// providerMessage holt die Fehlermeldung aus einem Fehler-Body, sonst den gekürzten Rohtext.
func providerMessage(raw []byte) string {
	var parsed ChatResponse
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}
