package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"feed-report/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(&config.Config{
		OpenRouterAPIKey: "test-key",
		LLMBaseURL:       srv.URL + "/",
		LLMModel:         "anthropic/claude-3-haiku",
		LLMTimeout:       5 * time.Second,
		LLMAppTitle:      "Feed Report",
	}, nil, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(&config.Config{}, nil, nil)
	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(&config.Config{OpenRouterAPIKey: "k"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, defaultModel, c.Model())
	assert.Equal(t, "openrouter", c.Name())
}

func TestComplete_SendsRequestAndReturnsContent(t *testing.T) {
	var got ChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "Feed Report", r.Header.Get("X-Title"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gen-1","choices":[{"index":0,"message":{"role":"assistant","content":"<h2>Nutritional Value</h2>"},"finish_reason":"stop"}]}`))
	})

	out, err := client.Complete(context.Background(), "system prompt", "Ingredients:\nCorn - 5kg")
	require.NoError(t, err)
	assert.Equal(t, "<h2>Nutritional Value</h2>", out)

	assert.Equal(t, "anthropic/claude-3-haiku", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, Message{Role: "system", Content: "system prompt"}, got.Messages[0])
	assert.Equal(t, Message{Role: "user", Content: "Ingredients:\nCorn - 5kg"}, got.Messages[1])
}

func TestComplete_StatusErrorCarriesProviderMessage(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"No auth credentials found"}}`))
	})

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "No auth credentials found")
	assert.Equal(t, 1, calls, "no retry expected")
}

func TestComplete_NoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
}

func TestComplete_EmptyContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  "}}]}`))
	})

	_, err := client.Complete(context.Background(), "s", "u")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_ErrorObjectWith200(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":502,"message":"upstream overloaded"}}`))
	})

	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream overloaded")
}

func TestProviderMessage_TruncatesRawBody(t *testing.T) {
	long := make([]byte, maxErrorBody+100)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, providerMessage(long), maxErrorBody)
}
