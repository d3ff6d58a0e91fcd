package provider

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

	"prompt-studio/shared/models"
)

func testRegistry() *Registry {
	return NewRegistry([]models.Integration{
		{UID: "int-1", Name: "open_ai", Settings: map[string]any{"model_name": "gpt-4o-mini", "temperature": 0.9}},
	})
}

func chatRequest() models.ChatRequest {
	return models.ChatRequest{
		PromptID:            3,
		ProjectID:           1,
		IntegrationID:       "int-1",
		IntegrationSettings: map[string]any{"temperature": 0.2},
		Input:               "question",
		ChatHistory:         []models.ChatMessage{{Role: models.ChatRoleUser, Content: "earlier"}, {Role: models.ChatRoleAI, Content: "reply"}},
		Prompt:              &models.Prompt{ID: 3, Prompt: "Be brief."},
	}
}

func TestOpenAIRunner_RunChat(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "short answer"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	runner, err := NewOpenAIRunner(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "fallback", Timeout: 5 * time.Second}, testRegistry(), zap.NewNop())
	require.NoError(t, err)

	resp, err := runner.RunChat(context.Background(), chatRequest())
	require.NoError(t, err)

	content, ok := resp.FirstContent()
	require.True(t, ok)
	assert.Equal(t, "short answer", content)
	assert.Equal(t, models.ChatRoleAI, resp.Messages[0].Role)

	assert.Equal(t, "gpt-4o-mini", received["model"])
	assert.InDelta(t, 0.2, received["temperature"], 0.0001)
	msgs, ok := received["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[2].(map[string]any)["role"])
	assert.Equal(t, "question", msgs[3].(map[string]any)["content"])
}

func TestOpenAIRunner_UnknownIntegration(t *testing.T) {
	runner, err := NewOpenAIRunner(Config{BaseURL: "http://127.0.0.1:1", Model: "m"}, testRegistry(), nil)
	require.NoError(t, err)

	req := chatRequest()
	req.IntegrationID = "missing"
	_, err = runner.RunChat(context.Background(), req)
	require.ErrorIs(t, err, models.ErrIntegrationNotFound)
}

func TestOpenAIRunner_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "choices": [], "usage": {"prompt_tokens": 1, "completion_tokens": 0, "total_tokens": 1}}`))
	}))
	defer srv.Close()

	runner, err := NewOpenAIRunner(Config{BaseURL: srv.URL, Model: "m", Timeout: time.Second}, testRegistry(), nil)
	require.NoError(t, err)

	_, err = runner.RunChat(context.Background(), chatRequest())
	require.ErrorIs(t, err, models.ErrEmptyChatResponse)
}

func TestOllamaRunner_RunChat(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model": "llama3", "message": {"role": "assistant", "content": "hola"}, "done": true, "prompt_eval_count": 20, "eval_count": 4}` + "\n"))
	}))
	defer srv.Close()

	registry := NewRegistry([]models.Integration{{UID: "int-1", Name: "ollama", Settings: map[string]any{"model": "llama3", "max_tokens": 64}}})
	runner, err := NewOllamaRunner(Config{BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second}, registry, zap.NewNop())
	require.NoError(t, err)

	resp, err := runner.RunChat(context.Background(), chatRequest())
	require.NoError(t, err)

	content, ok := resp.FirstContent()
	require.True(t, ok)
	assert.Equal(t, "hola", content)

	assert.Equal(t, "llama3", received["model"])
	assert.Equal(t, false, received["stream"])
	options, ok := received["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(64), options["num_predict"])
	assert.InDelta(t, 0.2, options["temperature"], 0.0001)
}

func TestOllamaRunner_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model 'llama3' not found"}`))
	}))
	defer srv.Close()

	registry := NewRegistry([]models.Integration{{UID: "int-1", Settings: map[string]any{"model": "llama3"}}})
	runner, err := NewOllamaRunner(Config{BaseURL: srv.URL, Timeout: time.Second}, registry, nil)
	require.NoError(t, err)

	_, err = runner.RunChat(context.Background(), chatRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunnerWithoutModel(t *testing.T) {
	registry := NewRegistry([]models.Integration{{UID: "int-1"}})
	runner, err := NewOllamaRunner(Config{BaseURL: "http://localhost:11434"}, registry, nil)
	require.NoError(t, err)

	_, err = runner.RunChat(context.Background(), chatRequest())
	require.ErrorIs(t, err, models.ErrProviderNotConfigured)
}
