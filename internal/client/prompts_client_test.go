package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prompt-studio/shared/models"
)

type capturedRequest struct {
	Method string
	Path   string
	Body   map[string]any
	Raw    string
	Auth   string
}

// newTestClient поднимает httptest-сервер, который отвечает status/response и сохраняет последний запрос.
func newTestClient(t *testing.T, status int, response string) (PromptsClient, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.Auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		captured.Raw = string(raw)
		captured.Body = nil
		if len(raw) > 0 && raw[0] == '{' {
			_ = json.Unmarshal(raw, &captured.Body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	c, err := NewPromptsClient(URLBuilder{BaseURL: srv.URL, APIVersion: 1}, 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	return c, captured
}

func TestURLBuilder_Build(t *testing.T) {
	b := URLBuilder{BaseURL: "http://api.local/", APIVersion: 2, Mode: "prompt_lib"}
	assert.Equal(t, "http://api.local/api/v2/prompts/example/prompt_lib/7/42", b.Build("prompts", "example", "7", "42"))

	noMode := URLBuilder{BaseURL: "http://api.local"}
	assert.Equal(t, "http://api.local/api/v1/prompts/tags/3", noMode.Build("prompts", "tags", "3"))
}

func TestNewPromptsClient_InvalidBaseURL(t *testing.T) {
	_, err := NewPromptsClient(URLBuilder{BaseURL: "not a url"}, time.Second, nil)
	require.Error(t, err)
}

func TestCreatePrompt_SendsFreeformBody(t *testing.T) {
	c, req := newTestClient(t, http.StatusOK, `{"id": 11, "name": "greeting", "type": "freeform"}`)

	prompt, err := c.CreatePrompt(context.Background(), 5, "greeting")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/api/v1/prompts/prompts/5", req.Path)
	assert.Equal(t, map[string]any{"name": "greeting", "type": "freeform", "prompt": ""}, req.Body)
	assert.Equal(t, int64(11), prompt.ID)
}

func TestUpdatePrompt_SendsTagNames(t *testing.T) {
	c, req := newTestClient(t, http.StatusOK, `{"id": 3, "name": "n", "tags": [{"id": 1, "tag": "sales", "color": "red"}]}`)

	updated, err := c.UpdatePrompt(context.Background(), 5, &models.Prompt{
		ID:     3,
		Name:   "n",
		Type:   "something-else",
		Prompt: "Hello {{name}}",
		Tags:   []models.Tag{{ID: 1, Tag: "sales"}, {Tag: "beta"}},
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/v1/prompts/prompt/5", req.Path)
	assert.Equal(t, "freeform", req.Body["type"])
	assert.Equal(t, []any{"sales", "beta"}, req.Body["tags"])
	assert.Equal(t, "Hello {{name}}", req.Body["prompt"])
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "sales", updated.Tags[0].Tag)
}

func TestDeleteCalls_UseResourceIDInPath(t *testing.T) {
	c, req := newTestClient(t, http.StatusNoContent, "")
	ctx := context.Background()

	require.NoError(t, c.DeletePrompt(ctx, 5, 9))
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/api/v1/prompts/prompt/5/9", req.Path)

	require.NoError(t, c.DeleteExample(ctx, 5, 12))
	assert.Equal(t, "/api/v1/prompts/example/5/12", req.Path)

	require.NoError(t, c.DeleteVariable(ctx, 5, 13))
	assert.Equal(t, "/api/v1/prompts/variable/5/13", req.Path)
}

func TestUpdateExample_SendsIsActive(t *testing.T) {
	c, req := newTestClient(t, http.StatusOK, `{"id": 4, "prompt_id": 3, "input": "a", "output": "b", "is_active": false}`)

	ex, err := c.UpdateExample(context.Background(), 5, models.Example{ID: 4, PromptID: 3, Input: "a", Output: "b", IsActive: false})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"prompt_id": float64(3),
		"id":        float64(4),
		"input":     "a",
		"output":    "b",
		"is_active": false,
	}, req.Body)
	assert.False(t, ex.IsActive)
}

func TestUpdateVariable_ConcatenatesBackendMessages(t *testing.T) {
	c, _ := newTestClient(t, http.StatusUnprocessableEntity, `[{"msg": "name is required"}, {"loc": ["value"]}, {"msg": "value too long"}]`)

	_, err := c.UpdateVariable(context.Background(), 5, models.Variable{ID: 1, PromptID: 3})
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "name is required\n\nvalue too long", apiErr.Detail())
	assert.Equal(t, "Error occurred while variable update\nname is required\n\nvalue too long", err.Error())
	assert.True(t, errors.Is(err, models.ErrBadRequest))
}

func TestCreateVariable_ErrorPrefix(t *testing.T) {
	c, req := newTestClient(t, http.StatusBadRequest, `[{"msg": "duplicate name"}]`)

	_, err := c.CreateVariable(context.Background(), 5, 3, "name", "v")
	require.Error(t, err)
	assert.Equal(t, "Error occurred\nduplicate name", err.Error())
	assert.Equal(t, map[string]any{"prompt_id": float64(3), "name": "name", "value": "v"}, req.Body)
}

func TestRunTest_NonOKReturnsResponseText(t *testing.T) {
	c, _ := newTestClient(t, http.StatusInternalServerError, "integration is not available")

	_, err := c.RunTest(context.Background(), 5, models.PredictRequest{PromptID: 3})
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"integration is not available"}, apiErr.Messages)
	assert.True(t, errors.Is(err, models.ErrInternal))
}

func TestFetchPrompt_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.StatusNotFound, `{"error": "prompt not found"}`)

	_, err := c.FetchPrompt(context.Background(), 5, 404)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	assert.Contains(t, err.Error(), "prompt not found")
}

func TestRunChat_SendsHistoryAndOmitsEmptyEmbeddings(t *testing.T) {
	c, req := newTestClient(t, http.StatusOK, `{"messages": [{"role": "ai", "content": "hi there"}]}`)

	resp, err := c.RunChat(context.Background(), 5, models.ChatRequest{
		PromptID:      3,
		ProjectID:     5,
		IntegrationID: "uid-1",
		Input:         "hello",
		ChatHistory:   []models.ChatMessage{{Role: models.ChatRoleUser, Content: "earlier"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/prompts/chat/5", req.Path)
	assert.NotContains(t, req.Body, "embedding_settings")
	assert.Equal(t, "uid-1", req.Body["integration_id"])
	assert.Len(t, req.Body["chat_history"], 1)

	content, ok := resp.FirstContent()
	require.True(t, ok)
	assert.Equal(t, "hi there", content)
}

func TestUpdatePromptTags_SendsArray(t *testing.T) {
	c, req := newTestClient(t, http.StatusOK, `["a", {"id": 2, "tag": "b"}]`)

	tags, err := c.UpdatePromptTags(context.Background(), 5, 3, []models.Tag{{Tag: "a"}, {ID: 2, Tag: "b"}})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/prompts/tags/5/3", req.Path)
	assert.JSONEq(t, `[{"tag": "a"}, {"id": 2, "tag": "b"}]`, req.Raw)
	require.Len(t, tags, 2)
	assert.Equal(t, "b", tags[1].Tag)
}

func TestFetchTags_Paths(t *testing.T) {
	c, req := newTestClient(t, http.StatusOK, `[{"id": 1, "tag": "prod"}]`)

	tags, err := c.FetchTags(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/v1/prompts/tags/5", req.Path)
	require.Len(t, tags, 1)
	assert.Equal(t, "prod", tags[0].Tag)

	_, err = c.FetchPromptTags(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/api/v1/prompts/tags/5/3", req.Path)
}

func TestSetAuthToken(t *testing.T) {
	c, req := newTestClient(t, http.StatusOK, `[]`)
	c.SetAuthToken("secret")

	_, err := c.FetchTags(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", req.Auth)
}

func TestInvalidJSONResponse(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{not json`)

	_, err := c.FetchPrompts(context.Background(), 1)
	require.Error(t, err)
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
}

func TestParseErrorMessages(t *testing.T) {
	assert.Nil(t, parseErrorMessages([]byte("  ")))
	assert.Equal(t, []string{"boom"}, parseErrorMessages([]byte(`{"message": "boom"}`)))
	assert.Equal(t, []string{"plain text"}, parseErrorMessages([]byte("plain text\n")))
	assert.Equal(t, []string{"x", ""}, parseErrorMessages([]byte(`[{"msg": "x"}, {}]`)))
}
