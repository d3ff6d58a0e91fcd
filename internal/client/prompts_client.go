package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"prompt-studio/shared/models"
)

type promptsClient struct {
	urls       URLBuilder
	httpClient *http.Client
	logger     *zap.Logger
	authToken  string
	mu         sync.RWMutex
}

// NewPromptsClient создает новый клиент для REST API промптов.
func NewPromptsClient(urls URLBuilder, timeout time.Duration, logger *zap.Logger) (PromptsClient, error) {
	if err := urls.validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &promptsClient{
		urls: urls,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("PromptsClient"),
	}, nil
}

// SetAuthToken устанавливает bearer-токен для запросов к API.
func (c *promptsClient) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
	c.logger.Debug("Prompts API auth token updated")
}

// do выполняет запрос и декодирует тело ответа в out (если out != nil и тело не пустое).
func (c *promptsClient) do(ctx context.Context, op operation, method, reqURL string, body any, out any) error {
	log := c.logger.With(zap.String("operation", op.name), zap.String("method", method), zap.String("url", reqURL))

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			log.Error("Failed to marshal request body", zap.Error(err))
			return fmt.Errorf("internal error marshaling %s request: %w", op.name, err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		log.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("internal error creating %s request: %w", op.name, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	token := c.authToken
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debug("Sending request to prompts service")
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	apiRequestDuration.WithLabelValues(op.name).Observe(time.Since(start).Seconds())
	if err != nil {
		apiRequestsTotal.WithLabelValues(op.name, "transport_error").Inc()
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			log.Warn("Request to prompts service canceled or timed out", zap.Error(err))
		} else {
			log.Error("Failed to execute request to prompts service", zap.Error(err))
		}
		return fmt.Errorf("failed to communicate with prompts service (%s): %w", op.name, err)
	}
	defer resp.Body.Close()
	apiRequestsTotal.WithLabelValues(op.name, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response body", zap.Int("status", resp.StatusCode), zap.Error(err))
		return fmt.Errorf("failed to read %s response: %w", op.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(op, resp.StatusCode, respBody)
		log.Warn("Prompts service returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.Strings("messages", apiErr.Messages),
		)
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		log.Error("Failed to unmarshal response", zap.Error(err), zap.String("body", string(respBody)))
		return fmt.Errorf("invalid %s response format from prompts service: %w", op.name, err)
	}
	return nil
}

func (c *promptsClient) FetchPrompts(ctx context.Context, projectID int64) ([]models.Prompt, error) {
	var prompts []models.Prompt
	if err := c.do(ctx, opFetchPrompts, http.MethodGet, c.urls.Build(pluginPrompts, resourcePrompts, id(projectID)), nil, &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

func (c *promptsClient) FetchPrompt(ctx context.Context, projectID, promptID int64) (*models.Prompt, error) {
	var prompt models.Prompt
	if err := c.do(ctx, opFetchPrompt, http.MethodGet, c.urls.Build(pluginPrompts, resourcePrompt, id(projectID), id(promptID)), nil, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// CreatePrompt создает пустой freeform-промпт с заданным именем.
func (c *promptsClient) CreatePrompt(ctx context.Context, projectID int64, name string) (*models.Prompt, error) {
	body := createPromptRequest{Name: name, Type: models.PromptTypeFreeform, Prompt: ""}
	var prompt models.Prompt
	if err := c.do(ctx, opCreatePrompt, http.MethodPost, c.urls.Build(pluginPrompts, resourcePrompts, id(projectID)), body, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// UpdatePrompt сохраняет имя, текст и теги промпта. Тип всегда freeform.
func (c *promptsClient) UpdatePrompt(ctx context.Context, projectID int64, prompt *models.Prompt) (*models.Prompt, error) {
	if prompt == nil {
		return nil, fmt.Errorf("%w: prompt is nil", models.ErrBadRequest)
	}
	body := updatePromptRequest{
		ID:     prompt.ID,
		Name:   prompt.Name,
		Type:   models.PromptTypeFreeform,
		Prompt: prompt.Prompt,
		Tags:   prompt.TagNames(),
	}
	var updated models.Prompt
	if err := c.do(ctx, opUpdatePrompt, http.MethodPut, c.urls.Build(pluginPrompts, resourcePrompt, id(projectID)), body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *promptsClient) DeletePrompt(ctx context.Context, projectID, promptID int64) error {
	return c.do(ctx, opDeletePrompt, http.MethodDelete, c.urls.Build(pluginPrompts, resourcePrompt, id(projectID), id(promptID)), nil, nil)
}

func (c *promptsClient) CreateExample(ctx context.Context, projectID, promptID int64, input, output string) (*models.Example, error) {
	body := createExampleRequest{PromptID: promptID, Input: input, Output: output}
	var example models.Example
	if err := c.do(ctx, opCreateExample, http.MethodPost, c.urls.Build(pluginPrompts, resourceExample, id(projectID)), body, &example); err != nil {
		return nil, err
	}
	return &example, nil
}

func (c *promptsClient) UpdateExample(ctx context.Context, projectID int64, example models.Example) (*models.Example, error) {
	body := updateExampleRequest{
		PromptID: example.PromptID,
		ID:       example.ID,
		Input:    example.Input,
		Output:   example.Output,
		IsActive: example.IsActive,
	}
	var updated models.Example
	if err := c.do(ctx, opUpdateExample, http.MethodPut, c.urls.Build(pluginPrompts, resourceExample, id(projectID)), body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *promptsClient) DeleteExample(ctx context.Context, projectID, exampleID int64) error {
	return c.do(ctx, opDeleteExample, http.MethodDelete, c.urls.Build(pluginPrompts, resourceExample, id(projectID), id(exampleID)), nil, nil)
}

func (c *promptsClient) CreateVariable(ctx context.Context, projectID, promptID int64, name, value string) (*models.Variable, error) {
	body := createVariableRequest{PromptID: promptID, Name: name, Value: value}
	var variable models.Variable
	if err := c.do(ctx, opCreateVariable, http.MethodPost, c.urls.Build(pluginPrompts, resourceVariable, id(projectID)), body, &variable); err != nil {
		return nil, err
	}
	return &variable, nil
}

func (c *promptsClient) UpdateVariable(ctx context.Context, projectID int64, variable models.Variable) (*models.Variable, error) {
	body := updateVariableRequest{
		PromptID: variable.PromptID,
		ID:       variable.ID,
		Name:     variable.Name,
		Value:    variable.Value,
	}
	var updated models.Variable
	if err := c.do(ctx, opUpdateVariable, http.MethodPut, c.urls.Build(pluginPrompts, resourceVariable, id(projectID)), body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *promptsClient) DeleteVariable(ctx context.Context, projectID, variableID int64) error {
	return c.do(ctx, opDeleteVariable, http.MethodDelete, c.urls.Build(pluginPrompts, resourceVariable, id(projectID), id(variableID)), nil, nil)
}

func (c *promptsClient) FetchTags(ctx context.Context, projectID int64) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.do(ctx, opFetchTags, http.MethodGet, c.urls.Build(pluginPrompts, resourceTags, id(projectID)), nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *promptsClient) FetchPromptTags(ctx context.Context, projectID, promptID int64) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.do(ctx, opFetchPromptTags, http.MethodGet, c.urls.Build(pluginPrompts, resourceTags, id(projectID), id(promptID)), nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *promptsClient) UpdatePromptTags(ctx context.Context, projectID, promptID int64, tags []models.Tag) ([]models.Tag, error) {
	if tags == nil {
		tags = []models.Tag{}
	}
	var updated []models.Tag
	if err := c.do(ctx, opUpdatePromptTags, http.MethodPut, c.urls.Build(pluginPrompts, resourceTags, id(projectID), id(promptID)), tags, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// RunTest выполняет разовый прогон промпта (predict).
func (c *promptsClient) RunTest(ctx context.Context, projectID int64, req models.PredictRequest) (*models.PredictResponse, error) {
	var resp models.PredictResponse
	if err := c.do(ctx, opRunTest, http.MethodPost, c.urls.Build(pluginPrompts, resourcePredict, id(projectID)), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RunChat отправляет сообщение чата вместе с историей.
func (c *promptsClient) RunChat(ctx context.Context, projectID int64, req models.ChatRequest) (*models.ChatResponse, error) {
	var resp models.ChatResponse
	if err := c.do(ctx, opRunChat, http.MethodPost, c.urls.Build(pluginPrompts, resourceChat, id(projectID)), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
