package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"prompt-studio/shared/models"
)

// Имена ресурсов бэкенда промптов.
const (
	pluginPrompts = "prompts"

	resourcePrompts  = "prompts"
	resourcePrompt   = "prompt"
	resourceExample  = "example"
	resourceVariable = "variable"
	resourceTags     = "tags"
	resourcePredict  = "predict"
	resourceChat     = "chat"
)

// URLBuilder строит адреса REST API: {base}/api/v{version}/{plugin}/{resource}/{mode}/{segments...}.
// Пустой Mode опускается.
type URLBuilder struct {
	BaseURL    string
	APIVersion int
	Mode       string
}

// Build собирает URL ресурса. Сегменты (id проекта, id сущности) экранируются.
func (b URLBuilder) Build(plugin, resource string, segments ...string) string {
	version := b.APIVersion
	if version <= 0 {
		version = 1
	}
	parts := []string{strings.TrimSuffix(b.BaseURL, "/"), "api", "v" + strconv.Itoa(version), plugin, resource}
	if b.Mode != "" {
		parts = append(parts, b.Mode)
	}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/")
}

func (b URLBuilder) validate() error {
	if _, err := url.ParseRequestURI(b.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL for prompts service: %w", err)
	}
	return nil
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

// PromptsClient определяет интерфейс для взаимодействия с REST API промптов.
// Каждый метод выполняет ровно один HTTP-запрос. ID проекта передается явно.
// Любой ответ со статусом вне 2xx возвращается как *APIError.
type PromptsClient interface {
	FetchPrompts(ctx context.Context, projectID int64) ([]models.Prompt, error)
	FetchPrompt(ctx context.Context, projectID, promptID int64) (*models.Prompt, error)
	CreatePrompt(ctx context.Context, projectID int64, name string) (*models.Prompt, error)
	UpdatePrompt(ctx context.Context, projectID int64, prompt *models.Prompt) (*models.Prompt, error)
	DeletePrompt(ctx context.Context, projectID, promptID int64) error

	CreateExample(ctx context.Context, projectID, promptID int64, input, output string) (*models.Example, error)
	UpdateExample(ctx context.Context, projectID int64, example models.Example) (*models.Example, error)
	DeleteExample(ctx context.Context, projectID, exampleID int64) error

	CreateVariable(ctx context.Context, projectID, promptID int64, name, value string) (*models.Variable, error)
	UpdateVariable(ctx context.Context, projectID int64, variable models.Variable) (*models.Variable, error)
	DeleteVariable(ctx context.Context, projectID, variableID int64) error

	FetchTags(ctx context.Context, projectID int64) ([]models.Tag, error)
	FetchPromptTags(ctx context.Context, projectID, promptID int64) ([]models.Tag, error)
	UpdatePromptTags(ctx context.Context, projectID, promptID int64, tags []models.Tag) ([]models.Tag, error)

	RunTest(ctx context.Context, projectID int64, req models.PredictRequest) (*models.PredictResponse, error)
	RunChat(ctx context.Context, projectID int64, req models.ChatRequest) (*models.ChatResponse, error)

	// SetAuthToken устанавливает bearer-токен для последующих запросов.
	SetAuthToken(token string)
}

// Тела запросов повторяют формат, который ожидает бэкенд.
type createPromptRequest struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Prompt string `json:"prompt"`
}

type updatePromptRequest struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Prompt string   `json:"prompt"`
	Tags   []string `json:"tags"`
}

type createExampleRequest struct {
	PromptID int64  `json:"prompt_id"`
	Input    string `json:"input"`
	Output   string `json:"output"`
}

type updateExampleRequest struct {
	PromptID int64  `json:"prompt_id"`
	ID       int64  `json:"id"`
	Input    string `json:"input"`
	Output   string `json:"output"`
	IsActive bool   `json:"is_active"`
}

type createVariableRequest struct {
	PromptID int64  `json:"prompt_id"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

type updateVariableRequest struct {
	PromptID int64  `json:"prompt_id"`
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}
