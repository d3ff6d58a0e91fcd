package viewmodel

import (
	"context"

	"prompt-studio/shared/models"
)

// ExampleAPI - операции с примерами промпта.
type ExampleAPI interface {
	CreateExample(ctx context.Context, projectID, promptID int64, input, output string) (*models.Example, error)
	UpdateExample(ctx context.Context, projectID int64, example models.Example) (*models.Example, error)
	DeleteExample(ctx context.Context, projectID, promptID, exampleID int64) error
}

// VariableAPI - операции с переменными промпта.
type VariableAPI interface {
	CreateVariable(ctx context.Context, projectID, promptID int64, name, value string) (*models.Variable, error)
	UpdateVariable(ctx context.Context, projectID int64, variable models.Variable) (*models.Variable, error)
	DeleteVariable(ctx context.Context, projectID, promptID, variableID int64) error
}

// PromptAPI - все операции, которые нужны редактору промптов.
type PromptAPI interface {
	ExampleAPI
	VariableAPI

	ListPrompts(ctx context.Context, projectID int64) ([]models.Prompt, error)
	GetPrompt(ctx context.Context, projectID, promptID int64) (*models.Prompt, error)
	CreatePrompt(ctx context.Context, projectID int64, name string) (*models.Prompt, error)
	UpdatePrompt(ctx context.Context, projectID int64, prompt *models.Prompt) (*models.Prompt, error)
	DeletePrompt(ctx context.Context, projectID, promptID int64) error
	ListTags(ctx context.Context, projectID int64) ([]models.Tag, error)
	GetPromptTags(ctx context.Context, projectID, promptID int64) ([]models.Tag, error)
	UpdatePromptTags(ctx context.Context, projectID, promptID int64, tags []models.Tag) ([]models.Tag, error)
	RunTest(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error)
}

// ChatRunner выполняет один ход чата: бэкенд или прямой AI-провайдер.
type ChatRunner interface {
	RunChat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}
