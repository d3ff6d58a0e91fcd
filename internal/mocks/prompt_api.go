package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"prompt-studio/shared/models"
)

// Mock PromptAPI (реализует и ExampleAPI, и VariableAPI)
type PromptAPI struct {
	mock.Mock
}

func (m *PromptAPI) ListPrompts(ctx context.Context, projectID int64) ([]models.Prompt, error) {
	args := m.Called(ctx, projectID)
	prompts, _ := args.Get(0).([]models.Prompt)
	return prompts, args.Error(1)
}
func (m *PromptAPI) GetPrompt(ctx context.Context, projectID, promptID int64) (*models.Prompt, error) {
	args := m.Called(ctx, projectID, promptID)
	p, _ := args.Get(0).(*models.Prompt)
	return p, args.Error(1)
}
func (m *PromptAPI) CreatePrompt(ctx context.Context, projectID int64, name string) (*models.Prompt, error) {
	args := m.Called(ctx, projectID, name)
	p, _ := args.Get(0).(*models.Prompt)
	return p, args.Error(1)
}
func (m *PromptAPI) UpdatePrompt(ctx context.Context, projectID int64, prompt *models.Prompt) (*models.Prompt, error) {
	args := m.Called(ctx, projectID, prompt)
	p, _ := args.Get(0).(*models.Prompt)
	return p, args.Error(1)
}
func (m *PromptAPI) DeletePrompt(ctx context.Context, projectID, promptID int64) error {
	args := m.Called(ctx, projectID, promptID)
	return args.Error(0)
}
func (m *PromptAPI) ListTags(ctx context.Context, projectID int64) ([]models.Tag, error) {
	args := m.Called(ctx, projectID)
	t, _ := args.Get(0).([]models.Tag)
	return t, args.Error(1)
}
func (m *PromptAPI) GetPromptTags(ctx context.Context, projectID, promptID int64) ([]models.Tag, error) {
	args := m.Called(ctx, projectID, promptID)
	t, _ := args.Get(0).([]models.Tag)
	return t, args.Error(1)
}
func (m *PromptAPI) UpdatePromptTags(ctx context.Context, projectID, promptID int64, tags []models.Tag) ([]models.Tag, error) {
	args := m.Called(ctx, projectID, promptID, tags)
	t, _ := args.Get(0).([]models.Tag)
	return t, args.Error(1)
}
func (m *PromptAPI) RunTest(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.PredictResponse)
	return resp, args.Error(1)
}
func (m *PromptAPI) CreateExample(ctx context.Context, projectID, promptID int64, input, output string) (*models.Example, error) {
	args := m.Called(ctx, projectID, promptID, input, output)
	e, _ := args.Get(0).(*models.Example)
	return e, args.Error(1)
}
func (m *PromptAPI) UpdateExample(ctx context.Context, projectID int64, example models.Example) (*models.Example, error) {
	args := m.Called(ctx, projectID, example)
	e, _ := args.Get(0).(*models.Example)
	return e, args.Error(1)
}
func (m *PromptAPI) DeleteExample(ctx context.Context, projectID, promptID, exampleID int64) error {
	args := m.Called(ctx, projectID, promptID, exampleID)
	return args.Error(0)
}
func (m *PromptAPI) CreateVariable(ctx context.Context, projectID, promptID int64, name, value string) (*models.Variable, error) {
	args := m.Called(ctx, projectID, promptID, name, value)
	v, _ := args.Get(0).(*models.Variable)
	return v, args.Error(1)
}
func (m *PromptAPI) UpdateVariable(ctx context.Context, projectID int64, variable models.Variable) (*models.Variable, error) {
	args := m.Called(ctx, projectID, variable)
	v, _ := args.Get(0).(*models.Variable)
	return v, args.Error(1)
}
func (m *PromptAPI) DeleteVariable(ctx context.Context, projectID, promptID, variableID int64) error {
	args := m.Called(ctx, projectID, promptID, variableID)
	return args.Error(0)
}
