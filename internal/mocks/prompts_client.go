package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"prompt-studio/shared/models"
)

// Mock client.PromptsClient
type PromptsClient struct {
	mock.Mock
}

func (m *PromptsClient) FetchPrompts(ctx context.Context, projectID int64) ([]models.Prompt, error) {
	args := m.Called(ctx, projectID)
	p, _ := args.Get(0).([]models.Prompt)
	return p, args.Error(1)
}
func (m *PromptsClient) FetchPrompt(ctx context.Context, projectID, promptID int64) (*models.Prompt, error) {
	args := m.Called(ctx, projectID, promptID)
	p, _ := args.Get(0).(*models.Prompt)
	return p, args.Error(1)
}
func (m *PromptsClient) CreatePrompt(ctx context.Context, projectID int64, name string) (*models.Prompt, error) {
	args := m.Called(ctx, projectID, name)
	p, _ := args.Get(0).(*models.Prompt)
	return p, args.Error(1)
}
func (m *PromptsClient) UpdatePrompt(ctx context.Context, projectID int64, prompt *models.Prompt) (*models.Prompt, error) {
	args := m.Called(ctx, projectID, prompt)
	p, _ := args.Get(0).(*models.Prompt)
	return p, args.Error(1)
}
func (m *PromptsClient) DeletePrompt(ctx context.Context, projectID, promptID int64) error {
	return m.Called(ctx, projectID, promptID).Error(0)
}
func (m *PromptsClient) CreateExample(ctx context.Context, projectID, promptID int64, input, output string) (*models.Example, error) {
	args := m.Called(ctx, projectID, promptID, input, output)
	e, _ := args.Get(0).(*models.Example)
	return e, args.Error(1)
}
func (m *PromptsClient) UpdateExample(ctx context.Context, projectID int64, example models.Example) (*models.Example, error) {
	args := m.Called(ctx, projectID, example)
	e, _ := args.Get(0).(*models.Example)
	return e, args.Error(1)
}
func (m *PromptsClient) DeleteExample(ctx context.Context, projectID, exampleID int64) error {
	return m.Called(ctx, projectID, exampleID).Error(0)
}
func (m *PromptsClient) CreateVariable(ctx context.Context, projectID, promptID int64, name, value string) (*models.Variable, error) {
	args := m.Called(ctx, projectID, promptID, name, value)
	v, _ := args.Get(0).(*models.Variable)
	return v, args.Error(1)
}
func (m *PromptsClient) UpdateVariable(ctx context.Context, projectID int64, variable models.Variable) (*models.Variable, error) {
	args := m.Called(ctx, projectID, variable)
	v, _ := args.Get(0).(*models.Variable)
	return v, args.Error(1)
}
func (m *PromptsClient) DeleteVariable(ctx context.Context, projectID, variableID int64) error {
	return m.Called(ctx, projectID, variableID).Error(0)
}
func (m *PromptsClient) FetchTags(ctx context.Context, projectID int64) ([]models.Tag, error) {
	args := m.Called(ctx, projectID)
	t, _ := args.Get(0).([]models.Tag)
	return t, args.Error(1)
}
func (m *PromptsClient) FetchPromptTags(ctx context.Context, projectID, promptID int64) ([]models.Tag, error) {
	args := m.Called(ctx, projectID, promptID)
	t, _ := args.Get(0).([]models.Tag)
	return t, args.Error(1)
}
func (m *PromptsClient) UpdatePromptTags(ctx context.Context, projectID, promptID int64, tags []models.Tag) ([]models.Tag, error) {
	args := m.Called(ctx, projectID, promptID, tags)
	t, _ := args.Get(0).([]models.Tag)
	return t, args.Error(1)
}
func (m *PromptsClient) RunTest(ctx context.Context, projectID int64, req models.PredictRequest) (*models.PredictResponse, error) {
	args := m.Called(ctx, projectID, req)
	r, _ := args.Get(0).(*models.PredictResponse)
	return r, args.Error(1)
}
func (m *PromptsClient) RunChat(ctx context.Context, projectID int64, req models.ChatRequest) (*models.ChatResponse, error) {
	args := m.Called(ctx, projectID, req)
	r, _ := args.Get(0).(*models.ChatResponse)
	return r, args.Error(1)
}
func (m *PromptsClient) SetAuthToken(token string) {
	m.Called(token)
}
