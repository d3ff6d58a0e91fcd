package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prompt-studio/internal/client"
	"prompt-studio/internal/mocks"
	"prompt-studio/internal/service"
	"prompt-studio/shared/interfaces"
	"prompt-studio/shared/models"
)

func newService() (*service.PromptServiceImpl, *mocks.PromptsClient, *mocks.PromptEventPublisher) {
	api := &mocks.PromptsClient{}
	pub := &mocks.PromptEventPublisher{}
	return service.NewPromptService(api, pub), api, pub
}

func TestCreatePrompt_PublishesCreatedEvent(t *testing.T) {
	svc, api, pub := newService()
	ctx := context.Background()

	api.On("CreatePrompt", ctx, int64(5), "greeting").Return(&models.Prompt{ID: 3, Name: "greeting"}, nil).Once()
	pub.On("PublishPromptEvent", ctx, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeCreated,
		Entity:    interfaces.PromptEntityPrompt,
		ProjectID: 5,
		PromptID:  3,
	}).Return(nil).Once()

	prompt, err := svc.CreatePrompt(ctx, 5, "  greeting ")
	require.NoError(t, err)
	assert.Equal(t, int64(3), prompt.ID)
	api.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreatePrompt_EmptyName(t *testing.T) {
	svc, api, _ := newService()

	_, err := svc.CreatePrompt(context.Background(), 5, "   ")
	require.ErrorIs(t, err, models.ErrEmptyPromptName)
	api.AssertNotCalled(t, "CreatePrompt", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteExample_PublishFailureDoesNotFailOperation(t *testing.T) {
	svc, api, pub := newService()
	ctx := context.Background()

	api.On("DeleteExample", ctx, int64(5), int64(9)).Return(nil).Once()
	pub.On("PublishPromptEvent", ctx, mock.MatchedBy(func(e interfaces.PromptEvent) bool {
		return e.EventType == interfaces.PromptEventTypeDeleted && e.Entity == interfaces.PromptEntityExample && e.ID == 9 && e.PromptID == 3
	})).Return(errors.New("broker down")).Once()

	require.NoError(t, svc.DeleteExample(ctx, 5, 3, 9))
	pub.AssertExpectations(t)
}

func TestFailedCallDoesNotPublish(t *testing.T) {
	svc, api, pub := newService()
	ctx := context.Background()

	api.On("DeletePrompt", ctx, int64(5), int64(3)).Return(&client.APIError{Operation: "delete_prompt", Status: 404}).Once()

	err := svc.DeletePrompt(ctx, 5, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
	pub.AssertNotCalled(t, "PublishPromptEvent", mock.Anything, mock.Anything)
}

func TestUpdateVariable_ReturnsAPIErrorUnwrapped(t *testing.T) {
	svc, api, pub := newService()
	ctx := context.Background()
	apiErr := &client.APIError{Operation: "update_variable", Prefix: "Error occurred while variable update", Status: 400, Messages: []string{"bad"}}

	variable := models.Variable{ID: 1, PromptID: 3, Name: "n"}
	api.On("UpdateVariable", ctx, int64(5), variable).Return(nil, apiErr).Once()

	_, err := svc.UpdateVariable(ctx, 5, variable)
	require.Error(t, err)
	assert.Equal(t, "Error occurred while variable update\nbad", err.Error())
	pub.AssertNotCalled(t, "PublishPromptEvent", mock.Anything, mock.Anything)
}

func TestRunChat_UsesRequestProject(t *testing.T) {
	svc, api, _ := newService()
	ctx := context.Background()
	req := models.ChatRequest{PromptID: 3, ProjectID: 7, IntegrationID: "u", Input: "hi"}

	api.On("RunChat", ctx, int64(7), req).Return(&models.ChatResponse{Messages: []models.ChatMessage{{Content: "ok"}}}, nil).Once()

	resp, err := svc.RunChat(ctx, req)
	require.NoError(t, err)
	content, _ := resp.FirstContent()
	assert.Equal(t, "ok", content)
}

func TestUpdatePrompt_Validation(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	_, err := svc.UpdatePrompt(ctx, 5, nil)
	assert.ErrorIs(t, err, models.ErrNoPromptSelected)

	_, err = svc.UpdatePrompt(ctx, 5, &models.Prompt{ID: 3, Name: " "})
	assert.ErrorIs(t, err, models.ErrEmptyPromptName)
}

func TestNilPublisherFallsBackToNop(t *testing.T) {
	api := &mocks.PromptsClient{}
	svc := service.NewPromptService(api, nil)
	ctx := context.Background()

	api.On("CreateExample", ctx, int64(5), int64(3), "i", "o").Return(&models.Example{ID: 1}, nil).Once()
	_, err := svc.CreateExample(ctx, 5, 3, "i", "o")
	require.NoError(t, err)
}

func TestTagReads(t *testing.T) {
	svc, api, pub := newService()
	ctx := context.Background()

	api.On("FetchTags", ctx, int64(5)).Return([]models.Tag{{ID: 1, Tag: "prod"}}, nil).Once()
	api.On("FetchPromptTags", ctx, int64(5), int64(3)).Return(nil, &client.APIError{Operation: "fetch_prompt_tags", Status: 404}).Once()

	tags, err := svc.ListTags(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "prod", tags[0].Tag)

	_, err = svc.GetPromptTags(ctx, 5, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
	api.AssertExpectations(t)
	pub.AssertNotCalled(t, "PublishPromptEvent", mock.Anything, mock.Anything)
}
