package viewmodel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prompt-studio/internal/viewmodel"
	"prompt-studio/shared/models"
)

func TestAddExampleRow_InitializesMissingList(t *testing.T) {
	draft := &viewmodel.PromptDraft{ID: 1}
	panel, _, _, _ := newPanel(&viewmodel.ChatState{}, draft)

	key, err := panel.AddExampleRow()
	require.NoError(t, err)

	require.Len(t, draft.Examples, 1)
	row := draft.Examples[0]
	assert.Equal(t, key, row.Key)
	assert.False(t, key.IsSaved())
	assert.True(t, row.IsActive)
	assert.Empty(t, row.Input)
	assert.Empty(t, row.Output)

	_, err = panel.AddExampleRow()
	require.NoError(t, err)
	assert.Len(t, draft.Examples, 2)
}

func TestEditExampleField_PendingCheckboxIsNoop(t *testing.T) {
	draft := &viewmodel.PromptDraft{ID: 1}
	panel, _, api, notifier := newPanel(&viewmodel.ChatState{}, draft)
	key, _ := panel.AddExampleRow()

	err := panel.EditExampleField(context.Background(), key, viewmodel.FieldIsActive, "false", viewmodel.KindCheckbox)
	require.NoError(t, err)

	assert.True(t, draft.Examples[0].IsActive)
	assert.Empty(t, notifier.All())
	api.AssertNotCalled(t, "CreateExample", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	api.AssertNotCalled(t, "UpdateExample", mock.Anything, mock.Anything, mock.Anything)
}

func TestEditExampleField_PendingCreatesWhenBothFieldsSet(t *testing.T) {
	draft := &viewmodel.PromptDraft{ID: 1}
	panel, _, api, notifier := newPanel(&viewmodel.ChatState{}, draft)
	key, _ := panel.AddExampleRow()
	ctx := context.Background()

	// Только input: создания нет.
	require.NoError(t, panel.EditExampleField(ctx, key, viewmodel.FieldInput, "2+2", viewmodel.KindText))
	assert.Equal(t, "2+2", draft.Examples[0].Input)
	api.AssertNotCalled(t, "CreateExample", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	api.On("CreateExample", mock.Anything, projectID, int64(1), "2+2", "4").
		Return(&models.Example{ID: 77, PromptID: 1, Input: "2+2", Output: "4", IsActive: true}, nil).Once()

	require.NoError(t, panel.EditExampleField(ctx, key, viewmodel.FieldOutput, "4", viewmodel.KindText))

	row := draft.Examples[0]
	assert.Equal(t, models.SavedKey(77), row.Key)
	assert.False(t, row.Creating)
	last, _ := notifier.Last()
	assert.Equal(t, viewmodel.LevelSuccess, last.Level)
	assert.Equal(t, "Example was created.", last.Message)
	api.AssertExpectations(t)
}

func TestEditExampleField_PendingCreateFailureKeepsLocalValue(t *testing.T) {
	draft := &viewmodel.PromptDraft{ID: 1, Examples: []viewmodel.ExampleRow{{Key: models.NewPendingKey(), Input: "q", IsActive: true}}}
	panel, _, api, notifier := newPanel(&viewmodel.ChatState{}, draft)
	key := draft.Examples[0].Key

	api.On("CreateExample", mock.Anything, projectID, int64(1), "q", "a").Return(nil, errors.New("boom")).Once()

	err := panel.EditExampleField(context.Background(), key, viewmodel.FieldOutput, "a", viewmodel.KindText)
	require.Error(t, err)

	row := draft.Examples[0]
	assert.Equal(t, key, row.Key)
	assert.Equal(t, "a", row.Output)
	assert.False(t, row.Creating)
	last, _ := notifier.Last()
	assert.Equal(t, viewmodel.LevelError, last.Level)
}

func TestEditExampleField_PendingCreateWithEmptyResponseStaysPending(t *testing.T) {
	draft := &viewmodel.PromptDraft{ID: 1, Examples: []viewmodel.ExampleRow{{Key: models.NewPendingKey(), Input: "q", IsActive: true}}}
	panel, _, api, notifier := newPanel(&viewmodel.ChatState{}, draft)
	key := draft.Examples[0].Key

	api.On("CreateExample", mock.Anything, projectID, int64(1), "q", "a").Return(&models.Example{}, nil).Once()

	err := panel.EditExampleField(context.Background(), key, viewmodel.FieldOutput, "a", viewmodel.KindText)
	require.ErrorIs(t, err, models.ErrEmptyResponse)

	row := draft.Examples[0]
	assert.Equal(t, key, row.Key)
	assert.False(t, row.Key.IsSaved())
	assert.False(t, row.Creating)
	last, _ := notifier.Last()
	assert.Equal(t, viewmodel.LevelError, last.Level)
	assert.Equal(t, models.ErrEmptyResponse.Error(), last.Message)
}

func TestEditExampleField_SavedCheckboxSendsCheckedValue(t *testing.T) {
	draft := &viewmodel.PromptDraft{ID: 1, Examples: []viewmodel.ExampleRow{{Key: models.SavedKey(9), Input: "i", Output: "o", IsActive: true}}}
	panel, _, api, notifier := newPanel(&viewmodel.ChatState{}, draft)

	api.On("UpdateExample", mock.Anything, projectID, models.Example{ID: 9, PromptID: 1, Input: "i", Output: "o", IsActive: false}).
		Return(&models.Example{ID: 9}, nil).Once()

	err := panel.EditExampleField(context.Background(), models.SavedKey(9), viewmodel.FieldIsActive, "false", viewmodel.KindCheckbox)
	require.NoError(t, err)

	assert.False(t, draft.Examples[0].IsActive)
	last, _ := notifier.Last()
	assert.Equal(t, viewmodel.LevelInfo, last.Level)
	assert.Equal(t, "Example was updated.", last.Message)
	api.AssertExpectations(t)
}

func TestEditExampleField_SavedTextUpdates(t *testing.T) {
	draft := &viewmodel.PromptDraft{ID: 1, Examples: []viewmodel.ExampleRow{{Key: models.SavedKey(9), Input: "i", Output: "o", IsActive: false}}}
	panel, _, api, _ := newPanel(&viewmodel.ChatState{}, draft)

	api.On("UpdateExample", mock.Anything, projectID, models.Example{ID: 9, PromptID: 1, Input: "new", Output: "o", IsActive: false}).
		Return(&models.Example{ID: 9}, nil).Once()

	require.NoError(t, panel.EditExampleField(context.Background(), models.SavedKey(9), viewmodel.FieldInput, "new", viewmodel.KindText))
	assert.Equal(t, "new", draft.Examples[0].Input)
	api.AssertExpectations(t)
}

func TestEditExampleField_Errors(t *testing.T) {
	draft := &viewmodel.PromptDraft{ID: 1, Examples: []viewmodel.ExampleRow{{Key: models.SavedKey(9)}}}
	panel, _, _, _ := newPanel(&viewmodel.ChatState{}, draft)
	ctx := context.Background()

	err := panel.EditExampleField(ctx, models.SavedKey(10), viewmodel.FieldInput, "x", viewmodel.KindText)
	assert.ErrorIs(t, err, models.ErrRowNotFound)

	err = panel.EditExampleField(ctx, models.SavedKey(9), viewmodel.ExampleField("bogus"), "x", viewmodel.KindText)
	assert.ErrorIs(t, err, models.ErrInvalidField)

	noPrompt, _, _, _ := newPanel(&viewmodel.ChatState{}, nil)
	_, err = noPrompt.AddExampleRow()
	assert.ErrorIs(t, err, models.ErrNoPromptSelected)
}

func TestDeleteExample_SavedCallsAPIAndRemoves(t *testing.T) {
	pending := models.NewPendingKey()
	draft := &viewmodel.PromptDraft{ID: 1, Examples: []viewmodel.ExampleRow{{Key: models.SavedKey(9)}, {Key: pending}}}
	panel, _, api, notifier := newPanel(&viewmodel.ChatState{}, draft)

	api.On("DeleteExample", mock.Anything, projectID, int64(1), int64(9)).Return(nil).Once()

	require.NoError(t, panel.DeleteExample(context.Background(), models.SavedKey(9)))
	require.Len(t, draft.Examples, 1)
	assert.Equal(t, pending, draft.Examples[0].Key)
	last, _ := notifier.Last()
	assert.Equal(t, viewmodel.LevelSuccess, last.Level)
	assert.Equal(t, "Example delete.", last.Message)
	api.AssertExpectations(t)
}

func TestDeleteExample_PendingOnlyRemovesLocally(t *testing.T) {
	pending := models.NewPendingKey()
	draft := &viewmodel.PromptDraft{ID: 1, Examples: []viewmodel.ExampleRow{{Key: pending}}}
	panel, _, api, notifier := newPanel(&viewmodel.ChatState{}, draft)

	require.NoError(t, panel.DeleteExample(context.Background(), pending))
	assert.Empty(t, draft.Examples)
	assert.Empty(t, notifier.All())
	api.AssertNotCalled(t, "DeleteExample", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteExample_LegacyIDs(t *testing.T) {
	saved := models.RowKeyFromLegacyID(999999)
	temp := models.RowKeyFromLegacyID(1712345678901)
	draft := &viewmodel.PromptDraft{ID: 1, Examples: []viewmodel.ExampleRow{{Key: saved}, {Key: temp}}}
	panel, _, api, _ := newPanel(&viewmodel.ChatState{}, draft)

	api.On("DeleteExample", mock.Anything, projectID, int64(1), int64(999999)).Return(nil).Once()

	require.NoError(t, panel.DeleteExample(context.Background(), saved))
	require.NoError(t, panel.DeleteExample(context.Background(), temp))
	assert.Empty(t, draft.Examples)
	api.AssertNumberOfCalls(t, "DeleteExample", 1)
}

func TestDeleteExample_APIFailureStillRemovesLocally(t *testing.T) {
	draft := &viewmodel.PromptDraft{ID: 1, Examples: []viewmodel.ExampleRow{{Key: models.SavedKey(9)}}}
	panel, _, api, notifier := newPanel(&viewmodel.ChatState{}, draft)
	api.On("DeleteExample", mock.Anything, projectID, int64(1), int64(9)).Return(errors.New("gone")).Once()

	err := panel.DeleteExample(context.Background(), models.SavedKey(9))
	require.Error(t, err)
	assert.Empty(t, draft.Examples)
	last, _ := notifier.Last()
	assert.Equal(t, viewmodel.LevelError, last.Level)
}
