package main

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"prompt-studio/internal/mocks"
	"prompt-studio/internal/provider"
	"prompt-studio/shared/models"
)

const testProject int64 = 7

type replEnv struct {
	repl     *repl
	api      *mocks.PromptAPI
	runner   *mocks.ChatRunner
	notifier *mocks.RecordingNotifier
	out      *bytes.Buffer
}

func newTestREPL(t *testing.T, input string) *replEnv {
	t.Helper()
	env := &replEnv{
		api:      &mocks.PromptAPI{},
		runner:   &mocks.ChatRunner{},
		notifier: &mocks.RecordingNotifier{},
		out:      &bytes.Buffer{},
	}
	registry := provider.NewRegistry([]models.Integration{{UID: "int-1", Name: "OpenAI", ProjectID: testProject}})
	env.repl = newREPL(testProject, env.api, env.runner, registry, env.notifier, strings.NewReader(input), env.out)
	return env
}

func (e *replEnv) open(t *testing.T, p *models.Prompt) {
	t.Helper()
	e.api.On("GetPrompt", mock.Anything, testProject, p.ID).Return(p, nil).Once()
	require.NoError(t, e.repl.Execute(context.Background(), "open "+strconv.FormatInt(p.ID, 10)))
}

func TestREPL_ListAndOpen(t *testing.T) {
	env := newTestREPL(t, "")
	ctx := context.Background()

	env.api.On("ListPrompts", mock.Anything, testProject).Return([]models.Prompt{
		{ID: 1, Name: "greeting", Tags: []models.Tag{{Tag: "a"}, {Tag: "b"}}},
	}, nil).Once()
	require.NoError(t, env.repl.Execute(ctx, "list"))
	assert.Contains(t, env.out.String(), "greeting  [a, b]")

	env.open(t, &models.Prompt{ID: 1, Name: "greeting", Prompt: "Say hi", Variables: []models.Variable{{ID: 4, Name: "who", Value: "all"}}})
	assert.Contains(t, env.out.String(), "Say hi")
	assert.Contains(t, env.out.String(), "var s:4 who=all")
	assert.Equal(t, "[7] greeting", env.repl.prompt())
}

func TestREPL_UnknownAndInvalidCommands(t *testing.T) {
	env := newTestREPL(t, "")
	ctx := context.Background()

	assert.Error(t, env.repl.Execute(ctx, "frobnicate"))
	assert.ErrorIs(t, env.repl.Execute(ctx, "open x"), models.ErrBadRequest)
	assert.ErrorIs(t, env.repl.Execute(ctx, "name new"), models.ErrNoPromptSelected)
	assert.NoError(t, env.repl.Execute(ctx, "   "))
	assert.ErrorIs(t, env.repl.Execute(ctx, "quit"), errQuit)
}

func TestREPL_UpdateNameKeepsText(t *testing.T) {
	env := newTestREPL(t, "")
	env.open(t, &models.Prompt{ID: 2, Name: "old", Prompt: "body", Tags: []models.Tag{{Tag: "x"}}})

	env.api.On("UpdatePrompt", mock.Anything, testProject, mock.MatchedBy(func(p *models.Prompt) bool {
		return p.Name == "renamed" && p.Prompt == "body" && len(p.Tags) == 1 && p.Tags[0].Tag == "x"
	})).Return(&models.Prompt{ID: 2}, nil).Once()

	require.NoError(t, env.repl.Execute(context.Background(), "name renamed"))
	env.api.AssertExpectations(t)
	last, ok := env.notifier.Last()
	require.True(t, ok)
	assert.Equal(t, "Prompt was updated.", last.Message)
}

func TestREPL_PendingExampleCreatedWhenBothFieldsSet(t *testing.T) {
	env := newTestREPL(t, "")
	ctx := context.Background()
	env.open(t, &models.Prompt{ID: 3, Name: "p"})

	env.out.Reset()
	require.NoError(t, env.repl.Execute(ctx, "example add"))
	key := strings.TrimSpace(env.out.String())
	require.True(t, strings.HasPrefix(key, "p:"))

	require.NoError(t, env.repl.Execute(ctx, "example set "+key+" is_active false"))
	require.NoError(t, env.repl.Execute(ctx, "example set "+key+" input hello"))
	env.api.AssertNotCalled(t, "CreateExample", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	env.api.On("CreateExample", mock.Anything, testProject, int64(3), "hello", "world").Return(&models.Example{ID: 55}, nil).Once()
	require.NoError(t, env.repl.Execute(ctx, "example set "+key+" output world"))

	draft := env.repl.ws.Editor.Current
	require.Len(t, draft.Examples, 1)
	assert.Equal(t, models.SavedKey(55), draft.Examples[0].Key)
	assert.True(t, draft.Examples[0].IsActive)
}

func TestREPL_VariableCommands(t *testing.T) {
	env := newTestREPL(t, "")
	ctx := context.Background()
	env.open(t, &models.Prompt{ID: 4, Name: "p"})

	env.api.On("CreateVariable", mock.Anything, testProject, int64(4), "lang", "go").Return(&models.Variable{ID: 9, Name: "lang", Value: "go"}, nil).Once()
	require.NoError(t, env.repl.Execute(ctx, "var add lang go"))

	env.api.On("UpdateVariable", mock.Anything, testProject, models.Variable{ID: 9, PromptID: 4, Name: "lang", Value: "rust"}).Return(&models.Variable{ID: 9}, nil).Once()
	require.NoError(t, env.repl.Execute(ctx, "var set s:9 lang rust"))

	env.api.On("DeleteVariable", mock.Anything, testProject, int64(4), int64(9)).Return(nil).Once()
	require.NoError(t, env.repl.Execute(ctx, "var rm s:9"))

	assert.Empty(t, env.repl.ws.Editor.Current.Variables)
	env.api.AssertExpectations(t)
}

func TestREPL_ChatRequiresIntegration(t *testing.T) {
	env := newTestREPL(t, "")
	ctx := context.Background()
	env.open(t, &models.Prompt{ID: 5, Name: "p"})

	assert.Error(t, env.repl.Execute(ctx, "chat hi"))
	env.runner.AssertNotCalled(t, "RunChat", mock.Anything, mock.Anything)

	require.NoError(t, env.repl.Execute(ctx, "use int-1"))
	env.runner.On("RunChat", mock.Anything, mock.MatchedBy(func(req models.ChatRequest) bool {
		return req.Input == "hi" && req.IntegrationID == "int-1" && len(req.ChatHistory) == 0
	})).Return(&models.ChatResponse{Messages: []models.ChatMessage{{Role: models.ChatRoleAI, Content: "hello!"}}}, nil).Once()

	require.NoError(t, env.repl.Execute(ctx, "chat hi"))
	assert.Contains(t, env.out.String(), "ai: hello!")
	assert.Len(t, env.repl.ws.Chat.History, 2)
	assert.False(t, env.repl.ws.Chat.IsRunLoading)

	require.NoError(t, env.repl.Execute(ctx, "clear"))
	assert.Empty(t, env.repl.ws.Chat.History)
}

func TestREPL_ChatErrorNotified(t *testing.T) {
	env := newTestREPL(t, "")
	ctx := context.Background()
	env.open(t, &models.Prompt{ID: 5, Name: "p"})
	require.NoError(t, env.repl.Execute(ctx, "use int-1"))

	env.runner.On("RunChat", mock.Anything, mock.Anything).Return(nil, errors.New("provider down")).Once()
	assert.Error(t, env.repl.Execute(ctx, "chat hi"))

	last, ok := env.notifier.Last()
	require.True(t, ok)
	assert.Equal(t, "provider down", last.Message)
	assert.False(t, env.repl.ws.Chat.IsRunLoading)
}

func TestREPL_DeleteAsksConfirmation(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		env := newTestREPL(t, "n\n")
		env.open(t, &models.Prompt{ID: 6, Name: "p"})

		require.NoError(t, env.repl.Execute(context.Background(), "delete"))
		env.api.AssertNotCalled(t, "DeletePrompt", mock.Anything, mock.Anything, mock.Anything)
		assert.NotNil(t, env.repl.ws.Editor.Current)
		assert.False(t, env.repl.ws.Editor.ConfirmDelete)
	})

	t.Run("confirmed", func(t *testing.T) {
		env := newTestREPL(t, "yes\n")
		env.open(t, &models.Prompt{ID: 6, Name: "p"})

		env.api.On("DeletePrompt", mock.Anything, testProject, int64(6)).Return(nil).Once()
		require.NoError(t, env.repl.Execute(context.Background(), "delete"))
		assert.Nil(t, env.repl.ws.Editor.Current)
		assert.Contains(t, env.out.String(), "Delete prompt? Are you sure to delete prompt?")
	})
}

func TestREPL_ProjectSwitchResetsState(t *testing.T) {
	env := newTestREPL(t, "")
	ctx := context.Background()
	env.open(t, &models.Prompt{ID: 1, Name: "p"})

	require.NoError(t, env.repl.Execute(ctx, "project 9"))
	assert.Equal(t, int64(9), env.repl.ws.ProjectID)
	assert.Nil(t, env.repl.ws.Editor.Current)

	env.out.Reset()
	require.NoError(t, env.repl.Execute(ctx, "integrations"))
	assert.Empty(t, env.out.String())
}

func TestREPL_RunStopsOnQuit(t *testing.T) {
	env := newTestREPL(t, "help\nquit\nlist\n")
	require.NoError(t, env.repl.Run(context.Background()))
	assert.Contains(t, env.out.String(), "Commands:")
	env.api.AssertNotCalled(t, "ListPrompts", mock.Anything, mock.Anything)
}

func TestREPL_TagsListsProjectTagsAndReplacesPromptTags(t *testing.T) {
	env := newTestREPL(t, "")
	ctx := context.Background()

	env.api.On("ListTags", mock.Anything, testProject).Return([]models.Tag{{Tag: "demo"}, {Tag: "prod"}}, nil).Once()
	require.NoError(t, env.repl.Execute(ctx, "tags"))
	assert.Contains(t, env.out.String(), "demo, prod")

	env.open(t, &models.Prompt{ID: 3, Name: "p"})
	env.api.On("UpdatePromptTags", mock.Anything, testProject, int64(3), []models.Tag{{Tag: "a"}, {Tag: "b"}}).
		Return([]models.Tag{{ID: 1, Tag: "a"}, {ID: 2, Tag: "b"}}, nil).Once()
	require.NoError(t, env.repl.Execute(ctx, "tags a, b"))
	assert.Equal(t, []string{"a", "b"}, env.repl.ws.Editor.Current.Tags)
	env.api.AssertExpectations(t)
}
