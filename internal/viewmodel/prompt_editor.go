package viewmodel

import (
	"context"
	"fmt"
	"strings"

	"prompt-studio/shared/models"
)

// PromptEditor - список промптов проекта и редактирование выбранного промпта.
type PromptEditor struct {
	projectID int64
	state     *EditorState
	api       PromptAPI
	notifier  Notifier
}

func NewPromptEditor(projectID int64, state *EditorState, api PromptAPI, notifier Notifier) *PromptEditor {
	return &PromptEditor{projectID: projectID, state: state, api: api, notifier: notifier}
}

// Current возвращает выбранный промпт или nil.
func (e *PromptEditor) Current() *PromptDraft {
	return e.state.Current
}

// LoadPrompts перечитывает список промптов проекта.
func (e *PromptEditor) LoadPrompts(ctx context.Context) error {
	prompts, err := e.api.ListPrompts(ctx, e.projectID)
	if err != nil {
		e.notify(LevelError, err.Error())
		return err
	}
	e.state.Prompts = prompts
	return nil
}

// SelectPrompt загружает промпт с бэкенда и делает его текущим.
// Повторный выбор того же промпта сохраняет локальные несохраненные строки.
func (e *PromptEditor) SelectPrompt(ctx context.Context, promptID int64) error {
	if e.state.Current != nil && e.state.Current.ID == promptID {
		return nil
	}
	prompt, err := e.api.GetPrompt(ctx, e.projectID, promptID)
	if err != nil {
		e.notify(LevelError, err.Error())
		return err
	}
	e.state.Current = DraftFromPrompt(prompt)
	e.state.ConfirmDelete = false
	e.state.LoadingDelete = false
	e.state.TestOutput = ""
	return nil
}

// CreatePrompt создает промпт и выбирает его.
func (e *PromptEditor) CreatePrompt(ctx context.Context, name string) (*models.Prompt, error) {
	prompt, err := e.api.CreatePrompt(ctx, e.projectID, name)
	if err == nil && (prompt == nil || prompt.ID == 0) {
		err = models.ErrEmptyResponse
	}
	if err != nil {
		e.notify(LevelError, err.Error())
		return nil, err
	}
	e.notify(LevelSuccess, msgPromptCreated)
	e.state.Prompts = append(e.state.Prompts, *prompt)
	e.state.Current = DraftFromPrompt(prompt)
	e.state.TestOutput = ""
	return prompt, nil
}

// UpdatePrompt сохраняет имя, текст и теги выбранного промпта.
// Локальное состояние меняется до ответа бэкенда.
func (e *PromptEditor) UpdatePrompt(ctx context.Context, name, text string, tags []string) error {
	draft := e.state.Current
	if draft == nil {
		return models.ErrNoPromptSelected
	}
	draft.Name = strings.TrimSpace(name)
	draft.Prompt = text
	draft.Tags = normalizeTags(tags)

	if _, err := e.api.UpdatePrompt(ctx, e.projectID, draft.ToPrompt()); err != nil {
		e.notify(LevelError, err.Error())
		return err
	}
	for i := range e.state.Prompts {
		if e.state.Prompts[i].ID == draft.ID {
			e.state.Prompts[i].Name = draft.Name
		}
	}
	e.notify(LevelSuccess, msgPromptUpdated)
	return nil
}

// UpdateTags заменяет теги выбранного промпта отдельным запросом.
func (e *PromptEditor) UpdateTags(ctx context.Context, tags []string) error {
	draft := e.state.Current
	if draft == nil {
		return models.ErrNoPromptSelected
	}
	draft.Tags = normalizeTags(tags)

	payload := make([]models.Tag, 0, len(draft.Tags))
	for _, t := range draft.Tags {
		payload = append(payload, models.Tag{Tag: t})
	}
	updated, err := e.api.UpdatePromptTags(ctx, e.projectID, draft.ID, payload)
	if err != nil {
		e.notify(LevelError, err.Error())
		return err
	}
	if updated != nil {
		draft.Tags = tagNames(updated)
	} else if err := e.RefreshPromptTags(ctx); err != nil {
		// Теги уже сохранены, перечитать не удалось: оставляем локальные.
		return nil
	}
	e.state.ProjectTags = normalizeTags(append(e.state.ProjectTags, draft.Tags...))
	e.notify(LevelInfo, msgTagsUpdated)
	return nil
}

// LoadTags перечитывает все теги проекта.
func (e *PromptEditor) LoadTags(ctx context.Context) error {
	tags, err := e.api.ListTags(ctx, e.projectID)
	if err != nil {
		e.notify(LevelError, err.Error())
		return err
	}
	e.state.ProjectTags = normalizeTags(tagNames(tags))
	return nil
}

// RefreshPromptTags перечитывает теги выбранного промпта с бэкенда.
func (e *PromptEditor) RefreshPromptTags(ctx context.Context) error {
	draft := e.state.Current
	if draft == nil {
		return models.ErrNoPromptSelected
	}
	tags, err := e.api.GetPromptTags(ctx, e.projectID, draft.ID)
	if err != nil {
		e.notify(LevelError, err.Error())
		return err
	}
	draft.Tags = tagNames(tags)
	return nil
}

func tagNames(tags []models.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Tag)
	}
	return names
}

// DeleteModal возвращает окно подтверждения для текущего состояния удаления.
func (e *PromptEditor) DeleteModal(listener func(ConfirmEvent)) ConfirmModal {
	return NewDeletePromptModal(e.state.LoadingDelete, listener)
}

// AskDelete открывает окно подтверждения удаления.
func (e *PromptEditor) AskDelete() error {
	if e.state.Current == nil {
		return models.ErrNoPromptSelected
	}
	e.state.ConfirmDelete = true
	return nil
}

// CancelDelete закрывает окно подтверждения.
func (e *PromptEditor) CancelDelete() {
	e.state.ConfirmDelete = false
}

// HandleConfirm обрабатывает событие окна подтверждения.
func (e *PromptEditor) HandleConfirm(ctx context.Context, event ConfirmEvent) error {
	switch event {
	case EventCloseConfirm:
		e.CancelDelete()
		return nil
	case EventDeletePrompt:
		return e.DeletePrompt(ctx)
	}
	return fmt.Errorf("%w: unknown confirm event %q", models.ErrBadRequest, event)
}

// DeletePrompt удаляет выбранный промпт.
func (e *PromptEditor) DeletePrompt(ctx context.Context) error {
	draft := e.state.Current
	if draft == nil {
		return models.ErrNoPromptSelected
	}

	e.state.LoadingDelete = true
	err := e.api.DeletePrompt(ctx, e.projectID, draft.ID)
	e.state.LoadingDelete = false
	e.state.ConfirmDelete = false
	if err != nil {
		e.notify(LevelError, err.Error())
		return err
	}

	kept := e.state.Prompts[:0]
	for _, p := range e.state.Prompts {
		if p.ID != draft.ID {
			kept = append(kept, p)
		}
	}
	e.state.Prompts = kept
	e.state.Current = nil
	e.state.TestOutput = ""
	e.notify(LevelSuccess, msgPromptDeleted)
	return nil
}

// CreateVariable создает переменную. При ошибке уведомление содержит
// сообщения бэкенда, а ошибка возвращается вызывающему.
func (e *PromptEditor) CreateVariable(ctx context.Context, name, value string) (models.RowKey, error) {
	draft := e.state.Current
	if draft == nil {
		return models.RowKey{}, models.ErrNoPromptSelected
	}
	variable, err := e.api.CreateVariable(ctx, e.projectID, draft.ID, name, value)
	if err == nil && (variable == nil || variable.ID == 0) {
		err = models.ErrEmptyResponse
	}
	if err != nil {
		e.notify(LevelError, err.Error())
		return models.RowKey{}, err
	}
	key := models.SavedKey(variable.ID)
	draft.Variables = append(draft.Variables, VariableRow{Key: key, Name: variable.Name, Value: variable.Value})
	e.notify(LevelSuccess, msgVarCreated)
	return key, nil
}

// UpdateVariable меняет переменную локально и отправляет изменение на бэкенд.
func (e *PromptEditor) UpdateVariable(ctx context.Context, key models.RowKey, name, value string) error {
	draft := e.state.Current
	if draft == nil {
		return models.ErrNoPromptSelected
	}
	row := draft.findVariable(key)
	if row == nil || !key.IsSaved() {
		return fmt.Errorf("%w: variable %s", models.ErrRowNotFound, key)
	}
	row.Name = name
	row.Value = value

	_, err := e.api.UpdateVariable(ctx, e.projectID, models.Variable{ID: key.Saved, PromptID: draft.ID, Name: name, Value: value})
	if err != nil {
		e.notify(LevelError, err.Error())
		return err
	}
	e.notify(LevelInfo, msgVarUpdated)
	return nil
}

// DeleteVariable удаляет переменную локально; сохраненная удаляется и на бэкенде.
func (e *PromptEditor) DeleteVariable(ctx context.Context, key models.RowKey) error {
	draft := e.state.Current
	if draft == nil {
		return models.ErrNoPromptSelected
	}

	var apiErr error
	if key.IsSaved() {
		apiErr = e.api.DeleteVariable(ctx, e.projectID, draft.ID, key.Saved)
		if apiErr != nil {
			e.notify(LevelError, apiErr.Error())
		} else {
			e.notify(LevelSuccess, msgVarDeleted)
		}
	}

	kept := draft.Variables[:0]
	for _, row := range draft.Variables {
		if row.Key != key {
			kept = append(kept, row)
		}
	}
	draft.Variables = kept
	return apiErr
}

// SelectIntegration запоминает интеграцию для чата и прогонов.
func (e *PromptEditor) SelectIntegration(uid string, showEmbedding bool) {
	e.state.SelectedIntegration = uid
	e.state.ShowEmbedding = showEmbedding
}

// RunTest выполняет разовый прогон промпта на выбранной интеграции.
func (e *PromptEditor) RunTest(ctx context.Context, input string) error {
	draft := e.state.Current
	if draft == nil {
		return models.ErrNoPromptSelected
	}
	e.state.TestInput = input

	resp, err := e.api.RunTest(ctx, models.PredictRequest{
		PromptID:            draft.ID,
		ProjectID:           e.projectID,
		IntegrationID:       e.state.SelectedIntegration,
		IntegrationSettings: draft.IntegrationSettings,
		Input:               input,
	})
	if err != nil {
		e.notify(LevelError, err.Error())
		return err
	}
	if resp == nil || len(resp.Messages) == 0 {
		e.state.TestOutput = ""
		return nil
	}
	e.state.TestOutput = resp.Messages[0].Content
	return nil
}

func (e *PromptEditor) notify(level Level, message string) {
	if e.notifier != nil {
		e.notifier.Notify(level, message)
	}
}

// normalizeTags обрезает пробелы, убирает пустые и повторяющиеся теги.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
