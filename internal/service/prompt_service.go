package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"prompt-studio/internal/client"
	"prompt-studio/internal/viewmodel"
	"prompt-studio/shared/interfaces"
	"prompt-studio/shared/models"
)

var (
	_ viewmodel.PromptAPI  = (*PromptServiceImpl)(nil)
	_ viewmodel.ChatRunner = (*PromptServiceImpl)(nil)
)

// PromptServiceImpl - слой поверх REST-клиента: валидирует ввод, логирует
// и публикует события об изменениях промптов.
type PromptServiceImpl struct {
	api       client.PromptsClient
	publisher interfaces.PromptEventPublisher
}

func NewPromptService(api client.PromptsClient, publisher interfaces.PromptEventPublisher) *PromptServiceImpl {
	if api == nil {
		log.Fatal().Msg("PromptsClient is nil for PromptService")
	}
	if publisher == nil {
		log.Warn().Msg("PromptEventPublisher is nil for PromptService, events are disabled")
		publisher = interfaces.NopPromptEventPublisher{}
	}
	return &PromptServiceImpl{api: api, publisher: publisher}
}

// publish отправляет событие. Ошибка публикации не прерывает основную операцию.
func (s *PromptServiceImpl) publish(ctx context.Context, ctxLog zerolog.Logger, event interfaces.PromptEvent) {
	if pubErr := s.publisher.PublishPromptEvent(ctx, event); pubErr != nil {
		ctxLog.Error().Err(pubErr).Interface("event", event).
			Msgf("Failed to publish %s %s event", event.Entity, strings.ToLower(string(event.EventType)))
	}
}

func promptLogger(projectID, promptID int64) zerolog.Logger {
	return log.With().Int64("project_id", projectID).Int64("prompt_id", promptID).Logger()
}

// ListPrompts возвращает все промпты проекта.
func (s *PromptServiceImpl) ListPrompts(ctx context.Context, projectID int64) ([]models.Prompt, error) {
	prompts, err := s.api.FetchPrompts(ctx, projectID)
	if err != nil {
		log.Error().Err(err).Int64("project_id", projectID).Msg("Failed to list prompts")
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	return prompts, nil
}

// GetPrompt возвращает промпт вместе с примерами и переменными.
func (s *PromptServiceImpl) GetPrompt(ctx context.Context, projectID, promptID int64) (*models.Prompt, error) {
	prompt, err := s.api.FetchPrompt(ctx, projectID, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt %d: %w", promptID, err)
	}
	return prompt, nil
}

// CreatePrompt создает пустой промпт. Имя обрезается и не может быть пустым.
func (s *PromptServiceImpl) CreatePrompt(ctx context.Context, projectID int64, name string) (*models.Prompt, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrEmptyPromptName
	}

	prompt, err := s.api.CreatePrompt(ctx, projectID, name)
	if err != nil {
		log.Error().Err(err).Int64("project_id", projectID).Str("name", name).Msg("Failed to create prompt")
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}

	ctxLog := promptLogger(projectID, prompt.ID)
	s.publish(ctx, ctxLog, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeCreated,
		Entity:    interfaces.PromptEntityPrompt,
		ProjectID: projectID,
		PromptID:  prompt.ID,
	})
	ctxLog.Info().Str("name", name).Msg("Prompt created")
	return prompt, nil
}

// UpdatePrompt сохраняет имя, текст и теги промпта.
func (s *PromptServiceImpl) UpdatePrompt(ctx context.Context, projectID int64, prompt *models.Prompt) (*models.Prompt, error) {
	if prompt == nil || prompt.ID == 0 {
		return nil, models.ErrNoPromptSelected
	}
	if strings.TrimSpace(prompt.Name) == "" {
		return nil, models.ErrEmptyPromptName
	}

	ctxLog := promptLogger(projectID, prompt.ID)
	updated, err := s.api.UpdatePrompt(ctx, projectID, prompt)
	if err != nil {
		ctxLog.Error().Err(err).Msg("Failed to update prompt")
		return nil, fmt.Errorf("failed to update prompt %d: %w", prompt.ID, err)
	}

	s.publish(ctx, ctxLog, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeUpdated,
		Entity:    interfaces.PromptEntityPrompt,
		ProjectID: projectID,
		PromptID:  prompt.ID,
	})
	ctxLog.Info().Msg("Prompt updated")
	return updated, nil
}

// DeletePrompt удаляет промпт на бэкенде.
func (s *PromptServiceImpl) DeletePrompt(ctx context.Context, projectID, promptID int64) error {
	ctxLog := promptLogger(projectID, promptID)
	if err := s.api.DeletePrompt(ctx, projectID, promptID); err != nil {
		ctxLog.Error().Err(err).Msg("Failed to delete prompt")
		return fmt.Errorf("failed to delete prompt %d: %w", promptID, err)
	}

	s.publish(ctx, ctxLog, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeDeleted,
		Entity:    interfaces.PromptEntityPrompt,
		ProjectID: projectID,
		PromptID:  promptID,
	})
	ctxLog.Info().Msg("Prompt deleted")
	return nil
}

// ListTags возвращает все теги проекта.
func (s *PromptServiceImpl) ListTags(ctx context.Context, projectID int64) ([]models.Tag, error) {
	tags, err := s.api.FetchTags(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetPromptTags возвращает теги одного промпта.
func (s *PromptServiceImpl) GetPromptTags(ctx context.Context, projectID, promptID int64) ([]models.Tag, error) {
	tags, err := s.api.FetchPromptTags(ctx, projectID, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags of prompt %d: %w", promptID, err)
	}
	return tags, nil
}

// UpdatePromptTags заменяет набор тегов промпта.
func (s *PromptServiceImpl) UpdatePromptTags(ctx context.Context, projectID, promptID int64, tags []models.Tag) ([]models.Tag, error) {
	ctxLog := promptLogger(projectID, promptID)
	updated, err := s.api.UpdatePromptTags(ctx, projectID, promptID, tags)
	if err != nil {
		ctxLog.Error().Err(err).Msg("Failed to update prompt tags")
		return nil, fmt.Errorf("failed to update tags of prompt %d: %w", promptID, err)
	}
	s.publish(ctx, ctxLog, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeUpdated,
		Entity:    interfaces.PromptEntityTags,
		ProjectID: projectID,
		PromptID:  promptID,
	})
	return updated, nil
}

func (s *PromptServiceImpl) CreateExample(ctx context.Context, projectID, promptID int64, input, output string) (*models.Example, error) {
	ctxLog := promptLogger(projectID, promptID)
	example, err := s.api.CreateExample(ctx, projectID, promptID, input, output)
	if err != nil {
		ctxLog.Error().Err(err).Msg("Failed to create example")
		return nil, fmt.Errorf("failed to create example: %w", err)
	}
	s.publish(ctx, ctxLog, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeCreated,
		Entity:    interfaces.PromptEntityExample,
		ProjectID: projectID,
		PromptID:  promptID,
		ID:        example.ID,
	})
	ctxLog.Debug().Int64("example_id", example.ID).Msg("Example created")
	return example, nil
}

func (s *PromptServiceImpl) UpdateExample(ctx context.Context, projectID int64, example models.Example) (*models.Example, error) {
	ctxLog := promptLogger(projectID, example.PromptID)
	updated, err := s.api.UpdateExample(ctx, projectID, example)
	if err != nil {
		ctxLog.Error().Err(err).Int64("example_id", example.ID).Msg("Failed to update example")
		return nil, fmt.Errorf("failed to update example %d: %w", example.ID, err)
	}
	s.publish(ctx, ctxLog, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeUpdated,
		Entity:    interfaces.PromptEntityExample,
		ProjectID: projectID,
		PromptID:  example.PromptID,
		ID:        example.ID,
	})
	return updated, nil
}

func (s *PromptServiceImpl) DeleteExample(ctx context.Context, projectID, promptID, exampleID int64) error {
	ctxLog := promptLogger(projectID, promptID)
	if err := s.api.DeleteExample(ctx, projectID, exampleID); err != nil {
		ctxLog.Error().Err(err).Int64("example_id", exampleID).Msg("Failed to delete example")
		return fmt.Errorf("failed to delete example %d: %w", exampleID, err)
	}
	s.publish(ctx, ctxLog, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeDeleted,
		Entity:    interfaces.PromptEntityExample,
		ProjectID: projectID,
		PromptID:  promptID,
		ID:        exampleID,
	})
	return nil
}

// CreateVariable создает переменную. Ошибка валидации бэкенда возвращается
// как есть, чтобы ее текст (сообщения по полям) дошел до пользователя.
func (s *PromptServiceImpl) CreateVariable(ctx context.Context, projectID, promptID int64, name, value string) (*models.Variable, error) {
	ctxLog := promptLogger(projectID, promptID)
	variable, err := s.api.CreateVariable(ctx, projectID, promptID, name, value)
	if err != nil {
		ctxLog.Error().Err(err).Str("name", name).Msg("Failed to create variable")
		return nil, err
	}
	s.publish(ctx, ctxLog, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeCreated,
		Entity:    interfaces.PromptEntityVariable,
		ProjectID: projectID,
		PromptID:  promptID,
		ID:        variable.ID,
	})
	return variable, nil
}

// UpdateVariable обновляет переменную. Ошибка возвращается без обертки, см. CreateVariable.
func (s *PromptServiceImpl) UpdateVariable(ctx context.Context, projectID int64, variable models.Variable) (*models.Variable, error) {
	ctxLog := promptLogger(projectID, variable.PromptID)
	updated, err := s.api.UpdateVariable(ctx, projectID, variable)
	if err != nil {
		ctxLog.Error().Err(err).Int64("variable_id", variable.ID).Msg("Failed to update variable")
		return nil, err
	}
	s.publish(ctx, ctxLog, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeUpdated,
		Entity:    interfaces.PromptEntityVariable,
		ProjectID: projectID,
		PromptID:  variable.PromptID,
		ID:        variable.ID,
	})
	return updated, nil
}

func (s *PromptServiceImpl) DeleteVariable(ctx context.Context, projectID, promptID, variableID int64) error {
	ctxLog := promptLogger(projectID, promptID)
	if err := s.api.DeleteVariable(ctx, projectID, variableID); err != nil {
		ctxLog.Error().Err(err).Int64("variable_id", variableID).Msg("Failed to delete variable")
		return fmt.Errorf("failed to delete variable %d: %w", variableID, err)
	}
	s.publish(ctx, ctxLog, interfaces.PromptEvent{
		EventType: interfaces.PromptEventTypeDeleted,
		Entity:    interfaces.PromptEntityVariable,
		ProjectID: projectID,
		PromptID:  promptID,
		ID:        variableID,
	})
	return nil
}

// RunTest выполняет predict-запрос для промпта.
func (s *PromptServiceImpl) RunTest(ctx context.Context, req models.PredictRequest) (*models.PredictResponse, error) {
	resp, err := s.api.RunTest(ctx, req.ProjectID, req)
	if err != nil {
		ctxLog := promptLogger(req.ProjectID, req.PromptID)
		ctxLog.Warn().Err(err).Msg("Prompt test run failed")
		return nil, err
	}
	return resp, nil
}

// RunChat отправляет сообщение в chat-эндпоинт бэкенда.
func (s *PromptServiceImpl) RunChat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	resp, err := s.api.RunChat(ctx, req.ProjectID, req)
	if err != nil {
		ctxLog := promptLogger(req.ProjectID, req.PromptID)
		ctxLog.Warn().Err(err).Str("integration", req.IntegrationID).Msg("Chat request failed")
		return nil, err
	}
	return resp, nil
}
