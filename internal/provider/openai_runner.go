package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"prompt-studio/shared/models"
)

const runnerOpenAI = "openai"

// OpenAIRunner отправляет чат напрямую в OpenAI-совместимый API.
type OpenAIRunner struct {
	client       *openaigo.Client
	defaultModel string
	registry     *Registry
	logger       *zap.Logger
}

// Config - параметры прямого раннера.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewOpenAIRunner(cfg Config, registry *Registry, logger *zap.Logger) (*OpenAIRunner, error) {
	if registry == nil {
		return nil, fmt.Errorf("integration registry cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = cfg.BaseURL
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	log := logger.Named("OpenAIRunner")
	log.Info("OpenAI runner created", zap.String("base_url", openaiConfig.BaseURL), zap.String("model", cfg.Model))

	return &OpenAIRunner{
		client:       openaigo.NewClientWithConfig(openaiConfig),
		defaultModel: cfg.Model,
		registry:     registry,
		logger:       log,
	}, nil
}

// RunChat выполняет один ход чата.
func (r *OpenAIRunner) RunChat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	settings, err := r.registry.IntegrationSettings(req.ProjectID, req.IntegrationID, req.IntegrationSettings)
	if err != nil {
		return nil, err
	}
	gs := parseSettings(settings, r.defaultModel)
	if gs.Model == "" {
		return nil, fmt.Errorf("%w: model is not set for integration %s", models.ErrProviderNotConfigured, req.IntegrationID)
	}
	log := r.logger.With(zap.String("model", gs.Model), zap.Int64("prompt_id", req.PromptID))

	conv := buildConversation(req.Prompt, req.ChatHistory, req.Input)
	msgs := make([]openaigo.ChatCompletionMessage, 0, len(conv))
	for _, m := range conv {
		msgs = append(msgs, openaigo.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	chatReq := openaigo.ChatCompletionRequest{
		Model:    gs.Model,
		Messages: msgs,
	}
	if gs.Temperature != nil {
		chatReq.Temperature = float32(*gs.Temperature)
	}
	if gs.TopP != nil {
		chatReq.TopP = float32(*gs.TopP)
	}
	if gs.MaxTokens != nil {
		chatReq.MaxTokens = *gs.MaxTokens
	}

	start := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, chatReq)
	duration := time.Since(start)
	aiRequestDuration.WithLabelValues(runnerOpenAI, gs.Model).Observe(duration.Seconds())
	if err != nil {
		aiRequestsTotal.WithLabelValues(runnerOpenAI, gs.Model, "error").Inc()
		log.Error("OpenAI chat completion failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.WithLabelValues(runnerOpenAI, gs.Model, "error_empty_response").Inc()
		return nil, models.ErrEmptyChatResponse
	}
	aiRequestsTotal.WithLabelValues(runnerOpenAI, gs.Model, "success").Inc()

	content := resp.Choices[0].Message.Content
	usage := Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens}
	if usage.PromptTokens == 0 {
		usage.PromptTokens = estimatePromptTokens(gs.Model, conv)
		usage.CompletionTokens, _ = CountTokens(gs.Model, content)
	}
	observeUsage(runnerOpenAI, gs.Model, usage)
	log.Debug("OpenAI chat completion received",
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
	)

	return aiResponse(content), nil
}
