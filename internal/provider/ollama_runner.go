package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"prompt-studio/shared/models"
)

const runnerOllama = "ollama"

// OllamaRunner отправляет чат в Ollama через нативный API.
type OllamaRunner struct {
	client       *api.Client
	defaultModel string
	timeout      time.Duration
	registry     *Registry
	logger       *zap.Logger
}

func NewOllamaRunner(cfg Config, registry *Registry, logger *zap.Logger) (*OllamaRunner, error) {
	if registry == nil {
		return nil, fmt.Errorf("integration registry cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// api.NewClient ожидает адрес без суффикса /v1
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama base URL '%s': %w", baseURL, err)
	}

	log := logger.Named("OllamaRunner")
	log.Info("Ollama runner created", zap.String("base_url", baseURL), zap.String("model", cfg.Model), zap.Duration("timeout", cfg.Timeout))

	return &OllamaRunner{
		client:       api.NewClient(parsedURL, &http.Client{Timeout: cfg.Timeout}),
		defaultModel: cfg.Model,
		timeout:      cfg.Timeout,
		registry:     registry,
		logger:       log,
	}, nil
}

// RunChat выполняет один ход чата без стриминга.
func (r *OllamaRunner) RunChat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
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
	msgs := make([]api.Message, 0, len(conv))
	for _, m := range conv {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}

	options := map[string]interface{}{}
	if gs.Temperature != nil {
		options["temperature"] = *gs.Temperature
	}
	if gs.TopP != nil {
		options["top_p"] = *gs.TopP
	}
	if gs.MaxTokens != nil {
		options["num_predict"] = *gs.MaxTokens
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    gs.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  options,
	}

	requestCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	var resp api.ChatResponse
	err = r.client.Chat(requestCtx, chatReq, func(chunk api.ChatResponse) error {
		resp = chunk
		return nil
	})
	duration := time.Since(start)
	aiRequestDuration.WithLabelValues(runnerOllama, gs.Model).Observe(duration.Seconds())

	if err != nil {
		aiRequestsTotal.WithLabelValues(runnerOllama, gs.Model, "error").Inc()
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Ollama chat timed out", zap.Duration("timeout", r.timeout), zap.Error(err))
		} else {
			log.Error("Ollama chat failed", zap.Duration("duration", duration), zap.Error(err))
		}
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}
	if resp.Message.Content == "" {
		aiRequestsTotal.WithLabelValues(runnerOllama, gs.Model, "error_empty_response").Inc()
		return nil, models.ErrEmptyChatResponse
	}
	aiRequestsTotal.WithLabelValues(runnerOllama, gs.Model, "success").Inc()

	usage := Usage{PromptTokens: resp.PromptEvalCount, CompletionTokens: resp.EvalCount}
	if usage.PromptTokens == 0 {
		usage.PromptTokens = estimatePromptTokens(gs.Model, conv)
	}
	observeUsage(runnerOllama, gs.Model, usage)
	log.Debug("Ollama chat response received",
		zap.Duration("duration", duration),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
	)

	return aiResponse(resp.Message.Content), nil
}
