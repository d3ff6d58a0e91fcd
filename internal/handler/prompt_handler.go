package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"prompt-studio/internal/client"
	"prompt-studio/internal/provider"
	"prompt-studio/internal/session"
	"prompt-studio/internal/viewmodel"
	"prompt-studio/shared/models"
)

// Config - параметры PromptHandler.
type Config struct {
	DefaultProjectID int64
	FlashSecret      []byte
	SecureCookies    bool
	// AILimiter ограничивает частоту запросов к AI (чат и прогон). nil - без ограничений.
	AILimiter        gin.HandlerFunc
}

// PromptHandler обслуживает UI редактора промптов. Каждый запрос выполняет
// одну операцию view-модели внутри session.Store.Update.
type PromptHandler struct {
	api      viewmodel.PromptAPI
	runner   viewmodel.ChatRunner
	store    session.Store
	registry *provider.Registry
	cfg      Config
	logger   *zap.Logger
}

// NewPromptHandler создает новый экземпляр PromptHandler.
func NewPromptHandler(
	api viewmodel.PromptAPI,
	runner viewmodel.ChatRunner,
	store session.Store,
	registry *provider.Registry,
	cfg Config,
	logger *zap.Logger,
) *PromptHandler {
	if api == nil || runner == nil || store == nil {
		logger.Fatal("PromptHandler dependencies must not be nil")
	}
	if registry == nil {
		registry = provider.NewRegistry(nil)
	}
	if cfg.DefaultProjectID <= 0 {
		cfg.DefaultProjectID = 1
	}
	return &PromptHandler{
		api:      api,
		runner:   runner,
		store:    store,
		registry: registry,
		cfg:      cfg,
		logger:   logger.Named("PromptHandler"),
	}
}

func (h *PromptHandler) limitAI(next gin.HandlerFunc) []gin.HandlerFunc {
	if h.cfg.AILimiter == nil {
		return []gin.HandlerFunc{next}
	}
	return []gin.HandlerFunc{h.cfg.AILimiter, next}
}

// RegisterRoutes регистрирует маршруты UI.
func (h *PromptHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusSeeOther, "/prompts") })
	router.POST("/project", h.SwitchProject)

	prompts := router.Group("/prompts")
	{
		prompts.GET("", h.ShowPrompts)
		prompts.POST("", h.CreatePrompt)

		prompt := prompts.Group("/:id")
		{
			prompt.GET("", h.ShowPrompt)
			prompt.POST("", h.UpdatePrompt)
			prompt.POST("/tags", h.UpdateTags)
			prompt.GET("/delete", h.AskDeletePrompt)
			prompt.POST("/delete", h.ConfirmDeletePrompt)

			prompt.POST("/examples", h.AddExample)
			prompt.POST("/examples/:key", h.EditExample)
			prompt.POST("/examples/:key/delete", h.DeleteExample)

			prompt.POST("/variables", h.CreateVariable)
			prompt.POST("/variables/:vid", h.UpdateVariable)
			prompt.POST("/variables/:vid/delete", h.DeleteVariable)

			prompt.POST("/chat", h.limitAI(h.SendChat)...)
			prompt.POST("/chat/clear", h.ClearChat)
			prompt.POST("/predict", h.limitAI(h.RunTest)...)
		}
	}
}

const (
	chatCompleteTimeout  = 10 * time.Second
	msgSelectIntegration = "Select an integration to start the chat."
)

// operation - действие над view-моделями одной сессии.
type operation func(ctx context.Context, ws *viewmodel.Workspace, editor *viewmodel.PromptEditor, chat *viewmodel.ChatPanel) error

// mutate выполняет op под блокировкой сессии. Если promptID не 0, сначала
// выбирается этот промпт. Ошибка op превращается в уведомление, ошибка
// хранилища пишется в c.Errors. Возвращает копию состояния после op.
func (h *PromptHandler) mutate(c *gin.Context, promptID int64, op operation) (*viewmodel.Workspace, *flashNotifier, bool) {
	return h.mutateCtx(c.Request.Context(), c, promptID, op)
}

func (h *PromptHandler) mutateCtx(ctx context.Context, c *gin.Context, promptID int64, op operation) (*viewmodel.Workspace, *flashNotifier, bool) {
	notifier := &flashNotifier{}
	var snapshot viewmodel.Workspace
	var opErr error

	err := h.store.Update(ctx, sessionID(c), func(ws *viewmodel.Workspace) error {
		if ws.ProjectID == 0 {
			ws.ProjectID = h.cfg.DefaultProjectID
		}
		editor := viewmodel.NewPromptEditor(ws.ProjectID, &ws.Editor, h.api, notifier)
		if promptID != 0 {
			if opErr = editor.SelectPrompt(ctx, promptID); opErr != nil {
				snapshot = *ws
				return nil
			}
		}
		chat := viewmodel.NewChatPanel(ws.ProjectID, &ws.Chat, editor.Current(), viewmodel.ChatDeps{
			Runner:   h.runner,
			Examples: h.api,
			Notifier: notifier,
		})
		opErr = op(ctx, ws, editor, chat)
		snapshot = *ws
		return nil
	})
	if err != nil {
		_ = c.Error(err).SetMeta("session update")
		return nil, nil, false
	}

	if opErr != nil {
		fields := []zap.Field{
			zap.String("path", c.FullPath()),
			zap.Int64("promptId", promptID),
			zap.Error(opErr),
		}
		if apiErr, ok := client.AsAPIError(opErr); ok {
			h.logger.Warn("Prompts API rejected operation", append(fields, zap.Int("backendStatus", apiErr.Status))...)
		} else {
			h.logger.Debug("Operation failed", fields...)
		}
		if !notifier.hasError {
			notifier.Notify(viewmodel.LevelError, opErr.Error())
		}
	}
	return &snapshot, notifier, true
}

func (h *PromptHandler) redirect(c *gin.Context, notifier *flashNotifier, location string) {
	if notifier != nil {
		if err := setFlashMessages(c, notifier.messages, h.cfg.FlashSecret, h.cfg.SecureCookies); err != nil {
			h.logger.Error("Failed to set flash message", zap.Error(err))
		}
	}
	c.Redirect(http.StatusSeeOther, location)
}

func (h *PromptHandler) flashes(c *gin.Context, notifier *flashNotifier) []FlashMessage {
	stored, err := getFlashMessages(c, h.cfg.FlashSecret, h.cfg.SecureCookies)
	if err != nil {
		h.logger.Warn("Failed to get flash message", zap.Error(err))
	}
	if notifier != nil {
		stored = append(stored, notifier.messages...)
	}
	return stored
}

// promptID разбирает :id. При ошибке отвечает редиректом на список.
func (h *PromptHandler) promptID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Warn("Invalid prompt ID format", zap.String("id", idStr), zap.Error(err))
		h.redirect(c, singleError("Invalid prompt ID."), "/prompts")
		return 0, false
	}
	return id, true
}

func singleError(message string) *flashNotifier {
	n := &flashNotifier{}
	n.Notify(viewmodel.LevelError, message)
	return n
}

func promptURL(id int64) string {
	return fmt.Sprintf("/prompts/%d", id)
}

// pageData - данные шаблонов.
type pageData struct {
	Title     string
	ProjectID int64
	Flashes   []FlashMessage

	Prompts     []models.Prompt
	ProjectTags []string

	Draft               *viewmodel.PromptDraft
	Modal               *viewmodel.ConfirmModal
	Chat                viewmodel.ChatState
	ChatBusy            bool
	Integrations        []models.Integration
	SelectedIntegration string
	ShowEmbedding       bool
	TestInput           string
	TestOutput          string
}

// ShowPrompts отображает список промптов проекта.
func (h *PromptHandler) ShowPrompts(c *gin.Context) {
	ws, notifier, ok := h.mutate(c, 0, func(ctx context.Context, _ *viewmodel.Workspace, editor *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		if err := editor.LoadPrompts(ctx); err != nil {
			return err
		}
		return editor.LoadTags(ctx)
	})
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "prompts.html", pageData{
		Title:       "Prompts",
		ProjectID:   ws.ProjectID,
		Flashes:     h.flashes(c, notifier),
		Prompts:     ws.Editor.Prompts,
		ProjectTags: ws.Editor.ProjectTags,
	})
}

// CreatePrompt создает промпт и открывает его редактор.
func (h *PromptHandler) CreatePrompt(c *gin.Context) {
	var form createPromptForm
	if err := c.ShouldBind(&form); err != nil {
		h.logger.Warn("Failed to bind prompt data", zap.Error(err))
		h.redirect(c, singleError("Invalid data submitted."), "/prompts")
		return
	}

	var created *models.Prompt
	_, notifier, ok := h.mutate(c, 0, func(ctx context.Context, _ *viewmodel.Workspace, editor *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		var err error
		created, err = editor.CreatePrompt(ctx, form.Name)
		return err
	})
	if !ok {
		return
	}
	if created == nil {
		h.redirect(c, notifier, "/prompts")
		return
	}
	h.redirect(c, notifier, promptURL(created.ID))
}

// ShowPrompt отображает редактор промпта с панелью чата.
func (h *PromptHandler) ShowPrompt(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	var busy bool
	ws, notifier, ok := h.mutate(c, id, func(_ context.Context, _ *viewmodel.Workspace, _ *viewmodel.PromptEditor, chat *viewmodel.ChatPanel) error {
		busy = chat.Busy()
		return nil
	})
	if !ok {
		return
	}
	if ws.Editor.Current == nil || ws.Editor.Current.ID != id {
		h.redirect(c, notifier, "/prompts")
		return
	}

	data := pageData{
		Title:               ws.Editor.Current.Name,
		ProjectID:           ws.ProjectID,
		Flashes:             h.flashes(c, notifier),
		Draft:               ws.Editor.Current,
		ProjectTags:         ws.Editor.ProjectTags,
		Chat:                ws.Chat,
		ChatBusy:            busy,
		Integrations:        h.registry.List(ws.ProjectID),
		SelectedIntegration: ws.Editor.SelectedIntegration,
		ShowEmbedding:       ws.Editor.ShowEmbedding,
		TestInput:           ws.Editor.TestInput,
		TestOutput:          ws.Editor.TestOutput,
	}
	if ws.Editor.ConfirmDelete {
		modal := viewmodel.NewDeletePromptModal(ws.Editor.LoadingDelete, nil)
		data.Modal = &modal
	}
	c.HTML(http.StatusOK, "prompt_edit.html", data)
}

// UpdatePrompt сохраняет имя, текст и теги промпта.
func (h *PromptHandler) UpdatePrompt(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	var form promptForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirect(c, singleError("Invalid data submitted."), promptURL(id))
		return
	}
	_, notifier, ok := h.mutate(c, id, func(ctx context.Context, _ *viewmodel.Workspace, editor *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		return editor.UpdatePrompt(ctx, form.Name, form.Prompt, form.tagList())
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// UpdateTags заменяет теги промпта, не трогая имя и текст.
func (h *PromptHandler) UpdateTags(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	var form tagsForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirect(c, singleError("Invalid data submitted."), promptURL(id))
		return
	}
	_, notifier, ok := h.mutate(c, id, func(ctx context.Context, _ *viewmodel.Workspace, editor *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		return editor.UpdateTags(ctx, splitTags(form.Tags))
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// AskDeletePrompt открывает окно подтверждения удаления.
func (h *PromptHandler) AskDeletePrompt(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	_, notifier, ok := h.mutate(c, id, func(_ context.Context, _ *viewmodel.Workspace, editor *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		return editor.AskDelete()
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// ConfirmDeletePrompt передает событие окна подтверждения редактору.
func (h *PromptHandler) ConfirmDeletePrompt(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	var form confirmForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirect(c, singleError("Invalid data submitted."), promptURL(id))
		return
	}

	deleted := false
	_, notifier, ok := h.mutate(c, id, func(ctx context.Context, _ *viewmodel.Workspace, editor *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		var event viewmodel.ConfirmEvent
		modal := editor.DeleteModal(func(e viewmodel.ConfirmEvent) { event = e })
		switch viewmodel.ConfirmEvent(form.Event) {
		case viewmodel.EventCloseConfirm:
			modal.Cancel()
		case viewmodel.EventDeletePrompt:
			modal.Confirm()
		default:
			return fmt.Errorf("%w: unknown confirm event %q", models.ErrBadRequest, form.Event)
		}
		if err := editor.HandleConfirm(ctx, event); err != nil {
			return err
		}
		deleted = event == viewmodel.EventDeletePrompt
		return nil
	})
	if !ok {
		return
	}
	if deleted {
		h.redirect(c, notifier, "/prompts")
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// AddExample добавляет пустую строку примера.
func (h *PromptHandler) AddExample(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	_, notifier, ok := h.mutate(c, id, func(_ context.Context, _ *viewmodel.Workspace, _ *viewmodel.PromptEditor, chat *viewmodel.ChatPanel) error {
		_, err := chat.AddExampleRow()
		return err
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// EditExample применяет изменение поля строки примера.
func (h *PromptHandler) EditExample(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	key, err := models.ParseRowKey(c.Param("key"))
	if err != nil {
		h.redirect(c, singleError(err.Error()), promptURL(id))
		return
	}
	var form exampleFieldForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirect(c, singleError("Invalid data submitted."), promptURL(id))
		return
	}
	kind := viewmodel.FieldKind(form.Kind)
	if kind == "" {
		kind = viewmodel.KindText
	}

	_, notifier, ok := h.mutate(c, id, func(ctx context.Context, _ *viewmodel.Workspace, _ *viewmodel.PromptEditor, chat *viewmodel.ChatPanel) error {
		return chat.EditExampleField(ctx, key, viewmodel.ExampleField(form.Field), form.Value, kind)
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// DeleteExample удаляет строку примера.
func (h *PromptHandler) DeleteExample(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	key, err := models.ParseRowKey(c.Param("key"))
	if err != nil {
		h.redirect(c, singleError(err.Error()), promptURL(id))
		return
	}
	_, notifier, ok := h.mutate(c, id, func(ctx context.Context, _ *viewmodel.Workspace, _ *viewmodel.PromptEditor, chat *viewmodel.ChatPanel) error {
		return chat.DeleteExample(ctx, key)
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// CreateVariable создает переменную промпта.
func (h *PromptHandler) CreateVariable(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	var form variableForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirect(c, singleError("Invalid data submitted."), promptURL(id))
		return
	}
	_, notifier, ok := h.mutate(c, id, func(ctx context.Context, _ *viewmodel.Workspace, editor *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		_, err := editor.CreateVariable(ctx, form.Name, form.Value)
		return err
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// UpdateVariable сохраняет переменную.
func (h *PromptHandler) UpdateVariable(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	key, err := models.ParseRowKey(c.Param("vid"))
	if err != nil {
		h.redirect(c, singleError(err.Error()), promptURL(id))
		return
	}
	var form variableForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirect(c, singleError("Invalid data submitted."), promptURL(id))
		return
	}
	_, notifier, ok := h.mutate(c, id, func(ctx context.Context, _ *viewmodel.Workspace, editor *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		return editor.UpdateVariable(ctx, key, form.Name, form.Value)
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// DeleteVariable удаляет переменную.
func (h *PromptHandler) DeleteVariable(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	key, err := models.ParseRowKey(c.Param("vid"))
	if err != nil {
		h.redirect(c, singleError(err.Error()), promptURL(id))
		return
	}
	_, notifier, ok := h.mutate(c, id, func(ctx context.Context, _ *viewmodel.Workspace, editor *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		return editor.DeleteVariable(ctx, key)
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// SendChat отправляет сообщение в чат. Запрос к модели идет вне блокировки
// сессии: Begin и Complete выполняются в двух отдельных Update.
func (h *PromptHandler) SendChat(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	var form chatForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirect(c, singleError("Invalid data submitted."), promptURL(id))
		return
	}

	var pending *viewmodel.PendingChat
	_, notifier, ok := h.mutate(c, id, func(_ context.Context, _ *viewmodel.Workspace, editor *viewmodel.PromptEditor, chat *viewmodel.ChatPanel) error {
		editor.SelectIntegration(form.IntegrationUID, form.ShowEmbedding)
		chat.SetMessage(form.Message)
		var err error
		pending, err = chat.Begin(viewmodel.SendOptions{
			IntegrationUID:    form.IntegrationUID,
			ShowEmbedding:     form.ShowEmbedding,
			EmbeddingSettings: editor.Current().Embeddings,
		})
		return err
	})
	if !ok {
		return
	}
	if pending == nil {
		if !notifier.hasError {
			notifier.Notify(viewmodel.LevelInfo, msgSelectIntegration)
		}
		h.redirect(c, notifier, promptURL(id))
		return
	}

	resp, runErr := h.runner.RunChat(c.Request.Context(), pending.Request)
	if runErr != nil {
		h.logger.Warn("Chat run failed", zap.Int64("promptId", id), zap.Error(runErr))
	}

	// Флаг загрузки снимается, даже если клиент уже отключился.
	completeCtx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), chatCompleteTimeout)
	defer cancel()
	_, completeNotifier, ok := h.mutateCtx(completeCtx, c, 0, func(_ context.Context, _ *viewmodel.Workspace, _ *viewmodel.PromptEditor, chat *viewmodel.ChatPanel) error {
		return chat.Complete(pending, resp, runErr)
	})
	if !ok {
		return
	}
	notifier.messages = append(notifier.messages, completeNotifier.messages...)
	h.redirect(c, notifier, promptURL(id))
}

// ClearChat очищает историю чата.
func (h *PromptHandler) ClearChat(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	_, notifier, ok := h.mutate(c, id, func(_ context.Context, _ *viewmodel.Workspace, _ *viewmodel.PromptEditor, chat *viewmodel.ChatPanel) error {
		chat.Clear()
		return nil
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// RunTest выполняет разовый прогон промпта.
func (h *PromptHandler) RunTest(c *gin.Context) {
	id, ok := h.promptID(c)
	if !ok {
		return
	}
	var form predictForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirect(c, singleError("Invalid data submitted."), promptURL(id))
		return
	}
	_, notifier, ok := h.mutate(c, id, func(ctx context.Context, ws *viewmodel.Workspace, editor *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		editor.SelectIntegration(form.IntegrationUID, ws.Editor.ShowEmbedding)
		return editor.RunTest(ctx, form.Input)
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, promptURL(id))
}

// SwitchProject переключает текущий проект сессии. Состояние сбрасывается.
func (h *PromptHandler) SwitchProject(c *gin.Context) {
	var form projectForm
	if err := c.ShouldBind(&form); err != nil {
		h.redirect(c, singleError("Invalid project ID."), "/prompts")
		return
	}
	_, notifier, ok := h.mutate(c, 0, func(_ context.Context, ws *viewmodel.Workspace, _ *viewmodel.PromptEditor, _ *viewmodel.ChatPanel) error {
		if ws.SwitchProject(form.ProjectID) {
			h.logger.Info("Project switched", zap.String("sessionId", sessionID(c)), zap.Int64("projectId", form.ProjectID))
		}
		return nil
	})
	if !ok {
		return
	}
	h.redirect(c, notifier, "/prompts")
}
