package viewmodel

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"prompt-studio/shared/models"
)

// chatRunStaleAfter - через сколько флаг загрузки считается зависшим
// (процесс мог упасть между началом и завершением запроса).
const chatRunStaleAfter = 5 * time.Minute

var now = time.Now

// ChatDeps - зависимости панели чата.
type ChatDeps struct {
	Runner   ChatRunner
	Examples ExampleAPI
	Notifier Notifier
}

// ChatPanel - панель чата выбранного промпта и строки его примеров.
type ChatPanel struct {
	projectID int64
	state     *ChatState
	draft     *PromptDraft
	deps      ChatDeps
}

// SendOptions - параметры отправки сообщения.
type SendOptions struct {
	IntegrationUID    string
	ShowEmbedding     bool
	EmbeddingSettings map[string]any
}

// PendingChat - запрос, начатый Begin и ожидающий Complete.
type PendingChat struct {
	Request models.ChatRequest
	Epoch   int64
}

// NewChatPanel создает панель над состоянием state. Если draft относится
// к другому промпту, чем state, история очищается.
func NewChatPanel(projectID int64, state *ChatState, draft *PromptDraft, deps ChatDeps) *ChatPanel {
	p := &ChatPanel{projectID: projectID, state: state, deps: deps}
	p.SetPrompt(draft)
	return p
}

// SetPrompt переключает панель на промпт. История и поле ввода очищаются
// только при смене ненулевого id.
func (p *ChatPanel) SetPrompt(draft *PromptDraft) {
	p.draft = draft
	if draft == nil || draft.ID == 0 || draft.ID == p.state.PromptID {
		return
	}
	p.state.PromptID = draft.ID
	p.state.History = nil
	p.state.NewMessage = ""
	p.state.Epoch++
}

// SetMessage обновляет текст в поле ввода.
func (p *ChatPanel) SetMessage(text string) {
	p.state.NewMessage = text
}

// Clear очищает историю чата.
func (p *ChatPanel) Clear() {
	p.state.History = nil
}

// Busy сообщает, выполняется ли запрос.
func (p *ChatPanel) Busy() bool {
	return p.state.IsRunLoading && now().Sub(p.state.RunStartedAt) < chatRunStaleAfter
}

// Begin добавляет сообщение пользователя в историю и готовит запрос.
// Без выбранной интеграции ничего не делает и возвращает nil.
// История в запросе - снимок до добавления нового сообщения.
func (p *ChatPanel) Begin(opts SendOptions) (*PendingChat, error) {
	if opts.IntegrationUID == "" {
		return nil, nil
	}
	if p.draft == nil {
		return nil, models.ErrNoPromptSelected
	}
	if p.Busy() {
		return nil, models.ErrChatBusy
	}

	history := make([]models.ChatMessage, len(p.state.History))
	copy(history, p.state.History)

	userMessage := p.state.NewMessage
	p.state.History = append(p.state.History, models.ChatMessage{Role: models.ChatRoleUser, Content: userMessage})
	p.state.IsRunLoading = true
	p.state.RunStartedAt = now()
	p.state.NewMessage = ""

	req := models.ChatRequest{
		PromptID:            p.draft.ID,
		ProjectID:           p.projectID,
		IntegrationID:       opts.IntegrationUID,
		IntegrationSettings: p.draft.IntegrationSettings,
		Input:               userMessage,
		ChatHistory:         history,
		Prompt:              p.draft.ToPrompt(),
	}
	if p.draft.HasEmbeddings() && opts.ShowEmbedding {
		req.EmbeddingSettings = opts.EmbeddingSettings
	}
	return &PendingChat{Request: req, Epoch: p.state.Epoch}, nil
}

// Complete применяет результат запроса. Флаг загрузки снимается в любом случае.
// Ответ для промпта, с которого пользователь уже ушел, отбрасывается.
func (p *ChatPanel) Complete(pending *PendingChat, resp *models.ChatResponse, runErr error) error {
	p.state.IsRunLoading = false
	p.state.RunStartedAt = time.Time{}

	if runErr != nil {
		p.notify(LevelError, runErr.Error())
		return runErr
	}
	content, ok := resp.FirstContent()
	if !ok {
		p.notify(LevelError, models.ErrEmptyChatResponse.Error())
		return models.ErrEmptyChatResponse
	}
	if pending.Epoch != p.state.Epoch {
		log.Debug().Int64("prompt_id", pending.Request.PromptID).Msg("Dropping chat response for a prompt that is no longer selected")
		return nil
	}
	p.state.History = append(p.state.History, models.ChatMessage{Role: models.ChatRoleAI, Content: content})
	return nil
}

// Send выполняет Begin, запрос и Complete за один вызов.
func (p *ChatPanel) Send(ctx context.Context, opts SendOptions) error {
	pending, err := p.Begin(opts)
	if err != nil || pending == nil {
		return err
	}
	resp, runErr := p.deps.Runner.RunChat(ctx, pending.Request)
	return p.Complete(pending, resp, runErr)
}

func (p *ChatPanel) notify(level Level, message string) {
	if p.deps.Notifier != nil {
		p.deps.Notifier.Notify(level, message)
	}
}
