package models

// Роли сообщений в чате.
const (
	ChatRoleUser = "user"
	ChatRoleAI   = "ai"
)

// ChatMessage - одно сообщение истории чата. История живет только в памяти сессии.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IsAI сообщает, написано ли сообщение моделью.
func (m ChatMessage) IsAI() bool {
	return m.Role == ChatRoleAI
}

// Integration - настройка внешнего AI-провайдера, на который отправляются запуски промпта.
type Integration struct {
	UID       string         `json:"uid" yaml:"uid"`
	Name      string         `json:"name" yaml:"name"`
	ProjectID int64          `json:"project_id" yaml:"project_id"`
	Settings  map[string]any `json:"settings" yaml:"settings"`
}

// ChatRequest - тело запроса к chat-эндпоинту бэкенда.
type ChatRequest struct {
	PromptID            int64          `json:"prompt_id"`
	ProjectID           int64          `json:"project_id"`
	IntegrationID       string         `json:"integration_id"`
	IntegrationSettings map[string]any `json:"integration_settings"`
	Input               string         `json:"input"`
	ChatHistory         []ChatMessage  `json:"chat_history"`
	EmbeddingSettings   map[string]any `json:"embedding_settings,omitempty"`

	// Prompt не сериализуется: он нужен прямым раннерам, которые собирают контекст сами.
	Prompt *Prompt `json:"-"`
}

// ChatResponse - ответ chat-эндпоинта. UI берет первое сообщение.
type ChatResponse struct {
	Messages []ChatMessage `json:"messages"`
}

// PredictRequest - тело запроса прогонки промпта (predict).
type PredictRequest struct {
	PromptID            int64          `json:"prompt_id"`
	ProjectID           int64          `json:"project_id"`
	IntegrationID       string         `json:"integration_id"`
	IntegrationSettings map[string]any `json:"integration_settings"`
	Input               string         `json:"input"`
}

// PredictResponse - ответ predict-эндпоинта.
type PredictResponse struct {
	Messages []ChatMessage `json:"messages"`
}

// FirstContent возвращает текст первого сообщения ответа.
func (r *ChatResponse) FirstContent() (string, bool) {
	if r == nil || len(r.Messages) == 0 {
		return "", false
	}
	return r.Messages[0].Content, true
}
