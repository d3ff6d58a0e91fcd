package provider

import (
	"strings"

	"prompt-studio/shared/models"
)

// Роли сообщений в формате OpenAI/Ollama.
const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

type message struct {
	Role    string
	Content string
}

// buildConversation собирает диалог: текст промпта как system, активные
// примеры парами user/assistant, история и новый ввод пользователя.
func buildConversation(prompt *models.Prompt, history []models.ChatMessage, input string) []message {
	var msgs []message
	if prompt != nil {
		if text := strings.TrimSpace(prompt.Prompt); text != "" {
			msgs = append(msgs, message{Role: roleSystem, Content: text})
		}
		for _, ex := range prompt.Examples {
			if !ex.IsActive || ex.Input == "" || ex.Output == "" {
				continue
			}
			msgs = append(msgs,
				message{Role: roleUser, Content: ex.Input},
				message{Role: roleAssistant, Content: ex.Output},
			)
		}
	}
	for _, h := range history {
		role := roleUser
		if h.IsAI() || h.Role == roleAssistant {
			role = roleAssistant
		}
		msgs = append(msgs, message{Role: role, Content: h.Content})
	}
	msgs = append(msgs, message{Role: roleUser, Content: input})
	return msgs
}

func aiResponse(content string) *models.ChatResponse {
	return &models.ChatResponse{Messages: []models.ChatMessage{{Role: models.ChatRoleAI, Content: content}}}
}
