package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"prompt-studio/shared/models"
)

// operation описывает вызов API: имя для логов и метрик и префикс сообщения об ошибке.
type operation struct {
	name        string
	errorPrefix string
}

var (
	opFetchPrompts     = operation{name: "fetch_prompts"}
	opFetchPrompt      = operation{name: "fetch_prompt"}
	opCreatePrompt     = operation{name: "create_prompt"}
	opUpdatePrompt     = operation{name: "update_prompt"}
	opDeletePrompt     = operation{name: "delete_prompt"}
	opCreateExample    = operation{name: "create_example"}
	opUpdateExample    = operation{name: "update_example"}
	opDeleteExample    = operation{name: "delete_example"}
	opCreateVariable   = operation{name: "create_variable", errorPrefix: "Error occurred"}
	opUpdateVariable   = operation{name: "update_variable", errorPrefix: "Error occurred while variable update"}
	opDeleteVariable   = operation{name: "delete_variable"}
	opFetchTags        = operation{name: "fetch_tags"}
	opFetchPromptTags  = operation{name: "fetch_prompt_tags"}
	opUpdatePromptTags = operation{name: "update_prompt_tags"}
	opRunTest          = operation{name: "run_test"}
	opRunChat          = operation{name: "run_chat"}
)

// APIError - ответ бэкенда со статусом вне 2xx.
type APIError struct {
	Operation string
	Prefix    string
	Status    int
	// Messages - сообщения бэкенда по полям (формат [{"msg": "..."}]) или единственное сообщение.
	Messages []string
	Body     string
}

func newAPIError(op operation, status int, body []byte) *APIError {
	return &APIError{
		Operation: op.name,
		Prefix:    op.errorPrefix,
		Status:    status,
		Messages:  parseErrorMessages(body),
		Body:      string(body),
	}
}

// Detail возвращает сообщения бэкенда, склеенные через перевод строки.
func (e *APIError) Detail() string {
	return strings.Join(e.Messages, "\n")
}

func (e *APIError) Error() string {
	prefix := e.Prefix
	if prefix == "" {
		prefix = fmt.Sprintf("%s failed with status %d", e.Operation, e.Status)
	}
	if len(e.Messages) == 0 {
		return prefix
	}
	return prefix + "\n" + e.Detail()
}

// Is сопоставляет HTTP-статус с общими ошибками из models.
func (e *APIError) Is(target error) bool {
	switch target {
	case models.ErrNotFound:
		return e.Status == http.StatusNotFound
	case models.ErrBadRequest:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case models.ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case models.ErrInternal:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// AsAPIError достает *APIError из цепочки ошибок.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// parseErrorMessages разбирает тело ошибки. Поддерживаются массив [{"msg": ...}]
// (элементы без msg дают пустую строку), объект {"error"|"message"|"msg": ...} и обычный текст.
func parseErrorMessages(body []byte) []string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}

	var items []map[string]any
	if err := json.Unmarshal(trimmed, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			msg, _ := item["msg"].(string)
			msgs = append(msgs, msg)
		}
		return msgs
	}

	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		for _, candidate := range []string{obj.Error, obj.Message, obj.Msg} {
			if candidate != "" {
				return []string{candidate}
			}
		}
	}

	return []string{string(trimmed)}
}
