package interfaces

import (
	"context"
)

// PromptEventType represents the type of prompt event.
type PromptEventType string

const (
	PromptEventTypeCreated PromptEventType = "created"
	PromptEventTypeUpdated PromptEventType = "updated"
	PromptEventTypeDeleted PromptEventType = "deleted"
)

// PromptEntity - сущность, которую затронуло изменение.
type PromptEntity string

const (
	PromptEntityPrompt   PromptEntity = "prompt"
	PromptEntityExample  PromptEntity = "example"
	PromptEntityVariable PromptEntity = "variable"
	PromptEntityTags     PromptEntity = "tags"
)

// PromptEvent represents an event related to a prompt change.
type PromptEvent struct {
	EventType PromptEventType `json:"eventType"`
	Entity    PromptEntity    `json:"entity"`
	ProjectID int64           `json:"projectId"`
	PromptID  int64           `json:"promptId"`
	ID        int64           `json:"id,omitempty"` // ID примера или переменной
}

// PromptEventPublisher defines the interface for publishing prompt change events.
type PromptEventPublisher interface {
	PublishPromptEvent(ctx context.Context, event PromptEvent) error
}

// NopPromptEventPublisher используется, когда брокер не настроен.
type NopPromptEventPublisher struct{}

func (NopPromptEventPublisher) PublishPromptEvent(context.Context, PromptEvent) error { return nil }
