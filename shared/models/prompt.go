package models

import "encoding/json"

// PromptTypeFreeform - единственный тип промпта, который создает UI.
const PromptTypeFreeform = "freeform"

// Prompt - промпт проекта в том виде, в каком его отдает бэкенд.
type Prompt struct {
	ID                  int64          `json:"id"`
	Name                string         `json:"name"`
	Type                string         `json:"type"`
	Prompt              string         `json:"prompt"`
	Tags                []Tag          `json:"tags"`
	Examples            []Example      `json:"examples"`
	Variables           []Variable     `json:"variables"`
	IntegrationSettings map[string]any `json:"integration_settings,omitempty"`
	// Embeddings присутствует, только если к промпту подключены эмбеддинги.
	Embeddings map[string]any `json:"embeddings,omitempty"`
	IsActive   bool           `json:"is_active,omitempty"`
}

// TagNames возвращает теги промпта в виде списка строк.
func (p *Prompt) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Tag)
	}
	return names
}

// HasEmbeddings сообщает, подключены ли к промпту эмбеддинги.
func (p *Prompt) HasEmbeddings() bool {
	return len(p.Embeddings) > 0
}

// Tag - метка промпта.
type Tag struct {
	ID    int64  `json:"id,omitempty"`
	Tag   string `json:"tag"`
	Color string `json:"color,omitempty"`
}

// Example - пара вход/выход для few-shot обучения промпта.
type Example struct {
	ID       int64  `json:"id"`
	PromptID int64  `json:"prompt_id,omitempty"`
	Input    string `json:"input"`
	Output   string `json:"output"`
	IsActive bool   `json:"is_active"`
}

// Variable - именованная подстановка в тексте промпта.
type Variable struct {
	ID       int64  `json:"id"`
	PromptID int64  `json:"prompt_id"`
	Name     string `json:"name"`
	Value    string `json:"value"`
}

// UnmarshalJSON принимает тег и в виде строки, и в виде объекта {id, tag, color}.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*t = Tag{Tag: label}
		return nil
	}
	type rawTag Tag
	var raw rawTag
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Tag(raw)
	return nil
}
