package viewmodel

import (
	"time"

	"prompt-studio/shared/models"
)

// Workspace - состояние одной пользовательской сессии. Сериализуется в хранилище сессий.
type Workspace struct {
	ProjectID int64       `json:"project_id"`
	Editor    EditorState `json:"editor"`
	Chat      ChatState   `json:"chat"`
}

// NewWorkspace создает пустое состояние для проекта.
func NewWorkspace(projectID int64) *Workspace {
	return &Workspace{ProjectID: projectID}
}

// SwitchProject сбрасывает все состояние, если проект изменился.
func (w *Workspace) SwitchProject(projectID int64) bool {
	if projectID == w.ProjectID {
		return false
	}
	*w = Workspace{ProjectID: projectID}
	return true
}

// EditorState - список промптов и выбранный промпт.
type EditorState struct {
	Prompts       []models.Prompt `json:"prompts"`
	Current       *PromptDraft    `json:"current,omitempty"`
	ConfirmDelete bool            `json:"confirm_delete,omitempty"`
	LoadingDelete bool            `json:"loading_delete,omitempty"`

	// ProjectTags - все теги проекта, подсказки для поля тегов.
	ProjectTags []string `json:"project_tags,omitempty"`

	SelectedIntegration string `json:"selected_integration,omitempty"`
	ShowEmbedding       bool   `json:"show_embedding,omitempty"`
	TestInput           string `json:"test_input,omitempty"`
	TestOutput          string `json:"test_output,omitempty"`
}

// ChatState - состояние панели чата.
type ChatState struct {
	PromptID     int64                `json:"prompt_id"`
	History      []models.ChatMessage `json:"history"`
	NewMessage   string               `json:"new_message"`
	IsRunLoading bool                 `json:"is_run_loading"`
	RunStartedAt time.Time            `json:"run_started_at,omitempty"`
	// Epoch увеличивается при смене промпта. Ответ, запрошенный в другой эпохе, отбрасывается.
	Epoch int64 `json:"epoch"`
}

// ExampleRow - строка примера в редакторе.
type ExampleRow struct {
	Key      models.RowKey `json:"key"`
	Input    string        `json:"input"`
	Output   string        `json:"output"`
	IsActive bool          `json:"is_active"`
	Creating bool          `json:"creating,omitempty"`
}

// VariableRow - строка переменной в редакторе.
type VariableRow struct {
	Key   models.RowKey `json:"key"`
	Name  string        `json:"name"`
	Value string        `json:"value"`
}

// PromptDraft - редактируемая копия промпта. Examples == nil означает,
// что у промпта еще нет списка примеров.
type PromptDraft struct {
	ID                  int64          `json:"id"`
	Name                string         `json:"name"`
	Prompt              string         `json:"prompt"`
	Tags                []string       `json:"tags"`
	Examples            []ExampleRow   `json:"examples"`
	Variables           []VariableRow  `json:"variables"`
	IntegrationSettings map[string]any `json:"integration_settings,omitempty"`
	Embeddings          map[string]any `json:"embeddings,omitempty"`
}

// DraftFromPrompt строит черновик из ответа бэкенда. Все строки получают Saved-ключи.
func DraftFromPrompt(p *models.Prompt) *PromptDraft {
	if p == nil {
		return nil
	}
	d := &PromptDraft{
		ID:                  p.ID,
		Name:                p.Name,
		Prompt:              p.Prompt,
		Tags:                p.TagNames(),
		IntegrationSettings: p.IntegrationSettings,
		Embeddings:          p.Embeddings,
	}
	if p.Examples != nil {
		d.Examples = make([]ExampleRow, 0, len(p.Examples))
		for _, e := range p.Examples {
			d.Examples = append(d.Examples, ExampleRow{
				Key:      models.SavedKey(e.ID),
				Input:    e.Input,
				Output:   e.Output,
				IsActive: e.IsActive,
			})
		}
	}
	for _, v := range p.Variables {
		d.Variables = append(d.Variables, VariableRow{Key: models.SavedKey(v.ID), Name: v.Name, Value: v.Value})
	}
	return d
}

// ToPrompt собирает модель промпта из черновика. Несохраненные строки получают ID 0.
func (d *PromptDraft) ToPrompt() *models.Prompt {
	p := &models.Prompt{
		ID:                  d.ID,
		Name:                d.Name,
		Type:                models.PromptTypeFreeform,
		Prompt:              d.Prompt,
		IntegrationSettings: d.IntegrationSettings,
		Embeddings:          d.Embeddings,
	}
	for _, t := range d.Tags {
		p.Tags = append(p.Tags, models.Tag{Tag: t})
	}
	if d.Examples != nil {
		p.Examples = make([]models.Example, 0, len(d.Examples))
		for _, row := range d.Examples {
			p.Examples = append(p.Examples, models.Example{
				ID:       row.Key.Saved,
				PromptID: d.ID,
				Input:    row.Input,
				Output:   row.Output,
				IsActive: row.IsActive,
			})
		}
	}
	for _, row := range d.Variables {
		p.Variables = append(p.Variables, models.Variable{ID: row.Key.Saved, PromptID: d.ID, Name: row.Name, Value: row.Value})
	}
	return p
}

// HasEmbeddings сообщает, подключены ли к промпту эмбеддинги.
func (d *PromptDraft) HasEmbeddings() bool {
	return len(d.Embeddings) > 0
}

func (d *PromptDraft) findExample(key models.RowKey) *ExampleRow {
	for i := range d.Examples {
		if d.Examples[i].Key == key {
			return &d.Examples[i]
		}
	}
	return nil
}

func (d *PromptDraft) findVariable(key models.RowKey) *VariableRow {
	for i := range d.Variables {
		if d.Variables[i].Key == key {
			return &d.Variables[i]
		}
	}
	return nil
}
