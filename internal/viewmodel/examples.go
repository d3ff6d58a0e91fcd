package viewmodel

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"prompt-studio/shared/models"
)

// ExampleField - редактируемое поле примера.
type ExampleField string

const (
	FieldInput    ExampleField = "input"
	FieldOutput   ExampleField = "output"
	FieldIsActive ExampleField = "is_active"
)

// FieldKind - тип элемента формы, которым изменено поле.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindCheckbox FieldKind = "checkbox"
)

// AddExampleRow добавляет пустую несохраненную строку. Если у промпта
// нет списка примеров, он создается из одной этой строки.
func (p *ChatPanel) AddExampleRow() (models.RowKey, error) {
	if p.draft == nil {
		return models.RowKey{}, models.ErrNoPromptSelected
	}
	row := ExampleRow{Key: models.NewPendingKey(), IsActive: true}
	if p.draft.Examples == nil {
		p.draft.Examples = []ExampleRow{row}
	} else {
		p.draft.Examples = append(p.draft.Examples, row)
	}
	return row.Key, nil
}

// EditExampleField применяет изменение поля строки примера.
//
// Для несохраненной строки чекбокс игнорируется, а текстовое поле
// сохраняется локально; когда заполнены и input, и output, пример создается на бэкенде.
// Для сохраненной строки любое изменение отправляется через UpdateExample.
func (p *ChatPanel) EditExampleField(ctx context.Context, key models.RowKey, field ExampleField, value string, kind FieldKind) error {
	if p.draft == nil {
		return models.ErrNoPromptSelected
	}
	row := p.draft.findExample(key)
	if row == nil {
		return fmt.Errorf("%w: example %s", models.ErrRowNotFound, key)
	}

	if !key.IsSaved() {
		if kind == KindCheckbox {
			return nil
		}
		if err := setTextField(row, field, value); err != nil {
			return err
		}
		if pairedValue(row, field) == "" || row.Creating {
			return nil
		}
		return p.createExample(ctx, key, row)
	}

	if kind == KindCheckbox {
		row.IsActive = parseChecked(value)
	} else if err := setTextField(row, field, value); err != nil {
		return err
	}

	_, err := p.deps.Examples.UpdateExample(ctx, p.projectID, models.Example{
		ID:       key.Saved,
		PromptID: p.draft.ID,
		Input:    row.Input,
		Output:   row.Output,
		IsActive: row.IsActive,
	})
	if err != nil {
		p.notify(LevelError, err.Error())
		return err
	}
	p.notify(LevelInfo, msgExampleUpdated)
	return nil
}

func (p *ChatPanel) createExample(ctx context.Context, key models.RowKey, row *ExampleRow) error {
	row.Creating = true
	input, output := row.Input, row.Output

	created, err := p.deps.Examples.CreateExample(ctx, p.projectID, p.draft.ID, input, output)

	row = p.draft.findExample(key)
	if row != nil {
		row.Creating = false
	}
	if err == nil && (created == nil || created.ID == 0) {
		err = models.ErrEmptyResponse
	}
	if err != nil {
		p.notify(LevelError, err.Error())
		return err
	}
	p.notify(LevelSuccess, msgExampleCreated)
	if row != nil {
		row.Key = models.SavedKey(created.ID)
	}
	return nil
}

// DeleteExample удаляет строку локально. Сохраненная строка удаляется и на бэкенде.
func (p *ChatPanel) DeleteExample(ctx context.Context, key models.RowKey) error {
	if p.draft == nil {
		return models.ErrNoPromptSelected
	}

	var apiErr error
	if key.IsSaved() {
		apiErr = p.deps.Examples.DeleteExample(ctx, p.projectID, p.draft.ID, key.Saved)
		if apiErr != nil {
			p.notify(LevelError, apiErr.Error())
		} else {
			p.notify(LevelSuccess, msgExampleDeleted)
		}
	}

	kept := p.draft.Examples[:0]
	for _, row := range p.draft.Examples {
		if row.Key != key {
			kept = append(kept, row)
		}
	}
	p.draft.Examples = kept
	return apiErr
}

func setTextField(row *ExampleRow, field ExampleField, value string) error {
	switch field {
	case FieldInput:
		row.Input = value
	case FieldOutput:
		row.Output = value
	default:
		return fmt.Errorf("%w: %q", models.ErrInvalidField, field)
	}
	return nil
}

func pairedValue(row *ExampleRow, field ExampleField) string {
	if field == FieldInput {
		return row.Output
	}
	return row.Input
}

// parseChecked понимает значения чекбокса из HTML-форм ("on") и из REPL ("true", "1").
func parseChecked(value string) bool {
	v := strings.TrimSpace(strings.ToLower(value))
	if v == "on" || v == "yes" {
		return true
	}
	checked, _ := strconv.ParseBool(v)
	return checked
}
