package session

import (
	"context"
	"encoding/json"
	"fmt"

	"prompt-studio/internal/viewmodel"
)

// UpdateFunc изменяет состояние сессии на месте.
type UpdateFunc func(ws *viewmodel.Workspace) error

// Store хранит состояние пользовательских сессий.
//
// Update выполняет fn под блокировкой сессии, так что операции одной сессии
// не пересекаются. Состояние сохраняется даже когда fn вернула ошибку:
// локальные изменения не откатываются при сбое запроса к бэкенду.
// Отсутствующая сессия создается пустой.
type Store interface {
	Load(ctx context.Context, id string) (*viewmodel.Workspace, error)
	Update(ctx context.Context, id string, fn UpdateFunc) error
	Delete(ctx context.Context, id string) error
}

func encode(ws *viewmodel.Workspace) ([]byte, error) {
	data, err := json.Marshal(ws)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session state: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*viewmodel.Workspace, error) {
	ws := &viewmodel.Workspace{}
	if err := json.Unmarshal(data, ws); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return ws, nil
}
