package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// LegacyUnsavedThreshold - порог, по которому старый UI отличал временные id
// (Date.now() + random) от id, выданных бэкендом. Используется только
// в RowKeyFromLegacyID; остальной код проверяет RowKey.IsSaved.
const LegacyUnsavedThreshold int64 = 1000000

// RowKey идентифицирует строку (пример или переменную), редактируемую локально.
// Ровно одно из полей заполнено: Pending - строка еще не создана на бэкенде,
// Saved - id, подтвержденный бэкендом.
type RowKey struct {
	Pending string `json:"pending,omitempty"`
	Saved   int64  `json:"saved,omitempty"`
}

// NewPendingKey создает ключ для новой, еще не сохраненной строки.
func NewPendingKey() RowKey {
	return RowKey{Pending: uuid.NewString()}
}

// SavedKey создает ключ для строки с id бэкенда.
func SavedKey(id int64) RowKey {
	return RowKey{Saved: id}
}

// RowKeyFromLegacyID переводит числовой id старого формата в RowKey:
// id < LegacyUnsavedThreshold считается сохраненным, остальные - временными.
func RowKeyFromLegacyID(id int64) RowKey {
	if id < LegacyUnsavedThreshold {
		return SavedKey(id)
	}
	return RowKey{Pending: strconv.FormatInt(id, 10)}
}

// IsSaved сообщает, подтвержден ли ключ бэкендом.
func (k RowKey) IsSaved() bool {
	return k.Pending == ""
}

// String кодирует ключ для форм и URL: "s:<id>" или "p:<tempID>".
func (k RowKey) String() string {
	if k.IsSaved() {
		return "s:" + strconv.FormatInt(k.Saved, 10)
	}
	return "p:" + k.Pending
}

// ParseRowKey разбирает представление, полученное из RowKey.String.
func ParseRowKey(s string) (RowKey, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok || value == "" {
		return RowKey{}, fmt.Errorf("%w: malformed row key %q", ErrBadRequest, s)
	}
	switch kind {
	case "s":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return RowKey{}, fmt.Errorf("%w: malformed saved id %q", ErrBadRequest, value)
		}
		return SavedKey(id), nil
	case "p":
		return RowKey{Pending: value}, nil
	default:
		return RowKey{}, fmt.Errorf("%w: unknown row key kind %q", ErrBadRequest, kind)
	}
}
