package provider

import (
	"fmt"
	"maps"

	"prompt-studio/shared/models"
)

// Registry - список интеграций из конфигурации.
// Интеграция с ProjectID == 0 доступна во всех проектах.
type Registry struct {
	integrations []models.Integration
}

func NewRegistry(integrations []models.Integration) *Registry {
	return &Registry{integrations: integrations}
}

// List возвращает интеграции, доступные проекту.
func (r *Registry) List(projectID int64) []models.Integration {
	out := make([]models.Integration, 0, len(r.integrations))
	for _, in := range r.integrations {
		if in.ProjectID == 0 || in.ProjectID == projectID {
			out = append(out, in)
		}
	}
	return out
}

// Get ищет интеграцию проекта по uid.
func (r *Registry) Get(projectID int64, uid string) (*models.Integration, error) {
	for i := range r.integrations {
		in := &r.integrations[i]
		if in.UID == uid && (in.ProjectID == 0 || in.ProjectID == projectID) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("%w: project_id=%d, integration_uid=%s", models.ErrIntegrationNotFound, projectID, uid)
}

// IntegrationSettings возвращает настройки интеграции, перекрытые настройками промпта.
func (r *Registry) IntegrationSettings(projectID int64, uid string, promptSettings map[string]any) (map[string]any, error) {
	in, err := r.Get(projectID, uid)
	if err != nil {
		return nil, err
	}
	return MergeSettings(in, promptSettings), nil
}

// MergeSettings накладывает настройки промпта поверх настроек интеграции.
// Исходные карты не изменяются.
func MergeSettings(integration *models.Integration, promptSettings map[string]any) map[string]any {
	merged := make(map[string]any, len(promptSettings))
	if integration != nil {
		maps.Copy(merged, integration.Settings)
	}
	maps.Copy(merged, promptSettings)
	return merged
}
