package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"prompt-studio/shared/models"
)

// IntegrationsFile - формат integrations.yaml.
type IntegrationsFile struct {
	Integrations []models.Integration `yaml:"integrations"`
}

// LoadIntegrations читает список интеграций. Отсутствующий файл дает пустой список.
func LoadIntegrations(path string) ([]models.Integration, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var file IntegrationsFile
	if err := cleanenv.ReadConfig(path, &file); err != nil {
		return nil, fmt.Errorf("failed to read integrations file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(file.Integrations))
	for i, in := range file.Integrations {
		if in.UID == "" {
			return nil, fmt.Errorf("integration #%d in %s has no uid", i, path)
		}
		key := fmt.Sprintf("%d/%s", in.ProjectID, in.UID)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate integration uid %q for project %d", in.UID, in.ProjectID)
		}
		seen[key] = struct{}{}
	}
	return file.Integrations, nil
}
