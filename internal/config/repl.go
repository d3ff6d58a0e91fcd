package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// REPLConfig - настройки promptctl.
type REPLConfig struct {
	PromptsAPIURL     string        `yaml:"prompts_api_url" env:"PROMPTS_API_URL" env-required:"true"`
	PromptsAPIVersion int           `yaml:"prompts_api_version" env:"PROMPTS_API_VERSION" env-default:"1"`
	PromptsAPIMode    string        `yaml:"prompts_api_mode" env:"PROMPTS_API_MODE" env-default:"default"`
	AuthToken         string        `yaml:"auth_token" env:"PROMPTS_API_TOKEN"`
	ProjectID         int64         `yaml:"project_id" env:"DEFAULT_PROJECT_ID" env-default:"1"`
	Timeout           time.Duration `yaml:"timeout" env:"HTTP_CLIENT_TIMEOUT" env-default:"30s"`
	IntegrationsFile  string        `yaml:"integrations_file" env:"INTEGRATIONS_FILE" env-default:"integrations.yaml"`
	LogLevel          string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	// Нужен только команде watch
	RabbitMQURL string `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
}

// LoadREPLConfig читает YAML-файл и переменные окружения.
// Если файла нет, конфигурация берется только из окружения.
func LoadREPLConfig(path string) (*REPLConfig, error) {
	var cfg REPLConfig
	if path != "" {
		err := cleanenv.ReadConfig(path, &cfg)
		if err == nil {
			return &cfg, nil
		}
		log.Printf("Warning: failed to read config file '%s': %v. Falling back to environment.", path, err)
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load promptctl config: %w", err)
	}
	return &cfg, nil
}
