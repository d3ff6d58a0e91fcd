package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir - стандартный путь Docker Secrets. Переменная, чтобы тесты могли ее подменить.
var SecretsDir = "/run/secrets"

// ReadSecret читает секрет из файла в SecretsDir. Если файла нет, берется
// переменная окружения с именем секрета в верхнем регистре (session_secret -> SESSION_SECRET).
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", filePath)
		}
		return secret, nil
	}

	envName := strings.ToUpper(secretName)
	if value, ok := os.LookupEnv(envName); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), nil
	}
	return "", fmt.Errorf("failed to read secret file %s and env %s is not set: %w", filePath, envName, err)
}

// ReadOptionalSecret работает как ReadSecret, но отсутствие секрета не считает ошибкой.
func ReadOptionalSecret(secretName string) string {
	secret, err := ReadSecret(secretName)
	if err != nil {
		return ""
	}
	return secret
}
