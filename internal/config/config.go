package config

import (
	"fmt"
	"strings"
	"time"

	"prompt-studio/shared/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Допустимые значения SESSION_BACKEND и CHAT_RUNNER.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	ChatRunnerBackend = "backend"
	ChatRunnerOpenAI  = "openai"
	ChatRunnerOllama  = "ollama"
)

// Config хранит конфигурацию сервера prompt-studio
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	ServerPort  string `envconfig:"ADMIN_SERVER_PORT" default:"8085"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// Бэкенд промптов
	PromptsAPIURL     string        `envconfig:"PROMPTS_API_URL" required:"true"`
	PromptsAPIVersion int           `envconfig:"PROMPTS_API_VERSION" default:"1"`
	PromptsAPIMode    string        `envconfig:"PROMPTS_API_MODE" default:"default"`
	ClientTimeout     time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"10s"`
	DefaultProjectID  int64         `envconfig:"DEFAULT_PROJECT_ID" default:"1"`
	IntegrationsFile  string        `envconfig:"INTEGRATIONS_FILE" default:"integrations.yaml"`

	// Сессии
	SessionBackend string        `envconfig:"SESSION_BACKEND" default:"memory"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`

	// Пусто - события не публикуются
	RabbitMQURL string `envconfig:"RABBITMQ_URL"`

	// Прямые AI-раннеры
	ChatRunner  string        `envconfig:"CHAT_RUNNER" default:"backend"`
	AIBaseURL   string        `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel     string        `envconfig:"AI_MODEL" default:"deepseek/deepseek-chat"`
	AITimeout   time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	// Сколько запросов к AI (чат и прогон) разрешено одной сессии в минуту. 0 - без ограничений.
	AIRateLimit uint          `envconfig:"AI_RATE_LIMIT" default:"20"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Секреты без envconfig тега
	SessionSecret   string `ignored:"true"`
	AIAPIKey        string `ignored:"true"`
	PromptsAPIToken string `ignored:"true"`
}

// LoadConfig загружает конфигурацию из .env, переменных окружения и секретов
func LoadConfig(logger *zap.Logger) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	secret, err := utils.ReadSecret("session_secret")
	if err != nil {
		return nil, err
	}
	cfg.SessionSecret = secret

	// Ключ нужен только прямым раннерам
	cfg.AIAPIKey = utils.ReadOptionalSecret("ai_api_key")
	cfg.PromptsAPIToken = utils.ReadOptionalSecret("prompts_api_token")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("Prompt studio config loaded",
			zap.String("env", cfg.Env),
			zap.String("port", cfg.ServerPort),
			zap.String("promptsApiUrl", cfg.PromptsAPIURL),
			zap.Int("promptsApiVersion", cfg.PromptsAPIVersion),
			zap.String("promptsApiMode", cfg.PromptsAPIMode),
			zap.Duration("clientTimeout", cfg.ClientTimeout),
			zap.String("sessionBackend", cfg.SessionBackend),
			zap.String("chatRunner", cfg.ChatRunner),
			zap.Bool("rabbitmqEnabled", cfg.RabbitMQURL != ""),
			zap.Bool("aiApiKeyLoaded", cfg.AIAPIKey != ""),
			zap.Bool("promptsApiTokenLoaded", cfg.PromptsAPIToken != ""),
		)
	}
	return &cfg, nil
}

// Validate проверяет значения-перечисления.
func (c *Config) Validate() error {
	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
	switch c.SessionBackend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}

	c.ChatRunner = strings.ToLower(strings.TrimSpace(c.ChatRunner))
	switch c.ChatRunner {
	case ChatRunnerBackend, ChatRunnerOllama:
	case ChatRunnerOpenAI:
		if c.AIAPIKey == "" {
			return fmt.Errorf("CHAT_RUNNER=%s requires the ai_api_key secret", c.ChatRunner)
		}
	default:
		return fmt.Errorf("unknown CHAT_RUNNER %q", c.ChatRunner)
	}

	if c.PromptsAPIVersion <= 0 {
		return fmt.Errorf("PROMPTS_API_VERSION must be positive, got %d", c.PromptsAPIVersion)
	}
	return nil
}
