package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"prompt-studio/internal/client"
	"prompt-studio/internal/config"
	"prompt-studio/internal/handler"
	"prompt-studio/internal/provider"
	"prompt-studio/internal/service"
	"prompt-studio/internal/session"
	"prompt-studio/internal/viewmodel"
	"prompt-studio/internal/web"
	"prompt-studio/shared/interfaces"
	sharedLogger "prompt-studio/shared/logger"
	"prompt-studio/shared/messaging"
	sharedMiddleware "prompt-studio/shared/middleware"
)

func main() {
	// Стандартный log нужен до инициализации zap
	log.Println("Starting prompt-studio...")

	cfg, err := config.LoadConfig(nil)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := sharedLogger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding}
	logger, err := sharedLogger.New(logCfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	sharedLogger.SetupZerolog(logCfg, os.Stdout)
	zap.ReplaceGlobals(logger)

	logger.Info("Config loaded",
		zap.String("env", cfg.Env),
		zap.String("promptsApiUrl", cfg.PromptsAPIURL),
		zap.String("sessionBackend", cfg.SessionBackend),
		zap.String("chatRunner", cfg.ChatRunner),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Интеграции ---
	integrations, err := config.LoadIntegrations(cfg.IntegrationsFile)
	if err != nil {
		logger.Fatal("Failed to load integrations", zap.Error(err))
	}
	registry := provider.NewRegistry(integrations)
	logger.Info("Integrations loaded", zap.Int("count", len(integrations)))

	// --- Клиент бэкенда промптов ---
	promptsClient, err := client.NewPromptsClient(client.URLBuilder{
		BaseURL:    cfg.PromptsAPIURL,
		APIVersion: cfg.PromptsAPIVersion,
		Mode:       cfg.PromptsAPIMode,
	}, cfg.ClientTimeout, logger)
	if err != nil {
		logger.Fatal("Failed to create prompts client", zap.Error(err))
	}
	if cfg.PromptsAPIToken != "" {
		promptsClient.SetAuthToken(cfg.PromptsAPIToken)
	} else {
		logger.Warn("prompts_api_token is not set, requests to the prompts API are unauthenticated")
	}

	// --- События ---
	var publisher interfaces.PromptEventPublisher = interfaces.NopPromptEventPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := messaging.Connect(cfg.RabbitMQURL, 5, 5*time.Second, logger)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer conn.Close()

		rabbitPublisher, err := messaging.NewRabbitMQPromptPublisher(conn)
		if err != nil {
			logger.Fatal("Failed to create prompt event publisher", zap.Error(err))
		}
		defer func() {
			if err := rabbitPublisher.Close(); err != nil {
				logger.Error("Failed to close prompt event publisher", zap.Error(err))
			}
		}()
		publisher = rabbitPublisher
	} else {
		logger.Info("RABBITMQ_URL is not set, prompt events are disabled")
	}

	promptService := service.NewPromptService(promptsClient, publisher)

	runner, err := newChatRunner(cfg, promptService, registry, logger)
	if err != nil {
		logger.Fatal("Failed to create chat runner", zap.Error(err))
	}

	// --- Сессии ---
	store, rdb, closeStore := newSessionStore(rootCtx, cfg, logger)
	defer closeStore()

	codec, err := session.NewCookieCodec(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Fatal("Failed to create session cookie codec", zap.Error(err))
	}

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	renderer, err := web.NewTemplateRenderer(os.Getenv("TEMPLATES_DIR"), cfg.Env == "development" && os.Getenv("TEMPLATES_DIR") != "", logger, nil)
	if err != nil {
		logger.Fatal("Failed to load templates", zap.Error(err))
	}

	router := gin.New()
	router.HTMLRender = renderer
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())
	router.Use(handler.CustomErrorMiddleware(logger))

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 || (len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", sharedMiddleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	secureCookies := cfg.Env == "production"
	ui := router.Group("/", handler.SessionMiddleware(codec, secureCookies, logger))
	promptHandler := handler.NewPromptHandler(promptService, runner, store, registry, handler.Config{
		DefaultProjectID: cfg.DefaultProjectID,
		FlashSecret:      []byte(cfg.SessionSecret),
		SecureCookies:    secureCookies,
		AILimiter:        newAILimiter(cfg, rdb, secureCookies, logger),
	}, logger)
	promptHandler.RegisterRoutes(ui)

	// /metrics регистрируется после маршрутов приложения; метрики клиента
	// и раннеров попадают в тот же default registry.
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AITimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	<-rootCtx.Done()
	logger.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// newChatRunner выбирает, куда отправляются сообщения чата.
func newChatRunner(cfg *config.Config, backend viewmodel.ChatRunner, registry *provider.Registry, logger *zap.Logger) (viewmodel.ChatRunner, error) {
	providerCfg := provider.Config{
		BaseURL: cfg.AIBaseURL,
		APIKey:  cfg.AIAPIKey,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
	}
	switch cfg.ChatRunner {
	case config.ChatRunnerOpenAI:
		return provider.NewOpenAIRunner(providerCfg, registry, logger)
	case config.ChatRunnerOllama:
		return provider.NewOllamaRunner(providerCfg, registry, logger)
	default:
		return backend, nil
	}
}

// newAILimiter возвращает nil, если лимит выключен. С Redis-сессиями
// счетчики тоже живут в Redis и общие для всех реплик.
func newAILimiter(cfg *config.Config, rdb *redis.Client, secure bool, logger *zap.Logger) gin.HandlerFunc {
	if cfg.AIRateLimit == 0 {
		return nil
	}
	var store ratelimit.Store
	if rdb != nil {
		store = ratelimit.RedisStore(&ratelimit.RedisOptions{
			RedisClient: rdb,
			Rate:        time.Minute,
			Limit:       cfg.AIRateLimit,
		})
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Minute,
			Limit: cfg.AIRateLimit,
		})
	}
	logger.Info("AI rate limiter initialized", zap.Uint("perMinute", cfg.AIRateLimit))
	return handler.NewAIRateLimiter(store, []byte(cfg.SessionSecret), secure, logger)
}

// newSessionStore создает хранилище сессий и функцию его закрытия.
// Для Redis-бэкенда возвращается и клиент.
func newSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Store, *redis.Client, func()) {
	if cfg.SessionBackend == config.SessionBackendRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Fatal("Failed to connect to Redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		logger.Info("Using Redis session store", zap.String("addr", cfg.RedisAddr))
		return session.NewRedisStore(rdb, cfg.SessionTTL, logger), rdb, func() {
			if err := rdb.Close(); err != nil {
				logger.Error("Failed to close Redis client", zap.Error(err))
			}
		}
	}

	store := session.NewMemoryStore(cfg.SessionTTL, logger)
	go store.RunJanitor(ctx, time.Minute)
	logger.Info("Using in-memory session store")
	return store, nil, func() {}
}
