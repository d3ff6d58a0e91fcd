package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"prompt-studio/internal/client"
	"prompt-studio/internal/config"
	"prompt-studio/internal/provider"
	"prompt-studio/internal/service"
	"prompt-studio/internal/viewmodel"
	"prompt-studio/shared/interfaces"
	sharedLogger "prompt-studio/shared/logger"
	"prompt-studio/shared/messaging"
)

func main() {
	configPath := flag.String("config", "promptctl.yaml", "path to YAML config")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: promptctl [-config file] [watch]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.LoadREPLConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Логи идут в stderr, вывод команд в stdout
	logCfg := sharedLogger.Config{Level: cfg.LogLevel, Encoding: "console"}
	sharedLogger.SetupZerolog(logCfg, os.Stderr)
	logger, err := sharedLogger.New(sharedLogger.Config{Level: cfg.LogLevel, Encoding: "console", OutputPath: "stderr"})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch flag.Arg(0) {
	case "":
		err = runREPL(ctx, cfg, logger, os.Stdin, os.Stdout)
	case "watch":
		err = runWatch(ctx, cfg, logger, os.Stdout)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("promptctl failed")
	}
}

func runREPL(ctx context.Context, cfg *config.REPLConfig, logger *zap.Logger, in io.Reader, out io.Writer) error {
	integrations, err := config.LoadIntegrations(cfg.IntegrationsFile)
	if err != nil {
		return fmt.Errorf("failed to load integrations: %w", err)
	}

	promptsClient, err := client.NewPromptsClient(client.URLBuilder{
		BaseURL:    cfg.PromptsAPIURL,
		APIVersion: cfg.PromptsAPIVersion,
		Mode:       cfg.PromptsAPIMode,
	}, cfg.Timeout, logger)
	if err != nil {
		return fmt.Errorf("failed to create prompts client: %w", err)
	}
	if cfg.AuthToken != "" {
		promptsClient.SetAuthToken(cfg.AuthToken)
	}

	svc := service.NewPromptService(promptsClient, interfaces.NopPromptEventPublisher{})
	r := newREPL(cfg.ProjectID, svc, svc, provider.NewRegistry(integrations), consoleNotifier(out), in, out)
	return r.Run(ctx)
}

// runWatch печатает события изменения промптов, пока не придет сигнал.
func runWatch(ctx context.Context, cfg *config.REPLConfig, logger *zap.Logger, out io.Writer) error {
	if cfg.RabbitMQURL == "" {
		return fmt.Errorf("rabbitmq_url is not configured")
	}
	conn, err := messaging.Connect(cfg.RabbitMQURL, 3, 2*time.Second, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	consumer, err := messaging.NewPromptEventConsumer(conn, messaging.PromptEventHandlerFunc(func(e interfaces.PromptEvent) {
		fmt.Fprintf(out, "%s project=%d prompt=%d %s %s", time.Now().Format("15:04:05"), e.ProjectID, e.PromptID, e.Entity, e.EventType)
		if e.ID != 0 {
			fmt.Fprintf(out, " id=%d", e.ID)
		}
		fmt.Fprintln(out)
	}), logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	log.Info().Msg("Watching prompt events, press Ctrl+C to stop")
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func consoleNotifier(out io.Writer) viewmodel.Notifier {
	return viewmodel.NotifierFunc(func(level viewmodel.Level, message string) {
		fmt.Fprintf(out, "[%s] %s\n", level, message)
	})
}
