package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"prompt-studio/shared/interfaces"
)

const (
	// ExchangePromptUpdates - Имя exchange для обновлений промптов.
	ExchangePromptUpdates = "prompt_updates"
)

// RabbitMQPromptPublisher реализует интерфейс PromptEventPublisher для RabbitMQ.
type RabbitMQPromptPublisher struct {
	ch *amqp091.Channel
}

// NewRabbitMQPromptPublisher открывает канал на соединении conn и объявляет fanout exchange.
// Переподключения не выполняются: соединение принадлежит вызывающему коду.
func NewRabbitMQPromptPublisher(conn *amqp091.Connection) (*RabbitMQPromptPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open a channel")
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangePromptUpdates, // name
		"fanout",              // type
		true,                  // durable
		false,                 // auto-deleted
		false,                 // internal
		false,                 // no-wait
		nil,                   // arguments
	)
	if err != nil {
		_ = ch.Close()
		log.Error().Err(err).Str("exchange", ExchangePromptUpdates).Msg("Failed to declare exchange")
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", ExchangePromptUpdates, err)
	}

	log.Info().Str("exchange", ExchangePromptUpdates).Msg("Prompt update exchange declared")

	return &RabbitMQPromptPublisher{ch: ch}, nil
}

// PublishPromptEvent публикует событие изменения промпта в RabbitMQ.
func (p *RabbitMQPromptPublisher) PublishPromptEvent(ctx context.Context, event interfaces.PromptEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal prompt event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		ExchangePromptUpdates, // exchange
		"",                    // routing key (не используется для fanout)
		false,                 // mandatory
		false,                 // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
			MessageId:   uuid.NewString(),
		},
	)
	if err != nil {
		log.Error().Err(err).Interface("event", event).Msg("Failed to publish prompt event")
		return fmt.Errorf("failed to publish prompt event: %w", err)
	}

	log.Debug().Interface("event", event).Msg("Prompt event published")
	return nil
}

// Close закрывает канал RabbitMQ.
func (p *RabbitMQPromptPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
