package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"prompt-studio/shared/interfaces"
)

// PromptEventHandler получает события изменения промптов.
type PromptEventHandler interface {
	HandlePromptEvent(event interfaces.PromptEvent)
}

// PromptEventHandlerFunc позволяет использовать функцию как PromptEventHandler.
type PromptEventHandlerFunc func(event interfaces.PromptEvent)

func (f PromptEventHandlerFunc) HandlePromptEvent(event interfaces.PromptEvent) { f(event) }

// PromptEventConsumer слушает exchange prompt_updates через временную эксклюзивную очередь.
type PromptEventConsumer struct {
	ch          *amqp091.Channel
	handler     PromptEventHandler
	logger      *zap.Logger
	queueName   string
	consumerTag string
}

func NewPromptEventConsumer(conn *amqp091.Connection, handler PromptEventHandler, logger *zap.Logger) (*PromptEventConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	if handler == nil {
		return nil, fmt.Errorf("prompt event handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	consumerTag := fmt.Sprintf("prompt_event_consumer_%d", time.Now().UnixNano())
	c := &PromptEventConsumer{
		handler:     handler,
		logger:      logger.Named("PromptEventConsumer").With(zap.String("consumerTag", consumerTag)),
		consumerTag: consumerTag,
	}
	if err := c.setupChannelAndQueue(conn); err != nil {
		return nil, err
	}

	c.logger.Info("PromptEventConsumer initialized", zap.String("exchange", ExchangePromptUpdates), zap.String("queue", c.queueName))
	return c, nil
}

// setupChannelAndQueue создает канал, объявляет exchange, очередь и биндинг.
func (c *PromptEventConsumer) setupChannelAndQueue(conn *amqp091.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangePromptUpdates,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare exchange '%s': %w", ExchangePromptUpdates, err)
	}

	// Имя очереди выдает брокер
	q, err := ch.QueueDeclare(
		"",
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", ExchangePromptUpdates, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", q.Name, ExchangePromptUpdates, err)
	}

	c.ch = ch
	c.queueName = q.Name
	return nil
}

// Run получает сообщения до отмены ctx или закрытия канала.
func (c *PromptEventConsumer) Run(ctx context.Context) error {
	deliveries, err := c.ch.Consume(
		c.queueName,
		c.consumerTag,
		false, // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("Listening for prompt events")
	for {
		select {
		case <-ctx.Done():
			if err := c.ch.Cancel(c.consumerTag, false); err != nil {
				c.logger.Warn("Failed to cancel consumer", zap.Error(err))
			}
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handleDelivery(d)
		}
	}
}

func (c *PromptEventConsumer) handleDelivery(d amqp091.Delivery) {
	var event interfaces.PromptEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		c.logger.Error("Failed to unmarshal prompt event", zap.Error(err), zap.String("messageId", d.MessageId))
		// Битое сообщение не переотправляем
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}

	c.handler.HandlePromptEvent(event)

	if err := d.Ack(false); err != nil {
		c.logger.Error("Failed to acknowledge message", zap.Error(err))
	}
}

// Close закрывает канал консьюмера.
func (c *PromptEventConsumer) Close() error {
	if c.ch != nil {
		return c.ch.Close()
	}
	return nil
}
