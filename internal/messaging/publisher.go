// Package messaging публикует события раздачи для внешних потребителей.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"poker-coach/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// HandEventsExchange - fanout exchange для событий раздачи.
const HandEventsExchange = "poker_coach.hand_events"

const (
	publishTimeout = 5 * time.Second
	publishRetries = 3
)

// HandEventPublisher defines the interface for publishing analysed streets.
type HandEventPublisher interface {
	PublishHandEvent(ctx context.Context, event models.HandEvent) error
	Close() error
}

// Channel - подмножество *amqp.Channel, нужное паблишеру.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type rabbitMQPublisher struct {
	channel  Channel
	exchange string
	logger   *zap.Logger
}

// NewRabbitMQPublisher declares the exchange on ch and returns a publisher
// that owns the channel.
func NewRabbitMQPublisher(ch Channel, exchange string, logger *zap.Logger) (HandEventPublisher, error) {
	if ch == nil {
		return nil, errors.New("hand event publisher: channel is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exchange == "" {
		exchange = HandEventsExchange
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("hand event publisher: не удалось объявить exchange '%s': %w", exchange, err)
	}
	logger.Info("Exchange declared", zap.String("exchange", exchange))
	return &rabbitMQPublisher{channel: ch, exchange: exchange, logger: logger.Named("HandEventPublisher")}, nil
}

// PublishHandEvent сериализует событие и публикует его с несколькими попытками.
func (p *rabbitMQPublisher) PublishHandEvent(ctx context.Context, event models.HandEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка сериализации HandEvent %s: %w", event.EventID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	for attempt := 1; attempt <= publishRetries; attempt++ {
		err = p.channel.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Timestamp:    event.OccurredAt,
			AppId:        "poker-coach",
			Body:         body,
		})
		if err == nil {
			p.logger.Debug("Hand event published", zap.String("eventID", event.EventID), zap.Int("attempt", attempt))
			return nil
		}
		p.logger.Warn("Publish attempt failed", zap.String("eventID", event.EventID), zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("ошибка публикации HandEvent %s: %w", event.EventID, ctx.Err())
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("ошибка публикации HandEvent %s после %d попыток: %w", event.EventID, publishRetries, err)
}

func (p *rabbitMQPublisher) Close() error {
	return p.channel.Close()
}

// NopPublisher используется, когда RabbitMQ не настроен.
type NopPublisher struct{}

func (NopPublisher) PublishHandEvent(context.Context, models.HandEvent) error { return nil }
func (NopPublisher) Close() error                                            { return nil }

// ConnectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func ConnectRabbitMQ(ctx context.Context, url string, maxRetries int, retryDelay time.Duration, logger *zap.Logger) (*amqp.Connection, error) {
	var err error
	for i := 0; i < maxRetries; i++ {
		var conn *amqp.Connection
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Не удалось подключиться к RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxRetries),
			zap.Duration("retry_delay", retryDelay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("rabbitmq: %w", err)
}
