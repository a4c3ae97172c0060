package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeSyncRequested MessageType = "sync.requested"
	MessageTypeSyncCompleted MessageType = "sync.completed"
	MessageTypeSyncFailed    MessageType = "sync.failed"
	MessageTypeSyncDisabled  MessageType = "sync.disabled"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// SyncRequestedPayload — payload запроса внеплановой синхронизации.
// Публикуется API, потребляется scheduler-демоном.
type SyncRequestedPayload struct {
	SubjectID string `json:"subject_id"`
}

// SyncEventPayload — payload события жизненного цикла синхронизации.
type SyncEventPayload struct {
	SubjectID  string `json:"subject_id"`
	RetryCount int    `json:"retry_count"`
	Error      string `json:"error,omitempty"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishSyncRequested публикует запрос внеплановой синхронизации subject.
// Потребитель: scheduler-демон.
func (p *Publisher) PublishSyncRequested(ctx context.Context, subjectID string) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeSyncRequested,
		Payload:   SyncRequestedPayload{SubjectID: subjectID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeSyncs, RoutingKeyRequested, msg)
}

// PublishSyncEvent публикует событие жизненного цикла синхронизации.
// Потребители: внешние подписчики sync.events.
func (p *Publisher) PublishSyncEvent(ctx context.Context, msgType MessageType, payload SyncEventPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, RoutingKeyEvent, msg)
}
