package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"harvester/internal/domain"
)

// MessageType — тип события аккаунта.
type MessageType string

// Типы событий.
const (
	MessageTypeQuarantined MessageType = "account.quarantined"
	MessageTypeRegistered  MessageType = "account.registered"
)

// Message — событие для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип события.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// QuarantinedPayload — аккаунт выведен из фермы.
type QuarantinedPayload struct {
	Email  string                  `json:"email"`
	Reason domain.QuarantineReason `json:"reason"`
}

// RegisteredPayload — аккаунт успешно зарегистрирован.
type RegisteredPayload struct {
	Email string `json:"email"`
}

// Publisher публикует события аккаунтов. Nil-безопасен: методы на
// nil-publisher — no-op, ферма работает без RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{conn: conn, logger: logger}
}

// publish сериализует и отправляет событие.
func (p *Publisher) publish(ctx context.Context, key RoutingKey, msgType MessageType, payload any) error {
	if p == nil {
		return nil
	}

	ch := p.conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	msg := Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = ch.PublishWithContext(
		ctx,
		string(ExchangeAccounts),
		string(key),
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msgType, err)
	}

	p.logger.Debug("published account event",
		"type", msgType,
		"message_id", msg.ID,
	)
	return nil
}

// PublishQuarantined публикует событие карантина аккаунта.
func (p *Publisher) PublishQuarantined(ctx context.Context, email string, reason domain.QuarantineReason) error {
	return p.publish(ctx, RoutingKeyQuarantined, MessageTypeQuarantined, QuarantinedPayload{
		Email:  email,
		Reason: reason,
	})
}

// PublishRegistered публикует событие успешной регистрации.
func (p *Publisher) PublishRegistered(ctx context.Context, email string) error {
	return p.publish(ctx, RoutingKeyRegistered, MessageTypeRegistered, RegisteredPayload{Email: email})
}
