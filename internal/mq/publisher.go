package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/ghreport/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunRequested MessageType = "run.requested"
	MessageTypeRunCompleted MessageType = "run.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// RunRequestedPayload — запрос внепланового запуска.
type RunRequestedPayload struct {
	// ResetDatabase — удалить базу перед подключением (как update --delete).
	ResetDatabase bool `json:"reset_database"`

	// RequestedBy — кто запросил (пользователь или хост).
	RequestedBy string `json:"requested_by,omitempty"`
}

// RunCompletedPayload — итог run.
type RunCompletedPayload struct {
	RunID      uuid.UUID        `json:"run_id"`
	Day        string           `json:"day"`
	Trigger    string           `json:"trigger"`
	Status     domain.RunStatus `json:"status"`
	ReportPath string           `json:"report_path,omitempty"`
	Error      string           `json:"error,omitempty"`
	Warnings   string           `json:"warnings,omitempty"`
	DurationMs int64            `json:"duration_ms"`
}

// NewRunCompletedPayload собирает payload из run.
func NewRunCompletedPayload(run *domain.Run) RunCompletedPayload {
	return RunCompletedPayload{
		RunID:      run.ID,
		Day:        run.Day,
		Trigger:    run.Trigger,
		Status:     run.Status,
		ReportPath: run.ReportPath,
		Error:      run.Error,
		Warnings:   run.Warnings,
		DurationMs: run.Duration().Milliseconds(),
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
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

// PublishRunRequested публикует запрос внепланового запуска.
// Потребитель: scheduler daemon.
func (p *Publisher) PublishRunRequested(ctx context.Context, payload RunRequestedPayload) error {
	return p.Publish(ctx, ExchangeRuns, RoutingKeyRequested, newMessage(MessageTypeRunRequested, payload))
}

// PublishRunCompleted публикует итог run.
func (p *Publisher) PublishRunCompleted(ctx context.Context, run *domain.Run) error {
	return p.Publish(ctx, ExchangeRuns, RoutingKeyCompleted, newMessage(MessageTypeRunCompleted, NewRunCompletedPayload(run)))
}

func newMessage(t MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}
