// Package queue moves payment reminders through RabbitMQ. The API process
// publishes one message per reminder request and the worker process consumes
// them and hands them to the notification service.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"splitfree/ledger"
	"splitfree/logging"
	"splitfree/models"
)

// ReminderMessage carries everything needed to notify pending participants
// without reading the event back from storage.
type ReminderMessage struct {
	EventID     uint           `json:"eventId"`
	EventName   string         `json:"eventName"`
	CreatedByID uint           `json:"createdById"`
	Pending     []PendingShare `json:"pending"`
	Timestamp   time.Time      `json:"timestamp"`
}

type PendingShare struct {
	ParticipantID uint            `json:"participantId"`
	UserID        uint            `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
}

func NewReminderMessage(event models.Event, pending []models.Participant) *ReminderMessage {
	msg := &ReminderMessage{
		EventID:     event.ID,
		EventName:   event.Name,
		CreatedByID: event.CreatedByID,
		Pending:     make([]PendingShare, 0, len(pending)),
		Timestamp:   time.Now(),
	}
	for _, p := range pending {
		msg.Pending = append(msg.Pending, PendingShare{
			ParticipantID: p.ID,
			UserID:        p.UserID,
			Amount:        p.Amount,
		})
	}
	return msg
}

// Event rebuilds the event and pending participants the message was made
// from. Only the fields a reminder needs are populated.
func (m *ReminderMessage) Event() (models.Event, []models.Participant) {
	event := models.Event{ID: m.EventID, Name: m.EventName, CreatedByID: m.CreatedByID}
	pending := make([]models.Participant, 0, len(m.Pending))
	for _, p := range m.Pending {
		pending = append(pending, models.Participant{
			ID:      p.ParticipantID,
			EventID: m.EventID,
			UserID:  p.UserID,
			Amount:  p.Amount,
			Status:  models.ParticipantPending,
		})
	}
	return event, pending
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp091.Table) (<-chan amqp091.Delivery, error)
	Close() error
}

type Client struct {
	conn         *amqp091.Connection
	channel      channel
	exchangeName string
	queueName    string
	log          *slog.Logger
}

func NewClient(url, exchangeName, queueName string, log *slog.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := setup(ch, exchangeName, queueName); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return &Client{
		conn:         conn,
		channel:      ch,
		exchangeName: exchangeName,
		queueName:    queueName,
		log:          logging.Component(log, "queue"),
	}, nil
}

// setup declares a durable direct exchange and a queue bound to it under
// its own name.
func setup(ch *amqp091.Channel, exchangeName, queueName string) error {
	if err := ch.ExchangeDeclare(exchangeName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// RemindPending publishes the reminder so the worker can deliver it. It
// satisfies ledger.Reminder.
func (c *Client) RemindPending(ctx context.Context, event models.Event, pending []models.Participant) error {
	body, err := json.Marshal(NewReminderMessage(event, pending))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.exchangeName, c.queueName, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.log.InfoContext(ctx, "published reminder",
		"event_id", event.ID,
		"pending", len(pending),
		"exchange", c.exchangeName,
		"queue", c.queueName)
	return nil
}

// Consume delivers queued reminders to r until ctx is cancelled. Malformed
// messages are dropped. A failed delivery is requeued once; a partly
// delivered reminder is acknowledged.
func (c *Client) Consume(ctx context.Context, r ledger.Reminder) error {
	deliveries, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.log.InfoContext(ctx, "consuming reminders", "queue", c.queueName)
	for {
		select {
		case <-ctx.Done():
			c.log.InfoContext(ctx, "stopping reminder consumption", "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			process(ctx, c.log, d.Body, d.Redelivered, d, r)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func process(ctx context.Context, log *slog.Logger, body []byte, redelivered bool, ack acknowledger, r ledger.Reminder) {
	var msg ReminderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.ErrorContext(ctx, "failed to unmarshal reminder", "error", err)
		settle(ctx, log, ack.Nack(false, false))
		return
	}

	event, pending := msg.Event()
	err := r.RemindPending(ctx, event, pending)

	// Redelivering a partly sent reminder would notify the reached
	// participants twice, so only a complete failure is requeued.
	var delivery *ledger.DeliveryError
	if errors.As(err, &delivery) && delivery.Partial() {
		log.WarnContext(ctx, "reminder partly delivered",
			"event_id", msg.EventID,
			"failed_participants", delivery.Failed,
			"error", err)
		settle(ctx, log, ack.Ack(false))
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "failed to deliver reminder", "event_id", msg.EventID, "redelivered", redelivered, "error", err)
		settle(ctx, log, ack.Nack(false, !redelivered))
		return
	}

	settle(ctx, log, ack.Ack(false))
	log.InfoContext(ctx, "delivered reminder", "event_id", msg.EventID, "pending", len(pending))
}

// settle logs a failed ack or nack. The broker redelivers the message once
// the channel closes, so there is nothing else to do.
func settle(ctx context.Context, log *slog.Logger, err error) {
	if err != nil {
		log.ErrorContext(ctx, "failed to acknowledge reminder", "error", err)
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
