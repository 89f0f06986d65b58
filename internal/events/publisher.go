// Package events publishes ledger events to an AMQP broker so downstream
// consumers (notifications, exports) can react without coupling to the
// request path. Publishing is best-effort: a failed publish is logged by the
// caller, never surfaced to the user.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/splitbook/splitbook/internal/models"
)

// Publisher emits ledger events.
type Publisher interface {
	ExpenseRecorded(ctx context.Context, expense *models.Expense) error
	DebtSettled(ctx context.Context, entry *models.DebtEntry) error
	Close() error
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) ExpenseRecorded(context.Context, *models.Expense) error { return nil }
func (NopPublisher) DebtSettled(context.Context, *models.DebtEntry) error   { return nil }
func (NopPublisher) Close() error                                           { return nil }

// AMQPPublisher publishes events to a durable direct exchange.
type AMQPPublisher struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchangeName string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"direct",     // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: channel, exchangeName: exchangeName}, nil
}

// ExpenseRecorded publishes an expense.recorded message.
func (p *AMQPPublisher) ExpenseRecorded(ctx context.Context, expense *models.Expense) error {
	msg := &ExpenseRecordedMessage{
		ExpenseID: expense.ID,
		GroupID:   expense.GroupID,
		PayerID:   expense.PayerID,
		Amount:    expense.Amount.Amount,
		Currency:  expense.Amount.Currency,
		Timestamp: time.Now(),
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return p.publish(ctx, KeyExpenseRecorded, body)
}

// DebtSettled publishes a debt.settled message.
func (p *AMQPPublisher) DebtSettled(ctx context.Context, entry *models.DebtEntry) error {
	msg := &DebtSettledMessage{
		EntryID:    entry.ID,
		GroupID:    entry.GroupID,
		DebtorID:   entry.DebtorID,
		CreditorID: entry.CreditorID,
		Amount:     entry.Amount.Amount,
		Currency:   entry.Amount.Currency,
		Timestamp:  time.Now(),
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return p.publish(ctx, KeyDebtSettled, body)
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := p.channel.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
