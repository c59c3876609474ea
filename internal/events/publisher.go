// Package events publishes domain events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/safar/agrocart/internal/models"
)

const OrderPlaced = "order.placed"

type Event struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Order      models.Order `json:"order"`
}

type Publisher struct {
	pool      *ChannelPool
	queueName string
	timeout   time.Duration
	logger    *slog.Logger
}

func NewPublisher(pool *ChannelPool, queueName string, logger *slog.Logger) *Publisher {
	return &Publisher{
		pool:      pool,
		queueName: queueName,
		timeout:   5 * time.Second,
		logger:    logger,
	}
}

// PublishOrder sends an order.placed event to the orders queue.
func (p *Publisher) PublishOrder(ctx context.Context, order models.Order) error {
	msg, err := orderPlacedMessage(order)
	if err != nil {
		return err
	}

	ch, err := p.pool.Get()
	if err != nil {
		return fmt.Errorf("get channel from pool: %w", err)
	}
	defer p.pool.Put(ch)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, msg); err != nil {
		return fmt.Errorf("publish order: %w", err)
	}

	p.logger.Info("published order", "order_id", order.ID, "queue", p.queueName)
	return nil
}

func orderPlacedMessage(order models.Order) (amqp.Publishing, error) {
	body, err := json.Marshal(Event{
		Type:       OrderPlaced,
		OccurredAt: order.CreatedAt,
		Order:      order,
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal order: %w", err)
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         OrderPlaced,
		MessageId:    order.ID,
		Timestamp:    order.CreatedAt,
		Body:         body,
	}, nil
}
