package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const dialTimeout = 3 * time.Second

// Publisher publishes SlotEvents to a durable queue. A connection is
// opened per publish; transitions are rare enough that pooling is not
// needed.
type Publisher struct {
	url    string
	queue  string
	logger *zap.Logger
}

// NewPublisher returns a Publisher for the queue at url.
func NewPublisher(url, queue string, logger *zap.Logger) *Publisher {
	return &Publisher{url: url, queue: queue, logger: logger}
}

// Publish sends the event as a persistent JSON message. Errors are logged
// and returned so the caller can ignore them.
func (p *Publisher) Publish(ctx context.Context, ev SlotEvent) error {
	if err := p.publish(ctx, ev); err != nil {
		p.logger.Warn("publish slot event failed", zap.String("type", ev.Type), zap.Error(err))
		return err
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, ev SlotEvent) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := declare(ch, p.queue); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// declare makes sure the durable queue exists.
func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("queue declare: %w", err)
	}
	return q, nil
}
