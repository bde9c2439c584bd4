package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const defaultDialTimeout = 3 * time.Second

// AMQPPublisher pushes alerts to a durable queue. Every alert is also logged,
// so a broker outage never loses the record entirely.
type AMQPPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	log         *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher connects lazily. dialTimeout bounds the TCP connect and
// the AMQP handshake, so a dead broker cannot stall callers of Publish.
func NewAMQPPublisher(url, queue string, dialTimeout time.Duration, log *zap.Logger) *AMQPPublisher {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	return &AMQPPublisher{
		url:         url,
		queue:       queue,
		dialTimeout: dialTimeout,
		log:         log.With(zap.String("component", "alert"), zap.String("queue", queue)),
	}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.DialConfig(p.url, amqp.Config{
			Locale: "en_US",
			Dial:   amqp.DefaultDial(p.dialTimeout),
		})
		if err != nil {
			return nil, fmt.Errorf("dial rabbitmq: %w", err)
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		p.queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	p.ch = ch
	return ch, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, a Alert) error {
	if a.OccurredAt.IsZero() {
		a.OccurredAt = time.Now().UTC()
	}
	p.log.Error("RECONCILIATION ALERT", a.fields()...)

	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.log.Error("Alert not delivered to broker", zap.Error(err))
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    a.OccurredAt,
			Type:         string(a.Kind),
			Body:         body,
		},
	)
	if err != nil {
		// drop the channel so the next publish reconnects
		_ = ch.Close()
		p.ch = nil
		p.log.Error("Alert not delivered to broker", zap.Error(err))
		return fmt.Errorf("publish alert: %w", err)
	}

	return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}
