package audit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/sarlens/analyzer/internal/domain"
)

const publishTimeout = 5 * time.Second

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQPSink publishes each audit record as a persistent message on a durable
// topic exchange.
type AMQPSink struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	pub        publisher
	exchange   string
	routingKey string
}

// NewAMQPSink dials the broker and declares the exchange.
func NewAMQPSink(url, exchange, routingKey string) (*AMQPSink, error) {
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
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPSink{
		conn:       conn,
		channel:    channel,
		pub:        channel,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Append(ctx context.Context, rec domain.AuditRecord) error {
	line, err := EncodeLine(rec)
	if err != nil {
		return &SinkError{Sink: s.Name(), Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = s.pub.PublishWithContext(
		ctx,
		s.exchange,   // exchange
		s.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         bytes.TrimSuffix(line, []byte("\n")),
		},
	)
	if err != nil {
		return &SinkError{Sink: s.Name(), Err: fmt.Errorf("publish message: %w", err)}
	}

	slog.DebugContext(ctx, "Published audit record",
		"component", "audit",
		"exchange", s.exchange,
		"routing_key", s.routingKey,
		"risk_score", rec.RiskScore)
	return nil
}

func (s *AMQPSink) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
