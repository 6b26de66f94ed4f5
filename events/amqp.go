package events

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultAMQPExchange is the exchange events are published to when none is
// configured.
const DefaultAMQPExchange = "oauth.events"

// AMQPSink publishes events as JSON messages to an AMQP topic exchange.
// The routing key is the event type, so consumers can bind selectively
// (e.g. "token_*").
type AMQPSink struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

var _ Sink = (*AMQPSink)(nil)

// NewAMQPSink dials the broker, opens a channel, and declares the exchange.
func NewAMQPSink(url, exchange string, logger *slog.Logger) (*AMQPSink, error) {
	if exchange == "" {
		exchange = DefaultAMQPExchange
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare AMQP exchange: %w", err)
	}

	logger.Info("Connected AMQP event sink", "exchange", exchange)

	return &AMQPSink{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Name implements Sink.
func (s *AMQPSink) Name() string { return "amqp" }

// Emit publishes the event JSON with the event type as routing key.
func (s *AMQPSink) Emit(ctx context.Context, event *AuthEvent) error {
	body, err := event.JSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	if err := s.channel.PublishWithContext(ctx,
		s.exchange,
		string(event.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   event.ID,
			Timestamp:   event.Timestamp,
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// HealthCheck reports whether the broker connection is still open.
func (s *AMQPSink) HealthCheck(_ context.Context) bool {
	return s.conn != nil && !s.conn.IsClosed()
}

// Close releases the channel and connection.
func (s *AMQPSink) Close() error {
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			s.logger.Warn("Failed to close AMQP channel", "error", err)
		}
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
