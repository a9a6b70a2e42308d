package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/streadway/amqp"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// RabbitMQSink publica cada evento en un exchange topic con routing key stock.<tipo>
// en modo confirmación (cada publicación espera el ack del broker).
type RabbitMQSink struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	confirms chan amqp.Confirmation
}

// NewRabbitMQSink conecta, declara el exchange y activa el modo confirmación.
func NewRabbitMQSink(url, exchange string) (*RabbitMQSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open producer channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("producer channel could not be put into confirm mode: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	return &RabbitMQSink{conn: conn, ch: ch, exchange: exchange, confirms: confirms}, nil
}

// Name implementa Sink.
func (s *RabbitMQSink) Name() string { return "rabbitmq" }

// RoutingKey clave de enrutamiento del evento.
func RoutingKey(ev entity.StockEvent) string {
	return "stock." + strings.ToLower(string(ev.MovementType))
}

// Publish implementa Sink.
func (s *RabbitMQSink) Publish(ctx context.Context, ev entity.StockEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.ch.Publish(s.exchange, RoutingKey(ev), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.MovementID,
		Timestamp:    ev.Timestamp,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	select {
	case confirm, ok := <-s.confirms:
		if !ok {
			return errors.New("channel closed before confirmation")
		}
		if !confirm.Ack {
			return errors.New("message published but not confirmed")
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish confirmation: %w", ctx.Err())
	}
}

// Close cierra canal y conexión.
func (s *RabbitMQSink) Close() error {
	_ = s.ch.Close()
	return s.conn.Close()
}
