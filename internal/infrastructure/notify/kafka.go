package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// MessageWriter subconjunto de *kafka.Writer usado por el sumidero.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publica los eventos en un tópico; la clave es el producto para conservar
// el orden por producto dentro de la partición.
type KafkaSink struct {
	w MessageWriter
}

// NewKafkaWriter construye el writer para los brokers y tópico indicados.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaSink construye el sumidero sobre un writer.
func NewKafkaSink(w MessageWriter) *KafkaSink {
	return &KafkaSink{w: w}
}

// Name implementa Sink.
func (s *KafkaSink) Name() string { return "kafka" }

// Publish implementa Sink.
func (s *KafkaSink) Publish(ctx context.Context, ev entity.StockEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal stock event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.ProductID),
		Value: payload,
		Time:  ev.Timestamp,
		Headers: []kafka.Header{
			{Key: "movement_type", Value: []byte(ev.MovementType)},
		},
	}
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

// Close cierra el writer.
func (s *KafkaSink) Close() error {
	return s.w.Close()
}
