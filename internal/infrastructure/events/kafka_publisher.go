package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
)

var _ inventory.EventPublisher = (*KafkaPublisher)(nil)

// MessageWriter lo que el publisher necesita de kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publica eventos JSON en un tópico. La clave del mensaje es el id de pedido
// (o el código de material), así los eventos de un mismo pedido conservan su orden.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

// DefaultPublishTimeout tope de cada Publish, reintentos del writer incluidos.
const DefaultPublishTimeout = 5 * time.Second

// NewKafkaWriter construye el writer de kafka-go con balanceo por hash de clave.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		WriteTimeout:           DefaultPublishTimeout,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, timeout: DefaultPublishTimeout}
}

// WithTimeout reemplaza el tope por publicación; d <= 0 lo deja sin tope.
func (p *KafkaPublisher) WithTimeout(d time.Duration) *KafkaPublisher {
	p.timeout = d
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, e entity.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", e.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(e.PartitionKey()),
		Value: payload,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
			{Key: "event_id", Value: []byte(e.ID)},
		},
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar evento %s: %w", e.Type, err)
	}
	return nil
}

// Close vacía y cierra el writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
