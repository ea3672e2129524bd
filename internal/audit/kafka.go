package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// messageWriter is the part of *kafka.Writer the emitter needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter mirrors events to a topic, keyed by entity so every change of
// one entity lands on the same partition.
type KafkaEmitter struct {
	w   messageWriter
	log *zap.Logger
}

func NewKafkaEmitter(brokers []string, topic string, log *zap.Logger) *KafkaEmitter {
	return &KafkaEmitter{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			MaxAttempts:  3,
			WriteTimeout: 5 * time.Second,
			BatchTimeout: 20 * time.Millisecond,
		},
		log: log,
	}
}

func (k *KafkaEmitter) Emit(ctx context.Context, e Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	e = Enrich(ctx, e)
	b, err := json.Marshal(e)
	if err != nil {
		k.log.Warn("audit event not encodable", zap.String("action", e.Action), zap.Error(err))
		return
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.EntityType + ":" + e.EntityID),
		Value: b,
	}); err != nil {
		k.log.Warn("audit event not published", zap.String("action", e.Action), zap.Error(err))
	}
}

func (k *KafkaEmitter) Close() error { return k.w.Close() }
