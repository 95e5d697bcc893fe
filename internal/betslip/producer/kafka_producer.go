package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/tsoliveira/onchain-bet-platform-poc/pkg/contracts/events"
)

// KafkaSink publica os eventos bet_confirmed. Implementa
// reconcile.Sink.
type KafkaSink struct {
	Writer *kafka.Writer
}

func NewKafkaSink(w *kafka.Writer) *KafkaSink {
	return &KafkaSink{Writer: w}
}

func (p *KafkaSink) BetConfirmed(ctx context.Context, ev events.BetConfirmed) error {
	b, _ := json.Marshal(ev)
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.TxDigest),
		Value: b,
	})
}

// DLQPublisher publica os registros de recuperação esgotados.
// Implementa recovery.DLQ.
type DLQPublisher struct {
	Writer *kafka.Writer
}

func NewDLQPublisher(w *kafka.Writer) *DLQPublisher {
	return &DLQPublisher{Writer: w}
}

func (p *DLQPublisher) RecoveryExhausted(ctx context.Context, ev events.BetRecoveryExhausted) error {
	b, _ := json.Marshal(ev)
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.TxDigest),
		Value: b,
	})
}
