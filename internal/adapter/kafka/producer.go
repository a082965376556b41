// Package kafka публикует канонические транзакции в топик Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	skafka "github.com/segmentio/kafka-go"

	"github.com/example/payment-aggregator/internal/domain"
)

// Writer — подмножество kafka.Writer, нужное продюсеру.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// TransactionProducer — exporter транзакций; ключ сообщения "processorId:txId".
type TransactionProducer struct {
	writer Writer
}

func NewTransactionProducer(broker, topic string) *TransactionProducer {
	w := &skafka.Writer{
		Addr:                   skafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &skafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &TransactionProducer{writer: w}
}

func NewTransactionProducerWithWriter(w Writer) *TransactionProducer {
	return &TransactionProducer{writer: w}
}

func (p *TransactionProducer) Export(ctx context.Context, tx domain.Transaction) error {
	b, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", tx.Key(), err)
	}
	msg := skafka.Message{
		Key:   []byte(tx.Key()),
		Value: b,
		Headers: []skafka.Header{
			{Key: "processor", Value: []byte(tx.ProcessorID)},
			{Key: "outcome", Value: []byte(tx.Outcome)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write %s: %w", tx.Key(), err)
	}
	return nil
}

func (p *TransactionProducer) Close() error {
	return p.writer.Close()
}

var _ domain.Exporter = (*TransactionProducer)(nil)
