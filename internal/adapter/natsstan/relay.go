package natsstan

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/payment-aggregator/internal/domain"
)

// Envelope — вебхук, пересланный через NATS Streaming. Body хранится строкой,
// чтобы байты тела дошли до проверки подписи без изменений.
type Envelope struct {
	ProcessorID domain.ProcessorID `json:"processorId"`
	Signature   string             `json:"signature"`
	Body        string             `json:"body"`
}

// Ingester — приём вебхука ядром.
type Ingester interface {
	Execute(id domain.ProcessorID, raw []byte, sig string) (domain.Transaction, bool, error)
}

// RelayHandler превращает сообщение-конверт в вызов Ingester.
func RelayHandler(ing Ingester) func(ctx context.Context, raw []byte) error {
	return func(_ context.Context, raw []byte) error {
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("%w: envelope: %v", domain.ErrMalformedPayload, err)
		}
		tx, ok, err := ing.Execute(env.ProcessorID, []byte(env.Body), env.Signature)
		if err != nil {
			return err
		}
		if ok {
			log.Printf("relay: ingested %s", tx.Key())
		}
		return nil
	}
}

// Conn — часть stan.Conn, нужная публикатору.
type Conn interface {
	Publish(subject string, data []byte) error
}

type Publisher struct {
	Conn    Conn
	Subject string
}

func (p Publisher) Publish(env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.Conn.Publish(p.Subject, b)
}
