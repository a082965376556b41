package natsstan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	stan "github.com/nats-io/stan.go"

	"github.com/example/payment-aggregator/internal/domain"
)

type Subscriber struct {
	ClusterID string
	ClientID  string
	URL       string
	Subject   string
	Durable   string
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	clientID := s.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("payagg-relay-%d", time.Now().UnixNano())
	}
	sc, err := stan.Connect(s.ClusterID, clientID, stan.NatsURL(s.URL))
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		sc.Close()
	}()
	_, err = sc.QueueSubscribe(s.Subject, "payagg-relay", func(m *stan.Msg) {
		hCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := handler(hCtx, m.Data); err != nil {
			log.Printf("relay: seq %d: %v", m.Sequence, err)
			if !permanent(err) {
				// не подтверждаем, даём сообщению переотправиться
				return
			}
		}
		if err := m.Ack(); err != nil {
			log.Printf("relay: ack failed: %v", err)
		}
	}, stan.DurableName(s.Durable), stan.SetManualAckMode(), stan.AckWait(10*time.Second), stan.DeliverAllAvailable())
	return err
}

// permanent — повторная доставка не исправит ошибку.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrAuthentication) ||
		errors.Is(err, domain.ErrMalformedPayload) ||
		errors.Is(err, domain.ErrUnknownProcessor)
}

var _ domain.MessageSubscriber = (*Subscriber)(nil)
