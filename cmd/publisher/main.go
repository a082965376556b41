package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"time"

	stan "github.com/nats-io/stan.go"

	"github.com/example/payment-aggregator/internal/adapter/natsstan"
	"github.com/example/payment-aggregator/internal/config"
	"github.com/example/payment-aggregator/internal/domain"
	"github.com/example/payment-aggregator/internal/mock"
	"github.com/example/payment-aggregator/internal/registry"
)

// publisher <processorId> < webhook.json
// Тело читается из stdin как есть, подписывается секретом процессора и уходит конвертом в STAN.
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <processorId> < body.json", os.Args[0])
	}
	id := domain.ProcessorID(os.Args[1])

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	p, ok := registry.New(cfg.Secrets).Lookup(id)
	if !ok {
		log.Fatalf("unknown processor %q", id)
	}

	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("read stdin: %v", err)
	}
	body = bytes.TrimSpace(body)

	env := natsstan.Envelope{ProcessorID: id, Body: string(body)}
	if !p.Bypassed() {
		env.Signature = mock.Sign(p, body, time.Now())
	}

	url := cfg.STAN.URL
	if url == "" {
		url = stan.DefaultNatsURL
	}
	sc, err := stan.Connect(cfg.STAN.ClusterID, getenv("STAN_PUB_ID", "payagg-publisher"), stan.NatsURL(url))
	if err != nil {
		log.Fatalf("stan connect: %v", err)
	}
	defer sc.Close()

	pub := natsstan.Publisher{Conn: sc, Subject: cfg.STAN.Subject}
	if err := pub.Publish(env); err != nil {
		log.Fatalf("publish: %v", err)
	}
	log.Printf("published %s webhook (%d bytes) to %s", id, len(body), cfg.STAN.Subject)
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
