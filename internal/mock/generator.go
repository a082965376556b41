// Package mock генерирует подписанные вебхуки в родных форматах процессоров.
package mock

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/example/payment-aggregator/internal/domain"
	"github.com/example/payment-aggregator/internal/registry"
	"github.com/example/payment-aggregator/internal/signature"
)

// Webhook — готовый к отправке вебхук.
type Webhook struct {
	Processor domain.ProcessorID
	Route     string
	Header    string
	Signature string
	Body      []byte
	Label     string
}

type Generator struct {
	reg *registry.Registry
	now func() time.Time

	mu      sync.Mutex
	rnd     *rand.Rand
	counter int
}

// NewGenerator; src == nil — произвольное зерно.
func NewGenerator(reg *registry.Registry, src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{reg: reg, now: time.Now, rnd: rand.New(src)}
}

var (
	stripeEvents     = []string{"charge.succeeded", "charge.failed", "charge.pending", "payment_intent.succeeded", "payment_intent.payment_failed"}
	bluefinStatuses  = []string{"success", "approved", "declined", "failed", "processing"}
	worldpayStatuses = []string{"AUTHORISED", "AUTHORIZED", "SUCCESS", "DECLINED", "CANCELLED", "PENDING"}
	gravityStatuses  = []string{"success", "completed", "approved", "declined", "failed", "processing"}
	covetrusStatuses = []string{"success", "completed", "approved", "declined", "rejected", "processing"}
)

// Random — вебхук случайного процессора.
func (g *Generator) Random() (Webhook, error) {
	g.mu.Lock()
	p := domain.Processors[g.rnd.IntN(len(domain.Processors))]
	g.mu.Unlock()
	return g.For(p)
}

func (g *Generator) For(id domain.ProcessorID) (Webhook, error) {
	p, ok := g.reg.Lookup(id)
	if !ok {
		return Webhook{}, fmt.Errorf("%w: %q", domain.ErrUnknownProcessor, id)
	}

	g.mu.Lock()
	g.counter++
	n := g.counter
	payload, label := g.payload(id, n)
	g.mu.Unlock()

	body, err := json.Marshal(payload)
	if err != nil {
		return Webhook{}, err
	}
	wh := Webhook{
		Processor: id,
		Route:     shortRoute(p),
		Header:    p.Header,
		Body:      body,
		Label:     label,
	}
	if !p.Bypassed() {
		wh.Signature = Sign(p, body, g.now())
	}
	return wh, nil
}

// shortRoute — короткий псевдоним маршрута, если он есть.
func shortRoute(p registry.Processor) string {
	return p.Routes[len(p.Routes)-1]
}

// Sign подписывает тело схемой процессора.
func Sign(p registry.Processor, body []byte, now time.Time) string {
	if p.Scheme == signature.Timestamped {
		return signature.SignTimestamped(p.Secret, body, now)
	}
	return signature.Sign(p.Secret, body)
}

func (g *Generator) pick(list []string) string {
	return list[g.rnd.IntN(len(list))]
}

// majorAmount — сумма 10.00–500.00 строкой с двумя знаками.
func (g *Generator) majorAmount() string {
	return strconv.FormatFloat(g.rnd.Float64()*490+10, 'f', 2, 64)
}

// minorAmount — сумма в центах 1000–50999.
func (g *Generator) minorAmount() int {
	return g.rnd.IntN(50000) + 1000
}

func (g *Generator) payload(id domain.ProcessorID, n int) (any, string) {
	now := g.now().UTC()
	iso := now.Format(domain.TimeLayout)
	switch id {
	case domain.Stripe:
		return g.stripePayload(n, now)
	case domain.Bluefin:
		status := g.pick(bluefinStatuses)
		return map[string]any{
			"transactionId": fmt.Sprintf("bf_mock_%d", n),
			"amount":        g.majorAmount(),
			"currency":      "USD",
			"status":        status,
			"timestamp":     iso,
			"merchantId":    fmt.Sprintf("merchant_%d", g.rnd.IntN(100)),
			"customerId":    fmt.Sprintf("customer_%d", g.rnd.IntN(1000)),
		}, status
	case domain.WorldpayIntegrated:
		status := g.pick(worldpayStatuses)
		return map[string]any{
			"orderCode":     fmt.Sprintf("WP_%d", n),
			"transactionId": fmt.Sprintf("wp_tx_%d", n),
			"amount":        g.minorAmount(),
			"currencyCode":  "USD",
			"paymentStatus": status,
			"orderDate":     iso,
			"merchantCode":  fmt.Sprintf("MERCHANT%d", g.rnd.IntN(100)),
			"customerId":    fmt.Sprintf("cust_%d", g.rnd.IntN(1000)),
		}, status
	case domain.Gravity:
		status, amount := g.pick(gravityStatuses), g.majorAmount()
		return map[string]any{
			"transaction_id": fmt.Sprintf("grav_%d", n),
			"id":             fmt.Sprintf("grav_id_%d", n),
			"total":          amount,
			"amount":         amount,
			"currency":       "USD",
			"payment_status": status,
			"status":         status,
			"created_at":     iso,
			"timestamp":      iso,
			"customer_id":    fmt.Sprintf("grav_cust_%d", g.rnd.IntN(1000)),
			"merchant_id":    fmt.Sprintf("grav_merch_%d", g.rnd.IntN(100)),
		}, status
	default:
		status, amount := g.pick(covetrusStatuses), g.majorAmount()
		return map[string]any{
			"paymentId":     fmt.Sprintf("cov_%d", n),
			"transactionId": fmt.Sprintf("cov_tx_%d", n),
			"id":            fmt.Sprintf("cov_id_%d", n),
			"paymentAmount": amount,
			"amount":        amount,
			"currency":      "USD",
			"paymentStatus": status,
			"status":        status,
			"paymentDate":   iso,
			"timestamp":     iso,
			"clinicId":      fmt.Sprintf("clinic_%d", g.rnd.IntN(100)),
			"customerId":    fmt.Sprintf("cov_cust_%d", g.rnd.IntN(1000)),
		}, status
	}
}

func (g *Generator) stripePayload(n int, now time.Time) (any, string) {
	event := g.pick(stripeEvents)
	customer := fmt.Sprintf("cus_mock_%d", g.rnd.IntN(1000))
	var object map[string]any
	switch event {
	case "charge.succeeded", "charge.failed", "charge.pending":
		status := map[string]string{
			"charge.succeeded": "succeeded",
			"charge.failed":    "failed",
			"charge.pending":   "pending",
		}[event]
		object = map[string]any{
			"id":       fmt.Sprintf("ch_mock_%d", n),
			"amount":   g.minorAmount(),
			"currency": "usd",
			"paid":     event == "charge.succeeded",
			"status":   status,
			"created":  now.Unix(),
			"customer": customer,
			"source":   map[string]string{"id": fmt.Sprintf("card_mock_%d", g.rnd.IntN(1000))},
		}
	default:
		status := "requires_payment_method"
		if event == "payment_intent.succeeded" {
			status = "succeeded"
		}
		object = map[string]any{
			"id":       fmt.Sprintf("pi_mock_%d", n),
			"amount":   g.minorAmount(),
			"currency": "usd",
			"status":   status,
			"created":  now.Unix(),
			"customer": customer,
		}
	}
	return map[string]any{
		"id":   fmt.Sprintf("evt_mock_%d", n),
		"type": event,
		"data": map[string]any{"object": object},
	}, event
}
