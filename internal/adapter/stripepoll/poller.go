// Package stripepoll опрашивает Stripe API и записывает новые или изменившиеся платежи.
package stripepoll

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/example/payment-aggregator/internal/domain"
	"github.com/example/payment-aggregator/internal/normalize"
)

// PageSize — сколько последних платежей запрашивается за один опрос.
const PageSize = 100

// ChargeLister — источник последних платежей.
type ChargeLister interface {
	ListCharges(ctx context.Context, limit int64) ([]*stripe.Charge, error)
}

type apiLister struct {
	api *client.API
}

func (l apiLister) ListCharges(ctx context.Context, limit int64) ([]*stripe.Charge, error) {
	params := &stripe.ChargeListParams{}
	params.Limit = stripe.Int64(limit)
	params.Single = true
	params.Context = ctx

	var out []*stripe.Charge
	it := l.api.Charges.List(params)
	for it.Next() {
		out = append(out, it.Charge())
	}
	return out, it.Err()
}

// Poller — периодический опрос; Record получает уже нормализованные транзакции.
type Poller struct {
	lister   ChargeLister
	record   func(domain.Transaction)
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	seen map[string]domain.Outcome
}

func NewPoller(apiKey string, interval time.Duration, record func(domain.Transaction)) *Poller {
	sc := &client.API{}
	sc.Init(apiKey, nil)
	return NewPollerWithLister(apiLister{api: sc}, interval, record)
}

func NewPollerWithLister(l ChargeLister, interval time.Duration, record func(domain.Transaction)) *Poller {
	return &Poller{
		lister:   l,
		record:   record,
		interval: interval,
		now:      time.Now,
		seen:     make(map[string]domain.Outcome),
	}
}

// Run опрашивает сразу и затем каждые interval до отмены ctx.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("stripe poll: every %s", p.interval)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		if n, err := p.Poll(ctx); err != nil {
			log.Printf("stripe poll: %v", err)
		} else if n > 0 {
			log.Printf("stripe poll: recorded %d charges", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Poll — один опрос; возвращает число записанных транзакций.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	charges, err := p.lister.ListCharges(ctx, PageSize)
	if err != nil {
		return 0, fmt.Errorf("list charges: %w", err)
	}
	env := normalize.Env{Now: p.now()}

	p.mu.Lock()
	defer p.mu.Unlock()
	recorded := 0
	// Stripe отдаёт новые первыми; записываем в хронологическом порядке.
	for i := len(charges) - 1; i >= 0; i-- {
		tx, ok := p.normalizeCharge(charges[i], env)
		if !ok {
			continue
		}
		if prev, found := p.seen[tx.TxID]; found && prev == tx.Outcome {
			continue
		}
		p.seen[tx.TxID] = tx.Outcome
		p.record(tx)
		recorded++
	}
	return recorded, nil
}

func (p *Poller) normalizeCharge(ch *stripe.Charge, env normalize.Env) (domain.Transaction, bool) {
	if ch == nil || ch.ID == "" {
		return domain.Transaction{}, false
	}
	raw, err := json.Marshal(ch)
	if err != nil {
		log.Printf("stripe poll: marshal %s: %v", ch.ID, err)
		return domain.Transaction{}, false
	}
	parsed, err := normalize.ParseStripeCharge(raw)
	if err != nil {
		log.Printf("stripe poll: parse %s: %v", ch.ID, err)
		return domain.Transaction{}, false
	}
	return normalize.NormalizeStripeCharge(parsed, env), true
}
