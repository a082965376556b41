// Package registry — фиксированная таблица процессоров: секрет, заголовок подписи,
// схема подписи, конвейер нормализации и маршруты вебхуков.
package registry

import (
	"github.com/example/payment-aggregator/internal/domain"
	"github.com/example/payment-aggregator/internal/normalize"
	"github.com/example/payment-aggregator/internal/signature"
)

// Режимы доверия процессора.
const (
	TrustVerified = "verified"
	TrustBypassed = "bypassed"
)

// Processor — запись реестра.
type Processor struct {
	ID        domain.ProcessorID
	Secret    string
	Header    string
	Scheme    signature.Scheme
	Normalize normalize.Func
	Routes    []string
}

// Bypassed — секрет не настроен, подпись не проверяется.
func (p Processor) Bypassed() bool { return p.Secret == "" }

type entry struct {
	header string
	scheme signature.Scheme
	routes []string
}

var table = map[domain.ProcessorID]entry{
	domain.Stripe:             {header: "Stripe-Signature", scheme: signature.Timestamped, routes: []string{"stripe"}},
	domain.Bluefin:            {header: "X-Bluefin-Signature", scheme: signature.HMACHex, routes: []string{"bluefin"}},
	domain.WorldpayIntegrated: {header: "X-Worldpay-Signature", scheme: signature.HMACHex, routes: []string{"worldpay_integrated", "worldpay"}},
	domain.Gravity:            {header: "X-Gravity-Signature", scheme: signature.HMACHex, routes: []string{"gravity"}},
	domain.Covetrus:           {header: "X-Covetrus-Signature", scheme: signature.HMACHex, routes: []string{"covetrus"}},
}

type Registry struct {
	byID    map[domain.ProcessorID]Processor
	byRoute map[string]domain.ProcessorID
}

// New строит реестр; secrets может не содержать часть процессоров — для них проверка обходится.
func New(secrets map[domain.ProcessorID]string) *Registry {
	r := &Registry{
		byID:    make(map[domain.ProcessorID]Processor, len(domain.Processors)),
		byRoute: make(map[string]domain.ProcessorID),
	}
	for _, id := range domain.Processors {
		e := table[id]
		fn, _ := normalize.For(id)
		r.byID[id] = Processor{
			ID:        id,
			Secret:    secrets[id],
			Header:    e.header,
			Scheme:    e.scheme,
			Normalize: fn,
			Routes:    e.routes,
		}
		for _, route := range e.routes {
			r.byRoute[route] = id
		}
	}
	return r
}

func (r *Registry) Lookup(id domain.ProcessorID) (Processor, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// ByRoute находит процессор по сегменту пути /webhooks/{route}.
func (r *Registry) ByRoute(route string) (Processor, bool) {
	id, ok := r.byRoute[route]
	if !ok {
		return Processor{}, false
	}
	return r.Lookup(id)
}

// Processors возвращает записи в фиксированном порядке domain.Processors.
func (r *Registry) Processors() []Processor {
	out := make([]Processor, 0, len(domain.Processors))
	for _, id := range domain.Processors {
		out = append(out, r.byID[id])
	}
	return out
}

// Verify проверяет подпись процессора. bypassed=true означает, что секрет не настроен
// и тело принято без проверки.
func (r *Registry) Verify(id domain.ProcessorID, payload []byte, header string) (ok, bypassed bool) {
	p, found := r.byID[id]
	if !found {
		return false, false
	}
	if p.Bypassed() {
		return true, true
	}
	return signature.Verify(p.Scheme, p.Secret, payload, header), false
}

// TrustModes — режим доверия каждого процессора.
func (r *Registry) TrustModes() map[domain.ProcessorID]string {
	out := make(map[domain.ProcessorID]string, len(r.byID))
	for id, p := range r.byID {
		if p.Bypassed() {
			out[id] = TrustBypassed
		} else {
			out[id] = TrustVerified
		}
	}
	return out
}

// Unsigned перечисляет процессоры без секрета.
func (r *Registry) Unsigned() []domain.ProcessorID {
	var out []domain.ProcessorID
	for _, p := range r.Processors() {
		if p.Bypassed() {
			out = append(out, p.ID)
		}
	}
	return out
}
