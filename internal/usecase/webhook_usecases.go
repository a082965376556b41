package usecase

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/payment-aggregator/internal/domain"
	"github.com/example/payment-aggregator/internal/normalize"
	"github.com/example/payment-aggregator/internal/registry"
)

// IngestWebhook — принять вебхук процессора: проверить подпись, нормализовать,
// раздать слушателям.
type IngestWebhook struct {
	Registry *registry.Registry
	Now      func() time.Time
	NewID    func() string

	mu        sync.Mutex
	listeners []domain.Listener
	sealed    bool
}

func NewIngestWebhook(reg *registry.Registry) *IngestWebhook {
	return &IngestWebhook{Registry: reg, Now: time.Now}
}

// OnTransaction регистрирует слушателя. Допустимо только до первой транзакции.
func (uc *IngestWebhook) OnTransaction(l domain.Listener) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.sealed {
		return domain.ErrListenersSealed
	}
	uc.listeners = append(uc.listeners, l)
	return nil
}

// Execute возвращает ok=false без ошибки, если событие не отслеживается.
func (uc *IngestWebhook) Execute(id domain.ProcessorID, raw []byte, sig string) (domain.Transaction, bool, error) {
	p, found := uc.Registry.Lookup(id)
	if !found {
		return domain.Transaction{}, false, fmt.Errorf("%w: %q", domain.ErrUnknownProcessor, id)
	}
	ok, bypassed := uc.Registry.Verify(id, raw, sig)
	if bypassed {
		log.Printf("webhook %s: signature check bypassed, no secret configured", id)
	}
	if !ok {
		return domain.Transaction{}, false, fmt.Errorf("%w: %s", domain.ErrAuthentication, id)
	}

	tx, tracked, err := p.Normalize(raw, normalize.Env{Now: uc.now(), NewID: uc.NewID})
	if err != nil {
		return domain.Transaction{}, false, fmt.Errorf("%s: %w", id, err)
	}
	if !tracked {
		return domain.Transaction{}, false, nil
	}
	uc.Record(tx)
	return tx, true, nil
}

// Record раздаёт уже нормализованную доверенную транзакцию (источник — опрос API).
// Слушатели вызываются под одним мьютексом в порядке регистрации.
func (uc *IngestWebhook) Record(tx domain.Transaction) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.sealed = true
	for _, l := range uc.listeners {
		l(tx)
	}
}

func (uc *IngestWebhook) now() time.Time {
	if uc.Now == nil {
		return time.Now()
	}
	return uc.Now()
}
