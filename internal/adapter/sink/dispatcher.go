// Package sink развязывает медленных получателей транзакций с горячим путём приёма.
package sink

import (
	"context"
	"log"
	"time"

	"github.com/example/payment-aggregator/internal/domain"
)

// Dispatcher — очередь и один воркер перед domain.Exporter. Listen не блокируется:
// при полной очереди транзакция отбрасывается с записью в лог.
type Dispatcher struct {
	name     string
	exporter domain.Exporter
	timeout  time.Duration
	queue    chan domain.Transaction
	done     chan struct{}
}

func NewDispatcher(name string, exp domain.Exporter, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	return &Dispatcher{
		name:     name,
		exporter: exp,
		timeout:  5 * time.Second,
		queue:    make(chan domain.Transaction, buffer),
		done:     make(chan struct{}),
	}
}

// Listen — слушатель для IngestWebhook.OnTransaction.
func (d *Dispatcher) Listen(tx domain.Transaction) {
	select {
	case d.queue <- tx:
	default:
		log.Printf("%s export: queue full, dropped %s", d.name, tx.Key())
	}
}

// Run выгружает очередь до отмены ctx, затем дочищает оставшееся.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case tx := <-d.queue:
			d.export(tx)
		case <-ctx.Done():
			for {
				select {
				case tx := <-d.queue:
					d.export(tx)
				default:
					return
				}
			}
		}
	}
}

// Wait ждёт завершения Run.
func (d *Dispatcher) Wait() { <-d.done }

func (d *Dispatcher) export(tx domain.Transaction) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.exporter.Export(ctx, tx); err != nil {
		log.Printf("%s export: %v", d.name, err)
	}
}
