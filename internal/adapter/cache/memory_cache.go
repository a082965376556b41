package cache

import (
	"sync"

	"github.com/example/payment-aggregator/internal/domain"
)

// MemoryTransactionStore — хранилище транзакций в памяти процесса: по процессору
// упорядоченный список и индекс txId → позиция.
type MemoryTransactionStore struct {
	mu    sync.RWMutex
	lists map[domain.ProcessorID][]domain.Transaction
	index map[domain.ProcessorID]map[string]int
}

func NewMemoryTransactionStore() *MemoryTransactionStore {
	return &MemoryTransactionStore{
		lists: make(map[domain.ProcessorID][]domain.Transaction),
		index: make(map[domain.ProcessorID]map[string]int),
	}
}

// Save добавляет транзакцию в конец или заменяет на месте запись с тем же txId.
func (c *MemoryTransactionStore) Save(tx domain.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[tx.ProcessorID]
	if !ok {
		idx = make(map[string]int)
		c.index[tx.ProcessorID] = idx
	}
	if pos, found := idx[tx.TxID]; found {
		c.lists[tx.ProcessorID][pos] = tx
		return
	}
	idx[tx.TxID] = len(c.lists[tx.ProcessorID])
	c.lists[tx.ProcessorID] = append(c.lists[tx.ProcessorID], tx)
}

// Snapshot возвращает копию списка процессора в порядке вставки.
func (c *MemoryTransactionStore) Snapshot(p domain.ProcessorID) []domain.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src := c.lists[p]
	out := make([]domain.Transaction, len(src))
	copy(out, src)
	return out
}

func (c *MemoryTransactionStore) Len(p domain.ProcessorID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lists[p])
}

var _ domain.TransactionStore = (*MemoryTransactionStore)(nil)
