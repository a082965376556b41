package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/payment-aggregator/internal/domain"
)

// execer — общее у *pgxpool.Pool и pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresTransactionExporter — выгрузка транзакций в Postgres. Сервис ничего не читает
// обратно: таблица нужна внешним отчётам.
type PostgresTransactionExporter struct {
	db execer
}

func NewPostgresTransactionExporter(pool *pgxpool.Pool) *PostgresTransactionExporter {
	return &PostgresTransactionExporter{db: pool}
}

const upsertTransaction = `INSERT INTO transactions(processor_id, tx_id, amount, currency, outcome, occurred_at, vendor_code)
VALUES($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (processor_id, tx_id) DO UPDATE SET
  amount = EXCLUDED.amount,
  currency = EXCLUDED.currency,
  outcome = EXCLUDED.outcome,
  occurred_at = EXCLUDED.occurred_at,
  vendor_code = EXCLUDED.vendor_code,
  updated_at = now()`

func (r *PostgresTransactionExporter) Export(ctx context.Context, tx domain.Transaction) error {
	_, err := r.db.Exec(ctx, upsertTransaction,
		string(tx.ProcessorID),
		tx.TxID,
		tx.Amount.String(),
		tx.Currency,
		string(tx.Outcome),
		tx.OccurredAt,
		tx.VendorCode,
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", tx.Key(), err)
	}
	return nil
}

var _ domain.Exporter = (*PostgresTransactionExporter)(nil)

// Connect — пул с проверкой соединения.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema — создать таблицу выгрузки, если отсутствует.
func EnsureSchema(ctx context.Context, db execer) error {
	_, err := db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS transactions (
  processor_id text NOT NULL,
  tx_id text NOT NULL,
  amount numeric(18, 2) NOT NULL,
  currency char(3) NOT NULL,
  outcome text NOT NULL,
  occurred_at timestamptz NOT NULL,
  vendor_code text NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now(),
  PRIMARY KEY (processor_id, tx_id)
);`)
	return err
}
