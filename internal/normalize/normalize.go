// Package normalize приводит родные полезные нагрузки процессоров к каноническому виду.
//
// Для каждого процессора есть пара функций: Parse<P> декодирует тело в размеченную
// структуру (ошибка только если тело не JSON-объект), Normalize<P> тотальна и
// подставляет значения по умолчанию вместо отсутствующих полей.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/payment-aggregator/internal/domain"
)

// Env — окружение нормализации: время приёма и генератор идентификаторов.
type Env struct {
	Now   time.Time
	NewID func() string
}

func (e Env) now() time.Time {
	if e.Now.IsZero() {
		return time.Now().UTC()
	}
	return e.Now.UTC()
}

func (e Env) newID(p domain.ProcessorID) string {
	if e.NewID != nil {
		return e.NewID()
	}
	return string(p) + "_" + uuid.NewString()
}

// Func — полный конвейер процессора: разбор и нормализация.
// ok=false без ошибки означает «тип события не отслеживается».
type Func func(raw []byte, env Env) (tx domain.Transaction, ok bool, err error)

func pipeline[P any](parse func([]byte) (P, error), norm func(P, Env) (domain.Transaction, bool)) Func {
	return func(raw []byte, env Env) (domain.Transaction, bool, error) {
		p, err := parse(raw)
		if err != nil {
			return domain.Transaction{}, false, err
		}
		tx, ok := norm(p, env)
		return tx, ok, nil
	}
}

// For возвращает конвейер для процессора.
func For(p domain.ProcessorID) (Func, bool) {
	switch p {
	case domain.Stripe:
		return pipeline(ParseStripe, NormalizeStripe), true
	case domain.Bluefin:
		return pipeline(ParseBluefin, always(NormalizeBluefin)), true
	case domain.WorldpayIntegrated:
		return pipeline(ParseWorldpay, always(NormalizeWorldpay)), true
	case domain.Gravity:
		return pipeline(ParseGravity, always(NormalizeGravity)), true
	case domain.Covetrus:
		return pipeline(ParseCovetrus, always(NormalizeCovetrus)), true
	default:
		return nil, false
	}
}

func always[P any](norm func(P, Env) domain.Transaction) func(P, Env) (domain.Transaction, bool) {
	return func(p P, env Env) (domain.Transaction, bool) {
		return norm(p, env), true
	}
}

func decodeObject[P any](raw []byte) (P, error) {
	var p P
	b := bytes.TrimSpace(raw)
	if len(b) == 0 || b[0] != '{' {
		return p, domain.ErrMalformedPayload
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return p, nil
}

type amountScale int32

const (
	majorUnits amountScale = 0
	minorUnits amountScale = 2
)

// fields — промежуточные значения перед сборкой транзакции.
type fields struct {
	txID       string
	hasTxID    bool
	amount     decimal.Decimal
	currency   string
	outcome    domain.Outcome
	occurredAt time.Time
	hasTime    bool
	vendor     string
	hasVendor  bool
}

func (f fields) build(p domain.ProcessorID, scale amountScale, env Env) domain.Transaction {
	tx := domain.Transaction{
		TxID:        f.txID,
		ProcessorID: p,
		Amount:      normalizeAmount(f.amount, scale),
		Currency:    normalizeCurrency(f.currency),
		Outcome:     f.outcome,
		OccurredAt:  f.occurredAt,
		VendorCode:  f.vendor,
	}
	if !f.hasTxID {
		tx.TxID = env.newID(p)
	}
	if tx.Outcome == "" {
		tx.Outcome = domain.OutcomeProcessing
	}
	if !f.hasTime {
		tx.OccurredAt = env.now()
	}
	if !f.hasVendor {
		tx.VendorCode = domain.DefaultVendorCode
	}
	return tx
}

// Суммы вне диапазона считаются неизвлечёнными и заменяются нулём.
const maxAmountExp = 18

var maxAmount = decimal.New(1, 15)

func normalizeAmount(d decimal.Decimal, scale amountScale) decimal.Decimal {
	if d.IsNegative() || d.Exponent() > maxAmountExp || d.Exponent() < -maxAmountExp {
		return decimal.Zero
	}
	d = d.Shift(-int32(scale))
	if d.GreaterThan(maxAmount) {
		return decimal.Zero
	}
	return d
}

func normalizeCurrency(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return domain.DefaultCurrency
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return domain.DefaultCurrency
		}
	}
	return s
}
