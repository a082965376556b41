package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ProcessorID — идентификатор платёжного процессора.
type ProcessorID string

const (
	Stripe             ProcessorID = "stripe"
	Bluefin            ProcessorID = "bluefin"
	WorldpayIntegrated ProcessorID = "worldpay_integrated"
	Gravity            ProcessorID = "gravity"
	Covetrus           ProcessorID = "covetrus"
)

// Processors — фиксированный порядок процессоров для отчётов и реестра.
var Processors = []ProcessorID{Stripe, Bluefin, WorldpayIntegrated, Gravity, Covetrus}

func (p ProcessorID) Valid() bool {
	for _, id := range Processors {
		if id == p {
			return true
		}
	}
	return false
}

// Outcome — каноническое состояние расчёта.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeProcessing Outcome = "processing"
	OutcomeDeclined   Outcome = "declined"
)

const (
	DefaultCurrency   = "USD"
	DefaultVendorCode = "N/A"

	// TimeLayout — формат ISO-8601 с миллисекундами в UTC.
	TimeLayout = "2006-01-02T15:04:05.000Z"
)

// Transaction — каноническая запись транзакции; после создания не изменяется.
type Transaction struct {
	TxID        string
	ProcessorID ProcessorID
	Amount      decimal.Decimal
	Currency    string
	Outcome     Outcome
	OccurredAt  time.Time
	VendorCode  string
}

type transactionJSON struct {
	TxID        string      `json:"txId"`
	ProcessorID ProcessorID `json:"processorId"`
	Amount      float64     `json:"amount"`
	Currency    string      `json:"currency"`
	Outcome     Outcome     `json:"outcome"`
	OccurredAt  string      `json:"occurredAt"`
	VendorCode  string      `json:"vendorCode"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		TxID:        t.TxID,
		ProcessorID: t.ProcessorID,
		Amount:      t.Amount.InexactFloat64(),
		Currency:    t.Currency,
		Outcome:     t.Outcome,
		OccurredAt:  t.OccurredAt.UTC().Format(TimeLayout),
		VendorCode:  t.VendorCode,
	})
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	var raw struct {
		TxID        string          `json:"txId"`
		ProcessorID ProcessorID     `json:"processorId"`
		Amount      decimal.Decimal `json:"amount"`
		Currency    string          `json:"currency"`
		Outcome     Outcome         `json:"outcome"`
		OccurredAt  time.Time       `json:"occurredAt"`
		VendorCode  string          `json:"vendorCode"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Transaction{
		TxID:        raw.TxID,
		ProcessorID: raw.ProcessorID,
		Amount:      raw.Amount,
		Currency:    raw.Currency,
		Outcome:     raw.Outcome,
		OccurredAt:  raw.OccurredAt,
		VendorCode:  raw.VendorCode,
	}
	return nil
}

// Key — идентичность транзакции внутри пространства имён процессора.
func (t Transaction) Key() string {
	return string(t.ProcessorID) + ":" + t.TxID
}
