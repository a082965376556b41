// Package analytics считает метрики по процессорам и синтетический суточный ряд.
package analytics

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/example/payment-aggregator/internal/domain"
)

// Metrics — агрегаты одного процессора.
type Metrics struct {
	VolumeTotal   int
	RevenueSum    decimal.Decimal
	SuccessCount  int
	DeclinedCount int
}

// MarshalJSON выводит revenueSum числом, а не строкой.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		VolumeTotal   int         `json:"volumeTotal"`
		RevenueSum    json.Number `json:"revenueSum"`
		SuccessCount  int         `json:"successCount"`
		DeclinedCount int         `json:"declinedCount"`
	}{m.VolumeTotal, json.Number(m.RevenueSum.String()), m.SuccessCount, m.DeclinedCount})
}

// Compute сворачивает снимок хранилища; выручка считается только по успешным транзакциям.
func Compute(txs []domain.Transaction) Metrics {
	m := Metrics{VolumeTotal: len(txs), RevenueSum: decimal.Zero}
	for _, tx := range txs {
		switch tx.Outcome {
		case domain.OutcomeSuccess:
			m.SuccessCount++
			m.RevenueSum = m.RevenueSum.Add(tx.Amount)
		case domain.OutcomeDeclined:
			m.DeclinedCount++
		}
	}
	return m
}

// Statistics — ответ аналитики.
type Statistics struct {
	MetricsData    map[domain.ProcessorID]Metrics `json:"metricsData"`
	TimeSeriesData []Point                        `json:"timeSeriesData"`
}
