package usecase

import (
	"time"

	"github.com/example/payment-aggregator/internal/analytics"
	"github.com/example/payment-aggregator/internal/domain"
)

// ComputeStatistics — метрики по снимку хранилища плюс синтетический ряд.
type ComputeStatistics struct {
	Store  domain.TransactionStore
	Series *analytics.SeriesGenerator
	Now    func() time.Time
}

func (uc ComputeStatistics) Execute() analytics.Statistics {
	now := time.Now()
	if uc.Now != nil {
		now = uc.Now()
	}
	metrics := make(map[domain.ProcessorID]analytics.Metrics, len(domain.Processors))
	for _, p := range domain.Processors {
		metrics[p] = analytics.Compute(uc.Store.Snapshot(p))
	}
	return analytics.Statistics{
		MetricsData:    metrics,
		TimeSeriesData: uc.Series.Generate(now, domain.Processors),
	}
}

// SystemStatus — состояние сервиса и режим доверия процессоров.
type SystemStatus struct {
	Registry interface {
		TrustModes() map[domain.ProcessorID]string
	}
	Now func() time.Time
}

type Status struct {
	SystemState string                        `json:"systemState"`
	CheckedAt   string                        `json:"checkedAt"`
	TrustMode   map[domain.ProcessorID]string `json:"trustMode"`
}

func (uc SystemStatus) Execute() Status {
	now := time.Now()
	if uc.Now != nil {
		now = uc.Now()
	}
	return Status{
		SystemState: "running",
		CheckedAt:   now.UTC().Format(domain.TimeLayout),
		TrustMode:   uc.Registry.TrustModes(),
	}
}
