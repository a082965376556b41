package normalize

import (
	"strings"

	"github.com/example/payment-aggregator/internal/domain"
)

type keywordGroup struct {
	outcome  domain.Outcome
	contains []string
	exact    []string
}

// Порядок групп важен: успех проверяется раньше отказа.
var statusTable = []keywordGroup{
	{
		outcome:  domain.OutcomeSuccess,
		contains: []string{"success", "approved", "completed", "paid"},
		exact:    []string{"authorised"},
	},
	{
		outcome:  domain.OutcomeDeclined,
		contains: []string{"declined", "failed", "rejected", "cancelled", "error"},
	},
}

// MapStatus сводит строку статуса процессора к одному из трёх канонических исходов.
// Пустой статус — processing.
func MapStatus(raw string) domain.Outcome {
	s := strings.ToLower(raw)
	if s == "" {
		return domain.OutcomeProcessing
	}
	for _, g := range statusTable {
		for _, kw := range g.contains {
			if strings.Contains(s, kw) {
				return g.outcome
			}
		}
		for _, kw := range g.exact {
			if s == kw {
				return g.outcome
			}
		}
	}
	return domain.OutcomeProcessing
}
