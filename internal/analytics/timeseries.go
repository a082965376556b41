package analytics

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/example/payment-aggregator/internal/domain"
)

// SeriesPoints — длина ряда: по точке на каждый из последних 24 часов.
const SeriesPoints = 24

// Point — точка ряда; в JSON значения разворачиваются в ключи "<processorId>Value".
type Point struct {
	Time   time.Time
	Values map[domain.ProcessorID]int
}

func (p Point) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Values)+1)
	out["timeLabel"] = p.Time.UTC().Format(domain.TimeLayout)
	for id, v := range p.Values {
		out[string(id)+"Value"] = v
	}
	return json.Marshal(out)
}

// SeriesConfig — границы синтетических значений.
type SeriesConfig struct {
	BaseMin    int
	BaseMax    int
	MinValue   int
	MaxValue   int
	CenterNoon bool
	Location   *time.Location
}

func DefaultSeriesConfig() SeriesConfig {
	return SeriesConfig{BaseMin: 900, BaseMax: 4500, MinValue: 100, MaxValue: 6000}
}

// SeriesGenerator строит иллюстративный ряд активности. Он не зависит от хранилища.
type SeriesGenerator struct {
	cfg SeriesConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeriesGenerator; src == nil — случайный источник на PCG с произвольным зерном.
func NewSeriesGenerator(cfg SeriesConfig, src rand.Source) *SeriesGenerator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	if cfg.BaseMax <= cfg.BaseMin {
		cfg.BaseMax = cfg.BaseMin + 1
	}
	if cfg.MaxValue < cfg.MinValue {
		cfg.MaxValue = cfg.MinValue
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &SeriesGenerator{cfg: cfg, rnd: rand.New(src)}
}

// Generate возвращает ровно SeriesPoints точек, последняя — текущий час.
func (g *SeriesGenerator) Generate(now time.Time, processors []domain.ProcessorID) []Point {
	end := now.In(g.cfg.Location).Truncate(time.Hour)
	points := make([]Point, SeriesPoints)

	g.mu.Lock()
	for i := range points {
		t := end.Add(-time.Duration(SeriesPoints-1-i) * time.Hour)
		mult := HourMultiplier(t.Hour())
		values := make(map[domain.ProcessorID]int, len(processors))
		for _, id := range processors {
			values[id] = g.value(mult)
		}
		points[i] = Point{Time: t, Values: values}
	}
	g.mu.Unlock()

	if g.cfg.CenterNoon {
		points = CenterOnNoon(points, g.cfg.Location)
	}
	return points
}

func (g *SeriesGenerator) value(mult float64) int {
	span := float64(g.cfg.BaseMax - g.cfg.BaseMin)
	base := float64(g.cfg.BaseMin) + g.rnd.Float64()*span
	v := int(math.Round(base * mult))
	return min(max(v, g.cfg.MinValue), g.cfg.MaxValue)
}

// HourMultiplier — суточный профиль: ночь низкая, утром рост, пик в рабочие часы, вечером спад.
func HourMultiplier(hour int) float64 {
	switch {
	case hour < 6:
		return 0.3
	case hour < 10:
		return 0.4 + 0.15*float64(hour-5)
	case hour < 18:
		return 1.2
	default:
		return 1.0 - 0.1*float64(hour-17)
	}
}

// CenterOnNoon циклически сдвигает ряд так, чтобы точка с часом, ближайшим к полудню,
// оказалась в середине (индекс len/2).
func CenterOnNoon(points []Point, loc *time.Location) []Point {
	if len(points) == 0 {
		return points
	}
	if loc == nil {
		loc = time.Local
	}
	best, bestDist := 0, math.MaxInt
	for i, p := range points {
		d := p.Time.In(loc).Hour() - 12
		if d < 0 {
			d = -d
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	n := len(points)
	out := make([]Point, n)
	shift := n/2 - best
	for i, p := range points {
		out[((i+shift)%n+n)%n] = p
	}
	return out
}
