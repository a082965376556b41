package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field — сырое значение поля полезной нагрузки. Декодирование никогда не падает:
// тип проверяется только при извлечении.
type Field []byte

func (f *Field) UnmarshalJSON(b []byte) error {
	*f = append((*f)[:0], b...)
	return nil
}

func (f Field) present() bool {
	b := bytes.TrimSpace(f)
	return len(b) > 0 && !bytes.Equal(b, []byte("null"))
}

func (f Field) kind() byte {
	b := bytes.TrimSpace(f)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// Text возвращает строку или числовой литерал. Пустая строка считается отсутствующим значением.
func (f Field) Text() (string, bool) {
	if !f.present() {
		return "", false
	}
	switch c := f.kind(); {
	case c == '"':
		var s string
		if err := json.Unmarshal(f, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	case c == '-' || (c >= '0' && c <= '9'):
		return string(bytes.TrimSpace(f)), true
	default:
		return "", false
	}
}

// ID принимает строку, число или объект с полем "id" (развёрнутые объекты Stripe).
func (f Field) ID() (string, bool) {
	if f.kind() == '{' {
		var obj struct {
			ID Field `json:"id"`
		}
		if err := json.Unmarshal(f, &obj); err != nil {
			return "", false
		}
		return obj.ID.Text()
	}
	return f.Text()
}

// Decimal принимает число или строку с числом.
func (f Field) Decimal() (decimal.Decimal, bool) {
	s, ok := f.Text()
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func (f Field) Bool() (value bool, ok bool) {
	switch string(bytes.TrimSpace(f)) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102",
}

// Границы, вне которых unix-время считается мусором.
var (
	minEpochTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	maxEpochTime = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Time принимает unix-время (секунды, либо миллисекунды если больше 1e12) или строку ISO-8601.
// Число вне 2000..2100 годов пробуется как компактная дата YYYYMMDD.
func (f Field) Time() (time.Time, bool) {
	s, ok := f.Text()
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		if t, ok := fromEpoch(n); ok {
			return t, true
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func fromEpoch(n float64) (time.Time, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 || n > 1e15 {
		return time.Time{}, false
	}
	var t time.Time
	if n > 1e12 {
		t = time.UnixMilli(int64(n)).UTC()
	} else {
		t = time.Unix(int64(n), 0).UTC()
	}
	if t.Before(minEpochTime) || !t.Before(maxEpochTime) {
		return time.Time{}, false
	}
	return t, true
}

// Object декодирует вложенный объект; при несовпадении формы возвращает false, v не трогается.
func (f Field) Object(v any) bool {
	if f.kind() != '{' {
		return false
	}
	return json.Unmarshal(f, v) == nil
}

func firstText(fs ...Field) (string, bool) {
	for _, f := range fs {
		if s, ok := f.Text(); ok {
			return s, true
		}
	}
	return "", false
}

func firstID(fs ...Field) (string, bool) {
	for _, f := range fs {
		if s, ok := f.ID(); ok {
			return s, true
		}
	}
	return "", false
}

// firstDecimal повторяет семантику "a || b": пропускает отсутствующие и нулевые значения.
func firstDecimal(fs ...Field) (decimal.Decimal, bool) {
	var zeroSeen bool
	for _, f := range fs {
		d, ok := f.Decimal()
		if !ok {
			continue
		}
		if d.IsZero() {
			zeroSeen = true
			continue
		}
		return d, true
	}
	return decimal.Zero, zeroSeen
}

func firstTime(fs ...Field) (time.Time, bool) {
	for _, f := range fs {
		if t, ok := f.Time(); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
