// Package signature проверяет подписи вебхуков платёжных процессоров.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Scheme — способ подписи вебхука.
type Scheme int

const (
	// HMACHex — hex(HMAC-SHA256(secret, payload)) в заголовке целиком.
	HMACHex Scheme = iota
	// Timestamped — заголовок "t=<unix>,v1=<hex>", подписывается строка "<t>.<payload>".
	Timestamped
)

func (s Scheme) String() string {
	switch s {
	case HMACHex:
		return "hmac-sha256-hex"
	case Timestamped:
		return "timestamped-hmac-sha256"
	default:
		return "unknown"
	}
}

// Verify проверяет подпись при настроенном секрете. Пустой секрет здесь не обрабатывается:
// решение об обходе проверки принимает реестр.
func Verify(scheme Scheme, secret string, payload []byte, header string) bool {
	if header == "" {
		return false
	}
	switch scheme {
	case HMACHex:
		return verifyHex(secret, payload, strings.TrimSpace(header))
	case Timestamped:
		return verifyTimestamped(secret, payload, header)
	default:
		return false
	}
}

func verifyHex(secret string, payload []byte, sig string) bool {
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	return hmac.Equal(got, mac(secret, payload))
}

func verifyTimestamped(secret string, payload []byte, header string) bool {
	h, ok := ParseTimestampedHeader(header)
	if !ok {
		return false
	}
	expected := mac(secret, signedPayload(h.Timestamp, payload))
	matched := false
	for _, sig := range h.Signatures {
		got, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(got, expected) {
			matched = true
		}
	}
	return matched
}

// TimestampedHeader — разобранный заголовок вида "t=...,v1=...".
type TimestampedHeader struct {
	Timestamp  string
	Signatures []string
}

// ParseTimestampedHeader разбирает заголовок; без t или без хотя бы одной v1 возвращает false.
// Подписи других версий (v0) игнорируются.
func ParseTimestampedHeader(header string) (TimestampedHeader, bool) {
	var h TimestampedHeader
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				return TimestampedHeader{}, false
			}
			h.Timestamp = value
		case "v1":
			h.Signatures = append(h.Signatures, value)
		}
	}
	if h.Timestamp == "" || len(h.Signatures) == 0 {
		return TimestampedHeader{}, false
	}
	return h, true
}

// Sign возвращает hex-подпись схемы HMACHex.
func Sign(secret string, payload []byte) string {
	return hex.EncodeToString(mac(secret, payload))
}

// SignTimestamped возвращает заголовок схемы Timestamped для момента t.
func SignTimestamped(secret string, payload []byte, t time.Time) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac(secret, signedPayload(ts, payload)))
}

func signedPayload(ts string, payload []byte) []byte {
	b := make([]byte, 0, len(ts)+1+len(payload))
	b = append(b, ts...)
	b = append(b, '.')
	return append(b, payload...)
}

func mac(secret string, payload []byte) []byte {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write(payload)
	return m.Sum(nil)
}
