package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/payment-aggregator/internal/domain"
)

var ingestedAt = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func testEnv() Env {
	return Env{Now: ingestedAt, NewID: func() string { return "generated" }}
}

func run(t *testing.T, p domain.ProcessorID, body string) (domain.Transaction, bool) {
	t.Helper()
	fn, ok := For(p)
	if !ok {
		t.Fatalf("For(%s) not registered", p)
	}
	tx, tracked, err := fn([]byte(body), testEnv())
	if err != nil {
		t.Fatalf("normalize %s: %v", p, err)
	}
	return tx, tracked
}

func assertComplete(t *testing.T, tx domain.Transaction) {
	t.Helper()
	if tx.TxID == "" || tx.ProcessorID == "" || tx.Currency == "" || tx.Outcome == "" || tx.VendorCode == "" {
		t.Fatalf("transaction has empty fields: %+v", tx)
	}
	if tx.OccurredAt.IsZero() {
		t.Fatalf("transaction has zero occurredAt: %+v", tx)
	}
	if tx.Amount.IsNegative() {
		t.Fatalf("transaction has negative amount: %+v", tx)
	}
}

func TestStripeChargeSucceeded(t *testing.T) {
	body := `{"type":"charge.succeeded","data":{"object":{"id":"ch_1","amount":2500,"currency":"usd",
		"paid":true,"status":"succeeded","created":1700000000,"customer":"cus_9","source":{"id":"card_1"}}}}`

	tx, tracked := run(t, domain.Stripe, body)
	if !tracked {
		t.Fatal("charge.succeeded must be tracked")
	}
	assertComplete(t, tx)
	if !tx.Amount.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("amount = %s, want 25.00", tx.Amount)
	}
	if tx.Currency != "USD" {
		t.Errorf("currency = %s, want USD", tx.Currency)
	}
	if tx.Outcome != domain.OutcomeSuccess {
		t.Errorf("outcome = %s, want success", tx.Outcome)
	}
	if want := time.Unix(1700000000, 0).UTC(); !tx.OccurredAt.Equal(want) {
		t.Errorf("occurredAt = %v, want %v", tx.OccurredAt, want)
	}
	if tx.VendorCode != "cus_9" || tx.TxID != "ch_1" || tx.ProcessorID != domain.Stripe {
		t.Errorf("unexpected identity fields: %+v", tx)
	}
}

func TestStripeChargeOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		object string
		want   domain.Outcome
	}{
		{name: "pending", object: `{"status":"pending","paid":false}`, want: domain.OutcomeProcessing},
		{name: "failed", object: `{"status":"failed","paid":false}`, want: domain.OutcomeDeclined},
		{name: "succeeded but unpaid", object: `{"status":"succeeded","paid":false}`, want: domain.OutcomeDeclined},
		{name: "succeeded without paid flag", object: `{"status":"succeeded"}`, want: domain.OutcomeDeclined},
		{name: "succeeded and paid", object: `{"status":"Succeeded","paid":true}`, want: domain.OutcomeSuccess},
		{name: "no status", object: `{"paid":true}`, want: domain.OutcomeProcessing},
		{name: "no status and no paid flag", object: `{}`, want: domain.OutcomeDeclined},
		{name: "unknown status falls back to keywords", object: `{"status":"error_internal","paid":true}`, want: domain.OutcomeDeclined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, _ := run(t, domain.Stripe, `{"type":"charge.pending","data":{"object":`+tt.object+`}}`)
			if tx.Outcome != tt.want {
				t.Errorf("outcome = %s, want %s", tx.Outcome, tt.want)
			}
		})
	}
}

func TestStripePaymentIntent(t *testing.T) {
	body := `{"type":"payment_intent.payment_failed","data":{"object":{"id":"pi_7","amount":1999,
		"currency":"eur","status":"requires_payment_method","created":1700000100,"customer":{"id":"cus_obj"}}}}`

	tx, tracked := run(t, domain.Stripe, body)
	if !tracked {
		t.Fatal("payment_intent.payment_failed must be tracked")
	}
	assertComplete(t, tx)
	if tx.Outcome != domain.OutcomeDeclined {
		t.Errorf("outcome = %s, want declined", tx.Outcome)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("amount = %s, want 19.99", tx.Amount)
	}
	if tx.Currency != "EUR" || tx.VendorCode != "cus_obj" {
		t.Errorf("currency/vendor = %s/%s", tx.Currency, tx.VendorCode)
	}
}

func TestStripePaymentIntentOutcomes(t *testing.T) {
	tests := map[string]domain.Outcome{
		"succeeded":        domain.OutcomeSuccess,
		"requires_action":  domain.OutcomeProcessing,
		"requires_capture": domain.OutcomeProcessing,
		"canceled":         domain.OutcomeDeclined,
		"failed":           domain.OutcomeDeclined,
		"":                 domain.OutcomeProcessing,
	}
	for status, want := range tests {
		if got := stripePaymentIntentOutcome(status); got != want {
			t.Errorf("stripePaymentIntentOutcome(%q) = %s, want %s", status, got, want)
		}
	}
}

func TestStripeUntrackedEvent(t *testing.T) {
	for _, body := range []string{
		`{"type":"customer.created","data":{"object":{"id":"cus_1"}}}`,
		`{"data":{"object":{"id":"ch_1"}}}`,
		`{"type":42}`,
	} {
		if _, tracked := run(t, domain.Stripe, body); tracked {
			t.Errorf("event %s must not be tracked", body)
		}
	}
}

func TestStripeTrackedEventWithBrokenObject(t *testing.T) {
	tx, tracked := run(t, domain.Stripe, `{"type":"charge.succeeded","data":"oops"}`)
	if !tracked {
		t.Fatal("tracked event type must yield a transaction")
	}
	assertComplete(t, tx)
	if tx.TxID != "generated" || tx.VendorCode != domain.DefaultVendorCode || !tx.OccurredAt.Equal(ingestedAt) {
		t.Errorf("defaults not applied: %+v", tx)
	}
}

func TestWorldpayMinorUnits(t *testing.T) {
	tx, _ := run(t, domain.WorldpayIntegrated, `{"orderCode":"WP_1","transactionId":"wp_tx_1","amount":1999,
		"currencyCode":"gbp","paymentStatus":"AUTHORISED","orderDate":"2025-01-02T03:04:05.000Z","merchantCode":"M1"}`)
	assertComplete(t, tx)
	if !tx.Amount.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("amount = %s, want 19.99", tx.Amount)
	}
	if tx.TxID != "WP_1" {
		t.Errorf("txId = %s, want orderCode WP_1", tx.TxID)
	}
	if tx.Outcome != domain.OutcomeSuccess {
		t.Errorf("outcome = %s, want success for AUTHORISED", tx.Outcome)
	}
	if tx.Currency != "GBP" || tx.VendorCode != "M1" {
		t.Errorf("currency/vendor = %s/%s", tx.Currency, tx.VendorCode)
	}
	if want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC); !tx.OccurredAt.Equal(want) {
		t.Errorf("occurredAt = %v, want %v", tx.OccurredAt, want)
	}
}

func TestWorldpayFallbackFields(t *testing.T) {
	tx, _ := run(t, domain.WorldpayIntegrated, `{"id":"only-id","amount":"500","status":"PENDING","timestamp":1700000000000,"customerId":"c1"}`)
	if tx.TxID != "only-id" || tx.VendorCode != "c1" {
		t.Errorf("fallbacks not used: %+v", tx)
	}
	if !tx.Amount.Equal(decimal.NewFromInt(5)) {
		t.Errorf("amount = %s, want 5", tx.Amount)
	}
	if tx.Outcome != domain.OutcomeProcessing {
		t.Errorf("outcome = %s, want processing", tx.Outcome)
	}
	if want := time.UnixMilli(1700000000000).UTC(); !tx.OccurredAt.Equal(want) {
		t.Errorf("occurredAt = %v, want %v", tx.OccurredAt, want)
	}
}

func TestBluefinMajorUnits(t *testing.T) {
	tx, _ := run(t, domain.Bluefin, `{"transactionId":"bf_1","id":"ignored","amount":"123.45","currency":"usd",
		"status":"approved","timestamp":"2025-02-01T10:00:00Z","merchantId":"merchant_7","customerId":"customer_1"}`)
	assertComplete(t, tx)
	if !tx.Amount.Equal(decimal.RequireFromString("123.45")) {
		t.Errorf("amount = %s, want 123.45", tx.Amount)
	}
	if tx.TxID != "bf_1" || tx.VendorCode != "merchant_7" {
		t.Errorf("priority order not respected: %+v", tx)
	}
	if tx.Outcome != domain.OutcomeSuccess {
		t.Errorf("outcome = %s", tx.Outcome)
	}
}

func TestGravityDeclinedAnyCase(t *testing.T) {
	for _, status := range []string{"declined", "DECLINED", "Declined"} {
		tx, _ := run(t, domain.Gravity, `{"transaction_id":"g1","total":"10.50","status":"`+status+`"}`)
		if tx.Outcome != domain.OutcomeDeclined {
			t.Errorf("status %q: outcome = %s, want declined", status, tx.Outcome)
		}
	}
}

func TestGravityPrefersPaymentStatusAndTotal(t *testing.T) {
	tx, _ := run(t, domain.Gravity, `{"transaction_id":"g2","total":"0","amount":"7.25","payment_status":"completed","status":"failed"}`)
	if tx.Outcome != domain.OutcomeSuccess {
		t.Errorf("outcome = %s, want success from payment_status", tx.Outcome)
	}
	if !tx.Amount.Equal(decimal.RequireFromString("7.25")) {
		t.Errorf("amount = %s, want fallback 7.25 when total is zero", tx.Amount)
	}
}

func TestCovetrus(t *testing.T) {
	tx, _ := run(t, domain.Covetrus, `{"paymentId":"cov_1","transactionId":"cov_tx_1","paymentAmount":"88.10",
		"currency":"cad","paymentStatus":"rejected","paymentDate":"2025-04-01T12:00:00Z","clinicId":"clinic_4"}`)
	assertComplete(t, tx)
	if tx.TxID != "cov_1" || tx.VendorCode != "clinic_4" || tx.Currency != "CAD" {
		t.Errorf("unexpected fields: %+v", tx)
	}
	if tx.Outcome != domain.OutcomeDeclined {
		t.Errorf("outcome = %s, want declined", tx.Outcome)
	}
}

func TestDefaultsForEmptyObject(t *testing.T) {
	for _, p := range domain.Processors {
		if p == domain.Stripe {
			continue
		}
		t.Run(string(p), func(t *testing.T) {
			tx, tracked := run(t, p, `{}`)
			if !tracked {
				t.Fatal("non-stripe payloads are always tracked")
			}
			assertComplete(t, tx)
			if tx.TxID != "generated" {
				t.Errorf("txId = %s, want generated", tx.TxID)
			}
			if !tx.Amount.IsZero() || tx.Currency != domain.DefaultCurrency || tx.Outcome != domain.OutcomeProcessing {
				t.Errorf("defaults not applied: %+v", tx)
			}
			if tx.VendorCode != domain.DefaultVendorCode || !tx.OccurredAt.Equal(ingestedAt) {
				t.Errorf("defaults not applied: %+v", tx)
			}
		})
	}
}

func TestOddValuesFallBackToDefaults(t *testing.T) {
	tx, _ := run(t, domain.Bluefin, `{"transactionId":"bf_odd","amount":"-5","currency":"dollars",
		"status":null,"timestamp":"yesterday","merchantId":"","customerId":{"nested":true}}`)
	if !tx.Amount.IsZero() {
		t.Errorf("negative amount must clamp to zero, got %s", tx.Amount)
	}
	if tx.Currency != domain.DefaultCurrency {
		t.Errorf("currency = %s, want default", tx.Currency)
	}
	if !tx.OccurredAt.Equal(ingestedAt) {
		t.Errorf("occurredAt = %v, want ingestion time", tx.OccurredAt)
	}
	if tx.VendorCode != domain.DefaultVendorCode {
		t.Errorf("vendorCode = %s, want default", tx.VendorCode)
	}
	if tx.Outcome != domain.OutcomeProcessing {
		t.Errorf("outcome = %s, want processing", tx.Outcome)
	}
}

func TestMalformedPayload(t *testing.T) {
	for _, p := range domain.Processors {
		fn, _ := For(p)
		for _, body := range []string{``, `not json`, `[1,2]`, `"str"`, `null`, `{"a":`} {
			_, _, err := fn([]byte(body), testEnv())
			if !errors.Is(err, domain.ErrMalformedPayload) {
				t.Errorf("%s %q: err = %v, want ErrMalformedPayload", p, body, err)
			}
		}
	}
}

func TestForUnknownProcessor(t *testing.T) {
	if _, ok := For("paypal"); ok {
		t.Error("For(paypal) must not be registered")
	}
}

func TestGeneratedIDUsesProcessorPrefix(t *testing.T) {
	tx := NormalizeBluefin(BluefinPayload{}, Env{Now: ingestedAt})
	if len(tx.TxID) <= len("bluefin_") || tx.TxID[:len("bluefin_")] != "bluefin_" {
		t.Errorf("txId = %q, want bluefin_<uuid>", tx.TxID)
	}
}

func TestOutOfRangeAmountFallsBackToZero(t *testing.T) {
	for _, amount := range []string{`1e400`, `"1e9000000"`, `"1e-9000000"`, `"1000000000000001"`, `1e17`} {
		t.Run(amount, func(t *testing.T) {
			tx, _ := run(t, domain.Bluefin, `{"transactionId":"bf_big","amount":`+amount+`,"status":"approved"}`)
			if !tx.Amount.IsZero() {
				t.Errorf("amount = %s, want 0", tx.Amount)
			}
			b, err := json.Marshal(tx)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if len(b) > 512 {
				t.Errorf("encoded transaction too large: %d bytes", len(b))
			}
		})
	}
}

func TestAmountAtUpperBoundKept(t *testing.T) {
	tx, _ := run(t, domain.Bluefin, `{"transactionId":"bf_cap","amount":"1000000000000000","status":"approved"}`)
	if !tx.Amount.Equal(decimal.New(1, 15)) {
		t.Errorf("amount = %s, want 1e15", tx.Amount)
	}
	tx, _ = run(t, domain.WorldpayIntegrated, `{"orderCode":"WP_cap","amount":100000000000000000}`)
	if !tx.Amount.Equal(decimal.New(1, 15)) {
		t.Errorf("minor-unit amount = %s, want 1e15", tx.Amount)
	}
}
