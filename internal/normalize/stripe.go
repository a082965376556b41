package normalize

import (
	"strings"

	"github.com/example/payment-aggregator/internal/domain"
)

// StripeEvent — конверт события Stripe; data.object разбирается в зависимости от типа.
type StripeEvent struct {
	ID   Field `json:"id"`
	Type Field `json:"type"`
	Data Field `json:"data"`
}

// StripeCharge — объект charge.
type StripeCharge struct {
	ID       Field `json:"id"`
	Amount   Field `json:"amount"`
	Currency Field `json:"currency"`
	Paid     Field `json:"paid"`
	Status   Field `json:"status"`
	Created  Field `json:"created"`
	Customer Field `json:"customer"`
	Source   Field `json:"source"`
}

// StripePaymentIntent — объект payment_intent.
type StripePaymentIntent struct {
	ID       Field `json:"id"`
	Amount   Field `json:"amount"`
	Currency Field `json:"currency"`
	Status   Field `json:"status"`
	Created  Field `json:"created"`
	Customer Field `json:"customer"`
}

type stripeFamily int

const (
	stripeCharge stripeFamily = iota + 1
	stripePaymentIntent
)

// Отслеживаемые типы событий; остальные не порождают транзакцию.
var stripeEventTypes = map[string]stripeFamily{
	"charge.succeeded":              stripeCharge,
	"charge.failed":                 stripeCharge,
	"charge.pending":                stripeCharge,
	"payment_intent.succeeded":      stripePaymentIntent,
	"payment_intent.payment_failed": stripePaymentIntent,
	"payment_intent.processing":     stripePaymentIntent,
	"payment_intent.canceled":       stripePaymentIntent,
}

func ParseStripe(raw []byte) (StripeEvent, error) {
	return decodeObject[StripeEvent](raw)
}

func ParseStripeCharge(raw []byte) (StripeCharge, error) {
	return decodeObject[StripeCharge](raw)
}

func NormalizeStripe(ev StripeEvent, env Env) (domain.Transaction, bool) {
	typ, _ := ev.Type.Text()
	family, ok := stripeEventTypes[typ]
	if !ok {
		return domain.Transaction{}, false
	}
	var data struct {
		Object Field `json:"object"`
	}
	ev.Data.Object(&data)

	switch family {
	case stripeCharge:
		var c StripeCharge
		data.Object.Object(&c)
		return NormalizeStripeCharge(c, env), true
	default:
		var pi StripePaymentIntent
		data.Object.Object(&pi)
		return NormalizeStripePaymentIntent(pi, env), true
	}
}

func NormalizeStripeCharge(c StripeCharge, env Env) domain.Transaction {
	var f fields
	f.txID, f.hasTxID = c.ID.Text()
	f.amount, _ = c.Amount.Decimal()
	f.currency, _ = c.Currency.Text()
	status, _ := c.Status.Text()
	paid, _ := c.Paid.Bool()
	f.outcome = stripeChargeOutcome(status, paid)
	f.occurredAt, f.hasTime = c.Created.Time()
	f.vendor, f.hasVendor = firstID(c.Customer, c.Source)
	return f.build(domain.Stripe, minorUnits, env)
}

func NormalizeStripePaymentIntent(pi StripePaymentIntent, env Env) domain.Transaction {
	var f fields
	f.txID, f.hasTxID = pi.ID.Text()
	f.amount, _ = pi.Amount.Decimal()
	f.currency, _ = pi.Currency.Text()
	status, _ := pi.Status.Text()
	f.outcome = stripePaymentIntentOutcome(status)
	f.occurredAt, f.hasTime = pi.Created.Time()
	f.vendor, f.hasVendor = firstID(pi.Customer)
	return f.build(domain.Stripe, minorUnits, env)
}

// stripeChargeOutcome: успех только при paid=true, неоплаченный платёж отклонён.
func stripeChargeOutcome(status string, paid bool) domain.Outcome {
	status = strings.ToLower(status)
	switch {
	case paid && status == "succeeded":
		return domain.OutcomeSuccess
	case status == "pending":
		return domain.OutcomeProcessing
	case status == "failed" || !paid:
		return domain.OutcomeDeclined
	}
	return MapStatus(status)
}

var paymentIntentOutcomes = map[string]domain.Outcome{
	"succeeded":               domain.OutcomeSuccess,
	"processing":              domain.OutcomeProcessing,
	"requires_action":         domain.OutcomeProcessing,
	"requires_confirmation":   domain.OutcomeProcessing,
	"requires_capture":        domain.OutcomeProcessing,
	"requires_payment_method": domain.OutcomeDeclined,
	"canceled":                domain.OutcomeDeclined,
}

func stripePaymentIntentOutcome(status string) domain.Outcome {
	if o, ok := paymentIntentOutcomes[strings.ToLower(status)]; ok {
		return o
	}
	return MapStatus(status)
}
