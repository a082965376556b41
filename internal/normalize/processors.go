package normalize

import "github.com/example/payment-aggregator/internal/domain"

// BluefinPayload — суммы в основных единицах.
type BluefinPayload struct {
	TransactionID Field `json:"transactionId"`
	ID            Field `json:"id"`
	Amount        Field `json:"amount"`
	Currency      Field `json:"currency"`
	Status        Field `json:"status"`
	Timestamp     Field `json:"timestamp"`
	MerchantID    Field `json:"merchantId"`
	CustomerID    Field `json:"customerId"`
}

func ParseBluefin(raw []byte) (BluefinPayload, error) {
	return decodeObject[BluefinPayload](raw)
}

func NormalizeBluefin(p BluefinPayload, env Env) domain.Transaction {
	var f fields
	f.txID, f.hasTxID = firstText(p.TransactionID, p.ID)
	f.amount, _ = firstDecimal(p.Amount)
	f.currency, _ = firstText(p.Currency)
	f.outcome = MapStatus(text(p.Status))
	f.occurredAt, f.hasTime = firstTime(p.Timestamp)
	f.vendor, f.hasVendor = firstText(p.MerchantID, p.CustomerID)
	return f.build(domain.Bluefin, majorUnits, env)
}

// WorldpayPayload — суммы в минорных единицах (центах).
type WorldpayPayload struct {
	OrderCode     Field `json:"orderCode"`
	TransactionID Field `json:"transactionId"`
	ID            Field `json:"id"`
	Amount        Field `json:"amount"`
	CurrencyCode  Field `json:"currencyCode"`
	PaymentStatus Field `json:"paymentStatus"`
	Status        Field `json:"status"`
	OrderDate     Field `json:"orderDate"`
	Timestamp     Field `json:"timestamp"`
	MerchantCode  Field `json:"merchantCode"`
	CustomerID    Field `json:"customerId"`
}

func ParseWorldpay(raw []byte) (WorldpayPayload, error) {
	return decodeObject[WorldpayPayload](raw)
}

func NormalizeWorldpay(p WorldpayPayload, env Env) domain.Transaction {
	var f fields
	f.txID, f.hasTxID = firstText(p.OrderCode, p.TransactionID, p.ID)
	f.amount, _ = firstDecimal(p.Amount)
	f.currency, _ = firstText(p.CurrencyCode)
	f.outcome = MapStatus(text(p.PaymentStatus, p.Status))
	f.occurredAt, f.hasTime = firstTime(p.OrderDate, p.Timestamp)
	f.vendor, f.hasVendor = firstText(p.MerchantCode, p.CustomerID)
	return f.build(domain.WorldpayIntegrated, minorUnits, env)
}

// GravityPayload — snake_case поля, суммы в основных единицах.
type GravityPayload struct {
	TransactionID Field `json:"transaction_id"`
	ID            Field `json:"id"`
	Total         Field `json:"total"`
	Amount        Field `json:"amount"`
	Currency      Field `json:"currency"`
	PaymentStatus Field `json:"payment_status"`
	Status        Field `json:"status"`
	CreatedAt     Field `json:"created_at"`
	Timestamp     Field `json:"timestamp"`
	CustomerID    Field `json:"customer_id"`
	MerchantID    Field `json:"merchant_id"`
}

func ParseGravity(raw []byte) (GravityPayload, error) {
	return decodeObject[GravityPayload](raw)
}

func NormalizeGravity(p GravityPayload, env Env) domain.Transaction {
	var f fields
	f.txID, f.hasTxID = firstText(p.TransactionID, p.ID)
	f.amount, _ = firstDecimal(p.Total, p.Amount)
	f.currency, _ = firstText(p.Currency)
	f.outcome = MapStatus(text(p.PaymentStatus, p.Status))
	f.occurredAt, f.hasTime = firstTime(p.CreatedAt, p.Timestamp)
	f.vendor, f.hasVendor = firstText(p.CustomerID, p.MerchantID)
	return f.build(domain.Gravity, majorUnits, env)
}

// CovetrusPayload — суммы в основных единицах, продавец — клиника.
type CovetrusPayload struct {
	PaymentID     Field `json:"paymentId"`
	TransactionID Field `json:"transactionId"`
	ID            Field `json:"id"`
	PaymentAmount Field `json:"paymentAmount"`
	Amount        Field `json:"amount"`
	Currency      Field `json:"currency"`
	PaymentStatus Field `json:"paymentStatus"`
	Status        Field `json:"status"`
	PaymentDate   Field `json:"paymentDate"`
	Timestamp     Field `json:"timestamp"`
	ClinicID      Field `json:"clinicId"`
	CustomerID    Field `json:"customerId"`
}

func ParseCovetrus(raw []byte) (CovetrusPayload, error) {
	return decodeObject[CovetrusPayload](raw)
}

func NormalizeCovetrus(p CovetrusPayload, env Env) domain.Transaction {
	var f fields
	f.txID, f.hasTxID = firstText(p.PaymentID, p.TransactionID, p.ID)
	f.amount, _ = firstDecimal(p.PaymentAmount, p.Amount)
	f.currency, _ = firstText(p.Currency)
	f.outcome = MapStatus(text(p.PaymentStatus, p.Status))
	f.occurredAt, f.hasTime = firstTime(p.PaymentDate, p.Timestamp)
	f.vendor, f.hasVendor = firstText(p.ClinicID, p.CustomerID)
	return f.build(domain.Covetrus, majorUnits, env)
}

func text(fs ...Field) string {
	s, _ := firstText(fs...)
	return s
}
