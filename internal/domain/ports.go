package domain

import "context"

// TransactionStore — порт хранилища канонических транзакций по процессорам.
type TransactionStore interface {
	// Save добавляет транзакцию или заменяет существующую с тем же txId у того же процессора.
	Save(tx Transaction)
	Snapshot(p ProcessorID) []Transaction
}

// Listener получает каждую новую транзакцию. Не должен блокироваться на I/O.
type Listener func(tx Transaction)

// Exporter — порт внешнего получателя транзакций (БД, брокер).
type Exporter interface {
	Export(ctx context.Context, tx Transaction) error
}

// MessageSubscriber — порт подписчика на входящие сообщения с вебхуками.
type MessageSubscriber interface {
	// Subscribe регистрирует обработчик; ack/повторные доставки реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}

// Общие доменные ошибки
var (
	ErrAuthentication   = authenticationError("signature verification failed")
	ErrMalformedPayload = malformedPayloadError("payload is not a JSON object")
	ErrUnknownProcessor = notFoundError("unknown processor")
	ErrValidation       = validationError("invalid data")
	ErrListenersSealed  = validationError("listeners can only be registered before the first ingest")
)

type authenticationError string

func (e authenticationError) Error() string { return string(e) }

type malformedPayloadError string

func (e malformedPayloadError) Error() string { return string(e) }

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

type validationError string

func (e validationError) Error() string { return string(e) }
