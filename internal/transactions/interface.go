package transactions

import (
	"context"
)

type Service interface {
	GetTransaction(ctx context.Context, transactionCode string) (*Transaction, error)
	InsertTransaction(ctx context.Context, transaction Transaction) error
	RecordNotificationEvent(ctx context.Context, event NotificationEvent) error
	// generates a prefixed ULID like "EVENT-01D78XYFJ1PRM1WPBCBT3VHMNV"
	GenerateULID(prefix string) string
	Ping(ctx context.Context) error
	Close()
}
