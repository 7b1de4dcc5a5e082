package ecomplus

import (
	"context"
)

type Service interface {
	GetAuth(ctx context.Context, storeID string) (*Auth, error)
	GetAppConfig(ctx context.Context, auth *Auth, includeHidden bool) (*AppConfig, error)
	ListOrdersByTransaction(ctx context.Context, auth *Auth, transactionCode, intermediatorCode string) ([]Order, error)
	UpdatePaymentStatus(ctx context.Context, auth *Auth, orderID, status, notificationCode string) error
}
