package notifications

import (
	"context"
)

type Service interface {
	ProcessNotification(ctx context.Context, payload Payload) error
}
