package paghiper

import (
	"context"
)

type Service interface {
	ReadNotification(ctx context.Context, readNotificationRequest ReadNotificationRequest) (*NotificationResponse, error)
}
