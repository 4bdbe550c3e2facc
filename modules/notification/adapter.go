package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// NotificationPort reads the admin feed.
type NotificationPort interface {
	ListNotifications(ctx context.Context, kind Kind, limit int) ([]Notification, error)
}

type notificationAdapter struct {
	container mono.ServiceContainer
}

// NewNotificationAdapter creates a new adapter for notification services.
func NewNotificationAdapter(container mono.ServiceContainer) NotificationPort {
	if container == nil {
		panic("notification adapter requires non-nil ServiceContainer")
	}
	return &notificationAdapter{container: container}
}

func (a *notificationAdapter) ListNotifications(ctx context.Context, kind Kind, limit int) ([]Notification, error) {
	req := ListNotificationsRequest{Kind: kind, Limit: limit}
	var resp ListNotificationsResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"list-notifications",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("list-notifications service call failed: %w", err)
	}
	return resp.Notifications, nil
}
