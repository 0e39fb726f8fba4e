// internal/service/order/infrastructure/adapter/notification_http_adapter.go
package adapter

import (
	"context"
	"net/http"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/httpclient"
	"nexusmall/internal/service/order/domain/port"
)

// NotificationHTTPAdapter 直接 POST 到 notification-service
type NotificationHTTPAdapter struct {
	client *httpclient.Client
}

var _ port.NotificationSender = (*NotificationHTTPAdapter)(nil)

func NewNotificationHTTPAdapter(client *httpclient.Client) *NotificationHTTPAdapter {
	return &NotificationHTTPAdapter{client: client}
}

func (a *NotificationHTTPAdapter) Notify(ctx context.Context, n port.Notification) error {
	return a.client.Do(ctx, httpclient.Request{
		Service: bootstrap.NotificationService,
		Method:  http.MethodPost,
		Path:    "/api/notifications",
		Body:    n,
	}, nil)
}
