// internal/service/payment/infrastructure/adapter/order_http_adapter.go
package adapter

import (
	"context"
	"net/http"
	"net/url"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/httpclient"
	"nexusmall/internal/service/payment/domain/port"
)

// OrderHTTPAdapter 调用 order-service 的支付回调接口
type OrderHTTPAdapter struct {
	client *httpclient.Client
}

var _ port.OrderRelay = (*OrderHTTPAdapter)(nil)

func NewOrderHTTPAdapter(client *httpclient.Client) *OrderHTTPAdapter {
	return &OrderHTTPAdapter{client: client}
}

func (a *OrderHTTPAdapter) ReportPayment(ctx context.Context, orderNumber, paymentStatus, transactionID string) error {
	q := url.Values{}
	q.Set("orderNumber", orderNumber)
	q.Set("paymentStatus", paymentStatus)
	q.Set("transactionId", transactionID)
	return a.client.Do(ctx, httpclient.Request{
		Service: bootstrap.OrderService,
		Method:  http.MethodPut,
		Path:    "/api/orders/payment/callback",
		Query:   q,
	}, nil)
}
