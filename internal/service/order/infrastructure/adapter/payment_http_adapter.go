// internal/service/order/infrastructure/adapter/payment_http_adapter.go
package adapter

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/httpclient"
	"nexusmall/internal/service/order/domain/port"
)

// PaymentHTTPAdapter 调用 payment-service 生成 VNPay 链接
type PaymentHTTPAdapter struct {
	client *httpclient.Client
}

var _ port.PaymentService = (*PaymentHTTPAdapter)(nil)

func NewPaymentHTTPAdapter(client *httpclient.Client) *PaymentHTTPAdapter {
	return &PaymentHTTPAdapter{client: client}
}

func (a *PaymentHTTPAdapter) CreatePaymentURL(ctx context.Context, orderNumber string, amount float64, orderInfo string) (string, error) {
	q := url.Values{}
	q.Set("orderId", orderNumber)
	q.Set("amount", decimal.NewFromFloat(amount).Round(0).String())
	if orderInfo != "" {
		q.Set("orderInfo", orderInfo)
	}

	var out struct {
		PaymentURL string `json:"paymentUrl"`
	}
	err := a.client.Do(ctx, httpclient.Request{
		Service: bootstrap.PaymentService,
		Method:  http.MethodGet,
		Path:    "/api/payment/vnpay",
		Query:   q,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.PaymentURL == "" {
		return "", apperr.Upstream(nil, "payment-service returned an empty payment url")
	}
	return out.PaymentURL, nil
}
