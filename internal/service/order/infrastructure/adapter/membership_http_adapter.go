// internal/service/order/infrastructure/adapter/membership_http_adapter.go
package adapter

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/httpclient"
	"nexusmall/internal/service/order/domain/port"
)

// MembershipHTTPAdapter 调用 user-service 的会员接口
type MembershipHTTPAdapter struct {
	client *httpclient.Client
}

var _ port.MembershipService = (*MembershipHTTPAdapter)(nil)

func NewMembershipHTTPAdapter(client *httpclient.Client) *MembershipHTTPAdapter {
	return &MembershipHTTPAdapter{client: client}
}

func (a *MembershipHTTPAdapter) Discount(ctx context.Context, userID string, amount float64) (float64, error) {
	var out struct {
		Discount float64 `json:"discount"`
	}
	err := a.client.Do(ctx, httpclient.Request{
		Service: bootstrap.UserService,
		Method:  http.MethodGet,
		Path:    "/api/users/membership/" + url.PathEscape(userID) + "/discount",
		Query:   url.Values{"amount": {strconv.FormatFloat(amount, 'f', -1, 64)}},
	}, &out)
	if err != nil {
		return 0, err
	}
	return out.Discount, nil
}

func (a *MembershipHTTPAdapter) RecordPurchase(ctx context.Context, userID string, amount float64, orderNumber string) error {
	return a.client.Do(ctx, httpclient.Request{
		Service: bootstrap.UserService,
		Method:  http.MethodPost,
		Path:    "/api/users/membership/" + url.PathEscape(userID) + "/purchase",
		Body: map[string]any{
			"orderAmount":   amount,
			"purchaseCount": 1,
			"orderNumber":   orderNumber,
		},
	}, nil)
}
