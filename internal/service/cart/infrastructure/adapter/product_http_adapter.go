// internal/service/cart/infrastructure/adapter/product_http_adapter.go
package adapter

import (
	"context"
	"net/http"
	"net/url"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/httpclient"
	"nexusmall/internal/service/cart/domain/port"
)

// ProductHTTPAdapter 通过 HTTP 调用 product-service
type ProductHTTPAdapter struct {
	client *httpclient.Client
}

var _ port.ProductCatalog = (*ProductHTTPAdapter)(nil)

func NewProductHTTPAdapter(client *httpclient.Client) *ProductHTTPAdapter {
	return &ProductHTTPAdapter{client: client}
}

func (a *ProductHTTPAdapter) GetProduct(ctx context.Context, productID string) (*port.ProductSnapshot, error) {
	var out port.ProductSnapshot
	err := a.client.Do(ctx, httpclient.Request{
		Service: bootstrap.ProductService,
		Method:  http.MethodGet,
		Path:    "/api/products/" + url.PathEscape(productID),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
