package port

import "context"

// ProductSnapshot 是加购时需要的商品信息
type ProductSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Image    string  `json:"image"`
	Price    float64 `json:"price"`
	IsActive bool    `json:"isActive"`
}

// ProductCatalog 是商品服务的出站端口
type ProductCatalog interface {
	// GetProduct 商品不存在返回 NotFound，服务不可用返回 Upstream
	GetProduct(ctx context.Context, productID string) (*ProductSnapshot, error)
}
