// internal/service/product/domain/product.go
package domain

import (
	"context"
	"strings"
	"time"

	"nexusmall/internal/pkg/apperr"
)

// Product 是商品目录中的一项
type Product struct {
	ID          string    `json:"id" bson:"-"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Price       float64   `json:"price" bson:"price"`
	Image       string    `json:"image" bson:"image"`
	Images      []string  `json:"images" bson:"images"`
	Category    string    `json:"category" bson:"category"`
	Brand       string    `json:"brand" bson:"brand"`
	Stock       int       `json:"stock" bson:"stock"`
	IsActive    bool      `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Validate 检查必填字段和取值范围
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	switch {
	case p.Name == "":
		return apperr.Validation("name is required")
	case p.Price < 0:
		return apperr.Validation("price must not be negative")
	case p.Stock < 0:
		return apperr.Validation("stock must not be negative")
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Image == "" && len(p.Images) > 0 {
		p.Image = p.Images[0]
	}
	return nil
}

// Filter 是列表查询条件
type Filter struct {
	Category string
	Query    string
	Page     int
	Size     int
}

// Normalize 补全分页默认值
func (f *Filter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 || f.Size > 100 {
		f.Size = 20
	}
}

// ProductRepository 定义了商品的持久化接口
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	Find(ctx context.Context, f Filter) ([]*Product, int64, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}
