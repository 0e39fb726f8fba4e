// internal/service/cart/domain/cart.go
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"nexusmall/internal/pkg/apperr"
)

// CartItem 是购物车中的一行，同一 productId 最多一行
type CartItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image" bson:"image"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	Price     float64 `json:"price" bson:"price"`
}

// Cart 以 userId 为键，首次加购时惰性创建
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewCart(userID string, now time.Time) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}, CreatedAt: now, UpdatedAt: now}
}

// IsNew 表示购物车还没有持久化
func (c *Cart) IsNew() bool { return c.ID == "" }

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}

// Has 判断商品是否已在购物车中
func (c *Cart) Has(productID string) bool { return c.indexOf(productID) >= 0 }

// Increment 给已有行加数量，行不存在时返回 false
func (c *Cart) Increment(productID string, qty int, now time.Time) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items[i].Quantity += qty
	c.UpdatedAt = now
	return true
}

// AddLine 追加新行；已存在时退化为加数量
func (c *Cart) AddLine(item CartItem, now time.Time) {
	if c.Increment(item.ProductID, item.Quantity, now) {
		return
	}
	c.Items = append(c.Items, item)
	c.UpdatedAt = now
}

// SetQuantity 设置数量，qty <= 0 时删除该行
func (c *Cart) SetQuantity(productID string, qty int, now time.Time) error {
	i := c.indexOf(productID)
	if i < 0 {
		return apperr.NotFound("product %s is not in the cart", productID)
	}
	if qty <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = qty
	}
	c.UpdatedAt = now
	return nil
}

// Remove 删除一行
func (c *Cart) Remove(productID string, now time.Time) error {
	return c.SetQuantity(productID, 0, now)
}

func (c *Cart) Clear(now time.Time) {
	c.Items = []CartItem{}
	c.UpdatedAt = now
}

// Totals 返回商品总件数和总价
func (c *Cart) Totals() (int, float64) {
	items := 0
	total := decimal.Zero
	for _, it := range c.Items {
		items += it.Quantity
		total = total.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	f, _ := total.Round(2).Float64()
	return items, f
}

// CartRepository 定义了购物车的持久化接口
type CartRepository interface {
	// FindByUserID 购物车不存在时返回 NotFound
	FindByUserID(ctx context.Context, userID string) (*Cart, error)
	// Save 新购物车插入，已有购物车按 version 条件写入，冲突时返回 Conflict
	Save(ctx context.Context, cart *Cart) error
}
