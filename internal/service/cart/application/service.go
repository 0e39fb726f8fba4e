// internal/service/cart/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/retry"
	"nexusmall/internal/service/cart/domain"
	"nexusmall/internal/service/cart/domain/port"
)

type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity,omitempty"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	UserID     string            `json:"userId"`
	Items      []domain.CartItem `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPrice float64           `json:"totalPrice"`
	UpdatedAt  time.Time         `json:"updatedAt,omitempty"`
}

func toResponse(c *domain.Cart) *CartResponse {
	n, total := c.Totals()
	items := c.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return &CartResponse{UserID: c.UserID, Items: items, TotalItems: n, TotalPrice: total, UpdatedAt: c.UpdatedAt}
}

type CartApplicationService struct {
	repo    domain.CartRepository
	catalog port.ProductCatalog
	tracer  trace.Tracer
	now     func() time.Time
}

func NewCartApplicationService(repo domain.CartRepository, catalog port.ProductCatalog, tracer trace.Tracer) *CartApplicationService {
	return &CartApplicationService{repo: repo, catalog: catalog, tracer: tracer, now: time.Now}
}

func (s *CartApplicationService) load(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.repo.FindByUserID(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return domain.NewCart(userID, s.now()), nil
	}
	return c, err
}

// GetCart 购物车不存在时返回空购物车
func (s *CartApplicationService) GetCart(ctx context.Context, userID string) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponse(c), nil
}

// AddItem 已有商品只加数量；新商品向商品服务查询一次元数据
func (s *CartApplicationService) AddItem(ctx context.Context, userID string, req *AddItemRequest) (*CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.AddItemToCart", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("product.id", req.ProductID),
	))
	defer span.End()

	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if req.ProductID == "" {
		return nil, apperr.Validation("productId is required")
	}
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be greater than 0")
	}

	// 冲突重试时复用已拿到的商品信息
	var snapshot *port.ProductSnapshot
	var out *domain.Cart
	err := retry.OnConflict(ctx, retry.DefaultAttempts, func(ctx context.Context) error {
		c, err := s.load(ctx, userID)
		if err != nil {
			return err
		}
		if !c.Increment(req.ProductID, qty, s.now()) {
			if snapshot == nil {
				snapshot, err = s.catalog.GetProduct(ctx, req.ProductID)
				if err != nil {
					return err
				}
				span.AddEvent("product metadata fetched")
			}
			if !snapshot.IsActive {
				return apperr.Validation("product %s is not available", req.ProductID)
			}
			c.AddLine(domain.CartItem{
				ProductID: req.ProductID,
				Name:      snapshot.Name,
				Image:     snapshot.Image,
				Price:     snapshot.Price,
				Quantity:  qty,
			}, s.now())
		}
		if err := s.repo.Save(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "add item failed")
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Str("product_id", req.ProductID).Msg("add to cart failed")
		return nil, err
	}
	return toResponse(out), nil
}

// UpdateItem 数量 <= 0 时删除该行
func (s *CartApplicationService) UpdateItem(ctx context.Context, userID, productID string, qty int) (*CartResponse, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		return c.SetQuantity(productID, qty, s.now())
	})
}

func (s *CartApplicationService) RemoveItem(ctx context.Context, userID, productID string) (*CartResponse, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		return c.Remove(productID, s.now())
	})
}

func (s *CartApplicationService) Clear(ctx context.Context, userID string) (*CartResponse, error) {
	return s.mutate(ctx, userID, func(c *domain.Cart) error {
		c.Clear(s.now())
		return nil
	})
}

func (s *CartApplicationService) mutate(ctx context.Context, userID string, fn func(c *domain.Cart) error) (*CartResponse, error) {
	var out *domain.Cart
	err := retry.OnConflict(ctx, retry.DefaultAttempts, func(ctx context.Context) error {
		c, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toResponse(out), nil
}
