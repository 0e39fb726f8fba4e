// internal/service/product/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/service/product/domain"
)

// ProductPage 是分页列表的响应
type ProductPage struct {
	Items []*domain.Product `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
}

// ProductInput 是创建和更新共用的请求体
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Brand       string   `json:"brand"`
	Stock       int      `json:"stock"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

type ProductApplicationService struct {
	repo   domain.ProductRepository
	tracer trace.Tracer
	now    func() time.Time
}

func NewProductApplicationService(repo domain.ProductRepository, tracer trace.Tracer) *ProductApplicationService {
	return &ProductApplicationService{repo: repo, tracer: tracer, now: time.Now}
}

func (s *ProductApplicationService) List(ctx context.Context, f domain.Filter) (*ProductPage, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListProducts", trace.WithAttributes(
		attribute.String("filter.category", f.Category),
		attribute.String("filter.q", f.Query),
	))
	defer span.End()

	f.Normalize()
	items, total, err := s.repo.Find(ctx, f)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &ProductPage{Items: items, Total: total, Page: f.Page, Size: f.Size}, nil
}

func (s *ProductApplicationService) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProductApplicationService) Create(ctx context.Context, in *ProductInput) (*domain.Product, error) {
	p := &domain.Product{IsActive: true}
	apply(p, in)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductApplicationService) Update(ctx context.Context, id string, in *ProductInput) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(p, in)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductApplicationService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func apply(p *domain.Product, in *ProductInput) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Image = in.Image
	p.Images = in.Images
	p.Category = in.Category
	p.Brand = in.Brand
	p.Stock = in.Stock
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}
