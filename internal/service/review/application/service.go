// internal/service/review/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/service/review/domain"
)

// CreateReviewRequest 是 POST /api/reviews 的请求体
type CreateReviewRequest struct {
	ProductID string   `json:"productId"`
	UserID    string   `json:"userId"`
	UserName  string   `json:"userName,omitempty"`
	Rating    int      `json:"rating"`
	Comment   string   `json:"comment"`
	Images    []string `json:"images,omitempty"`
}

// UpdateReviewRequest 只覆盖提供了的字段
type UpdateReviewRequest struct {
	Rating  *int      `json:"rating,omitempty"`
	Comment *string   `json:"comment,omitempty"`
	Images  *[]string `json:"images,omitempty"`
}

type ReviewApplicationService struct {
	repo   domain.ReviewRepository
	tracer trace.Tracer
	now    func() time.Time
}

func NewReviewApplicationService(repo domain.ReviewRepository, tracer trace.Tracer) *ReviewApplicationService {
	return &ReviewApplicationService{repo: repo, tracer: tracer, now: time.Now}
}

func (s *ReviewApplicationService) WithClock(now func() time.Time) *ReviewApplicationService {
	s.now = now
	return s
}

func (s *ReviewApplicationService) Create(ctx context.Context, req *CreateReviewRequest) (*domain.Review, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateReview", trace.WithAttributes(
		attribute.String("product.id", req.ProductID),
		attribute.Int("review.rating", req.Rating),
	))
	defer span.End()

	r, err := domain.NewReview(req.ProductID, req.UserID, req.UserName, req.Rating, req.Comment, req.Images, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid review")
		return nil, err
	}
	if err := s.repo.Create(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist review")
		return nil, err
	}
	logger.Ctx(ctx).Info().Str("review_id", r.ID).Str("product_id", r.ProductID).Int("rating", r.Rating).Msg("review created")
	return r, nil
}

// Get 软删除的评价视为不存在
func (s *ReviewApplicationService) Get(ctx context.Context, id string) (*domain.Review, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !r.IsActive {
		return nil, apperr.NotFound("review %s not found", id)
	}
	return r, nil
}

func (s *ReviewApplicationService) ListByProduct(ctx context.Context, productID string) ([]*domain.Review, error) {
	return s.repo.ListByProduct(ctx, productID)
}

func (s *ReviewApplicationService) ListByUser(ctx context.Context, userID string) ([]*domain.Review, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *ReviewApplicationService) Update(ctx context.Context, id string, req *UpdateReviewRequest) (*domain.Review, error) {
	ctx, span := s.tracer.Start(ctx, "app.UpdateReview", trace.WithAttributes(attribute.String("review.id", id)))
	defer span.End()

	r, err := s.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if req.Rating != nil {
		if err := domain.ValidateRating(*req.Rating); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid rating")
			return nil, err
		}
		r.Rating = *req.Rating
	}
	if req.Comment != nil {
		r.Comment = *req.Comment
	}
	if req.Images != nil {
		r.Images = *req.Images
	}
	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to update review")
		return nil, err
	}
	return r, nil
}

func (s *ReviewApplicationService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "app.DeleteReview", trace.WithAttributes(attribute.String("review.id", id)))
	defer span.End()

	if _, err := s.Get(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	if err := s.repo.Deactivate(ctx, id, s.now()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deactivate review")
		return err
	}
	logger.Ctx(ctx).Info().Str("review_id", id).Msg("review deactivated")
	return nil
}

func (s *ReviewApplicationService) Summary(ctx context.Context, productID string) (*domain.Summary, error) {
	ctx, span := s.tracer.Start(ctx, "app.ReviewSummary", trace.WithAttributes(attribute.String("product.id", productID)))
	defer span.End()

	counts, err := s.repo.RatingCounts(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to aggregate ratings")
		return nil, err
	}
	summary := domain.Summarize(productID, counts)
	span.SetAttributes(attribute.Int64("review.total", summary.TotalReviews))
	return &summary, nil
}
