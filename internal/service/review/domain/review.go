// internal/service/review/domain/review.go
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nexusmall/internal/pkg/apperr"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review 软删除后 isActive=false，所有查询与统计都排除它
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Images    []string  `json:"images"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperr.Validation("rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

func NewReview(productID, userID, userName string, rating int, comment string, images []string, now time.Time) (*Review, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, apperr.Validation("productId is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("userId is required")
	}
	if err := ValidateRating(rating); err != nil {
		return nil, err
	}
	if images == nil {
		images = []string{}
	}
	return &Review{
		ProductID: productID,
		UserID:    userID,
		UserName:  userName,
		Rating:    rating,
		Comment:   comment,
		Images:    images,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Summary 是某个商品有效评价的统计
type Summary struct {
	ProductID     string        `json:"productId"`
	AverageRating float64       `json:"averageRating"`
	TotalReviews  int64         `json:"totalReviews"`
	Distribution  map[int]int64 `json:"distribution"`
}

// Summarize 由各星级计数得到统计结果，平均分保留两位小数
func Summarize(productID string, counts map[int]int64) Summary {
	s := Summary{ProductID: productID, Distribution: make(map[int]int64, MaxRating)}
	sum := decimal.Zero
	for star := MinRating; star <= MaxRating; star++ {
		n := counts[star]
		s.Distribution[star] = n
		s.TotalReviews += n
		sum = sum.Add(decimal.NewFromInt(int64(star) * n))
	}
	if s.TotalReviews > 0 {
		s.AverageRating = sum.DivRound(decimal.NewFromInt(s.TotalReviews), 2).InexactFloat64()
	}
	return s
}

// ReviewRepository 的查询方法只返回 isActive=true 的评价
type ReviewRepository interface {
	Create(ctx context.Context, r *Review) error
	FindByID(ctx context.Context, id string) (*Review, error)
	ListByProduct(ctx context.Context, productID string) ([]*Review, error)
	ListByUser(ctx context.Context, userID string) ([]*Review, error)
	Update(ctx context.Context, r *Review) error
	// Deactivate 软删除
	Deactivate(ctx context.Context, id string, at time.Time) error
	// RatingCounts 返回有效评价的星级分布
	RatingCounts(ctx context.Context, productID string) (map[int]int64, error)
}
