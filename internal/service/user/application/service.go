// internal/service/user/application/service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/metrics"
	"nexusmall/internal/pkg/retry"
	"nexusmall/internal/service/user/domain"
)

// UserApplicationService 编排用户资料与会员等级用例
type UserApplicationService struct {
	repo   domain.UserRepository
	tracer trace.Tracer
	loc    *time.Location
	now    func() time.Time
}

func NewUserApplicationService(repo domain.UserRepository, tracer trace.Tracer, loc *time.Location) *UserApplicationService {
	return &UserApplicationService{repo: repo, tracer: tracer, loc: loc, now: time.Now}
}

// WithClock 替换时钟，供测试固定“当前月份”
func (s *UserApplicationService) WithClock(now func() time.Time) *UserApplicationService {
	s.now = now
	return s
}

func (s *UserApplicationService) currentMonth() string {
	return s.now().In(s.loc).Format(domain.MonthFormat)
}

// SyncUser 按 userId upsert，新用户从 Bronze 开始
func (s *UserApplicationService) SyncUser(ctx context.Context, req *SyncUserRequest) (*UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.SyncUser", trace.WithAttributes(attribute.String("user.id", req.UserID)))
	defer span.End()

	var out *domain.User
	err := retry.OnConflict(ctx, retry.DefaultAttempts, func(ctx context.Context) error {
		existing, err := s.repo.FindByUserID(ctx, req.UserID)
		switch {
		case apperr.Is(err, apperr.KindNotFound):
			u, err := domain.NewUser(req.UserID, req.Email, req.Name, req.Role, s.now(), s.currentMonth())
			if err != nil {
				return err
			}
			if err := s.repo.Create(ctx, u); err != nil {
				return err // 并发创建会得到 Conflict，重试后走更新分支
			}
			out = u
			return nil
		case err != nil:
			return err
		}

		if req.Email != "" {
			existing.Email = req.Email
		}
		if req.Name != "" {
			existing.Name = req.Name
		}
		if req.Role != "" {
			existing.Role = req.Role
		}
		existing.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, existing); err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sync user failed")
		return nil, err
	}
	return toUserResponse(out), nil
}

func (s *UserApplicationService) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	u, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(u), nil
}

func (s *UserApplicationService) ListUsers(ctx context.Context) ([]*UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out, nil
}

func (s *UserApplicationService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*UserResponse, error) {
	var out *domain.User
	err := retry.OnConflict(ctx, retry.DefaultAttempts, func(ctx context.Context) error {
		u, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		u.ApplyProfile(domain.Profile{Name: req.Name, Phone: req.Phone, Address: req.Address, Avatar: req.Avatar}, s.now())
		if err := s.repo.Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toUserResponse(out), nil
}

func (s *UserApplicationService) DeleteUser(ctx context.Context, userID string) error {
	return s.repo.Delete(ctx, userID)
}

func (s *UserApplicationService) Tiers() []domain.TierInfo {
	return domain.Tiers()
}

// effective 返回按当前月份看到的会员状态，过期月份视为已清零，不写库
func (s *UserApplicationService) effective(u *domain.User) *domain.User {
	view := *u
	view.ResetMonthly(s.currentMonth(), u.UpdatedAt)
	return &view
}

func (s *UserApplicationService) GetMembership(ctx context.Context, userID string) (*MembershipResponse, error) {
	u, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toMembershipResponse(s.effective(u)), nil
}

func (s *UserApplicationService) CalculateDiscount(ctx context.Context, userID string, amount float64) (*DiscountResponse, error) {
	if amount < 0 {
		return nil, apperr.Validation("amount must not be negative")
	}
	u, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := s.effective(u)
	return &DiscountResponse{
		Tier:         view.MembershipTier,
		DiscountRate: domain.InfoOf(view.MembershipTier).DiscountRate,
		Amount:       amount,
		Discount:     view.Discount(amount),
	}, nil
}

// RecordPurchase 幂等地累加一笔购买，写入使用乐观并发控制
func (s *UserApplicationService) RecordPurchase(ctx context.Context, userID string, req *RecordPurchaseRequest) (*MembershipResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.RecordPurchase", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("order.ref", req.orderRef()),
		attribute.Float64("order.amount", req.OrderAmount),
	))
	defer span.End()

	var (
		out     *domain.User
		applied bool
	)
	err := retry.OnConflict(ctx, retry.DefaultAttempts, func(ctx context.Context) error {
		u, err := s.repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}
		applied, err = u.RecordPurchase(req.OrderAmount, req.increment(), req.orderRef(), s.currentMonth(), s.now())
		if err != nil {
			return err
		}
		if applied {
			if err := s.repo.Update(ctx, u); err != nil {
				return err
			}
		}
		out = u
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record purchase failed")
		return nil, err
	}

	result := "applied"
	if !applied {
		result = "duplicate"
		span.AddEvent("order already counted")
	}
	metrics.MembershipPurchases.WithLabelValues(result).Inc()
	logger.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("order_ref", req.orderRef()).
		Str("result", result).
		Int("purchase_count", out.PurchaseCount).
		Str("tier", string(out.MembershipTier)).
		Msg("membership purchase recorded")

	resp := toMembershipResponse(out)
	resp.Applied = &applied
	return resp, nil
}

// MonthlyResetAll 清零所有跨月用户的计数，同月内重复执行不会改动任何用户
func (s *UserApplicationService) MonthlyResetAll(ctx context.Context) (*ResetResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.MonthlyResetAll")
	defer span.End()

	month := s.currentMonth()
	stale, err := s.repo.ListNeedingReset(ctx, month)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	reset := 0
	for _, candidate := range stale {
		userID := candidate.UserID
		err := retry.OnConflict(ctx, retry.DefaultAttempts, func(ctx context.Context) error {
			u, err := s.repo.FindByUserID(ctx, userID)
			if err != nil {
				return err
			}
			if !u.ResetMonthly(month, s.now()) {
				return nil
			}
			if err := s.repo.Update(ctx, u); err != nil {
				return err
			}
			reset++
			return nil
		})
		if err != nil {
			// 单个用户失败不影响其他用户，下一轮会再次尝试
			logger.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("monthly reset failed for user")
		}
	}

	span.SetAttributes(attribute.Int("users.reset", reset), attribute.String("month", month))
	logger.Ctx(ctx).Info().Str("month", month).Int("reset", reset).Int("candidates", len(stale)).Msg("✅ monthly membership reset finished")
	return &ResetResponse{Month: month, Reset: reset}, nil
}
