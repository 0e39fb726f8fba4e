// internal/service/notification/application/service.go
package application

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/events"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/metrics"
	"nexusmall/internal/service/notification/domain"
	"nexusmall/internal/service/notification/domain/port"
)

// CreateNotificationRequest 是 POST /api/notifications 的请求体
type CreateNotificationRequest struct {
	UserID  string `json:"userId"`
	OrderID string `json:"orderId,omitempty"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Email   string `json:"email,omitempty"`
}

// AdminMessageRequest 管理员群发
type AdminMessageRequest struct {
	UserIDs []string `json:"userIds"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

// NotificationApplicationService 持久化通知并经 websocket 与邮件分发
type NotificationApplicationService struct {
	repo   domain.NotificationRepository
	pusher port.Pusher
	mailer port.Mailer // 可为空，未配置 SendGrid 时不发邮件
	tracer trace.Tracer
	now    func() time.Time
}

func NewNotificationApplicationService(repo domain.NotificationRepository, pusher port.Pusher, mailer port.Mailer, tracer trace.Tracer) *NotificationApplicationService {
	return &NotificationApplicationService{repo: repo, pusher: pusher, mailer: mailer, tracer: tracer, now: time.Now}
}

// WithClock 替换时钟
func (s *NotificationApplicationService) WithClock(now func() time.Time) *NotificationApplicationService {
	s.now = now
	return s
}

// Create 先落库，再尽力推送与发邮件
func (s *NotificationApplicationService) Create(ctx context.Context, req *CreateNotificationRequest) (*domain.Notification, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateNotification", trace.WithAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("notification.type", req.Type),
	))
	defer span.End()

	n, err := domain.NewNotification(req.UserID, req.OrderID, req.Title, req.Message, req.Type, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid notification")
		return nil, err
	}
	if err := s.repo.Create(ctx, n); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist notification")
		return nil, err
	}
	metrics.NotificationsPushed.WithLabelValues("store").Inc()

	s.push(ctx, n)
	if req.Email != "" {
		s.email(ctx, req.Email, n)
	}
	return n, nil
}

func (s *NotificationApplicationService) push(ctx context.Context, n *domain.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to encode notification")
		return
	}
	if err := s.pusher.Push(ctx, n.UserID, payload); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", n.UserID).Msg("⚠️ websocket push failed")
		return
	}
	metrics.NotificationsPushed.WithLabelValues("websocket").Inc()
}

func (s *NotificationApplicationService) email(ctx context.Context, to string, n *domain.Notification) {
	if s.mailer == nil {
		logger.Ctx(ctx).Debug().Str("user_id", n.UserID).Msg("mailer not configured, skip email")
		return
	}
	subject := n.Title
	if subject == "" {
		subject = "NexusMall"
	}
	if err := s.mailer.Send(ctx, to, subject, n.Message); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", n.UserID).Msg("⚠️ email notification failed")
		return
	}
	metrics.NotificationsPushed.WithLabelValues("email").Inc()
}

// SendAdminMessage 给每个用户发一条 GENERAL 通知，返回成功条数
func (s *NotificationApplicationService) SendAdminMessage(ctx context.Context, req *AdminMessageRequest) (*CountResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.SendAdminMessage", trace.WithAttributes(attribute.Int("recipients", len(req.UserIDs))))
	defer span.End()

	if len(req.UserIDs) == 0 {
		return nil, apperr.Validation("userIds must not be empty")
	}
	var sent int64
	for _, uid := range req.UserIDs {
		_, err := s.Create(ctx, &CreateNotificationRequest{UserID: uid, Title: req.Title, Message: req.Message, Type: domain.TypeGeneral})
		if apperr.Is(err, apperr.KindValidation) {
			return nil, err
		}
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("user_id", uid).Msg("admin message not stored")
			continue
		}
		sent++
	}
	return &CountResponse{Count: sent}, nil
}

// HandleOrderEvent 消费 order-service 发布的订单事件
func (s *NotificationApplicationService) HandleOrderEvent(ctx context.Context, evt *events.OrderEvent) error {
	typ := evt.NotificationType
	if typ == "" {
		typ = domain.TypeOrderStatus
	}
	_, err := s.Create(ctx, &CreateNotificationRequest{
		UserID:  evt.UserID,
		OrderID: evt.OrderNumber,
		Title:   evt.Title,
		Message: evt.Message,
		Type:    typ,
		Email:   evt.Email,
	})
	return err
}

func (s *NotificationApplicationService) ListByUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *NotificationApplicationService) UnreadCount(ctx context.Context, userID string) (*CountResponse, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CountResponse{Count: n}, nil
}

func (s *NotificationApplicationService) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	return s.repo.MarkRead(ctx, id, s.now())
}

func (s *NotificationApplicationService) MarkAllRead(ctx context.Context, userID string) (*CountResponse, error) {
	n, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	return &CountResponse{Count: n}, nil
}

func (s *NotificationApplicationService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *NotificationApplicationService) DeleteAll(ctx context.Context, userID string) (*CountResponse, error) {
	n, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CountResponse{Count: n}, nil
}
