// internal/service/chat/application/service.go
package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/metrics"
	"nexusmall/internal/service/chat/domain"
	"nexusmall/internal/service/chat/domain/port"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// ChatApplicationService 中继聊天消息并写入 chat_logs
type ChatApplicationService struct {
	repo      domain.MessageRepository
	roles     port.RoleLookup
	publisher port.Publisher
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
}

func NewChatApplicationService(repo domain.MessageRepository, roles port.RoleLookup, publisher port.Publisher, tracer trace.Tracer) *ChatApplicationService {
	return &ChatApplicationService{
		repo:      repo,
		roles:     roles,
		publisher: publisher,
		tracer:    tracer,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

func (s *ChatApplicationService) WithClock(now func() time.Time) *ChatApplicationService {
	s.now = now
	return s
}

// Identify 查询连接者角色，user-service 不可用时降级为普通用户
func (s *ChatApplicationService) Identify(ctx context.Context, userID string) domain.Sender {
	ctx, span := s.tracer.Start(ctx, "app.IdentifyChatUser", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	role, err := s.roles.Role(ctx, userID)
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("⚠️ role lookup failed, treating as user")
		role = domain.RoleUser
	}
	sender := domain.Sender{ID: userID, Role: domain.NormalizeRole(role)}
	span.SetAttributes(attribute.String("user.role", sender.Role))
	return sender
}

// Relay 处理一帧入站消息：校验、落库、投递给接收方，返回要回显给发送者的帧
func (s *ChatApplicationService) Relay(ctx context.Context, from domain.Sender, raw []byte) []byte {
	ctx, span := s.tracer.Start(ctx, "app.RelayChatMessage", trace.WithAttributes(
		attribute.String("sender.id", from.ID),
		attribute.String("sender.role", from.Role),
	))
	defer span.End()

	msg, err := s.accept(ctx, from, raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "message rejected")
		metrics.ChatMessages.WithLabelValues("rejected").Inc()
		return encode(domain.OutboundFrame{Type: domain.FrameError, Error: err.Error()})
	}

	frame := encode(domain.OutboundFrame{Type: domain.FrameMessage, Message: msg})
	if err := s.publisher.Publish(ctx, msg.ReceiverID, frame); err != nil {
		// 消息已落库，接收方可以从历史记录拿到
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).Str("receiver_id", msg.ReceiverID).Msg("⚠️ chat delivery failed")
	}
	metrics.ChatMessages.WithLabelValues("relayed").Inc()
	return frame
}

func (s *ChatApplicationService) accept(ctx context.Context, from domain.Sender, raw []byte) (*domain.Message, error) {
	var in domain.InboundFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, apperr.Validation("malformed frame: %v", err)
	}
	msg, err := domain.NewMessage(s.newID(), from, in, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History limit 非正时取默认值，并限制上限
func (s *ChatApplicationService) History(ctx context.Context, userID string, limit int) ([]*domain.Message, error) {
	if userID == "" {
		return nil, apperr.Validation("userId is required")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.repo.History(ctx, userID, limit)
}

func encode(f domain.OutboundFrame) []byte {
	b, _ := json.Marshal(f)
	return b
}
