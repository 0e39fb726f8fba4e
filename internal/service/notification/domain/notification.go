// internal/service/notification/domain/notification.go
package domain

import (
	"context"
	"strings"
	"time"

	"nexusmall/internal/pkg/apperr"
)

// 通知类型
const (
	TypeOrderStatus    = "ORDER_STATUS"
	TypeShippingStatus = "SHIPPING_STATUS"
	TypeGeneral        = "GENERAL"
)

// 阅读状态
const (
	StatusUnread = "UNREAD"
	StatusRead   = "READ"
)

// Notification 创建后只有阅读状态会变化
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	OrderID   string     `json:"orderId,omitempty"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
}

func validType(t string) bool {
	switch t {
	case TypeOrderStatus, TypeShippingStatus, TypeGeneral:
		return true
	}
	return false
}

// NewNotification 类型缺省为 GENERAL，状态为 UNREAD
func NewNotification(userID, orderID, title, message, typ string, now time.Time) (*Notification, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("userId is required")
	}
	if strings.TrimSpace(title) == "" && strings.TrimSpace(message) == "" {
		return nil, apperr.Validation("title or message is required")
	}
	if typ == "" {
		typ = TypeGeneral
	}
	typ = strings.ToUpper(typ)
	if !validType(typ) {
		return nil, apperr.Validation("unknown notification type %q", typ)
	}
	return &Notification{
		UserID:    userID,
		OrderID:   orderID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Status:    StatusUnread,
		CreatedAt: now,
	}, nil
}

// NotificationRepository 由基础设施层实现
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	FindByID(ctx context.Context, id string) (*Notification, error)
	// ListByUser 按创建时间倒序
	ListByUser(ctx context.Context, userID string) ([]*Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead 把单条通知置为 READ，已读的通知保留原 readAt
	MarkRead(ctx context.Context, id string, at time.Time) (*Notification, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
