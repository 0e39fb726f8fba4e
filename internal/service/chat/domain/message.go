// internal/service/chat/domain/message.go
package domain

import (
	"context"
	"strings"
	"time"

	"nexusmall/internal/pkg/apperr"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// AdminsRoom 是所有管理员连接共同加入的房间
	AdminsRoom = "admins"
)

// Sender 是已连接 socket 的身份
type Sender struct {
	ID   string
	Role string
}

func (s Sender) IsAdmin() bool { return s.Role == RoleAdmin }

// Keys 返回连接在 hub 中注册的 key
func (s Sender) Keys() []string {
	if s.IsAdmin() {
		return []string{s.ID, AdminsRoom}
	}
	return []string{s.ID}
}

// NormalizeRole 未知角色一律按普通用户处理
func NormalizeRole(role string) string {
	if strings.EqualFold(role, RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// InboundFrame 是客户端发上来的一帧
type InboundFrame struct {
	ReceiverID string `json:"receiverId,omitempty"`
	Content    string `json:"content"`
}

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderRole string    `json:"senderRole"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewMessage 校验内容并决定投递目标：用户不指定接收者时发往 admins 房间，管理员必须指定
func NewMessage(id string, from Sender, in InboundFrame, now time.Time) (*Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperr.Validation("content is required")
	}
	receiver := strings.TrimSpace(in.ReceiverID)
	if receiver == "" {
		if from.IsAdmin() {
			return nil, apperr.Validation("receiverId is required for admin messages")
		}
		receiver = AdminsRoom
	}
	return &Message{
		ID:         id,
		SenderID:   from.ID,
		SenderRole: from.Role,
		ReceiverID: receiver,
		Content:    content,
		CreatedAt:  now,
	}, nil
}

const (
	FrameMessage = "message"
	FrameError   = "error"
)

// OutboundFrame 是推给客户端的一帧
type OutboundFrame struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}

type MessageRepository interface {
	Save(ctx context.Context, m *Message) error
	// History 返回某用户与客服之间最近 limit 条消息，按时间正序
	History(ctx context.Context, userID string, limit int) ([]*Message, error)
}
