// internal/service/notification/infrastructure/adapter/websocket_pusher.go
package adapter

import (
	"context"

	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/wshub"
	"nexusmall/internal/service/notification/domain/port"
)

// WebSocketPusher 通过 Hub 把通知推给用户的所有连接。
// Hub 配置了 Redis 总线时，连在其他实例上的用户也能收到。
type WebSocketPusher struct {
	hub *wshub.Hub
}

var _ port.Pusher = (*WebSocketPusher)(nil)

func NewWebSocketPusher(hub *wshub.Hub) *WebSocketPusher {
	return &WebSocketPusher{hub: hub}
}

func (p *WebSocketPusher) Push(ctx context.Context, userID string, payload []byte) error {
	if err := p.hub.Publish(ctx, userID, payload); err != nil {
		return err
	}
	logger.Ctx(ctx).Debug().Str("user_id", userID).Str("node", p.hub.NodeID()).Int("local", p.hub.Online(userID)).Msg("notification published")
	return nil
}
