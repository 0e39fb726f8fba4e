// cmd/chat-service/main.go
package main

import (
	"context"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/redis"
	"nexusmall/internal/pkg/wshub"
	"nexusmall/internal/service/chat/application"
	"nexusmall/internal/service/chat/infrastructure"
	"nexusmall/internal/service/chat/infrastructure/adapter"
	"nexusmall/internal/service/chat/interfaces"
)

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: bootstrap.ChatService,
		UseMongo:    true,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) error {
			cfg := appCtx.Config
			ctx := context.Background()

			repo, err := infrastructure.NewMongoChatRepository(ctx, appCtx.Mongo)
			if err != nil {
				return err
			}

			// 聊天与通知共用 Redis，但走独立的频道
			var bus wshub.Bus
			if cfg.Redis.Addr != "" {
				client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
				if err != nil {
					return err
				}
				appCtx.OnShutdown(func(context.Context) error { return client.Close() })
				bus = wshub.NewRedisBus(client, cfg.Redis.PushChannel+":chat")
			}
			hub := wshub.NewHub(bus)
			appCtx.Go("websocket-hub", hub.Run)

			svc := application.NewChatApplicationService(repo, adapter.NewUserHTTPAdapter(appCtx.HTTPClient), hub, appCtx.Tracer)
			interfaces.NewChatHandler(svc, hub).RegisterRoutes(appCtx.Router)
			logger.Ctx(ctx).Info().Str("node", hub.NodeID()).Bool("redis_bus", bus != nil).Msg("chat hub ready")
			return nil
		},
	})
}
