// cmd/notification-service/main.go
package main

import (
	"context"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/mq"
	"nexusmall/internal/pkg/redis"
	"nexusmall/internal/pkg/wshub"
	"nexusmall/internal/service/notification/application"
	"nexusmall/internal/service/notification/domain/port"
	"nexusmall/internal/service/notification/infrastructure"
	"nexusmall/internal/service/notification/infrastructure/adapter"
	"nexusmall/internal/service/notification/interfaces"
)

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: bootstrap.NotificationService,
		UseMongo:    true,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) error {
			cfg := appCtx.Config
			ctx := context.Background()

			repo, err := infrastructure.NewMongoNotificationRepository(ctx, appCtx.Mongo)
			if err != nil {
				return err
			}

			// 配置了 Redis 时通过 pub/sub 把推送扇出到所有实例
			var bus wshub.Bus
			if cfg.Redis.Addr != "" {
				client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
				if err != nil {
					return err
				}
				appCtx.OnShutdown(func(context.Context) error { return client.Close() })
				bus = wshub.NewRedisBus(client, cfg.Redis.PushChannel)
			}
			hub := wshub.NewHub(bus)
			appCtx.Go("websocket-hub", hub.Run)

			var mailer port.Mailer
			if cfg.SendGrid.APIKey != "" {
				mailer = adapter.NewSendGridMailer(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
			} else {
				logger.Ctx(ctx).Warn().Msg("⚠️ SENDGRID_API_KEY not set, email channel disabled")
			}

			svc := application.NewNotificationApplicationService(repo, adapter.NewWebSocketPusher(hub), mailer, appCtx.Tracer)
			interfaces.NewNotificationHandler(svc, hub).RegisterRoutes(appCtx.Router)

			if cfg.Notification.Transport == "kafka" {
				reader := mq.NewKafkaReader(cfg.Kafka.Brokers, cfg.Kafka.OrderEventsTopic, cfg.Kafka.ConsumerGroup)
				consumer := infrastructure.NewOrderEventConsumer(reader, svc, appCtx.Tracer)
				appCtx.Go("order-event-consumer", consumer.Run)
			}
			logger.Ctx(ctx).Info().Str("node", hub.NodeID()).Bool("redis_bus", bus != nil).Msg("notification hub ready")
			return nil
		},
	})
}
