// cmd/order-service/main.go
package main

import (
	"context"

	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/mq"
	"nexusmall/internal/service/order/application"
	"nexusmall/internal/service/order/domain"
	"nexusmall/internal/service/order/domain/port"
	"nexusmall/internal/service/order/infrastructure"
	"nexusmall/internal/service/order/infrastructure/adapter"
	"nexusmall/internal/service/order/interfaces"
)

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: bootstrap.OrderService,
		UseMongo:    true,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) error {
			cfg := appCtx.Config

			repo, err := infrastructure.NewMongoOrderRepository(context.Background(), appCtx.Mongo)
			if err != nil {
				return err
			}

			// 通知通道：默认直接调用 notification-service，配置为 kafka 时改为发布订单事件
			var notifier port.NotificationSender = adapter.NewNotificationHTTPAdapter(appCtx.HTTPClient)
			if cfg.Notification.Transport == "kafka" {
				writer := mq.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderEventsTopic)
				appCtx.OnShutdown(func(context.Context) error { return writer.Close() })
				notifier = adapter.NewNotificationKafkaAdapter(writer)
				logger.Ctx(context.Background()).Info().Str("topic", cfg.Kafka.OrderEventsTopic).Msg("order notifications published to kafka")
			}

			svc := application.NewOrderApplicationService(
				repo,
				domain.NewNumberGenerator(cfg.Location()),
				appCtx.Tracer,
				adapter.NewPaymentHTTPAdapter(appCtx.HTTPClient),
				notifier,
				adapter.NewMembershipHTTPAdapter(appCtx.HTTPClient),
			)
			interfaces.NewOrderHandler(svc).RegisterRoutes(appCtx.Router)
			return nil
		},
	})
}
