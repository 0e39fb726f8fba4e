// internal/service/notification/infrastructure/kafka_consumer.go
package infrastructure

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/events"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/mq"
)

// OrderEventHandler 处理一条订单事件
type OrderEventHandler interface {
	HandleOrderEvent(ctx context.Context, evt *events.OrderEvent) error
}

// OrderEventConsumer 是一个驱动适配器，它监听 order-events 主题并驱动应用服务。
type OrderEventConsumer struct {
	reader  *kafka.Reader
	handler OrderEventHandler
	tracer  trace.Tracer
}

func NewOrderEventConsumer(reader *kafka.Reader, handler OrderEventHandler, tracer trace.Tracer) *OrderEventConsumer {
	return &OrderEventConsumer{reader: reader, handler: handler, tracer: tracer}
}

// Run 阻塞消费直到 ctx 结束，之后关闭 reader
func (c *OrderEventConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	topic := c.reader.Config().Topic
	logger.Ctx(ctx).Info().Str("topic", topic).Msg("✅ order event consumer started")
	for {
		// 使用 FetchMessage 而不是 ReadMessage，处理完再提交 offset
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Ctx(ctx).Info().Str("topic", topic).Msg("🛑 order event consumer shutting down")
				return nil
			}
			logger.Ctx(ctx).Error().Err(err).Str("topic", topic).Msg("could not fetch message, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		c.processMessage(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Ctx(ctx).Error().Err(err).Int64("offset", msg.Offset).Msg("failed to commit message")
		}
	}
}

func (c *OrderEventConsumer) processMessage(parent context.Context, msg kafka.Message) {
	ctx := mq.ExtractTraceContext(parent, msg.Headers)
	ctx, span := c.tracer.Start(ctx, "notification-service.ProcessOrderEvent",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
			attribute.String("messaging.kafka.message.key", string(msg.Key)),
		))
	defer span.End()

	var evt events.OrderEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		// 格式错误的消息无法重试，记录后跳过
		logger.Ctx(ctx).Error().Err(err).Int64("offset", msg.Offset).Msg("failed to unmarshal order event, skipped")
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad payload")
		return
	}
	span.SetAttributes(attribute.String("user.id", evt.UserID), attribute.String("order.number", evt.OrderNumber))

	if err := c.handler.HandleOrderEvent(ctx, &evt); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_number", evt.OrderNumber).Msg("failed to handle order event")
		span.RecordError(err)
		span.SetStatus(codes.Error, "handle failed")
		return
	}
	span.AddEvent("notification created from order event")
}
