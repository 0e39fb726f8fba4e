// internal/service/order/infrastructure/adapter/notification_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/events"
	"nexusmall/internal/pkg/mq"
	"nexusmall/internal/service/order/domain/port"
)

// NotificationKafkaAdapter 把通知作为订单事件发到 Kafka，由 notification-service 消费
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
	now    func() time.Time
}

var _ port.NotificationSender = (*NotificationKafkaAdapter)(nil)

func NewNotificationKafkaAdapter(writer *kafka.Writer) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{writer: writer, now: time.Now}
}

func eventType(n port.Notification) string {
	switch n.Type {
	case port.NotifyShippingStatus:
		return events.ShippingChanged
	case port.NotifyOrderStatus:
		return events.OrderStatusChanged
	default:
		return events.NotificationGeneral
	}
}

func (a *NotificationKafkaAdapter) Notify(ctx context.Context, n port.Notification) error {
	evt := events.OrderEvent{
		Type:             eventType(n),
		UserID:           n.UserID,
		OrderNumber:      n.OrderID,
		Title:            n.Title,
		Message:          n.Message,
		NotificationType: n.Type,
		Email:            n.Email,
		OccurredAt:       a.now(),
	}
	bytes, err := json.Marshal(evt)
	if err != nil {
		return apperr.Internal(err, "marshal order event")
	}
	// key 使用 userId，同一用户的事件落在同一分区
	if err := mq.ProduceMessage(ctx, a.writer, []byte(n.UserID), bytes); err != nil {
		return apperr.Upstream(err, "publish order event")
	}
	return nil
}
