// internal/pkg/events/order.go
package events

import "time"

// 订单事件类型
const (
	OrderCreated        = "ORDER_CREATED"
	OrderStatusChanged  = "ORDER_STATUS_CHANGED"
	ShippingChanged     = "SHIPPING_STATUS_CHANGED"
	PaymentChanged      = "PAYMENT_STATUS_CHANGED"
	OrderCancelled      = "ORDER_CANCELLED"
	DefaultOrderTopic   = "order-events"
	NotificationGeneral = "GENERAL"
)

// OrderEvent 是 order-service 通过 Kafka 发给 notification-service 的消息体。
// 消息 key 为 userId，保证同一用户的通知有序。
type OrderEvent struct {
	Type             string    `json:"type"`
	UserID           string    `json:"userId"`
	OrderNumber      string    `json:"orderNumber"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	NotificationType string    `json:"notificationType"`
	Email            string    `json:"email,omitempty"`
	OccurredAt       time.Time `json:"occurredAt"`
}
