package port

import "context"

// PaymentService 是支付服务的出站端口。
type PaymentService interface {
	// CreatePaymentURL 为订单生成网关跳转链接
	CreatePaymentURL(ctx context.Context, orderNumber string, amount float64, orderInfo string) (string, error)
}

// Notification 是发给 notification-service 的一条通知
type Notification struct {
	UserID  string `json:"userId"`
	OrderID string `json:"orderId,omitempty"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Email   string `json:"email,omitempty"`
}

// 通知类型
const (
	NotifyOrderStatus    = "ORDER_STATUS"
	NotifyShippingStatus = "SHIPPING_STATUS"
	NotifyGeneral        = "GENERAL"
)

// NotificationSender 是通知的出站端口，HTTP 与 Kafka 两种实现。
type NotificationSender interface {
	Notify(ctx context.Context, n Notification) error
}

// MembershipService 是 user-service 会员能力的出站端口。
type MembershipService interface {
	// Discount 按用户当前等级计算折扣金额
	Discount(ctx context.Context, userID string, amount float64) (float64, error)
	// RecordPurchase 计入一次购买，以 orderNumber 幂等
	RecordPurchase(ctx context.Context, userID string, amount float64, orderNumber string) error
}
