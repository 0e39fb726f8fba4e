package port

import "context"

// 回传给 order-service 的支付状态
const (
	StatusPaid   = "Đã thanh toán"
	StatusFailed = "Thanh toán thất bại"
)

// OrderRelay 把验签后的网关结果转发给 order-service
type OrderRelay interface {
	ReportPayment(ctx context.Context, orderNumber, paymentStatus, transactionID string) error
}
