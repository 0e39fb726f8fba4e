package saga

import (
	"fmt"

	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/service/order/domain/port"
)

// NotificationHandler 是链的最后一步，通知失败不影响下单结果
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Notification")
	defer span.End()

	o := orderCtx.Order
	err := orderCtx.Notifier.Notify(ctx, port.Notification{
		UserID:  o.UserID,
		OrderID: o.OrderNumber,
		Title:   "Đặt hàng thành công",
		Message: fmt.Sprintf("Đơn hàng %s đã được tạo, tổng tiền %.0f", o.OrderNumber, o.Total),
		Type:    port.NotifyOrderStatus,
		Email:   o.CustomerEmail,
	})
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("order_number", o.OrderNumber).Msg("⚠️ failed to send order created notification")
		span.RecordError(err)
	}
	return h.executeNext(orderCtx)
}
