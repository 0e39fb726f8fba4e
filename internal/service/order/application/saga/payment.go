package saga

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"nexusmall/internal/pkg/logger"
)

// PaymentHandler 为非货到付款的订单申请一次支付链接。
// 失败时订单保持已持久化，支付状态记为 "Lỗi thanh toán"，不重试也不回滚。
type PaymentHandler struct {
	NextHandler
}

func (h *PaymentHandler) Handle(orderCtx *OrderContext) error {
	o := orderCtx.Order
	if !o.RequiresPaymentURL() {
		return h.executeNext(orderCtx)
	}

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Payment")
	defer span.End()
	span.SetAttributes(attribute.String("order.payment_method", o.PaymentMethod))

	info := fmt.Sprintf("Thanh toan don hang %s", o.OrderNumber)
	url, err := orderCtx.Payment.CreatePaymentURL(ctx, o.OrderNumber, o.Total, info)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_number", o.OrderNumber).Msg("failed to create payment url")
		span.RecordError(err)
	}
	o.MarkPaymentURL(url, err, orderCtx.Now())

	if err := orderCtx.Repo.Update(ctx, o); err != nil {
		// 订单已落库，这里只记录
		logger.Ctx(ctx).Error().Err(err).Str("order_number", o.OrderNumber).Msg("failed to store payment url")
		span.RecordError(err)
	}
	return h.executeNext(orderCtx)
}
