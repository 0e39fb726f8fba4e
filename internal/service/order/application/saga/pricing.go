package saga

import (
	"go.opentelemetry.io/otel/attribute"

	"nexusmall/internal/pkg/logger"
)

// PricingHandler 计算订单金额，会员折扣取不到时按 0 处理
type PricingHandler struct {
	NextHandler
}

func (h *PricingHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Pricing")
	defer span.End()

	o := orderCtx.Order
	o.Reprice(0)

	discount := 0.0
	if orderCtx.Membership != nil {
		d, err := orderCtx.Membership.Discount(ctx, o.UserID, o.Subtotal)
		if err != nil {
			// 折扣不是关键路径，降级为无折扣
			logger.Ctx(ctx).Warn().Err(err).Str("user_id", o.UserID).Msg("⚠️ membership discount unavailable, pricing without discount")
			span.RecordError(err)
		} else {
			discount = d
		}
	}
	o.Reprice(discount)

	span.SetAttributes(
		attribute.Float64("order.subtotal", o.Subtotal),
		attribute.Float64("order.discount", o.Discount),
		attribute.Float64("order.total", o.Total),
	)
	return h.executeNext(orderCtx)
}
