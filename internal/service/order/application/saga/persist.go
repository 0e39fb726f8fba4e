package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/metrics"
)

// maxNumberAttempts 订单号撞唯一索引时最多重新生成的次数
const maxNumberAttempts = 3

// PersistHandler 生成订单号并写入订单
type PersistHandler struct {
	NextHandler
}

func (h *PersistHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Persist")
	defer span.End()

	o := orderCtx.Order
	var err error
	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		o.OrderNumber = orderCtx.Numbers.Next()
		err = orderCtx.Repo.Create(ctx, o)
		if !apperr.Is(err, apperr.KindConflict) {
			break
		}
		// 其他实例在同一秒生成了相同订单号
		logger.Ctx(ctx).Warn().Str("order_number", o.OrderNumber).Int("attempt", attempt).Msg("order number taken, regenerating")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist order")
		return err
	}

	metrics.OrdersCreated.WithLabelValues(o.PaymentMethod).Inc()
	span.SetAttributes(attribute.String("order.number", o.OrderNumber))
	span.AddEvent("order persisted")
	logger.Ctx(ctx).Info().Str("order_number", o.OrderNumber).Str("user_id", o.UserID).Float64("total", o.Total).Msg("✅ order created")

	return h.executeNext(orderCtx)
}
