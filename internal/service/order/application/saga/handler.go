package saga

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/service/order/domain"
	"nexusmall/internal/service/order/domain/port"
)

// OrderContext 在下单责任链中传递上下文数据，外部依赖都是出站端口。
type OrderContext struct {
	Ctx    context.Context
	Order  *domain.Order
	Tracer trace.Tracer
	Now    func() time.Time

	Repo       domain.OrderRepository
	Numbers    *domain.NumberGenerator
	Payment    port.PaymentService
	Notifier   port.NotificationSender
	Membership port.MembershipService
}

type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}

// Build 组装下单链：定价 -> 持久化 -> 支付链接 -> 通知
func Build() Handler {
	chain := new(PricingHandler)
	chain.SetNext(new(PersistHandler)).
		SetNext(new(PaymentHandler)).
		SetNext(new(NotificationHandler))
	return chain
}
