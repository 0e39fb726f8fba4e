// internal/service/order/application/service.go
package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/retry"
	"nexusmall/internal/service/order/application/saga"
	"nexusmall/internal/service/order/domain"
	"nexusmall/internal/service/order/domain/port"
)

// OrderApplicationService 只关注业务流程编排，外部调用都通过端口完成。
type OrderApplicationService struct {
	orderRepo  domain.OrderRepository
	numbers    *domain.NumberGenerator
	tracer     trace.Tracer
	payment    port.PaymentService
	notifier   port.NotificationSender
	membership port.MembershipService
	now        func() time.Time
}

func NewOrderApplicationService(orderRepo domain.OrderRepository, numbers *domain.NumberGenerator, tracer trace.Tracer, payment port.PaymentService, notifier port.NotificationSender, membership port.MembershipService) *OrderApplicationService {
	return &OrderApplicationService{
		orderRepo: orderRepo, numbers: numbers, tracer: tracer,
		payment: payment, notifier: notifier, membership: membership,
		now: time.Now,
	}
}

// WithClock 替换时钟
func (s *OrderApplicationService) WithClock(now func() time.Time) *OrderApplicationService {
	s.now = now
	return s
}

// CreateOrder 校验并执行下单链。
// 订单一旦落库，支付链接或通知失败都不会让请求失败。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder", trace.WithAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("order.payment_method", req.PaymentMethod),
	))
	defer span.End()

	order, err := domain.NewOrder(req.UserID, req.Email, req.PaymentMethod, req.ShippingAddress, req.Items, req.ShippingFee, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid order")
		return nil, err
	}
	order.Note = req.Note

	orderCtx := &saga.OrderContext{
		Ctx:        ctx,
		Order:      order,
		Tracer:     s.tracer,
		Now:        s.now,
		Repo:       s.orderRepo,
		Numbers:    s.numbers,
		Payment:    s.payment,
		Notifier:   s.notifier,
		Membership: s.membership,
	}
	if err := saga.Build().Handle(orderCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation chain failed")
		return nil, err
	}
	return toOrderResponse(order), nil
}

// find 先按订单号查，查不到再按内部 id 查
func (s *OrderApplicationService) find(ctx context.Context, ref string) (*domain.Order, error) {
	o, err := s.orderRepo.FindByNumber(ctx, ref)
	if apperr.Is(err, apperr.KindNotFound) {
		o, err = s.orderRepo.FindByID(ctx, ref)
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("order %s not found", ref)
		}
	}
	return o, err
}

func (s *OrderApplicationService) GetOrder(ctx context.Context, ref string) (*OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetOrder", trace.WithAttributes(attribute.String("order.ref", ref)))
	defer span.End()

	o, err := s.find(ctx, ref)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(o), nil
}

func (s *OrderApplicationService) ListByUser(ctx context.Context, userID string) ([]*OrderResponse, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

func (s *OrderApplicationService) ListOrders(ctx context.Context, orderStatus string) ([]*OrderResponse, error) {
	orders, err := s.orderRepo.List(ctx, domain.Filter{OrderStatus: orderStatus})
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

// outcome 描述一次状态写入后需要触发的副作用
type outcome struct {
	notifyType  string
	title       string
	message     string
	countsAsBuy bool
}

// transition 在乐观并发下执行 读取-修改-写入，冲突时整体重试。
// 写入成功后再做尽力而为的通知与会员计数。
func (s *OrderApplicationService) transition(ctx context.Context, name, ref string, lookup func(context.Context, string) (*domain.Order, error), mutate func(o *domain.Order) (outcome, error)) (*OrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("order.ref", ref)))
	defer span.End()

	var (
		saved *domain.Order
		out   outcome
	)
	err := retry.OnConflict(ctx, retry.DefaultAttempts, func(ctx context.Context) error {
		o, err := lookup(ctx, ref)
		if err != nil {
			return err
		}
		wasCounted := o.IsPaid() || o.IsDelivered()
		if out, err = mutate(o); err != nil {
			return err
		}
		out.countsAsBuy = !wasCounted && (o.IsPaid() || o.IsDelivered())
		if err := s.orderRepo.Update(ctx, o); err != nil {
			return err
		}
		saved = o
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order status update failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.number", saved.OrderNumber),
		attribute.String("order.status", saved.OrderStatus),
		attribute.String("order.shipping_status", saved.ShippingStatus),
		attribute.String("order.payment_status", saved.PaymentStatus),
	)
	s.afterWrite(ctx, saved, out)
	return toOrderResponse(saved), nil
}

func (s *OrderApplicationService) afterWrite(ctx context.Context, o *domain.Order, out outcome) {
	if out.notifyType != "" {
		err := s.notifier.Notify(ctx, port.Notification{
			UserID:  o.UserID,
			OrderID: o.OrderNumber,
			Title:   out.title,
			Message: out.message,
			Type:    out.notifyType,
			Email:   o.CustomerEmail,
		})
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("order_number", o.OrderNumber).Msg("⚠️ failed to send status notification")
		}
	}
	if out.countsAsBuy && s.membership != nil {
		if err := s.membership.RecordPurchase(ctx, o.UserID, o.Total, o.OrderNumber); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("order_number", o.OrderNumber).Msg("⚠️ failed to record membership purchase")
		}
	}
}

// UpdateOrderStatus 覆盖订单状态
func (s *OrderApplicationService) UpdateOrderStatus(ctx context.Context, ref, status string) (*OrderResponse, error) {
	return s.transition(ctx, "app.UpdateOrderStatus", ref, s.find, func(o *domain.Order) (outcome, error) {
		if err := o.SetOrderStatus(status, s.now()); err != nil {
			return outcome{}, err
		}
		return outcome{
			notifyType: port.NotifyOrderStatus,
			title:      "Cập nhật đơn hàng",
			message:    fmt.Sprintf("Đơn hàng %s: %s", o.OrderNumber, status),
		}, nil
	})
}

// UpdateShippingStatus 覆盖物流状态
func (s *OrderApplicationService) UpdateShippingStatus(ctx context.Context, ref, status string) (*OrderResponse, error) {
	return s.transition(ctx, "app.UpdateShippingStatus", ref, s.find, func(o *domain.Order) (outcome, error) {
		if err := o.SetShippingStatus(status, s.now()); err != nil {
			return outcome{}, err
		}
		return outcome{
			notifyType: port.NotifyShippingStatus,
			title:      "Cập nhật vận chuyển",
			message:    fmt.Sprintf("Đơn hàng %s: %s", o.OrderNumber, status),
		}, nil
	})
}

// UpdatePaymentStatus 覆盖支付状态与交易号
func (s *OrderApplicationService) UpdatePaymentStatus(ctx context.Context, ref, status, transactionID string) (*OrderResponse, error) {
	return s.transition(ctx, "app.UpdatePaymentStatus", ref, s.find, s.paymentMutation(status, transactionID))
}

// PaymentCallback 接收 payment-service 转发的网关结果，只按订单号查找
func (s *OrderApplicationService) PaymentCallback(ctx context.Context, orderNumber, status, transactionID string) (*OrderResponse, error) {
	if orderNumber == "" {
		return nil, apperr.Validation("orderNumber is required")
	}
	return s.transition(ctx, "app.PaymentCallback", orderNumber, s.orderRepo.FindByNumber, s.paymentMutation(status, transactionID))
}

func (s *OrderApplicationService) paymentMutation(status, transactionID string) func(o *domain.Order) (outcome, error) {
	return func(o *domain.Order) (outcome, error) {
		if err := o.SetPaymentStatus(status, transactionID, s.now()); err != nil {
			return outcome{}, err
		}
		return outcome{
			notifyType: port.NotifyOrderStatus,
			title:      "Cập nhật thanh toán",
			message:    fmt.Sprintf("Đơn hàng %s: %s", o.OrderNumber, status),
		}, nil
	}
}

// CancelOrder 只能取消尚未处理的订单
func (s *OrderApplicationService) CancelOrder(ctx context.Context, ref, reason string) (*OrderResponse, error) {
	return s.transition(ctx, "app.CancelOrder", ref, s.find, func(o *domain.Order) (outcome, error) {
		if err := o.Cancel(reason, s.now()); err != nil {
			return outcome{}, err
		}
		msg := fmt.Sprintf("Đơn hàng %s đã bị hủy", o.OrderNumber)
		if reason != "" {
			msg += ": " + reason
		}
		return outcome{notifyType: port.NotifyOrderStatus, title: "Hủy đơn hàng", message: msg}, nil
	})
}

// DeleteOrder 管理员物理删除
func (s *OrderApplicationService) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "app.DeleteOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	o, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.orderRepo.Delete(ctx, o.ID); err != nil {
		span.RecordError(err)
		return err
	}
	logger.Ctx(ctx).Info().Str("order_id", o.ID).Str("order_number", o.OrderNumber).Msg("order deleted")
	return nil
}
