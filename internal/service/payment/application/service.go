// internal/service/payment/application/service.go
package application

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/metrics"
	"nexusmall/internal/service/payment/domain"
	"nexusmall/internal/service/payment/domain/port"
)

// PaymentURLResponse 返回给 order-service 的支付链接
type PaymentURLResponse struct {
	PaymentURL string `json:"paymentUrl"`
}

// CallbackResponse 是回复给网关的确认体
type CallbackResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
}

// PaymentApplicationService 生成支付链接并处理网关回调
type PaymentApplicationService struct {
	gateway *domain.Gateway
	relay   port.OrderRelay
	tracer  trace.Tracer
	now     func() time.Time
}

func NewPaymentApplicationService(gateway *domain.Gateway, relay port.OrderRelay, tracer trace.Tracer) *PaymentApplicationService {
	return &PaymentApplicationService{gateway: gateway, relay: relay, tracer: tracer, now: time.Now}
}

// WithClock 替换时钟
func (s *PaymentApplicationService) WithClock(now func() time.Time) *PaymentApplicationService {
	s.now = now
	return s
}

func (s *PaymentApplicationService) CreatePaymentURL(ctx context.Context, req domain.PaymentRequest) (*PaymentURLResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreatePaymentURL", trace.WithAttributes(
		attribute.String("order.number", req.OrderID),
		attribute.Float64("payment.amount", req.Amount),
	))
	defer span.End()

	u, err := s.gateway.BuildPaymentURL(req, s.now())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid payment request")
		return nil, err
	}
	logger.Ctx(ctx).Info().Str("order_number", req.OrderID).Float64("amount", req.Amount).Msg("payment url created")
	return &PaymentURLResponse{PaymentURL: u}, nil
}

// HandleCallback 验签后把结果转发给 order-service。
// 验签失败返回 SignatureInvalid 且不转发；转发失败只记录日志，网关仍然收到确认。
func (s *PaymentApplicationService) HandleCallback(ctx context.Context, params url.Values) (*CallbackResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.HandlePaymentCallback", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	res, err := s.gateway.ParseCallback(params)
	if err != nil {
		metrics.PaymentCallbacks.WithLabelValues("invalid").Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("txn_ref", params.Get("vnp_TxnRef")).Msg("⚠️ payment callback rejected")
		span.RecordError(err)
		span.SetStatus(codes.Error, "signature invalid")
		return nil, err
	}

	status := port.StatusFailed
	result := "failed"
	if res.Success {
		status = port.StatusPaid
		result = "success"
	}
	metrics.PaymentCallbacks.WithLabelValues(result).Inc()
	span.SetAttributes(
		attribute.String("order.number", res.OrderNumber),
		attribute.String("payment.response_code", res.ResponseCode),
		attribute.Bool("payment.success", res.Success),
	)

	if err := s.relay.ReportPayment(ctx, res.OrderNumber, status, res.TransactionNo); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order_number", res.OrderNumber).Msg("failed to relay payment result to order-service")
		span.RecordError(err)
	} else {
		logger.Ctx(ctx).Info().Str("order_number", res.OrderNumber).Bool("success", res.Success).Msg("✅ payment result relayed")
	}

	return &CallbackResponse{
		RspCode: "00",
		Message: "Confirm Success",
		Success: res.Success,
		OrderID: res.OrderNumber,
	}, nil
}
