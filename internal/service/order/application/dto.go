package application

import (
	"time"

	"nexusmall/internal/service/order/domain"
)

// CreateOrderRequest 是下单接口的请求体
type CreateOrderRequest struct {
	UserID          string                 `json:"userId"`
	Email           string                 `json:"email,omitempty"`
	PaymentMethod   string                 `json:"paymentMethod"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	Items           []domain.OrderItem     `json:"items"`
	ShippingFee     float64                `json:"shippingFee"`
	Note            string                 `json:"note,omitempty"`
}

// OrderResponse 对外展示的订单
type OrderResponse struct {
	ID              string                 `json:"id"`
	OrderNumber     string                 `json:"orderNumber"`
	UserID          string                 `json:"userId"`
	Email           string                 `json:"email,omitempty"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	Note            string                 `json:"note,omitempty"`
	Items           []domain.OrderItem     `json:"items"`
	Subtotal        float64                `json:"subtotal"`
	ShippingFee     float64                `json:"shippingFee"`
	Discount        float64                `json:"discount"`
	Total           float64                `json:"total"`
	PaymentMethod   string                 `json:"paymentMethod"`
	OrderStatus     string                 `json:"orderStatus"`
	ShippingStatus  string                 `json:"shippingStatus"`
	PaymentStatus   string                 `json:"paymentStatus"`
	TransactionID   string                 `json:"transactionId,omitempty"`
	PaymentURL      string                 `json:"paymentUrl,omitempty"`
	CancelReason    string                 `json:"cancelReason,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	PaidAt          *time.Time             `json:"paidAt,omitempty"`
	ShippedAt       *time.Time             `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time             `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time             `json:"cancelledAt,omitempty"`
}

func toOrderResponse(o *domain.Order) *OrderResponse {
	return &OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Email:           o.CustomerEmail,
		ShippingAddress: o.Shipping,
		Note:            o.Note,
		Items:           o.Items,
		Subtotal:        o.Subtotal,
		ShippingFee:     o.ShippingFee,
		Discount:        o.Discount,
		Total:           o.Total,
		PaymentMethod:   o.PaymentMethod,
		OrderStatus:     o.OrderStatus,
		ShippingStatus:  o.ShippingStatus,
		PaymentStatus:   o.PaymentStatus,
		TransactionID:   o.TransactionID,
		PaymentURL:      o.PaymentURL,
		CancelReason:    o.CancelReason,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
	}
}

func toOrderResponses(orders []*domain.Order) []*OrderResponse {
	out := make([]*OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}
