package infrastructure

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"nexusmall/internal/service/order/domain"
)

// OrderDocument 是 orders 集合中的文档结构
type OrderDocument struct {
	ID              primitive.ObjectID     `bson:"_id,omitempty"`
	OrderNumber     string                 `bson:"orderNumber"`
	UserID          string                 `bson:"userId"`
	Email           string                 `bson:"email,omitempty"`
	ShippingAddress domain.ShippingAddress `bson:"shippingAddress"`
	Note            string                 `bson:"note,omitempty"`
	Items           []domain.OrderItem     `bson:"items"`
	Subtotal        float64                `bson:"subtotal"`
	ShippingFee     float64                `bson:"shippingFee"`
	Discount        float64                `bson:"discount"`
	Total           float64                `bson:"total"`
	PaymentMethod   string                 `bson:"paymentMethod"`
	OrderStatus     string                 `bson:"orderStatus"`
	ShippingStatus  string                 `bson:"shippingStatus"`
	PaymentStatus   string                 `bson:"paymentStatus"`
	TransactionID   string                 `bson:"transactionId,omitempty"`
	PaymentURL      string                 `bson:"paymentUrl,omitempty"`
	CancelReason    string                 `bson:"cancelReason,omitempty"`
	Version         int64                  `bson:"version"`
	CreatedAt       time.Time              `bson:"createdAt"`
	UpdatedAt       time.Time              `bson:"updatedAt"`
	PaidAt          *time.Time             `bson:"paidAt,omitempty"`
	ShippedAt       *time.Time             `bson:"shippedAt,omitempty"`
	DeliveredAt     *time.Time             `bson:"deliveredAt,omitempty"`
	CancelledAt     *time.Time             `bson:"cancelledAt,omitempty"`
}

func (d *OrderDocument) ToDomainOrder() *domain.Order {
	items := d.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	return &domain.Order{
		ID:             d.ID.Hex(),
		OrderNumber:    d.OrderNumber,
		UserID:         d.UserID,
		CustomerEmail:  d.Email,
		Shipping:       d.ShippingAddress,
		Note:           d.Note,
		Items:          items,
		Subtotal:       d.Subtotal,
		ShippingFee:    d.ShippingFee,
		Discount:       d.Discount,
		Total:          d.Total,
		PaymentMethod:  d.PaymentMethod,
		OrderStatus:    d.OrderStatus,
		ShippingStatus: d.ShippingStatus,
		PaymentStatus:  d.PaymentStatus,
		TransactionID:  d.TransactionID,
		PaymentURL:     d.PaymentURL,
		CancelReason:   d.CancelReason,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
		PaidAt:         d.PaidAt,
		ShippedAt:      d.ShippedAt,
		DeliveredAt:    d.DeliveredAt,
		CancelledAt:    d.CancelledAt,
	}
}

func FromDomainOrder(o *domain.Order) *OrderDocument {
	return &OrderDocument{
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
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		PaidAt:          o.PaidAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
	}
}
