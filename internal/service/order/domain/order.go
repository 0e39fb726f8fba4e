// internal/service/order/domain/order.go
package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nexusmall/internal/pkg/apperr"
)

// OrderItem 是订单行，lineTotal = unitPrice * quantity
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	Image     string  `json:"image,omitempty" bson:"image,omitempty"`
	Quantity  int     `json:"quantity" bson:"quantity"`
	UnitPrice float64 `json:"unitPrice" bson:"unitPrice"`
	LineTotal float64 `json:"lineTotal" bson:"lineTotal"`
}

// ShippingAddress 收货信息
type ShippingAddress struct {
	FullName string `json:"fullName" bson:"fullName"`
	Phone    string `json:"phone" bson:"phone"`
	Address  string `json:"address" bson:"address"`
	Ward     string `json:"ward,omitempty" bson:"ward,omitempty"`
	District string `json:"district,omitempty" bson:"district,omitempty"`
	City     string `json:"city,omitempty" bson:"city,omitempty"`
}

// Order 是订单聚合的根实体，orderNumber 创建后不可变
type Order struct {
	ID            string
	OrderNumber   string
	UserID        string
	CustomerEmail string
	Shipping      ShippingAddress
	Note          string
	Items         []OrderItem

	Subtotal    float64
	ShippingFee float64
	Discount    float64
	Total       float64

	PaymentMethod  string
	OrderStatus    string
	ShippingStatus string
	PaymentStatus  string
	TransactionID  string
	PaymentURL     string
	CancelReason   string

	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// NewOrder 校验订单行并计算金额，三个状态轴都置为初始值。orderNumber 在持久化时生成。
func NewOrder(userID, email, paymentMethod string, shipping ShippingAddress, items []OrderItem, shippingFee float64, now time.Time) (*Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("userId is required")
	}
	if len(items) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	if shippingFee < 0 {
		return nil, apperr.Validation("shippingFee must not be negative")
	}
	lines := make([]OrderItem, len(items))
	for i, it := range items {
		if it.ProductID == "" {
			return nil, apperr.Validation("item %d: productId is required", i)
		}
		if it.Quantity <= 0 {
			return nil, apperr.Validation("item %s: quantity must be greater than 0", it.ProductID)
		}
		if it.UnitPrice < 0 {
			return nil, apperr.Validation("item %s: unitPrice must not be negative", it.ProductID)
		}
		lines[i] = it
	}
	if paymentMethod == "" {
		paymentMethod = PaymentCOD
	}

	o := &Order{
		UserID:         userID,
		CustomerEmail:  email,
		Shipping:       shipping,
		Items:          lines,
		ShippingFee:    shippingFee,
		PaymentMethod:  strings.ToLower(paymentMethod),
		OrderStatus:    StatusUnprocessed,
		ShippingStatus: StatusUnprocessed,
		PaymentStatus:  PaymentUnpaid,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	o.Reprice(0)
	return o, nil
}

// Reprice 重新计算每行小计与总额，total = max(0, subtotal + shippingFee - discount)
func (o *Order) Reprice(discount float64) {
	subtotal := decimal.Zero
	for i := range o.Items {
		line := decimal.NewFromFloat(o.Items[i].UnitPrice).Mul(decimal.NewFromInt(int64(o.Items[i].Quantity)))
		o.Items[i].LineTotal = line.InexactFloat64()
		subtotal = subtotal.Add(line)
	}
	if discount < 0 {
		discount = 0
	}
	d := decimal.NewFromFloat(discount)
	total := subtotal.Add(decimal.NewFromFloat(o.ShippingFee)).Sub(d)
	if total.IsNegative() {
		total = decimal.Zero
	}
	o.Subtotal = subtotal.InexactFloat64()
	o.Discount = d.InexactFloat64()
	o.Total = total.Round(2).InexactFloat64()
}

// RequiresPaymentURL 非货到付款且取整后金额为正的订单需要向支付网关申请链接。
// 金额不足 1 VND 的订单没有可付款项，保持 "Chưa thanh toán"。
func (o *Order) RequiresPaymentURL() bool {
	return o.PaymentMethod != PaymentCOD && decimal.NewFromFloat(o.Total).Round(0).IsPositive()
}

// IsPaid 订单已付款
func (o *Order) IsPaid() bool { return o.PaymentStatus == PaymentPaid }

// IsDelivered 订单或物流任一轴为已送达
func (o *Order) IsDelivered() bool {
	return o.OrderStatus == StatusDelivered || o.ShippingStatus == StatusDelivered
}

func requireStatus(axis, status string) error {
	if strings.TrimSpace(status) == "" {
		return apperr.Validation("%s must not be empty", axis)
	}
	return nil
}

// SetOrderStatus 覆盖订单状态，没有转换表；"Đã giao" 写入 deliveredAt
func (o *Order) SetOrderStatus(status string, now time.Time) error {
	if err := requireStatus("orderStatus", status); err != nil {
		return err
	}
	o.OrderStatus = status
	if status == StatusDelivered {
		o.DeliveredAt = &now
	}
	o.UpdatedAt = now
	return nil
}

// SetShippingStatus 覆盖物流状态；"Đã giao" 同时写入 shippedAt 与 deliveredAt
func (o *Order) SetShippingStatus(status string, now time.Time) error {
	if err := requireStatus("shippingStatus", status); err != nil {
		return err
	}
	o.ShippingStatus = status
	if status == StatusDelivered {
		o.ShippedAt = &now
		o.DeliveredAt = &now
	}
	o.UpdatedAt = now
	return nil
}

// SetPaymentStatus 覆盖支付状态；"Đã thanh toán" 写入 paidAt
func (o *Order) SetPaymentStatus(status, transactionID string, now time.Time) error {
	if err := requireStatus("paymentStatus", status); err != nil {
		return err
	}
	o.PaymentStatus = status
	if transactionID != "" {
		o.TransactionID = transactionID
	}
	if status == PaymentPaid {
		o.PaidAt = &now
	}
	o.UpdatedAt = now
	return nil
}

// MarkPaymentURL 记录支付链接申请结果
func (o *Order) MarkPaymentURL(url string, err error, now time.Time) {
	if err != nil {
		o.PaymentStatus = PaymentURLFailed
	} else {
		o.PaymentURL = url
	}
	o.UpdatedAt = now
}

// Cancel 只允许取消尚未处理的订单
func (o *Order) Cancel(reason string, now time.Time) error {
	if o.OrderStatus != StatusUnprocessed {
		return apperr.Validation("order %s cannot be cancelled in status %q", o.OrderNumber, o.OrderStatus)
	}
	o.OrderStatus = StatusCancelled
	o.CancelReason = reason
	o.CancelledAt = &now
	o.UpdatedAt = now
	return nil
}

// Filter 管理端列表条件，OrderStatus 为空表示全部
type Filter struct {
	OrderStatus string
}

// OrderRepository 定义了订单聚合的持久化接口，由基础设施层实现。
type OrderRepository interface {
	// Create 写入新订单，orderNumber 重复时返回 Conflict
	Create(ctx context.Context, order *Order) error
	FindByNumber(ctx context.Context, orderNumber string) (*Order, error)
	FindByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	List(ctx context.Context, filter Filter) ([]*Order, error)
	// Update 仅在 version 未变化时写入，成功后 version+1，否则返回 Conflict
	Update(ctx context.Context, order *Order) error
	Delete(ctx context.Context, id string) error
}
