package domain

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusmall/internal/pkg/apperr"
)

var t0 = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func sampleOrder(t *testing.T, method string) *Order {
	t.Helper()
	o, err := NewOrder("u1", "u1@example.com", method, ShippingAddress{FullName: "An"}, []OrderItem{
		{ProductID: "p1", Name: "Tea", Quantity: 2, UnitPrice: 45000},
		{ProductID: "p2", Name: "Cup", Quantity: 1, UnitPrice: 12500.5},
	}, 30000, t0)
	require.NoError(t, err)
	return o
}

func TestNewOrderComputesTotals(t *testing.T) {
	o := sampleOrder(t, "")

	assert.Equal(t, 90000.0, o.Items[0].LineTotal)
	assert.Equal(t, 12500.5, o.Items[1].LineTotal)
	assert.Equal(t, 102500.5, o.Subtotal)
	assert.Equal(t, 132500.5, o.Total)
	assert.Equal(t, PaymentCOD, o.PaymentMethod)
	assert.Equal(t, StatusUnprocessed, o.OrderStatus)
	assert.Equal(t, StatusUnprocessed, o.ShippingStatus)
	assert.Equal(t, PaymentUnpaid, o.PaymentStatus)
	assert.False(t, o.RequiresPaymentURL())
}

func TestRepriceClampsAtZero(t *testing.T) {
	o := sampleOrder(t, "vnpay")
	o.Reprice(1000)
	assert.Equal(t, 131500.5, o.Total)
	assert.True(t, o.RequiresPaymentURL())
	o.Reprice(1e9)
	assert.Equal(t, 0.0, o.Total)
	assert.False(t, o.RequiresPaymentURL())
}

func TestNewOrderValidation(t *testing.T) {
	cases := map[string][]OrderItem{
		"empty":         nil,
		"zero quantity": {{ProductID: "p1", Quantity: 0, UnitPrice: 1}},
		"negative":      {{ProductID: "p1", Quantity: 1, UnitPrice: -1}},
		"no product":    {{Quantity: 1, UnitPrice: 1}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewOrder("u1", "", "cod", ShippingAddress{}, items, 0, t0)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestShippingDeliveredSetsBothTimestamps(t *testing.T) {
	o := sampleOrder(t, "cod")
	require.NoError(t, o.SetShippingStatus("Đang giao", t0))
	assert.Nil(t, o.ShippedAt)
	assert.Nil(t, o.DeliveredAt)

	later := t0.Add(time.Hour)
	require.NoError(t, o.SetShippingStatus(StatusDelivered, later))
	require.NotNil(t, o.ShippedAt)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, later, *o.ShippedAt)
	assert.True(t, o.IsDelivered())

	// 之后改回其他状态不会清掉已有时间戳
	require.NoError(t, o.SetShippingStatus("Đang giao", later.Add(time.Hour)))
	require.NotNil(t, o.ShippedAt)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, later, *o.ShippedAt)
	assert.Equal(t, later, *o.DeliveredAt)
}

func TestOrderAndPaymentStatus(t *testing.T) {
	o := sampleOrder(t, "vnpay")
	require.NoError(t, o.SetOrderStatus("Đang xử lý", t0))
	assert.Nil(t, o.DeliveredAt)
	require.NoError(t, o.SetOrderStatus(StatusDelivered, t0))
	assert.NotNil(t, o.DeliveredAt)
	assert.Nil(t, o.ShippedAt)

	require.NoError(t, o.SetPaymentStatus(PaymentPaid, "TX1", t0))
	assert.True(t, o.IsPaid())
	assert.Equal(t, "TX1", o.TransactionID)
	assert.NotNil(t, o.PaidAt)

	assert.True(t, apperr.Is(o.SetPaymentStatus(" ", "", t0), apperr.KindValidation))
	assert.True(t, apperr.Is(o.SetOrderStatus("", t0), apperr.KindValidation))
}

func TestCancelIsGated(t *testing.T) {
	o := sampleOrder(t, "cod")
	require.NoError(t, o.Cancel("changed my mind", t0))
	assert.Equal(t, StatusCancelled, o.OrderStatus)
	assert.Equal(t, "changed my mind", o.CancelReason)
	assert.NotNil(t, o.CancelledAt)

	err := o.Cancel("again", t0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestNumberGeneratorIsMonotonic(t *testing.T) {
	hcm, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	require.NoError(t, err)
	g := NewNumberGenerator(hcm).WithClock(func() time.Time { return t0 })

	assert.Equal(t, "M20240601163000", g.Next())
	assert.Equal(t, "M20240601163001", g.Next())
	assert.Equal(t, "M20240601163002", g.Next())
}
