package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/service/order/application"
	"nexusmall/internal/service/order/domain"
	"nexusmall/internal/service/order/domain/port"
)

// stubRepo 按订单号保存订单，不做版本检查
type stubRepo struct {
	orders map[string]domain.Order
}

func (s *stubRepo) Create(_ context.Context, o *domain.Order) error {
	o.ID = "id-" + o.OrderNumber
	s.orders[o.OrderNumber] = *o
	return nil
}
func (s *stubRepo) FindByNumber(_ context.Context, n string) (*domain.Order, error) {
	o, ok := s.orders[n]
	if !ok {
		return nil, apperr.NotFound("order %s not found", n)
	}
	return &o, nil
}
func (s *stubRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, apperr.NotFound("order %s not found", id)
}
func (s *stubRepo) ListByUser(context.Context, string) ([]*domain.Order, error) { return nil, nil }
func (s *stubRepo) List(context.Context, domain.Filter) ([]*domain.Order, error) {
	out := []*domain.Order{}
	for _, o := range s.orders {
		o := o
		out = append(out, &o)
	}
	return out, nil
}
func (s *stubRepo) Update(_ context.Context, o *domain.Order) error {
	s.orders[o.OrderNumber] = *o
	return nil
}
func (s *stubRepo) Delete(_ context.Context, id string) error {
	for n, o := range s.orders {
		if o.ID == id {
			delete(s.orders, n)
			return nil
		}
	}
	return apperr.NotFound("order %s not found", id)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, port.Notification) error { return nil }

type nopMembership struct{}

func (nopMembership) Discount(context.Context, string, float64) (float64, error) { return 0, nil }
func (nopMembership) RecordPurchase(context.Context, string, float64, string) error {
	return nil
}

type panicPayment struct{}

func (panicPayment) CreatePaymentURL(context.Context, string, float64, string) (string, error) {
	panic("cod orders must not request a payment url")
}

func newRouter() (*mux.Router, *stubRepo) {
	repo := &stubRepo{orders: map[string]domain.Order{}}
	now := func() time.Time { return time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC) }
	svc := application.NewOrderApplicationService(repo, domain.NewNumberGenerator(time.UTC).WithClock(now),
		noop.NewTracerProvider().Tracer("test"), panicPayment{}, nopNotifier{}, nopMembership{}).WithClock(now)
	r := mux.NewRouter()
	NewOrderHandler(svc).RegisterRoutes(r)
	return r, repo
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createOrder(t *testing.T, r http.Handler) application.OrderResponse {
	t.Helper()
	rec := do(r, http.MethodPost, "/api/orders",
		`{"userId":"u1","paymentMethod":"cod","items":[{"productId":"p1","name":"Tea","quantity":2,"unitPrice":50000}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp application.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateAndGet(t *testing.T) {
	r, _ := newRouter()
	created := createOrder(t, r)
	assert.Equal(t, "M20240601020000", created.OrderNumber)
	assert.Equal(t, 100000.0, created.Total)

	rec := do(r, http.MethodGet, "/api/orders/"+created.OrderNumber, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodGet, "/api/orders/"+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodGet, "/api/orders/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateWithoutItemsIs400(t *testing.T) {
	r, _ := newRouter()
	rec := do(r, http.MethodPost, "/api/orders", `{"userId":"u1","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(r, http.MethodPost, "/api/orders", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShippingRoute(t *testing.T) {
	r, repo := newRouter()
	created := createOrder(t, r)

	rec := do(r, http.MethodPut, "/api/orders/"+created.OrderNumber+"/shipping?shippingStatus="+url.QueryEscape(domain.StatusDelivered), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored := repo.orders[created.OrderNumber]
	assert.NotNil(t, stored.ShippedAt)
	assert.NotNil(t, stored.DeliveredAt)

	rec = do(r, http.MethodPut, "/api/orders/"+created.OrderNumber+"/shipping", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentCallbackRoute(t *testing.T) {
	r, repo := newRouter()
	created := createOrder(t, r)

	target := "/api/orders/payment/callback?orderNumber=" + created.OrderNumber +
		"&paymentStatus=" + url.QueryEscape(domain.PaymentPaid) + "&transactionId=14000001"
	rec := do(r, http.MethodPut, target, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "14000001", repo.orders[created.OrderNumber].TransactionID)
	assert.Equal(t, domain.PaymentPaid, repo.orders[created.OrderNumber].PaymentStatus)
}

func TestCancelRoute(t *testing.T) {
	r, _ := newRouter()
	created := createOrder(t, r)

	rec := do(r, http.MethodPut, "/api/orders/"+created.OrderNumber+"/cancel?reason=late", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(r, http.MethodPut, "/api/orders/"+created.OrderNumber+"/cancel", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodDelete, "/api/orders/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(r, http.MethodGet, "/api/orders?orderStatus=x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
