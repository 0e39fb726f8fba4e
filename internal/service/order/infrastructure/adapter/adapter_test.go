package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/bootstrap"
	"nexusmall/internal/pkg/events"
	"nexusmall/internal/pkg/httpclient"
	"nexusmall/internal/service/order/domain/port"
)

func clientFor(service string, srv *httptest.Server) *httpclient.Client {
	return httpclient.NewClient(noop.NewTracerProvider().Tracer("test"),
		httpclient.StaticResolver{service: {srv.URL}}, time.Second, 2*time.Second)
}

func TestCreatePaymentURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payment/vnpay", r.URL.Path)
		assert.Equal(t, "M20240601020000", r.URL.Query().Get("orderId"))
		assert.Equal(t, "120000", r.URL.Query().Get("amount"))
		_ = json.NewEncoder(w).Encode(map[string]string{"paymentUrl": "https://sandbox.vnpayment.vn/x"})
	}))
	defer srv.Close()

	url, err := NewPaymentHTTPAdapter(clientFor(bootstrap.PaymentService, srv)).
		CreatePaymentURL(context.Background(), "M20240601020000", 120000, "info")
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.vnpayment.vn/x", url)
}

func TestCreatePaymentURLEmptyIsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewPaymentHTTPAdapter(clientFor(bootstrap.PaymentService, srv)).
		CreatePaymentURL(context.Background(), "M1", 1, "")
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestMembershipAdapter(t *testing.T) {
	var purchase map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/membership/u1/discount":
			assert.Equal(t, "100000", r.URL.Query().Get("amount"))
			_, _ = w.Write([]byte(`{"tier":"Gold","discountRate":0.03,"discount":3000}`))
		case "/api/users/membership/u1/purchase":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&purchase))
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	a := NewMembershipHTTPAdapter(clientFor(bootstrap.UserService, srv))
	d, err := a.Discount(context.Background(), "u1", 100000)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, d)

	require.NoError(t, a.RecordPurchase(context.Background(), "u1", 117000, "M1"))
	assert.Equal(t, "M1", purchase["orderNumber"])
	assert.Equal(t, 117000.0, purchase["orderAmount"])
}

func TestNotificationHTTPAdapterPostsBody(t *testing.T) {
	var got port.Notification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := port.Notification{UserID: "u1", OrderID: "M1", Title: "t", Message: "m", Type: port.NotifyShippingStatus}
	require.NoError(t, NewNotificationHTTPAdapter(clientFor(bootstrap.NotificationService, srv)).Notify(context.Background(), n))
	assert.Equal(t, n, got)
}

func TestEventTypeMapping(t *testing.T) {
	assert.Equal(t, events.ShippingChanged, eventType(port.Notification{Type: port.NotifyShippingStatus}))
	assert.Equal(t, events.OrderStatusChanged, eventType(port.Notification{Type: port.NotifyOrderStatus}))
	assert.Equal(t, events.NotificationGeneral, eventType(port.Notification{Type: port.NotifyGeneral}))
}
