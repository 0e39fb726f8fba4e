package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"nexusmall/internal/service/payment/application"
	"nexusmall/internal/service/payment/domain"
)

type countingRelay struct{ calls int }

func (c *countingRelay) ReportPayment(context.Context, string, string, string) error {
	c.calls++
	return nil
}

func setup() (*mux.Router, *domain.Gateway, *countingRelay) {
	g := domain.NewGateway(domain.GatewayConfig{TmnCode: "DEMO", HashSecret: "s3cret", PayURL: "https://pay.test/vpc", Location: time.UTC})
	relay := &countingRelay{}
	svc := application.NewPaymentApplicationService(g, relay, noop.NewTracerProvider().Tracer("test"))
	r := mux.NewRouter()
	NewPaymentHandler(svc).RegisterRoutes(r)
	return r, g, relay
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestCallbackInvalidSignatureIs400(t *testing.T) {
	r, _, relay := setup()
	rec := get(r, "/api/payment/callback?vnp_TxnRef=M1&vnp_ResponseCode=00&vnp_SecureHash=deadbeef")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "97", body["RspCode"])
	assert.Equal(t, "invalid transaction", body["Message"])
	assert.Zero(t, relay.calls)
}

func TestCallbackAndIPNVerified(t *testing.T) {
	r, g, relay := setup()
	p := url.Values{}
	p.Set("vnp_TxnRef", "M1")
	p.Set("vnp_ResponseCode", "00")
	p.Set("vnp_OrderInfo", "Thanh toan don hang M1")
	p.Set(domain.ParamHash, g.Sign(p))

	for _, path := range []string{"/api/payment/callback", "/api/payment/ipn"} {
		rec := get(r, path+"?"+p.Encode())
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var body application.CallbackResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "00", body.RspCode)
		assert.True(t, body.Success)
		assert.Equal(t, "M1", body.OrderID)
	}
	assert.Equal(t, 2, relay.calls)
}

func TestCreatePaymentURLRoute(t *testing.T) {
	r, _, _ := setup()
	rec := get(r, "/api/payment/vnpay?amount=120000&orderId=M1")
	require.Equal(t, http.StatusOK, rec.Code)
	var body application.PaymentURLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.PaymentURL, "vnp_Amount=12000000")

	assert.Equal(t, http.StatusBadRequest, get(r, "/api/payment/vnpay?amount=abc&orderId=M1").Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/api/payment/vnpay?amount=0&orderId=M1").Code)
}
