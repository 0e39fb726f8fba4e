// internal/service/payment/interfaces/http_handler.go
package interfaces

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/service/payment/application"
	"nexusmall/internal/service/payment/domain"
)

type PaymentHandler struct {
	service *application.PaymentApplicationService
}

func NewPaymentHandler(service *application.PaymentApplicationService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/payment").Subrouter()
	api.HandleFunc("/vnpay", h.createPaymentURL).Methods(http.MethodGet)
	// return url 与 IPN 共用同一套验签逻辑
	api.HandleFunc("/callback", h.callback).Methods(http.MethodGet)
	api.HandleFunc("/ipn", h.callback).Methods(http.MethodGet)
}

func (h *PaymentHandler) createPaymentURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		httpx.WriteError(w, r, apperr.Validation("amount must be a positive number"))
		return
	}
	resp, err := h.service.CreatePaymentURL(r.Context(), domain.PaymentRequest{
		OrderID:   q.Get("orderId"),
		Amount:    amount,
		OrderInfo: q.Get("orderInfo"),
		IPAddr:    clientIP(r),
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *PaymentHandler) callback(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.HandleCallback(r.Context(), r.URL.Query())
	if apperr.Is(err, apperr.KindSignatureInvalid) {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string]string{"RspCode": "97", "Message": "invalid transaction"})
		return
	}
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// clientIP 优先取网关转发的 X-Forwarded-For 第一个地址
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
