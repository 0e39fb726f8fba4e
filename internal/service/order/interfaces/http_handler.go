// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"net/http"

	"github.com/gorilla/mux"

	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/service/order/application"
)

// OrderHandler 是订单的 HTTP 入站适配器
type OrderHandler struct {
	service *application.OrderApplicationService
}

func NewOrderHandler(service *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{service: service}
}

func (h *OrderHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/orders").Subrouter()
	api.HandleFunc("", h.create).Methods(http.MethodPost)
	api.HandleFunc("", h.list).Methods(http.MethodGet)
	// 网关回调转发需要先于 /{ref} 注册
	api.HandleFunc("/payment/callback", h.paymentCallback).Methods(http.MethodPut)
	api.HandleFunc("/user/{userId}", h.listByUser).Methods(http.MethodGet)
	api.HandleFunc("/{ref}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/{ref}", h.delete).Methods(http.MethodDelete)
	api.HandleFunc("/{ref}/status", h.updateStatus).Methods(http.MethodPut)
	api.HandleFunc("/{ref}/shipping", h.updateShipping).Methods(http.MethodPut)
	api.HandleFunc("/{ref}/payment", h.updatePayment).Methods(http.MethodPut)
	api.HandleFunc("/{ref}/cancel", h.cancel).Methods(http.MethodPut)
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	var req application.CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp, err := h.service.CreateOrder(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, resp)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.ListOrders(r.Context(), r.URL.Query().Get("orderStatus")))
}

func (h *OrderHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.ListByUser(r.Context(), mux.Vars(r)["userId"]))
}

func (h *OrderHandler) get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.service.GetOrder(r.Context(), mux.Vars(r)["ref"]))
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.service.UpdateOrderStatus(r.Context(), mux.Vars(r)["ref"], r.URL.Query().Get("orderStatus")))
}

func (h *OrderHandler) updateShipping(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.service.UpdateShippingStatus(r.Context(), mux.Vars(r)["ref"], r.URL.Query().Get("shippingStatus")))
}

func (h *OrderHandler) updatePayment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.respond(w, r)(h.service.UpdatePaymentStatus(r.Context(), mux.Vars(r)["ref"], q.Get("paymentStatus"), q.Get("transactionId")))
}

func (h *OrderHandler) paymentCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.respond(w, r)(h.service.PaymentCallback(r.Context(), q.Get("orderNumber"), q.Get("paymentStatus"), q.Get("transactionId")))
}

func (h *OrderHandler) cancel(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.service.CancelOrder(r.Context(), mux.Vars(r)["ref"], r.URL.Query().Get("reason")))
}

func (h *OrderHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), mux.Vars(r)["ref"]); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) respond(w http.ResponseWriter, r *http.Request) func(*application.OrderResponse, error) {
	return func(resp *application.OrderResponse, err error) {
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

func (h *OrderHandler) respondList(w http.ResponseWriter, r *http.Request) func([]*application.OrderResponse, error) {
	return func(resp []*application.OrderResponse, err error) {
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
