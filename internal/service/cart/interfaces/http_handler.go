// internal/service/cart/interfaces/http_handler.go
package interfaces

import (
	"net/http"

	"github.com/gorilla/mux"

	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/service/cart/application"
)

type CartHandler struct {
	service *application.CartApplicationService
}

func NewCartHandler(service *application.CartApplicationService) *CartHandler {
	return &CartHandler{service: service}
}

func (h *CartHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/cart/{userId}").Subrouter()
	api.HandleFunc("", h.get).Methods(http.MethodGet)
	api.HandleFunc("", h.clear).Methods(http.MethodDelete)
	api.HandleFunc("/items", h.add).Methods(http.MethodPost)
	api.HandleFunc("/items/{productId}", h.update).Methods(http.MethodPut)
	api.HandleFunc("/items/{productId}", h.remove).Methods(http.MethodDelete)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.service.GetCart(r.Context(), mux.Vars(r)["userId"]))
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req application.AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	h.respond(w, r)(h.service.AddItem(r.Context(), mux.Vars(r)["userId"], &req))
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	var req application.UpdateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	h.respond(w, r)(h.service.UpdateItem(r.Context(), vars["userId"], vars["productId"], req.Quantity))
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.respond(w, r)(h.service.RemoveItem(r.Context(), vars["userId"], vars["productId"]))
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.service.Clear(r.Context(), mux.Vars(r)["userId"]))
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request) func(*application.CartResponse, error) {
	return func(resp *application.CartResponse, err error) {
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
