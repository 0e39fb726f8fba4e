// internal/service/review/interfaces/http_handler.go
package interfaces

import (
	"net/http"

	"github.com/gorilla/mux"

	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/service/review/application"
)

type ReviewHandler struct {
	service *application.ReviewApplicationService
}

func NewReviewHandler(service *application.ReviewApplicationService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

func (h *ReviewHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/reviews").Subrouter()
	api.HandleFunc("", h.create).Methods(http.MethodPost)
	api.HandleFunc("/product/{productId}", h.listByProduct).Methods(http.MethodGet)
	api.HandleFunc("/product/{productId}/summary", h.summary).Methods(http.MethodGet)
	api.HandleFunc("/user/{userId}", h.listByUser).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.update).Methods(http.MethodPut)
	api.HandleFunc("/{id}", h.delete).Methods(http.MethodDelete)
}

func (h *ReviewHandler) create(w http.ResponseWriter, r *http.Request) {
	var req application.CreateReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	review, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) get(w http.ResponseWriter, r *http.Request) {
	review, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) listByProduct(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByProduct(r.Context(), mux.Vars(r)["productId"])
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *ReviewHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *ReviewHandler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Summary(r.Context(), mux.Vars(r)["productId"])
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func (h *ReviewHandler) update(w http.ResponseWriter, r *http.Request) {
	var req application.UpdateReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	review, err := h.service.Update(r.Context(), mux.Vars(r)["id"], &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
