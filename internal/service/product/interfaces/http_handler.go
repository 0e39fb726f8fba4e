// internal/service/product/interfaces/http_handler.go
package interfaces

import (
	"net/http"

	"github.com/gorilla/mux"

	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/service/product/application"
	"nexusmall/internal/service/product/domain"
)

type ProductHandler struct {
	service *application.ProductApplicationService
}

func NewProductHandler(service *application.ProductApplicationService) *ProductHandler {
	return &ProductHandler{service: service}
}

func (h *ProductHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/products").Subrouter()
	api.HandleFunc("", h.list).Methods(http.MethodGet)
	api.HandleFunc("", h.create).Methods(http.MethodPost)
	api.HandleFunc("/category/{category}", h.byCategory).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.update).Methods(http.MethodPut)
	api.HandleFunc("/{id}", h.delete).Methods(http.MethodDelete)
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.writePage(w, r, domain.Filter{
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Page:     httpx.QueryInt(r, "page", 1),
		Size:     httpx.QueryInt(r, "size", 20),
	})
}

func (h *ProductHandler) byCategory(w http.ResponseWriter, r *http.Request) {
	h.writePage(w, r, domain.Filter{
		Category: mux.Vars(r)["category"],
		Page:     httpx.QueryInt(r, "page", 1),
		Size:     httpx.QueryInt(r, "size", 20),
	})
}

func (h *ProductHandler) writePage(w http.ResponseWriter, r *http.Request, f domain.Filter) {
	page, err := h.service.List(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	var in application.ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, err := h.service.Create(r.Context(), &in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	var in application.ProductInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	p, err := h.service.Update(r.Context(), mux.Vars(r)["id"], &in)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
