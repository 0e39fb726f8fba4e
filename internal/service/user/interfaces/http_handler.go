// internal/service/user/interfaces/http_handler.go
package interfaces

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/service/user/application"
)

// UserHandler 封装了 user 服务的 HTTP 处理器
type UserHandler struct {
	service *application.UserApplicationService
}

func NewUserHandler(service *application.UserApplicationService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes 注册所有路由，固定路径必须先于 {userId} 注册
func (h *UserHandler) RegisterRoutes(r *mux.Router) {
	api := r.PathPrefix("/api/users").Subrouter()
	api.HandleFunc("/sync", h.sync).Methods(http.MethodPost)
	api.HandleFunc("/membership/tiers", h.tiers).Methods(http.MethodGet)
	api.HandleFunc("/membership/reset", h.reset).Methods(http.MethodPost)
	api.HandleFunc("/membership/{userId}", h.membership).Methods(http.MethodGet)
	api.HandleFunc("/membership/{userId}/discount", h.discount).Methods(http.MethodGet)
	api.HandleFunc("/membership/{userId}/purchase", h.recordPurchase).Methods(http.MethodPost)
	api.HandleFunc("", h.list).Methods(http.MethodGet)
	api.HandleFunc("/{userId}", h.get).Methods(http.MethodGet)
	api.HandleFunc("/{userId}", h.update).Methods(http.MethodPut)
	api.HandleFunc("/{userId}", h.delete).Methods(http.MethodDelete)
}

func (h *UserHandler) sync(w http.ResponseWriter, r *http.Request) {
	var req application.SyncUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp, err := h.service.SyncUser(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListUsers(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	var req application.UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp, err := h.service.UpdateProfile(r.Context(), mux.Vars(r)["userId"], &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteUser(r.Context(), mux.Vars(r)["userId"]); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) tiers(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.service.Tiers())
}

func (h *UserHandler) membership(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetMembership(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) discount(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		httpx.WriteError(w, r, apperr.Validation("amount must be a number"))
		return
	}
	resp, err := h.service.CalculateDiscount(r.Context(), mux.Vars(r)["userId"], amount)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	var req application.RecordPurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp, err := h.service.RecordPurchase(r.Context(), mux.Vars(r)["userId"], &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *UserHandler) reset(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.MonthlyResetAll(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
