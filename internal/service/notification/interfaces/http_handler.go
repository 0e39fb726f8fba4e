// internal/service/notification/interfaces/http_handler.go
package interfaces

import (
	"net/http"

	"github.com/gorilla/mux"

	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/wshub"
	"nexusmall/internal/service/notification/application"
)

type NotificationHandler struct {
	service *application.NotificationApplicationService
	hub     *wshub.Hub
}

func NewNotificationHandler(service *application.NotificationApplicationService, hub *wshub.Hub) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub}
}

func (h *NotificationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/notifications", h.serveWS).Methods(http.MethodGet)

	api := r.PathPrefix("/api/notifications").Subrouter()
	api.HandleFunc("", h.create).Methods(http.MethodPost)
	api.HandleFunc("/admin", h.admin).Methods(http.MethodPost)
	api.HandleFunc("/user/{userId}", h.list).Methods(http.MethodGet)
	api.HandleFunc("/user/{userId}", h.deleteAll).Methods(http.MethodDelete)
	api.HandleFunc("/user/{userId}/unread-count", h.unreadCount).Methods(http.MethodGet)
	api.HandleFunc("/user/{userId}/read-all", h.readAll).Methods(http.MethodPut)
	api.HandleFunc("/{id}/read", h.read).Methods(http.MethodPut)
	api.HandleFunc("/{id}", h.delete).Methods(http.MethodDelete)
}

func (h *NotificationHandler) serveWS(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.CallerID(r, r.URL.Query().Get("userId"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	// Serve 会阻塞到连接断开
	if err := h.hub.Serve(w, r, []string{userID}, nil); err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
	}
}

func (h *NotificationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req application.CreateNotificationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	n, err := h.service.Create(r.Context(), &req)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, n)
}

func (h *NotificationHandler) admin(w http.ResponseWriter, r *http.Request) {
	var req application.AdminMessageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	writeResult(w, r, http.StatusCreated)(h.service.SendAdminMessage(r.Context(), &req))
}

func (h *NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *NotificationHandler) unreadCount(w http.ResponseWriter, r *http.Request) {
	writeResult(w, r, http.StatusOK)(h.service.UnreadCount(r.Context(), mux.Vars(r)["userId"]))
}

func (h *NotificationHandler) readAll(w http.ResponseWriter, r *http.Request) {
	writeResult(w, r, http.StatusOK)(h.service.MarkAllRead(r.Context(), mux.Vars(r)["userId"]))
}

func (h *NotificationHandler) deleteAll(w http.ResponseWriter, r *http.Request) {
	writeResult(w, r, http.StatusOK)(h.service.DeleteAll(r.Context(), mux.Vars(r)["userId"]))
}

func (h *NotificationHandler) read(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.MarkRead(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, n)
}

func (h *NotificationHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeResult(w http.ResponseWriter, r *http.Request, status int) func(*application.CountResponse, error) {
	return func(resp *application.CountResponse, err error) {
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, status, resp)
	}
}
