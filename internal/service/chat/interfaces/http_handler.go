// internal/service/chat/interfaces/http_handler.go
package interfaces

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/wshub"
	"nexusmall/internal/service/chat/application"
)

type ChatHandler struct {
	service *application.ChatApplicationService
	hub     *wshub.Hub
}

func NewChatHandler(service *application.ChatApplicationService, hub *wshub.Hub) *ChatHandler {
	return &ChatHandler{service: service, hub: hub}
}

func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/chat", h.serveWS).Methods(http.MethodGet)
	r.HandleFunc("/api/chat/history/{userId}", h.history).Methods(http.MethodGet)
}

func (h *ChatHandler) serveWS(w http.ResponseWriter, r *http.Request) {
	userID, err := httpx.CallerID(r, r.URL.Query().Get("userId"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	sender := h.service.Identify(r.Context(), userID)

	onMessage := func(ctx context.Context, c *wshub.Client, payload []byte) {
		c.Send(h.service.Relay(ctx, sender, payload))
	}
	logger.Ctx(r.Context()).Info().Str("user_id", sender.ID).Str("role", sender.Role).Msg("chat socket connected")
	if err := h.hub.Serve(w, r, sender.Keys(), onMessage); err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade failed")
	}
}

func (h *ChatHandler) history(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := httpx.ActingFor(r, userID); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	list, err := h.service.History(r.Context(), userID, httpx.QueryInt(r, "limit", application.DefaultHistoryLimit))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}
