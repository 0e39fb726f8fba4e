// internal/pkg/httpx/response.go
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/logger"
)

// WriteJSON 以 JSON 写回响应
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Ctx(context.Background()).Error().Err(err).Msg("failed to encode response")
	}
}

// WriteError 按错误分类写回 {"message": "..."}
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	evt := logger.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		evt = logger.Ctx(r.Context()).Error()
	}
	evt.Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("kind", apperr.KindOf(err).String()).
		Int("status", status).
		Msg("request failed")
	WriteJSON(w, status, map[string]string{"message": err.Error()})
}

// DecodeJSON 解析请求体，失败时返回 Validation 错误
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperr.Validation("request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// QueryInt 读取整数查询参数，缺省或非法时返回 fallback
func QueryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
