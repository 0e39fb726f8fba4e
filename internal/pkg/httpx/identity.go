// internal/pkg/httpx/identity.go
package httpx

import (
	"net/http"

	"nexusmall/internal/pkg/apperr"
)

// 网关鉴权通过后写入的身份头，客户端自带的同名头会被网关去掉
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// CallerID 返回请求方的用户 id。
// 带有 X-User-Id 时以它为准，claimed 非空且不同则返回 Forbidden；
// 没有身份头时（未开启鉴权或服务间直连）使用 claimed。
func CallerID(r *http.Request, claimed string) (string, error) {
	id := r.Header.Get(HeaderUserID)
	switch {
	case id == "" && claimed == "":
		return "", apperr.Validation("userId is required")
	case id == "":
		return claimed, nil
	case claimed != "" && claimed != id:
		return "", apperr.Forbidden("userId %s does not match the authenticated user", claimed)
	}
	return id, nil
}

// ActingFor 检查请求方能否访问 userID 的数据：本人或 admin 角色
func ActingFor(r *http.Request, userID string) error {
	id := r.Header.Get(HeaderUserID)
	if id == "" || id == userID || r.Header.Get(HeaderUserRole) == "admin" {
		return nil
	}
	return apperr.Forbidden("not allowed to access user %s", userID)
}
