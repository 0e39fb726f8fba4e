// internal/service/gateway/internal_paths.go
package gateway

import (
	"net/http"
	"regexp"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/pkg/logger"
)

// DefaultInternalPaths 只供服务之间调用的接口，网关对外一律返回 404。
// 支付结果必须经过 payment-service 验签后再转给 order-service，
// 会员累计只由 order-service 在订单完成时写入。
var DefaultInternalPaths = []*regexp.Regexp{
	regexp.MustCompile(`^/api/orders/payment/callback/?$`),
	regexp.MustCompile(`^/api/orders/[^/]+/payment/?$`),
	regexp.MustCompile(`^/api/users/membership/[^/]+/purchase/?$`),
	regexp.MustCompile(`^/api/users/membership/reset/?$`),
}

// DenyInternal 拦截匹配 paths 的请求，不转发给后端
func DenyInternal(paths []*regexp.Regexp) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, p := range paths {
				if p.MatchString(r.URL.Path) {
					logger.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Str("method", r.Method).Msg("⚠️ blocked internal endpoint")
					httpx.WriteError(w, r, apperr.NotFound("%s not found", r.URL.Path))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
