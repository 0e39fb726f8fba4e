// internal/service/gateway/auth.go
package gateway

import (
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/pkg/logger"
)

// 下游服务通过 httpx.CallerID 读取这两个头
const (
	HeaderUserID   = httpx.HeaderUserID
	HeaderUserRole = httpx.HeaderUserRole
)

// Claims 是网关接受的令牌载荷，userId 缺省时取 sub
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.StandardClaims
}

func (c *Claims) subject() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Authenticator 校验 HS256 Bearer 令牌
type Authenticator struct {
	secret         []byte
	publicPrefixes []string
}

func NewAuthenticator(secret string, publicPrefixes []string) *Authenticator {
	return &Authenticator{secret: []byte(secret), publicPrefixes: publicPrefixes}
}

func (a *Authenticator) isPublic(path string) bool {
	for _, p := range a.publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Parse 只接受 HS256 签名
func (a *Authenticator) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, apperr.Validation("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Validation("invalid token")
	}
	if claims.subject() == "" {
		return nil, apperr.Validation("token has no subject")
	}
	return claims, nil
}

// bearer 浏览器的 websocket 不能带请求头，所以也接受 token 查询参数
func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// Middleware 去掉客户端自带的身份头，校验通过后改写为令牌中的身份
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(HeaderUserID)
		r.Header.Del(HeaderUserRole)
		if r.Method == http.MethodOptions || a.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		raw := bearer(r)
		if raw == "" {
			writeUnauthorized(w, "missing bearer token")
			return
		}
		claims, err := a.Parse(raw)
		if err != nil {
			logger.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("⚠️ rejected token")
			writeUnauthorized(w, "invalid token")
			return
		}

		r.Header.Set(HeaderUserID, claims.subject())
		if claims.Role != "" {
			r.Header.Set(HeaderUserRole, claims.Role)
		}
		ctx := r.Context()
		trace.SpanFromContext(ctx).AddEvent("authenticated")
		if m, err := baggage.NewMember("user_id", claims.subject()); err == nil {
			if b, err := baggage.FromContext(ctx).SetMember(m); err == nil {
				ctx = baggage.ContextWithBaggage(ctx, b)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": msg})
}
