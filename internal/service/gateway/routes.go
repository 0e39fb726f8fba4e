// internal/service/gateway/routes.go
package gateway

import (
	"net/http"
	"regexp"

	"github.com/gorilla/mux"

	"nexusmall/internal/pkg/bootstrap"
)

// Route 把一个路径前缀映射到后端服务
type Route struct {
	Prefix  string
	Service string
}

// DefaultRoutes 是网关对外暴露的全部前缀
var DefaultRoutes = []Route{
	{Prefix: "/api/products", Service: bootstrap.ProductService},
	{Prefix: "/api/cart", Service: bootstrap.CartService},
	{Prefix: "/api/orders", Service: bootstrap.OrderService},
	{Prefix: "/api/payment", Service: bootstrap.PaymentService},
	{Prefix: "/api/notifications", Service: bootstrap.NotificationService},
	{Prefix: "/ws/notifications", Service: bootstrap.NotificationService},
	{Prefix: "/api/reviews", Service: bootstrap.ReviewService},
	{Prefix: "/api/users", Service: bootstrap.UserService},
	{Prefix: "/api/chat", Service: bootstrap.ChatService},
	{Prefix: "/ws/chat", Service: bootstrap.ChatService},
}

// Gateway 组合反向代理与网关中间件
type Gateway struct {
	proxy  *Proxy
	cors   CORSConfig
	auth     *Authenticator // 为空表示不鉴权
	routes   []Route
	internal []*regexp.Regexp
}

func New(proxy *Proxy, cors CORSConfig, auth *Authenticator, routes []Route) *Gateway {
	return &Gateway{proxy: proxy, cors: cors, auth: auth, routes: routes, internal: DefaultInternalPaths}
}

// RegisterRoutes 每个前缀的处理链为 CORS -> 内部接口拦截 -> 鉴权 -> 代理
func (g *Gateway) RegisterRoutes(r *mux.Router) {
	for _, rt := range g.routes {
		var h http.Handler = g.proxy.Handler(rt.Prefix, rt.Service)
		if g.auth != nil {
			h = g.auth.Middleware(h)
		}
		h = DenyInternal(g.internal)(h)
		h = CORS(g.cors)(h)
		r.PathPrefix(rt.Prefix).Handler(h)
	}
}
