// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Inbound HTTP requests by service, route and status.",
	}, []string{"service", "method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Inbound HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "method", "route"})

	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted, by payment method.",
	}, []string{"payment_method"})

	PaymentCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Payment gateway callbacks by verification result.",
	}, []string{"result"})

	MembershipPurchases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "membership_purchases_total",
		Help: "recordPurchase calls by outcome (applied, duplicate).",
	}, []string{"result"})

	NotificationsPushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_pushed_total",
		Help: "Notifications delivered per channel.",
	}, []string{"channel"})

	UpstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_calls_total",
		Help: "Outbound calls to sibling services by outcome.",
	}, []string{"service", "outcome"})

	ChatMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_messages_total",
		Help: "Inbound chat frames by outcome (relayed, rejected).",
	}, []string{"outcome"})

	GatewayProxied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_proxied_total",
		Help: "Requests forwarded by the gateway, by route and outcome.",
	}, []string{"route", "outcome"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap 让 http.ResponseController 能找到底层 writer 做 Flush
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Middleware 记录每个路由的请求数和耗时
func Middleware(service string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := "unmatched"
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			// websocket 连接不包装 writer，否则无法 Hijack
			if r.Header.Get("Upgrade") != "" {
				httpRequests.WithLabelValues(service, r.Method, route, "101").Inc()
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			httpRequests.WithLabelValues(service, r.Method, route, strconv.Itoa(rec.status)).Inc()
			httpDuration.WithLabelValues(service, r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
