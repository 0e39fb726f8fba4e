// internal/service/gateway/proxy.go
package gateway

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/httpclient"
	"nexusmall/internal/pkg/httpx"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/metrics"
)

// maxBufferedBody 故障转移需要重放请求体，超过此大小直接拒绝
const maxBufferedBody = 10 << 20

// Proxy 把请求按顺序转发到服务的各个实例，传输错误时切换到下一个
type Proxy struct {
	tracer    trace.Tracer
	resolver  httpclient.Resolver
	transport http.RoundTripper
}

func NewProxy(tracer trace.Tracer, resolver httpclient.Resolver, connectTimeout, readTimeout time.Duration) *Proxy {
	return &Proxy{
		tracer:   tracer,
		resolver: resolver,
		transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
			ResponseHeaderTimeout: readTimeout,
			MaxIdleConns:          200,
			MaxIdleConnsPerHost:   50,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Handler 返回某个前缀对应服务的处理器
func (p *Proxy) Handler(prefix, service string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := p.tracer.Start(r.Context(), "gateway.Proxy", trace.WithAttributes(
			attribute.String("gateway.route", prefix),
			attribute.String("upstream.service", service),
		))
		defer span.End()
		r = r.WithContext(ctx)

		upstreams := p.resolver.Endpoints(service)
		if len(upstreams) == 0 {
			err := apperr.Upstream(nil, "no endpoint configured for %s", service)
			span.RecordError(err)
			span.SetStatus(codes.Error, "no upstream")
			metrics.GatewayProxied.WithLabelValues(prefix, "no_upstream").Inc()
			httpx.WriteError(w, r, err)
			return
		}

		var body []byte
		if r.Body != nil && r.Body != http.NoBody {
			var err error
			body, err = io.ReadAll(io.LimitReader(r.Body, maxBufferedBody+1))
			_ = r.Body.Close()
			if err != nil {
				httpx.WriteError(w, r, apperr.Validation("read request body: %v", err))
				return
			}
			if len(body) > maxBufferedBody {
				httpx.WriteError(w, r, apperr.Validation("request body too large"))
				return
			}
		}

		var lastErr error
		for i, base := range upstreams {
			target, err := url.Parse(base)
			if err != nil {
				lastErr = err
				continue
			}
			if body != nil {
				r.Body = io.NopCloser(bytes.NewReader(body))
				r.ContentLength = int64(len(body))
			}

			failed := false
			rp := p.reverseProxy(target, func(err error) {
				failed = true
				lastErr = err
			})
			rp.ServeHTTP(w, r)
			if !failed {
				span.SetAttributes(attribute.String("upstream.url", base), attribute.Int("upstream.attempt", i+1))
				metrics.GatewayProxied.WithLabelValues(prefix, "ok").Inc()
				return
			}
			if ctx.Err() != nil {
				// 客户端已断开
				span.SetStatus(codes.Error, "client gone")
				return
			}
			span.AddEvent("upstream failed", trace.WithAttributes(attribute.String("upstream.url", base)))
			logger.Ctx(ctx).Warn().Err(lastErr).Str("service", service).Str("upstream", base).Msg("⚠️ upstream unreachable, trying next")
		}

		err := apperr.Upstream(lastErr, "all upstreams of %s failed", service)
		span.RecordError(err)
		span.SetStatus(codes.Error, "all upstreams failed")
		metrics.GatewayProxied.WithLabelValues(prefix, "failed").Inc()
		httpx.WriteError(w, r, err)
	})
}

// reverseProxy 传输错误交给 onError，不向客户端写任何内容，以便重试下一个实例
func (p *Proxy) reverseProxy(target *url.URL, onError func(error)) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			// 注入追踪上下文（包括 Baggage）
			otel.GetTextMapPropagator().Inject(pr.In.Context(), propagation.HeaderCarrier(pr.Out.Header))
		},
		Transport:     p.transport,
		FlushInterval: -1,
		ErrorHandler: func(_ http.ResponseWriter, _ *http.Request, err error) {
			onError(err)
		},
	}
}
