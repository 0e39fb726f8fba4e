// internal/pkg/httpclient/client.go

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"nexusmall/internal/pkg/apperr"
	"nexusmall/internal/pkg/logger"
	"nexusmall/internal/pkg/metrics"
)

// Resolver 给出某个服务按优先级排列的基础地址列表
type Resolver interface {
	Endpoints(service string) []string
}

// StaticResolver 直接使用配置文件里的地址列表
type StaticResolver map[string][]string

func (s StaticResolver) Endpoints(service string) []string { return s[service] }

// Discoverer 由注册中心实现
type Discoverer interface {
	Discover(service string) (string, error)
}

// RegistryResolver 先尝试注册中心发现的实例，再退回静态列表
type RegistryResolver struct {
	Registry Discoverer
	Fallback Resolver
}

func (r RegistryResolver) Endpoints(service string) []string {
	static := r.Fallback.Endpoints(service)
	found, err := r.Registry.Discover(service)
	if err != nil || found == "" {
		return static
	}
	out := []string{found}
	for _, u := range static {
		if u != found {
			out = append(out, u)
		}
	}
	return out
}

// Client 是一个可追踪的、按顺序故障转移的 HTTP 客户端
type Client struct {
	tracer   trace.Tracer
	http     *http.Client
	resolver Resolver
}

// NewClient 创建客户端。connectTimeout 约束建连，readTimeout 约束等待响应。
func NewClient(tracer trace.Tracer, resolver Resolver, connectTimeout, readTimeout time.Duration) *Client {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: connectTimeout}).DialContext,
		ResponseHeaderTimeout: readTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
	}
	return &Client{
		tracer:   tracer,
		http:     &http.Client{Transport: transport},
		resolver: resolver,
	}
}

// Request 描述一次对兄弟服务的调用
type Request struct {
	Service string
	Method  string
	Path    string
	Query   url.Values
	Body    any
}

// Do 依次尝试服务的每个地址，直到拿到 2xx。
// 传输错误和 5xx 会切到下一个地址；4xx 是确定的答复，直接返回。
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	ctx, span := c.tracer.Start(ctx, "call-"+req.Service, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("peer.service", req.Service),
		attribute.String("http.method", req.Method),
		attribute.String("http.route", req.Path),
	)

	endpoints := c.resolver.Endpoints(req.Service)
	if len(endpoints) == 0 {
		err := apperr.Upstream(nil, "no endpoint configured for %s", req.Service)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.UpstreamCalls.WithLabelValues(req.Service, "unconfigured").Inc()
		return err
	}

	var body []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return apperr.Internal(err, "encode request to %s", req.Service)
		}
		body = b
	}

	var lastErr error
	for i, base := range endpoints {
		done, err := c.attempt(ctx, base, req, body, out)
		if done {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				metrics.UpstreamCalls.WithLabelValues(req.Service, "rejected").Inc()
			} else {
				metrics.UpstreamCalls.WithLabelValues(req.Service, "ok").Inc()
			}
			return err
		}
		lastErr = err
		span.AddEvent("failover", trace.WithAttributes(
			attribute.String("endpoint", base),
			attribute.String("error", err.Error()),
		))
		logger.Ctx(ctx).Warn().Err(err).
			Str("service", req.Service).
			Str("endpoint", base).
			Int("attempt", i+1).
			Msg("upstream attempt failed")
		if ctx.Err() != nil {
			break
		}
	}

	metrics.UpstreamCalls.WithLabelValues(req.Service, "unavailable").Inc()
	err := apperr.Upstream(lastErr, "call %s", req.Service)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// attempt 返回 done=true 表示得到了确定的结果（成功或 4xx）
func (c *Client) attempt(ctx context.Context, base string, req Request, body []byte, out any) (bool, error) {
	target := strings.TrimRight(base, "/") + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return true, apperr.Internal(err, "build request to %s", req.Service)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return false, errors.Wrap(err, "read response body")
	}

	switch {
	case resp.StatusCode >= 500:
		return false, fmt.Errorf("%s returned status %s", base, resp.Status)
	case resp.StatusCode >= 400:
		return true, classify(req.Service, resp.StatusCode, payload)
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return true, apperr.Upstream(err, "decode response from %s", req.Service)
		}
	}
	return true, nil
}

func classify(service string, status int, payload []byte) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payload, &body)
	msg := body.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	switch status {
	case http.StatusNotFound:
		return apperr.NotFound("%s: %s", service, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.Validation("%s: %s", service, msg)
	case http.StatusConflict:
		return apperr.Conflict("%s: %s", service, msg)
	default:
		return apperr.Upstream(nil, "%s returned %d: %s", service, status, msg)
	}
}
