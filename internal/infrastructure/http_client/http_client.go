// Package httpclient 负责配置出站 HTTP 客户端，供基础设施适配器调用第三方 API。
// 包括：追踪、熔断、元数据传播等中间件。
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	stdhttp "net/http"
	"net/url"
	"strings"
	"time"

	obsTrace "github.com/bionicotaku/lingo-utils/observability/tracing"
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/middleware/circuitbreaker"
	"github.com/go-kratos/kratos/v2/middleware/metadata"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// Config 描述单个下游 HTTP 端点。
type Config struct {
	Endpoint     string
	Timeout      time.Duration
	MetadataKeys []string
	Raw          bool

	// ResponseDecoder 与 ErrorDecoder 非空时替换 Kratos 默认的编解码。
	ResponseDecoder khttp.DecodeResponseFunc
	ErrorDecoder    khttp.DecodeErrorFunc
}

// NewClient 创建配置完整的 Kratos HTTP 客户端。
//
// 中间件链（按执行顺序）：
// 1. recovery.Recovery() - 捕获客户端调用中的 panic
// 2. metadata.Client() - 传播指定前缀的 metadata
// 3. extra - 调用方提供的中间件（如鉴权头）
// 4. obsTrace.Client() - OpenTelemetry 追踪，创建子 Span
// 5. circuitbreaker.Client() - 熔断保护
//
// Raw 为 true 时响应体按原始字节解码到 *Body。
// 未配置 Endpoint 时返回 nil 客户端（不报错），允许服务在无下游依赖时启动。
func NewClient(ctx context.Context, cfg Config, logger log.Logger, extra ...middleware.Middleware) (*khttp.Client, func(), error) {
	helper := log.NewHelper(logger)
	if strings.TrimSpace(cfg.Endpoint) == "" {
		helper.Warn("http client endpoint not configured; remote calls disabled")
		return nil, func() {}, nil
	}
	hostPort, secure, err := splitEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, nil, err
	}

	mws := []middleware.Middleware{
		recovery.Recovery(),
		metadata.Client(metadata.WithPropagatedPrefix(cfg.MetadataKeys...)),
	}
	mws = append(mws, extra...)
	mws = append(mws,
		obsTrace.Client(),
		circuitbreaker.Client(),
	)

	opts := []khttp.ClientOption{
		khttp.WithEndpoint(hostPort),
		khttp.WithMiddleware(mws...),
	}
	if secure {
		opts = append(opts, khttp.WithTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12}))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, khttp.WithTimeout(cfg.Timeout))
	}
	switch {
	case cfg.ResponseDecoder != nil:
		opts = append(opts, khttp.WithResponseDecoder(cfg.ResponseDecoder))
	case cfg.Raw:
		opts = append(opts, khttp.WithResponseDecoder(RawResponseDecoder))
	}
	if cfg.ErrorDecoder != nil {
		opts = append(opts, khttp.WithErrorDecoder(cfg.ErrorDecoder))
	}

	client, err := khttp.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", cfg.Endpoint, err)
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			helper.Errorf("close http client: %v", err)
		}
	}
	return client, cleanup, nil
}

// Body 承载原始响应体。
type Body struct {
	Data        []byte
	ContentType string
}

// RawResponseDecoder 将响应体原样读入 *Body。
func RawResponseDecoder(_ context.Context, res *stdhttp.Response, v any) error {
	out, ok := v.(*Body)
	if !ok {
		return errors.InternalServer("RAW_DECODER", fmt.Sprintf("unsupported reply type %T", v))
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	out.Data = data
	out.ContentType = res.Header.Get("Content-Type")
	return nil
}

// Discard 忽略响应体，用于 204 等无内容响应。
type Discard struct{}

// UnmarshalJSON 实现 json.Unmarshaler。
func (*Discard) UnmarshalJSON([]byte) error { return nil }

// BasicAuth 返回为每个请求设置 Basic 认证头的中间件。
func BasicAuth(username, password string) middleware.Middleware {
	req := stdhttp.Request{Header: stdhttp.Header{}}
	req.SetBasicAuth(username, password)
	return Header("Authorization", req.Header.Get("Authorization"))
}

// Header 返回为每个请求设置固定请求头的中间件。
func Header(name, value string) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, in any) (any, error) {
			if tr, ok := transport.FromClientContext(ctx); ok {
				tr.RequestHeader().Set(name, value)
			}
			return handler(ctx, in)
		}
	}
}

// IsNotFound 报告下游是否返回 404。
func IsNotFound(err error) bool {
	return errors.Code(err) == stdhttp.StatusNotFound
}

func splitEndpoint(endpoint string) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, false, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	secure := u.Scheme == "https"
	port := u.Port()
	if port == "" {
		port = "80"
		if secure {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), secure, nil
}
