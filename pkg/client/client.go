// Package client 为 /api/rpc 提供 Go 调用端：单次调用、批量调用、类型化辅助方法，
// 以及互动按钮使用的乐观更新状态机。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	httpclient "github.com/sanidhyy/yt-clone/internal/infrastructure/http_client"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const rpcPrefix = "/api/rpc"

// ErrDisabled 表示未配置服务端地址。
var ErrDisabled = kerrors.ServiceUnavailable("CLIENT_DISABLED", "rpc endpoint not configured")

// Client 调用 yt-clone 的 RPC 端点。
type Client struct {
	http    *khttp.Client
	cleanup func()
}

type options struct {
	timeout time.Duration
	logger  log.Logger
	extra   []middleware.Middleware
}

// Option 配置 Client。
type Option func(*options)

// WithTimeout 设置单次请求超时。
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger 设置日志输出。
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBearerToken 为每个请求附带身份令牌。
func WithBearerToken(token string) Option {
	return func(o *options) {
		o.extra = append(o.extra, httpclient.Header("Authorization", "Bearer "+token))
	}
}

// WithCookie 为每个请求附带 Cookie，例如加密后的 AI 密钥。
func WithCookie(name, value string) Option {
	return func(o *options) {
		cookie := (&http.Cookie{Name: name, Value: value}).String()
		o.extra = append(o.extra, httpclient.Header("Cookie", cookie))
	}
}

// New 创建指向 endpoint（如 http://localhost:8000）的客户端。
func New(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	o := options{timeout: 10 * time.Second, logger: log.DefaultLogger}
	for _, opt := range opts {
		opt(&o)
	}
	conn, cleanup, err := httpclient.NewClient(ctx, httpclient.Config{
		Endpoint:        endpoint,
		Timeout:         o.timeout,
		ResponseDecoder: decodeEnvelope,
		ErrorDecoder:    decodeError,
	}, o.logger, o.extra...)
	if err != nil {
		return nil, err
	}
	return &Client{http: conn, cleanup: cleanup}, nil
}

// Close 释放底层连接。
func (c *Client) Close() {
	if c != nil && c.cleanup != nil {
		c.cleanup()
	}
}

// Call 调用单个过程，把 result 解码到 out。out 为 nil 时丢弃结果。
func (c *Client) Call(ctx context.Context, procedure string, in, out any) error {
	if c == nil || c.http == nil {
		return ErrDisabled
	}
	if in == nil {
		in = struct{}{}
	}
	return c.http.Invoke(ctx, http.MethodPost, rpcPrefix+"/"+url.PathEscape(procedure), in, &single{out: out})
}

// BatchCall 为批量调用中的一项，执行后 Err 保存该项的错误。
type BatchCall struct {
	Procedure string
	Input     any
	Out       any
	Err       error
}

type batchRequest struct {
	ID    int    `json:"id"`
	Path  string `json:"path"`
	Input any    `json:"input,omitempty"`
}

type envelope struct {
	ID     *int            `json:"id,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path,omitempty"`
}

func (e *wireError) toError() error {
	status := e.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	err := kerrors.New(status, e.Code, e.Message)
	if e.Path != "" {
		err = err.WithMetadata(map[string]string{"path": e.Path})
	}
	return err
}

// Batch 在一次往返中执行多个调用。返回值仅表示传输层错误，各项错误写入对应的 Err。
func (c *Client) Batch(ctx context.Context, calls []BatchCall) error {
	if c == nil || c.http == nil {
		return ErrDisabled
	}
	if len(calls) == 0 {
		return nil
	}
	req := make([]batchRequest, len(calls))
	for i, call := range calls {
		req[i] = batchRequest{ID: i, Path: call.Procedure, Input: call.Input}
	}
	var reply []envelope
	if err := c.http.Invoke(ctx, http.MethodPost, rpcPrefix, req, &batch{items: &reply}); err != nil {
		return err
	}
	seen := make([]bool, len(calls))
	for pos, item := range reply {
		idx := pos
		if item.ID != nil {
			idx = *item.ID
		}
		if idx < 0 || idx >= len(calls) || seen[idx] {
			return fmt.Errorf("batch reply: unexpected item %d", idx)
		}
		seen[idx] = true
		calls[idx].Err = unwrap(item, calls[idx].Out)
	}
	for i, ok := range seen {
		if !ok {
			calls[i].Err = fmt.Errorf("batch reply: missing item %d", i)
		}
	}
	return nil
}

type single struct{ out any }

type batch struct{ items *[]envelope }

func unwrap(item envelope, out any) error {
	if item.Error != nil {
		return item.Error.toError()
	}
	if out == nil || len(item.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(item.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// decodeEnvelope 解开成功响应的 {"result": ...} 信封。批量调用的 207 响应同样走这里。
func decodeEnvelope(_ context.Context, res *http.Response, v any) error {
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	switch target := v.(type) {
	case *single:
		var item envelope
		if err := json.Unmarshal(data, &item); err != nil {
			return fmt.Errorf("decode envelope: %w", err)
		}
		return unwrap(item, target.out)
	case *batch:
		if err := json.Unmarshal(data, target.items); err != nil {
			return fmt.Errorf("decode batch: %w", err)
		}
		return nil
	default:
		return json.Unmarshal(data, v)
	}
}

// decodeError 把非 2xx 响应转换为 Kratos 错误：Reason 为错误码，Code 为 HTTP 状态。
func decodeError(_ context.Context, res *http.Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	var item envelope
	if json.Unmarshal(data, &item) == nil && item.Error != nil {
		if item.Error.HTTPStatus == 0 {
			item.Error.HTTPStatus = res.StatusCode
		}
		return item.Error.toError()
	}
	return kerrors.New(res.StatusCode, http.StatusText(res.StatusCode), string(bytes.TrimSpace(data)))
}

// Code 返回错误携带的错误码，例如 UNAUTHORIZED、NOT_FOUND。
func Code(err error) string {
	return kerrors.Reason(err)
}
