package controllers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/identity"
	"github.com/sanidhyy/yt-clone/internal/metadata"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// HandlerType 表示 Handler 的语义类别，用于选择超时策略。
type HandlerType int

const (
	// HandlerTypeDefault 表示未显式区分的 Handler。
	HandlerTypeDefault HandlerType = iota
	// HandlerTypeCommand 表示写操作。
	HandlerTypeCommand
	// HandlerTypeQuery 表示只读查询。
	HandlerTypeQuery
)

// HandlerTimeouts 聚合不同类型 Handler 的超时策略。
type HandlerTimeouts struct {
	Default time.Duration
	Command time.Duration
	Query   time.Duration
}

// RPCConfig 描述 RPC 入口的批量上限与 API Key Cookie。
type RPCConfig struct {
	MaxBatchSize int
	APIKeyCookie string
	SecureCookie bool
}

// WebhookSecrets 为回调签名密钥。
type WebhookSecrets struct {
	Identity  string
	Video     string
	Tolerance time.Duration
}

const (
	fallbackDefaultTimeout = 5 * time.Second
	fallbackQueryTimeout   = 3 * time.Second
	fallbackMaxBatchSize   = 20
	fallbackAPIKeyCookie   = "openai_api_key"
	headerRequestID        = "X-Request-Id"
	headerForwardedFor     = "X-Forwarded-For"
)

// IdentityResolver 从请求中解析调用方身份。
type IdentityResolver interface {
	FromRequest(r *http.Request) (identity.Identity, error)
}

// BaseHandler 提供公共的超时与请求元数据解析能力，供具体 Handler 内嵌复用。
type BaseHandler struct {
	timeouts HandlerTimeouts
	rpc      RPCConfig
	resolver IdentityResolver
	log      *log.Helper
}

// NewBaseHandler 构造基础 Handler，并为缺省值填充合理的回退策略。
func NewBaseHandler(timeouts HandlerTimeouts, rpc RPCConfig, resolver IdentityResolver, logger log.Logger) *BaseHandler {
	if timeouts.Default <= 0 {
		if timeouts.Command > 0 {
			timeouts.Default = timeouts.Command
		} else if timeouts.Query > 0 {
			timeouts.Default = timeouts.Query
		} else {
			timeouts.Default = fallbackDefaultTimeout
		}
	}
	if timeouts.Command <= 0 {
		timeouts.Command = timeouts.Default
	}
	if timeouts.Query <= 0 {
		if timeouts.Default > 0 {
			timeouts.Query = timeouts.Default
		} else {
			timeouts.Query = fallbackQueryTimeout
		}
	}
	if rpc.MaxBatchSize <= 0 {
		rpc.MaxBatchSize = fallbackMaxBatchSize
	}
	if rpc.APIKeyCookie == "" {
		rpc.APIKeyCookie = fallbackAPIKeyCookie
	}
	return &BaseHandler{timeouts: timeouts, rpc: rpc, resolver: resolver, log: log.NewHelper(logger)}
}

// WithTimeout 根据 Handler 类型包装上下文，返回绑定超时的新 Context 与取消函数。
func (h *BaseHandler) WithTimeout(ctx context.Context, kind HandlerType) (context.Context, context.CancelFunc) {
	if h == nil {
		return context.WithTimeout(ctx, fallbackDefaultTimeout)
	}
	var timeout time.Duration
	switch kind {
	case HandlerTypeCommand:
		timeout = h.timeouts.Command
	case HandlerTypeQuery:
		timeout = h.timeouts.Query
	default:
		timeout = h.timeouts.Default
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// ExtractMetadata 解析请求 ID、调用方身份、API Key Cookie 与来源地址。
// 凭证存在但校验失败时标记 InvalidCredentials，调用方按匿名处理。
func (h *BaseHandler) ExtractMetadata(r *http.Request) metadata.HandlerMetadata {
	meta := metadata.HandlerMetadata{
		RequestID: strings.TrimSpace(r.Header.Get(headerRequestID)),
		ClientIP:  clientIP(r),
	}
	if meta.RequestID == "" {
		meta.RequestID = uuid.NewString()
	}
	if cookie, err := r.Cookie(h.rpc.APIKeyCookie); err == nil {
		meta.EncryptedAPIKey = cookie.Value
	}
	if h.resolver == nil {
		return meta
	}
	id, err := h.resolver.FromRequest(r)
	switch {
	case err == nil:
		meta.ExternalUserID = id.ExternalID
		meta.IdentitySource = id.Source
	case !errors.Is(err, identity.ErrNoCredentials):
		meta.InvalidCredentials = true
		h.log.WithContext(r.Context()).Debugf("identity rejected: request=%s err=%v", meta.RequestID, err)
	}
	return meta
}

// MetadataFilter 在进入路由前把请求元数据注入 Context。
func (h *BaseHandler) MetadataFilter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := h.ExtractMetadata(r)
		w.Header().Set(headerRequestID, meta.RequestID)
		next.ServeHTTP(w, r.WithContext(metadata.Inject(r.Context(), meta)))
	})
}

// apiKeyCookie 构造保存或清除 API Key 的 Cookie。value 为空表示清除。
func (h *BaseHandler) apiKeyCookie(value string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     h.rpc.APIKeyCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.rpc.SecureCookie,
		SameSite: http.SameSiteStrictMode,
	}
	if value == "" {
		cookie.MaxAge = -1
	}
	return cookie
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get(headerForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
