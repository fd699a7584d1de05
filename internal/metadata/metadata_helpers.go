// Package metadata 提供 HandlerMetadata 在 Context 中的存取工具，供控制器与服务层共享。
package metadata

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// HandlerMetadata 描述从 HTTP 请求解析出的调用方上下文。
//
// ExternalUserID 为身份平台的用户标识；服务层按需映射到本地用户。
type HandlerMetadata struct {
	RequestID          string
	ExternalUserID     string
	IdentitySource     string
	InvalidCredentials bool
	EncryptedAPIKey    string
	ClientIP           string
}

// IsZero 判断 Metadata 是否为空。
func (m HandlerMetadata) IsZero() bool {
	return m == HandlerMetadata{}
}

// Authenticated 报告请求是否携带了有效身份。
func (m HandlerMetadata) Authenticated() bool {
	return !m.InvalidCredentials && strings.TrimSpace(m.ExternalUserID) != ""
}

// RateLimitKey 返回限流键，已认证请求按用户，否则按来源地址。
func (m HandlerMetadata) RateLimitKey() string {
	if m.Authenticated() {
		return "user:" + m.ExternalUserID
	}
	if m.ClientIP != "" {
		return "ip:" + m.ClientIP
	}
	return "anonymous"
}

type ctxKey struct{}

// Inject 将 HandlerMetadata 注入 Context。
func Inject(ctx context.Context, meta HandlerMetadata) context.Context {
	if meta.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, meta)
}

// FromContext 读取上游注入的 HandlerMetadata。
func FromContext(ctx context.Context) (HandlerMetadata, bool) {
	if ctx == nil {
		return HandlerMetadata{}, false
	}
	meta, ok := ctx.Value(ctxKey{}).(HandlerMetadata)
	return meta, ok
}

// ExtractUserIDFromUserInfo 尝试从 X-Apigateway-Api-Userinfo 头中解析用户标识。
func ExtractUserIDFromUserInfo(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	payload, err := decodeUserInfo(raw)
	if err != nil {
		return "", err
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", err
	}
	for _, key := range []string{"sub", "user_id", "uid"} {
		if value, ok := claims[key].(string); ok && strings.TrimSpace(value) != "" {
			return value, nil
		}
	}
	return "", nil
}

func decodeUserInfo(raw string) ([]byte, error) {
	decoders := []func(string) ([]byte, error){
		base64.RawURLEncoding.DecodeString,
		base64.URLEncoding.DecodeString,
		base64.StdEncoding.DecodeString,
	}
	for _, decode := range decoders {
		if payload, err := decode(raw); err == nil {
			return payload, nil
		}
	}
	return nil, errors.New("decode userinfo header failed")
}
