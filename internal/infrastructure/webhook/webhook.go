// Package webhook 校验第三方回调的签名。每个提供方对应一个 Verifier 实现。
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	svix "github.com/svix/svix-webhooks/go"
)

var (
	// ErrMissingSecret 表示未配置签名密钥。
	ErrMissingSecret = errors.New("webhook: secret not configured")
	// ErrMissingSignature 表示请求头缺少签名。
	ErrMissingSignature = errors.New("webhook: missing signature headers")
	// ErrInvalidSignature 表示签名校验失败或时间戳超出容忍窗口。
	ErrInvalidSignature = errors.New("webhook: invalid signature")
)

// Verifier 校验回调负载与签名头。
type Verifier interface {
	Verify(payload []byte, headers http.Header) error
}

// SvixVerifier 校验身份平台经 Svix 投递的回调。
type SvixVerifier struct {
	wh *svix.Webhook
}

// NewSvixVerifier 使用 whsec_ 前缀的密钥构造 SvixVerifier。
func NewSvixVerifier(secret string) (*SvixVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	wh, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("init svix webhook: %w", err)
	}
	return &SvixVerifier{wh: wh}, nil
}

// Verify 实现 Verifier。
func (v *SvixVerifier) Verify(payload []byte, headers http.Header) error {
	if headers.Get("svix-id") == "" || headers.Get("svix-timestamp") == "" || headers.Get("svix-signature") == "" {
		return ErrMissingSignature
	}
	if err := v.wh.Verify(payload, headers); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

// SignatureHeader 为视频平台回调的签名头。
const SignatureHeader = "Mux-Signature"

// HMACVerifier 校验形如 "t=<unix>,v1=<hex>" 的签名头，签名内容为 "<t>.<payload>"。
type HMACVerifier struct {
	secret    []byte
	header    string
	tolerance time.Duration
	now       func() time.Time
}

// HMACOption 调整 HMACVerifier。
type HMACOption func(*HMACVerifier)

// WithClock 替换时间源。
func WithClock(now func() time.Time) HMACOption {
	return func(v *HMACVerifier) { v.now = now }
}

// WithHeader 替换签名头名称。
func WithHeader(name string) HMACOption {
	return func(v *HMACVerifier) { v.header = name }
}

// NewHMACVerifier 构造 HMACVerifier。tolerance<=0 时不校验时间戳。
func NewHMACVerifier(secret string, tolerance time.Duration, opts ...HMACOption) (*HMACVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	v := &HMACVerifier{
		secret:    []byte(secret),
		header:    SignatureHeader,
		tolerance: tolerance,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify 实现 Verifier。
func (v *HMACVerifier) Verify(payload []byte, headers http.Header) error {
	raw := headers.Get(v.header)
	if raw == "" {
		return ErrMissingSignature
	}
	timestamp, signatures := parseSignatureHeader(raw)
	if timestamp == "" || len(signatures) == 0 {
		return ErrMissingSignature
	}
	if v.tolerance > 0 {
		secs, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
		}
		age := v.now().Sub(time.Unix(secs, 0))
		if age > v.tolerance || age < -v.tolerance {
			return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
		}
	}
	expected := Sign(v.secret, timestamp, payload)
	for _, candidate := range signatures {
		decoded, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(decoded, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign 计算 "<timestamp>.<payload>" 的 HMAC-SHA256。
func Sign(secret []byte, timestamp string, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

func parseSignatureHeader(raw string) (string, []string) {
	var (
		timestamp  string
		signatures []string
	)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	return timestamp, signatures
}

// Noop 在未配置密钥时拒绝所有回调。
type Noop struct{}

// Verify 实现 Verifier。
func (Noop) Verify([]byte, http.Header) error { return ErrMissingSecret }
