// Package identity 校验身份平台签发的会话令牌，解析出调用方的外部用户标识。
//
// 令牌来源依次为 Authorization Bearer 头、会话 Cookie，以及受信网关注入的
// x-apigateway-api-userinfo 头。
package identity

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sanidhyy/yt-clone/internal/metadata"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoCredentials 表示请求未携带任何凭证。
	ErrNoCredentials = errors.New("identity: no credentials")
	// ErrInvalidToken 表示令牌无法通过校验。
	ErrInvalidToken = errors.New("identity: invalid token")
)

const headerUserInfo = "x-apigateway-api-userinfo"

// Config 配置令牌校验。PublicKeyPEM 优先于 HMACSecret。
type Config struct {
	Issuer         string
	Audience       string
	PublicKeyPEM   string
	HMACSecret     string
	CookieName     string
	ClockSkew      time.Duration
	TrustedGateway bool
}

// Identity 表示已校验的调用方。
type Identity struct {
	ExternalID string
	SessionID  string
	Source     string
}

// Verifier 校验会话令牌。
type Verifier struct {
	cfg     Config
	rsaKey  *rsa.PublicKey
	hmacKey []byte
	parser  *jwt.Parser
	log     *log.Helper
}

// NewVerifier 构造 Verifier。未配置任何密钥时只接受受信网关头。
func NewVerifier(cfg Config, logger log.Logger) (*Verifier, error) {
	v := &Verifier{cfg: cfg, log: log.NewHelper(logger)}
	methods := []string{}
	switch {
	case strings.TrimSpace(cfg.PublicKeyPEM) != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse session public key: %w", err)
		}
		v.rsaKey = key
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	case cfg.HMACSecret != "":
		v.hmacKey = []byte(cfg.HMACSecret)
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	default:
		v.log.Warn("session verification disabled: no signing key configured")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(methods), jwt.WithExpirationRequired()}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.ClockSkew > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.ClockSkew))
	}
	v.parser = jwt.NewParser(opts...)
	return v, nil
}

// Enabled 报告是否配置了会话签名密钥。
func (v *Verifier) Enabled() bool {
	return v != nil && (v.rsaKey != nil || v.hmacKey != nil)
}

type sessionClaims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Verify 校验令牌并返回调用方身份。
func (v *Verifier) Verify(_ context.Context, raw string) (Identity, error) {
	if !v.Enabled() {
		return Identity{}, ErrInvalidToken
	}
	var claims sessionClaims
	token, err := v.parser.ParseWithClaims(raw, &claims, v.keyFunc)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{ExternalID: claims.Subject, SessionID: claims.SessionID, Source: "session"}, nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA:
		if v.rsaKey != nil {
			return v.rsaKey, nil
		}
	case *jwt.SigningMethodHMAC:
		if v.hmacKey != nil {
			return v.hmacKey, nil
		}
	}
	return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
}

// FromRequest 从 HTTP 请求中解析调用方。未携带凭证时返回 ErrNoCredentials。
func (v *Verifier) FromRequest(r *http.Request) (Identity, error) {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return v.Verify(r.Context(), token)
	}
	if v.cfg.CookieName != "" {
		if cookie, err := r.Cookie(v.cfg.CookieName); err == nil && cookie.Value != "" {
			return v.Verify(r.Context(), cookie.Value)
		}
	}
	if v.cfg.TrustedGateway {
		if raw := strings.TrimSpace(r.Header.Get(headerUserInfo)); raw != "" {
			userID, err := metadata.ExtractUserIDFromUserInfo(raw)
			if err != nil || strings.TrimSpace(userID) == "" {
				return Identity{}, fmt.Errorf("%w: gateway userinfo", ErrInvalidToken)
			}
			return Identity{ExternalID: userID, Source: "gateway"}, nil
		}
	}
	return Identity{}, ErrNoCredentials
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
