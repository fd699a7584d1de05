package identity_test

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/identity"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const secret = "session-secret"

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newVerifier(t *testing.T, cfg identity.Config) *identity.Verifier {
	t.Helper()
	v, err := identity.NewVerifier(cfg, log.NewStdLogger(io.Discard))
	require.NoError(t, err)
	return v
}

func TestVerify_ValidToken(t *testing.T) {
	v := newVerifier(t, identity.Config{HMACSecret: secret, Issuer: "https://clerk.example.com"})
	token := signHS256(t, jwt.MapClaims{
		"sub": "user_123",
		"sid": "sess_1",
		"iss": "https://clerk.example.com",
		"exp": time.Now().Add(time.Minute).Unix(),
	})

	got, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user_123", got.ExternalID)
	require.Equal(t, "sess_1", got.SessionID)
	require.Equal(t, "session", got.Source)
}

func TestVerify_Rejects(t *testing.T) {
	v := newVerifier(t, identity.Config{HMACSecret: secret, Issuer: "issuer-a"})

	cases := map[string]jwt.MapClaims{
		"expired":      {"sub": "u", "iss": "issuer-a", "exp": time.Now().Add(-time.Minute).Unix()},
		"wrong issuer": {"sub": "u", "iss": "issuer-b", "exp": time.Now().Add(time.Minute).Unix()},
		"missing exp":  {"sub": "u", "iss": "issuer-a"},
		"missing sub":  {"iss": "issuer-a", "exp": time.Now().Add(time.Minute).Unix()},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), signHS256(t, claims))
			require.ErrorIs(t, err, identity.ErrInvalidToken)
		})
	}

	_, err := v.Verify(context.Background(), "garbage")
	require.ErrorIs(t, err, identity.ErrInvalidToken)
}

func TestFromRequest_Sources(t *testing.T) {
	v := newVerifier(t, identity.Config{HMACSecret: secret, CookieName: "__session", TrustedGateway: true})
	token := signHS256(t, jwt.MapClaims{"sub": "user_cookie", "exp": time.Now().Add(time.Minute).Unix()})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "__session", Value: token})
	got, err := v.FromRequest(req)
	require.NoError(t, err)
	require.Equal(t, "user_cookie", got.ExternalID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	got, err = v.FromRequest(req)
	require.NoError(t, err)
	require.Equal(t, "user_cookie", got.ExternalID)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-apigateway-api-userinfo", base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user_gw"}`)))
	got, err = v.FromRequest(req)
	require.NoError(t, err)
	require.Equal(t, "user_gw", got.ExternalID)
	require.Equal(t, "gateway", got.Source)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = v.FromRequest(req)
	require.ErrorIs(t, err, identity.ErrNoCredentials)
}

func TestFromRequest_GatewayIgnoredWhenUntrusted(t *testing.T) {
	v := newVerifier(t, identity.Config{HMACSecret: secret})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-apigateway-api-userinfo", base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user_gw"}`)))
	_, err := v.FromRequest(req)
	require.ErrorIs(t, err, identity.ErrNoCredentials)
}
