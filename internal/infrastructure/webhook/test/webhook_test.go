package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/webhook"

	"github.com/stretchr/testify/require"
)

func TestHMACVerifier(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v, err := webhook.NewHMACVerifier("mux-secret", 5*time.Minute, webhook.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	payload := []byte(`{"type":"video.asset.ready"}`)
	sign := func(ts time.Time, body []byte, secret string) http.Header {
		stamp := strconv.FormatInt(ts.Unix(), 10)
		sig := hex.EncodeToString(webhook.Sign([]byte(secret), stamp, body))
		h := http.Header{}
		h.Set(webhook.SignatureHeader, fmt.Sprintf("t=%s,v1=%s", stamp, sig))
		return h
	}

	require.NoError(t, v.Verify(payload, sign(now.Add(-time.Minute), payload, "mux-secret")))

	err = v.Verify([]byte(`{"type":"tampered"}`), sign(now, payload, "mux-secret"))
	require.ErrorIs(t, err, webhook.ErrInvalidSignature)

	err = v.Verify(payload, sign(now, payload, "other-secret"))
	require.ErrorIs(t, err, webhook.ErrInvalidSignature)

	err = v.Verify(payload, sign(now.Add(-10*time.Minute), payload, "mux-secret"))
	require.ErrorIs(t, err, webhook.ErrInvalidSignature)

	err = v.Verify(payload, http.Header{})
	require.ErrorIs(t, err, webhook.ErrMissingSignature)
}

func TestHMACVerifier_AcceptsAnyListedSignature(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v, err := webhook.NewHMACVerifier("s", 0, webhook.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	payload := []byte("{}")
	good := hex.EncodeToString(webhook.Sign([]byte("s"), "42", payload))
	h := http.Header{}
	h.Set(webhook.SignatureHeader, "t=42,v1=deadbeef,v1="+good)
	require.NoError(t, v.Verify(payload, h))
}

func TestNewVerifiers_RequireSecret(t *testing.T) {
	_, err := webhook.NewHMACVerifier(" ", time.Minute)
	require.ErrorIs(t, err, webhook.ErrMissingSecret)
	_, err = webhook.NewSvixVerifier("")
	require.ErrorIs(t, err, webhook.ErrMissingSecret)
	require.ErrorIs(t, webhook.Noop{}.Verify(nil, nil), webhook.ErrMissingSecret)
}

func TestSvixVerifier(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	secret := "whsec_" + base64.StdEncoding.EncodeToString(key)
	v, err := webhook.NewSvixVerifier(secret)
	require.NoError(t, err)

	payload := []byte(`{"type":"user.created","data":{"id":"user_1"}}`)
	msgID := "msg_2abc"
	stamp := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + stamp + "." + string(payload)))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	h := http.Header{}
	h.Set("svix-id", msgID)
	h.Set("svix-timestamp", stamp)
	h.Set("svix-signature", "v1,"+sig)
	require.NoError(t, v.Verify(payload, h))

	h.Set("svix-signature", "v1,"+base64.StdEncoding.EncodeToString([]byte("wrong")))
	require.ErrorIs(t, v.Verify(payload, h), webhook.ErrInvalidSignature)

	require.ErrorIs(t, v.Verify(payload, http.Header{}), webhook.ErrMissingSignature)
}
