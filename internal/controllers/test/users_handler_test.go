package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrentUser_RedirectsToChannel(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodGet, "/users/current", "user_alice", "")
	require.Equal(t, http.StatusTemporaryRedirect, res.StatusCode)
	require.Equal(t, "/users/"+h.alice.ID.String(), res.Header.Get("Location"))
}

func TestCurrentUser_AnonymousIsUnauthorized(t *testing.T) {
	h := newHarness(t)

	for _, user := range []string{"", "user_missing"} {
		res := h.do(t, http.MethodGet, "/users/current", user, "")
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		env := decode[rpcEnvelope](t, res)
		require.Equal(t, "UNAUTHORIZED", env.Error.Code)
	}
}

func TestUpload_RequiresViewer(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodPost, "/api/uploads/banner", "", "")
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	env := decode[rpcEnvelope](t, res)
	require.Equal(t, "UNAUTHORIZED", env.Error.Code)
}
