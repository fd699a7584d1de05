package httpserver_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	configloader "github.com/sanidhyy/yt-clone/internal/infrastructure/configloader"
	httpserver "github.com/sanidhyy/yt-clone/internal/infrastructure/http_server"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

type stubRoutes struct{}

func (stubRoutes) Filters() []khttp.FilterFunc {
	return []khttp.FilterFunc{func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKey{}, r.Header.Get("X-Caller"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}}
}

func (stubRoutes) Register(srv *khttp.Server) {
	r := srv.Route("/")
	r.GET("/echo", func(ctx khttp.Context) error {
		h := ctx.Middleware(func(ctx context.Context, _ any) (any, error) {
			caller, _ := ctx.Value(ctxKey{}).(string)
			return map[string]string{"caller": caller}, nil
		})
		out, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(http.StatusOK, out)
	})
	r.GET("/panic", func(ctx khttp.Context) error {
		h := ctx.Middleware(func(context.Context, any) (any, error) {
			panic("boom")
		})
		_, err := h(ctx, nil)
		return err
	})
}

func startServer(t *testing.T, cfg configloader.ServerConfig) string {
	t.Helper()
	srv := httpserver.NewHTTPServer(cfg, stubRoutes{}, log.NewStdLogger(io.Discard))
	endpoint, err := srv.Endpoint()
	require.NoError(t, err)

	go func() { _ = srv.Start(context.Background()) }()
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	base := "http://" + endpoint.Host
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/echo")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)
	return base
}

func TestNewHTTPServer_FiltersReachHandlers(t *testing.T) {
	base := startServer(t, configloader.ServerConfig{Network: "tcp", Address: "127.0.0.1:0", Timeout: time.Second})

	req, err := http.NewRequest(http.MethodGet, base+"/echo", nil)
	require.NoError(t, err)
	req.Header.Set("X-Caller", "user_1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"caller":"user_1"}`, string(body))
}

func TestNewHTTPServer_RecoversPanics(t *testing.T) {
	base := startServer(t, configloader.ServerConfig{Address: "127.0.0.1:0"})

	resp, err := http.Get(base + "/panic")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestNewHTTPServer_NilRoutes(t *testing.T) {
	srv := httpserver.NewHTTPServer(configloader.ServerConfig{Address: "127.0.0.1:0"}, nil, log.NewStdLogger(io.Discard))
	require.NotNil(t, srv)
	_ = srv.Stop(context.Background())
}
