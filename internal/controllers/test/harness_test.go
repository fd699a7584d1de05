package controllers_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sanidhyy/yt-clone/internal/controllers"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/identity"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/repositories"
	"github.com/sanidhyy/yt-clone/internal/services"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const userHeader = "X-Test-User"

var testLogger = log.NewStdLogger(io.Discard)

// headerResolver 以测试请求头模拟身份平台令牌。
type headerResolver struct{}

func (headerResolver) FromRequest(r *http.Request) (identity.Identity, error) {
	switch v := r.Header.Get(userHeader); v {
	case "":
		return identity.Identity{}, identity.ErrNoCredentials
	case "forged":
		return identity.Identity{}, errors.New("bad signature")
	default:
		return identity.Identity{ExternalID: v, Source: "test"}, nil
	}
}

type memoryUsers struct {
	services.UserStore

	mu      sync.Mutex
	byExt   map[string]*po.User
	deleted []string
}

func newMemoryUsers(users ...*po.User) *memoryUsers {
	m := &memoryUsers{byExt: make(map[string]*po.User)}
	for _, u := range users {
		m.byExt[u.ExternalID] = u
	}
	return m
}

func (m *memoryUsers) GetByExternalID(_ context.Context, _ txmanager.Session, externalID string) (*po.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byExt[externalID]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (m *memoryUsers) Upsert(_ context.Context, _ txmanager.Session, input repositories.UpsertUserInput) (*po.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byExt[input.ExternalID]
	if !ok {
		u = &po.User{ID: uuid.New(), ExternalID: input.ExternalID, CreatedAt: time.Now()}
		m.byExt[input.ExternalID] = u
	}
	u.Name = input.Name
	u.ImageURL = input.ImageURL
	return u, nil
}

func (m *memoryUsers) DeleteByExternalID(_ context.Context, _ txmanager.Session, externalID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byExt[externalID]
	delete(m.byExt, externalID)
	m.deleted = append(m.deleted, externalID)
	return ok, nil
}

type staticCategories struct {
	items []po.Category
	err   error
}

func (s staticCategories) List(context.Context, txmanager.Session) ([]po.Category, error) {
	return s.items, s.err
}

func (s staticCategories) InsertMany(context.Context, txmanager.Session, []repositories.SeedCategory) (int64, error) {
	return 0, s.err
}

type memorySubscriptions struct {
	services.SubscriptionStore

	mu    sync.Mutex
	pairs map[[2]uuid.UUID]bool
}

func (m *memorySubscriptions) Insert(_ context.Context, _ txmanager.Session, viewerID, creatorID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uuid.UUID{viewerID, creatorID}
	if m.pairs[key] {
		return false, nil
	}
	m.pairs[key] = true
	return true, nil
}

func (m *memorySubscriptions) Delete(_ context.Context, _ txmanager.Session, viewerID, creatorID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]uuid.UUID{viewerID, creatorID}
	existed := m.pairs[key]
	delete(m.pairs, key)
	return existed, nil
}

type stubLimiter struct {
	allow bool
	err   error
}

func (l stubLimiter) Allow(context.Context, string) (bool, error) { return l.allow, l.err }

type harness struct {
	srv           *httptest.Server
	users         *memoryUsers
	subscriptions *memorySubscriptions
	webhooks      *controllers.WebhookHandler
	alice         *po.User
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	limiter    stubLimiter
	categories staticCategories
	secrets    controllers.WebhookSecrets
}

func withLimiter(l stubLimiter) harnessOption {
	return func(c *harnessConfig) { c.limiter = l }
}

func withCategories(c staticCategories) harnessOption {
	return func(cfg *harnessConfig) { cfg.categories = c }
}

func withSecrets(s controllers.WebhookSecrets) harnessOption {
	return func(c *harnessConfig) { c.secrets = s }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	cfg := harnessConfig{limiter: stubLimiter{allow: true}}
	for _, opt := range opts {
		opt(&cfg)
	}

	alice := &po.User{ID: uuid.New(), ExternalID: "user_alice", Name: "Alice"}
	users := newMemoryUsers(alice)
	subs := &memorySubscriptions{pairs: make(map[[2]uuid.UUID]bool)}

	base := controllers.NewBaseHandler(controllers.HandlerTimeouts{Default: time.Second}, controllers.RPCConfig{MaxBatchSize: 3}, headerResolver{}, testLogger)
	svc := &controllers.Services{
		Viewer:        services.NewViewerService(users, cfg.limiter, testLogger),
		Categories:    services.NewCategoryService(cfg.categories, testLogger),
		Subscriptions: services.NewSubscriptionService(subs, testLogger),
	}
	metrics, err := controllers.NewRPCMetrics(controllers.NewMetricsRegistry())
	require.NoError(t, err)

	webhooks := controllers.NewWebhookHandler(base, cfg.secrets,
		services.NewIdentityEventService(users, testLogger),
		services.NewVideoEventService(nil, nil, nil, testLogger),
	)
	routes := controllers.NewRoutes(base,
		controllers.NewRPCHandler(base, svc, metrics),
		webhooks,
		controllers.NewUploadHandler(base, svc),
		controllers.NewUsersHandler(base, svc),
		metrics,
	)
	srv := khttp.NewServer(khttp.Filter(routes.Filters()...))
	routes.Register(srv)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &harness{srv: ts, users: users, subscriptions: subs, webhooks: webhooks, alice: alice}
}

func (h *harness) do(t *testing.T, method, path, user, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, h.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	res, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}
