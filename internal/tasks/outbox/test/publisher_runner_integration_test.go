package outbox_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	outboxevents "github.com/sanidhyy/yt-clone/internal/models/outbox_events"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/repositories"
	"github.com/sanidhyy/yt-clone/internal/services"
	outboxtasks "github.com/sanidhyy/yt-clone/internal/tasks/outbox"

	"cloud.google.com/go/pubsub/pstest"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/docker/go-connections/nat"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testProject = "test-project"
	testTopic   = "workflow-events"
)

var discard = log.NewStdLogger(io.Discard)

// publisherEnv 为单个用例准备 Postgres、outbox 仓储与 Pub/Sub 模拟器。
type publisherEnv struct {
	ctx    context.Context
	pool   *pgxpool.Pool
	outbox *repositories.OutboxRepository
	pubsub *pstest.Server
	pubCfg gcpubsub.Config
	pub    gcpubsub.Publisher
}

func newPublisherEnv(t *testing.T) *publisherEnv {
	t.Helper()
	ctx := context.Background()

	pool := startPostgres(ctx, t)
	applyMigrations(ctx, t, pool)

	server := pstest.NewServer()
	t.Cleanup(func() { _ = server.Close() })

	pubCfg := gcpubsub.Config{
		ProjectID:        testProject,
		TopicID:          testTopic,
		EnableLogging:    boolPtr(false),
		EnableMetrics:    boolPtr(false),
		EmulatorEndpoint: server.Addr,
	}
	component, cleanup, err := gcpubsub.NewComponent(ctx, pubCfg, gcpubsub.Dependencies{Logger: discard})
	require.NoError(t, err)
	t.Cleanup(cleanup)

	return &publisherEnv{
		ctx:    ctx,
		pool:   pool,
		outbox: repositories.NewOutboxRepository(pool, discard, outboxcfg.Config{Schema: "public"}),
		pubsub: server,
		pubCfg: pubCfg,
		pub:    gcpubsub.ProvidePublisher(component),
	}
}

func (e *publisherEnv) topicName() string {
	return fmt.Sprintf("projects/%s/topics/%s", testProject, testTopic)
}

func (e *publisherEnv) createTopic(t *testing.T) {
	t.Helper()
	_, err := e.pubsub.GServer.CreateTopic(e.ctx, &pubsubpb.Topic{Name: e.topicName()})
	require.NoError(t, err)
}

// runner 通过任务包的 ProvideRunner 构造发布器，与进程内的装配方式一致。
func (e *publisherEnv) runner(t *testing.T, maxAttempts int) *outboxpublisher.Runner {
	t.Helper()
	cfg := outboxcfg.Config{
		Schema: "public",
		Publisher: outboxcfg.PublisherConfig{
			BatchSize:      2,
			TickInterval:   25 * time.Millisecond,
			InitialBackoff: 10 * time.Millisecond,
			MaxBackoff:     100 * time.Millisecond,
			MaxAttempts:    maxAttempts,
			PublishTimeout: 200 * time.Millisecond,
			Workers:        1,
			LockTTL:        time.Second,
			LoggingEnabled: boolPtr(false),
		},
	}
	runner := outboxtasks.ProvideRunner(e.outbox, e.pub, e.pubCfg, cfg, discard)
	require.NotNil(t, runner)
	return runner
}

// start 在后台运行 runner，返回的函数停止它并等待退出。
func (e *publisherEnv) start(t *testing.T, runner *outboxpublisher.Runner) func() {
	t.Helper()
	runCtx, cancel := context.WithCancel(e.ctx)
	done := make(chan error, 1)
	go func() { done <- runner.Run(runCtx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			require.True(t, err == nil || errors.Is(err, context.Canceled), "runner exit: %v", err)
		case <-time.After(2 * time.Second):
			t.Fatal("runner did not stop in time")
		}
	}
}

func (e *publisherEnv) attempts(eventID uuid.UUID) (attempts int32, published bool) {
	err := e.pool.QueryRow(e.ctx, `
		SELECT delivery_attempts, published_at IS NOT NULL
		FROM outbox_events WHERE event_id = $1`, eventID).Scan(&attempts, &published)
	if err != nil {
		return -1, false
	}
	return attempts, published
}

func TestPublisher_TriggeredWorkflowReachesTopic(t *testing.T) {
	t.Parallel()
	env := newPublisherEnv(t)
	env.createTopic(t)

	users := repositories.NewUserRepository(env.pool, discard)
	videos := repositories.NewVideoRepository(env.pool, discard)
	txMgr, err := txmanager.NewManager(env.pool, txmanager.Config{}, txmanager.Dependencies{Logger: discard})
	require.NoError(t, err)

	owner, err := users.Upsert(env.ctx, nil, repositories.UpsertUserInput{ExternalID: "user_workflow", Name: "Owner"})
	require.NoError(t, err)
	video, err := videos.Create(env.ctx, nil, repositories.CreateVideoInput{
		UserID:   owner.ID,
		Title:    "Untitled",
		UploadID: "upload-" + uuid.NewString(),
		Status:   po.VideoStatusWaiting,
	})
	require.NoError(t, err)

	workflows := services.NewWorkflowService(videos, env.outbox, txMgr, discard)
	run, err := workflows.GenerateThumbnail(env.ctx, owner.ID, video.ID, "neon city skyline at dusk", "sealed-key")
	require.NoError(t, err)

	pending, err := env.outbox.CountPending(env.ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)

	stop := env.start(t, env.runner(t, 3))
	require.Eventually(t, func() bool {
		_, published := env.attempts(run.WorkflowRunID)
		return published
	}, 5*time.Second, 25*time.Millisecond)
	stop()

	pending, err = env.outbox.CountPending(env.ctx)
	require.NoError(t, err)
	require.Zero(t, pending)

	msgs := env.pubsub.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, env.topicName(), msgs[0].Topic)
	require.Equal(t, video.ID.String(), msgs[0].Attributes[outboxevents.AttrVideoID])
	require.Equal(t, outboxevents.KindThumbnailRequested.String(), msgs[0].Attributes[outboxevents.AttrWorkflow])

	evt, err := outboxevents.DecodeWorkflowRequested(msgs[0].Data)
	require.NoError(t, err)
	require.Equal(t, run.WorkflowRunID, evt.EventID)
	require.Equal(t, owner.ID, evt.UserID)
	require.Equal(t, "neon city skyline at dusk", evt.Prompt)
	require.Equal(t, "sealed-key", evt.APIKey)
}

func TestPublisher_RetriesUntilTopicExists(t *testing.T) {
	t.Parallel()
	env := newPublisherEnv(t)

	event, err := outboxevents.NewWorkflowRequestedEvent(outboxevents.WorkflowRequest{
		Kind:    outboxevents.KindDescriptionRequested,
		UserID:  uuid.New(),
		VideoID: uuid.New(),
	}, uuid.New(), time.Now())
	require.NoError(t, err)
	msg, err := outboxevents.ToOutboxMessage(event, "")
	require.NoError(t, err)
	require.NoError(t, env.outbox.Enqueue(env.ctx, nil, msg))

	stop := env.start(t, env.runner(t, 10))
	defer stop()

	require.Eventually(t, func() bool {
		attempts, published := env.attempts(event.EventID)
		return attempts >= 1 && !published
	}, 3*time.Second, 25*time.Millisecond, "delivery should fail while the topic is missing")

	env.createTopic(t)
	require.Eventually(t, func() bool {
		_, published := env.attempts(event.EventID)
		return published
	}, 6*time.Second, 50*time.Millisecond)
	require.Len(t, env.pubsub.Messages(), 1)
}

func TestProvideRunner_DisabledWithoutTopic(t *testing.T) {
	runner := outboxtasks.ProvideRunner(&repositories.OutboxRepository{}, nil, gcpubsub.Config{}, outboxcfg.Config{}, discard)
	require.Nil(t, runner)

	runner = outboxtasks.ProvideRunner(nil, nil, gcpubsub.Config{TopicID: testTopic}, outboxcfg.Config{}, discard)
	require.Nil(t, runner)
}

func startPostgres(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_USER":     "postgres",
				"POSTGRES_DB":       "ytclone",
			},
			WaitingFor: wait.ForSQL("5432/tcp", "pgx", func(host string, port nat.Port) string {
				return fmt.Sprintf("postgres://postgres:postgres@%s:%s/ytclone?sslmode=disable", host, port.Port())
			}).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("skip publisher integration tests: cannot start postgres container: %v", err)
	}
	t.Cleanup(func() {
		termCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = container.Terminate(termCtx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, fmt.Sprintf("postgres://postgres:postgres@%s:%s/ytclone?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func applyMigrations(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	dir := filepath.Join("..", "..", "..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		_, err = pool.Exec(ctx, string(sqlBytes))
		require.NoErrorf(t, err, "apply migration %s", name)
	}
}

func boolPtr(v bool) *bool {
	return &v
}
