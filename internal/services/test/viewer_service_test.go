package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sanidhyy/yt-clone/internal/metadata"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/services"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.err
}

func newViewerFixture(limiter *stubLimiter) (*services.ViewerService, *po.User) {
	user := &po.User{ID: uuid.New(), ExternalID: "user_ext_1", Name: "Ann"}
	users := &fakeUserStore{users: map[string]*po.User{user.ExternalID: user}}
	return services.NewViewerService(users, limiter, testLogger), user
}

func authed(externalID string) context.Context {
	return metadata.Inject(context.Background(), metadata.HandlerMetadata{ExternalUserID: externalID})
}

func TestViewerService_ResolveAnonymous(t *testing.T) {
	t.Parallel()

	svc, _ := newViewerFixture(&stubLimiter{allowed: true})

	user, err := svc.Resolve(context.Background())
	require.NoError(t, err)
	require.Nil(t, user)

	user, err = svc.Resolve(authed("unknown"))
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestViewerService_Require(t *testing.T) {
	t.Parallel()

	t.Run("unauthorized", func(t *testing.T) {
		svc, _ := newViewerFixture(&stubLimiter{allowed: true})
		_, err := svc.Require(context.Background())
		require.Equal(t, 401, int(kerrors.Code(err)))
		require.Equal(t, services.ReasonUnauthorized, kerrors.Reason(err))
	})

	t.Run("allowed", func(t *testing.T) {
		limiter := &stubLimiter{allowed: true}
		svc, user := newViewerFixture(limiter)
		got, err := svc.Require(authed(user.ExternalID))
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
		require.Equal(t, []string{"user:" + user.ID.String()}, limiter.keys)
	})

	t.Run("rate limited", func(t *testing.T) {
		svc, user := newViewerFixture(&stubLimiter{allowed: false})
		_, err := svc.Require(authed(user.ExternalID))
		require.Equal(t, 429, int(kerrors.Code(err)))
		require.Equal(t, services.ReasonTooManyRequests, kerrors.Reason(err))
	})

	t.Run("limiter failure fails open", func(t *testing.T) {
		svc, user := newViewerFixture(&stubLimiter{err: errors.New("redis down")})
		got, err := svc.Require(authed(user.ExternalID))
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
	})
}

func TestViewerService_InvalidCredentialsAreAnonymous(t *testing.T) {
	t.Parallel()

	svc, user := newViewerFixture(&stubLimiter{allowed: true})
	ctx := metadata.Inject(context.Background(), metadata.HandlerMetadata{
		ExternalUserID:     user.ExternalID,
		InvalidCredentials: true,
	})

	id, err := svc.ViewerID(ctx)
	require.NoError(t, err)
	require.Nil(t, id)
}
