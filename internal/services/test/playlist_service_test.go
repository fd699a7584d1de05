package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/repositories"
	"github.com/sanidhyy/yt-clone/internal/services"

	"github.com/bionicotaku/lingo-utils/txmanager"
	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type playlistLink struct {
	playlistID uuid.UUID
	videoID    uuid.UUID
}

// memoryPlaylists 按仓储约定返回哨兵错误：非所有者视为不存在。
type memoryPlaylists struct {
	mu        sync.Mutex
	playlists map[uuid.UUID]*po.Playlist
	links     map[playlistLink]*po.PlaylistVideo
	lastQuery repositories.PlaylistQuery
}

func newMemoryPlaylists() *memoryPlaylists {
	return &memoryPlaylists{
		playlists: make(map[uuid.UUID]*po.Playlist),
		links:     make(map[playlistLink]*po.PlaylistVideo),
	}
}

func (m *memoryPlaylists) Create(_ context.Context, _ txmanager.Session, input repositories.CreatePlaylistInput) (*po.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &po.Playlist{ID: uuid.New(), UserID: input.UserID, Name: input.Name, Description: input.Description, CreatedAt: time.Now()}
	m.playlists[p.ID] = p
	return p, nil
}

func (m *memoryPlaylists) Delete(_ context.Context, _ txmanager.Session, id, userID uuid.UUID) (*po.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.playlists[id]
	if !ok || p.UserID != userID {
		return nil, repositories.ErrPlaylistNotFound
	}
	delete(m.playlists, id)
	return p, nil
}

func (m *memoryPlaylists) Get(_ context.Context, _ txmanager.Session, id uuid.UUID) (*po.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.playlists[id]; ok {
		return p, nil
	}
	return nil, repositories.ErrPlaylistNotFound
}

func (m *memoryPlaylists) GetOwned(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Playlist, error) {
	p, err := m.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, repositories.ErrPlaylistNotFound
	}
	return p, nil
}

func (m *memoryPlaylists) List(_ context.Context, _ txmanager.Session, q repositories.PlaylistQuery) (repositories.PlaylistPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q
	items := []po.PlaylistView{}
	for _, p := range m.playlists {
		if p.UserID != q.UserID {
			continue
		}
		view := po.PlaylistView{Playlist: *p}
		for link := range m.links {
			if link.playlistID == p.ID {
				view.VideoCount++
				if q.VideoID != nil && link.videoID == *q.VideoID {
					view.ContainsVideo = true
				}
			}
		}
		items = append(items, view)
	}
	return repositories.PlaylistPage{Items: items}, nil
}

func (m *memoryPlaylists) AddVideo(_ context.Context, _ txmanager.Session, playlistID, videoID uuid.UUID) (*po.PlaylistVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := playlistLink{playlistID: playlistID, videoID: videoID}
	if _, ok := m.links[key]; ok {
		return nil, repositories.ErrPlaylistVideoExists
	}
	link := &po.PlaylistVideo{PlaylistID: playlistID, VideoID: videoID, CreatedAt: time.Now()}
	m.links[key] = link
	return link, nil
}

func (m *memoryPlaylists) RemoveVideo(_ context.Context, _ txmanager.Session, playlistID, videoID uuid.UUID) (*po.PlaylistVideo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := playlistLink{playlistID: playlistID, videoID: videoID}
	link, ok := m.links[key]
	if !ok {
		return nil, repositories.ErrPlaylistVideoNotFound
	}
	delete(m.links, key)
	return link, nil
}

func (m *memoryPlaylists) linkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links)
}

type playlistFixture struct {
	svc       *services.PlaylistService
	playlists *memoryPlaylists
	feed      *recordingFeed
	owner     *po.User
	video     *po.Video
}

func newPlaylistFixture() *playlistFixture {
	owner := &po.User{ID: uuid.New(), ExternalID: "user_playlist_owner", Name: "Owner"}
	video := &po.Video{ID: uuid.New(), UserID: uuid.New(), Title: "clip", Visibility: po.VisibilityPublic}
	playlists := newMemoryPlaylists()
	feed := &recordingFeed{}
	users := &fakeUserStore{users: map[string]*po.User{owner.ExternalID: owner}}
	svc := services.NewPlaylistService(playlists, newFakeVideoStore(video), users, feed, fakeTxManager{}, testLogger)
	return &playlistFixture{svc: svc, playlists: playlists, feed: feed, owner: owner, video: video}
}

func TestPlaylistService_CreateAndRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newPlaylistFixture()

	_, err := fx.svc.Create(ctx, services.CreatePlaylistInput{UserID: fx.owner.ID, Name: "   "})
	require.Equal(t, 400, int(kerrors.Code(err)))

	created, err := fx.svc.Create(ctx, services.CreatePlaylistInput{UserID: fx.owner.ID, Name: "  Watch later "})
	require.NoError(t, err)
	require.Equal(t, "Watch later", created.Name)

	got, err := fx.svc.GetOne(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.User)
	require.Equal(t, fx.owner.ID, got.User.ID)

	_, err = fx.svc.Remove(ctx, created.ID, uuid.New())
	require.ErrorIs(t, err, services.ErrPlaylistNotFound)

	removed, err := fx.svc.Remove(ctx, created.ID, fx.owner.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, removed.ID)

	_, err = fx.svc.GetOne(ctx, created.ID)
	require.ErrorIs(t, err, services.ErrPlaylistNotFound)
}

func TestPlaylistService_Membership(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newPlaylistFixture()
	playlist, err := fx.svc.Create(ctx, services.CreatePlaylistInput{UserID: fx.owner.ID, Name: "Favorites"})
	require.NoError(t, err)

	link, err := fx.svc.AddVideo(ctx, fx.owner.ID, playlist.ID, fx.video.ID)
	require.NoError(t, err)
	require.Equal(t, fx.video.ID, link.VideoID)

	_, err = fx.svc.AddVideo(ctx, fx.owner.ID, playlist.ID, fx.video.ID)
	require.ErrorIs(t, err, services.ErrPlaylistVideoExists)
	require.Equal(t, 409, int(kerrors.Code(err)))
	require.Equal(t, services.ReasonConflict, kerrors.Reason(err))
	require.Equal(t, 1, fx.playlists.linkCount())

	_, err = fx.svc.AddVideo(ctx, fx.owner.ID, playlist.ID, uuid.New())
	require.ErrorIs(t, err, services.ErrVideoNotFound)

	page, err := fx.svc.GetManyForVideo(ctx, fx.owner.ID, fx.video.ID, nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.True(t, page.Items[0].ContainsVideo)
	require.Equal(t, int64(1), page.Items[0].VideoCount)
	require.Equal(t, fx.video.ID, *fx.playlists.lastQuery.VideoID)

	removed, err := fx.svc.RemoveVideo(ctx, fx.owner.ID, playlist.ID, fx.video.ID)
	require.NoError(t, err)
	require.Equal(t, playlist.ID, removed.PlaylistID)

	_, err = fx.svc.RemoveVideo(ctx, fx.owner.ID, playlist.ID, fx.video.ID)
	require.ErrorIs(t, err, services.ErrPlaylistVideoNotFound)
	require.Equal(t, 404, int(kerrors.Code(err)))
	require.Equal(t, services.ReasonNotFound, kerrors.Reason(err))
}

func TestPlaylistService_NonOwnerMutationsAreNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newPlaylistFixture()
	playlist, err := fx.svc.Create(ctx, services.CreatePlaylistInput{UserID: fx.owner.ID, Name: "Mine"})
	require.NoError(t, err)
	_, err = fx.svc.AddVideo(ctx, fx.owner.ID, playlist.ID, fx.video.ID)
	require.NoError(t, err)

	intruder := uuid.New()
	_, err = fx.svc.AddVideo(ctx, intruder, playlist.ID, fx.video.ID)
	require.ErrorIs(t, err, services.ErrPlaylistNotFound)
	_, err = fx.svc.RemoveVideo(ctx, intruder, playlist.ID, fx.video.ID)
	require.ErrorIs(t, err, services.ErrPlaylistNotFound)
	require.Equal(t, 404, int(kerrors.Code(err)))
	require.Equal(t, 1, fx.playlists.linkCount())

	page, err := fx.svc.GetMany(ctx, intruder, nil, 10)
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestPlaylistService_VideoListsUseCaller(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fx := newPlaylistFixture()
	fx.feed.cards = []po.VideoCardView{{Video: *fx.video}}
	playlist, err := fx.svc.Create(ctx, services.CreatePlaylistInput{UserID: fx.owner.ID, Name: "Mix"})
	require.NoError(t, err)

	viewer := uuid.New()
	page, err := fx.svc.GetVideos(ctx, playlist.ID, &viewer, nil, 6)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	q := fx.feed.lastQuery()
	require.Equal(t, &viewer, q.Viewer)
	require.Equal(t, playlist.ID, *q.PlaylistID)

	_, err = fx.svc.GetVideos(ctx, uuid.New(), &viewer, nil, 6)
	require.ErrorIs(t, err, services.ErrPlaylistNotFound)

	history, err := fx.svc.GetHistory(ctx, fx.owner.ID, nil, 3)
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	liked, err := fx.svc.GetLiked(ctx, fx.owner.ID, nil, 3)
	require.NoError(t, err)
	require.Len(t, liked.Items, 1)
	require.Equal(t, []repositories.ActivityQuery{
		{UserID: fx.owner.ID, Limit: 3},
		{UserID: fx.owner.ID, Limit: 3},
	}, fx.feed.activity)
}
