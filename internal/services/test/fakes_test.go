package services_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/objectstore"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/videoprovider"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/pagination"
	"github.com/sanidhyy/yt-clone/internal/repositories"
	"github.com/sanidhyy/yt-clone/internal/services"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var testLogger = log.NewStdLogger(io.Discard)

type fakeTxManager struct{}

type fakeSession struct{ ctx context.Context }

func (fakeTxManager) WithinTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, fakeSession{ctx: ctx})
}

func (fakeTxManager) WithinReadOnlyTx(ctx context.Context, _ txmanager.TxOptions, fn func(context.Context, txmanager.Session) error) error {
	return fn(ctx, fakeSession{ctx: ctx})
}

func (fakeSession) Tx() pgx.Tx { return nil }

func (s fakeSession) Context() context.Context { return s.ctx }

func ptrString(v string) *string { return &v }

// fakeVideoStore 以内存 map 保存视频，未覆盖的方法调用时 panic。
type fakeVideoStore struct {
	services.VideoStore

	mu     sync.Mutex
	videos map[uuid.UUID]*po.Video
	err    error
}

func newFakeVideoStore(videos ...*po.Video) *fakeVideoStore {
	s := &fakeVideoStore{videos: make(map[uuid.UUID]*po.Video)}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *fakeVideoStore) get(id uuid.UUID) *po.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.videos[id]; ok {
		clone := *v
		return &clone
	}
	return nil
}

func (s *fakeVideoStore) Get(_ context.Context, _ txmanager.Session, id uuid.UUID) (*po.Video, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v := s.get(id); v != nil {
		return v, nil
	}
	return nil, repositories.ErrVideoNotFound
}

func (s *fakeVideoStore) GetOwned(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Video, error) {
	v, err := s.Get(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if !v.OwnedBy(userID) {
		return nil, repositories.ErrVideoNotFound
	}
	return v, nil
}

func (s *fakeVideoStore) Update(_ context.Context, _ txmanager.Session, input repositories.UpdateVideoInput) (*po.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[input.ID]
	if !ok || v.UserID != input.UserID {
		return nil, repositories.ErrVideoNotFound
	}
	if input.Title != nil {
		v.Title = *input.Title
	}
	if input.Description != nil {
		v.Description = input.Description
	}
	if input.CategoryID != nil {
		v.CategoryID = input.CategoryID
	}
	if input.Visibility != nil {
		v.Visibility = *input.Visibility
	}
	clone := *v
	return &clone, nil
}

func (s *fakeVideoStore) SetThumbnail(_ context.Context, _ txmanager.Session, id, userID uuid.UUID, url, key *string) (*po.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok || v.UserID != userID {
		return nil, repositories.ErrVideoNotFound
	}
	v.ThumbnailURL, v.ThumbnailKey = url, key
	clone := *v
	return &clone, nil
}

// fakeObjectStore 记录写入与删除的对象键。
type fakeObjectStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	deleted  []string
	maxBytes int64
	putErr   error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte), maxBytes: 4 << 20}
}

func (s *fakeObjectStore) Put(ctx context.Context, key, contentType string, body io.Reader, _ int64) (objectstore.Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return objectstore.Object{}, err
	}
	return s.PutBytes(ctx, key, contentType, data)
}

func (s *fakeObjectStore) PutBytes(_ context.Context, key, _ string, data []byte) (objectstore.Object, error) {
	if s.putErr != nil {
		return objectstore.Object{}, s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return objectstore.Object{Key: key, URL: "https://cdn.test/" + key}, nil
}

func (s *fakeObjectStore) DeleteQuietly(_ context.Context, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.objects, key)
		s.deleted = append(s.deleted, key)
	}
}

func (s *fakeObjectStore) MaxUploadBytes() int64 { return s.maxBytes }

// fakeOutbox 收集入队的消息。
type fakeOutbox struct {
	messages []repositories.OutboxMessage
	err      error
}

func (o *fakeOutbox) Enqueue(_ context.Context, _ txmanager.Session, msg repositories.OutboxMessage) error {
	if o.err != nil {
		return o.err
	}
	o.messages = append(o.messages, msg)
	return nil
}

// fakeUserStore 仅支持按外部 ID 与主键查询。
type fakeUserStore struct {
	services.UserStore

	users map[string]*po.User
}

func (s *fakeUserStore) GetByExternalID(_ context.Context, _ txmanager.Session, externalID string) (*po.User, error) {
	if u, ok := s.users[externalID]; ok {
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (s *fakeUserStore) Get(_ context.Context, _ txmanager.Session, id uuid.UUID) (*po.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (s *fakeVideoStore) byUpload(uploadID string) *po.Video {
	for _, v := range s.videos {
		if v.UploadID != nil && *v.UploadID == uploadID {
			return v
		}
	}
	return nil
}

func (s *fakeVideoStore) GetByUploadID(_ context.Context, _ txmanager.Session, uploadID string) (*po.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v := s.byUpload(uploadID); v != nil {
		clone := *v
		return &clone, nil
	}
	return nil, repositories.ErrVideoNotFound
}

func (s *fakeVideoStore) UpdateAsset(_ context.Context, _ txmanager.Session, input repositories.UpdateAssetInput) (*po.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.byUpload(input.UploadID)
	if v == nil {
		return nil, repositories.ErrVideoNotFound
	}
	if input.AssetID != nil {
		v.AssetID = input.AssetID
	}
	if input.PlaybackID != nil {
		v.PlaybackID = input.PlaybackID
	}
	if input.Status != nil {
		v.Status = *input.Status
	}
	if input.DurationMS != nil {
		v.DurationMS = *input.DurationMS
	}
	if input.ThumbnailURL != nil {
		v.ThumbnailURL, v.ThumbnailKey = input.ThumbnailURL, input.ThumbnailKey
	}
	if input.PreviewURL != nil {
		v.PreviewURL, v.PreviewKey = input.PreviewURL, input.PreviewKey
	}
	clone := *v
	return &clone, nil
}

func (s *fakeVideoStore) UpdateTrack(_ context.Context, _ txmanager.Session, assetID, trackID, trackStatus string) (*po.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.videos {
		if v.AssetID != nil && *v.AssetID == assetID {
			v.TrackID, v.TrackStatus = &trackID, &trackStatus
			clone := *v
			return &clone, nil
		}
	}
	return nil, repositories.ErrVideoNotFound
}

func (s *fakeVideoStore) DeleteByUploadID(_ context.Context, _ txmanager.Session, uploadID string) (*po.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.byUpload(uploadID)
	if v == nil {
		return nil, repositories.ErrVideoNotFound
	}
	delete(s.videos, v.ID)
	return v, nil
}

func (s *fakeVideoStore) Create(_ context.Context, _ txmanager.Session, input repositories.CreateVideoInput) (*po.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uploadID := input.UploadID
	v := &po.Video{
		ID:         uuid.New(),
		UserID:     input.UserID,
		Title:      input.Title,
		Status:     input.Status,
		Visibility: po.VisibilityPrivate,
		UploadID:   &uploadID,
	}
	s.videos[v.ID] = v
	clone := *v
	return &clone, nil
}

func (s *fakeVideoStore) Delete(_ context.Context, _ txmanager.Session, id, userID uuid.UUID) (*po.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[id]
	if !ok || v.UserID != userID {
		return nil, repositories.ErrVideoNotFound
	}
	delete(s.videos, id)
	return v, nil
}

// GetDetail 按可见性返回详情：私有视频只对所有者可见。
func (s *fakeVideoStore) GetDetail(_ context.Context, _ txmanager.Session, id uuid.UUID, viewer *uuid.UUID) (*po.VideoDetailView, error) {
	v := s.get(id)
	if v == nil || (v.Visibility != po.VisibilityPublic && (viewer == nil || !v.OwnedBy(*viewer))) {
		return nil, repositories.ErrVideoNotFound
	}
	return &po.VideoDetailView{VideoCardView: po.VideoCardView{Video: *v}}, nil
}

// fakeVideoProvider 模拟视频平台，记录被删除的资产。
type fakeVideoProvider struct {
	upload    videoprovider.Upload
	uploadErr error
	asset     videoprovider.Asset
	deleteErr error
	imageErr  error

	deletedAssets []string
	fetched       []string
}

func (p *fakeVideoProvider) CreateUpload(context.Context, string) (videoprovider.Upload, error) {
	return p.upload, p.uploadErr
}

func (p *fakeVideoProvider) GetUpload(_ context.Context, uploadID string) (videoprovider.Upload, error) {
	if p.uploadErr != nil {
		return videoprovider.Upload{}, p.uploadErr
	}
	upload := p.upload
	upload.ID = uploadID
	return upload, nil
}

func (p *fakeVideoProvider) GetAsset(_ context.Context, assetID string) (videoprovider.Asset, error) {
	if p.asset.ID != assetID {
		return videoprovider.Asset{}, errors.New("asset not found")
	}
	return p.asset, nil
}

func (p *fakeVideoProvider) DeleteAsset(_ context.Context, assetID string) error {
	p.deletedAssets = append(p.deletedAssets, assetID)
	return p.deleteErr
}

func (p *fakeVideoProvider) FetchImage(_ context.Context, playbackID, name string) ([]byte, string, error) {
	if p.imageErr != nil {
		return nil, "", p.imageErr
	}
	p.fetched = append(p.fetched, playbackID+"/"+name)
	return []byte("img"), "image/jpeg", nil
}

// recordingFeed 记录收到的列表查询，并返回预置的视频卡片。
type recordingFeed struct {
	mu       sync.Mutex
	cards    []po.VideoCardView
	queries  []repositories.FeedQuery
	trending []repositories.TrendingQuery
	activity []repositories.ActivityQuery
}

func (f *recordingFeed) List(_ context.Context, _ txmanager.Session, q repositories.FeedQuery) (repositories.VideoPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return repositories.VideoPage{Items: f.cards}, nil
}

func (f *recordingFeed) ListTrending(_ context.Context, _ txmanager.Session, q repositories.TrendingQuery) (repositories.TrendingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trending = append(f.trending, q)
	return repositories.TrendingPage{Items: f.cards}, nil
}

func (f *recordingFeed) ListHistory(_ context.Context, _ txmanager.Session, q repositories.ActivityQuery) (pagination.Page[po.WatchedVideoView, time.Time], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activity = append(f.activity, q)
	items := make([]po.WatchedVideoView, 0, len(f.cards))
	for _, c := range f.cards {
		items = append(items, po.WatchedVideoView{VideoCardView: c, ViewedAt: c.UpdatedAt})
	}
	return pagination.Page[po.WatchedVideoView, time.Time]{Items: items}, nil
}

func (f *recordingFeed) ListLiked(_ context.Context, _ txmanager.Session, q repositories.ActivityQuery) (pagination.Page[po.LikedVideoView, time.Time], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activity = append(f.activity, q)
	items := make([]po.LikedVideoView, 0, len(f.cards))
	for _, c := range f.cards {
		items = append(items, po.LikedVideoView{VideoCardView: c, LikedAt: c.UpdatedAt})
	}
	return pagination.Page[po.LikedVideoView, time.Time]{Items: items}, nil
}

func (f *recordingFeed) lastQuery() repositories.FeedQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}
