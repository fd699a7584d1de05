package services

import (
	"context"
	"io"
	"time"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/llm"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/objectstore"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/videoprovider"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/pagination"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/uuid"
)

// UserStore 抽象用户仓储能力。
type UserStore interface {
	Upsert(ctx context.Context, sess txmanager.Session, input repositories.UpsertUserInput) (*po.User, error)
	GetByExternalID(ctx context.Context, sess txmanager.Session, externalID string) (*po.User, error)
	Get(ctx context.Context, sess txmanager.Session, id uuid.UUID) (*po.User, error)
	DeleteByExternalID(ctx context.Context, sess txmanager.Session, externalID string) (bool, error)
	UpdateBanner(ctx context.Context, sess txmanager.Session, id uuid.UUID, url, key *string) (*po.User, error)
	GetProfile(ctx context.Context, sess txmanager.Session, id uuid.UUID, viewer *uuid.UUID) (*po.UserProfileView, error)
}

// VideoStore 抽象视频写入与单条读取能力。
type VideoStore interface {
	Create(ctx context.Context, sess txmanager.Session, input repositories.CreateVideoInput) (*po.Video, error)
	Get(ctx context.Context, sess txmanager.Session, id uuid.UUID) (*po.Video, error)
	GetOwned(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Video, error)
	GetByUploadID(ctx context.Context, sess txmanager.Session, uploadID string) (*po.Video, error)
	GetDetail(ctx context.Context, sess txmanager.Session, id uuid.UUID, viewer *uuid.UUID) (*po.VideoDetailView, error)
	Update(ctx context.Context, sess txmanager.Session, input repositories.UpdateVideoInput) (*po.Video, error)
	UpdateAsset(ctx context.Context, sess txmanager.Session, input repositories.UpdateAssetInput) (*po.Video, error)
	UpdateTrack(ctx context.Context, sess txmanager.Session, assetID, trackID, trackStatus string) (*po.Video, error)
	SetThumbnail(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID, url, key *string) (*po.Video, error)
	Delete(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Video, error)
	DeleteByUploadID(ctx context.Context, sess txmanager.Session, uploadID string) (*po.Video, error)
}

// VideoFeed 抽象视频列表查询能力。
type VideoFeed interface {
	List(ctx context.Context, sess txmanager.Session, q repositories.FeedQuery) (repositories.VideoPage, error)
	ListTrending(ctx context.Context, sess txmanager.Session, q repositories.TrendingQuery) (repositories.TrendingPage, error)
	ListHistory(ctx context.Context, sess txmanager.Session, q repositories.ActivityQuery) (pagination.Page[po.WatchedVideoView, time.Time], error)
	ListLiked(ctx context.Context, sess txmanager.Session, q repositories.ActivityQuery) (pagination.Page[po.LikedVideoView, time.Time], error)
}

// CommentStore 抽象评论仓储能力。
type CommentStore interface {
	Create(ctx context.Context, sess txmanager.Session, input repositories.CreateCommentInput) (*po.Comment, error)
	Get(ctx context.Context, sess txmanager.Session, id uuid.UUID) (*po.Comment, error)
	Delete(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Comment, error)
	CountByVideo(ctx context.Context, sess txmanager.Session, videoID uuid.UUID) (int64, error)
	List(ctx context.Context, sess txmanager.Session, q repositories.CommentQuery) (repositories.CommentPage, error)
}

// ReactionStore 抽象视频/评论互动仓储能力。
type ReactionStore interface {
	Get(ctx context.Context, sess txmanager.Session, target repositories.ReactionTarget, userID, targetID uuid.UUID) (*po.Reaction, error)
	Upsert(ctx context.Context, sess txmanager.Session, target repositories.ReactionTarget, userID, targetID uuid.UUID, typ po.ReactionType) (*po.Reaction, error)
	Delete(ctx context.Context, sess txmanager.Session, target repositories.ReactionTarget, userID, targetID uuid.UUID) (bool, error)
}

// ViewStore 抽象观看记录写入。
type ViewStore interface {
	Upsert(ctx context.Context, sess txmanager.Session, userID, videoID uuid.UUID) (*po.VideoView, error)
}

// SubscriptionStore 抽象订阅仓储能力。
type SubscriptionStore interface {
	Insert(ctx context.Context, sess txmanager.Session, viewerID, creatorID uuid.UUID) (bool, error)
	Delete(ctx context.Context, sess txmanager.Session, viewerID, creatorID uuid.UUID) (bool, error)
	ListCreators(ctx context.Context, sess txmanager.Session, q repositories.CreatorQuery) (repositories.CreatorPage, error)
}

// PlaylistStore 抽象播放列表仓储能力。
type PlaylistStore interface {
	Create(ctx context.Context, sess txmanager.Session, input repositories.CreatePlaylistInput) (*po.Playlist, error)
	Delete(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Playlist, error)
	Get(ctx context.Context, sess txmanager.Session, id uuid.UUID) (*po.Playlist, error)
	GetOwned(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Playlist, error)
	List(ctx context.Context, sess txmanager.Session, q repositories.PlaylistQuery) (repositories.PlaylistPage, error)
	AddVideo(ctx context.Context, sess txmanager.Session, playlistID, videoID uuid.UUID) (*po.PlaylistVideo, error)
	RemoveVideo(ctx context.Context, sess txmanager.Session, playlistID, videoID uuid.UUID) (*po.PlaylistVideo, error)
}

// CategoryStore 抽象分类仓储能力。
type CategoryStore interface {
	List(ctx context.Context, sess txmanager.Session) ([]po.Category, error)
	InsertMany(ctx context.Context, sess txmanager.Session, items []repositories.SeedCategory) (int64, error)
}

// OutboxEnqueuer 定义写入 outbox 的能力。
type OutboxEnqueuer interface {
	Enqueue(ctx context.Context, sess txmanager.Session, msg repositories.OutboxMessage) error
}

// VideoProvider 抽象第三方视频平台。
type VideoProvider interface {
	CreateUpload(ctx context.Context, passthrough string) (videoprovider.Upload, error)
	GetUpload(ctx context.Context, uploadID string) (videoprovider.Upload, error)
	GetAsset(ctx context.Context, assetID string) (videoprovider.Asset, error)
	DeleteAsset(ctx context.Context, assetID string) error
	FetchImage(ctx context.Context, playbackID, name string) ([]byte, string, error)
}

// TranscriptSource 抽象字幕文本下载。
type TranscriptSource interface {
	FetchTranscript(ctx context.Context, playbackID, trackID string) (string, error)
}

// ObjectStore 抽象对象存储。
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (objectstore.Object, error)
	PutBytes(ctx context.Context, key, contentType string, data []byte) (objectstore.Object, error)
	DeleteQuietly(ctx context.Context, keys ...string)
	MaxUploadBytes() int64
}

// TextGenerator 抽象大模型文本与图片生成。
type TextGenerator interface {
	GenerateText(ctx context.Context, apiKey, system, input string) (string, error)
	GenerateImage(ctx context.Context, apiKey, prompt string) ([]byte, error)
}

var (
	_ UserStore         = (*repositories.UserRepository)(nil)
	_ VideoStore        = (*repositories.VideoRepository)(nil)
	_ VideoFeed         = (*repositories.VideoFeedRepository)(nil)
	_ CommentStore      = (*repositories.CommentRepository)(nil)
	_ ReactionStore     = (*repositories.ReactionRepository)(nil)
	_ ViewStore         = (*repositories.ViewRepository)(nil)
	_ SubscriptionStore = (*repositories.SubscriptionRepository)(nil)
	_ PlaylistStore     = (*repositories.PlaylistRepository)(nil)
	_ CategoryStore     = (*repositories.CategoryRepository)(nil)
	_ OutboxEnqueuer    = (*repositories.OutboxRepository)(nil)
	_ VideoProvider     = (*videoprovider.Client)(nil)
	_ TranscriptSource  = (*videoprovider.Client)(nil)
	_ ObjectStore       = (*objectstore.Store)(nil)
	_ TextGenerator     = (*llm.Client)(nil)
)
