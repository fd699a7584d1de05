package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/pagination"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrPlaylistNotFound 表示播放列表不存在或不属于当前用户。
	ErrPlaylistNotFound = errors.New("playlist not found")
	// ErrPlaylistVideoExists 表示视频已在播放列表中。
	ErrPlaylistVideoExists = errors.New("video already in playlist")
	// ErrPlaylistVideoNotFound 表示视频不在播放列表中。
	ErrPlaylistVideoNotFound = errors.New("video not in playlist")
)

const playlistColumns = `p.id, p.user_id, p.name, p.description, p.created_at, p.updated_at`

// 播放列表派生字段：视频数量，以及最近加入的公开视频的缩略图。
const (
	playlistVideoCountExpr = `(SELECT count(*) FROM playlist_videos pv WHERE pv.playlist_id = p.id)`
	playlistThumbnailExpr  = `(SELECT tv.thumbnail_url FROM playlist_videos pv
		JOIN videos tv ON tv.id = pv.video_id
		WHERE pv.playlist_id = p.id AND tv.visibility = 'public'
		ORDER BY pv.updated_at DESC, tv.id DESC LIMIT 1)`
)

// PlaylistRepository 维护 playlists 与 playlist_videos 表。
type PlaylistRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewPlaylistRepository 构造 PlaylistRepository。
func NewPlaylistRepository(db *pgxpool.Pool, logger log.Logger) *PlaylistRepository {
	return &PlaylistRepository{db: db, log: log.NewHelper(logger)}
}

// CreatePlaylistInput 描述播放列表创建参数。
type CreatePlaylistInput struct {
	UserID      uuid.UUID
	Name        string
	Description *string
}

// PlaylistQuery 描述播放列表分页查询。VideoID 非空时计算 ContainsVideo。
type PlaylistQuery struct {
	UserID  uuid.UUID
	VideoID *uuid.UUID
	Cursor  *pagination.Cursor[time.Time]
	Limit   int
}

// PlaylistPage 表示播放列表分页结果。
type PlaylistPage = pagination.Page[po.PlaylistView, time.Time]

func playlistDest(p *po.Playlist) []any {
	return []any{&p.ID, &p.UserID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt}
}

func scanPlaylist(row rowScanner) (*po.Playlist, error) {
	var p po.Playlist
	if err := row.Scan(playlistDest(&p)...); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create 创建播放列表。
func (r *PlaylistRepository) Create(ctx context.Context, sess txmanager.Session, input CreatePlaylistInput) (*po.Playlist, error) {
	const query = `
INSERT INTO playlists AS p (user_id, name, description)
VALUES (@user_id, @name, @description)
RETURNING ` + playlistColumns

	playlist, err := scanPlaylist(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"user_id":     input.UserID,
		"name":        input.Name,
		"description": input.Description,
	}))
	if err != nil {
		r.log.WithContext(ctx).Errorf("create playlist failed: user_id=%s err=%v", input.UserID, err)
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	return playlist, nil
}

// Delete 删除当前用户的播放列表。
func (r *PlaylistRepository) Delete(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Playlist, error) {
	const query = `DELETE FROM playlists p WHERE p.id = @id AND p.user_id = @user_id RETURNING ` + playlistColumns
	playlist, err := scanPlaylist(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("delete playlist: %w", err)
	}
	return playlist, nil
}

// Get 按 ID 返回播放列表，不校验归属。
func (r *PlaylistRepository) Get(ctx context.Context, sess txmanager.Session, id uuid.UUID) (*po.Playlist, error) {
	const query = `SELECT ` + playlistColumns + ` FROM playlists p WHERE p.id = $1`
	playlist, err := scanPlaylist(conn(r.db, sess).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	return playlist, nil
}

// GetOwned 返回属于 userID 的播放列表。
func (r *PlaylistRepository) GetOwned(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Playlist, error) {
	const query = `SELECT ` + playlistColumns + ` FROM playlists p WHERE p.id = $1 AND p.user_id = $2`
	playlist, err := scanPlaylist(conn(r.db, sess).QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("get playlist: %w", err)
	}
	return playlist, nil
}

// List 分页返回用户的播放列表，附带视频数量与派生缩略图。
func (r *PlaylistRepository) List(ctx context.Context, sess txmanager.Session, q PlaylistQuery) (PlaylistPage, error) {
	sql, args := buildPlaylistQuery(q)
	rows, err := conn(r.db, sess).Query(ctx, sql, args)
	if err != nil {
		r.log.WithContext(ctx).Errorf("list playlists failed: user_id=%s err=%v", q.UserID, err)
		return PlaylistPage{}, fmt.Errorf("list playlists: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (po.PlaylistView, error) {
		var item po.PlaylistView
		dest := append(playlistDest(&item.Playlist), userDest(&item.Owner)...)
		dest = append(dest, &item.VideoCount, &item.ThumbnailURL, &item.ContainsVideo)
		return item, row.Scan(dest...)
	})
	if err != nil {
		return PlaylistPage{}, fmt.Errorf("scan playlists: %w", err)
	}
	return pagination.Slice(items, q.Limit, func(p po.PlaylistView) pagination.Cursor[time.Time] {
		return pagination.Cursor[time.Time]{ID: p.ID, Key: p.UpdatedAt}
	}), nil
}

// AddVideo 把视频加入播放列表。重复加入返回 ErrPlaylistVideoExists。
func (r *PlaylistRepository) AddVideo(ctx context.Context, sess txmanager.Session, playlistID, videoID uuid.UUID) (*po.PlaylistVideo, error) {
	const query = `
INSERT INTO playlist_videos (playlist_id, video_id)
VALUES (@playlist_id, @video_id)
RETURNING playlist_id, video_id, created_at, updated_at`

	var link po.PlaylistVideo
	err := conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"playlist_id": playlistID,
		"video_id":    videoID,
	}).Scan(&link.PlaylistID, &link.VideoID, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, ErrPlaylistVideoExists
		case isForeignKeyViolation(err):
			return nil, ErrVideoNotFound
		}
		r.log.WithContext(ctx).Errorf("add playlist video failed: playlist=%s video=%s err=%v", playlistID, videoID, err)
		return nil, fmt.Errorf("add playlist video: %w", err)
	}
	if err := r.touch(ctx, sess, playlistID); err != nil {
		return nil, err
	}
	return &link, nil
}

// RemoveVideo 从播放列表移除视频。不存在时返回 ErrPlaylistVideoNotFound。
func (r *PlaylistRepository) RemoveVideo(ctx context.Context, sess txmanager.Session, playlistID, videoID uuid.UUID) (*po.PlaylistVideo, error) {
	const query = `
DELETE FROM playlist_videos WHERE playlist_id = @playlist_id AND video_id = @video_id
RETURNING playlist_id, video_id, created_at, updated_at`

	var link po.PlaylistVideo
	err := conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"playlist_id": playlistID,
		"video_id":    videoID,
	}).Scan(&link.PlaylistID, &link.VideoID, &link.CreatedAt, &link.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaylistVideoNotFound
		}
		return nil, fmt.Errorf("remove playlist video: %w", err)
	}
	if err := r.touch(ctx, sess, playlistID); err != nil {
		return nil, err
	}
	return &link, nil
}

// HasVideo 判断视频是否已在播放列表中。
func (r *PlaylistRepository) HasVideo(ctx context.Context, sess txmanager.Session, playlistID, videoID uuid.UUID) (bool, error) {
	var exists bool
	err := conn(r.db, sess).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2)`,
		playlistID, videoID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check playlist video: %w", err)
	}
	return exists, nil
}

// touch 刷新播放列表 updated_at，使最近修改的列表排在前面。
func (r *PlaylistRepository) touch(ctx context.Context, sess txmanager.Session, playlistID uuid.UUID) error {
	if _, err := conn(r.db, sess).Exec(ctx, `UPDATE playlists SET updated_at = now() WHERE id = $1`, playlistID); err != nil {
		return fmt.Errorf("touch playlist: %w", err)
	}
	return nil
}

func buildPlaylistQuery(q PlaylistQuery) (string, pgx.NamedArgs) {
	args := pgx.NamedArgs{
		"user_id": q.UserID,
		"limit":   pagination.Window(q.Limit),
	}
	contains := `FALSE`
	if q.VideoID != nil {
		contains = `EXISTS (SELECT 1 FROM playlist_videos cv WHERE cv.playlist_id = p.id AND cv.video_id = @video_id)`
		args["video_id"] = *q.VideoID
	}
	cursor := pagination.Clause("feed.updated_at", "feed.id", q.Cursor, args)
	sql := fmt.Sprintf(`
WITH feed AS (
	SELECT %s, %s,
		%s AS video_count,
		%s AS thumbnail_url,
		%s AS contains_video
	FROM playlists p
	JOIN users u ON u.id = p.user_id
	WHERE p.user_id = @user_id
)
SELECT * FROM feed
WHERE %s
%s
LIMIT @limit`, playlistColumns, ownerColumns, playlistVideoCountExpr, playlistThumbnailExpr, contains,
		cursor, pagination.OrderBy("feed.updated_at", "feed.id"))
	return sql, args
}
