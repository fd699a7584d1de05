package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/pagination"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCommentNotFound 表示评论不存在，或不属于当前用户。
var ErrCommentNotFound = errors.New("comment not found")

const commentColumns = `c.id, c.user_id, c.video_id, c.parent_id, c.value, c.created_at, c.updated_at`

// CommentRepository 维护 comments 表。
type CommentRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewCommentRepository 构造 CommentRepository。
func NewCommentRepository(db *pgxpool.Pool, logger log.Logger) *CommentRepository {
	return &CommentRepository{db: db, log: log.NewHelper(logger)}
}

// CreateCommentInput 描述评论写入参数。
type CreateCommentInput struct {
	UserID   uuid.UUID
	VideoID  uuid.UUID
	ParentID *uuid.UUID
	Value    string
}

// CommentQuery 描述评论列表查询。ParentID 为空时返回一级评论，否则返回该评论的回复。
type CommentQuery struct {
	VideoID  uuid.UUID
	ParentID *uuid.UUID
	Viewer   *uuid.UUID
	Cursor   *pagination.Cursor[time.Time]
	Limit    int
}

// CommentPage 表示评论分页结果。
type CommentPage = pagination.Page[po.CommentView, time.Time]

func commentDest(c *po.Comment) []any {
	return []any{&c.ID, &c.UserID, &c.VideoID, &c.ParentID, &c.Value, &c.CreatedAt, &c.UpdatedAt}
}

func scanComment(row rowScanner) (*po.Comment, error) {
	var c po.Comment
	if err := row.Scan(commentDest(&c)...); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create 写入评论。视频或父评论不存在时返回对应的 NotFound 错误。
func (r *CommentRepository) Create(ctx context.Context, sess txmanager.Session, input CreateCommentInput) (*po.Comment, error) {
	const query = `
INSERT INTO comments AS c (user_id, video_id, parent_id, value)
VALUES (@user_id, @video_id, @parent_id, @value)
RETURNING ` + commentColumns

	comment, err := scanComment(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"user_id":   input.UserID,
		"video_id":  input.VideoID,
		"parent_id": input.ParentID,
		"value":     input.Value,
	}))
	if err != nil {
		if isForeignKeyViolation(err) {
			if input.ParentID != nil {
				return nil, ErrCommentNotFound
			}
			return nil, ErrVideoNotFound
		}
		r.log.WithContext(ctx).Errorf("create comment failed: video_id=%s err=%v", input.VideoID, err)
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Get 根据主键查询评论。
func (r *CommentRepository) Get(ctx context.Context, sess txmanager.Session, id uuid.UUID) (*po.Comment, error) {
	const query = `SELECT ` + commentColumns + ` FROM comments c WHERE c.id = $1`
	comment, err := scanComment(conn(r.db, sess).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return comment, nil
}

// Delete 删除当前用户自己的评论，回复与互动随外键级联删除。
func (r *CommentRepository) Delete(ctx context.Context, sess txmanager.Session, id, userID uuid.UUID) (*po.Comment, error) {
	const query = `DELETE FROM comments c WHERE c.id = @id AND c.user_id = @user_id RETURNING ` + commentColumns
	comment, err := scanComment(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{"id": id, "user_id": userID}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		r.log.WithContext(ctx).Errorf("delete comment failed: id=%s err=%v", id, err)
		return nil, fmt.Errorf("delete comment: %w", err)
	}
	return comment, nil
}

// CountByVideo 返回视频下的评论总数（含回复）。
func (r *CommentRepository) CountByVideo(ctx context.Context, sess txmanager.Session, videoID uuid.UUID) (int64, error) {
	var total int64
	if err := conn(r.db, sess).QueryRow(ctx, `SELECT count(*) FROM comments WHERE video_id = $1`, videoID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return total, nil
}

// List 分页返回评论，附带作者、点赞/点踩数、回复数与观看者的互动类型。
func (r *CommentRepository) List(ctx context.Context, sess txmanager.Session, q CommentQuery) (CommentPage, error) {
	sql, args := buildCommentQuery(q)
	rows, err := conn(r.db, sess).Query(ctx, sql, args)
	if err != nil {
		r.log.WithContext(ctx).Errorf("list comments failed: video_id=%s err=%v", q.VideoID, err)
		return CommentPage{}, fmt.Errorf("list comments: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (po.CommentView, error) {
		var item po.CommentView
		dest := append(commentDest(&item.Comment), userDest(&item.Author)...)
		dest = append(dest, &item.LikeCount, &item.DislikeCount, &item.ReplyCount, &item.ViewerReaction)
		return item, row.Scan(dest...)
	})
	if err != nil {
		return CommentPage{}, fmt.Errorf("scan comments: %w", err)
	}
	return pagination.Slice(items, q.Limit, func(c po.CommentView) pagination.Cursor[time.Time] {
		return pagination.Cursor[time.Time]{ID: c.ID, Key: c.UpdatedAt}
	}), nil
}

func buildCommentQuery(q CommentQuery) (string, pgx.NamedArgs) {
	args := pgx.NamedArgs{
		"video_id":   q.VideoID,
		"viewer_ids": viewerIDs(q.Viewer),
		"limit":      pagination.Window(q.Limit),
	}
	filters := []string{`c.video_id = @video_id`}
	if q.ParentID != nil {
		filters = append(filters, `c.parent_id = @parent_id`)
		args["parent_id"] = *q.ParentID
	} else {
		filters = append(filters, `c.parent_id IS NULL`)
	}
	cursor := pagination.Clause("feed.updated_at", "feed.id", q.Cursor, args)
	sql := fmt.Sprintf(`
WITH viewer_reactions AS (
	SELECT comment_id, type FROM comment_reactions WHERE user_id = ANY(@viewer_ids::uuid[])
),
feed AS (
	SELECT %s, %s,
		(SELECT count(*) FROM comment_reactions cr WHERE cr.comment_id = c.id AND cr.type = 'like') AS like_count,
		(SELECT count(*) FROM comment_reactions cr WHERE cr.comment_id = c.id AND cr.type = 'dislike') AS dislike_count,
		(SELECT count(*) FROM comments rc WHERE rc.parent_id = c.id) AS reply_count,
		vrx.type AS viewer_reaction
	FROM comments c
	JOIN users u ON u.id = c.user_id
	LEFT JOIN viewer_reactions vrx ON vrx.comment_id = c.id
	WHERE %s
)
SELECT * FROM feed
WHERE %s
%s
LIMIT @limit`, commentColumns, ownerColumns, strings.Join(filters, " AND "), cursor, pagination.OrderBy("feed.updated_at", "feed.id"))
	return sql, args
}
