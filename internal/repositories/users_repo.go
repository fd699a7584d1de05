package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanidhyy/yt-clone/internal/models/po"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound 表示用户不存在。
var ErrUserNotFound = errors.New("user not found")

// UserRepository 维护 users 表。
type UserRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewUserRepository 构造 UserRepository。
func NewUserRepository(db *pgxpool.Pool, logger log.Logger) *UserRepository {
	return &UserRepository{db: db, log: log.NewHelper(logger)}
}

// UpsertUserInput 描述身份平台同步过来的用户资料。
type UpsertUserInput struct {
	ExternalID string
	Name       string
	ImageURL   string
}

// Upsert 按 external_id 插入或更新用户。
func (r *UserRepository) Upsert(ctx context.Context, sess txmanager.Session, input UpsertUserInput) (*po.User, error) {
	const query = `
INSERT INTO users AS u (external_id, name, image_url)
VALUES (@external_id, @name, @image_url)
ON CONFLICT (external_id) DO UPDATE
SET name = EXCLUDED.name, image_url = EXCLUDED.image_url, updated_at = now()
RETURNING ` + userColumns

	user, err := scanUser(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"external_id": input.ExternalID,
		"name":        input.Name,
		"image_url":   input.ImageURL,
	}))
	if err != nil {
		r.log.WithContext(ctx).Errorf("upsert user failed: external_id=%s err=%v", input.ExternalID, err)
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

// GetByExternalID 根据身份平台用户标识查询本地用户。
func (r *UserRepository) GetByExternalID(ctx context.Context, sess txmanager.Session, externalID string) (*po.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users u WHERE u.external_id = $1 LIMIT 1`
	user, err := scanUser(conn(r.db, sess).QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by external id: %w", err)
	}
	return user, nil
}

// Get 根据主键查询用户。
func (r *UserRepository) Get(ctx context.Context, sess txmanager.Session, id uuid.UUID) (*po.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	user, err := scanUser(conn(r.db, sess).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// DeleteByExternalID 删除用户，外键级联清理其全部数据。返回是否确实删除了行。
func (r *UserRepository) DeleteByExternalID(ctx context.Context, sess txmanager.Session, externalID string) (bool, error) {
	tag, err := conn(r.db, sess).Exec(ctx, `DELETE FROM users WHERE external_id = $1`, externalID)
	if err != nil {
		r.log.WithContext(ctx).Errorf("delete user failed: external_id=%s err=%v", externalID, err)
		return false, fmt.Errorf("delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateBanner 替换用户横幅图片，url/key 为空表示清除。
func (r *UserRepository) UpdateBanner(ctx context.Context, sess txmanager.Session, id uuid.UUID, url, key *string) (*po.User, error) {
	const query = `
UPDATE users u SET banner_url = @url, banner_key = @key, updated_at = now()
WHERE u.id = @id
RETURNING ` + userColumns

	user, err := scanUser(conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{"id": id, "url": url, "key": key}))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update banner: %w", err)
	}
	return user, nil
}

// GetProfile 查询用户主页：订阅数、视频数以及观看者是否已订阅。
func (r *UserRepository) GetProfile(ctx context.Context, sess txmanager.Session, id uuid.UUID, viewer *uuid.UUID) (*po.UserProfileView, error) {
	const query = `
WITH viewer_subscriptions AS (
	SELECT creator_id FROM subscriptions WHERE viewer_id = ANY(@viewer_ids::uuid[])
)
SELECT ` + userColumns + `,
	` + subscriberExpr + ` AS subscriber_count,
	` + userVideoExpr + ` AS video_count,
	(vs.creator_id IS NOT NULL) AS viewer_subscribed
FROM users u
LEFT JOIN viewer_subscriptions vs ON vs.creator_id = u.id
WHERE u.id = @id`

	var view po.UserProfileView
	dest := append(userDest(&view.User), &view.SubscriberCount, &view.VideoCount, &view.ViewerSubscribed)
	err := conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{"id": id, "viewer_ids": viewerIDs(viewer)}).Scan(dest...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		r.log.WithContext(ctx).Errorf("get user profile failed: user_id=%s err=%v", id, err)
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return &view, nil
}
