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

// ErrReactionNotFound 表示当前用户对目标没有互动记录。
var ErrReactionNotFound = errors.New("reaction not found")

// ReactionTarget 表示互动的目标类型，决定读写的表。
type ReactionTarget struct {
	table    string
	column   string
	notFound error
}

// 支持的互动目标。
var (
	VideoReactions   = ReactionTarget{table: "video_reactions", column: "video_id", notFound: ErrVideoNotFound}
	CommentReactions = ReactionTarget{table: "comment_reactions", column: "comment_id", notFound: ErrCommentNotFound}
)

// Name 返回目标表名，用于日志与指标标签。
func (t ReactionTarget) Name() string {
	return t.table
}

// ReactionRepository 维护 video_reactions 与 comment_reactions 两张结构相同的表。
// 每个 (user, target) 至多一行，由复合主键保证。
type ReactionRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewReactionRepository 构造 ReactionRepository。
func NewReactionRepository(db *pgxpool.Pool, logger log.Logger) *ReactionRepository {
	return &ReactionRepository{db: db, log: log.NewHelper(logger)}
}

// Get 返回用户对目标的当前互动。
func (r *ReactionRepository) Get(ctx context.Context, sess txmanager.Session, target ReactionTarget, userID, targetID uuid.UUID) (*po.Reaction, error) {
	query := fmt.Sprintf(`SELECT user_id, %[2]s, type, created_at, updated_at FROM %[1]s WHERE user_id = $1 AND %[2]s = $2`, target.table, target.column)
	var reaction po.Reaction
	err := conn(r.db, sess).QueryRow(ctx, query, userID, targetID).Scan(
		&reaction.UserID, &reaction.TargetID, &reaction.Type, &reaction.CreatedAt, &reaction.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReactionNotFound
		}
		return nil, fmt.Errorf("get %s: %w", target.table, err)
	}
	return &reaction, nil
}

// Upsert 写入互动，冲突时覆盖类型。目标不存在时返回目标的 NotFound 错误。
func (r *ReactionRepository) Upsert(ctx context.Context, sess txmanager.Session, target ReactionTarget, userID, targetID uuid.UUID, typ po.ReactionType) (*po.Reaction, error) {
	query := fmt.Sprintf(`
INSERT INTO %[1]s (user_id, %[2]s, type)
VALUES (@user_id, @target_id, @type)
ON CONFLICT (user_id, %[2]s) DO UPDATE SET type = EXCLUDED.type, updated_at = now()
RETURNING user_id, %[2]s, type, created_at, updated_at`, target.table, target.column)

	var reaction po.Reaction
	err := conn(r.db, sess).QueryRow(ctx, query, pgx.NamedArgs{
		"user_id":   userID,
		"target_id": targetID,
		"type":      string(typ),
	}).Scan(&reaction.UserID, &reaction.TargetID, &reaction.Type, &reaction.CreatedAt, &reaction.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, target.notFound
		}
		r.log.WithContext(ctx).Errorf("upsert %s failed: user_id=%s target_id=%s err=%v", target.table, userID, targetID, err)
		return nil, fmt.Errorf("upsert %s: %w", target.table, err)
	}
	return &reaction, nil
}

// Delete 删除互动。返回是否存在被删除的行。
func (r *ReactionRepository) Delete(ctx context.Context, sess txmanager.Session, target ReactionTarget, userID, targetID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %[1]s WHERE user_id = $1 AND %[2]s = $2`, target.table, target.column)
	tag, err := conn(r.db, sess).Exec(ctx, query, userID, targetID)
	if err != nil {
		r.log.WithContext(ctx).Errorf("delete %s failed: user_id=%s target_id=%s err=%v", target.table, userID, targetID, err)
		return false, fmt.Errorf("delete %s: %w", target.table, err)
	}
	return tag.RowsAffected() > 0, nil
}
