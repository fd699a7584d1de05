package repositories

import (
	"context"
	"fmt"

	"github.com/sanidhyy/yt-clone/internal/models/po"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository 访问 categories 表。
type CategoryRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewCategoryRepository 构造 CategoryRepository。
func NewCategoryRepository(db *pgxpool.Pool, logger log.Logger) *CategoryRepository {
	return &CategoryRepository{db: db, log: log.NewHelper(logger)}
}

// SeedCategory 描述一条待写入的分类。
type SeedCategory struct {
	Name        string
	Description string
}

// List 按名称升序返回全部分类。
func (r *CategoryRepository) List(ctx context.Context, sess txmanager.Session) ([]po.Category, error) {
	rows, err := conn(r.db, sess).Query(ctx, `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (po.Category, error) {
		var c po.Category
		err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
		return c, err
	})
}

// InsertMany 批量写入分类，已存在的名称跳过。返回实际插入数量。
func (r *CategoryRepository) InsertMany(ctx context.Context, sess txmanager.Session, items []SeedCategory) (int64, error) {
	var inserted int64
	q := conn(r.db, sess)
	for _, item := range items {
		tag, err := q.Exec(ctx, `INSERT INTO categories (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`, item.Name, item.Description)
		if err != nil {
			r.log.WithContext(ctx).Errorf("insert category failed: name=%s err=%v", item.Name, err)
			return inserted, fmt.Errorf("insert category %q: %w", item.Name, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
