// Package repositories 实现数据访问层，使用 pgx 直接执行手写 SQL。
// 列表查询由纯函数拼装 (SQL, NamedArgs)，过滤片段显式组合。
package repositories

import (
	"context"
	"errors"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier 抽象连接池与事务的公共查询能力。
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn 优先使用事务会话，否则回落到连接池。
func conn(db *pgxpool.Pool, sess txmanager.Session) querier {
	if sess != nil {
		return sess.Tx()
	}
	return db
}

// viewerIDs 构造观看者过滤集合。未登录时返回空集合，使相关子查询恒为空，
// 而不是省略过滤条件。
func viewerIDs(viewer *uuid.UUID) []uuid.UUID {
	if viewer == nil || *viewer == uuid.Nil {
		return []uuid.UUID{}
	}
	return []uuid.UUID{*viewer}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isUniqueViolation(err error) bool {
	return hasPgCode(err, pgUniqueViolation)
}

func isForeignKeyViolation(err error) bool {
	return hasPgCode(err, pgForeignKeyViolation)
}
