// Package pagination 实现 keyset 分页：按 (sortKey DESC, id DESC) 排序，
// 以最后一行的 (sortKey, id) 作为下一页游标，避免 offset 漂移。
package pagination

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// 分页条数约束。
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Key 约束游标排序键的类型：时间戳或派生计数。
type Key interface {
	time.Time | int64
}

// Cursor 表示 keyset 游标。Key 为排序列取值，ID 用于同值打破平局。
type Cursor[K Key] struct {
	ID  uuid.UUID `json:"id" validate:"required"`
	Key K         `json:"key"`
}

// Page 表示一页结果。NextCursor 为空表示没有更多数据。
type Page[T any, K Key] struct {
	Items      []T        `json:"items"`
	NextCursor *Cursor[K] `json:"nextCursor"`
}

// HasMore 判断是否存在下一页。
func (p Page[T, K]) HasMore() bool {
	return p.NextCursor != nil
}

// ClampLimit 将请求条数约束到 [1, MaxLimit]：超出上限取 MaxLimit，未指定或非正值取 DefaultLimit。
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Window 返回实际查询条数（limit+1），多取一行用于判断 hasMore。
func Window(limit int) int {
	return ClampLimit(limit) + 1
}

// Slice 对 limit+1 行结果进行裁剪并推导下一页游标。
func Slice[T any, K Key](rows []T, limit int, keyOf func(T) Cursor[K]) Page[T, K] {
	limit = ClampLimit(limit)
	if len(rows) <= limit {
		if rows == nil {
			rows = []T{}
		}
		return Page[T, K]{Items: rows}
	}
	items := rows[:limit]
	next := keyOf(items[len(items)-1])
	return Page[T, K]{Items: items, NextCursor: &next}
}

// Clause 生成游标过滤条件，并把游标参数写入 args。
// 游标为空时返回 "TRUE"，调用方可直接拼接到 WHERE 子句。
func Clause[K Key](sortExpr, idExpr string, cursor *Cursor[K], args pgx.NamedArgs) string {
	if cursor == nil {
		return "TRUE"
	}
	args["cursor_key"] = cursor.Key
	args["cursor_id"] = cursor.ID
	return fmt.Sprintf("(%[1]s < @cursor_key OR (%[1]s = @cursor_key AND %[2]s < @cursor_id))", sortExpr, idExpr)
}

// OrderBy 生成与游标方向一致的排序子句。
func OrderBy(sortExpr, idExpr string) string {
	return fmt.Sprintf("ORDER BY %s DESC, %s DESC", sortExpr, idExpr)
}
