package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
)

// DefaultCategories 为初始化数据库时写入的分类名称。
var DefaultCategories = []string{
	"Cars and vehicles",
	"Comedy",
	"Education",
	"Gaming",
	"Entertainment",
	"Film and animation",
	"How-to and style",
	"Music",
	"News and politics",
	"People and blogs",
	"Pets and animals",
	"Science and technology",
	"Sports",
	"Travel and events",
}

// CategoryService 提供分类列表与初始数据写入。
type CategoryService struct {
	categories CategoryStore
	log        *log.Helper
}

// NewCategoryService 构造 CategoryService。
func NewCategoryService(categories CategoryStore, logger log.Logger) *CategoryService {
	return &CategoryService{categories: categories, log: log.NewHelper(logger)}
}

// GetMany 返回按名称排序的全部分类。
func (s *CategoryService) GetMany(ctx context.Context) ([]vo.Category, error) {
	items, err := s.categories.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]vo.Category, 0, len(items))
	for _, item := range items {
		out = append(out, vo.NewCategory(item))
	}
	return out, nil
}

// Seed 写入默认分类，已存在的跳过，返回新插入数量。
func (s *CategoryService) Seed(ctx context.Context) (int64, error) {
	items := make([]repositories.SeedCategory, 0, len(DefaultCategories))
	for _, name := range DefaultCategories {
		items = append(items, repositories.SeedCategory{
			Name:        name,
			Description: "Videos related to " + strings.ToLower(name),
		})
	}
	inserted, err := s.categories.InsertMany(ctx, nil, items)
	if err != nil {
		return inserted, fmt.Errorf("seed categories: %w", err)
	}
	s.log.WithContext(ctx).Infof("categories seeded: inserted=%d total=%d", inserted, len(items))
	return inserted, nil
}
