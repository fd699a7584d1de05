package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/ratelimit"
	"github.com/sanidhyy/yt-clone/internal/metadata"
	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// ViewerService 将请求携带的身份映射为本地用户，并执行按用户限流。
type ViewerService struct {
	users   UserStore
	limiter ratelimit.Limiter
	log     *log.Helper
}

// NewViewerService 构造 ViewerService。limiter 为空时不限流。
func NewViewerService(users UserStore, limiter ratelimit.Limiter, logger log.Logger) *ViewerService {
	return &ViewerService{
		users:   users,
		limiter: limiter,
		log:     log.NewHelper(logger),
	}
}

// Resolve 返回当前调用方对应的本地用户。匿名或本地不存在时返回 nil 且不报错。
func (s *ViewerService) Resolve(ctx context.Context) (*po.User, error) {
	meta, ok := metadata.FromContext(ctx)
	if !ok || !meta.Authenticated() {
		return nil, nil
	}
	user, err := s.users.GetByExternalID(ctx, nil, meta.ExternalUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve viewer: %w", err)
	}
	return user, nil
}

// ViewerID 返回可选的调用方 ID，用于查询中的个人化字段。
func (s *ViewerService) ViewerID(ctx context.Context) (*uuid.UUID, error) {
	user, err := s.Resolve(ctx)
	if err != nil || user == nil {
		return nil, err
	}
	id := user.ID
	return &id, nil
}

// Require 要求调用方已登录且在本地存在，并消耗一次限流配额。
func (s *ViewerService) Require(ctx context.Context) (*po.User, error) {
	user, err := s.Resolve(ctx)
	if err != nil {
		return nil, internalError("Failed to resolve user!", err)
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	if s.limiter == nil {
		return user, nil
	}
	allowed, err := s.limiter.Allow(ctx, "user:"+user.ID.String())
	if err != nil {
		// 限流后端不可用时放行
		s.log.WithContext(ctx).Warnf("rate limiter unavailable: user=%s err=%v", user.ID, err)
		return user, nil
	}
	if !allowed {
		return nil, ErrTooManyRequests
	}
	return user, nil
}
