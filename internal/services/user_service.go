package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// UserService 提供用户主页查询。
type UserService struct {
	users UserStore
	log   *log.Helper
}

// NewUserService 构造 UserService。
func NewUserService(users UserStore, logger log.Logger) *UserService {
	return &UserService{users: users, log: log.NewHelper(logger)}
}

// GetOne 返回用户主页：订阅数、视频数与调用方是否已订阅。
func (s *UserService) GetOne(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*vo.UserProfile, error) {
	profile, err := s.users.GetProfile(ctx, nil, id, viewer)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return vo.NewUserProfile(profile), nil
}
