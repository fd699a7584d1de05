package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sanidhyy/yt-clone/internal/repositories"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// 身份平台回调事件类型。
const (
	IdentityEventUserCreated = "user.created"
	IdentityEventUserUpdated = "user.updated"
	IdentityEventUserDeleted = "user.deleted"
)

// IdentityEvent 为身份平台回调的信封。
type IdentityEvent struct {
	Type string            `json:"type"`
	Data IdentityEventUser `json:"data"`
}

// IdentityEventUser 为回调中的用户数据。
type IdentityEventUser struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Username       string         `json:"username"`
	ImageURL       string         `json:"image_url"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
}

// EmailAddress 为用户邮箱条目。
type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// DisplayName 依次取姓名、用户名、首个邮箱的本地部分，都没有时返回 "User"。
func (u IdentityEventUser) DisplayName() string {
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	if len(u.EmailAddresses) > 0 {
		local, _, _ := strings.Cut(u.EmailAddresses[0].EmailAddress, "@")
		if local = strings.TrimSpace(local); local != "" {
			return local
		}
	}
	return "User"
}

// IdentityEventService 同步身份平台的用户到本地。
type IdentityEventService struct {
	users UserStore
	log   *log.Helper
}

// NewIdentityEventService 构造 IdentityEventService。
func NewIdentityEventService(users UserStore, logger log.Logger) *IdentityEventService {
	return &IdentityEventService{users: users, log: log.NewHelper(logger)}
}

var errMissingUserID = kerrors.NotFound(ReasonNotFound, "Missing user id!")

// Handle 处理一次回调：创建/更新时按外部 ID upsert，删除时级联删除本地用户。
func (s *IdentityEventService) Handle(ctx context.Context, evt IdentityEvent) error {
	switch evt.Type {
	case IdentityEventUserCreated, IdentityEventUserUpdated:
		if evt.Data.ID == "" {
			return errMissingUserID
		}
		user, err := s.users.Upsert(ctx, nil, repositories.UpsertUserInput{
			ExternalID: evt.Data.ID,
			Name:       evt.Data.DisplayName(),
			ImageURL:   evt.Data.ImageURL,
		})
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		s.log.WithContext(ctx).Infof("user synced: id=%s external=%s", user.ID, user.ExternalID)
	case IdentityEventUserDeleted:
		if evt.Data.ID == "" {
			return errMissingUserID
		}
		deleted, err := s.users.DeleteByExternalID(ctx, nil, evt.Data.ID)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		s.log.WithContext(ctx).Infof("user deleted: external=%s existed=%t", evt.Data.ID, deleted)
	default:
		s.log.WithContext(ctx).Warnf("unhandled identity event: type=%s", evt.Type)
	}
	return nil
}
