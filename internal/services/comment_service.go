package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/pagination"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// CommentService 处理评论的创建、列表与删除。回复只允许一层。
type CommentService struct {
	comments  CommentStore
	txManager txmanager.Manager
	log       *log.Helper
}

// NewCommentService 构造 CommentService。
func NewCommentService(comments CommentStore, tx txmanager.Manager, logger log.Logger) *CommentService {
	return &CommentService{
		comments:  comments,
		txManager: tx,
		log:       log.NewHelper(logger),
	}
}

// CreateCommentInput 描述新评论。
type CreateCommentInput struct {
	UserID   uuid.UUID
	VideoID  uuid.UUID
	ParentID *uuid.UUID
	Value    string
}

// Create 发表评论或回复。父评论必须属于同一视频且自身不是回复。
func (s *CommentService) Create(ctx context.Context, input CreateCommentInput) (*vo.Comment, error) {
	value := strings.TrimSpace(input.Value)
	if value == "" {
		return nil, badRequest("Comment cannot be empty!")
	}

	var result *vo.Comment
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		if input.ParentID != nil {
			parent, err := s.comments.Get(txCtx, sess, *input.ParentID)
			if err != nil {
				if errors.Is(err, repositories.ErrCommentNotFound) {
					return ErrCommentNotFound
				}
				return fmt.Errorf("load parent comment: %w", err)
			}
			if parent.VideoID != input.VideoID {
				return badRequest("Parent comment belongs to another video!")
			}
			if parent.ParentID != nil {
				return badRequest("Cannot reply to a reply!")
			}
		}

		comment, err := s.comments.Create(txCtx, sess, repositories.CreateCommentInput{
			UserID:   input.UserID,
			VideoID:  input.VideoID,
			ParentID: input.ParentID,
			Value:    value,
		})
		if err != nil {
			switch {
			case errors.Is(err, repositories.ErrVideoNotFound):
				return ErrVideoNotFound
			case errors.Is(err, repositories.ErrCommentNotFound):
				return ErrCommentNotFound
			}
			return err
		}
		result = vo.NewComment(comment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListCommentsInput 描述评论列表参数。ParentID 为空时返回顶层评论。
type ListCommentsInput struct {
	VideoID  uuid.UUID
	ParentID *uuid.UUID
	Viewer   *uuid.UUID
	Cursor   *pagination.Cursor[time.Time]
	Limit    int
}

// GetMany 分页返回评论，并附带视频下的评论总数。
func (s *CommentService) GetMany(ctx context.Context, input ListCommentsInput) (*vo.CommentPage, error) {
	var out vo.CommentPage
	err := s.txManager.WithinReadOnlyTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		total, err := s.comments.CountByVideo(txCtx, sess, input.VideoID)
		if err != nil {
			return err
		}
		page, err := s.comments.List(txCtx, sess, repositories.CommentQuery{
			VideoID:  input.VideoID,
			ParentID: input.ParentID,
			Viewer:   input.Viewer,
			Cursor:   input.Cursor,
			Limit:    input.Limit,
		})
		if err != nil {
			return err
		}
		out.Page = vo.MapPage(page, vo.NewCommentView)
		out.TotalCount = total
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return &out, nil
}

// Remove 删除调用方自己的评论。
func (s *CommentService) Remove(ctx context.Context, id, userID uuid.UUID) (*vo.Comment, error) {
	comment, err := s.comments.Delete(ctx, nil, id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("remove comment: %w", err)
	}
	return vo.NewComment(comment), nil
}
