package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// ReactionService 实现视频与评论的三态点赞/点踩切换。
type ReactionService struct {
	reactions ReactionStore
	txManager txmanager.Manager
	log       *log.Helper
}

// NewReactionService 构造 ReactionService。
func NewReactionService(reactions ReactionStore, tx txmanager.Manager, logger log.Logger) *ReactionService {
	return &ReactionService{
		reactions: reactions,
		txManager: tx,
		log:       log.NewHelper(logger),
	}
}

// LikeVideo 切换视频点赞。
func (s *ReactionService) LikeVideo(ctx context.Context, userID, videoID uuid.UUID) (vo.ReactionState, error) {
	return s.toggle(ctx, repositories.VideoReactions, userID, videoID, po.ReactionLike)
}

// DislikeVideo 切换视频点踩。
func (s *ReactionService) DislikeVideo(ctx context.Context, userID, videoID uuid.UUID) (vo.ReactionState, error) {
	return s.toggle(ctx, repositories.VideoReactions, userID, videoID, po.ReactionDislike)
}

// LikeComment 切换评论点赞。
func (s *ReactionService) LikeComment(ctx context.Context, userID, commentID uuid.UUID) (vo.ReactionState, error) {
	return s.toggle(ctx, repositories.CommentReactions, userID, commentID, po.ReactionLike)
}

// DislikeComment 切换评论点踩。
func (s *ReactionService) DislikeComment(ctx context.Context, userID, commentID uuid.UUID) (vo.ReactionState, error) {
	return s.toggle(ctx, repositories.CommentReactions, userID, commentID, po.ReactionDislike)
}

// toggle 已是同类型互动时删除，否则写入（冲突时覆盖类型）。
func (s *ReactionService) toggle(ctx context.Context, target repositories.ReactionTarget, userID, targetID uuid.UUID, typ po.ReactionType) (vo.ReactionState, error) {
	var state vo.ReactionState
	err := s.txManager.WithinTx(ctx, txmanager.TxOptions{}, func(txCtx context.Context, sess txmanager.Session) error {
		existing, err := s.reactions.Get(txCtx, sess, target, userID, targetID)
		if err != nil && !errors.Is(err, repositories.ErrReactionNotFound) {
			return fmt.Errorf("load reaction: %w", err)
		}
		if existing != nil && existing.Type == typ {
			if _, err := s.reactions.Delete(txCtx, sess, target, userID, targetID); err != nil {
				return err
			}
			state = vo.NewReactionState(targetID, nil)
			return nil
		}
		if _, err := s.reactions.Upsert(txCtx, sess, target, userID, targetID, typ); err != nil {
			return err
		}
		state = vo.NewReactionState(targetID, &typ)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrVideoNotFound):
			return vo.ReactionState{}, ErrVideoNotFound
		case errors.Is(err, repositories.ErrCommentNotFound):
			return vo.ReactionState{}, ErrCommentNotFound
		}
		return vo.ReactionState{}, fmt.Errorf("toggle %s: %w", target.Name(), err)
	}
	s.log.WithContext(ctx).Debugf("reaction toggled: target=%s id=%s user=%s", target.Name(), targetID, userID)
	return state, nil
}
