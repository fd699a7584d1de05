package vo_test

import (
	"testing"
	"time"

	"github.com/sanidhyy/yt-clone/internal/models/po"
	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/pagination"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVideoDetail(t *testing.T) {
	now := time.Now().UTC()
	key := "thumbnails/secret.png"
	url := "https://cdn.example.com/thumbnails/secret.png"
	like := po.ReactionLike

	detail := &po.VideoDetailView{
		VideoCardView: po.VideoCardView{
			Video: po.Video{
				ID:           uuid.New(),
				UserID:       uuid.New(),
				Title:        "测试视频",
				Visibility:   po.VisibilityPublic,
				Status:       po.VideoStatusReady,
				ThumbnailURL: &url,
				ThumbnailKey: &key,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
			Owner: po.User{ID: uuid.New(), Name: "creator", ExternalID: "user_abc"},
			Stats: po.VideoStats{ViewCount: 3, LikeCount: 2, DislikeCount: 1, CommentCount: 4},
		},
		ViewerReaction:       &like,
		OwnerSubscriberCount: 9,
		ViewerSubscribed:     true,
	}

	got := vo.NewVideoDetail(detail)
	require.NotNil(t, got)
	assert.Equal(t, "public", got.Visibility)
	assert.Equal(t, "ready", got.Status)
	assert.Equal(t, int64(3), got.ViewCount)
	assert.Equal(t, int64(9), got.OwnerSubscriberCount)
	require.NotNil(t, got.ViewerReaction)
	assert.Equal(t, "like", *got.ViewerReaction)
	assert.Equal(t, &url, got.ThumbnailURL)
	assert.Equal(t, "creator", got.User.Name)
}

func TestNewVideoDetail_Nil(t *testing.T) {
	assert.Nil(t, vo.NewVideoDetail(nil))
	assert.Nil(t, vo.NewVideo(nil))
}

func TestMapPageKeepsCursor(t *testing.T) {
	cursor := &pagination.Cursor[time.Time]{ID: uuid.New(), Key: time.Now()}
	page := pagination.Page[po.VideoCardView, time.Time]{
		Items:      []po.VideoCardView{{Video: po.Video{Title: "a"}}, {Video: po.Video{Title: "b"}}},
		NextCursor: cursor,
	}

	mapped := vo.MapPage(page, vo.NewVideoCard)
	require.Len(t, mapped.Items, 2)
	assert.Equal(t, "b", mapped.Items[1].Title)
	assert.Equal(t, cursor, mapped.NextCursor)
}

func TestNewCommentView(t *testing.T) {
	dislike := po.ReactionDislike
	view := po.CommentView{
		Comment:        po.Comment{ID: uuid.New(), Value: "hi"},
		Author:         po.User{Name: "bob"},
		LikeCount:      1,
		ReplyCount:     2,
		ViewerReaction: &dislike,
	}
	got := vo.NewCommentView(view)
	require.NotNil(t, got.User)
	assert.Equal(t, "bob", got.User.Name)
	assert.Equal(t, int64(2), got.ReplyCount)
	assert.Equal(t, "dislike", *got.ViewerReaction)
}
