package controllers

import (
	"context"
	"time"

	"github.com/sanidhyy/yt-clone/internal/controllers/dto"
	"github.com/sanidhyy/yt-clone/internal/models/vo"
	"github.com/sanidhyy/yt-clone/internal/pagination"
	"github.com/sanidhyy/yt-clone/internal/services"
)

// Services 汇总 RPC 过程依赖的服务，由 Wire 按字段注入。
type Services struct {
	Viewer        *services.ViewerService
	VideoQuery    *services.VideoQueryService
	Videos        *services.VideoService
	Comments      *services.CommentService
	Reactions     *services.ReactionService
	Subscriptions *services.SubscriptionService
	Playlists     *services.PlaylistService
	Studio        *services.StudioService
	Users         *services.UserService
	Categories    *services.CategoryService
	Views         *services.ViewService
	Workflows     *services.WorkflowService
	AISettings    *services.AISettingsService
	Uploads       *services.UploadService
}

// registerProcedures 登记全部路由下的过程。
func registerProcedures(r *registry, svc *Services, base *BaseHandler) {
	registerVideos(r, svc)
	registerStudio(r, svc, base)
	registerComments(r, svc)
	registerPlaylists(r, svc)

	query(r, "categories.getMany", func(ctx context.Context, _ Call, _ dto.Empty) ([]vo.Category, error) {
		return svc.Categories.GetMany(ctx)
	})
	query(r, "users.getOne", func(ctx context.Context, c Call, in dto.ByID) (*vo.UserProfile, error) {
		return svc.Users.GetOne(ctx, in.ID, c.ViewerID())
	})
	query(r, "search.getMany", func(ctx context.Context, c Call, in dto.Search) (services.VideoPage, error) {
		return svc.VideoQuery.Search(ctx, services.SearchInput{
			Query:      in.Query,
			CategoryID: in.CategoryID,
			Viewer:     c.ViewerID(),
			Cursor:     in.Cursor,
			Limit:      in.Limit,
		})
	})
	query(r, "suggestions.getMany", func(ctx context.Context, c Call, in dto.VideoPage) (services.VideoPage, error) {
		return svc.VideoQuery.Suggestions(ctx, in.VideoID, c.ViewerID(), in.Cursor, in.Limit)
	})

	mutation(r, "subscriptions.create", func(ctx context.Context, c Call, in dto.ByUser) (*vo.Subscription, error) {
		return svc.Subscriptions.Create(ctx, c.Viewer.ID, in.UserID)
	})
	mutation(r, "subscriptions.remove", func(ctx context.Context, c Call, in dto.ByUser) (*vo.Subscription, error) {
		return svc.Subscriptions.Remove(ctx, c.Viewer.ID, in.UserID)
	})
	protectedQuery(r, "subscriptions.getMany", func(ctx context.Context, c Call, in dto.Page) (pagination.Page[vo.SubscribedCreator, time.Time], error) {
		return svc.Subscriptions.GetMany(ctx, c.Viewer.ID, in.Cursor, in.Limit)
	})

	mutation(r, "videoReactions.like", func(ctx context.Context, c Call, in dto.ByVideo) (vo.ReactionState, error) {
		return svc.Reactions.LikeVideo(ctx, c.Viewer.ID, in.VideoID)
	})
	mutation(r, "videoReactions.dislike", func(ctx context.Context, c Call, in dto.ByVideo) (vo.ReactionState, error) {
		return svc.Reactions.DislikeVideo(ctx, c.Viewer.ID, in.VideoID)
	})
	mutation(r, "commentReactions.like", func(ctx context.Context, c Call, in dto.ByComment) (vo.ReactionState, error) {
		return svc.Reactions.LikeComment(ctx, c.Viewer.ID, in.CommentID)
	})
	mutation(r, "commentReactions.dislike", func(ctx context.Context, c Call, in dto.ByComment) (vo.ReactionState, error) {
		return svc.Reactions.DislikeComment(ctx, c.Viewer.ID, in.CommentID)
	})
	mutation(r, "videoViews.create", func(ctx context.Context, c Call, in dto.ByVideo) (*services.VideoViewResult, error) {
		return svc.Views.Create(ctx, c.Viewer.ID, in.VideoID)
	})
}

func registerVideos(r *registry, svc *Services) {
	query(r, "videos.getOne", func(ctx context.Context, c Call, in dto.ByID) (*vo.VideoDetail, error) {
		return svc.VideoQuery.GetOne(ctx, in.ID, c.ViewerID())
	})
	query(r, "videos.getMany", func(ctx context.Context, c Call, in dto.VideoFeed) (services.VideoPage, error) {
		return svc.VideoQuery.GetMany(ctx, services.FeedInput{
			CategoryID: in.CategoryID,
			UserID:     in.UserID,
			Viewer:     c.ViewerID(),
			Cursor:     in.Cursor,
			Limit:      in.Limit,
		})
	})
	query(r, "videos.getManyTrending", func(ctx context.Context, _ Call, in dto.CountPage) (services.TrendingPage, error) {
		return svc.VideoQuery.GetManyTrending(ctx, in.Cursor, in.Limit)
	})
	protectedQuery(r, "videos.getManySubscribed", func(ctx context.Context, c Call, in dto.Page) (services.VideoPage, error) {
		return svc.VideoQuery.GetManySubscribed(ctx, c.Viewer.ID, in.Cursor, in.Limit)
	})

	mutation(r, "videos.create", func(ctx context.Context, c Call, _ dto.Empty) (*vo.VideoUpload, error) {
		return svc.Videos.Create(ctx, c.Viewer.ID)
	})
	mutation(r, "videos.update", func(ctx context.Context, c Call, in dto.VideoUpdate) (*vo.Video, error) {
		return svc.Videos.Update(ctx, services.UpdateVideoInput{
			ID:          in.ID,
			UserID:      c.Viewer.ID,
			Title:       in.Title,
			Description: in.Description,
			CategoryID:  in.CategoryID,
			Visibility:  in.Visibility,
		})
	})
	mutation(r, "videos.remove", func(ctx context.Context, c Call, in dto.ByID) (*vo.Video, error) {
		return svc.Videos.Remove(ctx, in.ID, c.Viewer.ID)
	})
	mutation(r, "videos.revalidate", func(ctx context.Context, c Call, in dto.ByID) (*vo.Video, error) {
		return svc.Videos.Revalidate(ctx, in.ID, c.Viewer.ID)
	})
	mutation(r, "videos.restoreThumbnail", func(ctx context.Context, c Call, in dto.ByID) (*vo.Video, error) {
		return svc.Videos.RestoreThumbnail(ctx, in.ID, c.Viewer.ID)
	})
	mutation(r, "videos.generateTitle", func(ctx context.Context, c Call, in dto.ByID) (*vo.WorkflowRun, error) {
		return svc.Workflows.GenerateTitle(ctx, c.Viewer.ID, in.ID, c.Meta.EncryptedAPIKey)
	})
	mutation(r, "videos.generateDescription", func(ctx context.Context, c Call, in dto.ByID) (*vo.WorkflowRun, error) {
		return svc.Workflows.GenerateDescription(ctx, c.Viewer.ID, in.ID, c.Meta.EncryptedAPIKey)
	})
	mutation(r, "videos.generateThumbnail", func(ctx context.Context, c Call, in dto.ThumbnailPrompt) (*vo.WorkflowRun, error) {
		return svc.Workflows.GenerateThumbnail(ctx, c.Viewer.ID, in.ID, in.Prompt, c.Meta.EncryptedAPIKey)
	})
}

func registerStudio(r *registry, svc *Services, base *BaseHandler) {
	protectedQuery(r, "studio.getMany", func(ctx context.Context, c Call, in dto.Page) (services.VideoPage, error) {
		return svc.Studio.GetMany(ctx, c.Viewer.ID, in.Cursor, in.Limit)
	})
	protectedQuery(r, "studio.getOne", func(ctx context.Context, c Call, in dto.ByID) (*vo.Video, error) {
		return svc.Studio.GetOne(ctx, in.ID, c.Viewer.ID)
	})
	protectedQuery(r, "studio.getAISettings", func(_ context.Context, c Call, _ dto.Empty) (dto.AISettingsState, error) {
		return dto.AISettingsState{HasKey: svc.AISettings.HasKey(c.Meta.EncryptedAPIKey)}, nil
	})
	mutation(r, "studio.saveAISettings", func(ctx context.Context, c Call, in dto.AISettings) (dto.AISettingsState, error) {
		sealed, err := svc.AISettings.Save(ctx, in.APIKey)
		if err != nil {
			return dto.AISettingsState{}, err
		}
		c.SetCookie(base.apiKeyCookie(sealed))
		return dto.AISettingsState{HasKey: true}, nil
	})
	mutation(r, "studio.removeAISettings", func(_ context.Context, c Call, _ dto.Empty) (dto.AISettingsState, error) {
		c.SetCookie(base.apiKeyCookie(""))
		return dto.AISettingsState{HasKey: false}, nil
	})
}

func registerComments(r *registry, svc *Services) {
	query(r, "comments.getMany", func(ctx context.Context, c Call, in dto.CommentList) (*vo.CommentPage, error) {
		return svc.Comments.GetMany(ctx, services.ListCommentsInput{
			VideoID:  in.VideoID,
			ParentID: in.ParentID,
			Viewer:   c.ViewerID(),
			Cursor:   in.Cursor,
			Limit:    in.Limit,
		})
	})
	mutation(r, "comments.create", func(ctx context.Context, c Call, in dto.CommentCreate) (*vo.Comment, error) {
		return svc.Comments.Create(ctx, services.CreateCommentInput{
			UserID:   c.Viewer.ID,
			VideoID:  in.VideoID,
			ParentID: in.ParentID,
			Value:    in.Value,
		})
	})
	mutation(r, "comments.remove", func(ctx context.Context, c Call, in dto.ByID) (*vo.Comment, error) {
		return svc.Comments.Remove(ctx, in.ID, c.Viewer.ID)
	})
}

func registerPlaylists(r *registry, svc *Services) {
	query(r, "playlists.getOne", func(ctx context.Context, _ Call, in dto.ByID) (*vo.Playlist, error) {
		return svc.Playlists.GetOne(ctx, in.ID)
	})
	query(r, "playlists.getVideos", func(ctx context.Context, c Call, in dto.PlaylistVideos) (services.VideoPage, error) {
		return svc.Playlists.GetVideos(ctx, in.PlaylistID, c.ViewerID(), in.Cursor, in.Limit)
	})
	protectedQuery(r, "playlists.getMany", func(ctx context.Context, c Call, in dto.Page) (services.PlaylistPage, error) {
		return svc.Playlists.GetMany(ctx, c.Viewer.ID, in.Cursor, in.Limit)
	})
	protectedQuery(r, "playlists.getManyForVideo", func(ctx context.Context, c Call, in dto.VideoPage) (services.PlaylistPage, error) {
		return svc.Playlists.GetManyForVideo(ctx, c.Viewer.ID, in.VideoID, in.Cursor, in.Limit)
	})
	protectedQuery(r, "playlists.getHistory", func(ctx context.Context, c Call, in dto.Page) (pagination.Page[vo.WatchedVideo, time.Time], error) {
		return svc.Playlists.GetHistory(ctx, c.Viewer.ID, in.Cursor, in.Limit)
	})
	protectedQuery(r, "playlists.getLiked", func(ctx context.Context, c Call, in dto.Page) (pagination.Page[vo.LikedVideo, time.Time], error) {
		return svc.Playlists.GetLiked(ctx, c.Viewer.ID, in.Cursor, in.Limit)
	})
	mutation(r, "playlists.create", func(ctx context.Context, c Call, in dto.PlaylistCreate) (*vo.Playlist, error) {
		return svc.Playlists.Create(ctx, services.CreatePlaylistInput{
			UserID:      c.Viewer.ID,
			Name:        in.Name,
			Description: in.Description,
		})
	})
	mutation(r, "playlists.remove", func(ctx context.Context, c Call, in dto.ByID) (*vo.Playlist, error) {
		return svc.Playlists.Remove(ctx, in.ID, c.Viewer.ID)
	})
	mutation(r, "playlists.addVideo", func(ctx context.Context, c Call, in dto.PlaylistVideo) (*vo.PlaylistVideo, error) {
		return svc.Playlists.AddVideo(ctx, c.Viewer.ID, in.PlaylistID, in.VideoID)
	})
	mutation(r, "playlists.removeVideo", func(ctx context.Context, c Call, in dto.PlaylistVideo) (*vo.PlaylistVideo, error) {
		return svc.Playlists.RemoveVideo(ctx, c.Viewer.ID, in.PlaylistID, in.VideoID)
	})
}
