// Package services 包含应用业务用例的编排逻辑。
// 该层负责协调 Repository 与外部平台客户端，实现核心业务规则，不直接依赖传输层。
package services

import (
	"github.com/sanidhyy/yt-clone/internal/repositories"

	"github.com/google/wire"
)

// ProviderSet 暴露 Services 层的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	NewViewerService,
	NewVideoQueryService,
	NewVideoService,
	NewCommentService,
	NewReactionService,
	NewSubscriptionService,
	NewPlaylistService,
	NewStudioService,
	NewUserService,
	NewCategoryService,
	NewViewService,
	NewVideoEventService,
	NewIdentityEventService,
	NewUploadService,
	NewWorkflowService,
	NewWorkflowStepService,
	NewAISettingsService,
)

// StoreBindings 把仓储实现绑定到本层声明的接口。
var StoreBindings = wire.NewSet(
	wire.Bind(new(UserStore), new(*repositories.UserRepository)),
	wire.Bind(new(VideoStore), new(*repositories.VideoRepository)),
	wire.Bind(new(VideoFeed), new(*repositories.VideoFeedRepository)),
	wire.Bind(new(CommentStore), new(*repositories.CommentRepository)),
	wire.Bind(new(ReactionStore), new(*repositories.ReactionRepository)),
	wire.Bind(new(ViewStore), new(*repositories.ViewRepository)),
	wire.Bind(new(SubscriptionStore), new(*repositories.SubscriptionRepository)),
	wire.Bind(new(PlaylistStore), new(*repositories.PlaylistRepository)),
	wire.Bind(new(CategoryStore), new(*repositories.CategoryRepository)),
	wire.Bind(new(OutboxEnqueuer), new(*repositories.OutboxRepository)),
)
