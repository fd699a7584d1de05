// Package clients 装配与外部平台交互的客户端：身份校验、限流后端、对象存储、视频平台与大模型。
// 各客户端按 services 层的接口暴露给业务层。
package clients

import (
	"github.com/sanidhyy/yt-clone/internal/infrastructure/identity"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/llm"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/objectstore"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/ratelimit"
	"github.com/sanidhyy/yt-clone/internal/infrastructure/videoprovider"
	"github.com/sanidhyy/yt-clone/internal/services"

	"github.com/google/wire"
)

// ProviderSet 暴露 Clients 层的构造函数供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	identity.NewVerifier,
	ratelimit.New,
	objectstore.New,
	videoprovider.NewClient,
	llm.NewClient,
	wire.Bind(new(services.ObjectStore), new(*objectstore.Store)),
	wire.Bind(new(services.VideoProvider), new(*videoprovider.Client)),
	wire.Bind(new(services.TranscriptSource), new(*videoprovider.Client)),
	wire.Bind(new(services.TextGenerator), new(*llm.Client)),
)

// WorkerSet 为后台任务使用的子集，不含身份校验与限流。
var WorkerSet = wire.NewSet(
	objectstore.New,
	videoprovider.NewClient,
	llm.NewClient,
	wire.Bind(new(services.ObjectStore), new(*objectstore.Store)),
	wire.Bind(new(services.VideoProvider), new(*videoprovider.Client)),
	wire.Bind(new(services.TranscriptSource), new(*videoprovider.Client)),
	wire.Bind(new(services.TextGenerator), new(*llm.Client)),
)
