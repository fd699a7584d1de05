// Package main 提供 HTTP API 服务的启动入口。
// 负责加载配置、初始化依赖（通过 Wire）、启动 HTTP Server 与同进程的 outbox 发布器并优雅关闭。
package main

import (
	"context"
	"errors"
	"flag"
	"sync"

	configloader "github.com/sanidhyy/yt-clone/internal/infrastructure/configloader"

	obswire "github.com/bionicotaku/lingo-utils/observability"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs" // 自动设置 GOMAXPROCS 为容器 CPU 配额
)

// worker 为随 HTTP Server 一起启停的后台循环。
type worker struct {
	name string
	run  func(context.Context) error
}

// newApp 组装 Kratos 应用。publisher 为空时（未配置 topic）不在本进程发布 outbox。
func newApp(
	_ *obswire.Component,
	logger log.Logger,
	hs *khttp.Server,
	meta configloader.ServiceInfo,
	publisher *outboxpublisher.Runner,
) *kratos.App {
	options := []kratos.Option{
		kratos.ID(meta.InstanceID),
		kratos.Name(meta.Name),
		kratos.Version(meta.Version),
		kratos.Metadata(map[string]string{"environment": meta.Environment}),
		kratos.Logger(logger),
		kratos.Server(hs),
	}

	var workers []worker
	if publisher != nil {
		workers = append(workers, worker{name: "outbox publisher", run: publisher.Run})
	}
	options = append(options, workerHooks(log.NewHelper(logger), workers)...)
	return kratos.New(options...)
}

// workerHooks 在应用启动后拉起 workers，停止时取消并等待其退出。
func workerHooks(helper *log.Helper, workers []worker) []kratos.Option {
	if len(workers) == 0 {
		return nil
	}
	var (
		wg     sync.WaitGroup
		cancel context.CancelFunc
	)
	start := func(ctx context.Context) error {
		var runCtx context.Context
		runCtx, cancel = context.WithCancel(context.WithoutCancel(ctx))
		for _, w := range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := w.run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					helper.Warnf("%s stopped: %v", w.name, err)
				}
			}()
		}
		return nil
	}
	stop := func(ctx context.Context) error {
		if cancel != nil {
			cancel()
		}
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-ctx.Done():
		case <-done:
		}
		return nil
	}
	return []kratos.Option{kratos.BeforeStart(start), kratos.AfterStop(stop)}
}

func main() {
	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	flag.Parse()

	// wireApp 由 wire_gen.go 生成，依赖顺序见 wire.go
	app, cleanup, err := wireApp(context.Background(), configloader.Params{ConfPath: *confFlag})
	if err != nil {
		panic(err)
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		panic(err)
	}
}
