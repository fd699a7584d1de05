// Package main 是工作流 outbox 发布器的独立进程。
//
// 服务进程在配置 topic 时已内嵌发布器，本进程用于单独扩容发布能力，
// 或以 -backlog 查看积压后退出。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	configloader "github.com/sanidhyy/yt-clone/internal/infrastructure/configloader"
	"github.com/sanidhyy/yt-clone/internal/repositories"

	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"
	"github.com/go-kratos/kratos/v2/log"

	_ "go.uber.org/automaxprocs"
)

type publisherApp struct {
	runner *outboxpublisher.Runner
	outbox *repositories.OutboxRepository
	log    *log.Helper
}

func main() {
	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	backlogOnly := flag.Bool("backlog", false, "print the number of unpublished workflow events and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wireOutboxTask(ctx, configloader.Params{ConfPath: *confFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init outbox publisher: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	pending, err := app.outbox.CountPending(ctx)
	if err != nil {
		app.log.Errorf("count pending workflow events: %v", err)
	}
	if *backlogOnly {
		fmt.Println(pending)
		return
	}

	if app.runner == nil {
		app.log.Warn("workflow publisher disabled: messaging.pubsub topic not configured")
		return
	}
	app.log.Infof("workflow publisher starting: pending=%d", pending)
	if err := app.runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.log.Errorf("workflow publisher stopped: %v", err)
		os.Exit(1)
	}
	app.log.Info("workflow publisher stopped")
}
