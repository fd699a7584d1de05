// Package main 提供工作流任务的独立进程入口：消费工作流事件并执行 AI 生成步骤。
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	configloader "github.com/sanidhyy/yt-clone/internal/infrastructure/configloader"
	"github.com/sanidhyy/yt-clone/internal/tasks/workflows"

	"github.com/go-kratos/kratos/v2/log"

	_ "go.uber.org/automaxprocs"
)

type workflowTaskApp struct {
	Task   *workflows.Task
	Logger log.Logger
}

func main() {
	ctx := context.Background()

	confFlag := flag.String("conf", "", "config path or directory, eg: -conf configs/config.yaml")
	flag.Parse()

	app, cleanup, err := wireWorkflowTask(ctx, configloader.Params{ConfPath: *confFlag})
	if err != nil {
		panic(err)
	}
	defer cleanup()

	logger := app.Logger
	if logger == nil {
		logger = log.NewStdLogger(os.Stdout)
	}
	helper := log.NewHelper(logger)

	if app.Task == nil {
		helper.Warn("workflow task disabled (missing messaging.pubsub subscription or inbox source)")
		return
	}

	helper.Info("starting workflow task")

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Task.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		helper.Errorf("workflow task stopped unexpectedly: %v", err)
		os.Exit(1)
	}

	helper.Info("workflow task stopped")
}
