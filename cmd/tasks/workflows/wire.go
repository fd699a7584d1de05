//go:build wireinject
// +build wireinject

// Package main 为工作流任务 CLI 提供 Wire 依赖注入定义。
package main

import (
	"context"
	"fmt"

	"github.com/sanidhyy/yt-clone/internal/clients"
	configloader "github.com/sanidhyy/yt-clone/internal/infrastructure/configloader"
	"github.com/sanidhyy/yt-clone/internal/repositories"
	"github.com/sanidhyy/yt-clone/internal/services"
	"github.com/sanidhyy/yt-clone/internal/tasks/workflows"

	"github.com/bionicotaku/lingo-utils/gclog"
	"github.com/bionicotaku/lingo-utils/gcpubsub"
	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/bionicotaku/lingo-utils/pgxpoolx"
	"github.com/bionicotaku/lingo-utils/txmanager"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

//go:generate go run github.com/google/wire/cmd/wire

var workflowStepSet = wire.NewSet(
	repositories.NewVideoRepository,
	repositories.NewInboxRepository,
	wire.Bind(new(services.VideoStore), new(*repositories.VideoRepository)),
	services.NewAISettingsService,
	services.NewWorkflowStepService,
)

func wireWorkflowTask(context.Context, configloader.Params) (*workflowTaskApp, func(), error) {
	panic(wire.Build(
		configloader.ProviderSet,
		gclog.ProviderSet,
		obswire.ProviderSet,
		pgxpoolx.ProviderSet,
		txmanager.ProviderSet,
		gcpubsub.ProviderSet,
		clients.WorkerSet,
		workflowStepSet,
		workflows.ProvideTask,
		newWorkflowTaskApp,
	))
}

func newWorkflowTaskApp(_ *obswire.Component, logger log.Logger, task *workflows.Task) (*workflowTaskApp, error) {
	if task == nil {
		return &workflowTaskApp{Logger: logger}, nil
	}
	if logger == nil {
		return nil, fmt.Errorf("logger not initialized")
	}
	return &workflowTaskApp{Task: task, Logger: logger}, nil
}
