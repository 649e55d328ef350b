package cron

import (
	"context"
	"fmt"

	"github.com/genericsdirect/dealtracker/pkg/logger"
)

const workspaceSweepJobName = "workspace-sweep"

type workspaceSweeper interface {
	SweepIdle(ctx context.Context) int
}

type workspaceSweepJob struct {
	logg    *logger.Logger
	sweeper workspaceSweeper
}

// NewWorkspaceSweepJob drops in-memory scenario workspaces that have been
// idle past their TTL. Unsaved moves in those workspaces are lost.
func NewWorkspaceSweepJob(logg *logger.Logger, sweeper workspaceSweeper) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sweeper == nil {
		return nil, fmt.Errorf("workspace sweeper required")
	}
	return &workspaceSweepJob{logg: logg, sweeper: sweeper}, nil
}

func (j *workspaceSweepJob) Name() string { return workspaceSweepJobName }

func (j *workspaceSweepJob) Run(ctx context.Context) error {
	if removed := j.sweeper.SweepIdle(ctx); removed > 0 {
		j.logg.Info(j.logg.WithField(ctx, "removed", removed), "idle workspaces swept")
	}
	return nil
}
