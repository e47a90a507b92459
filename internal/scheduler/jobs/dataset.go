package jobs

import (
	"context"
	"time"

	"github.com/wonny/niftyquant/pkg/logger"
)

// Reloader swaps in a fresh dataset snapshot
type Reloader interface {
	Reload(ctx context.Context) (time.Time, error)
}

// DatasetReloadJob reloads price tables after the market close
type DatasetReloadJob struct {
	reloader Reloader
	schedule string
	logger   *logger.Logger
}

// NewDatasetReloadJob creates a new dataset reload job
func NewDatasetReloadJob(reloader Reloader, schedule string, log *logger.Logger) *DatasetReloadJob {
	return &DatasetReloadJob{
		reloader: reloader,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *DatasetReloadJob) Name() string {
	return "dataset_reload"
}

// Schedule returns the configured cron schedule
func (j *DatasetReloadJob) Schedule() string {
	return j.schedule
}

// Run reloads the dataset snapshot. The previous snapshot survives a failure.
func (j *DatasetReloadJob) Run(ctx context.Context) error {
	loadedAt, err := j.reloader.Reload(ctx)
	if err != nil {
		return err
	}

	j.logger.WithField("loaded_at", loadedAt.Format(time.RFC3339)).Info("Dataset reloaded")
	return nil
}
