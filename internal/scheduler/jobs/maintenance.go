package jobs

import (
	"context"

	"github.com/wonny/niftyquant/pkg/logger"
)

// ArtifactSweeper drops expired plots
type ArtifactSweeper interface {
	SweepArtifacts(ctx context.Context) (int, error)
}

// ArtifactSweepJob removes expired rendered artifacts
type ArtifactSweepJob struct {
	sweeper ArtifactSweeper
	logger  *logger.Logger
}

// NewArtifactSweepJob creates a new artifact sweep job
func NewArtifactSweepJob(sweeper ArtifactSweeper, log *logger.Logger) *ArtifactSweepJob {
	return &ArtifactSweepJob{
		sweeper: sweeper,
		logger:  log,
	}
}

// Name returns the job name
func (j *ArtifactSweepJob) Name() string {
	return "artifact_sweep"
}

// Schedule returns the cron schedule (every 10 minutes)
func (j *ArtifactSweepJob) Schedule() string {
	return "0 */10 * * * *"
}

// Run executes the sweep
func (j *ArtifactSweepJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled artifact sweep")

	count, err := j.sweeper.SweepArtifacts(ctx)
	if err != nil {
		return err
	}

	if count > 0 {
		j.logger.WithField("removed", count).Info("Artifact sweep completed")
	}

	return nil
}

// ModelInvalidator drops cached model metadata
type ModelInvalidator interface {
	Invalidate()
}

// ModelRefreshJob forces models to be re-resolved from the repository
// so `models register` updates reach a running server
type ModelRefreshJob struct {
	models ModelInvalidator
	logger *logger.Logger
}

// NewModelRefreshJob creates a new model refresh job
func NewModelRefreshJob(models ModelInvalidator, log *logger.Logger) *ModelRefreshJob {
	return &ModelRefreshJob{
		models: models,
		logger: log,
	}
}

// Name returns the job name
func (j *ModelRefreshJob) Name() string {
	return "model_refresh"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *ModelRefreshJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run drops the model cache
func (j *ModelRefreshJob) Run(_ context.Context) error {
	j.models.Invalidate()
	j.logger.Debug("Model cache invalidated")
	return nil
}
