// Package jobs holds background jobs run by the scheduler.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/modules/forecast"
	"github.com/hjuarez/ventasbi/internal/pipeline"
)

// RetrainJob re-runs the forecasting pipeline off-schedule so the model
// cache is warm before the first dashboard request of the day. The fit
// is deterministic, so the warmed selection is exactly what the request
// path would compute.
type RetrainJob struct {
	service *forecast.Service
	horizon int
	log     zerolog.Logger
}

// NewRetrainJob creates a new retrain job
func NewRetrainJob(service *forecast.Service, horizon int, log zerolog.Logger) *RetrainJob {
	return &RetrainJob{
		service: service,
		horizon: horizon,
		log:     log.With().Str("job", "retrain").Logger(),
	}
}

// Name returns the job name
func (j *RetrainJob) Name() string {
	return "retrain"
}

// Run executes the pipeline once. An empty store is not a failure, just
// nothing to warm yet.
func (j *RetrainJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	started := time.Now()
	result, err := j.service.Run(ctx, j.horizon)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyInput) {
			j.log.Info().Msg("No dataset loaded yet, skipping retrain")
			return nil
		}
		return err
	}

	j.log.Info().
		Str("order", result.Order.String()).
		Float64("rmse", result.Metrics.RMSE).
		Dur("elapsed", time.Since(started)).
		Msg("Model cache warmed")

	return nil
}
