package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/modules/ingest"
	"github.com/hjuarez/ventasbi/internal/modules/model"
	"github.com/hjuarez/ventasbi/internal/modules/series"
	"github.com/hjuarez/ventasbi/internal/sarima"
)

// Result is the full pipeline output served to the dashboard.
type Result struct {
	Historical []series.Point `json:"historico"`
	Forecast   []Record       `json:"forecast"`
	Metrics    Metrics        `json:"metrics"`
	Order      sarima.Order   `json:"model"`
}

// Service runs the pipeline end to end: Series Builder, Model Selector,
// Forecaster, Evaluator. Stages are strictly sequential; only the
// selector parallelizes internally.
type Service struct {
	repo       *ingest.Repository
	builder    *series.Builder
	selector   *model.Selector
	period     int
	maxHorizon int
	confidence float64
	log        zerolog.Logger
}

// Config holds forecast service settings.
type Config struct {
	SeasonalPeriod int
	MaxHorizon     int
	Confidence     float64 // 0 means DefaultConfidence
}

// NewService creates a new forecast service
func NewService(repo *ingest.Repository, builder *series.Builder, selector *model.Selector, cfg Config, log zerolog.Logger) *Service {
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		cfg.Confidence = DefaultConfidence
	}
	return &Service{
		repo:       repo,
		builder:    builder,
		selector:   selector,
		period:     cfg.SeasonalPeriod,
		maxHorizon: cfg.MaxHorizon,
		confidence: cfg.Confidence,
		log:        log.With().Str("service", "forecast").Logger(),
	}
}

// Run loads the stored transactions and produces the historical series,
// the horizon-day forecast and the trailing-window accuracy metrics.
func (s *Service) Run(ctx context.Context, horizon int) (*Result, error) {
	txs, err := s.repo.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	return s.RunWith(ctx, txs, horizon)
}

// RunWith runs the pipeline over the given transactions. Used by Run
// and by the one-shot CLI, which bypasses the store.
func (s *Service) RunWith(ctx context.Context, txs []ingest.Transaction, horizon int) (*Result, error) {
	started := time.Now()

	daily, err := s.builder.Build(txs)
	if err != nil {
		return nil, err
	}

	sel, err := s.selector.Select(ctx, daily.Values(), s.period)
	if err != nil {
		return nil, err
	}

	records, err := Horizon(sel, daily, horizon, s.maxHorizon, s.confidence)
	if err != nil {
		return nil, err
	}

	metrics, err := Evaluate(daily.Values(), sel.Model.FittedValues(), horizon)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("days", len(daily.Points)).
		Int("horizon", horizon).
		Str("order", sel.Order.String()).
		Float64("rmse", metrics.RMSE).
		Dur("elapsed", time.Since(started)).
		Msg("Pipeline completed")

	return &Result{
		Historical: daily.Points,
		Forecast:   records,
		Metrics:    metrics,
		Order:      sel.Order,
	}, nil
}

// BuildSeries exposes the imputed daily series alone, used by the
// trends endpoint.
func (s *Service) BuildSeries() (series.Daily, error) {
	txs, err := s.repo.All()
	if err != nil {
		return series.Daily{}, fmt.Errorf("failed to load transactions: %w", err)
	}
	return s.builder.Build(txs)
}
