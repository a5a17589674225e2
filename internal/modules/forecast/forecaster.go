// Package forecast orchestrates the forecasting pipeline: daily series
// construction, model selection, out-of-sample prediction and accuracy
// evaluation.
package forecast

import (
	"fmt"
	"time"

	"github.com/hjuarez/ventasbi/internal/modules/model"
	"github.com/hjuarez/ventasbi/internal/modules/series"
	"github.com/hjuarez/ventasbi/internal/pipeline"
)

// Record is one forecast row: a future date with its point prediction
// and two-sided confidence bounds.
type Record struct {
	Date      time.Time `json:"date"`
	Predicted float64   `json:"prediccion"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// DefaultConfidence is the two-sided prediction interval level used
// when the caller does not override it.
const DefaultConfidence = 0.95

// Horizon produces exactly horizon records for the consecutive calendar
// days immediately after the series' last date.
func Horizon(sel *model.Selection, daily series.Daily, horizon, maxHorizon int, confidence float64) ([]Record, error) {
	if horizon <= 0 || horizon > maxHorizon {
		return nil, fmt.Errorf("horizon %d out of range [1, %d]: %w", horizon, maxHorizon, pipeline.ErrInvalidHorizon)
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = DefaultConfidence
	}

	point, lower, upper, err := sel.Model.Forecast(horizon, confidence)
	if err != nil {
		return nil, fmt.Errorf("forecast failed: %w", err)
	}

	last := daily.LastDate()
	records := make([]Record, horizon)
	for h := 0; h < horizon; h++ {
		records[h] = Record{
			Date:      last.AddDate(0, 0, h+1),
			Predicted: point[h],
			Lower:     lower[h],
			Upper:     upper[h],
		}
	}
	return records, nil
}
