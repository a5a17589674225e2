package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjuarez/ventasbi/internal/modules/ingest"
	"github.com/hjuarez/ventasbi/internal/modules/model"
	"github.com/hjuarez/ventasbi/internal/modules/series"
	"github.com/hjuarez/ventasbi/internal/pipeline"
	"github.com/hjuarez/ventasbi/internal/sarima"
)

func fittedSelection(t *testing.T, n int) (*model.Selection, series.Daily) {
	t.Helper()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pattern := []float64{100, 80, 90, 95, 110, 150, 140}
	points := make([]series.Point, n)
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = pattern[i%7] + 0.3*float64(i) + 5*math.Sin(float64(i)*0.7)
		points[i] = series.Point{Date: base.AddDate(0, 0, i), Amount: values[i]}
	}
	daily := series.Daily{Points: points}

	m, err := sarima.Fit(context.Background(), values, sarima.Order{P: 1, D: 1, Q: 1, Period: 7})
	require.NoError(t, err)

	return &model.Selection{Model: m, Order: m.Order, Evaluated: 1}, daily
}

func TestHorizon_ProducesConsecutiveFutureDates(t *testing.T) {
	sel, daily := fittedSelection(t, 90)

	records, err := Horizon(sel, daily, 14, 60, 0.95)
	require.NoError(t, err)
	require.Len(t, records, 14)

	last := daily.LastDate()
	for h, r := range records {
		assert.Equal(t, last.AddDate(0, 0, h+1), r.Date)
		assert.LessOrEqual(t, r.Lower, r.Predicted)
		assert.GreaterOrEqual(t, r.Upper, r.Predicted)
	}
}

func TestHorizon_OutOfRange(t *testing.T) {
	sel, daily := fittedSelection(t, 90)

	for _, h := range []int{0, -1, 61} {
		_, err := Horizon(sel, daily, h, 60, 0.95)
		assert.ErrorIs(t, err, pipeline.ErrInvalidHorizon, "horizon %d", h)
	}
}

func TestHorizon_MaxAccepted(t *testing.T) {
	sel, daily := fittedSelection(t, 90)

	records, err := Horizon(sel, daily, 60, 60, 0.95)
	require.NoError(t, err)
	assert.Len(t, records, 60)
}

func TestHorizon_DefaultsConfidence(t *testing.T) {
	sel, daily := fittedSelection(t, 90)

	records, err := Horizon(sel, daily, 7, 60, 0)
	require.NoError(t, err)
	assert.Len(t, records, 7)
	assert.Less(t, records[0].Lower, records[0].Upper)
}

// fixedSelector always returns a selection for a small fixed order, so
// RunWith exercises the full pipeline deterministically and fast.
func fixedSelector() *model.Selector {
	return model.NewSelector(model.Config{
		Strategy:   model.StrategyFixed,
		FixedOrder: sarima.Order{P: 1, D: 1, Period: 7},
	}, model.NewCache(), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestRunWith_EndToEnd(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	svc := NewService(nil, series.NewBuilder(log), fixedSelector(), Config{
		SeasonalPeriod: 7,
		MaxHorizon:     60,
	}, log)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pattern := []float64{100, 80, 90, 95, 110, 150, 140}
	txs := make([]ingest.Transaction, 90)
	for i := range txs {
		txs[i] = ingest.Transaction{
			IssueDate: base.AddDate(0, 0, i),
			Amount:    pattern[i%7] + 0.5*float64(i),
		}
	}

	result, err := svc.RunWith(context.Background(), txs, 14)
	require.NoError(t, err)

	assert.Len(t, result.Historical, 90)
	assert.Len(t, result.Forecast, 14)
	assert.Equal(t, 14, result.Metrics.Window)
	assert.Positive(t, result.Metrics.RMSE)
	assert.Equal(t, sarima.Order{P: 1, D: 1, Period: 7}, result.Order)
}

func TestRunWith_EmptyInput(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	svc := NewService(nil, series.NewBuilder(log), fixedSelector(), Config{
		SeasonalPeriod: 7,
		MaxHorizon:     60,
	}, log)

	_, err := svc.RunWith(context.Background(), nil, 14)
	assert.ErrorIs(t, err, pipeline.ErrEmptyInput)
}
