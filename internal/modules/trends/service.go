// Package trends derives seasonality views from the imputed daily
// series for the dashboard's trends tab.
package trends

import (
	"fmt"
	"sort"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/modules/series"
)

// WeeklyAverage is the mean daily sales of one ISO week.
type WeeklyAverage struct {
	Year    int     `json:"year"`
	Week    int     `json:"week"`
	Average float64 `json:"average"`
}

// SmoothedPoint pairs a date with the moving-average value of the
// series at that date.
type SmoothedPoint struct {
	Date   string  `json:"date"`
	Value  float64 `json:"value"`
	Actual float64 `json:"actual"`
}

// Service computes trend views.
type Service struct {
	log zerolog.Logger
}

// NewService creates a new trends service
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "trends").Logger(),
	}
}

// WeeklyAverages groups the daily series by ISO week and averages each
// week's sales, ordered chronologically.
func (s *Service) WeeklyAverages(daily series.Daily) []WeeklyAverage {
	type key struct{ year, week int }
	sums := make(map[key]float64)
	counts := make(map[key]int)

	for _, p := range daily.Points {
		y, w := p.Date.ISOWeek()
		k := key{y, w}
		sums[k] += p.Amount
		counts[k]++
	}

	out := make([]WeeklyAverage, 0, len(sums))
	for k, sum := range sums {
		out = append(out, WeeklyAverage{
			Year:    k.year,
			Week:    k.week,
			Average: sum / float64(counts[k]),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Week < out[j].Week
	})

	return out
}

// Smoothed overlays a simple moving average on the daily series. The
// first window-1 points carry no SMA value and are dropped.
func (s *Service) Smoothed(daily series.Daily, window int) ([]SmoothedPoint, error) {
	if window < 2 {
		return nil, fmt.Errorf("smoothing window must be at least 2, got %d", window)
	}
	if len(daily.Points) < window {
		return nil, fmt.Errorf("series shorter than smoothing window (%d < %d)", len(daily.Points), window)
	}

	sma := talib.Sma(daily.Values(), window)

	out := make([]SmoothedPoint, 0, len(daily.Points)-window+1)
	for i := window - 1; i < len(daily.Points); i++ {
		out = append(out, SmoothedPoint{
			Date:   daily.Points[i].Date.Format("2006-01-02"),
			Value:  sma[i],
			Actual: daily.Points[i].Amount,
		})
	}

	return out, nil
}
