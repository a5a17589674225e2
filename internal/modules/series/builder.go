// Package series turns irregular transaction records into a complete,
// gap-free daily sales series with imputed values.
package series

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/hjuarez/ventasbi/internal/modules/ingest"
	"github.com/hjuarez/ventasbi/internal/pipeline"
)

// Point is one row of the daily series: exactly one per calendar day in
// the closed range [min(date), max(date)] of the input.
type Point struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// Daily is the complete imputed daily series.
type Daily struct {
	Points []Point
}

// Values returns the amounts as a plain slice, in date order.
func (d Daily) Values() []float64 {
	vals := make([]float64, len(d.Points))
	for i, p := range d.Points {
		vals[i] = p.Amount
	}
	return vals
}

// LastDate returns the date of the final point.
func (d Daily) LastDate() time.Time {
	return d.Points[len(d.Points)-1].Date
}

// rollingWindow is the trailing window used to impute missing days.
const rollingWindow = 7

// Builder aggregates transactions into the daily series.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a new series builder
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("component", "series_builder").Logger(),
	}
}

// Build groups transactions by calendar day, reindexes over the full
// day range, and imputes missing days.
//
// A recorded amount of exactly zero is treated the same as an
// unrecorded day: zero-sales days are indistinguishable from data gaps
// in the source exports, so both are imputed.
func (b *Builder) Build(txs []ingest.Transaction) (Daily, error) {
	if len(txs) == 0 {
		return Daily{}, pipeline.ErrEmptyInput
	}

	// Group by calendar day, summing amounts
	byDay := make(map[string]float64)
	minDate, maxDate := day(txs[0].IssueDate), day(txs[0].IssueDate)
	for _, t := range txs {
		d := day(t.IssueDate)
		byDay[d.Format("2006-01-02")] += t.Amount
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}

	// Reindex: one slot per day in the closed range, NaN marks "no value"
	n := int(maxDate.Sub(minDate).Hours()/24) + 1
	points := make([]Point, n)
	missing := 0
	for i := 0; i < n; i++ {
		date := minDate.AddDate(0, 0, i)
		amount, ok := byDay[date.Format("2006-01-02")]
		if !ok || amount == 0 {
			amount = math.NaN()
			missing++
		}
		points[i] = Point{Date: date, Amount: amount}
	}

	impute(points)

	// Leading gap: carry the next available value backward
	backwardFill(points)
	// Trailing gap: carry the last available value forward
	forwardFill(points)

	// A series where every day was zero/missing degenerates to all
	// zeros after filling. Accepted, not an error.
	for i := range points {
		if math.IsNaN(points[i].Amount) {
			points[i].Amount = 0
		}
	}

	b.log.Debug().
		Int("days", n).
		Int("imputed", missing).
		Str("from", minDate.Format("2006-01-02")).
		Str("to", maxDate.Format("2006-01-02")).
		Msg("Built daily series")

	if err := validate(points); err != nil {
		return Daily{}, err
	}

	return Daily{Points: points}, nil
}

// impute fills each missing day with the mean of the observed values in
// the trailing 7-day window. A single observed day is enough. Only
// originally observed days feed the window, so fills never cascade;
// longer gaps are left for the fill passes below.
func impute(points []Point) {
	observed := make([]float64, len(points))
	for i := range points {
		observed[i] = points[i].Amount
	}

	for i := range points {
		if !math.IsNaN(points[i].Amount) {
			continue
		}

		sum, count := 0.0, 0
		for j := i - rollingWindow; j < i; j++ {
			if j < 0 || math.IsNaN(observed[j]) {
				continue
			}
			sum += observed[j]
			count++
		}

		if count > 0 {
			points[i].Amount = sum / float64(count)
		}
	}
}

func backwardFill(points []Point) {
	next := math.NaN()
	for i := len(points) - 1; i >= 0; i-- {
		if math.IsNaN(points[i].Amount) {
			points[i].Amount = next
		} else {
			next = points[i].Amount
		}
	}
}

func forwardFill(points []Point) {
	prev := math.NaN()
	for i := range points {
		if math.IsNaN(points[i].Amount) {
			points[i].Amount = prev
		} else {
			prev = points[i].Amount
		}
	}
}

// validate enforces the output invariant: consecutive dates, no
// remaining missing values.
func validate(points []Point) error {
	for i := range points {
		if math.IsNaN(points[i].Amount) {
			return fmt.Errorf("day %s still missing after imputation", points[i].Date.Format("2006-01-02"))
		}
		if i > 0 && !points[i].Date.Equal(points[i-1].Date.AddDate(0, 0, 1)) {
			return fmt.Errorf("non-consecutive dates at index %d", i)
		}
	}
	return nil
}

// day truncates a timestamp to its UTC calendar day.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
