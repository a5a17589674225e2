// Package main is a one-shot CLI that runs the forecasting pipeline
// over a sales file and prints the forecast table without starting the
// HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/hjuarez/ventasbi/internal/modules/forecast"
	"github.com/hjuarez/ventasbi/internal/modules/ingest"
	"github.com/hjuarez/ventasbi/internal/modules/model"
	"github.com/hjuarez/ventasbi/internal/modules/series"
	"github.com/hjuarez/ventasbi/pkg/logger"
)

func main() {
	file := flag.String("file", "", "Sales file (.xlsx or .csv)")
	horizon := flag.Int("horizon", 14, "Days to forecast")
	period := flag.Int("period", 7, "Seasonal period in days")
	strategy := flag.String("strategy", "grid", "Search strategy: grid, auto or fixed")
	workers := flag.Int("workers", 4, "Concurrent candidate fits")
	logLevel := flag.String("log", "warn", "Log level")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: forecast --file ventas.xlsx [--horizon 14] [--period 7] [--strategy grid]")
		os.Exit(2)
	}

	log := logger.New(logger.Config{Level: *logLevel, Pretty: true})

	kind, err := model.ParseStrategy(*strategy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid strategy")
	}

	parser := ingest.NewParser(log)
	txs, err := parser.ParseFile(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to parse sales file")
	}

	selector := model.NewSelector(model.Config{
		Strategy:   kind,
		Workers:    *workers,
		FitTimeout: 10 * time.Second,
	}, model.NewCache(), log)

	// Drive a progress bar from candidate completions
	var bar *progressbar.ProgressBar
	selector.Progress = func(done, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total), "fitting candidates")
		}
		_ = bar.Set(done)
	}

	service := forecast.NewService(nil, series.NewBuilder(log), selector, forecast.Config{
		SeasonalPeriod: *period,
		MaxHorizon:     60,
	}, log)

	result, err := service.RunWith(context.Background(), txs, *horizon)
	if err != nil {
		log.Fatal().Err(err).Msg("Pipeline failed")
	}

	fmt.Printf("\nModel: %s  (in-sample RMSE %.2f, MAPE %.2f%%",
		result.Order, result.Metrics.RMSE, result.Metrics.MAPE)
	if result.Metrics.Excluded > 0 {
		fmt.Printf(", %d zero-sales days excluded from MAPE", result.Metrics.Excluded)
	}
	fmt.Println(")")

	fmt.Println("\nFecha       Predicción        Intervalo 95%")
	for _, r := range result.Forecast {
		fmt.Printf("%s  %12.2f  [%10.2f, %10.2f]\n",
			r.Date.Format("2006-01-02"), r.Predicted, r.Lower, r.Upper)
	}
}
