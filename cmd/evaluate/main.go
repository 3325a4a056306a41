package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"house-price-api/internal/evaluate"
	"house-price-api/internal/logging"
	"house-price-api/internal/ml"
	"house-price-api/internal/storage"

	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataPath   = flag.String("data", "data/houses.csv", "Labelled data: CSV/JSON file, or the journal data directory")
		modelPath  = flag.String("model", "models/house_price_model.json", "Path or URL of the model artifact")
		pythonPath = flag.String("python", "", "Python interpreter for pickled/ONNX artifacts (auto-detect if empty)")
		outputPath = flag.String("output", "", "Output directory for reports (console summary only if empty)")
		target     = flag.String("target", evaluate.DefaultTarget, "Label column name")
		dataFormat = flag.String("format", "auto", "Data format: auto, csv, json, journal")
		startDate  = flag.String("start", "", "Journal start date (YYYY-MM-DD)")
		endDate    = flag.String("end", "", "Journal end date (YYYY-MM-DD)")
		batchSize  = flag.Int("batch", 64, "Rows per inference call")
		timeout    = flag.Duration("timeout", 30*time.Second, "Per-call inference timeout")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	if _, err := logging.Setup(logging.Options{Level: *logLevel, Format: "console"}); err != nil {
		fmt.Fprintf(os.Stderr, "logging setup failed: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loader := evaluate.NewDataLoader(*target)
	if err := loadData(loader, *dataFormat, *dataPath, *startDate, *endDate); err != nil {
		log.Fatal().Err(err).Msg("Failed to load data")
	}
	if loader.GetDataCount() == 0 {
		log.Fatal().Str("data", *dataPath).Msg("No labelled samples found")
	}

	model := ml.Load(ctx, *modelPath, ml.LoadOptions{PythonPath: *pythonPath, Timeout: *timeout})
	defer model.Close()

	engine := evaluate.NewEngine(model, loader, *batchSize)
	if err := engine.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}

	reporter := evaluate.NewReporter(engine.GetResults(), *outputPath)
	if *outputPath != "" {
		if err := reporter.GenerateReport(); err != nil {
			log.Error().Err(err).Msg("Failed to generate reports")
		}
	}
	reporter.PrintSummary()
}

func loadData(loader *evaluate.DataLoader, format, path, startDate, endDate string) error {
	if format == "auto" {
		format = detectFormat(path)
	}

	switch format {
	case "csv":
		return loader.LoadFromCSV(path)
	case "json":
		return loader.LoadFromJSON(path)
	case "journal":
		start, end, err := parseRange(startDate, endDate)
		if err != nil {
			return err
		}
		store, err := storage.New(path)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer store.Close()
		return loader.LoadFromJournal(store, start, end)
	}
	return fmt.Errorf("unknown data format %q", format)
}

func detectFormat(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return "journal"
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".json", ".jsonl", ".ndjson":
		return "json"
	}
	return ""
}

// parseRange defaults to the last 30 days; end is inclusive of the whole day.
func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	end := time.Now()
	if endDate != "" {
		d, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date: %w", err)
		}
		end = d.Add(24*time.Hour - time.Nanosecond)
	}

	start := end.AddDate(0, 0, -30)
	if startDate != "" {
		d, err := time.Parse("2006-01-02", startDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date: %w", err)
		}
		start = d
	}
	return start, end, nil
}
