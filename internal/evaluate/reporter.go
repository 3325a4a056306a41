package evaluate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// Reporter generates evaluation reports
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a new reporter
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{
		results:    results,
		outputPath: outputPath,
	}
}

// GenerateReport writes the summary, the per-sample CSV and the JSON report.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}
	if err := r.generatePredictionLog(); err != nil {
		return err
	}
	return r.generateJSONReport()
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, "evaluation_summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.writeSummary(file)

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

func (r *Reporter) writeSummary(w io.Writer) {
	res := r.results

	fmt.Fprintf(w, "MODEL EVALUATION SUMMARY\n")
	fmt.Fprintf(w, "========================\n\n")
	fmt.Fprintf(w, "Model: %s (version %s)\n", res.ModelPath, res.ModelVersion)
	fmt.Fprintf(w, "Run at: %s, took %s\n\n", res.StartTime.Format("2006-01-02 15:04:05"), res.Duration)

	fmt.Fprintf(w, "SAMPLES\n")
	fmt.Fprintf(w, "-------\n")
	fmt.Fprintf(w, "Total: %d\n", res.Samples)
	fmt.Fprintf(w, "Scored: %d\n", res.Scored)
	fmt.Fprintf(w, "Failed: %d\n\n", res.Failures)

	fmt.Fprintf(w, "ERROR METRICS\n")
	fmt.Fprintf(w, "-------------\n")
	fmt.Fprintf(w, "MAE: %.2f\n", res.MAE)
	fmt.Fprintf(w, "RMSE: %.2f\n", res.RMSE)
	fmt.Fprintf(w, "MAPE: %.2f%%\n", res.MAPE)
	fmt.Fprintf(w, "R2: %.4f\n", res.R2)
	fmt.Fprintf(w, "Max Abs Error: %.2f\n", res.MaxAbsError)

	stats := r.calculateLocationStats()
	if len(stats) > 0 {
		fmt.Fprintf(w, "\nERROR BY LOCATION\n")
		fmt.Fprintf(w, "-----------------\n")
		for _, s := range stats {
			fmt.Fprintf(w, "%s: %d samples, MAE %.2f, bias %.2f\n", s.Location, s.Count, s.MAE, s.Bias)
		}
	}
}

func (r *Reporter) generatePredictionLog() error {
	csvPath := filepath.Join(r.outputPath, "predictions.csv")
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create prediction log: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Index", "Location", "Actual", "Predicted", "Error", "Failure"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, res := range r.results.Results {
		record := []string{
			fmt.Sprintf("%d", res.Index),
			res.Location,
			fmt.Sprintf("%.2f", res.Actual),
			fmt.Sprintf("%.2f", res.Predicted),
			fmt.Sprintf("%.2f", res.Error),
			res.Failure,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	log.Info().Str("file", csvPath).Msg("Prediction log generated")
	return nil
}

func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, "evaluation_results.json")

	report := map[string]interface{}{
		"summary":      r.results,
		"by_location":  r.calculateLocationStats(),
		"generated_at": time.Now(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}

// LocationStats holds error statistics for one location
type LocationStats struct {
	Location string  `json:"location"`
	Count    int     `json:"count"`
	MAE      float64 `json:"mae"`
	Bias     float64 `json:"bias"` // mean signed error
}

func (r *Reporter) calculateLocationStats() []LocationStats {
	byLoc := make(map[string]*LocationStats)

	for _, res := range r.results.Results {
		if res.Failure != "" || res.Location == "" {
			continue
		}
		s, ok := byLoc[res.Location]
		if !ok {
			s = &LocationStats{Location: res.Location}
			byLoc[res.Location] = s
		}
		s.Count++
		s.MAE += math.Abs(res.Error)
		s.Bias += res.Error
	}

	stats := make([]LocationStats, 0, len(byLoc))
	for _, s := range byLoc {
		s.MAE /= float64(s.Count)
		s.Bias /= float64(s.Count)
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Location < stats[j].Location })
	return stats
}

// PrintSummary prints a summary to stdout
func (r *Reporter) PrintSummary() {
	fmt.Println()
	r.writeSummary(os.Stdout)
	fmt.Println("========================")
}
