package evaluate

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"house-price-api/internal/common"
	"house-price-api/internal/ml"
	"house-price-api/internal/storage"

	"github.com/rs/zerolog/log"
)

// DefaultTarget is the label column in training exports.
const DefaultTarget = "Price"

// Sample is one labelled house.
type Sample struct {
	Record ml.Record
	Actual float64
}

// DataLoader handles loading and serving labelled samples
type DataLoader struct {
	samples []Sample
	index   int
	Target  string
	Skipped int
}

// NewDataLoader creates a new data loader reading labels from target.
func NewDataLoader(target string) *DataLoader {
	if target == "" {
		target = DefaultTarget
	}
	return &DataLoader{
		samples: make([]Sample, 0),
		Target:  target,
	}
}

// LoadFromCSV loads samples from a CSV file with a header row. Cells that
// parse as numbers become numbers; the Location column always stays a string.
func (dl *DataLoader) LoadFromCSV(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	targetIdx := -1
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
		if header[i] == dl.Target {
			targetIdx = i
		}
	}
	if targetIdx < 0 {
		return fmt.Errorf("CSV header has no %q column", dl.Target)
	}

	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("skipping malformed CSV row")
			dl.Skipped++
			continue
		}

		actual, err := strconv.ParseFloat(row[targetIdx], 64)
		if err != nil {
			dl.Skipped++
			continue
		}

		rec := make(ml.Record, len(header)-1)
		for i, col := range header {
			if i == targetIdx || i >= len(row) {
				continue
			}
			rec[col] = csvValue(col, row[i])
		}
		dl.samples = append(dl.samples, Sample{Record: rec, Actual: actual})
	}

	log.Info().
		Str("file", filePath).
		Int("total_samples", len(dl.samples)).
		Int("skipped", dl.Skipped).
		Msg("CSV data loaded successfully")

	return nil
}

func csvValue(col, cell string) interface{} {
	if col == common.FeatureLocation {
		return cell
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return v
	}
	return cell
}

// LoadFromJSON loads samples from a JSON array or a stream of JSON objects,
// each holding the features plus the target field.
func (dl *DataLoader) LoadFromJSON(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to open JSON file: %w", err)
	}

	var objects []ml.Record
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &objects); err != nil {
			return fmt.Errorf("failed to parse JSON array: %w", err)
		}
	} else {
		decoder := json.NewDecoder(strings.NewReader(trimmed))
		for decoder.More() {
			var rec ml.Record
			if err := decoder.Decode(&rec); err != nil {
				return fmt.Errorf("failed to parse JSON record %d: %w", len(objects)+1, err)
			}
			objects = append(objects, rec)
		}
	}

	for _, rec := range objects {
		actual, ok := rec[dl.Target].(float64)
		if !ok {
			dl.Skipped++
			continue
		}
		delete(rec, dl.Target)
		dl.samples = append(dl.samples, Sample{Record: rec, Actual: actual})
	}

	log.Info().
		Str("file", filePath).
		Int("total_samples", len(dl.samples)).
		Int("skipped", dl.Skipped).
		Msg("JSON data loaded successfully")

	return nil
}

// LoadFromJournal replays journaled predictions between start and end. The
// journaled price is used as the label, so the evaluation measures how far
// the current model has moved from what was served.
func (dl *DataLoader) LoadFromJournal(store *storage.Store, start, end time.Time) error {
	log.Info().
		Time("start", start).
		Time("end", end).
		Msg("Loading predictions from journal")

	entries, err := store.Range(start, end)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}

	for _, e := range entries {
		dl.samples = append(dl.samples, Sample{Record: ml.Record(e.Features), Actual: e.PredictedPrice})
	}

	log.Info().Int("total_samples", len(dl.samples)).Msg("Journal data loaded successfully")
	return nil
}

// Reset resets the data loader to the beginning
func (dl *DataLoader) Reset() {
	dl.index = 0
}

// HasNext returns true if there's more data to process
func (dl *DataLoader) HasNext() bool {
	return dl.index < len(dl.samples)
}

// NextBatch returns up to n samples and advances the cursor.
func (dl *DataLoader) NextBatch(n int) []Sample {
	if n <= 0 {
		n = 1
	}
	end := min(dl.index+n, len(dl.samples))
	batch := dl.samples[dl.index:end]
	dl.index = end
	return batch
}

// GetDataCount returns the total number of samples
func (dl *DataLoader) GetDataCount() int {
	return len(dl.samples)
}

// GetProgress returns the current progress as a percentage
func (dl *DataLoader) GetProgress() float64 {
	if len(dl.samples) == 0 {
		return 100.0
	}
	return float64(dl.index) / float64(len(dl.samples)) * 100.0
}
