package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"house-price-api/internal/common"
	"house-price-api/internal/ml"
)

// referencePipeline is the ground truth used to label generated houses. It is
// also written out as a ready-to-serve artifact.
func referencePipeline() ml.LinearPipeline {
	return ml.LinearPipeline{
		Version:   "sample-1",
		Target:    "Price",
		Intercept: 420000,
		Numeric: []ml.NumericFeature{
			{Name: common.FeatureAreaSqft, Mean: 2000, Scale: 600, Coef: 95000},
			{Name: common.FeatureBedrooms, Mean: 3, Scale: 1, Coef: 12000},
			{Name: common.FeatureBathrooms, Mean: 2, Scale: 0.8, Coef: 15000},
			{Name: common.FeatureYearBuilt, Mean: 1995, Scale: 15, Coef: 18000},
		},
		Categorical: []ml.CategoricalFeature{{
			Name:          common.FeatureLocation,
			Categories:    []string{"Downtown", "Suburb", "Rural"},
			Coefs:         []float64{85000, 15000, -60000},
			HandleUnknown: "ignore",
		}},
	}
}

func main() {
	var (
		modelPath = flag.String("model", "models/house_price_model.json", "Where to write the sample pipeline")
		dataPath  = flag.String("data", "data/houses.csv", "Where to write the labelled houses")
		rows      = flag.Int("rows", 500, "Number of houses to generate")
		noise     = flag.Float64("noise", 25000, "Std dev of label noise")
		seed      = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating sample data...\n")
	fmt.Printf("  Rows: %d\n", *rows)
	fmt.Printf("  Model Path: %s\n", *modelPath)
	fmt.Printf("  Data Path: %s\n", *dataPath)

	p := referencePipeline()
	pipe, err := ml.NewLinearPipeline(p)
	if err != nil {
		log.Fatalf("Invalid reference pipeline: %v", err)
	}

	if err := writeModel(*modelPath, p); err != nil {
		log.Fatalf("Failed to write model: %v", err)
	}
	if err := writeHouses(*dataPath, pipe, *rows, *noise, rand.New(rand.NewSource(*seed))); err != nil {
		log.Fatalf("Failed to write data: %v", err)
	}

	fmt.Printf("✓ Generated %d houses and a sample model\n", *rows)
}

func writeModel(path string, p ml.LinearPipeline) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeHouses(path string, pipe *ml.LinearPipeline, rows int, noise float64, rng *rand.Rand) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append(append([]string{}, common.RequiredFeatures...), pipe.Target)
	if err := w.Write(header); err != nil {
		return err
	}

	locations := []string{"Downtown", "Suburb", "Rural"}
	for i := 0; i < rows; i++ {
		area := math.Round(math.Max(400, 2000+rng.NormFloat64()*600))
		bedrooms := float64(1 + rng.Intn(6))
		bathrooms := float64(1 + rng.Intn(4))
		year := float64(1950 + rng.Intn(74))
		location := locations[rng.Intn(len(locations))]

		rec := ml.Record{
			common.FeatureAreaSqft:  area,
			common.FeatureBedrooms:  bedrooms,
			common.FeatureBathrooms: bathrooms,
			common.FeatureYearBuilt: year,
			common.FeatureLocation:  location,
		}
		out, err := pipe.Predict(context.Background(), ml.Frame{rec})
		if err != nil {
			return err
		}
		price := math.Max(50000, out[0]+rng.NormFloat64()*noise)

		row := []string{
			strconv.FormatFloat(area, 'f', 0, 64),
			strconv.FormatFloat(bedrooms, 'f', 0, 64),
			strconv.FormatFloat(bathrooms, 'f', 0, 64),
			strconv.FormatFloat(year, 'f', 0, 64),
			location,
			strconv.FormatFloat(price, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
