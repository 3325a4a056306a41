package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"house-price-api/internal/storage"
)

func main() {
	var (
		dataPath = flag.String("data", "./data", "Data directory path")
		limit    = flag.Int("n", 20, "Number of recent predictions to show")
	)
	flag.Parse()

	fmt.Printf("Inspecting prediction journal in: %s\n", *dataPath)

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	count, err := store.Count()
	if err != nil {
		log.Fatalf("Failed to count entries: %v", err)
	}
	fmt.Printf("Total predictions: %d\n", count)

	entries, err := store.Recent(*limit)
	if err != nil {
		log.Fatalf("Failed to fetch recent predictions: %v", err)
	}

	fmt.Printf("\nMost recent %d:\n", len(entries))
	for _, e := range entries {
		cached := ""
		if e.Cached {
			cached = " (cached)"
		}
		fmt.Printf("%s  %12.2f  model=%s%s  %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.PredictedPrice, e.ModelVersion, cached, formatFeatures(e.Features))
	}
}

func formatFeatures(f map[string]interface{}) string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, f[k])
	}
	return strings.Join(parts, " ")
}
