package ml

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PredictionCache caches recent predictions keyed by the canonical record
// encoding. A nil cache is valid and never hits.
type PredictionCache struct {
	lru *expirable.LRU[string, float64]
}

// NewPredictionCache returns nil when size is not positive.
func NewPredictionCache(size int, ttl time.Duration) *PredictionCache {
	if size <= 0 {
		return nil
	}
	return &PredictionCache{lru: expirable.NewLRU[string, float64](size, nil, ttl)}
}

func (c *PredictionCache) Get(key string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	return c.lru.Get(key)
}

func (c *PredictionCache) Add(key string, price float64) {
	if c == nil {
		return
	}
	c.lru.Add(key, price)
}

func (c *PredictionCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
