package ml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPredictionCache(t *testing.T) {
	c := NewPredictionCache(2, time.Minute)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry should be evicted")

	v, ok := c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
	assert.Equal(t, 2, c.Len())
}

func TestPredictionCache_Expiry(t *testing.T) {
	c := NewPredictionCache(4, 20*time.Millisecond)
	c.Add("a", 1)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestPredictionCache_Disabled(t *testing.T) {
	c := NewPredictionCache(0, time.Minute)
	assert.Nil(t, c)

	c.Add("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
