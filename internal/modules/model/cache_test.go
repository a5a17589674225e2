package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey_ContentAddressed(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{1, 2, 3}

	assert.Equal(t, cacheKey(a, 7), cacheKey(b, 7))
	assert.NotEqual(t, cacheKey(a, 7), cacheKey(a, 14), "period is part of the key")

	c := []float64{1, 2, 3.0000001}
	assert.NotEqual(t, cacheKey(a, 7), cacheKey(c, 7))
}

func TestCacheKey_OrderSensitive(t *testing.T) {
	assert.NotEqual(t, cacheKey([]float64{1, 2}, 7), cacheKey([]float64{2, 1}, 7))
}

func TestCache_GetPutInvalidate(t *testing.T) {
	cache := NewCache()

	_, ok := cache.Get("k")
	assert.False(t, ok)

	sel := &Selection{RMSE: 1.5}
	cache.Put("k", sel)

	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Same(t, sel, got)
	assert.Equal(t, 1, cache.Len())

	cache.Invalidate()
	_, ok = cache.Get("k")
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}
