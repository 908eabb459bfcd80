package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComposePair(t *testing.T) {
	assert.Equal(t, "YAC/USD", ComposePair("YAC/BTC", "BTC/USD"))
	assert.Equal(t, "YAC/USD", ComposePair("YAC", "USD"))
}

func TestQuoteExpired(t *testing.T) {
	now := time.Now()

	q := &Quote{ExpiresAt: now.Add(time.Second)}
	assert.False(t, q.Expired(now))
	assert.True(t, q.Expired(now.Add(2*time.Second)))

	assert.False(t, (&Quote{}).Expired(now), "zero expiry never expires")
}
