package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiterAllowsWithinBurst(t *testing.T) {
	l := NewLimiter(60)

	for i := 0; i < 60; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d within burst", i)
	}
}

func TestLimiterBlocksAfterBurst(t *testing.T) {
	l := NewLimiter(5)

	allowed := 0
	for i := 0; i < 50; i++ {
		if l.Allow("10.0.0.1") {
			allowed++
		}
	}
	// Burst is 2x the per-minute limit; refill is too slow to matter here.
	assert.LessOrEqual(t, allowed, 11)
	assert.GreaterOrEqual(t, allowed, 10)
}

func TestLimiterIsolatesClients(t *testing.T) {
	l := NewLimiter(5)

	for i := 0; i < 50; i++ {
		l.Allow("10.0.0.1")
	}
	assert.True(t, l.Allow("10.0.0.2"), "a fresh client gets its own bucket")
}

func TestLimiterMinimumRate(t *testing.T) {
	l := NewLimiter(0)
	assert.True(t, l.Allow("10.0.0.1"))
}
