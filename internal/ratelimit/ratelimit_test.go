package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowPerKey(t *testing.T) {
	krl := New(1, 2)
	defer krl.Stop()

	assert.True(t, krl.Allow("10.0.0.1"))
	assert.True(t, krl.Allow("10.0.0.1"))
	assert.False(t, krl.Allow("10.0.0.1"), "burst exhausted")

	// A different key has its own bucket.
	assert.True(t, krl.Allow("10.0.0.2"))
}
