package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBeatsBest(t *testing.T) {
	best := func(v int) *int { return &v }

	assert.True(t, beatsBest(nil, 0))
	assert.True(t, beatsBest(best(50), 80))
	assert.False(t, beatsBest(best(100), 100))
	assert.False(t, beatsBest(best(100), 99))
}
