package order

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var numberShape = regexp.MustCompile(`^[A-Z]+-\d{8}-\d{6}-\d{3}$`)

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	n := newOrderNumber("BLM", now)
	assert.Regexp(t, numberShape, n)
	assert.Contains(t, n, "BLM-20260314-")
}

func TestNewOrderNumberDefaultPrefix(t *testing.T) {
	n := newOrderNumber("", time.Now().UTC())
	assert.Regexp(t, numberShape, n)
	assert.Equal(t, "BLM", n[:3])
}

func TestNewOrderNumberVariesWithinSecond(t *testing.T) {
	now := time.Now().UTC()
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		seen[newOrderNumber("BLM", now)] = true
	}
	// The random suffix should give plenty of distinct numbers even at a
	// frozen timestamp.
	assert.Greater(t, len(seen), 1)
}
