package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		page, size         int
		wantOffset, wantLn int
	}{
		{1, 10, 0, 10},
		{3, 10, 20, 10},
		{0, 10, 0, 10},
		{-2, 0, 0, DefaultPageSize},
		{2, MaxPageSize + 1, DefaultPageSize, DefaultPageSize},
		{math.MaxInt, MaxPageSize, (MaxPage - 1) * MaxPageSize, MaxPageSize},
	}
	for _, tt := range tests {
		offset, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.wantOffset, offset, "page %d size %d", tt.page, tt.size)
		assert.Equal(t, tt.wantLn, limit, "page %d size %d", tt.page, tt.size)
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	page, size := Normalize(math.MaxInt, 10)
	assert.Equal(t, MaxPage, page)
	assert.Equal(t, 10, size)

	page, size = Normalize(-5, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, size)
}
