package pricefeed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, time.Minute},
		{100, time.Minute},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.retry), "retry %d", tt.retry)
	}
}
