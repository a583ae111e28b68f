package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1025, "1.0 KB"},
		{1152, "1.125 KB"},
		{1280, "1.25 KB"},
		{512 * 1024, "512 KB"},
		{1024*1024 - 1, "1023.999 KB"},
		{1024 * 1024, "1 MB"},
		{10 * 1024 * 1024, "10 MB"},
		{1500 * 1024 * 1024, "1.464 GB"},
		{1 << 40, "1 TB"},
		{1 << 50, "1 PB"},
		{math.MaxInt64, "8191.999 PB"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatSize(tt.size))
		})
	}
}
