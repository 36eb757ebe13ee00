package uiutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{10 << 20, "10 MB"},
		{3 << 30, "3 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	assert.Equal(t, "short.png", TruncateWithEllipsis("short.png", 20))
	assert.Equal(t, "a-very-lo…", TruncateWithEllipsis("a-very-long-name.png", 10))
	assert.Equal(t, "…", TruncateWithEllipsis("abc", 1))
}

func TestFormatFriendlyDateTime_Zero(t *testing.T) {
	assert.Empty(t, FormatFriendlyDateTime(time.Time{}))
	assert.NotEmpty(t, FormatFriendlyDateTime(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
}
