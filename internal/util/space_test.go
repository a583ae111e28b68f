package util

import (
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
)

func TestPadRight(t *testing.T) {
	tests := []struct {
		name  string
		str   string
		width int
		want  string
	}{
		{"empty", "", 4, "    "},
		{"short name", "a.jpg", 8, "a.jpg   "},
		{"exact", "clip.mp4", 8, "clip.mp4"},
		{"long name", "video_2024-01-02_03-04-05_123.mp4", 16, "video_2024-01..."},
		{"only ellipsis fits", "voice.ogg", 3, "..."},
		{"zero width", "voice.ogg", 0, "..."},
		{"wide runes", "照片.jpg", 10, "照片.jpg  "},
		{"wide runes cut", "照片照片照片.jpg", 9, "照片照..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PadRight(tt.str, tt.width))
		})
	}
}

func TestPadRight_AlignsColumns(t *testing.T) {
	names := []string{"a", "document_thumbnail.jpg", "音频.mp3", ""}
	for _, name := range names {
		assert.Equal(t, 12, runewidth.StringWidth(PadRight(name, 12)), name)
	}
}
