package studio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsImageMediaType(t *testing.T) {
	tests := map[string]bool{
		"image/png":                 true,
		"image/jpeg":                true,
		"image/webp; q=1":           true,
		"text/plain; charset=utf-8": false,
		"application/pdf":           false,
		"":                          false,
		"image":                     false,
	}
	for ct, want := range tests {
		assert.Equal(t, want, IsImageMediaType(ct), ct)
	}
}

func TestParseSlotAndSource(t *testing.T) {
	s, ok := ParseSlot("Content")
	assert.True(t, ok)
	assert.Equal(t, SlotContent, s)
	assert.Equal(t, "content_image", s.FormField())
	assert.Equal(t, "style_image", SlotStyle.FormField())

	_, ok = ParseSlot("result")
	assert.False(t, ok)

	assert.Equal(t, SourceDrop, ParseSource("drop"))
	assert.Equal(t, SourceCamera, ParseSource("CAMERA"))
	assert.Equal(t, SourcePicker, ParseSource(""))
	assert.Equal(t, SourcePicker, ParseSource("clipboard"))
}

func TestImageRefAndFilename(t *testing.T) {
	img := Image{ID: "abc", ContentType: "image/png", Filename: "cat.png", Data: []byte{1, 2, 3}}
	r := img.Ref()
	assert.Equal(t, int64(3), r.Size)
	assert.Equal(t, "/studio/images/abc", r.PreviewURL())

	at := time.UnixMilli(1735689600123)
	assert.Equal(t, "artisan-studio-1735689600123.png", ResultFilename(at))
}
