package studio

import (
	"mime"
	"strings"
	"time"
)

// Slot identifies which of the two source images an upload fills.
type Slot string

const (
	SlotContent Slot = "content"
	SlotStyle   Slot = "style"
)

// ParseSlot maps a path segment to a Slot.
func ParseSlot(s string) (Slot, bool) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case SlotContent:
		return SlotContent, true
	case SlotStyle:
		return SlotStyle, true
	default:
		return "", false
	}
}

// FormField is the multipart part name the backend expects for this slot.
func (s Slot) FormField() string { return string(s) + "_image" }

// Source records how the visitor supplied an image. It changes how a
// non-image file is treated: drops are ignored, picks are reported.
type Source string

const (
	SourcePicker Source = "picker"
	SourceDrop   Source = "drop"
	SourceCamera Source = "camera"
)

// ParseSource defaults to the picker for unknown values.
func ParseSource(s string) Source {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceDrop:
		return SourceDrop
	case SourceCamera:
		return SourceCamera
	default:
		return SourcePicker
	}
}

// Image is an uploaded or generated image with its bytes.
type Image struct {
	ID          string
	ContentType string
	Filename    string
	Data        []byte
	CreatedAt   time.Time
}

// Ref returns the metadata persisted in a Flow.
func (i Image) Ref() ImageRef {
	return ImageRef{
		ID:          i.ID,
		ContentType: i.ContentType,
		Filename:    i.Filename,
		Size:        int64(len(i.Data)),
	}
}

// ImageRef points at an Image held in the image store.
type ImageRef struct {
	ID          string `json:"id"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename,omitempty"`
	Size        int64  `json:"size"`
}

// PreviewURL is the locally addressable URL the studio page renders.
func (r ImageRef) PreviewURL() string { return "/studio/images/" + r.ID }

// IsImageMediaType reports whether ct is an image/* media type.
func IsImageMediaType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "image/")
}

// ResultFilename names a downloaded result after the moment it was requested.
func ResultFilename(at time.Time) string {
	return "artisan-studio-" + formatMillis(at) + ".png"
}
