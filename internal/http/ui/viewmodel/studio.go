package viewmodel

import (
	"time"

	"github.com/prakritea/artisan-studio/internal/domain/studio"
)

// StudioSlot is one image drop zone.
type StudioSlot struct {
	Slot       string
	Label      string
	FormField  string
	Filled     bool
	PreviewURL string
	Filename   string
	Size       int64
	Error      string
}

// Studio is everything the studio panel renders.
type Studio struct {
	State          studio.State
	Slots          []StudioSlot
	CanSubmit      bool
	Submitting     bool
	Succeeded      bool
	ResultURL      string
	DownloadURL    string
	FinishedAt     time.Time
	Failure        string
	Error          string
	Notice         string
	MaxUploadBytes int64
}

// StudioOptions carries request-scoped messages into NewStudio.
type StudioOptions struct {
	MaxUploadBytes int64
	// FieldErrors is keyed by form field (content_image, style_image).
	FieldErrors map[string]string
	Error       string
	Notice      string
}

// NewStudio builds the panel for f.
func NewStudio(f studio.Flow, opts StudioOptions) Studio {
	v := Studio{
		State:          f.State(),
		CanSubmit:      f.CanSubmit(),
		Submitting:     f.State() == studio.StateSubmitting,
		Failure:        f.Generation.Failure,
		Error:          opts.Error,
		Notice:         opts.Notice,
		MaxUploadBytes: opts.MaxUploadBytes,
	}
	for _, slot := range []struct {
		slot  studio.Slot
		label string
	}{
		{studio.SlotContent, "Content image"},
		{studio.SlotStyle, "Style image"},
	} {
		s := StudioSlot{
			Slot:      string(slot.slot),
			Label:     slot.label,
			FormField: slot.slot.FormField(),
			Error:     opts.FieldErrors[slot.slot.FormField()],
		}
		if ref := f.Image(slot.slot); ref != nil {
			s.Filled = true
			s.PreviewURL = ref.PreviewURL()
			s.Filename = ref.Filename
			s.Size = ref.Size
		}
		v.Slots = append(v.Slots, s)
	}
	if v.State == studio.StateSucceeded && f.Generation.Result != nil {
		v.Succeeded = true
		v.ResultURL = "/studio/result?v=" + f.Generation.Result.ID
		v.DownloadURL = "/studio/result/download"
		v.FinishedAt = f.Generation.FinishedAt
	}
	return v
}
