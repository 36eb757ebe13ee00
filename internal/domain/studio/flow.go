package studio

import (
	"errors"
	"strconv"
	"time"
)

var (
	// ErrSubmissionInFlight is returned when a flow already has a pending generation.
	ErrSubmissionInFlight = errors.New("a generation is already in progress")
	// ErrNotReady is returned when a submission is attempted without both images.
	ErrNotReady = errors.New("both a content image and a style image are required")
	// ErrInvalidTransition is returned for transitions the state machine does not allow.
	ErrInvalidTransition = errors.New("invalid studio transition")
)

// State is the observable phase of a Flow.
type State string

const (
	StateEmpty           State = "empty"
	StatePartiallyLoaded State = "partially_loaded"
	StateReady           State = "ready"
	StateSubmitting      State = "submitting"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
)

// GenerationStatus tracks the result of the latest submission.
type GenerationStatus string

const (
	GenerationIdle    GenerationStatus = "idle"
	GenerationPending GenerationStatus = "pending"
	GenerationSuccess GenerationStatus = "success"
	GenerationFailed  GenerationStatus = "failed"
)

// Generation is the outcome of the latest submission.
type Generation struct {
	Status     GenerationStatus `json:"status"`
	Result     *ImageRef        `json:"result,omitempty"`
	Failure    string           `json:"failure,omitempty"`
	StartedAt  time.Time        `json:"started_at,omitzero"`
	FinishedAt time.Time        `json:"finished_at,omitzero"`
}

// Flow is one visitor's style-transfer composition.
//
// Empty/PartiallyLoaded/Ready derive from which images are present;
// Submitting/Succeeded/Failed derive from the generation status.
type Flow struct {
	ID         string     `json:"id"`
	Content    *ImageRef  `json:"content,omitempty"`
	Style      *ImageRef  `json:"style,omitempty"`
	Generation Generation `json:"generation"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewFlow returns an empty flow.
func NewFlow(id string, now time.Time) Flow {
	return Flow{ID: id, Generation: Generation{Status: GenerationIdle}, UpdatedAt: now}
}

// State reports the current phase.
func (f Flow) State() State {
	switch f.Generation.Status {
	case GenerationPending:
		return StateSubmitting
	case GenerationSuccess:
		return StateSucceeded
	case GenerationFailed:
		return StateFailed
	}
	switch {
	case f.Content != nil && f.Style != nil:
		return StateReady
	case f.Content != nil || f.Style != nil:
		return StatePartiallyLoaded
	default:
		return StateEmpty
	}
}

// CanSubmit reports whether the generate trigger is enabled.
func (f Flow) CanSubmit() bool {
	return f.Content != nil && f.Style != nil && f.Generation.Status != GenerationPending
}

// Image returns the image in slot, or nil.
func (f Flow) Image(slot Slot) *ImageRef {
	switch slot {
	case SlotContent:
		return f.Content
	case SlotStyle:
		return f.Style
	default:
		return nil
	}
}

// Owns reports whether imageID is one of this flow's source or result images.
func (f Flow) Owns(imageID string) bool {
	if imageID == "" {
		return false
	}
	for _, ref := range f.refs() {
		if ref.ID == imageID {
			return true
		}
	}
	return false
}

// SetImage puts ref in slot. Any image it replaces, and a finished result, are
// returned so the caller can delete them.
func (f *Flow) SetImage(slot Slot, ref ImageRef, now time.Time) ([]ImageRef, error) {
	if f.Generation.Status == GenerationPending {
		return nil, ErrSubmissionInFlight
	}

	var discarded []ImageRef
	switch slot {
	case SlotContent:
		discarded = appendRef(discarded, f.Content, ref.ID)
		f.Content = &ref
	case SlotStyle:
		discarded = appendRef(discarded, f.Style, ref.ID)
		f.Style = &ref
	default:
		return nil, ErrInvalidTransition
	}

	// A new source image starts a new composition.
	if f.Generation.Status != GenerationIdle {
		discarded = appendRef(discarded, f.Generation.Result, "")
		f.Generation = Generation{Status: GenerationIdle}
	}
	f.UpdatedAt = now
	return discarded, nil
}

// Begin moves a ready flow to Submitting. A previous result is returned for deletion.
func (f *Flow) Begin(now time.Time) ([]ImageRef, error) {
	if f.Generation.Status == GenerationPending {
		return nil, ErrSubmissionInFlight
	}
	if f.Content == nil || f.Style == nil {
		return nil, ErrNotReady
	}
	discarded := appendRef(nil, f.Generation.Result, "")
	f.Generation = Generation{Status: GenerationPending, StartedAt: now}
	f.UpdatedAt = now
	return discarded, nil
}

// Succeed records the generated image.
func (f *Flow) Succeed(result ImageRef, now time.Time) error {
	if f.Generation.Status != GenerationPending {
		return ErrInvalidTransition
	}
	f.Generation.Status = GenerationSuccess
	f.Generation.Result = &result
	f.Generation.Failure = ""
	f.Generation.FinishedAt = now
	f.UpdatedAt = now
	return nil
}

// Fail records a failed submission. Both source images are kept so the
// visitor can retry.
func (f *Flow) Fail(reason string, now time.Time) error {
	if f.Generation.Status != GenerationPending {
		return ErrInvalidTransition
	}
	f.Generation.Status = GenerationFailed
	f.Generation.Result = nil
	f.Generation.Failure = reason
	f.Generation.FinishedAt = now
	f.UpdatedAt = now
	return nil
}

// ExpireLease fails a pending generation that started lease or more before
// now. It reports whether the flow changed. A non-positive lease never expires.
func (f *Flow) ExpireLease(lease time.Duration, reason string, now time.Time) bool {
	if lease <= 0 || f.Generation.Status != GenerationPending {
		return false
	}
	if now.Sub(f.Generation.StartedAt) < lease {
		return false
	}
	return f.Fail(reason, now) == nil
}

// HoldsLease reports whether the pending generation is the one begun at startedAt.
func (f Flow) HoldsLease(startedAt time.Time) bool {
	return f.Generation.Status == GenerationPending && f.Generation.StartedAt.Equal(startedAt)
}

// Reset discards both source images and the result.
func (f *Flow) Reset(now time.Time) ([]ImageRef, error) {
	if f.Generation.Status == GenerationPending {
		return nil, ErrSubmissionInFlight
	}
	discarded := f.refs()
	*f = NewFlow(f.ID, now)
	return discarded, nil
}

func (f Flow) refs() []ImageRef {
	var refs []ImageRef
	refs = appendRef(refs, f.Content, "")
	refs = appendRef(refs, f.Style, "")
	refs = appendRef(refs, f.Generation.Result, "")
	return refs
}

// appendRef appends *ref unless it is nil or has the excluded id.
func appendRef(refs []ImageRef, ref *ImageRef, exclude string) []ImageRef {
	if ref == nil || ref.ID == "" || ref.ID == exclude {
		return refs
	}
	return append(refs, *ref)
}

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
