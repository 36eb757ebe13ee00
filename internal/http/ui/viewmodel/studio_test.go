package viewmodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakritea/artisan-studio/internal/domain/studio"
)

func TestNewStudio_SubmitEnabledOnlyWithBothImages(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	content := studio.ImageRef{ID: "c1", ContentType: "image/png", Filename: "cat.png", Size: 10}
	style := studio.ImageRef{ID: "s1", ContentType: "image/png", Filename: "wave.png", Size: 20}

	tests := []struct {
		name       string
		content    *studio.ImageRef
		style      *studio.ImageRef
		wantSubmit bool
	}{
		{"neither", nil, nil, false},
		{"content only", &content, nil, false},
		{"style only", nil, &style, false},
		{"both", &content, &style, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := studio.NewFlow("flow", now)
			f.Content, f.Style = tt.content, tt.style
			v := NewStudio(f, StudioOptions{})
			assert.Equal(t, tt.wantSubmit, v.CanSubmit)
			require.Len(t, v.Slots, 2)
			assert.Equal(t, tt.content != nil, v.Slots[0].Filled)
			assert.Equal(t, tt.style != nil, v.Slots[1].Filled)
		})
	}
}

func TestNewStudio_ResultAndErrors(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	f := studio.NewFlow("flow", now)
	f.Content = &studio.ImageRef{ID: "c1"}
	f.Style = &studio.ImageRef{ID: "s1"}
	_, err := f.Begin(now)
	require.NoError(t, err)
	require.NoError(t, f.Succeed(studio.ImageRef{ID: "r1"}, now))

	v := NewStudio(f, StudioOptions{FieldErrors: map[string]string{"style_image": "bad"}})
	assert.True(t, v.Succeeded)
	assert.Equal(t, "/studio/result?v=r1", v.ResultURL)
	assert.Equal(t, "/studio/result/download", v.DownloadURL)
	assert.Equal(t, now, v.FinishedAt)
	assert.Equal(t, "/studio/images/c1", v.Slots[0].PreviewURL)
	assert.Equal(t, "bad", v.Slots[1].Error)
	assert.Empty(t, v.Slots[0].Error)
}
