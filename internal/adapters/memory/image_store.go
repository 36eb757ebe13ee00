package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/prakritea/artisan-studio/internal/domain/studio"
	"github.com/prakritea/artisan-studio/internal/ports"
)

type imageEntry struct {
	img       studio.Image
	expiresAt time.Time
}

// ImageStore keeps image bytes in memory until deleted or expired.
type ImageStore struct {
	mu     sync.RWMutex
	images map[string]imageEntry
	ttl    time.Duration
	now    func() time.Time
}

var _ ports.ImageStore = (*ImageStore)(nil)

// NewImageStore creates a memory image store. A zero ttl never expires.
func NewImageStore(ttl time.Duration) *ImageStore {
	return &ImageStore{images: make(map[string]imageEntry), ttl: ttl, now: time.Now}
}

func (s *ImageStore) Put(_ context.Context, img studio.Image) error {
	if img.ID == "" {
		return errors.New("image ID cannot be empty")
	}
	img.Data = slices.Clone(img.Data)
	e := imageEntry{img: img}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.images[img.ID] = e
	s.mu.Unlock()
	return nil
}

func (s *ImageStore) Get(_ context.Context, id string) (studio.Image, error) {
	s.mu.RLock()
	e, ok := s.images[id]
	s.mu.RUnlock()
	if !ok || (!e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)) {
		return studio.Image{}, ports.ErrNotFound
	}
	img := e.img
	img.Data = slices.Clone(img.Data)
	return img, nil
}

func (s *ImageStore) Delete(_ context.Context, ids ...string) error {
	s.mu.Lock()
	for _, id := range ids {
		delete(s.images, id)
	}
	s.mu.Unlock()
	return nil
}

// Sweep drops expired images and reports how many were removed.
func (s *ImageStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.images {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(s.images, id)
			n++
		}
	}
	return n
}
