package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prakritea/artisan-studio/internal/domain/studio"
	"github.com/prakritea/artisan-studio/internal/ports"
)

// FlowStore serialises updates with a single mutex. A flow expires ttl after
// its last update, matching the images it refers to.
type FlowStore struct {
	mu    sync.Mutex
	flows map[string]studio.Flow
	ttl   time.Duration
	now   func() time.Time
}

var _ ports.FlowStore = (*FlowStore)(nil)

// NewFlowStore creates an empty flow store. A zero ttl never expires.
func NewFlowStore(ttl time.Duration) *FlowStore {
	return &FlowStore{flows: make(map[string]studio.Flow), ttl: ttl, now: time.Now}
}

func (s *FlowStore) expired(f studio.Flow, now time.Time) bool {
	return s.ttl > 0 && !now.Before(f.UpdatedAt.Add(s.ttl))
}

func (s *FlowStore) Get(_ context.Context, id string) (studio.Flow, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[id]
	if !ok || s.expired(f, now) {
		return studio.Flow{}, ports.ErrNotFound
	}
	return cloneFlow(f), nil
}

func (s *FlowStore) Update(_ context.Context, id string, fn func(*studio.Flow) error) (studio.Flow, error) {
	if id == "" {
		return studio.Flow{}, errors.New("flow ID cannot be empty")
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[id]
	if ok && !s.expired(f, now) {
		f = cloneFlow(f)
	} else {
		f = studio.NewFlow(id, now)
	}
	if err := fn(&f); err != nil {
		return studio.Flow{}, err
	}
	s.flows[id] = f
	return cloneFlow(f), nil
}

func (s *FlowStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.flows, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops expired flows and reports how many were removed.
func (s *FlowStore) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, f := range s.flows {
		if s.expired(f, now) {
			delete(s.flows, id)
			n++
		}
	}
	return n
}

// cloneFlow copies the referenced images so callers cannot mutate stored state.
func cloneFlow(f studio.Flow) studio.Flow {
	f.Content = cloneRef(f.Content)
	f.Style = cloneRef(f.Style)
	f.Generation.Result = cloneRef(f.Generation.Result)
	return f
}

func cloneRef(r *studio.ImageRef) *studio.ImageRef {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
