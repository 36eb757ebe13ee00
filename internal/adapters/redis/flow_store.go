package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prakritea/artisan-studio/internal/domain/studio"
	"github.com/prakritea/artisan-studio/internal/ports"
)

const (
	// DefaultFlowPrefix is the key prefix for studio flows.
	DefaultFlowPrefix = "studio:flow:"
	maxUpdateAttempts = 5
)

// ErrFlowContention is returned when optimistic updates keep colliding.
var ErrFlowContention = errors.New("studio flow update contention")

// FlowStore keeps one JSON document per flow and updates it with WATCH/MULTI.
type FlowStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

var _ ports.FlowStore = (*FlowStore)(nil)

// FlowStoreOptions configures a FlowStore.
type FlowStoreOptions struct {
	Prefix string
	// TTL expires abandoned flows. Zero keeps them.
	TTL time.Duration
	Now func() time.Time
}

// NewFlowStore creates a Redis flow store.
func NewFlowStore(client redis.UniversalClient, opts FlowStoreOptions) *FlowStore {
	s := &FlowStore{client: client, prefix: opts.Prefix, ttl: opts.TTL, now: opts.Now}
	if s.prefix == "" {
		s.prefix = DefaultFlowPrefix
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Get returns the stored flow or ports.ErrNotFound.
func (s *FlowStore) Get(ctx context.Context, id string) (studio.Flow, error) {
	return s.load(ctx, s.client, id)
}

// Update runs fn against the latest flow and writes the result only if no
// other writer touched the key in between.
func (s *FlowStore) Update(ctx context.Context, id string, fn func(*studio.Flow) error) (studio.Flow, error) {
	if id == "" {
		return studio.Flow{}, errors.New("flow ID cannot be empty")
	}
	key := s.prefix + id

	var updated studio.Flow
	txf := func(tx *redis.Tx) error {
		flow, err := s.load(ctx, tx, id)
		switch {
		case errors.Is(err, ports.ErrNotFound):
			flow = studio.NewFlow(id, s.now())
		case err != nil:
			return err
		}

		if err := fn(&flow); err != nil {
			return err
		}

		data, err := json.Marshal(flow)
		if err != nil {
			return fmt.Errorf("marshal flow: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = flow
		return nil
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return studio.Flow{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return studio.Flow{}, ctxErr
		}
	}
	return studio.Flow{}, ErrFlowContention
}

// Delete removes a flow.
func (s *FlowStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete flow: %w", err)
	}
	return nil
}

func (s *FlowStore) load(ctx context.Context, c redis.Cmdable, id string) (studio.Flow, error) {
	if id == "" {
		return studio.Flow{}, ports.ErrNotFound
	}
	data, err := c.Get(ctx, s.prefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return studio.Flow{}, ports.ErrNotFound
		}
		return studio.Flow{}, fmt.Errorf("redis get flow: %w", err)
	}
	var flow studio.Flow
	if err := json.Unmarshal(data, &flow); err != nil {
		return studio.Flow{}, fmt.Errorf("unmarshal flow: %w", err)
	}
	return flow, nil
}
