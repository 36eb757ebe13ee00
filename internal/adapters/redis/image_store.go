package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prakritea/artisan-studio/internal/domain/studio"
	"github.com/prakritea/artisan-studio/internal/ports"
)

// DefaultImagePrefix is the key prefix for stored images.
const DefaultImagePrefix = "studio:image:"

const (
	fieldContentType = "content_type"
	fieldFilename    = "filename"
	fieldData        = "data"
	fieldCreatedAt   = "created_at"
)

// ImageStore keeps each image as a hash that expires after TTL.
type ImageStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.ImageStore = (*ImageStore)(nil)

// NewImageStore creates a Redis image store. A zero ttl keeps images until deleted.
func NewImageStore(client redis.UniversalClient, prefix string, ttl time.Duration) *ImageStore {
	if prefix == "" {
		prefix = DefaultImagePrefix
	}
	return &ImageStore{client: client, prefix: prefix, ttl: ttl}
}

// Put writes img under its ID.
func (s *ImageStore) Put(ctx context.Context, img studio.Image) error {
	if img.ID == "" {
		return errors.New("image ID cannot be empty")
	}
	key := s.prefix + img.ID

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldContentType, img.ContentType,
			fieldFilename, img.Filename,
			fieldData, img.Data,
			fieldCreatedAt, strconv.FormatInt(img.CreatedAt.UnixMilli(), 10),
		)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put image: %w", err)
	}
	return nil
}

// Get loads an image, returning ports.ErrNotFound when it is missing or expired.
func (s *ImageStore) Get(ctx context.Context, id string) (studio.Image, error) {
	if id == "" {
		return studio.Image{}, ports.ErrNotFound
	}
	fields, err := s.client.HGetAll(ctx, s.prefix+id).Result()
	if err != nil {
		return studio.Image{}, fmt.Errorf("redis get image: %w", err)
	}
	if len(fields) == 0 {
		return studio.Image{}, ports.ErrNotFound
	}

	img := studio.Image{
		ID:          id,
		ContentType: fields[fieldContentType],
		Filename:    fields[fieldFilename],
		Data:        []byte(fields[fieldData]),
	}
	if ms, parseErr := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); parseErr == nil {
		img.CreatedAt = time.UnixMilli(ms).UTC()
	}
	return img, nil
}

// Delete removes the given images. Missing ids are ignored.
func (s *ImageStore) Delete(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			keys = append(keys, s.prefix+id)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	// One DEL per key keeps cluster deployments free of cross-slot errors.
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Del(ctx, k)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete images: %w", err)
	}
	return nil
}
