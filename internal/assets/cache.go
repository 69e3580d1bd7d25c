// Package assets produces the brand mark and hero image, generating each at most
// once per cache key.
package assets

import (
	"context"
	"fmt"

	"github.com/dvloznov/smartpause/internal/domain"
	"github.com/dvloznov/smartpause/internal/kv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Cache fronts the image model with a persistent key/value store.
type Cache struct {
	store kv.Store
	model ImageModel
	log   zerolog.Logger
}

// NewCache creates a Cache.
func NewCache(store kv.Store, model ImageModel, log zerolog.Logger) *Cache {
	return &Cache{store: store, model: model, log: log}
}

// Fetch returns the data URI payload for kind.
func (c *Cache) Fetch(ctx context.Context, kind domain.AssetKind) (string, error) {
	payload, _, err := c.FetchWithSource(ctx, kind)
	return payload, err
}

// FetchWithSource is Fetch that also reports whether the payload came from the store.
//
// A read error is treated as a miss. A write error is logged and the freshly
// generated payload is still returned.
func (c *Cache) FetchWithSource(ctx context.Context, kind domain.AssetKind) (payload string, cached bool, err error) {
	key := CacheKey(kind)
	if key == "" {
		return "", false, fmt.Errorf("FetchWithSource: unknown asset kind %q", kind)
	}
	log := c.log.With().Str("asset", string(kind)).Str("key", key).Logger()

	v, ok, err := c.store.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Asset cache read failed, regenerating")
	case ok:
		log.Debug().Msg("Asset cache hit")
		return v, true, nil
	}

	img, err := c.model.GenerateImage(ctx, Prompt(kind))
	if err != nil {
		return "", false, fmt.Errorf("FetchWithSource: generate %s: %w", kind, err)
	}

	payload = domain.EncodeDataURI(img.MIMEType, img.Data)
	if err := c.store.Set(ctx, key, payload); err != nil {
		log.Error().Err(err).Msg("Failed to persist generated asset")
	}
	log.Info().Int("bytes", len(img.Data)).Msg("Generated asset")

	return payload, false, nil
}

// AssetSink receives loaded payloads. state.Store implements it.
type AssetSink interface {
	SetAsset(kind domain.AssetKind, payload string) bool
}

// LoadAll fetches every asset kind concurrently and writes each success into sink.
// Failures are logged and leave the kind absent so clients fall back to their default.
// It returns once every fetch has finished; run it in its own goroutine.
func (c *Cache) LoadAll(ctx context.Context, sink AssetSink) {
	var g errgroup.Group
	for _, kind := range domain.AssetKinds {
		g.Go(func() error {
			payload, err := c.Fetch(ctx, kind)
			if err != nil {
				c.log.Warn().Err(err).Str("asset", string(kind)).Msg("Asset unavailable, keeping default")
				return nil
			}
			sink.SetAsset(kind, payload)
			return nil
		})
	}
	_ = g.Wait()
}
