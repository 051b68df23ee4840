package embed

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/pdpextract/internal/cache"
)

// CachedEmbedder serves vectors from an on-disk cache and sends only the
// misses to Inner. Model is part of the cache key.
type CachedEmbedder struct {
	Inner Embedder
	Cache *cache.EmbeddingCache
	Model string
}

func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, t := range texts {
		vec, ok, err := c.Cache.Get(ctx, cache.KeyFrom(c.Model, t))
		if err != nil {
			log.Debug().Err(err).Msg("embedding cache read")
		}
		if ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	vecs, err := c.Inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		out[missIdx[j]] = vec
		if err := c.Cache.Save(ctx, cache.KeyFrom(c.Model, missTexts[j]), vec); err != nil {
			log.Warn().Err(err).Msg("embedding cache write")
		}
	}
	return out, nil
}
