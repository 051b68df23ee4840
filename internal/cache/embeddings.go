package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// EmbeddingCache stores embedding vectors keyed by model and input text.
type EmbeddingCache struct {
	Dir         string
	StrictPerms bool
}

// KeyFrom builds a cache key from the model name and the embedded text.
func KeyFrom(model, text string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + text))
	return hex.EncodeToString(h[:])
}

func (c *EmbeddingCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".vec.json")
}

// Get returns the cached vector if present. A miss is not an error.
func (c *EmbeddingCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	if c == nil || c.Dir == "" {
		return nil, false, errors.New("cache dir not configured")
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	var vec []float32
	if err := json.Unmarshal(b, &vec); err != nil {
		return nil, false, err
	}
	// Touch mtime on access so age-based purges keep hot entries.
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return vec, true, nil
}

// Save writes a vector to the cache.
func (c *EmbeddingCache) Save(_ context.Context, key string, vec []float32) error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	if err := ensureDir(c.Dir, c.StrictPerms); err != nil {
		return err
	}
	b, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return os.WriteFile(c.pathFor(key), b, fileMode(c.StrictPerms))
}
