package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"fuelplanner/internal/log"
)

// CachedGenerator wraps a TextGenerator and caches responses by prompt in a
// JSON file, so an unchanged plan is not briefed twice.
type CachedGenerator struct {
	realGen       TextGenerator
	cache         map[string]string
	cacheFilePath string
	mu            sync.Mutex
}

// NewCachedGenerator loads the cache at cacheFilePath, if any.
func NewCachedGenerator(realGen TextGenerator, cacheFilePath string) (*CachedGenerator, error) {
	c := &CachedGenerator{
		realGen:       realGen,
		cache:         make(map[string]string),
		cacheFilePath: cacheFilePath,
	}

	cacheDir := filepath.Dir(cacheFilePath)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", cacheDir, err)
	}

	data, err := os.ReadFile(cacheFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", cacheFilePath, err)
	}

	if err := json.Unmarshal(data, &c.cache); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data from %s: %w", cacheFilePath, err)
	}

	log.Logger.Debug().Int("entries", len(c.cache)).Str("path", cacheFilePath).Msg("loaded briefing cache")
	return c, nil
}

// GenerateContent returns the cached response for prompt, calling the wrapped
// generator on a miss. Cache hits report zero token usage.
func (c *CachedGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	key := promptKey(prompt)

	c.mu.Lock()
	content, ok := c.cache[key]
	c.mu.Unlock()
	if ok {
		return ContentResponse{Content: content}, nil
	}

	resp, err := c.realGen.GenerateContent(ctx, prompt)
	if err != nil {
		return ContentResponse{}, fmt.Errorf("failed to generate content using real generator: %w", err)
	}

	c.mu.Lock()
	c.cache[key] = resp.Content
	c.mu.Unlock()
	return resp, nil
}

// SaveCache persists the current in-memory cache to the file system.
func (c *CachedGenerator) SaveCache() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := os.WriteFile(c.cacheFilePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.cacheFilePath, err)
	}
	return nil
}

// Close saves the cache and closes the wrapped generator if it holds resources.
func (c *CachedGenerator) Close() error {
	if err := c.SaveCache(); err != nil {
		return err
	}
	if closer, ok := c.realGen.(Closer); ok {
		return closer.Close()
	}
	return nil
}

func promptKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
