package examples

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"golang.org/x/sync/singleflight"
)

// ErrUnknownExample is returned for an index outside the gallery
var ErrUnknownExample = errors.New("unknown example")

// Generator is the part of the generation adapter the cache needs
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
	GenerateAs(ctx context.Context, req models.GenerationRequest, keepAs string) (*models.GenerationResult, error)
}

// Cache runs examples on first use and keeps their results.
// Cached artifacts are copied under examples/ so later generations, which may
// overwrite the shared output file, cannot change them.
type Cache struct {
	gallery *Gallery
	gen     Generator
	enabled bool

	group   singleflight.Group
	mu      sync.RWMutex
	results map[int]*models.GenerationResult
}

// NewCache creates a lazy example cache. When disabled every run calls the model.
func NewCache(gallery *Gallery, gen Generator, enabled bool) *Cache {
	return &Cache{
		gallery: gallery,
		gen:     gen,
		enabled: enabled,
		results: make(map[int]*models.GenerationResult),
	}
}

// Gallery returns the underlying gallery
func (c *Cache) Gallery() *Gallery {
	return c.gallery
}

// Enabled reports whether results are cached
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Cached returns the stored result for an example, if any
func (c *Cache) Cached(index int) (*models.GenerationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.results[index]
	return r, ok
}

// Run returns the result for an example, generating it on first use.
// The boolean reports whether the result came from the cache.
func (c *Cache) Run(ctx context.Context, index int) (*models.GenerationResult, bool, error) {
	entry, ok := c.gallery.Get(index)
	if !ok {
		return nil, false, fmt.Errorf("%w: %d", ErrUnknownExample, index)
	}

	if !c.enabled {
		result, err := c.gen.Generate(ctx, entry.Request())
		return result, false, err
	}

	if r, ok := c.Cached(index); ok {
		return r, true, nil
	}

	// The fill is shared by every waiter, so it runs detached from this
	// caller's context; the generator's own timeout still bounds it.
	// Only the caller that actually runs the model reports a fresh result.
	ran := false
	ch := c.group.DoChan(strconv.Itoa(index), func() (any, error) {
		// another caller may have filled the entry between Cached and DoChan
		if r, ok := c.Cached(index); ok {
			return r, nil
		}
		ran = true
		return c.fill(context.WithoutCancel(ctx), index, entry)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		return res.Val.(*models.GenerationResult), !ran, nil
	}
}

func (c *Cache) fill(ctx context.Context, index int, entry models.ExampleEntry) (*models.GenerationResult, error) {
	result, err := c.gen.GenerateAs(ctx, entry.Request(), ArtifactName(index))
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.results[index] = result
	c.mu.Unlock()
	return result, nil
}

// ArtifactName is the cached artifact name of an example
func ArtifactName(index int) string {
	return fmt.Sprintf("examples/example-%d.mid", index+1)
}
