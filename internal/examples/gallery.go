package examples

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"github.com/Conceptual-Machines/text2midi-studio/pkg/embedded"
)

// Gallery is the fixed list of example requests shown under the form
type Gallery struct {
	entries []models.ExampleEntry
}

var (
	defaultGallery     *Gallery
	defaultGalleryErr  error
	defaultGalleryOnce sync.Once
)

// Default returns the embedded gallery, parsed once
func Default() (*Gallery, error) {
	defaultGalleryOnce.Do(func() {
		defaultGallery, defaultGalleryErr = Parse(embedded.ExamplesJSON)
	})
	return defaultGallery, defaultGalleryErr
}

// Parse decodes and validates a JSON list of examples
func Parse(data []byte) (*Gallery, error) {
	var entries []models.ExampleEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse examples: %w", err)
	}
	for i, e := range entries {
		if err := e.Request().Validate(); err != nil {
			return nil, fmt.Errorf("example %d: %w", i, err)
		}
	}
	return &Gallery{entries: entries}, nil
}

// Entries returns a copy of the examples
func (g *Gallery) Entries() []models.ExampleEntry {
	return append([]models.ExampleEntry(nil), g.entries...)
}

// Len returns the number of examples
func (g *Gallery) Len() int {
	return len(g.entries)
}

// Get returns the example at index (zero based)
func (g *Gallery) Get(index int) (models.ExampleEntry, bool) {
	if index < 0 || index >= len(g.entries) {
		return models.ExampleEntry{}, false
	}
	return g.entries[index], true
}
