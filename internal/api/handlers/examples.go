package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Conceptual-Machines/text2midi-studio/internal/examples"
	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/Conceptual-Machines/text2midi-studio/internal/services"
	"github.com/gin-gonic/gin"
)

type ExamplesHandler struct {
	studio *services.Studio
	gen    *GenerationHandler
}

func NewExamplesHandler(studio *services.Studio) *ExamplesHandler {
	return &ExamplesHandler{
		studio: studio,
		gen:    NewGenerationHandler(studio),
	}
}

// ExampleItem is one gallery row
type ExampleItem struct {
	Index       int     `json:"index"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxLength   int     `json:"max_length"`
	Cached      bool    `json:"cached"`
	ArtifactURL string  `json:"artifact_url,omitempty"`
}

// List returns the example gallery in display order
func (h *ExamplesHandler) List(c *gin.Context) {
	cache := h.studio.Examples()
	entries := cache.Gallery().Entries()

	items := make([]ExampleItem, 0, len(entries))
	for i, e := range entries {
		item := ExampleItem{
			Index:       i,
			Prompt:      e.Prompt,
			Temperature: e.Temperature,
			MaxLength:   e.MaxLength,
		}
		if result, ok := cache.Cached(i); ok {
			item.Cached = true
			item.ArtifactURL = generator.ArtifactURL(result.ArtifactName)
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"examples":      items,
		"cache_enabled": cache.Enabled(),
	})
}

// Generate runs a gallery entry, serving the cached result when there is one
func (h *ExamplesHandler) Generate(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "example index must be an integer"})
		return
	}

	result, cached, err := h.studio.RunExample(c.Request.Context(), index, c.GetString("request_id"))
	if errors.Is(err, examples.ErrUnknownExample) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		respondGenerationError(c, err)
		return
	}

	h.gen.respond(c, result, cached)
}
