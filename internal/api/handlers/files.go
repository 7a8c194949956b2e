package handlers

import (
	"errors"
	"net/http"
	"path"

	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/Conceptual-Machines/text2midi-studio/internal/logger"
	"github.com/gin-gonic/gin"
)

const midiContentType = "audio/midi"

type FilesHandler struct {
	store *generator.ArtifactStore
}

func NewFilesHandler(store *generator.ArtifactStore) *FilesHandler {
	return &FilesHandler{store: store}
}

// Serve returns a generated MIDI file. With ?download=1 it is sent as an attachment.
func (h *FilesHandler) Serve(c *gin.Context) {
	artifact, err := h.store.Resolve(c.Param("name"))
	if errors.Is(err, generator.ErrArtifactNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	if err != nil {
		logger.Error("Failed to resolve artifact", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}

	// the player fetches the same URL after every generation in shared mode
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", midiContentType)

	if c.Query(generator.DownloadParam) != "" {
		c.FileAttachment(artifact.Path, path.Base(artifact.Name))
		return
	}
	c.File(artifact.Path)
}
