package handlers

import (
	"net/http"
	"os"

	"github.com/Conceptual-Machines/text2midi-studio/internal/config"
	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/gin-gonic/gin"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

type HealthHandler struct {
	gen *generator.Service
}

func NewHealthHandler(gen *generator.Service) *HealthHandler {
	return &HealthHandler{gen: gen}
}

// HealthCheck always answers 200. Status is "degraded" when no model runner
// is configured or the artifact directory is gone.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	store := h.gen.Store()

	status := statusHealthy
	artifactStatus := "ok"
	if info, err := os.Stat(store.BasePath()); err != nil || !info.IsDir() {
		status = statusDegraded
		artifactStatus = "missing"
	}

	model := h.gen.ModelName()
	configured := model != generator.Unconfigured().Name()
	if !configured {
		status = statusDegraded
	}

	mode := config.ArtifactModePerRequest
	if store.Shared() {
		mode = config.ArtifactModeShared
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"generator": gin.H{
			"model":      model,
			"configured": configured,
		},
		"artifacts": gin.H{
			"status": artifactStatus,
			"mode":   mode,
		},
	})
}
