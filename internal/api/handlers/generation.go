package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/Conceptual-Machines/text2midi-studio/internal/logger"
	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"github.com/Conceptual-Machines/text2midi-studio/internal/services"
	"github.com/gin-gonic/gin"
)

type GenerationHandler struct {
	studio *services.Studio
}

func NewGenerationHandler(studio *services.Studio) *GenerationHandler {
	return &GenerationHandler{studio: studio}
}

// GenerateRequest carries the form parameters; omitted numbers take the form defaults
type GenerateRequest struct {
	Prompt      string   `json:"prompt"`
	Temperature *float64 `json:"temperature" binding:"omitempty,gte=0.9,lte=1.1"`
	MaxLength   *int     `json:"max_length" binding:"omitempty,gte=300,lte=2000"`
}

// Generate runs the music model for one prompt
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	genReq := models.NewGenerationRequest(req.Prompt, req.Temperature, req.MaxLength)
	result, err := h.studio.Generate(c.Request.Context(), genReq, c.GetString("request_id"))
	if err != nil {
		respondGenerationError(c, err)
		return
	}

	h.respond(c, result, false)
}

func (h *GenerationHandler) respond(c *gin.Context, result *models.GenerationResult, cached bool) {
	response, err := newGenerationResponse(c, result, cached)
	if err != nil {
		logger.Error("Failed to render player", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": playerRenderError})
		return
	}
	c.JSON(http.StatusOK, response)
}

// respondGenerationError maps adapter errors to status codes: invalid
// parameters are the caller's fault, everything else is the model's
func respondGenerationError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, generator.ErrInvalidRequest) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"error":      err.Error(),
		"request_id": c.GetString("request_id"),
	})
}
