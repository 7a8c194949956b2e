package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"

	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/Conceptual-Machines/text2midi-studio/internal/logger"
	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"github.com/Conceptual-Machines/text2midi-studio/internal/services"
	"github.com/Conceptual-Machines/text2midi-studio/internal/web/templates"
	"github.com/Conceptual-Machines/text2midi-studio/pkg/embedded"
	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

const (
	pageTitle = "Text to MIDI"

	contentTypeCSS = "text/css; charset=utf-8"
	contentTypeJS  = "text/javascript; charset=utf-8"
)

var errInvalidForm = errors.New("invalid form")

type WebHandler struct {
	studio *services.Studio
}

func NewWebHandler(studio *services.Studio) *WebHandler {
	return &WebHandler{studio: studio}
}

// Home renders the demo page. ?example=n prefills the form with gallery entry n (zero-based).
func (h *WebHandler) Home(c *gin.Context) {
	form := templates.DefaultForm()
	if raw := c.Query("example"); raw != "" {
		if index, err := strconv.Atoi(raw); err == nil {
			if entry, ok := h.studio.Examples().Gallery().Get(index); ok {
				form = formFromRequest(entry.Request())
			}
		}
	}

	h.renderPage(c, http.StatusOK, templates.IndexData{Form: form})
}

// Submit handles the plain form post and re-renders the whole page
func (h *WebHandler) Submit(c *gin.Context) {
	req, err := parseForm(c)
	if err != nil {
		h.renderPage(c, http.StatusBadRequest, templates.IndexData{
			Form:      templates.DefaultForm(),
			Error:     err.Error(),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	data := templates.IndexData{Form: formFromRequest(req)}
	result, err := h.studio.Generate(c.Request.Context(), req, c.GetString("request_id"))
	if err != nil {
		data.Error = err.Error()
		data.RequestID = c.GetString("request_id")
		h.renderPage(c, generationStatus(err), data)
		return
	}

	resultData := newResultData(c, result)
	data.Result = &resultData
	h.renderPage(c, http.StatusOK, data)
}

// Generate returns the player and download fragment for htmx
func (h *WebHandler) Generate(c *gin.Context) {
	req, err := parseForm(c)
	if err != nil {
		render(c, http.StatusBadRequest, templates.GenerationError(err.Error(), c.GetString("request_id")))
		return
	}

	result, err := h.studio.Generate(c.Request.Context(), req, c.GetString("request_id"))
	if err != nil {
		render(c, generationStatus(err), templates.GenerationError(err.Error(), c.GetString("request_id")))
		return
	}

	render(c, http.StatusOK, templates.Result(newResultData(c, result)))
}

// Styles serves the page stylesheet
func (h *WebHandler) Styles(c *gin.Context) {
	c.Data(http.StatusOK, contentTypeCSS, embedded.StylesCSS)
}

// Script serves the page script
func (h *WebHandler) Script(c *gin.Context) {
	c.Data(http.StatusOK, contentTypeJS, embedded.AppJS)
}

func (h *WebHandler) renderPage(c *gin.Context, status int, data templates.IndexData) {
	data.Title = pageTitle
	data.Examples = h.studio.Examples().Gallery().Entries()
	render(c, status, templates.Index(data))
}

func render(c *gin.Context, status int, component templ.Component) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		logger.Error("Failed to render template", err, logger.WithContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render template"})
	}
}

// parseForm reads the three form fields; empty numeric fields take the defaults
func parseForm(c *gin.Context) (models.GenerationRequest, error) {
	var temperature *float64
	if raw := c.PostForm("temperature"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return models.GenerationRequest{}, fmt.Errorf("%w: temperature must be a number", errInvalidForm)
		}
		temperature = &v
	}

	var maxLength *int
	if raw := c.PostForm("max_length"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return models.GenerationRequest{}, fmt.Errorf("%w: max_length must be an integer", errInvalidForm)
		}
		maxLength = &v
	}

	return models.NewGenerationRequest(c.PostForm("prompt"), temperature, maxLength), nil
}

func generationStatus(err error) int {
	if errors.Is(err, generator.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func formFromRequest(req models.GenerationRequest) templates.FormValues {
	return templates.FormValues{
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxLength:   req.MaxLength,
	}
}

func newResultData(c *gin.Context, result *models.GenerationResult) templates.ResultData {
	artifactURL := generator.ArtifactURL(result.ArtifactName)
	return templates.ResultData{
		RequestID:   c.GetString("request_id"),
		PlayerSrc:   artifactURL,
		DownloadURL: generator.DownloadURL(result.ArtifactName),
		FileName:    path.Base(result.ArtifactName),
		Output:      result.Output,
		MIDI:        result.MIDI,
	}
}
