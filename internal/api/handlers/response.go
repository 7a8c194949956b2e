package handlers

import (
	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"github.com/Conceptual-Machines/text2midi-studio/internal/web/templates"
	"github.com/gin-gonic/gin"
)

// GenerationResponse is the JSON shape of a finished generation
type GenerationResponse struct {
	RequestID   string              `json:"request_id"`
	Result      string              `json:"result"`
	ArtifactURL string              `json:"artifact_url"`
	DownloadURL string              `json:"download_url"`
	PlayerHTML  string              `json:"player_html"`
	MIDI        *models.MIDISummary `json:"midi"`
	Model       string              `json:"model"`
	DurationMS  int64               `json:"duration_ms"`
	Cached      bool                `json:"cached,omitempty"`
}

func newGenerationResponse(c *gin.Context, result *models.GenerationResult, cached bool) (GenerationResponse, error) {
	artifactURL := generator.ArtifactURL(result.ArtifactName)
	playerHTML, err := templates.RenderString(c.Request.Context(), templates.Player(artifactURL))
	if err != nil {
		return GenerationResponse{}, err
	}

	return GenerationResponse{
		RequestID:   c.GetString("request_id"),
		Result:      result.Output,
		ArtifactURL: artifactURL,
		DownloadURL: generator.DownloadURL(result.ArtifactName),
		PlayerHTML:  playerHTML,
		MIDI:        result.MIDI,
		Model:       result.Model,
		DurationMS:  result.Duration.Milliseconds(),
		Cached:      cached,
	}, nil
}
