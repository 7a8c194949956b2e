package templates

//go:generate templ generate

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"github.com/a-h/templ"
)

// PlayerScriptURL bundles tone.js, magenta core and html-midi-player for the
// <midi-player> and <midi-visualizer> elements
const PlayerScriptURL = "https://cdn.jsdelivr.net/combine/npm/tone@14.7.58,npm/@magenta/music@1.23.1/es6/core.js,npm/focus-visible@5,npm/html-midi-player@1.5.0"

// VisualizerID is the element id the player draws its piano roll into
const VisualizerID = "myVisualizer"

const (
	htmxScriptURL = "https://unpkg.com/htmx.org@1.9.12"
	defaultTitle  = "Text to MIDI"
)

// FormValues prefill the generation form
type FormValues struct {
	Prompt      string
	Temperature float64
	MaxLength   int
}

// DefaultForm returns the form with the widget defaults
func DefaultForm() FormValues {
	return FormValues{
		Temperature: models.DefaultTemperature,
		MaxLength:   models.DefaultMaxLength,
	}
}

// IndexData is everything the demo page needs
type IndexData struct {
	Title    string
	Form     FormValues
	Examples []models.ExampleEntry
	Result   *ResultData
	Error    string
	// RequestID of the failed request, shown next to Error
	RequestID string
}

func (d IndexData) pageTitle() string {
	if d.Title == "" {
		return defaultTitle
	}
	return d.Title
}

// ResultData is what the output area shows after a successful generation
type ResultData struct {
	RequestID   string
	PlayerSrc   string
	DownloadURL string
	FileName    string
	Output      string
	MIDI        *models.MIDISummary
	Cached      bool
}

// RenderString renders a component into a string
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func summary(m *models.MIDISummary, cached bool) string {
	s := fmt.Sprintf("%d track(s), %d notes, %s", m.Tracks, m.Notes,
		(time.Duration(m.DurationMS) * time.Millisecond).Round(100*time.Millisecond))
	if cached {
		s += " (cached example)"
	}
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
