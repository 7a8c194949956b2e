package models

import "time"

// MIDISummary describes a generated Standard MIDI File
type MIDISummary struct {
	Tracks     int   `json:"tracks"`
	Notes      int   `json:"notes"`
	DurationMS int64 `json:"duration_ms"`
	SizeBytes  int64 `json:"size_bytes"`
}

// GenerationResult is what the adapter hands back for one request.
// Output is the opaque value reported by the model runner; it is logged and
// surfaced to the caller unchanged.
type GenerationResult struct {
	ID           string            `json:"id"`
	Request      GenerationRequest `json:"request"`
	Output       string            `json:"output"`
	ArtifactName string            `json:"artifact_name"`
	ArtifactPath string            `json:"-"`
	MIDI         *MIDISummary      `json:"midi,omitempty"`
	Model        string            `json:"model"`
	Duration     time.Duration     `json:"-"`
	CreatedAt    time.Time         `json:"created_at"`
}
