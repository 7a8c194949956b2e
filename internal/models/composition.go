package models

import (
	"fmt"
	"math"
)

// Parameter bounds and defaults of the generation form
const (
	MinTemperature     = 0.9
	MaxTemperature     = 1.1
	DefaultTemperature = 1.0
	TemperatureStep    = 0.01

	MinMaxLength     = 300
	MaxMaxLength     = 2000
	DefaultMaxLength = 800
	MaxLengthStep    = 100
)

// GenerationRequest holds the parameters forwarded to the music model.
// It is built once per submission and never mutated afterwards.
type GenerationRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxLength   int     `json:"max_length"`
}

// NewGenerationRequest builds a request, substituting the form defaults for nil parameters
func NewGenerationRequest(prompt string, temperature *float64, maxLength *int) GenerationRequest {
	req := GenerationRequest{
		Prompt:      prompt,
		Temperature: DefaultTemperature,
		MaxLength:   DefaultMaxLength,
	}
	if temperature != nil {
		req.Temperature = *temperature
	}
	if maxLength != nil {
		req.MaxLength = *maxLength
	}
	return req
}

// Validate checks the numeric parameters against the form bounds.
// The prompt is unconstrained.
func (r GenerationRequest) Validate() error {
	if math.IsNaN(r.Temperature) || r.Temperature < MinTemperature || r.Temperature > MaxTemperature {
		return fmt.Errorf("temperature must be between %.1f and %.1f, got %v",
			MinTemperature, MaxTemperature, r.Temperature)
	}
	if r.MaxLength < MinMaxLength || r.MaxLength > MaxMaxLength {
		return fmt.Errorf("max_length must be between %d and %d, got %d",
			MinMaxLength, MaxMaxLength, r.MaxLength)
	}
	return nil
}
