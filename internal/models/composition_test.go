package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewGenerationRequest_Defaults(t *testing.T) {
	req := NewGenerationRequest("calm piano", nil, nil)

	assert.Equal(t, "calm piano", req.Prompt)
	assert.Equal(t, DefaultTemperature, req.Temperature)
	assert.Equal(t, DefaultMaxLength, req.MaxLength)
	assert.NoError(t, req.Validate())
}

func TestGenerationRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		temperature float64
		maxLength   int
		wantErr     string
	}{
		{name: "lower bounds", temperature: 0.9, maxLength: 300},
		{name: "upper bounds", temperature: 1.1, maxLength: 2000},
		{name: "off step values are accepted", temperature: 0.955, maxLength: 1234},
		{name: "temperature too low", temperature: 0.89, maxLength: 800, wantErr: "temperature"},
		{name: "temperature too high", temperature: 1.2, maxLength: 800, wantErr: "temperature"},
		{name: "temperature NaN", temperature: math.NaN(), maxLength: 800, wantErr: "temperature"},
		{name: "max length too short", temperature: 1.0, maxLength: 299, wantErr: "max_length"},
		{name: "max length too long", temperature: 1.0, maxLength: 2001, wantErr: "max_length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := GenerationRequest{Prompt: "x", Temperature: tt.temperature, MaxLength: tt.maxLength}
			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestGenerationRequest_EmptyPromptIsValid(t *testing.T) {
	req := NewGenerationRequest("", nil, nil)
	assert.NoError(t, req.Validate())
}
