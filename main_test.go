package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Conceptual-Machines/text2midi-studio/internal/config"
	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/Conceptual-Machines/text2midi-studio/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStudio_Unconfigured(t *testing.T) {
	cfg := &config.Config{
		Environment:  "test",
		ArtifactDir:  filepath.Join(t.TempDir(), "artifacts"),
		ArtifactMode: config.ArtifactModeShared,
		ExampleCache: config.ExampleCacheLazy,
	}

	studio, recorder, err := buildStudio(context.Background(), cfg)
	require.NoError(t, err)
	require.IsType(t, metrics.Multi{}, recorder)
	assert.Len(t, recorder.(metrics.Multi), 1, "CloudWatch is only wired in production")

	assert.Equal(t, "unconfigured", studio.Generator().ModelName())
	assert.True(t, studio.Generator().Store().Shared())
	assert.True(t, studio.Examples().Enabled())
	assert.Equal(t, 6, studio.Examples().Gallery().Len())
	assert.DirExists(t, cfg.ArtifactDir)
}

func TestBuildStudio_InvalidCommand(t *testing.T) {
	cfg := &config.Config{
		Environment:      "test",
		ArtifactDir:      t.TempDir(),
		GeneratorCommand: `python3 "unterminated`,
	}

	_, _, err := buildStudio(context.Background(), cfg)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, generator.ErrNoCommand)
}

func TestFilterSensitiveHeaders(t *testing.T) {
	got := filterSensitiveHeaders(map[string]string{
		"Authorization": "Bearer x",
		"cookie":        "a=b",
		"Accept":        "audio/midi",
	})

	assert.Equal(t, "[REDACTED]", got["Authorization"])
	assert.Equal(t, "[REDACTED]", got["cookie"])
	assert.Equal(t, "audio/midi", got["Accept"])
}
