package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Conceptual-Machines/text2midi-studio/internal/generator/generatortest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectMIDI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mid")
	require.NoError(t, generatortest.WriteMIDI(path, 3))

	summary, err := InspectMIDI(path)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Tracks)
	assert.Equal(t, 3, summary.Notes)
	// three quarter notes at 120 BPM
	assert.InDelta(t, 1500, summary.DurationMS, 1)
	assert.Positive(t, summary.SizeBytes)
}

func TestInspectMIDI_MissingOrEmpty(t *testing.T) {
	dir := t.TempDir()

	_, err := InspectMIDI(filepath.Join(dir, "missing.mid"))
	assert.ErrorIs(t, err, ErrEmptyArtifact)

	empty := filepath.Join(dir, "empty.mid")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = InspectMIDI(empty)
	assert.ErrorIs(t, err, ErrEmptyArtifact)
}

func TestInspectMIDI_NotMIDI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.mid")
	require.NoError(t, os.WriteFile(path, []byte("RIFF....WAVEfmt "), 0o644))

	_, err := InspectMIDI(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid MIDI file")
}
