package generator

import (
	"errors"
	"fmt"
	"os"

	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ErrEmptyArtifact is returned when the model runner left no output behind
var ErrEmptyArtifact = errors.New("artifact is missing or empty")

// InspectMIDI parses a Standard MIDI File and summarizes its contents
func InspectMIDI(path string) (*models.MIDISummary, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyArtifact, path)
	}

	s, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifact %s is not a valid MIDI file: %w", path, err)
	}

	var notes int
	var lastTick int64
	var channel, key, velocity uint8
	for _, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)
			if midi.Message(ev.Message).GetNoteStart(&channel, &key, &velocity) {
				notes++
			}
		}
		if abs > lastTick {
			lastTick = abs
		}
	}

	var durationMS int64
	if micros := s.TimeAt(lastTick); micros > 0 {
		durationMS = micros / 1000
	}

	return &models.MIDISummary{
		Tracks:     len(s.Tracks),
		Notes:      notes,
		DurationMS: durationMS,
		SizeBytes:  info.Size(),
	}, nil
}
