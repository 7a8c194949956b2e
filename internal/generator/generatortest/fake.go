// Package generatortest provides a scripted music model for tests.
package generatortest

import (
	"context"
	"os"
	"sync"

	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Model is an in-process stand-in for the external music model.
// By default it writes a MIDI file with one note per 100 tokens of MaxLength.
type Model struct {
	// Err, when set, is returned instead of generating
	Err error
	// Output is returned as the result value (defaults to "ok")
	Output string
	// Hook runs before the file is written
	Hook func(req models.GenerationRequest)
	// Gate, when set, holds the run until it is closed or the context ends
	Gate <-chan struct{}
	// Raw, when set, is written verbatim instead of a MIDI file
	Raw []byte

	mu    sync.Mutex
	calls []models.GenerationRequest
}

func (m *Model) Name() string {
	return "fake"
}

func (m *Model) Generate(ctx context.Context, req models.GenerationRequest, outputPath string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.Hook != nil {
		m.Hook(req)
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Raw != nil {
		if err := os.WriteFile(outputPath, m.Raw, 0o644); err != nil {
			return "", err
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	if m.Raw != nil {
		return "ok", nil
	}
	if err := WriteMIDI(outputPath, req.MaxLength/100); err != nil {
		return "", err
	}
	if m.Output == "" {
		return "ok", nil
	}
	return m.Output, nil
}

// Calls returns the requests seen so far
func (m *Model) Calls() []models.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.GenerationRequest(nil), m.calls...)
}

// WriteMIDI writes a single-track file at 120 BPM with the given number of
// consecutive quarter notes
func WriteMIDI(path string, notes int) error {
	s := smf.New()
	ticks := uint32(s.TimeFormat.(smf.MetricTicks).Ticks4th())

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	for i := 0; i < notes; i++ {
		key := uint8(60 + i%12)
		tr.Add(0, midi.NoteOn(0, key, 100))
		tr.Add(ticks, midi.NoteOff(0, key))
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return err
	}
	return s.WriteFile(path)
}
