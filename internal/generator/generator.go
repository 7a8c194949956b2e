package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Conceptual-Machines/text2midi-studio/internal/logger"
	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"github.com/google/uuid"
)

// ErrInvalidRequest wraps parameter validation failures
var ErrInvalidRequest = errors.New("invalid generation request")

// Model is the external music-generation collaborator.
// Generate must write a MIDI file to outputPath and may return an opaque
// result value describing the run.
type Model interface {
	Generate(ctx context.Context, req models.GenerationRequest, outputPath string) (string, error)
	Name() string
}

// Stats are cumulative adapter counters
type Stats struct {
	Total        int64 `json:"total"`
	Failed       int64 `json:"failed"`
	LastDuration int64 `json:"last_duration_ms"`
}

// Service is the generation adapter: it places the artifact, calls the
// model and checks what the model left behind.
type Service struct {
	model   Model
	store   *ArtifactStore
	timeout time.Duration

	// held for the whole model call in shared mode, where every call writes the same file
	sharedSlot chan struct{}

	total        atomic.Int64
	failed       atomic.Int64
	lastDuration atomic.Int64
}

// NewService creates a generation adapter. A zero timeout means no timeout.
func NewService(model Model, store *ArtifactStore, timeout time.Duration) *Service {
	return &Service{
		model:      model,
		store:      store,
		timeout:    timeout,
		sharedSlot: make(chan struct{}, 1),
	}
}

// Store returns the artifact store used by the service
func (s *Service) Store() *ArtifactStore {
	return s.store
}

// ModelName returns the name of the underlying model
func (s *Service) ModelName() string {
	return s.model.Name()
}

// Stats returns a snapshot of the adapter counters
func (s *Service) Stats() Stats {
	return Stats{
		Total:        s.total.Load(),
		Failed:       s.failed.Load(),
		LastDuration: s.lastDuration.Load(),
	}
}

// Generate validates the request, runs the model and inspects the artifact.
// Model failures are returned wrapped but otherwise unchanged.
func (s *Service) Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return s.run(ctx, req, "")
}

// GenerateAs is Generate followed by copying the artifact to keepAs, with the
// copy made before another shared-mode generation can overwrite the output.
// The returned result points at the copy.
func (s *Service) GenerateAs(ctx context.Context, req models.GenerationRequest, keepAs string) (*models.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return s.run(ctx, req, keepAs)
}

func (s *Service) run(ctx context.Context, req models.GenerationRequest, keepAs string) (*models.GenerationResult, error) {
	s.total.Add(1)
	result, err := s.generate(ctx, req, keepAs)
	if err != nil {
		s.failed.Add(1)
		return nil, err
	}
	s.lastDuration.Store(result.Duration.Milliseconds())
	return result, nil
}

func (s *Service) generate(ctx context.Context, req models.GenerationRequest, keepAs string) (*models.GenerationResult, error) {
	if s.store.Shared() {
		select {
		case s.sharedSlot <- struct{}{}:
			defer func() { <-s.sharedSlot }()
		case <-ctx.Done():
			return nil, fmt.Errorf("generation failed: %w", ctx.Err())
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	artifact := s.store.Allocate()
	// A stale file from an earlier run must not pass for fresh output
	if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to clear previous artifact: %w", err)
	}

	start := time.Now()
	output, err := s.model.Generate(ctx, req, artifact.Path)
	duration := time.Since(start)
	if err != nil {
		s.discard(artifact)
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	summary, err := InspectMIDI(artifact.Path)
	if err != nil {
		s.discard(artifact)
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	output = strings.TrimSpace(output)
	if output == "" {
		output = artifact.Name
	}

	if keepAs != "" {
		kept, err := s.store.Copy(artifact, keepAs)
		s.discard(artifact)
		if err != nil {
			return nil, fmt.Errorf("failed to keep artifact: %w", err)
		}
		artifact = kept
	}

	return &models.GenerationResult{
		ID:           uuid.New().String(),
		Request:      req,
		Output:       output,
		ArtifactName: artifact.Name,
		ArtifactPath: artifact.Path,
		MIDI:         summary,
		Model:        s.model.Name(),
		Duration:     duration,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// discard removes a per-request artifact nobody will serve. The shared file
// is left alone since it is overwritten by the next run anyway.
func (s *Service) discard(artifact Artifact) {
	if s.store.Shared() {
		return
	}
	if err := os.Remove(artifact.Path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove artifact", logger.Fields{
			"path":  artifact.Path,
			"error": err.Error(),
		})
	}
}
