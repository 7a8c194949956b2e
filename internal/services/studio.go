package services

import (
	"context"
	"time"

	"github.com/Conceptual-Machines/text2midi-studio/internal/examples"
	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/Conceptual-Machines/text2midi-studio/internal/logger"
	"github.com/Conceptual-Machines/text2midi-studio/internal/metrics"
	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"github.com/Conceptual-Machines/text2midi-studio/internal/observability"
)

const (
	traceGenerate  = "text2midi.generate"
	traceExample   = "text2midi.example"
	generationName = "music-model"
)

// Studio ties the generation adapter and the example cache to logging,
// tracing and metrics. Handlers talk to the model only through it.
type Studio struct {
	gen      *generator.Service
	examples *examples.Cache
	tracer   *observability.LangfuseClient
	recorder metrics.Recorder
}

// NewStudio creates the studio service. A nil tracer disables tracing.
func NewStudio(gen *generator.Service, cache *examples.Cache, tracer *observability.LangfuseClient,
	recorder metrics.Recorder) *Studio {
	if tracer == nil {
		tracer = observability.Disabled()
	}
	return &Studio{
		gen:      gen,
		examples: cache,
		tracer:   tracer,
		recorder: recorder,
	}
}

// Generator returns the generation adapter
func (s *Studio) Generator() *generator.Service {
	return s.gen
}

// Examples returns the example cache
func (s *Studio) Examples() *examples.Cache {
	return s.examples
}

// Generate runs one free-form generation
func (s *Studio) Generate(ctx context.Context, req models.GenerationRequest, requestID string) (*models.GenerationResult, error) {
	trace := s.tracer.StartTrace(ctx, traceGenerate, map[string]interface{}{"request_id": requestID})
	defer trace.Finish()

	return s.observe(ctx, trace, req, logger.Fields{"request_id": requestID}, func() (*models.GenerationResult, error) {
		return s.gen.Generate(ctx, req)
	})
}

// RunExample returns the result for the gallery entry at index, running the
// model only when the example is not cached yet
func (s *Studio) RunExample(ctx context.Context, index int, requestID string) (*models.GenerationResult, bool, error) {
	fields := logger.Fields{"request_id": requestID, "example": index + 1}

	if result, ok := s.examples.Cached(index); ok {
		s.recorder.RecordExampleRun(ctx, index, true)
		logger.Debug("Example served from cache", fields)
		return result, true, nil
	}

	entry, ok := s.examples.Gallery().Get(index)
	if !ok {
		_, _, err := s.examples.Run(ctx, index)
		return nil, false, err
	}

	trace := s.tracer.StartTrace(ctx, traceExample, map[string]interface{}{
		"request_id": requestID,
		"example":    index + 1,
	})
	defer trace.Finish()

	cached := false
	result, err := s.observe(ctx, trace, entry.Request(), fields, func() (*models.GenerationResult, error) {
		r, hit, err := s.examples.Run(ctx, index)
		cached = hit
		return r, err
	})
	if err == nil {
		s.recorder.RecordExampleRun(ctx, index, cached)
	}
	return result, cached, err
}

func (s *Studio) observe(ctx context.Context, trace *observability.Trace, req models.GenerationRequest,
	fields logger.Fields, run func() (*models.GenerationResult, error)) (*models.GenerationResult, error) {
	span := trace.Generation(generationName, req)

	start := time.Now()
	result, err := run()
	elapsed := time.Since(start)
	s.recorder.RecordGeneration(ctx, elapsed, err == nil)

	if err != nil {
		span.Fail(err)
		fields["model"] = s.gen.ModelName()
		fields["duration_ms"] = elapsed.Milliseconds()
		logger.Error("Generation failed", err, fields)
		return nil, err
	}

	span.Succeed(result)
	logger.LogGenerationRequest(ctx, result, fields)
	return result, nil
}
