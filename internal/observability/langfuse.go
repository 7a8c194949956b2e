package observability

import (
	"context"
	"log"
	"time"

	"github.com/Conceptual-Machines/text2midi-studio/internal/config"
	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	langfuse "github.com/henomis/langfuse-go"
	"github.com/henomis/langfuse-go/model"
)

// LangfuseClient wraps the Langfuse client with our configuration.
// A disabled client hands out no-op traces.
type LangfuseClient struct {
	client  *langfuse.Langfuse
	enabled bool
}

// InitializeLangfuse creates the Langfuse client.
// The SDK reads LANGFUSE_HOST, LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY from the environment.
func InitializeLangfuse(ctx context.Context, cfg *config.Config) *LangfuseClient {
	if !cfg.LangfuseEnabled || cfg.LangfuseSecretKey == "" {
		log.Println("⚠️  Langfuse not configured (LANGFUSE_ENABLED=false or LANGFUSE_SECRET_KEY not set)")
		return Disabled()
	}

	log.Printf("✅ Langfuse initialized (host: %s)", cfg.LangfuseHost)
	return &LangfuseClient{
		client:  langfuse.New(ctx),
		enabled: true,
	}
}

// Disabled returns a client that records nothing
func Disabled() *LangfuseClient {
	return &LangfuseClient{enabled: false}
}

// IsEnabled returns whether Langfuse is enabled
func (c *LangfuseClient) IsEnabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// StartTrace starts a new trace in Langfuse
func (c *LangfuseClient) StartTrace(ctx context.Context, name string, metadata map[string]interface{}) *Trace {
	if !c.IsEnabled() {
		return &Trace{ctx: ctx}
	}

	trace, err := c.client.Trace(&model.Trace{
		Name:     name,
		Metadata: metadata,
	})
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse trace: %v", err)
		return &Trace{ctx: ctx}
	}

	return &Trace{
		trace:   trace,
		enabled: true,
		ctx:     ctx,
		client:  c.client,
	}
}

// Trace represents a Langfuse trace
type Trace struct {
	trace   *model.Trace
	enabled bool
	ctx     context.Context
	client  *langfuse.Langfuse
}

// Generation opens a generation span for one model call
func (t *Trace) Generation(name string, req models.GenerationRequest) *Generation {
	if !t.enabled {
		return &Generation{}
	}

	now := time.Now()
	gen, err := t.client.Generation(&model.Generation{
		TraceID:   t.trace.ID,
		Name:      name,
		StartTime: &now,
		Input:     req,
		ModelParameters: model.M{
			"temperature": req.Temperature,
			"max_length":  req.MaxLength,
		},
	}, nil)
	if err != nil {
		log.Printf("⚠️  Failed to create Langfuse generation: %v", err)
		return &Generation{}
	}

	return &Generation{
		generation: gen,
		enabled:    true,
		client:     t.client,
	}
}

// Finish flushes the trace to Langfuse
func (t *Trace) Finish() {
	if t.enabled && t.client != nil {
		t.client.Flush(t.ctx)
	}
}

// Generation represents a Langfuse generation span
type Generation struct {
	generation *model.Generation
	enabled    bool
	client     *langfuse.Langfuse
}

// Succeed records the result and closes the span
func (g *Generation) Succeed(result *models.GenerationResult) {
	if !g.enabled {
		return
	}
	g.generation.Model = result.Model
	g.generation.Output = result.Output
	g.generation.Metadata = map[string]interface{}{
		"artifact": result.ArtifactName,
		"midi":     result.MIDI,
	}
	g.end()
}

// Fail records the error and closes the span
func (g *Generation) Fail(err error) {
	if !g.enabled {
		return
	}
	g.generation.Level = model.ObservationLevelError
	g.generation.StatusMessage = err.Error()
	g.end()
}

func (g *Generation) end() {
	now := time.Now()
	g.generation.EndTime = &now
	if _, err := g.client.GenerationEnd(g.generation); err != nil {
		log.Printf("⚠️  Failed to end Langfuse generation: %v", err)
	}
}
