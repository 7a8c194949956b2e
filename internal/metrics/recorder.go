package metrics

import (
	"context"
	"time"
)

// Recorder receives request and generation measurements
type Recorder interface {
	RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration)
	RecordGeneration(ctx context.Context, duration time.Duration, success bool)
	RecordExampleRun(ctx context.Context, index int, cached bool)
}

// Multi fans measurements out to several recorders
type Multi []Recorder

func (m Multi) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	for _, r := range m {
		r.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
}

func (m Multi) RecordGeneration(ctx context.Context, duration time.Duration, success bool) {
	for _, r := range m {
		r.RecordGeneration(ctx, duration, success)
	}
}

func (m Multi) RecordExampleRun(ctx context.Context, index int, cached bool) {
	for _, r := range m {
		r.RecordExampleRun(ctx, index, cached)
	}
}
