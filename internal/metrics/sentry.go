package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics records measurements as Sentry spans
type SentryMetrics struct{}

// NewSentryMetrics creates a new Sentry metrics recorder.
// Spans are dropped by the SDK when Sentry is not initialized.
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	success := statusCode < successStatusCodeThreshold
	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", strconv.Itoa(statusCode))
	span.SetTag("success", strconv.FormatBool(success))
	span.SetData("duration_ms", duration.Milliseconds())

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordGeneration records one model call
func (m *SentryMetrics) RecordGeneration(ctx context.Context, duration time.Duration, success bool) {
	span := sentry.StartSpan(ctx, "generation.request")
	defer span.Finish()

	span.SetTag("success", strconv.FormatBool(success))
	span.SetData("duration_ms", duration.Milliseconds())

	if success {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}
	span.Description = fmt.Sprintf("Generation Request: %t", success)
}

// RecordExampleRun records whether an example was served from the cache
func (m *SentryMetrics) RecordExampleRun(ctx context.Context, index int, cached bool) {
	span := sentry.StartSpan(ctx, "examples.run")
	defer span.Finish()

	span.SetTag("example", strconv.Itoa(index))
	span.SetTag("cached", strconv.FormatBool(cached))
	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Example %d (cached: %t)", index, cached)
}
