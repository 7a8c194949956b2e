package main

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/Conceptual-Machines/text2midi-studio/internal/api"
	"github.com/Conceptual-Machines/text2midi-studio/internal/config"
	"github.com/Conceptual-Machines/text2midi-studio/internal/examples"
	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/Conceptual-Machines/text2midi-studio/internal/metrics"
	"github.com/Conceptual-Machines/text2midi-studio/internal/observability"
	"github.com/Conceptual-Machines/text2midi-studio/internal/services"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "text2midi-studio@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			// Flush on shutdown
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx := context.Background()

	studio, recorder, err := buildStudio(ctx, cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to initialize generator:", err)
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := api.SetupRouter(studio, recorder, GetVersion())

	log.Printf("🚀 Starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		sentry.CaptureException(err)
		log.Fatal("Failed to start server:", err)
	}
}

// buildStudio wires the model runner, artifact store, example cache and
// observability sinks from the configuration
func buildStudio(ctx context.Context, cfg *config.Config) (*services.Studio, metrics.Recorder, error) {
	store, err := generator.NewArtifactStore(cfg.ArtifactDir, cfg.SharedArtifact())
	if err != nil {
		return nil, nil, err
	}
	log.Printf("🎼 Artifacts: %s (mode: %s)", store.BasePath(), cfg.ArtifactMode)

	var model generator.Model
	commandModel, err := generator.NewCommandModel(cfg.GeneratorCommand, cfg.GeneratorWorkDir)
	switch {
	case errors.Is(err, generator.ErrNoCommand):
		log.Println("⚠️  Generator not configured (GENERATOR_COMMAND not set); generations will fail")
		model = generator.Unconfigured()
	case err != nil:
		return nil, nil, err
	default:
		log.Printf("✅ Generator: %s (timeout: %s)", commandModel.Name(), cfg.GeneratorTimeout)
		model = commandModel
	}

	gallery, err := examples.Default()
	if err != nil {
		return nil, nil, err
	}

	cloudwatch, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		return nil, nil, err
	}
	recorder := metrics.Multi{metrics.NewSentryMetrics()}
	if cloudwatch.Enabled() {
		recorder = append(recorder, cloudwatch)
	}

	gen := generator.NewService(model, store, cfg.GeneratorTimeout)
	cache := examples.NewCache(gallery, gen, cfg.ExampleCache == config.ExampleCacheLazy)
	tracer := observability.InitializeLangfuse(ctx, cfg)

	return services.NewStudio(gen, cache, tracer, recorder), recorder, nil
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[strings.ToLower(k)] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
