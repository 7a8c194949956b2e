package config

import (
	"log"
	"os"
	"time"
)

// Artifact modes
const (
	// ArtifactModePerRequest writes every generation to its own uniquely named file
	ArtifactModePerRequest = "per_request"
	// ArtifactModeShared writes every generation to output.mid, overwriting the previous one
	ArtifactModeShared = "shared"
)

// Example cache modes
const (
	ExampleCacheLazy = "lazy"
	ExampleCacheOff  = "off"
)

const defaultGeneratorTimeout = 5 * time.Minute

// Config holds the application configuration
// The service keeps no database; generated artifacts on disk are the only state
type Config struct {
	// Environment
	Environment string
	Port        string

	// Generator (external music model runner)
	GeneratorCommand string        // Shell-style command line, e.g. "python generate.py --model ./ckpt"
	GeneratorWorkDir string        // Working directory for the runner (empty = current)
	GeneratorTimeout time.Duration // Zero disables the timeout

	// Artifacts
	ArtifactDir  string
	ArtifactMode string // "per_request" (default) or "shared"
	ExampleCache string // "lazy" (default) or "off"

	// Observability
	SentryDSN         string // Sentry DSN for error tracking
	LangfusePublicKey string // Langfuse public key
	LangfuseSecretKey string // Langfuse secret key
	LangfuseHost      string // Langfuse host URL (cloud or self-hosted)
	LangfuseEnabled   bool   // Feature flag for Langfuse
}

func Load() *Config {
	return &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		Port:              getEnv("PORT", "8080"),
		GeneratorCommand:  getEnv("GENERATOR_COMMAND", ""),
		GeneratorWorkDir:  getEnv("GENERATOR_WORKDIR", ""),
		GeneratorTimeout:  getDuration("GENERATOR_TIMEOUT", defaultGeneratorTimeout),
		ArtifactDir:       getEnv("ARTIFACT_DIR", "./artifacts"),
		ArtifactMode:      getChoice("ARTIFACT_MODE", ArtifactModePerRequest, ArtifactModeShared),
		ExampleCache:      getChoice("EXAMPLE_CACHE", ExampleCacheLazy, ExampleCacheOff),
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		LangfusePublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:      getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:   getEnv("LANGFUSE_ENABLED", "false") == "true",
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		log.Printf("⚠️  Invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// getChoice returns the env value when it is one of the allowed values, otherwise the default
// (first argument)
func getChoice(key, defaultValue string, allowed ...string) string {
	value := os.Getenv(key)
	if value == "" || value == defaultValue {
		return defaultValue
	}
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	log.Printf("⚠️  Invalid %s=%q, using %s", key, value, defaultValue)
	return defaultValue
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SharedArtifact returns true when generations overwrite a single output file
func (c *Config) SharedArtifact() bool {
	return c.ArtifactMode == ArtifactModeShared
}
