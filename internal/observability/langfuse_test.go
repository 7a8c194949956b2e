package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/Conceptual-Machines/text2midi-studio/internal/config"
	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestInitializeLangfuse_DisabledWithoutKeys(t *testing.T) {
	c := InitializeLangfuse(context.Background(), &config.Config{LangfuseEnabled: true})
	assert.False(t, c.IsEnabled())

	c = InitializeLangfuse(context.Background(), &config.Config{LangfuseSecretKey: "sk"})
	assert.False(t, c.IsEnabled())
}

func TestDisabledClient_IsNoOp(t *testing.T) {
	var nilClient *LangfuseClient
	assert.False(t, nilClient.IsEnabled())

	trace := Disabled().StartTrace(context.Background(), "text2midi.generate", nil)
	gen := trace.Generation("model.generate", models.NewGenerationRequest("x", nil, nil))

	assert.NotPanics(t, func() {
		gen.Succeed(&models.GenerationResult{Output: "ok"})
		gen.Fail(errors.New("boom"))
		trace.Finish()
	})
}
