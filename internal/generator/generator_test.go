package generator

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Conceptual-Machines/text2midi-studio/internal/generator/generatortest"
	"github.com/Conceptual-Machines/text2midi-studio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, model Model, shared bool) *Service {
	t.Helper()
	store, err := NewArtifactStore(t.TempDir(), shared)
	require.NoError(t, err)
	return NewService(model, store, time.Minute)
}

func TestService_Generate(t *testing.T) {
	model := &generatortest.Model{Output: "res=/tmp/output.mid"}
	svc := newTestService(t, model, false)

	req := models.GenerationRequest{Prompt: "slow church organ in Eb", Temperature: 1.0, MaxLength: 800}
	result, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, req, result.Request)
	assert.Equal(t, "res=/tmp/output.mid", result.Output)
	assert.Equal(t, "fake", result.Model)
	require.NotNil(t, result.MIDI)
	assert.Equal(t, 8, result.MIDI.Notes)
	assert.FileExists(t, result.ArtifactPath)

	require.Len(t, model.Calls(), 1)
	assert.Equal(t, req, model.Calls()[0])

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.Total)
	assert.Zero(t, stats.Failed)
}

func TestService_Generate_AcceptsWholeParameterRange(t *testing.T) {
	svc := newTestService(t, &generatortest.Model{}, false)

	for _, temperature := range []float64{0.9, 0.95, 1.0, 1.05, 1.1} {
		for _, maxLength := range []int{300, 800, 1250, 2000} {
			req := models.GenerationRequest{Prompt: "", Temperature: temperature, MaxLength: maxLength}
			_, err := svc.Generate(context.Background(), req)
			assert.NoError(t, err, "temperature=%v max_length=%d", temperature, maxLength)
		}
	}
}

func TestService_Generate_DefaultOutputIsArtifactName(t *testing.T) {
	svc := newTestService(t, modelFunc(func(_ context.Context, _ models.GenerationRequest, out string) (string, error) {
		return "  \n", generatortest.WriteMIDI(out, 1)
	}), true)

	result, err := svc.Generate(context.Background(), models.NewGenerationRequest("x", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, SharedArtifactName, result.Output)
}

func TestService_Generate_InvalidRequest(t *testing.T) {
	model := &generatortest.Model{}
	svc := newTestService(t, model, false)

	_, err := svc.Generate(context.Background(), models.GenerationRequest{Temperature: 2, MaxLength: 800})
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, model.Calls(), "model must not be called for invalid input")
}

func TestService_Generate_ModelErrorPropagates(t *testing.T) {
	modelErr := errors.New("CUDA out of memory")
	svc := newTestService(t, &generatortest.Model{Err: modelErr}, false)

	_, err := svc.Generate(context.Background(), models.NewGenerationRequest("x", nil, nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, modelErr)
	assert.NotErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, int64(1), svc.Stats().Failed)
}

func TestService_Generate_MissingArtifact(t *testing.T) {
	svc := newTestService(t, modelFunc(func(context.Context, models.GenerationRequest, string) (string, error) {
		return "done", nil
	}), false)

	_, err := svc.Generate(context.Background(), models.NewGenerationRequest("x", nil, nil))
	assert.ErrorIs(t, err, ErrEmptyArtifact)
}

func TestService_Generate_StaleSharedArtifactIsCleared(t *testing.T) {
	calls := 0
	model := &generatortest.Model{}
	svc := newTestService(t, modelFunc(func(ctx context.Context, req models.GenerationRequest, out string) (string, error) {
		calls++
		if calls == 1 {
			return model.Generate(ctx, req, out)
		}
		return "forgot to write", nil
	}), true)

	_, err := svc.Generate(context.Background(), models.NewGenerationRequest("x", nil, nil))
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), models.NewGenerationRequest("x", nil, nil))
	assert.ErrorIs(t, err, ErrEmptyArtifact)
}

func TestService_SharedMode_SequentialRequestsOverwrite(t *testing.T) {
	svc := newTestService(t, &generatortest.Model{}, true)

	first, err := svc.Generate(context.Background(), models.GenerationRequest{Prompt: "a", Temperature: 1, MaxLength: 300})
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), models.GenerationRequest{Prompt: "b", Temperature: 1, MaxLength: 2000})
	require.NoError(t, err)

	assert.Equal(t, first.ArtifactPath, second.ArtifactPath)

	entries, err := os.ReadDir(svc.Store().BasePath())
	require.NoError(t, err)
	require.Len(t, entries, 1, "shared mode must not accumulate artifacts")

	summary, err := InspectMIDI(second.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, 20, summary.Notes, "file holds the latest generation")
}

func TestService_PerRequestMode_Accumulates(t *testing.T) {
	svc := newTestService(t, &generatortest.Model{}, false)

	for i := 0; i < 3; i++ {
		_, err := svc.Generate(context.Background(), models.NewGenerationRequest("x", nil, nil))
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(svc.Store().BasePath())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestService_SharedMode_SerializesModelCalls(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0
	model := &generatortest.Model{Hook: func(models.GenerationRequest) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	}}
	svc := newTestService(t, model, true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Generate(context.Background(), models.NewGenerationRequest("x", nil, nil))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, peak)
}

func TestService_Generate_Timeout(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir(), false)
	require.NoError(t, err)
	svc := NewService(modelFunc(func(ctx context.Context, _ models.GenerationRequest, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), store, 10*time.Millisecond)

	_, err = svc.Generate(context.Background(), models.NewGenerationRequest("x", nil, nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type modelFunc func(ctx context.Context, req models.GenerationRequest, outputPath string) (string, error)

func (f modelFunc) Generate(ctx context.Context, req models.GenerationRequest, outputPath string) (string, error) {
	return f(ctx, req, outputPath)
}

func (f modelFunc) Name() string {
	return "func"
}

func TestService_GenerateAs_KeepsCopy(t *testing.T) {
	for _, shared := range []bool{true, false} {
		svc := newTestService(t, &generatortest.Model{}, shared)

		kept, err := svc.GenerateAs(context.Background(),
			models.GenerationRequest{Prompt: "a", Temperature: 1, MaxLength: 300}, "examples/example-1.mid")
		require.NoError(t, err)
		assert.Equal(t, "examples/example-1.mid", kept.ArtifactName)

		// a later generation must leave the kept copy untouched
		_, err = svc.Generate(context.Background(), models.GenerationRequest{Prompt: "b", Temperature: 1, MaxLength: 2000})
		require.NoError(t, err)

		summary, err := InspectMIDI(kept.ArtifactPath)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.Notes, "shared=%v", shared)
	}
}

func TestService_FailedRunLeavesNoArtifact(t *testing.T) {
	t.Run("unreadable output", func(t *testing.T) {
		svc := newTestService(t, &generatortest.Model{Raw: []byte("not midi")}, false)
		for i := 0; i < 3; i++ {
			_, err := svc.Generate(context.Background(), models.NewGenerationRequest("x", nil, nil))
			require.Error(t, err)
		}
		entries, err := os.ReadDir(svc.Store().BasePath())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("model error after a partial write", func(t *testing.T) {
		model := &generatortest.Model{Raw: []byte("MThd"), Err: errors.New("killed")}
		svc := newTestService(t, model, false)
		_, err := svc.Generate(context.Background(), models.NewGenerationRequest("x", nil, nil))
		require.Error(t, err)

		entries, err := os.ReadDir(svc.Store().BasePath())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestService_SharedMode_CanceledWhileWaiting(t *testing.T) {
	gate := make(chan struct{})
	model := &generatortest.Model{Gate: gate}
	svc := newTestService(t, model, true)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), models.NewGenerationRequest("first", nil, nil))
		done <- err
	}()
	require.Eventually(t, func() bool { return len(model.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.Generate(ctx, models.NewGenerationRequest("second", nil, nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, model.Calls(), 1, "the waiting call never reaches the model")

	close(gate)
	require.NoError(t, <-done)
}
