package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Conceptual-Machines/text2midi-studio/internal/api/middleware"
	"github.com/Conceptual-Machines/text2midi-studio/internal/examples"
	"github.com/Conceptual-Machines/text2midi-studio/internal/generator"
	"github.com/Conceptual-Machines/text2midi-studio/internal/generator/generatortest"
	"github.com/Conceptual-Machines/text2midi-studio/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopRecorder struct{}

func (nopRecorder) RecordAPIRequest(context.Context, string, int, time.Duration) {}
func (nopRecorder) RecordGeneration(context.Context, time.Duration, bool)        {}
func (nopRecorder) RecordExampleRun(context.Context, int, bool)                  {}

func setupTestRouter(t *testing.T, model generator.Model, shared bool) (*gin.Engine, *services.Studio) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := generator.NewArtifactStore(t.TempDir(), shared)
	require.NoError(t, err)
	gallery, err := examples.Default()
	require.NoError(t, err)

	gen := generator.NewService(model, store, time.Minute)
	studio := services.NewStudio(gen, examples.NewCache(gallery, gen, true), nil, nopRecorder{})

	router := gin.New()
	router.Use(middleware.RequestTracking(nopRecorder{}))

	router.GET("/health", NewHealthHandler(gen).HealthCheck)
	router.GET("/api/metrics", NewMetricsHandler("test", studio).GetMetrics)
	router.GET(generator.FilesRoute+"/*name", NewFilesHandler(store).Serve)

	generation := NewGenerationHandler(studio)
	router.POST("/api/v1/generations", generation.Generate)
	examplesHandler := NewExamplesHandler(studio)
	router.GET("/api/v1/examples", examplesHandler.List)
	router.POST("/api/v1/examples/:index/generate", examplesHandler.Generate)

	return router, studio
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestGenerate(t *testing.T) {
	router, _ := setupTestRouter(t, &generatortest.Model{Output: "res-ok"}, false)

	w := doJSON(t, router, http.MethodPost, "/api/v1/generations",
		`{"prompt":"A cheerful pop song in C major","temperature":1.05,"max_length":600}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[GenerationResponse](t, w)
	assert.Equal(t, "res-ok", resp.Result)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, w.Header().Get("X-Request-ID"), resp.RequestID)
	assert.True(t, strings.HasPrefix(resp.ArtifactURL, "/files/"))
	assert.True(t, strings.HasSuffix(resp.ArtifactURL, ".mid"))
	assert.Equal(t, resp.ArtifactURL+"?download=1", resp.DownloadURL)
	assert.Contains(t, resp.PlayerHTML, `<midi-player src="`+resp.ArtifactURL+`" sound-font visualizer="#myVisualizer">`)
	require.NotNil(t, resp.MIDI)
	assert.Equal(t, 6, resp.MIDI.Notes)
	assert.Equal(t, "fake", resp.Model)
}

func TestGenerate_Defaults(t *testing.T) {
	model := &generatortest.Model{}
	router, _ := setupTestRouter(t, model, false)

	w := doJSON(t, router, http.MethodPost, "/api/v1/generations", `{"prompt":""}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	calls := model.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 1.0, calls[0].Temperature)
	assert.Equal(t, 800, calls[0].MaxLength)
}

func TestGenerate_SharedModeSamePath(t *testing.T) {
	router, _ := setupTestRouter(t, &generatortest.Model{}, true)

	var urls []string
	for _, body := range []string{
		`{"prompt":"first","temperature":0.9,"max_length":300}`,
		`{"prompt":"second","temperature":1.1,"max_length":2000}`,
	} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/generations", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		urls = append(urls, decode[GenerationResponse](t, w).ArtifactURL)
	}

	assert.Equal(t, []string{"/files/output.mid", "/files/output.mid"}, urls)
}

func TestGenerate_InvalidParameters(t *testing.T) {
	model := &generatortest.Model{}
	router, _ := setupTestRouter(t, model, false)

	for _, body := range []string{
		`{"prompt":"x","temperature":1.5}`,
		`{"prompt":"x","max_length":100}`,
		`{"prompt":"x","max_length":"long"}`,
		`not json`,
	} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/generations", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Empty(t, model.Calls())
}

func TestGenerate_ModelFailure(t *testing.T) {
	router, _ := setupTestRouter(t, &generatortest.Model{Err: errors.New("checkpoint missing")}, false)

	w := doJSON(t, router, http.MethodPost, "/api/v1/generations", `{"prompt":"x"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	body := decode[map[string]string](t, w)
	assert.Contains(t, body["error"], "checkpoint missing")
	assert.NotEmpty(t, body["request_id"])
}

func TestExamples_List(t *testing.T) {
	router, _ := setupTestRouter(t, &generatortest.Model{}, false)

	w := doJSON(t, router, http.MethodGet, "/api/v1/examples", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Examples     []ExampleItem `json:"examples"`
		CacheEnabled bool          `json:"cache_enabled"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	require.Len(t, body.Examples, 6)
	assert.True(t, body.CacheEnabled)
	for i, e := range body.Examples {
		assert.Equal(t, i, e.Index)
		assert.NotEmpty(t, e.Prompt)
		assert.Equal(t, 1.0, e.Temperature)
		assert.Equal(t, 800, e.MaxLength)
		assert.False(t, e.Cached)
	}
	assert.Equal(t, body.Examples[2].Prompt, body.Examples[4].Prompt)
}

func TestExamples_GenerateCached(t *testing.T) {
	model := &generatortest.Model{}
	router, _ := setupTestRouter(t, model, true)

	w := doJSON(t, router, http.MethodPost, "/api/v1/examples/0/generate", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[GenerationResponse](t, w)
	assert.False(t, first.Cached)
	assert.Equal(t, "/files/examples/example-1.mid", first.ArtifactURL)
	assert.NotEmpty(t, first.Result)

	w = doJSON(t, router, http.MethodPost, "/api/v1/examples/0/generate", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[GenerationResponse](t, w).Cached)
	assert.Len(t, model.Calls(), 1)

	w = doJSON(t, router, http.MethodGet, "/api/v1/examples", "")
	var body struct {
		Examples []ExampleItem `json:"examples"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Examples[0].Cached)
	assert.Equal(t, first.ArtifactURL, body.Examples[0].ArtifactURL)
}

func TestExamples_EveryEntryProducesResult(t *testing.T) {
	router, _ := setupTestRouter(t, &generatortest.Model{}, true)

	for i := range 6 {
		w := doJSON(t, router, http.MethodPost, "/api/v1/examples/"+strconv.Itoa(i)+"/generate", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotEmpty(t, decode[GenerationResponse](t, w).Result)
	}
}

func TestExamples_BadIndex(t *testing.T) {
	router, _ := setupTestRouter(t, &generatortest.Model{}, false)

	assert.Equal(t, http.StatusNotFound,
		doJSON(t, router, http.MethodPost, "/api/v1/examples/6/generate", "").Code)
	assert.Equal(t, http.StatusNotFound,
		doJSON(t, router, http.MethodPost, "/api/v1/examples/-1/generate", "").Code)
	assert.Equal(t, http.StatusBadRequest,
		doJSON(t, router, http.MethodPost, "/api/v1/examples/first/generate", "").Code)
}

func TestFiles(t *testing.T) {
	router, _ := setupTestRouter(t, &generatortest.Model{}, true)

	w := doJSON(t, router, http.MethodPost, "/api/v1/generations", `{"prompt":"x"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/files/output.mid", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/midi", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("MThd")))
	assert.Empty(t, w.Header().Get("Content-Disposition"))

	w = doJSON(t, router, http.MethodGet, "/files/output.mid?download=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "output.mid")
}

func TestFiles_NotFound(t *testing.T) {
	router, _ := setupTestRouter(t, &generatortest.Model{}, false)

	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodGet, "/files/missing.mid", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, router, http.MethodGet, "/files/notes.txt", "").Code)
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupTestRouter(t, &generatortest.Model{}, true)

	w := doJSON(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status    string `json:"status"`
		Generator struct {
			Model      string `json:"model"`
			Configured bool   `json:"configured"`
		} `json:"generator"`
		Artifacts struct {
			Status string `json:"status"`
			Mode   string `json:"mode"`
		} `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.True(t, body.Generator.Configured)
	assert.Equal(t, "shared", body.Artifacts.Mode)
	assert.Equal(t, "ok", body.Artifacts.Status)
}

func TestHealthCheck_Unconfigured(t *testing.T) {
	router, _ := setupTestRouter(t, generator.Unconfigured(), false)

	w := doJSON(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), `"configured":false`)

	w = doJSON(t, router, http.MethodPost, "/api/v1/generations", `{"prompt":"x"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "GENERATOR_COMMAND")
}

func TestGetMetrics(t *testing.T) {
	router, _ := setupTestRouter(t, &generatortest.Model{}, false)

	doJSON(t, router, http.MethodPost, "/api/v1/generations", `{"prompt":"x"}`)
	doJSON(t, router, http.MethodPost, "/api/v1/examples/3/generate", "")

	w := doJSON(t, router, http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[MetricsResponse](t, w)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, "fake", resp.Generation.Model)
	assert.Equal(t, int64(2), resp.Generation.Total)
	assert.Equal(t, int64(0), resp.Generation.Failed)
	assert.Equal(t, 6, resp.Examples.Total)
	assert.Equal(t, 1, resp.Examples.Cached)
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5.00s", formatUptime(5*time.Second))
	assert.Equal(t, "2m3.00s", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1h0m1.50s", formatUptime(time.Hour+1500*time.Millisecond))
}
