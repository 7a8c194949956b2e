package generator

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// SharedArtifactName is the file every generation overwrites in shared mode
	SharedArtifactName = "output.mid"
	// FilesRoute is the URL prefix artifacts are served under
	FilesRoute = "/files"
	// DownloadParam is the query flag that serves an artifact as an attachment
	DownloadParam = "download"

	midiExt = ".mid"
)

// ErrArtifactNotFound is returned when a requested artifact does not exist or
// its name escapes the artifact directory
var ErrArtifactNotFound = errors.New("artifact not found")

// Artifact is a generated MIDI file inside the artifact directory
type Artifact struct {
	Name string // slash-separated name relative to the artifact directory
	Path string // filesystem path
}

// ArtifactURL returns the served path for an artifact name
func ArtifactURL(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return FilesRoute + "/" + strings.Join(segments, "/")
}

// DownloadURL returns the attachment URL for an artifact name
func DownloadURL(name string) string {
	return ArtifactURL(name) + "?" + DownloadParam + "=1"
}

// ArtifactStore hands out artifact locations and resolves served names
type ArtifactStore struct {
	basePath string
	shared   bool
}

// NewArtifactStore creates the artifact directory when missing
func NewArtifactStore(basePath string, shared bool) (*ArtifactStore, error) {
	info, err := os.Stat(basePath)
	if os.IsNotExist(err) {
		if mkErr := os.MkdirAll(basePath, 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create artifact directory %s: %w", basePath, mkErr)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to check artifact directory %s: %w", basePath, err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("artifact path %s exists but is not a directory", basePath)
	}

	return &ArtifactStore{basePath: basePath, shared: shared}, nil
}

// BasePath returns the artifact directory
func (s *ArtifactStore) BasePath() string {
	return s.basePath
}

// Shared reports whether all generations write to SharedArtifactName
func (s *ArtifactStore) Shared() bool {
	return s.shared
}

// Allocate returns the location the next generation should write to
func (s *ArtifactStore) Allocate() Artifact {
	name := SharedArtifactName
	if !s.shared {
		name = uuid.New().String() + midiExt
	}
	return s.artifact(name)
}

func (s *ArtifactStore) artifact(name string) Artifact {
	return Artifact{
		Name: name,
		Path: filepath.Join(s.basePath, filepath.FromSlash(name)),
	}
}

// Resolve maps a served name back to an existing artifact
func (s *ArtifactStore) Resolve(name string) (Artifact, error) {
	name = path.Clean("/" + strings.TrimSpace(name))[1:]
	if name == "" || path.Ext(name) != midiExt {
		return Artifact{}, ErrArtifactNotFound
	}

	a := s.artifact(name)
	info, err := os.Stat(a.Path)
	if err != nil || !info.Mode().IsRegular() {
		return Artifact{}, ErrArtifactNotFound
	}
	return a, nil
}

// Copy duplicates an artifact under a new name, replacing any existing file
func (s *ArtifactStore) Copy(src Artifact, name string) (Artifact, error) {
	dst := s.artifact(name)
	if err := os.MkdirAll(filepath.Dir(dst.Path), 0o755); err != nil {
		return Artifact{}, fmt.Errorf("failed to create directory for %s: %w", name, err)
	}

	in, err := os.Open(src.Path)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to open artifact %s: %w", src.Name, err)
	}
	defer in.Close()

	// Write to a temp file first so readers never see a partial copy
	tmp, err := os.CreateTemp(filepath.Dir(dst.Path), ".copy-*")
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return Artifact{}, fmt.Errorf("failed to copy artifact %s: %w", src.Name, err)
	}
	if err := tmp.Close(); err != nil {
		return Artifact{}, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst.Path); err != nil {
		return Artifact{}, fmt.Errorf("failed to store artifact %s: %w", name, err)
	}
	return dst, nil
}
