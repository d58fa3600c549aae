// Package loader imports model files into mesh data the renderer can draw with mesh commands.
package loader

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/log"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
)

var logger = log.New("loader")

// ErrUnsupportedFormat is returned for files whose extension no backend handles.
var ErrUnsupportedFormat = errors.New("loader: unsupported model format")

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu *sync.RWMutex

	cache   map[string]*command.MeshData
	backend loaderBackend

	fallback  mgl32.Vec4
	fitRadius float32
}

// Loader loads and caches meshes. Every primitive of a model is flattened into a single
// MeshData whose Key is the cache key, so every node drawing a loaded model shares one
// instanced draw.
type Loader interface {
	// Load imports a model file and caches the result by path. A cached mesh is returned as is.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *command.MeshData: the loaded mesh
	//   - error: error if loading fails
	Load(path string) (*command.MeshData, error)

	// LoadReader imports a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded mesh
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *command.MeshData: the loaded mesh
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (*command.MeshData, error)

	// Get retrieves a cached mesh by name, or nil.
	Get(name string) *command.MeshData

	// Meshes returns a copy of the cache.
	Meshes() map[string]*command.MeshData
}

var _ Loader = &loader{}

// NewLoader creates a Loader using the given backend.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:       &sync.RWMutex{},
		cache:    make(map[string]*command.MeshData),
		fallback: mgl32.Vec4{1, 1, 1, 1},
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = gltfLoaderBackend{}
	default:
		panic(fmt.Sprintf("loader: unknown backend type %d", backendType))
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*command.MeshData, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}
	mesh, err := backend.Load(path, l.fallback)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to load %s: %w", path, err)
	}
	return l.store(path, mesh), nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*command.MeshData, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	mesh, err := l.backend.LoadReader(r, isGLB, l.fallback)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to load from reader %q: %w", name, err)
	}
	return l.store(name, mesh), nil
}

func (l *loader) Get(name string) *command.MeshData {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[name]
}

func (l *loader) Meshes() map[string]*command.MeshData {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return maps.Clone(l.cache)
}

// store finishes a freshly imported mesh and caches it. When two loads of the same key race, the
// first stored mesh wins so every caller shares one key and one GPU buffer.
func (l *loader) store(key string, mesh *command.MeshData) *command.MeshData {
	mesh.Key = key
	fitToRadius(mesh, l.fitRadius)

	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.cache[key]; ok {
		return existing
	}
	l.cache[key] = mesh
	logger.Infof("loaded %q: %d vertices, %d triangles", key, len(mesh.Vertices), len(mesh.Indices)/3)
	return mesh
}

// resolveBackend selects an appropriate loader backend based on the file extension.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
