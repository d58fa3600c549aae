package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
)

// loaderBackend imports one model file format into mesh data. Concrete implementations
// (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load imports the model at path. Vertices without a color of their own take fallback.
	//
	// Parameters:
	//   - path: the file path to load
	//   - fallback: the RGBA vertex color used when the file specifies none
	//
	// Returns:
	//   - *command.MeshData: the flattened mesh
	//   - error: error if loading fails
	Load(path string, fallback mgl32.Vec4) (*command.MeshData, error)

	// LoadReader imports a model from a reader stream.
	//
	// Parameters:
	//   - r: the reader providing model data
	//   - isGLB: true if the reader provides GLB binary data, false for text-based formats
	//   - fallback: the RGBA vertex color used when the stream specifies none
	//
	// Returns:
	//   - *command.MeshData: the flattened mesh
	//   - error: error if loading fails
	LoadReader(r io.Reader, isGLB bool, fallback mgl32.Vec4) (*command.MeshData, error)
}
