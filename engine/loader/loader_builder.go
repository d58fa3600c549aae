package loader

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFallbackColor sets the vertex color of primitives that have neither vertex colors nor a
// material base color. The default is opaque white.
//
// Parameters:
//   - c: the fallback color
//
// Returns:
//   - LoaderBuilderOption: a function that applies the color option to a loader
func WithFallbackColor(c command.Color4B) LoaderBuilderOption {
	return func(l *loader) {
		l.fallback = mgl32.Vec4{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255}
	}
}

// WithFitRadius recenters every loaded mesh on its bounding box and scales it to fit a sphere of
// the given radius. Zero keeps the file's own units.
func WithFitRadius(radius float32) LoaderBuilderOption {
	return func(l *loader) {
		l.fitRadius = radius
	}
}

// WithMesh is an option builder that pre-populates the mesh cache.
//
// Parameters:
//   - key: the cache key for the mesh
//   - mesh: the mesh to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the mesh option to a loader
func WithMesh(key string, mesh *command.MeshData) LoaderBuilderOption {
	return func(l *loader) {
		l.cache[key] = mesh
	}
}
