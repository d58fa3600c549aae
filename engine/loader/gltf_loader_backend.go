package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfLoaderBackend is the loaderBackend for glTF and GLB files.
type gltfLoaderBackend struct{}

var _ loaderBackend = gltfLoaderBackend{}

func (gltfLoaderBackend) Load(path string, fallback mgl32.Vec4) (*command.MeshData, error) {
	p := &gltfParser{}
	if err := p.parseFile(path); err != nil {
		return nil, err
	}
	return extractMesh(p, fallback)
}

func (gltfLoaderBackend) LoadReader(r io.Reader, isGLB bool, fallback mgl32.Vec4) (*command.MeshData, error) {
	p := &gltfParser{}
	if err := p.parseReader(r, isGLB); err != nil {
		return nil, err
	}
	return extractMesh(p, fallback)
}
