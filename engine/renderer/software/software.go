// Package software is a headless renderer backend that rasterizes dispatch units into an
// in-memory RGBA image. Triangles are filled flat in dispatch order without a depth buffer, which
// keeps output deterministic and makes it suitable for tests and offline rendering.
package software

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/log"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/vector"
)

var logger = log.New("software")

// Backend is the CPU implementation of renderer.Backend.
type Backend struct {
	mu *sync.Mutex

	target     *image.RGBA
	ras        *vector.Rasterizer
	clearColor color.RGBA
	textures   map[pipeline.TextureID]common.TextureStagingData

	firstPass bool
	inPass    bool
	pass      renderer.PassInfo
	viewProj  mgl32.Mat4

	triangles int
	frames    int
}

var _ renderer.Backend = &Backend{}

// NewBackend creates a software backend with a width x height target.
//
// Parameters:
//   - width: the target width in pixels
//   - height: the target height in pixels
//   - options: variadic list of BackendBuilderOption functions
//
// Returns:
//   - *Backend: the new backend
func NewBackend(width, height int, options ...BackendBuilderOption) *Backend {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("software: invalid target size %dx%d", width, height))
	}
	b := &Backend{
		mu:         &sync.Mutex{},
		target:     image.NewRGBA(image.Rect(0, 0, width, height)),
		ras:        &vector.Rasterizer{},
		clearColor: color.RGBA{A: 255},
		textures:   make(map[pipeline.TextureID]common.TextureStagingData),
		firstPass:  true,
	}

	for _, opt := range options {
		opt(b)
	}

	b.fill(b.clearColor)
	return b
}

// RegisterTexture makes a texture available to descriptors that bind id.
//
// Parameters:
//   - id: the texture id referenced by pipeline descriptors
//   - data: the RGBA pixels
//
// Returns:
//   - error: an error if the pixel data does not match the dimensions
func (b *Backend) RegisterTexture(id pipeline.TextureID, data common.TextureStagingData) error {
	if len(data.Pixels) != int(data.Width*data.Height*4) {
		return fmt.Errorf("software: texture %d has %d bytes, want %d", id, len(data.Pixels), data.Width*data.Height*4)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.textures[id] = data
	return nil
}

// Image returns the render target. The image is owned by the backend and changes with every pass.
func (b *Backend) Image() *image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target
}

// Triangles returns the number of triangles rasterized since the backend was created.
func (b *Backend) Triangles() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.triangles
}

// Frames returns the number of completed frames.
func (b *Backend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.firstPass = true
	return nil
}

func (b *Backend) BeginPass(pass renderer.PassInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inPass {
		return fmt.Errorf("software: BeginPass called inside an open pass")
	}
	if b.firstPass {
		clearTo := b.clearColor
		if pass.ClearColor.A != 0 {
			clearTo = pass.ClearColor
		}
		b.fill(clearTo)
		b.firstPass = false
	}
	b.inPass = true
	b.pass = pass
	b.viewProj = pass.Projection
	return nil
}

func (b *Backend) Dispatch(unit *renderer.DispatchUnit) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inPass {
		return fmt.Errorf("software: Dispatch called outside a pass")
	}

	tex, err := b.texture(&unit.Pipeline)
	if err != nil {
		return err
	}

	switch unit.Type {
	case command.TypeQuad, command.TypeTriangles:
		return drawIndexed(b, unit.Vertices, unit.Indices, mgl32.Ident4(), &unit.Pipeline, tex)
	case command.TypeMesh:
		if unit.Mesh == nil {
			return fmt.Errorf("software: mesh unit without mesh: %w", renderer.ErrResourceMissing)
		}
		for _, mv := range unit.Instances {
			if err := drawIndexed(b, unit.Mesh.Vertices, unit.Mesh.Indices, mv, &unit.Pipeline, tex); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("software: cannot dispatch %s units", unit.Type)
}

func (b *Backend) EndPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inPass = false
	return nil
}

func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.firstPass {
		// Nothing was drawn this frame.
		b.fill(b.clearColor)
		b.firstPass = false
	}
	b.frames++
	return nil
}

func (b *Backend) Present() {}

func (b *Backend) CaptureScreen() (*image.RGBA, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	img := image.NewRGBA(b.target.Bounds())
	copy(img.Pix, b.target.Pix)
	return img, nil
}

func (b *Backend) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		logger.Warningf("ignoring resize to %dx%d", width, height)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.target = image.NewRGBA(image.Rect(0, 0, width, height))
	b.fill(b.clearColor)
	b.firstPass = true
}

// fill paints the whole target. The caller must hold mu.
func (b *Backend) fill(c color.RGBA) {
	draw.Draw(b.target, b.target.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// texture returns the texture bound to unit 0, nil when none is bound.
func (b *Backend) texture(desc *pipeline.Descriptor) (*common.TextureStagingData, error) {
	id := desc.Texture(0)
	if id == 0 {
		return nil, nil
	}
	tex, ok := b.textures[id]
	if !ok {
		return nil, fmt.Errorf("software: texture %d: %w", id, renderer.ErrResourceMissing)
	}
	return &tex, nil
}
