package software

import (
	"image"
	"image/color"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const size = 32

func orthoPass() renderer.PassInfo {
	pass := renderer.DefaultPassInfo()
	pass.Projection = mgl32.Ortho(0, size, 0, size, -10, 10)
	pass.ClearColor = color.RGBA{A: 255}
	return pass
}

func quad(x, y, w, h float32, c command.Color4B, skip bool) *command.RenderCommand {
	cmd := command.NewQuad(command.NewRectQuad(x, y, w, h, c), pipeline.NewDescriptor(""))
	cmd.SetSkipBatching(skip)
	cmd.Init(0, mgl32.Ident4(), 0)
	return cmd
}

func renderFrame(t *testing.T, b *Backend, cmds ...*command.RenderCommand) renderer.FrameStats {
	t.Helper()
	r := renderer.NewRenderer(b)
	require.NoError(t, r.BeginFrame())
	for _, c := range cmds {
		r.AddCommand(c)
	}
	stats, err := r.Render(orthoPass())
	require.NoError(t, err)
	require.NoError(t, r.EndFrame())
	return stats
}

func TestQuadCoversExpectedPixels(t *testing.T) {
	b := NewBackend(size, size)
	renderFrame(t, b, quad(0, 0, size/2, size/2, command.Color4B{255, 0, 0, 255}, false))

	img := b.Image()
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(2, size-12), "bottom-left is covered")
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(size-3, 2), "top-right is clear")
	assert.Equal(t, 2, b.Triangles())
	assert.Equal(t, 1, b.Frames())
}

func TestBatchingIsPixelEquivalent(t *testing.T) {
	build := func(skip bool) []*command.RenderCommand {
		return []*command.RenderCommand{
			quad(0, 0, 20, 20, command.Color4B{200, 10, 10, 255}, skip),
			quad(10, 10, 20, 20, command.Color4B{10, 200, 10, 128}, skip),
			quad(5, 15, 8, 8, command.Color4B{10, 10, 200, 255}, skip),
		}
	}

	batched := NewBackend(size, size)
	batchedStats := renderFrame(t, batched, build(false)...)
	separate := NewBackend(size, size)
	separateStats := renderFrame(t, separate, build(true)...)

	assert.Equal(t, 1, batchedStats.DrawCalls)
	assert.Equal(t, 3, separateStats.DrawCalls)
	assert.Equal(t, separate.Image().Pix, batched.Image().Pix)
}

func TestFirstPassClearsLaterPassesLoad(t *testing.T) {
	b := NewBackend(size, size)
	r := renderer.NewRenderer(b)
	require.NoError(t, r.BeginFrame())

	r.AddCommand(quad(0, 0, size, size, command.Color4B{0, 0, 255, 255}, false))
	_, err := r.Render(orthoPass())
	require.NoError(t, err)

	second := orthoPass()
	second.ClearColor = color.RGBA{255, 255, 255, 255}
	r.AddCommand(quad(0, 0, 4, 4, command.Color4B{0, 255, 0, 255}, false))
	_, err = r.Render(second)
	require.NoError(t, err)

	img := b.Image()
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(size-1, size-1), "second pass keeps the first pass output")
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(1, size-3))
}

func TestCaptureScreenCopiesTarget(t *testing.T) {
	b := NewBackend(size, size, WithClearColor(color.RGBA{9, 9, 9, 255}))
	var captured *image.RGBA
	capture := command.NewCaptureScreen(func(img *image.RGBA, err error) {
		require.NoError(t, err)
		captured = img
	})
	capture.Init(10, mgl32.Ident4(), 0)

	renderFrame(t, b, quad(0, 0, size, size, command.Color4B{255, 0, 0, 255}, false), capture)

	require.NotNil(t, captured)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, captured.RGBAAt(4, 4))
	captured.SetRGBA(4, 4, color.RGBA{})
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, b.Image().RGBAAt(4, 4), "capture is a copy")
}

func TestTextureModulatesColor(t *testing.T) {
	b := NewBackend(size, size)
	require.NoError(t, b.RegisterTexture(1, common.SolidTexture(255, 128, 0, 255)))

	cmd := command.NewQuad(command.NewRectQuad(0, 0, size, size, command.White), pipeline.NewDescriptor("", pipeline.WithTexture(0, 1)))
	cmd.Init(0, mgl32.Ident4(), 0)
	renderFrame(t, b, cmd)

	assert.Equal(t, color.RGBA{255, 128, 0, 255}, b.Image().RGBAAt(8, 8))
}

func TestMissingTextureFailsUnit(t *testing.T) {
	b := NewBackend(size, size)
	cmd := command.NewQuad(command.NewRectQuad(0, 0, size, size, command.White), pipeline.NewDescriptor("", pipeline.WithTexture(0, 5)))
	cmd.Init(0, mgl32.Ident4(), 0)

	stats := renderFrame(t, b, cmd)
	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, b.Triangles())
}

func TestRegisterTextureValidatesSize(t *testing.T) {
	b := NewBackend(size, size)
	err := b.RegisterTexture(1, common.TextureStagingData{Pixels: []byte{1, 2, 3}, Width: 1, Height: 1})
	assert.Error(t, err)
}

func TestMeshInstancesAndBehindEye(t *testing.T) {
	b := NewBackend(size, size)
	mesh := &command.MeshData{
		Key: "tri",
		Vertices: []command.Vertex{
			{Position: mgl32.Vec3{-1, -1, 0}, Color: command.White},
			{Position: mgl32.Vec3{1, -1, 0}, Color: command.White},
			{Position: mgl32.Vec3{0, 1, 0}, Color: command.White},
		},
		Indices: []uint32{0, 1, 2},
	}
	r := renderer.NewRenderer(b)
	require.NoError(t, r.BeginFrame())
	for _, z := range []float32{-5, -6, 5} {
		cmd := command.NewMesh(mesh, pipeline.NewDescriptor("", pipeline.With3DDefaults()))
		cmd.SetTransparent(false)
		cmd.Init(0, mgl32.Translate3D(0, 0, z), command.Flag3D)
		r.AddCommand(cmd)
	}
	pass := renderer.DefaultPassInfo()
	pass.Projection = mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100)
	stats, err := r.Render(pass)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.DrawCalls)
	assert.Equal(t, 2, b.Triangles(), "the instance behind the eye is skipped")
}

func TestEmptyFrameClearsTarget(t *testing.T) {
	b := NewBackend(size, size)
	renderFrame(t, b, quad(0, 0, size, size, command.Color4B{255, 0, 0, 255}, false))
	require.Equal(t, color.RGBA{255, 0, 0, 255}, b.Image().RGBAAt(size/2, size/2))

	stats := renderFrame(t, b)
	assert.Zero(t, stats.Dispatched)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, b.Image().RGBAAt(size/2, size/2), "nothing persists into a frame that draws nothing")
	assert.Equal(t, 2, b.Frames())
}

func TestMeshIndicesBeyondUint16(t *testing.T) {
	const base = 1 << 16
	mesh := &command.MeshData{Key: "wide", Vertices: make([]command.Vertex, base+3)}
	red := command.Color4B{255, 0, 0, 255}
	mesh.Vertices[base] = command.Vertex{Position: mgl32.Vec3{-1, -1, 0}, Color: red}
	mesh.Vertices[base+1] = command.Vertex{Position: mgl32.Vec3{3, -1, 0}, Color: red}
	mesh.Vertices[base+2] = command.Vertex{Position: mgl32.Vec3{-1, 3, 0}, Color: red}
	mesh.Indices = []uint32{base, base + 1, base + 2}

	b := NewBackend(size, size)
	r := renderer.NewRenderer(b)
	require.NoError(t, r.BeginFrame())
	cmd := command.NewMesh(mesh, pipeline.NewDescriptor(""))
	cmd.SetTransparent(false)
	cmd.Init(0, mgl32.Ident4(), command.Flag3D)
	r.AddCommand(cmd)
	stats, err := r.Render(renderer.DefaultPassInfo())
	require.NoError(t, err)
	require.NoError(t, r.EndFrame())

	assert.Zero(t, stats.Failed)
	assert.Equal(t, 1, b.Triangles())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, b.Image().RGBAAt(size/2, size/2))
}

func TestResize(t *testing.T) {
	b := NewBackend(size, size)
	b.Resize(8, 4)
	assert.Equal(t, image.Rect(0, 0, 8, 4), b.Image().Bounds())
	b.Resize(0, 4)
	assert.Equal(t, image.Rect(0, 0, 8, 4), b.Image().Bounds())
}

func TestNewBackendPanicsOnInvalidSize(t *testing.T) {
	assert.Panics(t, func() { NewBackend(0, 10) })
}
