package main

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/loader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Window.Width, cfg.Window.Height = 160, 120
	return cfg
}

func TestRenderDemoCapturesLastFrame(t *testing.T) {
	img, records, err := renderDemo(smallConfig(), 3, demoAssets{})
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 160, 120), img.Bounds())
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, i, rec.Frame)
		assert.Equal(t, 2, rec.Cameras, "default and orbit camera")
		assert.Equal(t, 2, rec.Passes)
		assert.Positive(t, rec.Submitted)
		assert.Zero(t, rec.Failed)
	}

	black := color.RGBA{A: 255}
	assert.NotEqual(t, black, img.RGBAAt(80, 60), "the background covers the clear color")
}

func TestRenderDemoParallelTraversalMatchesSerial(t *testing.T) {
	serial, serialRecords, err := renderDemo(smallConfig(), 2, demoAssets{})
	require.NoError(t, err)

	cfg := smallConfig()
	cfg.Scene.ParallelTraversal = true
	cfg.Scene.Workers = 3
	parallel, parallelRecords, err := renderDemo(cfg, 2, demoAssets{})
	require.NoError(t, err)

	assert.Equal(t, serial.Pix, parallel.Pix)
	assert.Equal(t, serialRecords, parallelRecords)
}

func TestRenderDemoRejectsBadClearColor(t *testing.T) {
	cfg := smallConfig()
	cfg.Renderer.ClearColor = "not a color"
	_, _, err := renderDemo(cfg, 1, demoAssets{})
	assert.ErrorContains(t, err, "not a color")
}

func TestWritePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.SetRGBA(1, 1, color.RGBA{R: 200, A: 255})
	path := filepath.Join(t.TempDir(), "frame.png")

	require.NoError(t, writePNG(path, img))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
	r, _, _, a := decoded.At(1, 1).RGBA()
	assert.Equal(t, uint32(200)<<8|200, r)
	assert.Equal(t, uint32(0xffff), a)
}

func TestWritePNGFailsOnMissingDirectory(t *testing.T) {
	err := writePNG(filepath.Join(t.TempDir(), "missing", "frame.png"), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.Error(t, err)
}

func TestCubeMeshFacesPointOutward(t *testing.T) {
	mesh := cubeMesh("cube", 1)
	require.Len(t, mesh.Vertices, 24)
	require.Len(t, mesh.Indices, 36)

	for i := 0; i < len(mesh.Indices); i += 3 {
		a := mesh.Vertices[mesh.Indices[i]].Position
		b := mesh.Vertices[mesh.Indices[i+1]].Position
		c := mesh.Vertices[mesh.Indices[i+2]].Position
		normal := b.Sub(a).Cross(c.Sub(a))
		centroid := a.Add(b).Add(c).Mul(float32(1) / 3)
		assert.Positive(t, normal.Dot(centroid), "triangle %d winds inward", i/3)
	}
}

func TestDemoUpdateSpinsCubes(t *testing.T) {
	d := newDemo(160, 120, nil)
	require.NotEmpty(t, d.cubes)

	d.Update(0.5)
	for _, cube := range d.cubes {
		assert.False(t, cube.Rotation().ApproxEqual(mgl32.QuatIdent()), "%s did not rotate", cube.Name())
	}
}

func TestRenderDemoRejectsUnknownModelFormat(t *testing.T) {
	_, _, err := renderDemo(smallConfig(), 1, demoAssets{Model: "model.obj"})
	assert.ErrorIs(t, err, loader.ErrUnsupportedFormat)
}

func TestRenderDemoLoadsTextureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "red.png")
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []byte{255, 0, 0, 255})
	}
	require.NoError(t, writePNG(path, img))

	shot, _, err := renderDemo(smallConfig(), 1, demoAssets{Texture: path})
	require.NoError(t, err)
	assert.NotNil(t, shot)

	_, _, err = renderDemo(smallConfig(), 1, demoAssets{Texture: filepath.Join(t.TempDir(), "missing.png")})
	assert.ErrorContains(t, err, "failed to open texture file")
}
