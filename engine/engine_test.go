package engine

import (
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameBackend struct {
	mu       sync.Mutex
	frames   int
	presents int
	passes   int
	colors   []command.Color4B
	size     [2]int
	err      error
}

func (b *frameBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames++
	return nil
}

func (b *frameBackend) BeginPass(renderer.PassInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.passes++
	return nil
}

func (b *frameBackend) Dispatch(unit *renderer.DispatchUnit) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	if len(unit.Vertices) > 0 {
		b.colors = append(b.colors, unit.Vertices[0].Color)
	}
	return nil
}

func (b *frameBackend) EndPass() error  { return nil }
func (b *frameBackend) EndFrame() error { return nil }

func (b *frameBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presents++
}

func (b *frameBackend) CaptureScreen() (*image.RGBA, error) {
	return nil, renderer.ErrCaptureUnsupported
}

func (b *frameBackend) Resize(width, height int) {
	b.size = [2]int{width, height}
}

var (
	red  = command.Color4B{R: 255, A: 255}
	blue = command.Color4B{B: 255, A: 255}
)

func spriteScene(name string, c command.Color4B) scene.Scene {
	s := node.NewSprite(20, 20)
	s.SetColor(c)
	s.SetOpaque(true)
	return scene.NewScene(name, scene.WithChildren(node.New(node.WithPosition(100, 100, 0), node.WithDrawer(s))))
}

func TestAddSceneEntersAndRemoveSceneExits(t *testing.T) {
	e := NewEngine(renderer.NewRenderer(&frameBackend{}))
	s := spriteScene("main", red)

	e.AddScene(0, s)
	assert.True(t, s.Running())
	assert.Equal(t, scene.CameraStateHasDefaultCamera, s.State())
	assert.Same(t, s, e.Scene(0))

	e.RemoveScene(0)
	assert.False(t, s.Running())
	assert.Nil(t, e.Scene(0))
	assert.Empty(t, e.Scenes())
}

func TestAddSceneReplacesExisting(t *testing.T) {
	e := NewEngine(renderer.NewRenderer(&frameBackend{}))
	first, second := spriteScene("first", red), spriteScene("second", blue)

	e.AddScene(3, first)
	e.AddScene(3, second)
	assert.False(t, first.Running())
	assert.True(t, second.Running())
	assert.Len(t, e.Scenes(), 1)
}

func TestRenderFrameDrawsScenesInKeyOrder(t *testing.T) {
	backend := &frameBackend{}
	e := NewEngine(renderer.NewRenderer(backend),
		WithScene(5, spriteScene("overlay", blue)),
		WithScene(1, spriteScene("world", red)),
	)

	stats, err := e.RenderFrame()
	require.NoError(t, err)

	assert.Equal(t, []command.Color4B{red, blue}, backend.colors)
	assert.Equal(t, 1, backend.frames)
	assert.Equal(t, 1, backend.presents)
	assert.Equal(t, 2, backend.passes)
	assert.Equal(t, 2, stats.Passes)
	assert.Equal(t, 2, stats.Submitted)
	assert.Equal(t, 1, e.Frames())
}

func TestRenderFrameSkipsInactiveScenes(t *testing.T) {
	backend := &frameBackend{}
	hidden := spriteScene("hidden", blue)
	hidden.SetActive(false)
	e := NewEngine(renderer.NewRenderer(backend),
		WithScene(0, spriteScene("world", red)),
		WithScene(1, hidden),
	)

	_, err := e.RenderFrame()
	require.NoError(t, err)
	assert.Equal(t, []command.Color4B{red}, backend.colors)
}

func TestRenderFrameReturnsContextLoss(t *testing.T) {
	backend := &frameBackend{err: fmt.Errorf("device removed: %w", renderer.ErrContextLost)}
	e := NewEngine(renderer.NewRenderer(backend), WithScene(0, spriteScene("world", red)))

	_, err := e.RenderFrame()
	require.Error(t, err)
	assert.ErrorIs(t, err, renderer.ErrContextLost)
	assert.Equal(t, 0, backend.presents)
	assert.Equal(t, 0, e.Frames())
}

func TestResizeReachesRendererAndScenes(t *testing.T) {
	backend := &frameBackend{}
	s := spriteScene("world", red)
	e := NewEngine(renderer.NewRenderer(backend), WithScene(0, s))

	e.Resize(1280, 720)
	assert.Equal(t, [2]int{1280, 720}, backend.size)
	w, h := s.Size()
	assert.Equal(t, float32(1280), w)
	assert.Equal(t, float32(720), h)

	e.Resize(0, 0)
	assert.Equal(t, [2]int{1280, 720}, backend.size, "zero sizes are ignored")
}

func TestRunHeadlessUntilQuit(t *testing.T) {
	backend := &frameBackend{}
	e := NewEngine(renderer.NewRenderer(backend), WithScene(0, spriteScene("world", red)), WithTickRate(1000))

	e.SetRenderCallback(func(float32) {
		if e.Frames() >= 3 {
			e.Quit()
		}
	})

	e.Run()
	assert.GreaterOrEqual(t, e.Frames(), 3)
	e.Quit()
}

func TestRunStopsOnContextLoss(t *testing.T) {
	backend := &frameBackend{err: renderer.ErrContextLost}
	e := NewEngine(renderer.NewRenderer(backend), WithScene(0, spriteScene("world", red)))

	e.Run()
	assert.Equal(t, 0, e.Frames())
}

func TestNewEngineRequiresRenderer(t *testing.T) {
	assert.PanicsWithValue(t, "engine: NewEngine requires a renderer", func() {
		NewEngine(nil)
	})
}
