package renderer

import (
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBackend captures every unit it is asked to draw.
type recordingBackend struct {
	units  []DispatchUnit
	passes []PassInfo
	ended  int

	dispatchErr func(n int, unit *DispatchUnit) error
	captureErr  error
}

func (b *recordingBackend) BeginFrame() error { return nil }

func (b *recordingBackend) BeginPass(pass PassInfo) error {
	b.passes = append(b.passes, pass)
	return nil
}

func (b *recordingBackend) Dispatch(unit *DispatchUnit) error {
	if b.dispatchErr != nil {
		if err := b.dispatchErr(len(b.units), unit); err != nil {
			b.units = append(b.units, DispatchUnit{})
			return err
		}
	}
	b.units = append(b.units, *unit)
	return nil
}

func (b *recordingBackend) EndPass() error {
	b.ended++
	return nil
}

func (b *recordingBackend) EndFrame() error { return nil }

func (b *recordingBackend) Present() {}

func (b *recordingBackend) CaptureScreen() (*image.RGBA, error) {
	if b.captureErr != nil {
		return nil, b.captureErr
	}
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (b *recordingBackend) Resize(width, height int) {}

// orders flattens the global orders of every dispatched command.
func (b *recordingBackend) orders() []float32 {
	var out []float32
	for _, u := range b.units {
		for _, c := range u.Commands {
			out = append(out, c.GlobalOrder())
		}
	}
	return out
}

func (b *recordingBackend) depths() []float32 {
	var out []float32
	for _, u := range b.units {
		for _, c := range u.Commands {
			out = append(out, c.Depth())
		}
	}
	return out
}

var p1 = pipeline.NewDescriptor("")

func newQuad(order, distance float32, opaque bool) *command.RenderCommand {
	cmd := command.NewQuad(command.NewRectQuad(0, 0, 1, 1, command.White), p1)
	cmd.SetTransparent(!opaque)
	cmd.Init(order, mgl32.Translate3D(0, 0, -distance), 0)
	return cmd
}

func newTestRenderer(options ...RendererBuilderOption) (Renderer, *recordingBackend) {
	backend := &recordingBackend{}
	return NewRenderer(backend, options...), backend
}

func TestNewRendererPanicsOnNilBackend(t *testing.T) {
	assert.PanicsWithValue(t, "renderer: backend must not be nil", func() {
		NewRenderer(nil)
	})
}

func TestOpaqueSortsByGlobalOrder(t *testing.T) {
	r, backend := newTestRenderer()
	for _, order := range []float32{5, 1, 3} {
		r.AddCommand(newQuad(order, 1, true))
	}

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 3, 5}, backend.orders())
}

func TestOpaqueTiesSortByDepthThenSubmission(t *testing.T) {
	r, backend := newTestRenderer()
	far := newQuad(0, 9, true)
	near := newQuad(0, 1, true)
	a := newQuad(1, 4, true)
	b := newQuad(1, 4, true)
	for _, c := range []*command.RenderCommand{a, far, b, near} {
		c.SetSkipBatching(true)
		r.AddCommand(c)
	}

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	require.Len(t, backend.units, 4)
	assert.Same(t, near, backend.units[0].Commands[0])
	assert.Same(t, far, backend.units[1].Commands[0])
	assert.Same(t, a, backend.units[2].Commands[0])
	assert.Same(t, b, backend.units[3].Commands[0])
}

func TestTransparentSortsBackToFront(t *testing.T) {
	r, backend := newTestRenderer()
	r.AddCommand(newQuad(0, 2, false))
	r.AddCommand(newQuad(0, 8, false))

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	depths := backend.depths()
	require.Len(t, depths, 2)
	assert.InDelta(t, 8, depths[0], 1e-5)
	assert.InDelta(t, 2, depths[1], 1e-5)
}

func TestTransparentSortModes(t *testing.T) {
	tests := []struct {
		name   string
		mode   TransparentSortMode
		orders []float32
	}{
		{"depth first", SortDepthFirst, []float32{2, 1}},
		{"order first", SortOrderFirst, []float32{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, backend := newTestRenderer(WithTransparentSortMode(tt.mode))
			r.AddCommand(newQuad(1, 2, false))
			r.AddCommand(newQuad(2, 8, false))

			_, err := r.Render(DefaultPassInfo())
			require.NoError(t, err)
			assert.Equal(t, tt.orders, backend.orders())
			assert.Equal(t, tt.mode, r.TransparentSortMode())
		})
	}
}

func TestBatchingMergesCompatibleAndStopsAtCustom(t *testing.T) {
	r, backend := newTestRenderer()
	a := newQuad(0, 1, false)
	b := newQuad(0, 1, false)
	c := command.NewCustom(func(command.DrawContext) error { return nil })
	c.Init(0, mgl32.Translate3D(0, 0, -1), 0)
	r.AddCommand(a)
	r.AddCommand(b)
	r.AddCommand(c)

	stats, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Dispatched)
	assert.Equal(t, 1, stats.Batched)
	require.Len(t, backend.units, 1, "custom commands never reach Backend.Dispatch")
	assert.Equal(t, []*command.RenderCommand{a, b}, backend.units[0].Commands)
	assert.Len(t, backend.units[0].Vertices, 8)
	assert.Equal(t, []uint16{0, 1, 2, 3, 2, 1, 4, 5, 6, 7, 6, 5}, backend.units[0].Indices)
}

func TestBatchingTransformsVerticesToCameraSpace(t *testing.T) {
	r, backend := newTestRenderer()
	cmd := command.NewQuad(command.NewRectQuad(0, 0, 1, 1, command.White), p1)
	cmd.Init(0, mgl32.Translate3D(10, 20, -5), 0)
	r.AddCommand(cmd)

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	require.Len(t, backend.units, 1)
	assert.Equal(t, mgl32.Vec3{10, 21, -5}, backend.units[0].Vertices[0].Position)
	assert.Equal(t, mgl32.Vec3{11, 20, -5}, backend.units[0].Vertices[3].Position)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, cmd.Quad()[0].Position, "payload is not modified")
}

func TestSkipBatchingNeverMerges(t *testing.T) {
	r, backend := newTestRenderer()
	a := newQuad(0, 1, true)
	b := newQuad(0, 1, true)
	c := newQuad(0, 1, true)
	b.SetSkipBatching(true)
	r.AddCommand(a)
	r.AddCommand(b)
	r.AddCommand(c)

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	require.Len(t, backend.units, 3)
	for _, u := range backend.units {
		assert.Len(t, u.Commands, 1)
	}
}

func TestBarriersSplitBatches(t *testing.T) {
	var trace []string
	r, backend := newTestRenderer()

	cb := command.NewCallback(func() { trace = append(trace, fmt.Sprintf("callback after %d units", len(backend.units))) })
	cb.SetTransparent(false)
	cb.Init(1, mgl32.Ident4(), 0)

	r.AddCommand(newQuad(0, 1, true))
	r.AddCommand(cb)
	r.AddCommand(newQuad(2, 1, true))

	stats, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Len(t, backend.units, 2)
	assert.Equal(t, []string{"callback after 1 units"}, trace)
	assert.Equal(t, 3, stats.Dispatched)
	assert.Equal(t, 0, stats.Batched)
}

func TestDifferentDescriptorsDoNotMerge(t *testing.T) {
	r, backend := newTestRenderer()
	a := newQuad(0, 1, true)
	b := newQuad(0, 1, true)
	b.PipelineDescriptor().Textures[0] = 3
	r.AddCommand(a)
	r.AddCommand(b)

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Len(t, backend.units, 2)
}

func TestMaxBatchVerticesFlushes(t *testing.T) {
	r, backend := newTestRenderer(WithMaxBatchVertices(8))
	for i := 0; i < 3; i++ {
		r.AddCommand(newQuad(0, 1, true))
	}

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	require.Len(t, backend.units, 2)
	assert.Len(t, backend.units[0].Commands, 2)
	assert.Len(t, backend.units[1].Commands, 1)
}

func TestMeshBatchingInstances(t *testing.T) {
	r, backend := newTestRenderer()
	cube := &command.MeshData{Key: "cube", Vertices: make([]command.Vertex, 3), Indices: []uint32{0, 1, 2}}
	other := &command.MeshData{Key: "other", Vertices: make([]command.Vertex, 3), Indices: []uint32{0, 1, 2}}
	desc := pipeline.NewDescriptor("", pipeline.With3DDefaults())

	for _, mesh := range []*command.MeshData{cube, cube, other} {
		cmd := command.NewMesh(mesh, desc)
		cmd.SetTransparent(false)
		cmd.Init(0, mgl32.Translate3D(0, 0, -3), command.Flag3D)
		r.AddCommand(cmd)
	}

	stats, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	require.Len(t, backend.units, 2)
	assert.Same(t, cube, backend.units[0].Mesh)
	assert.Len(t, backend.units[0].Instances, 2)
	assert.Same(t, other, backend.units[1].Mesh)
	assert.Equal(t, 9, stats.Vertices)
}

func TestBucketDrawOrder(t *testing.T) {
	r, backend := newTestRenderer()

	ui := newQuad(5, 1, false)
	background := newQuad(-1, 1, true)
	opaque3D := command.NewMesh(&command.MeshData{Key: "m"}, pipeline.NewDescriptor("", pipeline.With3DDefaults()))
	opaque3D.SetTransparent(false)
	opaque3D.Init(10, mgl32.Translate3D(0, 0, -5), command.Flag3D)
	glass := command.NewQuad(command.NewRectQuad(0, 0, 1, 1, command.White), pipeline.NewDescriptor("", pipeline.With3DDefaults()))
	glass.Init(10, mgl32.Translate3D(0, 0, -4), command.Flag3D)

	for _, c := range []*command.RenderCommand{ui, glass, opaque3D, background} {
		r.AddCommand(c)
	}

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	require.Len(t, backend.units, 4)
	assert.Equal(t, BucketBackgroundOpaque, backend.units[0].Bucket)
	assert.Equal(t, BucketOpaque3D, backend.units[1].Bucket)
	assert.Equal(t, BucketTransparent3D, backend.units[2].Bucket)
	assert.Equal(t, BucketTransparent2D, backend.units[3].Bucket)

	assert.True(t, backend.units[1].Pipeline.DepthWrite)
	assert.False(t, backend.units[2].Pipeline.DepthWrite, "transparent 3D never writes depth")
	assert.True(t, glass.PipelineDescriptor().DepthWrite, "command descriptor is not modified")
}

func TestGroupExpandsInPlace(t *testing.T) {
	r, backend := newTestRenderer()
	id := r.CreateRenderQueue()

	group := command.NewGroup(id)
	group.Init(0, mgl32.Ident4(), 0)
	r.AddCommand(newQuad(3, 1, true))
	r.AddCommand(group)

	require.NoError(t, r.PushGroup(id))
	r.AddCommand(newQuad(2, 1, true))
	r.AddCommand(newQuad(1, 1, true))
	r.PopGroup()

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, backend.orders())
}

func TestEmptyGroupProducesNothing(t *testing.T) {
	r, backend := newTestRenderer()
	group := command.NewGroup(r.CreateRenderQueue())
	group.Init(0, mgl32.Ident4(), 0)
	r.AddCommand(group)

	stats, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Empty(t, backend.units)
	assert.Empty(t, backend.passes, "a pass with no units never reaches the backend")
	assert.Equal(t, 0, stats.Dispatched)
}

func TestInvalidAndCyclicGroupsAreSkipped(t *testing.T) {
	r, backend := newTestRenderer()
	id := r.CreateRenderQueue()

	dangling := command.NewGroup(42)
	dangling.Init(0, mgl32.Ident4(), 0)
	self := command.NewGroup(id)
	self.Init(0, mgl32.Ident4(), 0)
	outer := command.NewGroup(id)
	outer.Init(0, mgl32.Ident4(), 0)

	r.AddCommand(dangling)
	r.AddCommand(outer)
	require.NoError(t, r.PushGroup(id))
	r.AddCommand(self)
	r.AddCommand(newQuad(1, 1, true))
	r.PopGroup()

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, backend.orders())
}

func TestPushGroupRejectsUnknownQueue(t *testing.T) {
	r, _ := newTestRenderer()
	assert.ErrorIs(t, r.PushGroup(7), ErrInvalidRenderQueue)
	assert.ErrorIs(t, r.PushGroup(-1), ErrInvalidRenderQueue)
	assert.NoError(t, r.PushGroup(0))
}

func TestAddCommandRejectsInvalidCommands(t *testing.T) {
	r, backend := newTestRenderer()

	r.AddCommand(nil)
	unknown := command.New(command.TypeUnknown)
	unknown.Init(0, mgl32.Ident4(), 0)
	r.AddCommand(unknown)
	r.AddCommand(command.NewQuad(command.Quad{}, p1))
	r.AddCommand(newQuad(0, 1, true))

	stats, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rejected)
	assert.Equal(t, 1, stats.Submitted)
	require.Len(t, backend.units, 1)
	for _, c := range backend.units[0].Commands {
		assert.NotEqual(t, command.TypeUnknown, c.Type())
	}
}

func TestContextLostAbortsPass(t *testing.T) {
	r, backend := newTestRenderer()
	backend.dispatchErr = func(n int, _ *DispatchUnit) error {
		return fmt.Errorf("device gone: %w", ErrContextLost)
	}
	a := newQuad(0, 1, true)
	a.SetSkipBatching(true)
	r.AddCommand(a)
	r.AddCommand(newQuad(1, 1, true))

	_, err := r.Render(DefaultPassInfo())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContextLost))
	assert.Len(t, backend.units, 1, "no unit is dispatched after the context is lost")
	assert.Zero(t, backend.ended)
}

func TestResourceErrorSkipsOnlyThatUnit(t *testing.T) {
	r, backend := newTestRenderer()
	backend.dispatchErr = func(n int, _ *DispatchUnit) error {
		if n == 0 {
			return fmt.Errorf("texture 3: %w", ErrResourceMissing)
		}
		return nil
	}
	for i := 0; i < 3; i++ {
		c := newQuad(float32(i), 1, true)
		c.SetSkipBatching(true)
		r.AddCommand(c)
	}

	stats, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Dispatched)
	assert.Equal(t, 2, stats.DrawCalls)
	assert.Equal(t, 1, backend.ended)
}

func TestMalformedTrianglesAreDropped(t *testing.T) {
	r, backend := newTestRenderer()
	bad := command.NewTriangles(command.Triangles{Vertices: make([]command.Vertex, 3), Indices: []uint16{0, 1, 5}}, p1)
	bad.Init(0, mgl32.Ident4(), 0)
	r.AddCommand(bad)
	r.AddCommand(newQuad(1, 1, true))

	stats, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Len(t, backend.units, 1)
}

func TestCustomCommandDrawsThroughContext(t *testing.T) {
	r, backend := newTestRenderer()
	var view mgl32.Mat4
	custom := command.NewCustom(func(ctx command.DrawContext) error {
		view = ctx.View()
		verts := []command.Vertex{{}, {Position: mgl32.Vec3{1, 0, 0}}, {Position: mgl32.Vec3{0, 1, 0}}}
		return ctx.DrawTriangles(p1, verts, []uint16{0, 1, 2})
	})
	custom.Init(0, mgl32.Translate3D(2, 0, 0), 0)
	r.AddCommand(custom)

	pass := DefaultPassInfo()
	pass.View = mgl32.Translate3D(0, 0, -1)
	stats, err := r.Render(pass)
	require.NoError(t, err)

	assert.Equal(t, pass.View, view)
	require.Len(t, backend.units, 1)
	assert.Equal(t, command.TypeTriangles, backend.units[0].Type)
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, backend.units[0].Vertices[1].Position)
	assert.Equal(t, 1, stats.DrawCalls)
	assert.Equal(t, 3, stats.Vertices)
}

func TestCustomDrawUsesBackgroundThreshold(t *testing.T) {
	r, backend := newTestRenderer(WithBackgroundOrderThreshold(5))
	custom := command.NewCustom(func(ctx command.DrawContext) error {
		verts := []command.Vertex{{}, {Position: mgl32.Vec3{1, 0, 0}}, {Position: mgl32.Vec3{0, 1, 0}}}
		return ctx.DrawTriangles(p1, verts, []uint16{0, 1, 2})
	})
	custom.Init(2, mgl32.Ident4(), 0)
	r.AddCommand(custom)

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	require.Len(t, backend.units, 1)
	assert.Equal(t, BucketBackgroundTransparent, backend.units[0].Bucket)
}

func TestCustomErrorIsCounted(t *testing.T) {
	r, _ := newTestRenderer()
	custom := command.NewCustom(func(command.DrawContext) error { return errors.New("shader missing") })
	custom.Init(0, mgl32.Ident4(), 0)
	r.AddCommand(custom)

	stats, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
}

func TestCaptureScreen(t *testing.T) {
	r, backend := newTestRenderer()
	var got *image.RGBA
	capture := command.NewCaptureScreen(func(img *image.RGBA, err error) {
		require.NoError(t, err)
		got = img
	})
	capture.Init(100, mgl32.Ident4(), 0)
	r.AddCommand(capture)

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Bounds().Dx())

	backend.captureErr = ErrCaptureUnsupported
	var captureErr error
	capture = command.NewCaptureScreen(func(_ *image.RGBA, err error) { captureErr = err })
	capture.Init(0, mgl32.Ident4(), 0)
	r.AddCommand(capture)
	stats, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.ErrorIs(t, captureErr, ErrCaptureUnsupported)
	assert.Equal(t, 1, stats.Failed)
}

func TestQueuesAreClearedAfterRender(t *testing.T) {
	r, backend := newTestRenderer()
	r.AddCommand(newQuad(0, 1, true))

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	_, err = r.Render(DefaultPassInfo())
	require.NoError(t, err)

	assert.Len(t, backend.units, 1)
	assert.ErrorIs(t, r.PushGroup(1), ErrInvalidRenderQueue, "queues do not outlive the pass")
}

func TestClearDropsCommands(t *testing.T) {
	r, backend := newTestRenderer()
	r.AddCommand(newQuad(0, 1, true))
	r.AddCommand(command.New(command.TypeUnknown))
	r.Clear()

	stats, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Empty(t, backend.units)
	assert.Zero(t, stats.Submitted, "cleared submissions are not counted")
	assert.Zero(t, stats.Rejected)
}

func TestFrameStatsAccumulate(t *testing.T) {
	r, _ := newTestRenderer()
	require.NoError(t, r.BeginFrame())
	for i := 0; i < 2; i++ {
		r.AddCommand(newQuad(0, 1, true))
		_, err := r.Render(DefaultPassInfo())
		require.NoError(t, err)
	}

	frame := r.FrameStats()
	assert.Equal(t, 2, frame.Passes)
	assert.Equal(t, 2, frame.Submitted)
	assert.Equal(t, 8, frame.Vertices)
	assert.Equal(t, 1, r.Stats().Passes)

	require.NoError(t, r.BeginFrame())
	assert.Zero(t, r.FrameStats().Passes)
}
