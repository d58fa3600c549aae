package node

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// submitterStub records submissions in order.
type submitterStub struct {
	cmds   []*command.RenderCommand
	queues int
	stack  []int
	queue  []int
}

var _ renderer.Submitter = &submitterStub{}

func (s *submitterStub) AddCommand(cmd *command.RenderCommand) {
	s.cmds = append(s.cmds, cmd)
	top := 0
	if len(s.stack) > 0 {
		top = s.stack[len(s.stack)-1]
	}
	s.queue = append(s.queue, top)
}

func (s *submitterStub) CreateRenderQueue() int {
	s.queues++
	return s.queues
}

func (s *submitterStub) PushGroup(id int) error {
	s.stack = append(s.stack, id)
	return nil
}

func (s *submitterStub) PopGroup() {
	s.stack = s.stack[:len(s.stack)-1]
}

func TestSpriteDraw(t *testing.T) {
	sprite := NewSprite(4, 2)
	sprite.SetColor(command.Color4B{1, 2, 3, 255})
	sprite.SetTexture(9)
	sprite.SetOpaque(true)
	n := New(WithDrawer(sprite), WithGlobalZOrder(3), WithPosition(0, 0, -6))

	sub := &submitterStub{}
	n.Visit(sub, mgl32.Ident4(), &VisitContext{CameraFlag: CameraFlagDefault})
	n.Visit(sub, mgl32.Ident4(), &VisitContext{CameraFlag: CameraFlagDefault})

	require.Len(t, sub.cmds, 2, "the sprite is re-initialized on every visit")
	cmd := sub.cmds[1]
	assert.Same(t, sprite.Command(), cmd)
	assert.True(t, cmd.Initialized())
	assert.Equal(t, command.TypeQuad, cmd.Type())
	assert.Equal(t, float32(3), cmd.GlobalOrder())
	assert.InDelta(t, 6, cmd.Depth(), 1e-6)
	assert.False(t, cmd.IsTransparent())
	assert.False(t, cmd.Is3D())
	assert.Equal(t, pipeline.TextureID(9), cmd.PipelineDescriptor().Texture(0))
	assert.Equal(t, mgl32.Vec3{-2, 1, 0}, cmd.Quad()[0].Position)
	assert.Equal(t, command.Color4B{1, 2, 3, 255}, cmd.Quad()[3].Color)
}

func TestMeshRendererIsAlways3D(t *testing.T) {
	mesh := &command.MeshData{Key: "cube"}
	mr := NewMeshRenderer(mesh, pipeline.NewDescriptor("", pipeline.With3DDefaults()))
	sub := &submitterStub{}
	mr.Draw(sub, mgl32.Ident4(), 0, 0)

	require.Len(t, sub.cmds, 1)
	assert.True(t, sub.cmds[0].Is3D())
	assert.False(t, sub.cmds[0].IsTransparent())
	assert.Same(t, mesh, sub.cmds[0].Mesh())
}

func TestNodeIs3DSetsFlag(t *testing.T) {
	tris := NewTrianglesDrawable(command.Triangles{}, pipeline.NewDescriptor(""))
	n := New(WithDrawer(tris), With3D(true))
	sub := &submitterStub{}
	n.Visit(sub, mgl32.Ident4(), &VisitContext{CameraFlag: CameraFlagDefault})
	require.Len(t, sub.cmds, 1)
	assert.True(t, sub.cmds[0].Is3D())
}

func TestCustomDrawables(t *testing.T) {
	sub := &submitterStub{}
	NewCustomDrawable(func(command.DrawContext) error { return nil }).Draw(sub, mgl32.Ident4(), 0, 0)
	NewCallbackDrawable(func() {}).Draw(sub, mgl32.Ident4(), 0, 0)
	NewCaptureDrawable(nil).Draw(sub, mgl32.Ident4(), 0, 0)

	require.Len(t, sub.cmds, 3)
	assert.Equal(t, command.TypeCustom, sub.cmds[0].Type())
	assert.Equal(t, command.TypeCallback, sub.cmds[1].Type())
	assert.Equal(t, command.TypeCaptureScreen, sub.cmds[2].Type())
}

func TestGroupDrawableWrapsSubtree(t *testing.T) {
	group := NewGroupDrawable()
	parent := New(WithDrawer(group))
	parent.AddChild(New(WithDrawer(NewSprite(1, 1)), WithLocalZOrder(-1)))
	parent.AddChild(New(WithDrawer(NewSprite(1, 1))))
	root := New()
	root.AddChild(parent)
	root.AddChild(New(WithDrawer(NewSprite(1, 1))))

	sub := &submitterStub{}
	root.Visit(sub, mgl32.Ident4(), &VisitContext{CameraFlag: CameraFlagDefault})

	require.Len(t, sub.cmds, 4)
	assert.Equal(t, command.TypeGroup, sub.cmds[0].Type())
	assert.Equal(t, 1, sub.cmds[0].RenderQueueID())
	assert.Equal(t, []int{0, 1, 1, 0}, sub.queue)
	assert.Empty(t, sub.stack)
}
