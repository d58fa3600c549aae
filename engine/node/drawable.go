package node

import (
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// The drawables below each own one render command and re-initialize it on every visit, so a
// node submits exactly one fresh command per camera pass.

// Sprite draws a colored, optionally textured rectangle on its node's z = 0 plane.
type Sprite struct {
	cmd *command.RenderCommand

	size    mgl32.Vec2
	anchor  mgl32.Vec2
	color   command.Color4B
	texture pipeline.TextureID
	opaque  bool
	desc    pipeline.Descriptor
}

var _ Drawer = &Sprite{}

// NewSprite creates a white, transparent width x height sprite anchored at its center.
//
// Parameters:
//   - width, height: the size in local units
//
// Returns:
//   - *Sprite: the new sprite
func NewSprite(width, height float32) *Sprite {
	return &Sprite{
		cmd:    command.New(command.TypeQuad),
		size:   mgl32.Vec2{width, height},
		anchor: mgl32.Vec2{0.5, 0.5},
		color:  command.White,
		desc:   pipeline.NewDescriptor(pipeline.DefaultProgram),
	}
}

// Size returns the sprite's size.
func (s *Sprite) Size() mgl32.Vec2 {
	return s.size
}

// SetSize resizes the sprite.
func (s *Sprite) SetSize(width, height float32) {
	s.size = mgl32.Vec2{width, height}
}

// SetAnchor sets the point of the rectangle, in [0, 1] units of its size, placed at the node origin.
func (s *Sprite) SetAnchor(x, y float32) {
	s.anchor = mgl32.Vec2{x, y}
}

// Color returns the vertex color.
func (s *Sprite) Color() command.Color4B {
	return s.color
}

// SetColor sets the vertex color.
func (s *Sprite) SetColor(c command.Color4B) {
	s.color = c
}

// SetTexture binds a backend texture id to texture unit 0. Zero unbinds.
func (s *Sprite) SetTexture(id pipeline.TextureID) {
	s.texture = id
}

// SetOpaque marks the sprite as opaque, moving it to the front-to-back sorted bucket.
func (s *Sprite) SetOpaque(opaque bool) {
	s.opaque = opaque
}

// SetDescriptor replaces the base pipeline descriptor. The sprite's texture overrides unit 0.
func (s *Sprite) SetDescriptor(desc pipeline.Descriptor) {
	s.desc = desc
}

// Command returns the sprite's render command.
func (s *Sprite) Command() *command.RenderCommand {
	return s.cmd
}

func (s *Sprite) Draw(sub renderer.Submitter, mv mgl32.Mat4, globalOrder float32, flags command.Flags) {
	w, h := s.size.X(), s.size.Y()
	s.cmd.Reset()
	*s.cmd.Quad() = command.NewRectQuad(-s.anchor.X()*w, -s.anchor.Y()*h, w, h, s.color)

	desc := s.desc
	desc.Textures[0] = s.texture
	*s.cmd.PipelineDescriptor() = desc

	s.cmd.SetTransparent(!s.opaque)
	s.cmd.Init(globalOrder, mv, flags)
	sub.AddCommand(s.cmd)
}

// MeshRenderer draws shared mesh geometry. Renderers sharing a mesh and descriptor are drawn as
// instances of one draw call. Meshes always render in the 3D passes.
type MeshRenderer struct {
	cmd *command.RenderCommand
}

var _ Drawer = &MeshRenderer{}

// NewMeshRenderer creates an opaque renderer for mesh.
//
// Parameters:
//   - mesh: the shared geometry
//   - desc: the pipeline descriptor, typically built with pipeline.With3DDefaults
//
// Returns:
//   - *MeshRenderer: the new renderer
func NewMeshRenderer(mesh *command.MeshData, desc pipeline.Descriptor) *MeshRenderer {
	cmd := command.NewMesh(mesh, desc)
	cmd.SetTransparent(false)
	return &MeshRenderer{cmd: cmd}
}

// SetTransparent moves the mesh to the back-to-front sorted bucket.
func (m *MeshRenderer) SetTransparent(transparent bool) {
	m.cmd.SetTransparent(transparent)
}

// Command returns the renderer's render command.
func (m *MeshRenderer) Command() *command.RenderCommand {
	return m.cmd
}

func (m *MeshRenderer) Draw(sub renderer.Submitter, mv mgl32.Mat4, globalOrder float32, flags command.Flags) {
	m.cmd.Reset()
	m.cmd.Init(globalOrder, mv, flags|command.Flag3D)
	sub.AddCommand(m.cmd)
}

// TrianglesDrawable draws an arbitrary indexed triangle list.
type TrianglesDrawable struct {
	cmd *command.RenderCommand
}

var _ Drawer = &TrianglesDrawable{}

// NewTrianglesDrawable creates a transparent drawable for tris.
func NewTrianglesDrawable(tris command.Triangles, desc pipeline.Descriptor) *TrianglesDrawable {
	return &TrianglesDrawable{cmd: command.NewTriangles(tris, desc)}
}

// SetTriangles replaces the geometry.
func (t *TrianglesDrawable) SetTriangles(tris command.Triangles) {
	*t.cmd.Triangles() = tris
}

// Command returns the drawable's render command.
func (t *TrianglesDrawable) Command() *command.RenderCommand {
	return t.cmd
}

func (t *TrianglesDrawable) Draw(sub renderer.Submitter, mv mgl32.Mat4, globalOrder float32, flags command.Flags) {
	t.cmd.Reset()
	t.cmd.Init(globalOrder, mv, flags)
	sub.AddCommand(t.cmd)
}

// CustomDrawable submits a Custom, Callback or CaptureScreen command at its node's position in
// the draw order.
type CustomDrawable struct {
	cmd *command.RenderCommand
}

var _ Drawer = &CustomDrawable{}

// NewCustomDrawable creates a drawable that runs fn with access to the pass.
func NewCustomDrawable(fn command.CustomFunc) *CustomDrawable {
	return &CustomDrawable{cmd: command.NewCustom(fn)}
}

// NewCallbackDrawable creates a drawable that runs fn between draws.
func NewCallbackDrawable(fn func()) *CustomDrawable {
	return &CustomDrawable{cmd: command.NewCallback(fn)}
}

// NewCaptureDrawable creates a drawable that reads back the target drawn so far.
func NewCaptureDrawable(fn command.CaptureFunc) *CustomDrawable {
	return &CustomDrawable{cmd: command.NewCaptureScreen(fn)}
}

// Command returns the drawable's render command.
func (c *CustomDrawable) Command() *command.RenderCommand {
	return c.cmd
}

func (c *CustomDrawable) Draw(sub renderer.Submitter, mv mgl32.Mat4, globalOrder float32, flags command.Flags) {
	c.cmd.Reset()
	c.cmd.Init(globalOrder, mv, flags)
	sub.AddCommand(c.cmd)
}

// GroupDrawable gathers everything its node's subtree submits into a separate render queue
// referenced by a single Group command.
type GroupDrawable struct {
	cmd    *command.RenderCommand
	pushed []bool
}

var (
	_ Drawer  = &GroupDrawable{}
	_ Grouper = &GroupDrawable{}
)

// NewGroupDrawable creates a group drawable.
func NewGroupDrawable() *GroupDrawable {
	return &GroupDrawable{cmd: command.NewGroup(0)}
}

// Command returns the drawable's group command.
func (g *GroupDrawable) Command() *command.RenderCommand {
	return g.cmd
}

func (g *GroupDrawable) Draw(renderer.Submitter, mgl32.Mat4, float32, command.Flags) {}

func (g *GroupDrawable) BeginGroup(sub renderer.Submitter, mv mgl32.Mat4, globalOrder float32, flags command.Flags) {
	id := sub.CreateRenderQueue()
	g.cmd.Reset()
	g.cmd.SetRenderQueueID(id)
	g.cmd.Init(globalOrder, mv, flags)
	sub.AddCommand(g.cmd)

	if err := sub.PushGroup(id); err != nil {
		logger.Warningf("group not pushed: %v", err)
		g.pushed = append(g.pushed, false)
		return
	}
	g.pushed = append(g.pushed, true)
}

func (g *GroupDrawable) EndGroup(sub renderer.Submitter) {
	if len(g.pushed) == 0 {
		return
	}
	pushed := g.pushed[len(g.pushed)-1]
	g.pushed = g.pushed[:len(g.pushed)-1]
	if pushed {
		sub.PopGroup()
	}
}
