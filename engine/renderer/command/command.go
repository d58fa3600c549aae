// Package command defines RenderCommand, the unit of work a scene traversal submits to the
// renderer. A command is a flat value tagged with its Type; the payload fields that matter are
// selected by the tag.
package command

import (
	"image"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/log"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

var logger = log.New("command")

// CustomFunc issues draws of its own through ctx when a Custom command is dispatched.
type CustomFunc func(ctx DrawContext) error

// CaptureFunc receives the color target read back by a CaptureScreen command.
type CaptureFunc func(img *image.RGBA, err error)

// DrawContext is handed to Custom commands during dispatch. It exposes the active camera pass
// and a way to draw without going through the batcher.
type DrawContext interface {
	// View returns the view matrix of the pass being rendered.
	View() mgl32.Mat4

	// Projection returns the projection matrix of the pass being rendered.
	Projection() mgl32.Mat4

	// ModelView returns the model-view matrix of the command being dispatched.
	ModelView() mgl32.Mat4

	// DrawTriangles draws an indexed triangle list given in the command's local space.
	DrawTriangles(desc pipeline.Descriptor, vertices []Vertex, indices []uint16) error
}

// RenderCommand is one draw request. The type is fixed at construction. Ordering and routing
// state is set once per frame through Init; the pipeline descriptor stays mutable until the
// command is submitted.
type RenderCommand struct {
	typ         Type
	initialized bool

	globalOrder  float32
	depth        float32
	transparent  bool
	skipBatching bool
	is3D         bool
	mv           mgl32.Mat4
	pipeline     pipeline.Descriptor

	quad      Quad
	triangles Triangles
	mesh      *MeshData
	custom    CustomFunc
	callback  func()
	capture   CaptureFunc
	queueID   int
}

// New creates a bare command of the given type with the default state: transparent, 2D,
// batchable, and the built-in pipeline descriptor.
//
// Parameters:
//   - typ: the command type
//
// Returns:
//   - *RenderCommand: the new command
func New(typ Type) *RenderCommand {
	return &RenderCommand{
		typ:         typ,
		transparent: true,
		mv:          mgl32.Ident4(),
		pipeline:    pipeline.NewDescriptor(pipeline.DefaultProgram),
	}
}

// NewQuad creates a Quad command.
//
// Parameters:
//   - quad: the four corners in local space
//   - desc: the pipeline descriptor to draw with
//
// Returns:
//   - *RenderCommand: the new command
func NewQuad(quad Quad, desc pipeline.Descriptor) *RenderCommand {
	c := New(TypeQuad)
	c.quad = quad
	c.pipeline = desc
	return c
}

// NewTriangles creates a Triangles command. Indices refer to positions in vertices.
//
// Parameters:
//   - tris: the triangle list in local space
//   - desc: the pipeline descriptor to draw with
//
// Returns:
//   - *RenderCommand: the new command
func NewTriangles(tris Triangles, desc pipeline.Descriptor) *RenderCommand {
	c := New(TypeTriangles)
	c.triangles = tris
	c.pipeline = desc
	return c
}

// NewMesh creates a Mesh command. Commands sharing the same mesh pointer and descriptor are
// drawn as instances of one draw call.
//
// Parameters:
//   - mesh: the mesh geometry
//   - desc: the pipeline descriptor to draw with
//
// Returns:
//   - *RenderCommand: the new command
func NewMesh(mesh *MeshData, desc pipeline.Descriptor) *RenderCommand {
	c := New(TypeMesh)
	c.mesh = mesh
	c.pipeline = desc
	return c
}

// NewCustom creates a Custom command that runs fn at its position in the draw order.
func NewCustom(fn CustomFunc) *RenderCommand {
	c := New(TypeCustom)
	c.custom = fn
	return c
}

// NewCallback creates a Callback command that runs fn at its position in the draw order.
func NewCallback(fn func()) *RenderCommand {
	c := New(TypeCallback)
	c.callback = fn
	return c
}

// NewGroup creates a Group command referencing the render queue queueID.
func NewGroup(queueID int) *RenderCommand {
	c := New(TypeGroup)
	c.queueID = queueID
	return c
}

// NewCaptureScreen creates a CaptureScreen command that reads back everything drawn before it
// in the pass and hands the image to fn.
func NewCaptureScreen(fn CaptureFunc) *RenderCommand {
	c := New(TypeCaptureScreen)
	c.capture = fn
	return c
}

// Init sets the ordering and routing state for the current frame. It may be called once per
// command; a second call is a misuse and is ignored in release builds. Call Reset to reuse the
// command in a later frame.
//
// The depth is derived from mv as the distance in front of the camera, so larger values are
// farther away.
//
// Parameters:
//   - globalOrder: the primary sort key, lower draws first
//   - mv: the model-view transform
//   - flags: routing flags, Flag3D places the command in the 3D passes
func (c *RenderCommand) Init(globalOrder float32, mv mgl32.Mat4, flags Flags) {
	if c.initialized {
		const msg = "command: Init called twice on the same command"
		logger.Error(msg)
		common.Misuse(msg)
		return
	}
	c.initialized = true
	c.globalOrder = globalOrder
	c.mv = mv
	c.is3D = flags&Flag3D != 0
	c.depth = common.CameraSpaceDepth(mv)
}

// Reset clears the per-frame state set by Init so the command can be initialized again.
// The payload, pipeline descriptor and transparency flags are kept.
func (c *RenderCommand) Reset() {
	c.initialized = false
	c.globalOrder = 0
	c.depth = 0
	c.mv = mgl32.Ident4()
}

// Type returns the command's variant tag.
func (c *RenderCommand) Type() Type {
	return c.typ
}

// Initialized reports whether Init has been called since construction or the last Reset.
func (c *RenderCommand) Initialized() bool {
	return c.initialized
}

// GlobalOrder returns the primary sort key.
func (c *RenderCommand) GlobalOrder() float32 {
	return c.globalOrder
}

// Depth returns the camera-space distance derived by Init.
func (c *RenderCommand) Depth() float32 {
	return c.depth
}

// ModelView returns the model-view transform given to Init.
func (c *RenderCommand) ModelView() mgl32.Mat4 {
	return c.mv
}

// IsTransparent reports whether the command is sorted back to front.
func (c *RenderCommand) IsTransparent() bool {
	return c.transparent
}

// SetTransparent marks the command as transparent or opaque.
func (c *RenderCommand) SetTransparent(transparent bool) {
	c.transparent = transparent
}

// Is3D reports whether the command renders in the 3D passes.
func (c *RenderCommand) Is3D() bool {
	return c.is3D
}

// Set3D moves the command between the 2D and 3D passes.
func (c *RenderCommand) Set3D(is3D bool) {
	c.is3D = is3D
}

// SkipBatching reports whether the command must be dispatched on its own.
func (c *RenderCommand) SkipBatching() bool {
	return c.skipBatching
}

// SetSkipBatching excludes the command from merging with its neighbours.
func (c *RenderCommand) SetSkipBatching(skip bool) {
	c.skipBatching = skip
}

// PipelineDescriptor returns the command's descriptor. Changes through the returned pointer
// take effect as long as they happen before the command is submitted.
func (c *RenderCommand) PipelineDescriptor() *pipeline.Descriptor {
	return &c.pipeline
}

// Quad returns the quad payload. It is only meaningful for TypeQuad.
func (c *RenderCommand) Quad() *Quad {
	return &c.quad
}

// Triangles returns the triangle payload. It is only meaningful for TypeTriangles.
func (c *RenderCommand) Triangles() *Triangles {
	return &c.triangles
}

// Mesh returns the mesh payload, nil unless the command is a TypeMesh.
func (c *RenderCommand) Mesh() *MeshData {
	return c.mesh
}

// SetMesh replaces the mesh payload.
func (c *RenderCommand) SetMesh(mesh *MeshData) {
	c.mesh = mesh
}

// Custom returns the function run by a TypeCustom command.
func (c *RenderCommand) Custom() CustomFunc {
	return c.custom
}

// Callback returns the function run by a TypeCallback command.
func (c *RenderCommand) Callback() func() {
	return c.callback
}

// Capture returns the function run by a TypeCaptureScreen command.
func (c *RenderCommand) Capture() CaptureFunc {
	return c.capture
}

// RenderQueueID returns the queue referenced by a TypeGroup command.
func (c *RenderCommand) RenderQueueID() int {
	return c.queueID
}

// SetRenderQueueID points a TypeGroup command at another render queue.
func (c *RenderCommand) SetRenderQueueID(id int) {
	c.queueID = id
}

// VertexCount returns the number of vertices the command contributes to a batch.
func (c *RenderCommand) VertexCount() int {
	switch c.typ {
	case TypeQuad:
		return len(c.quad)
	case TypeTriangles:
		return len(c.triangles.Vertices)
	case TypeMesh:
		if c.mesh != nil {
			return len(c.mesh.Vertices)
		}
	}
	return 0
}
