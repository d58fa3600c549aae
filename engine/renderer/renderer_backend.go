package renderer

import (
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// BackendType identifies the backend implementation selected by configuration.
type BackendType int

const (
	// BackendTypeSoftware selects the headless CPU rasterizer.
	BackendTypeSoftware BackendType = iota

	// BackendTypeWGPU selects the WebGPU backend.
	BackendTypeWGPU
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8x multisample anti-aliasing. Adapter-dependent.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16x multisample anti-aliasing. Adapter-dependent.
	MSAA16x MSAASampleCount = 16
)

// Viewport is a pixel rectangle of the render target. The zero value means the whole target.
type Viewport struct {
	X, Y, Width, Height int
}

// Empty reports whether the viewport covers the whole target.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// PassInfo describes one camera pass.
type PassInfo struct {
	// View is the world-to-camera transform. Command model-view matrices already include it.
	View mgl32.Mat4

	// Projection maps camera space to clip space in OpenGL conventions.
	Projection mgl32.Mat4

	// CameraIndex is the position of the camera in the scene's sorted camera list.
	CameraIndex int

	// ClearColor is applied by the first pass of a frame.
	ClearColor color.RGBA

	// ClearDepth clears the depth buffer at the start of the pass.
	ClearDepth bool

	// Viewport restricts drawing to part of the target.
	Viewport Viewport
}

// DefaultPassInfo returns a pass with identity view and projection that clears depth.
func DefaultPassInfo() PassInfo {
	return PassInfo{
		View:       mgl32.Ident4(),
		Projection: mgl32.Ident4(),
		ClearColor: color.RGBA{A: 255},
		ClearDepth: true,
	}
}

// Bucket is one of the ordered partitions the renderer sorts commands into. Buckets are drawn
// in ascending order.
type Bucket uint8

const (
	// BucketBackgroundOpaque holds opaque 2D commands ordered below the background threshold.
	BucketBackgroundOpaque Bucket = iota

	// BucketBackgroundTransparent holds transparent 2D commands ordered below the background threshold.
	BucketBackgroundTransparent

	// BucketOpaque3D holds opaque 3D commands.
	BucketOpaque3D

	// BucketTransparent3D holds transparent 3D commands. Depth writes are disabled for it.
	BucketTransparent3D

	// BucketOpaque2D holds the remaining opaque 2D commands.
	BucketOpaque2D

	// BucketTransparent2D holds the remaining transparent 2D commands.
	BucketTransparent2D

	bucketCount
)

var bucketNames = [...]string{
	BucketBackgroundOpaque:      "BackgroundOpaque",
	BucketBackgroundTransparent: "BackgroundTransparent",
	BucketOpaque3D:              "Opaque3D",
	BucketTransparent3D:         "Transparent3D",
	BucketOpaque2D:              "Opaque2D",
	BucketTransparent2D:         "Transparent2D",
}

func (b Bucket) String() string {
	if b < bucketCount {
		return bucketNames[b]
	}
	return "Invalid"
}

// Transparent reports whether the bucket is sorted back to front.
func (b Bucket) Transparent() bool {
	return b == BucketBackgroundTransparent || b == BucketTransparent3D || b == BucketTransparent2D
}

// DispatchUnit is one backend submission: either a batch of merged draw commands or a single
// barrier command.
type DispatchUnit struct {
	// Type is the type shared by every member command.
	Type command.Type

	// Bucket is the partition the members were sorted in.
	Bucket Bucket

	// Pipeline is the effective descriptor: the members' descriptor adjusted for the bucket.
	Pipeline pipeline.Descriptor

	// Commands are the member commands in dispatch order.
	Commands []*command.RenderCommand

	// Vertices holds the consolidated camera-space vertices of Quad and Triangles units.
	Vertices []command.Vertex

	// Indices index into Vertices.
	Indices []uint16

	// Mesh is the shared geometry of a Mesh unit.
	Mesh *command.MeshData

	// Instances are the model-view transforms of a Mesh unit, one per member.
	Instances []mgl32.Mat4
}

// VertexCount returns the number of vertices the unit draws.
func (u *DispatchUnit) VertexCount() int {
	if u.Type == command.TypeMesh && u.Mesh != nil {
		return len(u.Mesh.Vertices) * len(u.Instances)
	}
	return len(u.Vertices)
}

// Backend executes dispatch units against a render target. Backends are driven from the single
// dispatch thread.
//
// Errors wrapping ErrContextLost are systemic and abort the frame. Any other error fails only the
// unit it was returned for.
type Backend interface {
	// BeginFrame acquires the render target for a new frame.
	BeginFrame() error

	// BeginPass starts a camera pass. The first pass of a frame clears the color target.
	BeginPass(pass PassInfo) error

	// Dispatch draws one unit in the current pass.
	Dispatch(unit *DispatchUnit) error

	// EndPass finishes the current pass.
	EndPass() error

	// EndFrame submits the frame's recorded work.
	EndFrame() error

	// Present shows the finished frame.
	Present()

	// CaptureScreen reads back the color target as drawn so far in the current pass.
	CaptureScreen() (*image.RGBA, error)

	// Resize reconfigures the render target.
	Resize(width, height int)
}
