// Package camera provides scene cameras. A Camera is a node in the scene tree; its world
// transform places the eye and its projection settings shape the view volume. Cameras register
// with the scene they enter so the scene knows how many passes to render and in which order.
package camera

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Projection selects how a camera maps camera space to clip space.
type Projection int

const (
	// ProjectionPerspective uses a symmetric perspective frustum.
	ProjectionPerspective Projection = iota

	// ProjectionOrthographic uses a box centered on the view axis.
	ProjectionOrthographic
)

func (p Projection) String() string {
	if p == ProjectionOrthographic {
		return "orthographic"
	}
	return "perspective"
}

// DefaultFov is the vertical field of view of default cameras.
const DefaultFov = 60 * math32.Pi / 180

// Registry indexes the cameras of a running scene. The scene implements it; a camera finds it
// through the node.Host it enters under and keeps only a non-owning reference while running.
type Registry interface {
	AddCamera(c *Camera)
	RemoveCamera(c *Camera)
	SetCameraOrderDirty()
}

// Camera is a viewpoint in the scene.
type Camera struct {
	*node.Node

	mu *sync.Mutex

	projection  Projection
	fov         float32
	aspect      float32
	near        float32
	far         float32
	orthoWidth  float32
	orthoHeight float32

	projectionMatrix mgl32.Mat4
	projectionDirty  bool

	depth     int
	flag      node.CameraFlag
	isDefault bool

	registry Registry
}

// NewPerspective creates a perspective camera at the origin looking down -Z.
//
// Parameters:
//   - fov: the vertical field of view in radians
//   - aspect: width / height
//   - near, far: the clip plane distances
//   - options: variadic list of CameraBuilderOption functions
//
// Returns:
//   - *Camera: the new camera
func NewPerspective(fov, aspect, near, far float32, options ...CameraBuilderOption) *Camera {
	c := newCamera(ProjectionPerspective)
	c.fov, c.aspect, c.near, c.far = fov, aspect, near, far
	return c.apply(options)
}

// NewOrthographic creates an orthographic camera showing a width x height area centered on its
// view axis.
//
// Parameters:
//   - width, height: the size of the visible area
//   - near, far: the clip plane distances
//   - options: variadic list of CameraBuilderOption functions
//
// Returns:
//   - *Camera: the new camera
func NewOrthographic(width, height, near, far float32, options ...CameraBuilderOption) *Camera {
	c := newCamera(ProjectionOrthographic)
	c.orthoWidth, c.orthoHeight, c.near, c.far = width, height, near, far
	if height != 0 {
		c.aspect = width / height
	}
	return c.apply(options)
}

// NewDefault creates the camera a scene owns for a width x height design size. It is a
// perspective camera placed on the +Z axis above the center of the design area, at the distance
// where one world unit at z = 0 covers one pixel.
//
// Parameters:
//   - width, height: the design size in pixels
//
// Returns:
//   - *Camera: the new default camera
func NewDefault(width, height float32) *Camera {
	c := newCamera(ProjectionPerspective)
	c.isDefault = true
	c.SetName("default camera")
	c.fov = DefaultFov
	c.placeForDesignSize(width, height)
	return c.apply(nil)
}

func newCamera(p Projection) *Camera {
	return &Camera{
		Node:            node.New(node.WithCameraMask(node.CameraMaskAll)),
		mu:              &sync.Mutex{},
		projection:      p,
		fov:             DefaultFov,
		aspect:          1,
		near:            0.1,
		far:             1000,
		projectionDirty: true,
		flag:            node.CameraFlagDefault,
	}
}

func (c *Camera) apply(options []CameraBuilderOption) *Camera {
	for _, opt := range options {
		opt(c)
	}
	c.Attach(c)
	return c
}

// placeForDesignSize positions the camera so the design area fills the view at z = 0.
func (c *Camera) placeForDesignSize(width, height float32) {
	if width <= 0 || height <= 0 {
		width, height = 1, 1
	}
	zEye := height / 2 / math32.Tan(c.fov/2)
	c.aspect = width / height
	c.near = 0.5
	c.far = zEye + height
	c.projectionDirty = true
	c.SetPosition(mgl32.Vec3{width / 2, height / 2, zEye})
	c.SetRotation(mgl32.QuatIdent())
}

// OnEnter registers the camera with the scene it entered.
func (c *Camera) OnEnter(_ *node.Node, host node.Host) {
	reg, ok := host.(Registry)
	if !ok {
		return
	}
	c.mu.Lock()
	c.registry = reg
	c.mu.Unlock()
	reg.AddCamera(c)
}

// OnExit unregisters the camera and drops its reference to the scene.
func (c *Camera) OnExit(_ *node.Node, _ node.Host) {
	c.mu.Lock()
	reg := c.registry
	c.registry = nil
	c.mu.Unlock()
	if reg != nil {
		reg.RemoveCamera(c)
	}
}

func (c *Camera) String() string {
	return fmt.Sprintf("<Camera | %s depth=%d flag=%d default=%t>", c.projection, c.Depth(), c.CameraFlag(), c.isDefault)
}
