package camera

import (
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/go-gl/mathgl/mgl32"
)

// CameraBuilderOption is a functional option applied to a camera during construction.
type CameraBuilderOption func(*Camera)

// WithName sets the camera node's name.
func WithName(name string) CameraBuilderOption {
	return func(c *Camera) {
		c.SetName(name)
	}
}

// WithDepth sets the render order. Lower depths render first.
//
// Parameters:
//   - depth: the camera order
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's depth
func WithDepth(depth int) CameraBuilderOption {
	return func(c *Camera) {
		c.depth = depth
	}
}

// WithCameraFlag sets the flag matched against node camera masks.
//
// Parameters:
//   - flag: the camera flag
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's flag
func WithCameraFlag(flag node.CameraFlag) CameraBuilderOption {
	return func(c *Camera) {
		c.flag = flag
	}
}

// WithPosition places the camera relative to its parent.
//
// Parameters:
//   - x, y, z: the position components
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's position
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *Camera) {
		c.SetPosition(mgl32.Vec3{x, y, z})
	}
}

// WithLookAt orients the camera toward target with +Y up. Apply it after WithPosition.
//
// Parameters:
//   - x, y, z: the target in the parent's space
//
// Returns:
//   - CameraBuilderOption: a function that orients the camera
func WithLookAt(x, y, z float32) CameraBuilderOption {
	return func(c *Camera) {
		c.LookAt(mgl32.Vec3{x, y, z}, mgl32.Vec3{0, 1, 0})
	}
}
