package camera

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/go-gl/mathgl/mgl32"
)

// Kind returns the projection type.
func (c *Camera) Kind() Projection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

// Fov returns the vertical field of view in radians.
func (c *Camera) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

// SetFov sets the vertical field of view in radians.
func (c *Camera) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.projectionDirty = true
}

// Aspect returns the width / height ratio.
func (c *Camera) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

// SetAspect sets the width / height ratio.
func (c *Camera) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.projectionDirty = true
}

// Near returns the near clip distance.
func (c *Camera) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

// SetNear sets the near clip distance.
func (c *Camera) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.projectionDirty = true
}

// Far returns the far clip distance.
func (c *Camera) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

// SetFar sets the far clip distance.
func (c *Camera) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.projectionDirty = true
}

// SetOrthoSize sets the visible area of an orthographic camera.
func (c *Camera) SetOrthoSize(width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoWidth, c.orthoHeight = width, height
	if height != 0 {
		c.aspect = width / height
	}
	c.projectionDirty = true
}

// Projection returns the camera-to-clip transform in OpenGL conventions.
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func (c *Camera) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.projectionDirty {
		c.projectionMatrix = c.buildProjection()
		c.projectionDirty = false
	}
	return c.projectionMatrix
}

// buildProjection computes the projection matrix. The caller must hold mu.
func (c *Camera) buildProjection() mgl32.Mat4 {
	if c.projection == ProjectionOrthographic {
		hw, hh := c.orthoWidth/2, c.orthoHeight/2
		return mgl32.Ortho(-hw, hw, -hh, hh, c.near, c.far)
	}
	return mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
}

// View returns the world-to-camera transform, the inverse of the camera's world transform.
func (c *Camera) View() mgl32.Mat4 {
	return c.WorldTransform().Inv()
}

// ViewProjection returns Projection * View.
func (c *Camera) ViewProjection() mgl32.Mat4 {
	return c.Projection().Mul4(c.View())
}

// Frustum returns the view volume in camera space.
func (c *Camera) Frustum() common.Frustum {
	return common.ExtractFrustum(c.Projection())
}

// IsVisibleInFrustum reports whether a world-space sphere intersects the camera's view volume.
//
// Parameters:
//   - center: the sphere center in world space
//   - radius: the sphere radius
//
// Returns:
//   - bool: true if any part of the sphere may be visible
func (c *Camera) IsVisibleInFrustum(center mgl32.Vec3, radius float32) bool {
	f := common.ExtractFrustum(c.ViewProjection())
	return f.IntersectsSphere(center, radius)
}

// LookAt orients the camera toward target. Both the camera position and target are expressed in
// the parent's space.
//
// Parameters:
//   - target: the point to look at
//   - up: the approximate up direction
func (c *Camera) LookAt(target, up mgl32.Vec3) {
	eye := c.Position()
	if eye.ApproxEqual(target) {
		return
	}
	orientation := mgl32.LookAtV(eye, target, up).Inv()
	c.SetRotation(mgl32.Mat4ToQuat(orientation))
}

// Depth returns the camera's render order. Lower depths render first.
func (c *Camera) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth
}

// SetDepth changes the render order and invalidates the scene's camera order.
func (c *Camera) SetDepth(depth int) {
	c.mu.Lock()
	changed := c.depth != depth
	c.depth = depth
	reg := c.registry
	c.mu.Unlock()

	if changed && reg != nil {
		reg.SetCameraOrderDirty()
	}
}

// CameraFlag returns the flag matched against node camera masks.
func (c *Camera) CameraFlag() node.CameraFlag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flag
}

// SetCameraFlag sets the flag matched against node camera masks.
func (c *Camera) SetCameraFlag(flag node.CameraFlag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flag = flag
}

// IsDefault reports whether the camera is a scene's own default camera.
func (c *Camera) IsDefault() bool {
	return c.isDefault
}

// Registered reports whether the camera is indexed by a running scene.
func (c *Camera) Registered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry != nil
}

// Resize adapts the camera to a new target size. Default cameras are re-placed so one unit still
// covers one pixel; other cameras only update their aspect ratio.
//
// Parameters:
//   - width, height: the new size in pixels
func (c *Camera) Resize(width, height float32) {
	if height <= 0 {
		return
	}
	if c.isDefault {
		c.mu.Lock()
		c.placeForDesignSize(width, height)
		c.mu.Unlock()
		return
	}
	c.SetAspect(width / height)
}
