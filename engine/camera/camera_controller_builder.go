package camera

import "github.com/go-gl/mathgl/mgl32"

// OrbitControllerOption is a functional option for configuring an OrbitController.
type OrbitControllerOption func(*orbitController)

// WithRadius sets the initial distance from the target.
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - OrbitControllerOption: functional option to set the radius
func WithRadius(radius float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis. Zero looks from +Z.
func WithAzimuth(azimuth float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.azimuth = azimuth
	}
}

// WithElevation sets the initial angle above the horizontal plane.
func WithElevation(elevation float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.elevation = elevation
	}
}

// WithTarget sets the orbit pivot.
//
// Parameters:
//   - target: the point the camera looks at
//
// Returns:
//   - OrbitControllerOption: functional option to set the target
func WithTarget(target mgl32.Vec3) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.target = target
	}
}

// WithRadiusBounds sets the zoom limits.
//
// Parameters:
//   - lo: minimum distance from the target
//   - hi: maximum distance from the target
//
// Returns:
//   - OrbitControllerOption: functional option to set radius bounds
func WithRadiusBounds(lo, hi float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.minRadius, oc.maxRadius = lo, hi
	}
}

// WithElevationBounds sets the tilt limits in radians.
func WithElevationBounds(lo, hi float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.minElevation, oc.maxElevation = lo, hi
	}
}

// WithOrbitSpeed sets the radians moved per OrbitLeft/Right/Up/Down call.
func WithOrbitSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.orbitSpeed = speed
	}
}

// WithMouseSensitivity sets the radians per pixel used by Drag.
func WithMouseSensitivity(sensitivity float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.mouseSensitivity = sensitivity
	}
}

// WithZoomSpeed sets the zoom multiplier.
func WithZoomSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.zoomSpeed = speed
	}
}

// WithPanSpeed sets the pan multiplier.
func WithPanSpeed(speed float32) OrbitControllerOption {
	return func(oc *orbitController) {
		oc.panSpeed = speed
	}
}
