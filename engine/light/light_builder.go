package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a Light during construction.
type LightBuilderOption func(*Light)

// WithName sets the light node's name.
func WithName(name string) LightBuilderOption {
	return func(l *Light) {
		l.SetName(name)
	}
}

// WithPosition is an option builder that places the light relative to its parent.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a Light
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *Light) {
		l.SetPosition(mgl32.Vec3{x, y, z})
	}
}

// WithDirection is an option builder that rotates the light node so its -Z axis points along
// the given direction.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - LightBuilderOption: a function that orients the light
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *Light) {
		dir := mgl32.Vec3{x, y, z}
		if dir.Len() == 0 {
			return
		}
		l.SetRotation(mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, -1}, dir.Normalize()))
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - r: the red color component
//   - g: the green color component
//   - b: the blue color component
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a Light
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *Light) {
		l.color = mgl32.Vec3{r, g, b}
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *Light) {
		l.intensity = intensity
	}
}

// WithRange is an option builder that sets the attenuation distance for point and spot lights.
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *Light) {
		l.lightRange = lightRange
	}
}

// WithSpotCone is an option builder that sets the inner and outer cone half-angles for spot
// lights. Angles are given in degrees and stored as cosines.
//
// Parameters:
//   - innerDeg: inner cone half-angle in degrees
//   - outerDeg: outer cone half-angle in degrees
//
// Returns:
//   - LightBuilderOption: a function that applies the spot cone option to a Light
func WithSpotCone(innerDeg, outerDeg float32) LightBuilderOption {
	return func(l *Light) {
		l.innerCone = cosDeg(innerDeg)
		l.outerCone = cosDeg(outerDeg)
	}
}

// WithEnabled is an option builder that sets whether the light is active.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *Light) {
		l.enabled = enabled
	}
}

// WithLightFlag is an option builder that sets the light's flag.
func WithLightFlag(flag LightFlag) LightBuilderOption {
	return func(l *Light) {
		l.flag = flag
	}
}
