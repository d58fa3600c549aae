package gpu

import (
	"image/color"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// BackendBuilderOption is a functional option for configuring a Backend.
type BackendBuilderOption func(*Backend)

// WithPresentMode sets the initial presentation mode.
//
// Parameters:
//   - mode: the present mode to use
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode option to a Backend
func WithPresentMode(mode renderer.PresentMode) BackendBuilderOption {
	return func(b *Backend) {
		b.presentMode = presentMode(mode)
	}
}

// WithMSAA sets the MSAA sample count of the color and depth targets.
//
// Parameters:
//   - count: the MSAA sample count
//
// Returns:
//   - BackendBuilderOption: a function that applies the MSAA option to a Backend
func WithMSAA(count renderer.MSAASampleCount) BackendBuilderOption {
	return func(b *Backend) {
		b.sampleCount = common.Coalesce(count, renderer.MSAAOff)
	}
}

// WithForceFallbackAdapter requests the software fallback adapter. Used on machines without a
// usable GPU.
func WithForceFallbackAdapter(force bool) BackendBuilderOption {
	return func(b *Backend) {
		b.forceFallbackAdapter = force
	}
}

// WithClearColor sets the color used by the first pass of a frame when the pass does not supply
// one.
func WithClearColor(c color.RGBA) BackendBuilderOption {
	return func(b *Backend) {
		b.clearColor = wgpu.Color{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
			A: float64(c.A) / 255,
		}
	}
}
