package software

import "image/color"

// BackendBuilderOption is a functional option applied to a Backend during construction via NewBackend.
type BackendBuilderOption func(*Backend)

// WithClearColor sets the color the target is cleared to when a pass does not provide one.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - BackendBuilderOption: a function that applies the clear color option to a backend
func WithClearColor(c color.RGBA) BackendBuilderOption {
	return func(b *Backend) {
		b.clearColor = c
	}
}
