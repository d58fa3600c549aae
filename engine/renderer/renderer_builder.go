package renderer

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithTransparentSortMode sets the key order for transparent buckets. The default is SortDepthFirst.
//
// Parameters:
//   - mode: the TransparentSortMode to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the sort mode option to a renderer
func WithTransparentSortMode(mode TransparentSortMode) RendererBuilderOption {
	return func(r *renderer) {
		r.sortMode = mode
	}
}

// WithMaxBatchVertices caps the number of vertices consolidated into one batch. Values outside
// (0, DefaultMaxBatchVertices] are clamped to DefaultMaxBatchVertices.
//
// Parameters:
//   - max: the vertex cap
//
// Returns:
//   - RendererBuilderOption: a function that applies the batch size option to a renderer
func WithMaxBatchVertices(max int) RendererBuilderOption {
	return func(r *renderer) {
		if max <= 0 || max > DefaultMaxBatchVertices {
			max = DefaultMaxBatchVertices
		}
		r.maxBatchVertices = max
	}
}

// WithBackgroundOrderThreshold sets the global order below which 2D commands are drawn before
// all 3D content. The default is 0.
//
// Parameters:
//   - threshold: the global order threshold
//
// Returns:
//   - RendererBuilderOption: a function that applies the threshold option to a renderer
func WithBackgroundOrderThreshold(threshold float32) RendererBuilderOption {
	return func(r *renderer) {
		r.backgroundThreshold = threshold
	}
}
