package scene

import (
	"image/color"

	"github.com/Carmen-Shannon/oxy-render/engine/node"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the engine loop renders the scene. Scenes are active by default.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithSize overrides the design size used by the default camera.
//
// Parameters:
//   - width, height: the design size, ignored unless both are positive
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSize(width, height float32) SceneBuilderOption {
	return func(s *scene) {
		if width > 0 && height > 0 {
			s.width, s.height = width, height
		}
	}
}

// WithClearColor sets the color the first camera pass of a frame clears to.
func WithClearColor(c color.RGBA) SceneBuilderOption {
	return func(s *scene) {
		s.clearColor = c
	}
}

// WithParallelTraversal visits the root's children on a pool of worker goroutines. Each child
// records into its own command recorder and the recordings are replayed in paint order, so the
// renderer still receives one ordered submission stream. Zero keeps traversal serial.
//
// Parameters:
//   - workers: the number of traversal workers
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithParallelTraversal(workers int) SceneBuilderOption {
	return func(s *scene) {
		if workers < 0 {
			workers = 0
		}
		s.traversalWorkers = workers
	}
}

// WithChildren adds initial children under the scene root. They enter with the scene.
//
// Parameters:
//   - children: the nodes to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithChildren(children ...*node.Node) SceneBuilderOption {
	return func(s *scene) {
		for _, c := range children {
			s.root.AddChild(c)
		}
	}
}
