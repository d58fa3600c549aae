package renderer

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
)

// TransparentSortMode selects the key order used for transparent buckets.
type TransparentSortMode int

const (
	// SortDepthFirst sorts transparent commands back to front by depth, breaking ties by
	// ascending global order.
	SortDepthFirst TransparentSortMode = iota

	// SortOrderFirst sorts transparent commands by ascending global order, breaking ties back to
	// front by depth. Use it when nodes rely on explicit paint order.
	SortOrderFirst
)

func (m TransparentSortMode) String() string {
	switch m {
	case SortDepthFirst:
		return "depth"
	case SortOrderFirst:
		return "order"
	}
	return "invalid"
}

// renderQueue is the per-frame list of commands submitted to one queue id.
type renderQueue []*command.RenderCommand

// flatten appends the commands of queues[id] to dst in submission order, replacing every Group
// command with the contents of the queue it references. Groups referencing an invalid queue or a
// queue already being expanded are dropped.
func flatten(dst []*command.RenderCommand, queues []renderQueue, id int, expanding []bool) []*command.RenderCommand {
	expanding[id] = true
	for _, cmd := range queues[id] {
		if cmd.Type() != command.TypeGroup {
			dst = append(dst, cmd)
			continue
		}

		child := cmd.RenderQueueID()
		switch {
		case child <= 0 || child >= len(queues):
			logger.Warningf("group command references invalid render queue %d, skipping", child)
		case expanding[child]:
			logger.Warningf("group command references render queue %d recursively, skipping", child)
		default:
			dst = flatten(dst, queues, child, expanding)
		}
	}
	expanding[id] = false
	return dst
}

// bucketOf returns the partition cmd is drawn in.
func bucketOf(cmd *command.RenderCommand, backgroundThreshold float32) Bucket {
	if cmd.Is3D() {
		if cmd.IsTransparent() {
			return BucketTransparent3D
		}
		return BucketOpaque3D
	}
	if cmd.GlobalOrder() < backgroundThreshold {
		if cmd.IsTransparent() {
			return BucketBackgroundTransparent
		}
		return BucketBackgroundOpaque
	}
	if cmd.IsTransparent() {
		return BucketTransparent2D
	}
	return BucketOpaque2D
}

// compareOpaque orders front to back within explicit paint order.
func compareOpaque(a, b *command.RenderCommand) int {
	if c := cmp.Compare(a.GlobalOrder(), b.GlobalOrder()); c != 0 {
		return c
	}
	return cmp.Compare(a.Depth(), b.Depth())
}

// compareDepthFirst orders back to front, then by paint order.
func compareDepthFirst(a, b *command.RenderCommand) int {
	if c := cmp.Compare(b.Depth(), a.Depth()); c != 0 {
		return c
	}
	return cmp.Compare(a.GlobalOrder(), b.GlobalOrder())
}

// compareOrderFirst orders by paint order, then back to front.
func compareOrderFirst(a, b *command.RenderCommand) int {
	if c := cmp.Compare(a.GlobalOrder(), b.GlobalOrder()); c != 0 {
		return c
	}
	return cmp.Compare(b.Depth(), a.Depth())
}

// sortBucket stable-sorts cmds in place for the given bucket, so equal keys keep submission order.
func sortBucket(cmds []*command.RenderCommand, bucket Bucket, mode TransparentSortMode) {
	switch {
	case !bucket.Transparent():
		slices.SortStableFunc(cmds, compareOpaque)
	case mode == SortOrderFirst:
		slices.SortStableFunc(cmds, compareOrderFirst)
	default:
		slices.SortStableFunc(cmds, compareDepthFirst)
	}
}
