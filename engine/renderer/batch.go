package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
)

// DefaultMaxBatchVertices is the largest vertex count a consolidated batch may hold. Batches use
// 16-bit indices.
const DefaultMaxBatchVertices = 65535

// batcher walks sorted buckets and merges adjacent compatible commands into dispatch units.
type batcher struct {
	maxVertices int

	units []DispatchUnit
	open  bool

	batched   int
	malformed int
}

// effectiveDescriptor returns the descriptor a unit in bucket is drawn with.
func effectiveDescriptor(desc pipeline.Descriptor, bucket Bucket) pipeline.Descriptor {
	if bucket == BucketTransparent3D {
		desc.DepthWrite = false
	}
	return desc
}

// reset drops the units of the previous pass, keeping their storage.
func (b *batcher) reset() {
	b.units = b.units[:0]
	b.open = false
	b.batched = 0
	b.malformed = 0
}

// addBucket batches the sorted commands of one bucket. Units never span buckets.
func (b *batcher) addBucket(cmds []*command.RenderCommand, bucket Bucket) {
	for _, cmd := range cmds {
		b.add(cmd, bucket)
	}
	b.open = false
}

func (b *batcher) add(cmd *command.RenderCommand, bucket Bucket) {
	if err := validateGeometry(cmd); err != nil {
		logger.Warningf("dropping %s command: %v", cmd.Type(), err)
		b.malformed++
		return
	}

	if cmd.Type().IsBarrier() {
		b.open = false
		b.units = append(b.units, DispatchUnit{
			Type:     cmd.Type(),
			Bucket:   bucket,
			Pipeline: effectiveDescriptor(*cmd.PipelineDescriptor(), bucket),
			Commands: []*command.RenderCommand{cmd},
		})
		return
	}

	if b.open && b.canMerge(&b.units[len(b.units)-1], cmd) {
		b.append(&b.units[len(b.units)-1], cmd)
		b.batched++
		return
	}

	b.units = append(b.units, DispatchUnit{
		Type:     cmd.Type(),
		Bucket:   bucket,
		Pipeline: effectiveDescriptor(*cmd.PipelineDescriptor(), bucket),
	})
	b.append(&b.units[len(b.units)-1], cmd)
	b.open = !cmd.SkipBatching()
}

func (b *batcher) canMerge(unit *DispatchUnit, cmd *command.RenderCommand) bool {
	if cmd.SkipBatching() || unit.Type != cmd.Type() || !cmd.Type().Batchable() {
		return false
	}
	if !pipeline.Compatible(unit.Commands[0].PipelineDescriptor(), cmd.PipelineDescriptor()) {
		return false
	}
	if unit.Type == command.TypeMesh {
		return unit.Mesh == cmd.Mesh()
	}
	return len(unit.Vertices)+cmd.VertexCount() <= b.maxVertices
}

// append adds cmd's geometry to unit. Quad and Triangles vertices are moved to camera space so
// that members with different transforms share one stream.
func (b *batcher) append(unit *DispatchUnit, cmd *command.RenderCommand) {
	unit.Commands = append(unit.Commands, cmd)
	mv := cmd.ModelView()

	switch cmd.Type() {
	case command.TypeQuad:
		base := uint16(len(unit.Vertices))
		for _, v := range cmd.Quad() {
			v.Position = common.TransformPoint(mv, v.Position)
			unit.Vertices = append(unit.Vertices, v)
		}
		for _, idx := range command.QuadIndices {
			unit.Indices = append(unit.Indices, base+idx)
		}
	case command.TypeTriangles:
		tris := cmd.Triangles()
		base := uint16(len(unit.Vertices))
		for _, v := range tris.Vertices {
			v.Position = common.TransformPoint(mv, v.Position)
			unit.Vertices = append(unit.Vertices, v)
		}
		for _, idx := range tris.Indices {
			unit.Indices = append(unit.Indices, base+idx)
		}
	case command.TypeMesh:
		unit.Mesh = cmd.Mesh()
		unit.Instances = append(unit.Instances, mv)
	}
}

// validateGeometry rejects payloads the backend could not draw.
func validateGeometry(cmd *command.RenderCommand) error {
	switch cmd.Type() {
	case command.TypeTriangles:
		tris := cmd.Triangles()
		if len(tris.Indices)%3 != 0 {
			return fmt.Errorf("index count %d is not a multiple of 3", len(tris.Indices))
		}
		if len(tris.Vertices) > DefaultMaxBatchVertices {
			return fmt.Errorf("%d vertices exceed the 16-bit index range", len(tris.Vertices))
		}
		for _, idx := range tris.Indices {
			if int(idx) >= len(tris.Vertices) {
				return fmt.Errorf("index %d out of range for %d vertices", idx, len(tris.Vertices))
			}
		}
	case command.TypeMesh:
		mesh := cmd.Mesh()
		if mesh == nil {
			return fmt.Errorf("mesh is nil: %w", ErrResourceMissing)
		}
		for _, idx := range mesh.Indices {
			if int(idx) >= len(mesh.Vertices) {
				return fmt.Errorf("mesh %q index %d out of range for %d vertices", mesh.Key, idx, len(mesh.Vertices))
			}
		}
	case command.TypeCustom:
		if cmd.Custom() == nil {
			return fmt.Errorf("custom function is nil")
		}
	case command.TypeCallback:
		if cmd.Callback() == nil {
			return fmt.Errorf("callback is nil")
		}
	case command.TypeCaptureScreen:
		if cmd.Capture() == nil {
			return fmt.Errorf("capture callback is nil")
		}
	}
	return nil
}
