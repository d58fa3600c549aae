package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// drawContext is the command.DrawContext handed to Custom commands.
type drawContext struct {
	backend Backend
	pass    PassInfo
	cmd     *command.RenderCommand
	bucket  Bucket

	draws    int
	vertices int
}

var _ command.DrawContext = &drawContext{}

func (c *drawContext) View() mgl32.Mat4 {
	return c.pass.View
}

func (c *drawContext) Projection() mgl32.Mat4 {
	return c.pass.Projection
}

func (c *drawContext) ModelView() mgl32.Mat4 {
	return c.cmd.ModelView()
}

func (c *drawContext) DrawTriangles(desc pipeline.Descriptor, vertices []command.Vertex, indices []uint16) error {
	if len(indices)%3 != 0 {
		return fmt.Errorf("draw triangles: index count %d is not a multiple of 3", len(indices))
	}
	mv := c.cmd.ModelView()
	unit := DispatchUnit{
		Type:     command.TypeTriangles,
		Bucket:   c.bucket,
		Pipeline: desc,
		Commands: []*command.RenderCommand{c.cmd},
		Vertices: make([]command.Vertex, len(vertices)),
		Indices:  indices,
	}
	for i, v := range vertices {
		v.Position = common.TransformPoint(mv, v.Position)
		unit.Vertices[i] = v
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return fmt.Errorf("draw triangles: index %d out of range for %d vertices", idx, len(vertices))
		}
	}

	if err := c.backend.Dispatch(&unit); err != nil {
		return err
	}
	c.draws++
	c.vertices += len(vertices)
	return nil
}
