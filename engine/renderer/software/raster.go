package software

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// index is the element type of an index list. Batched geometry uses 16-bit indices and meshes
// 32-bit ones.
type index interface {
	~uint16 | ~uint32
}

// drawIndexed fills the triangles of an indexed list. Vertices are transformed by the pass
// projection composed with mv. Triangles with a vertex behind the eye are skipped. The caller
// must hold b.mu.
func drawIndexed[I index](b *Backend, vertices []command.Vertex, indices []I, mv mgl32.Mat4, desc *pipeline.Descriptor, tex *common.TextureStagingData) error {
	if desc.Topology != pipeline.TopologyTriangleList {
		return fmt.Errorf("software: unsupported topology %d", desc.Topology)
	}
	for _, idx := range indices {
		if int(idx) >= len(vertices) {
			return fmt.Errorf("software: index %d out of range for %d vertices", idx, len(vertices))
		}
	}

	rect := b.viewportRect()
	w, h := float32(rect.Dx()), float32(rect.Dy())
	mvp := b.viewProj.Mul4(mv)

	op := draw.Over
	if !desc.BlendEnabled() {
		op = draw.Src
	}

	for i := 0; i+2 < len(indices); i += 3 {
		tri := [3]command.Vertex{vertices[indices[i]], vertices[indices[i+1]], vertices[indices[i+2]]}

		var pts [3]mgl32.Vec2
		visible := true
		for k, v := range tri {
			clip := mvp.Mul4x1(v.Position.Vec4(1))
			if clip.W() <= 0 {
				visible = false
				break
			}
			ndc := clip.Vec3().Mul(1 / clip.W())
			pts[k] = mgl32.Vec2{
				(ndc.X()*0.5 + 0.5) * w,
				(1 - (ndc.Y()*0.5 + 0.5)) * h,
			}
		}
		if !visible || signedArea(pts) == 0 {
			continue
		}

		b.ras.Reset(rect.Dx(), rect.Dy())
		b.ras.DrawOp = op
		b.ras.MoveTo(pts[0].X(), pts[0].Y())
		b.ras.LineTo(pts[1].X(), pts[1].Y())
		b.ras.LineTo(pts[2].X(), pts[2].Y())
		b.ras.ClosePath()
		b.ras.Draw(b.target, rect, image.NewUniform(shade(tri, tex)), image.Point{})
		b.triangles++
	}
	return nil
}

// viewportRect returns the pass viewport clipped to the target. The caller must hold mu.
func (b *Backend) viewportRect() image.Rectangle {
	bounds := b.target.Bounds()
	vp := b.pass.Viewport
	if vp.Empty() {
		return bounds
	}
	return image.Rect(vp.X, vp.Y, vp.X+vp.Width, vp.Y+vp.Height).Intersect(bounds)
}

func signedArea(p [3]mgl32.Vec2) float32 {
	return (p[1].X()-p[0].X())*(p[2].Y()-p[0].Y()) - (p[2].X()-p[0].X())*(p[1].Y()-p[0].Y())
}

// shade returns the flat color of a triangle: the average of its vertex colors, modulated by the
// texel at the average texture coordinate when a texture is bound.
func shade(tri [3]command.Vertex, tex *common.TextureStagingData) color.NRGBA {
	var r, g, bl, a float32
	var uv mgl32.Vec2
	for _, v := range tri {
		r += float32(v.Color.R)
		g += float32(v.Color.G)
		bl += float32(v.Color.B)
		a += float32(v.Color.A)
		uv = uv.Add(v.UV)
	}
	r, g, bl, a = r/3, g/3, bl/3, a/3

	if tex != nil && tex.Width > 0 && tex.Height > 0 {
		uv = uv.Mul(1.0 / 3)
		x := clampIndex(int(uv.X()*float32(tex.Width)), int(tex.Width))
		y := clampIndex(int(uv.Y()*float32(tex.Height)), int(tex.Height))
		off := (y*int(tex.Width) + x) * 4
		r *= float32(tex.Pixels[off]) / 255
		g *= float32(tex.Pixels[off+1]) / 255
		bl *= float32(tex.Pixels[off+2]) / 255
		a *= float32(tex.Pixels[off+3]) / 255
	}
	return color.NRGBA{R: uint8(r + 0.5), G: uint8(g + 0.5), B: uint8(bl + 0.5), A: uint8(a + 0.5)}
}

func clampIndex(i, n int) int {
	switch {
	case i < 0:
		return 0
	case i >= n:
		return n - 1
	}
	return i
}
