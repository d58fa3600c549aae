package command

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Color4B is an 8-bit per channel RGBA color.
type Color4B struct {
	R, G, B, A uint8
}

// White is opaque white.
var White = Color4B{255, 255, 255, 255}

// NewColor4B converts normalized float channels into a Color4B, clamping to [0, 1].
func NewColor4B(r, g, b, a float32) Color4B {
	return Color4B{unorm8(r), unorm8(g), unorm8(b), unorm8(a)}
}

// Opaque reports whether the color has full alpha.
func (c Color4B) Opaque() bool {
	return c.A == 255
}

func unorm8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Vertex is the position/color/texcoord vertex consumed by pipeline.LayoutPosColorTex.
// The layout is 24 bytes with no padding and is uploaded to the GPU as-is.
type Vertex struct {
	Position mgl32.Vec3
	Color    Color4B
	UV       mgl32.Vec2
}

// Quad holds the four corners of a quadrilateral in the order top-left, bottom-left,
// top-right, bottom-right.
type Quad [4]Vertex

// QuadIndices triangulates a Quad.
var QuadIndices = [6]uint16{0, 1, 2, 3, 2, 1}

// NewRectQuad builds an axis-aligned quad on the z = 0 plane with its bottom-left corner at
// (x, y), a uniform color, and texture coordinates spanning the full texture.
//
// Parameters:
//   - x, y: the bottom-left corner
//   - w, h: the size
//   - c: the vertex color
//
// Returns:
//   - Quad: the rectangle quad
func NewRectQuad(x, y, w, h float32, c Color4B) Quad {
	return Quad{
		{Position: mgl32.Vec3{x, y + h, 0}, Color: c, UV: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{x, y, 0}, Color: c, UV: mgl32.Vec2{0, 1}},
		{Position: mgl32.Vec3{x + w, y + h, 0}, Color: c, UV: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{x + w, y, 0}, Color: c, UV: mgl32.Vec2{1, 1}},
	}
}

// Triangles is an indexed triangle list.
type Triangles struct {
	Vertices []Vertex
	Indices  []uint16
}

// MeshData is geometry the backend may keep resident between frames. Key names the GPU-side
// buffers; commands that share the same *MeshData batch into one instanced draw.
type MeshData struct {
	Key      string
	Vertices []Vertex
	Indices  []uint32
}
