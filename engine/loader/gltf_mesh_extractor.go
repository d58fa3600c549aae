package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
)

// maxNodeDepth bounds the node hierarchy walk so malformed cyclic documents terminate.
const maxNodeDepth = 64

// meshExtractor flattens every triangle primitive reachable from the default scene into one
// MeshData, baking node transforms into the vertex positions.
type meshExtractor struct {
	parser   *gltfParser
	fallback mgl32.Vec4
	mesh     *command.MeshData
}

func extractMesh(p *gltfParser, fallback mgl32.Vec4) (*command.MeshData, error) {
	x := &meshExtractor{parser: p, fallback: fallback, mesh: &command.MeshData{}}
	doc := p.document

	if len(doc.Nodes) == 0 {
		// Documents without a node hierarchy still carry meshes.
		for i := range doc.Meshes {
			if err := x.addMesh(i, mgl32.Ident4()); err != nil {
				return nil, err
			}
		}
	} else {
		for _, root := range x.roots() {
			if err := x.addNode(root, mgl32.Ident4(), 0); err != nil {
				return nil, err
			}
		}
	}

	if len(x.mesh.Indices) == 0 {
		return nil, fmt.Errorf("document contains no triangles")
	}
	return x.mesh, nil
}

// roots returns the root nodes of the default scene, falling back to the first scene and then to
// every node that is nobody's child.
func (x *meshExtractor) roots() []int {
	doc := x.parser.document
	if len(doc.Scenes) > 0 {
		scene := 0
		if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
			scene = *doc.Scene
		}
		return doc.Scenes[scene].Nodes
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i, child := range isChild {
		if !child {
			roots = append(roots, i)
		}
	}
	return roots
}

func (x *meshExtractor) addNode(index int, parent mgl32.Mat4, depth int) error {
	doc := x.parser.document
	if index < 0 || index >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", index)
	}
	if depth > maxNodeDepth {
		return fmt.Errorf("node %d: hierarchy deeper than %d levels", index, maxNodeDepth)
	}

	n := &doc.Nodes[index]
	world := parent.Mul4(nodeTransform(n))
	if n.Mesh != nil {
		if err := x.addMesh(*n.Mesh, world); err != nil {
			return fmt.Errorf("node %d: %w", index, err)
		}
	}
	for _, c := range n.Children {
		if err := x.addNode(c, world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func nodeTransform(n *gltfNode) mgl32.Mat4 {
	if n.Matrix != nil {
		return mgl32.Mat4(*n.Matrix)
	}
	t := mgl32.Vec3{}
	if n.Translation != nil {
		t = mgl32.Vec3(*n.Translation)
	}
	r := mgl32.QuatIdent()
	if n.Rotation != nil {
		r = mgl32.Quat{W: n.Rotation[3], V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]}}
	}
	s := mgl32.Vec3{1, 1, 1}
	if n.Scale != nil {
		s = mgl32.Vec3(*n.Scale)
	}
	return common.ComposeTRS(t, r, s)
}

func (x *meshExtractor) addMesh(index int, world mgl32.Mat4) error {
	doc := x.parser.document
	if index < 0 || index >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", index)
	}
	for i, prim := range doc.Meshes[index].Primitives {
		if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
			logger.Warningf("mesh %d primitive %d: skipping non-triangle mode %d", index, i, *prim.Mode)
			continue
		}
		if err := x.addPrimitive(&prim, world); err != nil {
			return fmt.Errorf("mesh %d primitive %d: %w", index, i, err)
		}
	}
	return nil
}

func (x *meshExtractor) addPrimitive(prim *gltfPrimitive, world mgl32.Mat4) error {
	posIndex, ok := prim.Attributes["POSITION"]
	if !ok {
		return fmt.Errorf("missing POSITION attribute")
	}
	positions, err := x.parser.readVec3(posIndex)
	if err != nil {
		return err
	}

	var colors []mgl32.Vec4
	if i, ok := prim.Attributes["COLOR_0"]; ok {
		if colors, err = x.parser.readColors(i); err != nil {
			return err
		}
	}
	var uvs []mgl32.Vec2
	if i, ok := prim.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = x.parser.readVec2(i); err != nil {
			return err
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = x.parser.readIndices(*prim.Indices); err != nil {
			return err
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(indices))
	}

	factor, hasFactor := x.baseColor(prim.Material)
	base := uint32(len(x.mesh.Vertices))
	for i, p := range positions {
		c := x.fallback
		if hasFactor {
			c = factor
		}
		if i < len(colors) {
			c = mgl32.Vec4{c[0] * colors[i][0], c[1] * colors[i][1], c[2] * colors[i][2], c[3] * colors[i][3]}
		}
		v := command.Vertex{
			Position: common.TransformPoint(world, p),
			Color:    command.NewColor4B(c[0], c[1], c[2], c[3]),
		}
		if i < len(uvs) {
			v.UV = uvs[i]
		}
		x.mesh.Vertices = append(x.mesh.Vertices, v)
	}
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return fmt.Errorf("index %d out of range for %d vertices", idx, len(positions))
		}
		x.mesh.Indices = append(x.mesh.Indices, base+idx)
	}
	return nil
}

// baseColor returns the material's base color factor when the primitive's material has one.
func (x *meshExtractor) baseColor(material *int) (mgl32.Vec4, bool) {
	doc := x.parser.document
	if material == nil || *material < 0 || *material >= len(doc.Materials) {
		return mgl32.Vec4{}, false
	}
	pbr := doc.Materials[*material].PbrMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return mgl32.Vec4{}, false
	}
	return mgl32.Vec4(*pbr.BaseColorFactor), true
}

// fitToRadius centers the mesh on its bounding box and scales it so every vertex lies within
// radius of the origin.
func fitToRadius(mesh *command.MeshData, radius float32) {
	if len(mesh.Vertices) == 0 || radius <= 0 {
		return
	}
	lo, hi := mesh.Vertices[0].Position, mesh.Vertices[0].Position
	for _, v := range mesh.Vertices[1:] {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v.Position[k])
			hi[k] = max(hi[k], v.Position[k])
		}
	}
	center := lo.Add(hi).Mul(0.5)

	var extent float32
	for _, v := range mesh.Vertices {
		extent = max(extent, v.Position.Sub(center).Len())
	}
	scale := float32(1)
	if extent > 0 {
		scale = radius / extent
	}
	for i := range mesh.Vertices {
		mesh.Vertices[i].Position = mesh.Vertices[i].Position.Sub(center).Mul(scale)
	}
}
