package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// triangle returns a document with one indexed triangle and the bytes of its single buffer.
// The buffer's URI is left empty.
func triangle() (*gltfDocument, []byte) {
	var bin bytes.Buffer
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		binary.Write(&bin, binary.LittleEndian, f)
	}
	binary.Write(&bin, binary.LittleEndian, []uint16{0, 1, 2, 0})

	doc := &gltfDocument{
		Asset:  gltfAsset{Version: "2.0"},
		Scene:  ptr(0),
		Scenes: []gltfScene{{Nodes: []int{0}}},
		Nodes:  []gltfNode{{Name: "tri", Mesh: ptr(0)}},
		Meshes: []gltfMesh{{Primitives: []gltfPrimitive{{
			Attributes: map[string]int{"POSITION": 0},
			Indices:    ptr(1),
		}}}},
		Accessors: []gltfAccessor{
			{BufferView: ptr(0), ComponentType: gltfComponentTypeFloat, Count: 3, Type: gltfAccessorTypeVec3},
			{BufferView: ptr(1), ComponentType: gltfComponentTypeUnsignedShort, Count: 3, Type: gltfAccessorTypeScalar},
		},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 36},
			{Buffer: 0, ByteOffset: 36, ByteLength: 6},
		},
		Buffers: []gltfBuffer{{ByteLength: bin.Len()}},
	}
	return doc, bin.Bytes()
}

func embedded(t *testing.T, doc *gltfDocument, bin []byte) []byte {
	t.Helper()
	doc.Buffers[0].URI = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin)
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func glb(t *testing.T, doc *gltfDocument, bin []byte) []byte {
	t.Helper()
	jsonData, err := json.Marshal(doc)
	require.NoError(t, err)
	for len(jsonData)%4 != 0 {
		jsonData = append(jsonData, ' ')
	}
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}

	var out bytes.Buffer
	total := 12 + 8 + len(jsonData) + 8 + len(bin)
	binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)})
	binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonData)), ChunkType: gltfGLBChunkJSON})
	out.Write(jsonData)
	binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN})
	out.Write(bin)
	return out.Bytes()
}

func TestLoadReaderEmbeddedTriangle(t *testing.T) {
	doc, bin := triangle()
	doc.Materials = []gltfMaterial{{
		PbrMetallicRoughness: &gltfPbrMetallicRoughness{BaseColorFactor: &[4]float32{1, 0, 0, 1}},
	}}
	doc.Meshes[0].Primitives[0].Material = ptr(0)

	l := NewLoader(BackendTypeGLTF)
	mesh, err := l.LoadReader("tri", bytes.NewReader(embedded(t, doc, bin)), false)
	require.NoError(t, err)

	assert.Equal(t, "tri", mesh.Key)
	assert.Equal(t, []uint32{0, 1, 2}, mesh.Indices)
	require.Len(t, mesh.Vertices, 3)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, mesh.Vertices[1].Position)
	for _, v := range mesh.Vertices {
		assert.Equal(t, command.Color4B{R: 255, A: 255}, v.Color)
	}
	assert.Same(t, mesh, l.Get("tri"))
}

func TestLoadReaderGLBMatchesEmbedded(t *testing.T) {
	doc, bin := triangle()
	fromJSON, err := NewLoader(BackendTypeGLTF).LoadReader("a", bytes.NewReader(embedded(t, doc, bin)), false)
	require.NoError(t, err)

	doc, bin = triangle()
	fromGLB, err := NewLoader(BackendTypeGLTF).LoadReader("a", bytes.NewReader(glb(t, doc, bin)), true)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromGLB)
}

func TestNodeTransformsAreBaked(t *testing.T) {
	doc, bin := triangle()
	doc.Nodes = []gltfNode{
		{Translation: &[3]float32{0, 0, -5}, Children: []int{1}},
		{Scale: &[3]float32{2, 2, 2}, Mesh: ptr(0)},
	}

	mesh, err := NewLoader(BackendTypeGLTF).LoadReader("moved", bytes.NewReader(embedded(t, doc, bin)), false)
	require.NoError(t, err)
	assert.Equal(t, mgl32.Vec3{2, 0, -5}, mesh.Vertices[1].Position)
	assert.Equal(t, mgl32.Vec3{0, 2, -5}, mesh.Vertices[2].Position)
}

func TestRotationIsXYZW(t *testing.T) {
	doc, bin := triangle()
	half := float32(math.Sqrt2 / 2)
	// A quarter turn around +Z maps +X onto +Y.
	doc.Nodes[0].Rotation = &[4]float32{0, 0, half, half}

	mesh, err := NewLoader(BackendTypeGLTF).LoadReader("turned", bytes.NewReader(embedded(t, doc, bin)), false)
	require.NoError(t, err)
	assert.True(t, mesh.Vertices[1].Position.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, 1e-5), "%v", mesh.Vertices[1].Position)
}

func TestNormalizedVertexColors(t *testing.T) {
	doc, bin := triangle()
	bin = append(bin, 255, 0, 0, 255, 0, 255, 0, 255, 0, 0, 255, 128)
	doc.BufferViews = append(doc.BufferViews, gltfBufferView{Buffer: 0, ByteOffset: 44, ByteLength: 12})
	doc.Accessors = append(doc.Accessors, gltfAccessor{
		BufferView: ptr(2), ComponentType: gltfComponentTypeUnsignedByte, Normalized: true, Count: 3, Type: gltfAccessorTypeVec4,
	})
	doc.Buffers[0].ByteLength = len(bin)
	doc.Meshes[0].Primitives[0].Attributes["COLOR_0"] = 2

	mesh, err := NewLoader(BackendTypeGLTF, WithFallbackColor(command.White)).
		LoadReader("colored", bytes.NewReader(embedded(t, doc, bin)), false)
	require.NoError(t, err)
	assert.Equal(t, command.Color4B{R: 255, A: 255}, mesh.Vertices[0].Color)
	assert.Equal(t, command.Color4B{G: 255, A: 255}, mesh.Vertices[1].Color)
	assert.Equal(t, command.Color4B{B: 255, A: 128}, mesh.Vertices[2].Color)
}

func TestFallbackColor(t *testing.T) {
	doc, bin := triangle()
	gray := command.Color4B{R: 128, G: 128, B: 128, A: 255}
	mesh, err := NewLoader(BackendTypeGLTF, WithFallbackColor(gray)).
		LoadReader("gray", bytes.NewReader(embedded(t, doc, bin)), false)
	require.NoError(t, err)
	assert.Equal(t, gray, mesh.Vertices[0].Color)
}

func TestFitRadius(t *testing.T) {
	doc, bin := triangle()
	doc.Nodes[0].Scale = &[3]float32{10, 10, 10}

	mesh, err := NewLoader(BackendTypeGLTF, WithFitRadius(1)).
		LoadReader("fit", bytes.NewReader(embedded(t, doc, bin)), false)
	require.NoError(t, err)

	var extent float32
	for _, v := range mesh.Vertices {
		extent = max(extent, v.Position.Len())
	}
	assert.InDelta(t, 1, extent, 1e-5)
}

func TestLoadFileWithExternalBufferIsCached(t *testing.T) {
	dir := t.TempDir()
	doc, bin := triangle()
	doc.Buffers[0].URI = "tri.bin"
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.bin"), bin, 0o644))
	path := filepath.Join(dir, "tri.gltf")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	l := NewLoader(BackendTypeGLTF)
	first, err := l.Load(path)
	require.NoError(t, err)
	second, err := l.Load(path)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, path, first.Key)
	assert.Len(t, l.Meshes(), 1)
}

func TestLoadErrors(t *testing.T) {
	l := NewLoader(BackendTypeGLTF)

	_, err := l.Load("model.obj")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = l.Load(filepath.Join(t.TempDir(), "missing.glb"))
	assert.Error(t, err)

	doc, bin := triangle()
	doc.Asset.Version = "1.0"
	_, err = l.LoadReader("old", bytes.NewReader(embedded(t, doc, bin)), false)
	assert.ErrorIs(t, err, errInvalidGLTFVersion)

	_, err = l.LoadReader("junk", bytes.NewReader([]byte("not a glb at all")), true)
	assert.ErrorIs(t, err, errInvalidGLBMagic)

	doc, bin = triangle()
	binary.LittleEndian.PutUint16(bin[38:], 7)
	_, err = l.LoadReader("oob", bytes.NewReader(embedded(t, doc, bin)), false)
	assert.ErrorContains(t, err, "out of range")

	doc, bin = triangle()
	doc.Meshes[0].Primitives[0].Mode = ptr(1)
	_, err = l.LoadReader("lines", bytes.NewReader(embedded(t, doc, bin)), false)
	assert.ErrorContains(t, err, "no triangles")

	assert.Empty(t, l.Meshes(), "failed loads are not cached")
}

func TestWithMeshPrepopulatesCache(t *testing.T) {
	mesh := &command.MeshData{Key: "cube"}
	l := NewLoader(BackendTypeGLTF, WithMesh("cube", mesh))

	got, err := l.Load("cube")
	require.NoError(t, err)
	assert.Same(t, mesh, got)
}
