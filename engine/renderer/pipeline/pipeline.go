package pipeline

import (
	"encoding/binary"
	"hash/fnv"
)

// MaxTextureUnits is the number of texture bindings a Descriptor can reference.
const MaxTextureUnits = 4

// TextureID identifies a backend-resident texture. Zero means "no texture"; backends bind a
// 1x1 white texture in its place so untextured geometry renders with its vertex colors.
type TextureID uint32

// VertexLayout identifies the vertex format a program consumes.
type VertexLayout uint8

const (
	// LayoutPosColorTex is position (3 x f32), color (4 x u8 normalized) and texture coordinates (2 x f32).
	LayoutPosColorTex VertexLayout = iota
)

// BlendFactor is a source or destination factor in the blend equation.
type BlendFactor uint8

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDstColor
	BlendFactorOneMinusDstColor
)

// BlendFunc pairs the source and destination blend factors. Color and alpha share the same factors.
type BlendFunc struct {
	Src BlendFactor
	Dst BlendFactor
}

var (
	// BlendDisabled writes source color unmodified.
	BlendDisabled = BlendFunc{Src: BlendFactorOne, Dst: BlendFactorZero}

	// BlendAlphaPremultiplied blends colors that already carry their alpha.
	BlendAlphaPremultiplied = BlendFunc{Src: BlendFactorOne, Dst: BlendFactorOneMinusSrcAlpha}

	// BlendAlphaNonPremultiplied is classic "over" blending.
	BlendAlphaNonPremultiplied = BlendFunc{Src: BlendFactorSrcAlpha, Dst: BlendFactorOneMinusSrcAlpha}

	// BlendAdditive accumulates source over destination.
	BlendAdditive = BlendFunc{Src: BlendFactorSrcAlpha, Dst: BlendFactorOne}
)

// CullMode selects which triangle faces are discarded.
type CullMode uint8

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// Topology is the primitive assembly mode.
type Topology uint8

const (
	TopologyTriangleList Topology = iota
	TopologyLineList
	TopologyPointList
)

// DefaultProgram is the built-in position/color/texture program every backend provides.
const DefaultProgram = "position_texture_color"

// Descriptor is the GPU state a render command draws with: the program, the vertex layout, the
// bound textures and the fixed-function state. It is a plain comparable value so two commands
// share a batch exactly when their descriptors compare equal with ==.
type Descriptor struct {
	// Program is the key of a shader program registered with the backend.
	Program string

	// Layout is the vertex format the program expects.
	Layout VertexLayout

	// Textures are bound to consecutive texture units starting at 0.
	Textures [MaxTextureUnits]TextureID

	// Blend is the blend equation applied to the color target.
	Blend BlendFunc

	// DepthTest enables depth comparison against the depth buffer.
	DepthTest bool

	// DepthWrite enables writing fragment depth to the depth buffer.
	DepthWrite bool

	// Cull selects discarded faces.
	Cull CullMode

	// Topology is the primitive assembly mode.
	Topology Topology

	// UniformKey distinguishes otherwise identical descriptors whose program uniforms differ.
	// Commands with different uniform keys never batch together.
	UniformKey uint64
}

// NewDescriptor creates a Descriptor for the given program with alpha blending, no depth state
// and no culling, the defaults for 2D content. Options are applied in order.
//
// Parameters:
//   - program: the shader program key, DefaultProgram when empty
//   - opts: variadic list of DescriptorOption functions
//
// Returns:
//   - Descriptor: the configured descriptor
func NewDescriptor(program string, opts ...DescriptorOption) Descriptor {
	if program == "" {
		program = DefaultProgram
	}
	d := Descriptor{
		Program:  program,
		Layout:   LayoutPosColorTex,
		Blend:    BlendAlphaPremultiplied,
		Cull:     CullNone,
		Topology: TopologyTriangleList,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Compatible reports whether two descriptors describe identical GPU state.
//
// Parameters:
//   - a, b: the descriptors to compare
//
// Returns:
//   - bool: true when a == b
func Compatible(a, b *Descriptor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// BlendEnabled reports whether the descriptor blends with the destination.
func (d *Descriptor) BlendEnabled() bool {
	return d.Blend != BlendDisabled
}

// Texture returns the texture bound at unit, or zero when unit is out of range.
func (d *Descriptor) Texture(unit int) TextureID {
	if unit < 0 || unit >= MaxTextureUnits {
		return 0
	}
	return d.Textures[unit]
}

// ID returns a stable 64-bit FNV-1a hash of the descriptor. Backends key their realized GPU
// pipelines and bind groups by it.
//
// Returns:
//   - uint64: the descriptor hash
func (d *Descriptor) ID() uint64 {
	h := fnv.New64a()
	h.Write([]byte(d.Program))
	h.Write([]byte{0, byte(d.Layout), byte(d.Blend.Src), byte(d.Blend.Dst), boolByte(d.DepthTest), boolByte(d.DepthWrite), byte(d.Cull), byte(d.Topology)})

	var buf [8]byte
	for _, tex := range d.Textures {
		binary.LittleEndian.PutUint32(buf[:4], uint32(tex))
		h.Write(buf[:4])
	}
	binary.LittleEndian.PutUint64(buf[:], d.UniformKey)
	h.Write(buf[:])
	return h.Sum64()
}

// PipelineID hashes only the state that shapes a GPU pipeline object (program, layout, blend,
// depth, cull, topology), leaving texture and uniform bindings out.
//
// Returns:
//   - uint64: the pipeline-state hash
func (d *Descriptor) PipelineID() uint64 {
	state := *d
	state.Textures = [MaxTextureUnits]TextureID{}
	state.UniformKey = 0
	return state.ID()
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
