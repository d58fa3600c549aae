package gpu

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// Program entry points every registered WGSL program must export.
const (
	entryBatched  = "vs_main"
	entryMesh     = "vs_mesh"
	entryFragment = "fs_main"
)

// vertexStride is the size of command.Vertex: position (3 x f32), color (4 x u8), uv (2 x f32).
const vertexStride = 24

// instanceStride is the size of one model-view matrix in the mesh instance buffer.
const instanceStride = 64

// passUniformSize is the size of the per-pass uniform block.
const passUniformSize = 64

// defaultProgramSource is the built-in position/color/texture program. Batched geometry arrives
// in camera space and only needs the projection; mesh geometry is in model space and carries one
// model-view matrix per instance.
const defaultProgramSource = `
//@oxy:group 0 0 pass_data pass_data
//@oxy:group 1 0 texture color_texture
//@oxy:group 1 1 sampler color_sampler
//@oxy:include vertex_out

@vertex
fn vs_main(
    @location(0) position: vec3<f32>,
    @location(1) color: vec4<f32>,
    @location(2) uv: vec2<f32>,
) -> VertexOut {
    var out: VertexOut;
    out.position = pass_data.projection * vec4<f32>(position, 1.0);
    out.color = color;
    out.uv = uv;
    return out;
}

@vertex
fn vs_mesh(
    @location(0) position: vec3<f32>,
    @location(1) color: vec4<f32>,
    @location(2) uv: vec2<f32>,
    @location(3) mv0: vec4<f32>,
    @location(4) mv1: vec4<f32>,
    @location(5) mv2: vec4<f32>,
    @location(6) mv3: vec4<f32>,
) -> VertexOut {
    let mv = mat4x4<f32>(mv0, mv1, mv2, mv3);
    var out: VertexOut;
    out.position = pass_data.projection * mv * vec4<f32>(position, 1.0);
    out.color = color;
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
    return textureSample(color_texture, color_sampler, in.uv) * in.color;
}
`

// programLayout is the resource every program may bind at each slot. It mirrors initLayouts.
var programLayout = map[shader.BindingKey]shader.AnnotationArg{
	{Group: 0, Binding: 0}: shader.AnnotationArgPassData,
	{Group: 1, Binding: 0}: shader.AnnotationArgTexture,
	{Group: 1, Binding: 1}: shader.AnnotationArgSampler,
}

// prepareProgram expands the program's annotations and checks that it exports the required
// entry points and binds only what the layout provides.
func prepareProgram(source string) (string, error) {
	pp := shader.NewPreProcessor()
	expanded, err := pp.Process(source)
	if err != nil {
		return "", err
	}
	if err := shader.CheckLayout(pp.Declarations(), programLayout); err != nil {
		return "", err
	}

	vertex, fragment := shader.EntryPoints(expanded)
	for _, entry := range []string{entryBatched, entryMesh} {
		if !slices.Contains(vertex, entry) {
			return "", fmt.Errorf("missing vertex entry point %q", entry)
		}
	}
	if !slices.Contains(fragment, entryFragment) {
		return "", fmt.Errorf("missing fragment entry point %q", entryFragment)
	}
	return expanded, nil
}

// builtinPrograms are registered with every backend.
var builtinPrograms = map[string]string{
	pipeline.DefaultProgram: defaultProgramSource,
}

// webGPUProjection converts an OpenGL-convention projection for use in WGSL.
func webGPUProjection(projection mgl32.Mat4) mgl32.Mat4 {
	return common.WebGPUClipCorrection.Mul4(projection)
}
