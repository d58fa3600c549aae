package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipelineKey identifies a realized render pipeline. Batched and mesh geometry use different
// vertex entry points and buffer layouts, so the same descriptor may realize two pipelines.
type pipelineKey struct {
	state uint64
	mesh  bool
}

// vertexLayout describes command.Vertex in buffer slot 0.
var vertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: vertexStride,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatUnorm8x4, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 16, ShaderLocation: 2},
	},
}

// instanceLayout describes one column-major model-view matrix per instance in buffer slot 1.
var instanceLayout = wgpu.VertexBufferLayout{
	ArrayStride: instanceStride,
	StepMode:    wgpu.VertexStepModeInstance,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 3},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 4},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 5},
		{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 6},
	},
}

// initLayouts creates the bind group layouts shared by every program: group 0 holds the pass
// uniforms, group 1 the texture and its sampler.
func (b *Backend) initLayouts() error {
	passLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Pass Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: passUniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create pass layout: %w", err)
	}

	textureLayout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Texture Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create texture layout: %w", err)
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Render Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{passLayout, textureLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Default Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}

	b.passLayout, b.textureLayout, b.layout, b.sampler = passLayout, textureLayout, layout, sampler
	return nil
}

// RegisterProgram compiles a WGSL program and makes it available to descriptors under key. The
// source must export the vs_main, vs_mesh and fs_main entry points and bind its resources the
// way the built-in program does. @oxy: annotations are expanded before compiling. Registering an existing key replaces the program and drops the
// pipelines realized from it.
//
// Parameters:
//   - key: the program key descriptors refer to
//   - source: the WGSL source
//
// Returns:
//   - error: error if the program is malformed or fails to compile
func (b *Backend) RegisterProgram(key, source string) error {
	code, err := prepareProgram(source)
	if err != nil {
		return fmt.Errorf("gpu: program %q: %w", key, err)
	}
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: code,
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: compile program %q: %w", key, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if old, ok := b.programs[key]; ok {
		old.Release()
		for k, p := range b.pipelines {
			p.Release()
			delete(b.pipelines, k)
		}
	}
	b.programs[key] = module
	return nil
}

// renderPipeline returns the cached pipeline for desc, realizing it on first use. The caller
// must hold mu.
func (b *Backend) renderPipeline(desc *pipeline.Descriptor, mesh bool) (*wgpu.RenderPipeline, error) {
	key := pipelineKey{state: desc.PipelineID(), mesh: mesh}
	if p, ok := b.pipelines[key]; ok {
		return p, nil
	}

	module, ok := b.programs[desc.Program]
	if !ok {
		return nil, fmt.Errorf("gpu: program %q: %w", desc.Program, renderer.ErrResourceMissing)
	}

	entry := entryBatched
	buffers := []wgpu.VertexBufferLayout{vertexLayout}
	if mesh {
		entry = entryMesh
		buffers = append(buffers, instanceLayout)
	}

	target := wgpu.ColorTargetState{
		Format:    b.surfaceFormat,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if desc.BlendEnabled() {
		target.Blend = blendState(desc.Blend)
	}

	depthCompare := wgpu.CompareFunctionLess
	if !desc.DepthTest {
		depthCompare = wgpu.CompareFunctionAlways
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  fmt.Sprintf("%s Render Pipeline %x", desc.Program, key.state),
		Layout: b.layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: entry,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: entryFragment,
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(desc.Topology),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cullMode(desc.Cull),
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create pipeline for %q: %w", desc.Program, err)
	}

	logger.Debugf("realized pipeline %x (program %s, mesh %t)", key.state, desc.Program, mesh)
	b.pipelines[key] = created
	return created, nil
}

func blendState(fn pipeline.BlendFunc) *wgpu.BlendState {
	component := wgpu.BlendComponent{
		SrcFactor: blendFactor(fn.Src),
		DstFactor: blendFactor(fn.Dst),
		Operation: wgpu.BlendOperationAdd,
	}
	return &wgpu.BlendState{Color: component, Alpha: component}
}

func blendFactor(f pipeline.BlendFactor) wgpu.BlendFactor {
	switch f {
	case pipeline.BlendFactorZero:
		return wgpu.BlendFactorZero
	case pipeline.BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case pipeline.BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	case pipeline.BlendFactorDstColor:
		return wgpu.BlendFactorDst
	case pipeline.BlendFactorOneMinusDstColor:
		return wgpu.BlendFactorOneMinusDst
	}
	return wgpu.BlendFactorOne
}

func cullMode(c pipeline.CullMode) wgpu.CullMode {
	switch c {
	case pipeline.CullBack:
		return wgpu.CullModeBack
	case pipeline.CullFront:
		return wgpu.CullModeFront
	}
	return wgpu.CullModeNone
}

func topology(t pipeline.Topology) wgpu.PrimitiveTopology {
	switch t {
	case pipeline.TopologyLineList:
		return wgpu.PrimitiveTopologyLineList
	case pipeline.TopologyPointList:
		return wgpu.PrimitiveTopologyPointList
	}
	return wgpu.PrimitiveTopologyTriangleList
}
