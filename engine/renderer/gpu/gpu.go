// Package gpu is the WebGPU implementation of renderer.Backend. Every dispatch unit is streamed
// into frame-lifetime vertex and index buffers and drawn with a render pipeline realized from
// its pipeline descriptor. Pipelines are cached by the descriptor's pipeline-state hash and
// texture bind groups by texture id.
package gpu

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/log"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var logger = log.New("gpu")

// Backend draws dispatch units to a window surface.
type Backend struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat    wgpu.TextureFormat
	msaaTextureView  *wgpu.TextureView
	depthTextureView *wgpu.TextureView
	width, height    int

	presentMode          wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount          renderer.MSAASampleCount
	forceFallbackAdapter bool
	clearColor           wgpu.Color

	passLayout    *wgpu.BindGroupLayout
	textureLayout *wgpu.BindGroupLayout
	layout        *wgpu.PipelineLayout
	sampler       *wgpu.Sampler

	programs  map[string]*wgpu.ShaderModule
	pipelines map[pipelineKey]*wgpu.RenderPipeline
	textures  map[pipeline.TextureID]*wgpu.TextureView
	texGroups map[pipeline.TextureID]*wgpu.BindGroup

	// Frame state. Buffers and bind groups created during a frame are released after submit.
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	firstPass    bool
	passGroup    *wgpu.BindGroup
	frameBuffers []*wgpu.Buffer
	frameGroups  []*wgpu.BindGroup
}

var _ renderer.Backend = &Backend{}

// NewBackend creates a WebGPU backend drawing to the surface described by surfaceDescriptor and
// configures it for a width x height target. It panics if no adapter or device is available.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, typically from window.Window.SurfaceDescriptor
//   - width, height: the initial target size
//   - options: variadic list of BackendBuilderOption functions
//
// Returns:
//   - *Backend: the configured backend
func NewBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...BackendBuilderOption) *Backend {
	if surfaceDescriptor == nil {
		panic("gpu: NewBackend requires a surface descriptor")
	}
	runtime.LockOSThread()

	b := &Backend{
		mu:          &sync.Mutex{},
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: renderer.MSAAOff,
		clearColor:  wgpu.Color{R: 0, G: 0, B: 0, A: 1},
		programs:    make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[pipelineKey]*wgpu.RenderPipeline),
		textures:    make(map[pipeline.TextureID]*wgpu.TextureView),
		texGroups:   make(map[pipeline.TextureID]*wgpu.BindGroup),
	}
	for _, opt := range options {
		opt(b)
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(fmt.Sprintf("gpu: no adapter: %v", err))
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{Label: "Main Device"})
	if err != nil {
		panic(fmt.Sprintf("gpu: no device: %v", err))
	}
	b.device = d
	b.queue = d.GetQueue()

	b.configureSurface(width, height)
	if err := b.initLayouts(); err != nil {
		panic(fmt.Sprintf("gpu: %v", err))
	}
	for key, source := range builtinPrograms {
		if err := b.RegisterProgram(key, source); err != nil {
			panic(fmt.Sprintf("gpu: built-in program %q: %v", key, err))
		}
	}
	if err := b.RegisterTexture(0, common.SolidTexture(255, 255, 255, 255)); err != nil {
		panic(fmt.Sprintf("gpu: white texture: %v", err))
	}
	return b
}

// configureSurface (re)creates the swapchain, MSAA and depth targets.
func (b *Backend) configureSurface(width, height int) {
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.width, b.height = width, height

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	b.msaaTextureView = nil
	if count > 1 {
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
}

func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If a previous frame's surface texture is still held, acquiring another one fails with
	// "Surface image is already acquired".
	if b.frameSurface != nil {
		return fmt.Errorf("gpu: previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		// An outdated surface recovers after a reconfigure; anything else means the device is gone.
		logger.Warningf("surface texture unavailable, reconfiguring: %v", err)
		b.configureSurface(b.width, b.height)
		surfaceTexture, err = b.surface.GetCurrentTexture()
		if err != nil {
			return fmt.Errorf("gpu: acquire surface texture: %v: %w", err, renderer.ErrContextLost)
		}
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return fmt.Errorf("gpu: create command encoder: %v: %w", err, renderer.ErrContextLost)
	}

	b.frameEncoder = encoder
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.firstPass = true
	return nil
}

func (b *Backend) BeginPass(pass renderer.PassInfo) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return fmt.Errorf("gpu: BeginPass called outside a frame")
	}
	if b.framePass != nil {
		return fmt.Errorf("gpu: BeginPass called inside an open pass")
	}

	group, err := b.passBindGroup(pass)
	if err != nil {
		return err
	}

	colorLoad := wgpu.LoadOpLoad
	clearValue := b.clearColor
	if b.firstPass {
		colorLoad = wgpu.LoadOpClear
		if pass.ClearColor.A != 0 {
			clearValue = wgpu.Color{
				R: float64(pass.ClearColor.R) / 255,
				G: float64(pass.ClearColor.G) / 255,
				B: float64(pass.ClearColor.B) / 255,
				A: float64(pass.ClearColor.A) / 255,
			}
		}
	}
	depthLoad := wgpu.LoadOpLoad
	if b.firstPass || pass.ClearDepth {
		depthLoad = wgpu.LoadOpClear
	}

	// When MSAA is enabled the MSAA texture is the color attachment and the swapchain view is
	// the resolve target. Every pass stores so later passes can load its output.
	color := wgpu.RenderPassColorAttachment{
		View:       b.frameView,
		LoadOp:     colorLoad,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: clearValue,
	}
	if b.msaaTextureView != nil {
		color.View = b.msaaTextureView
		color.ResolveTarget = b.frameView
	}

	rp := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     depthLoad,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	if vp := pass.Viewport; !vp.Empty() {
		rp.SetViewport(float32(vp.X), float32(vp.Y), float32(vp.Width), float32(vp.Height), 0, 1)
	}

	b.framePass = rp
	b.passGroup = group
	b.firstPass = false
	return nil
}

func (b *Backend) Dispatch(unit *renderer.DispatchUnit) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return fmt.Errorf("gpu: Dispatch called outside a pass")
	}

	texGroup, err := b.textureBindGroup(unit.Pipeline.Texture(0))
	if err != nil {
		return err
	}

	switch unit.Type {
	case command.TypeQuad, command.TypeTriangles:
		return b.drawBatched(unit, texGroup)
	case command.TypeMesh:
		return b.drawMesh(unit, texGroup)
	}
	return fmt.Errorf("gpu: cannot dispatch %s units", unit.Type)
}

// drawBatched draws camera-space vertices with 16-bit indices. The caller must hold mu.
func (b *Backend) drawBatched(unit *renderer.DispatchUnit, texGroup *wgpu.BindGroup) error {
	if len(unit.Vertices) == 0 || len(unit.Indices) == 0 {
		return nil
	}
	rp, err := b.renderPipeline(&unit.Pipeline, false)
	if err != nil {
		return err
	}
	vb, err := b.streamBuffer("Batch Vertex Buffer", common.SliceToBytes(unit.Vertices), wgpu.BufferUsageVertex)
	if err != nil {
		return err
	}
	indices := unit.Indices
	if len(indices)%2 != 0 {
		// Buffer writes must be 4-byte aligned.
		indices = append(indices[:len(indices):len(indices)], 0)
	}
	ib, err := b.streamBuffer("Batch Index Buffer", common.SliceToBytes(indices), wgpu.BufferUsageIndex)
	if err != nil {
		return err
	}

	b.framePass.SetPipeline(rp)
	b.framePass.SetBindGroup(0, b.passGroup, nil)
	b.framePass.SetBindGroup(1, texGroup, nil)
	b.framePass.SetVertexBuffer(0, vb, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(ib, wgpu.IndexFormatUint16, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(len(unit.Indices)), 1, 0, 0, 0)
	return nil
}

// drawMesh draws model-space mesh vertices once per instance. The caller must hold mu.
func (b *Backend) drawMesh(unit *renderer.DispatchUnit, texGroup *wgpu.BindGroup) error {
	if unit.Mesh == nil {
		return fmt.Errorf("gpu: mesh unit without mesh: %w", renderer.ErrResourceMissing)
	}
	if len(unit.Instances) == 0 || len(unit.Mesh.Indices) == 0 {
		return nil
	}
	rp, err := b.renderPipeline(&unit.Pipeline, true)
	if err != nil {
		return err
	}
	vb, err := b.streamBuffer(unit.Mesh.Key+" Vertex Buffer", common.SliceToBytes(unit.Mesh.Vertices), wgpu.BufferUsageVertex)
	if err != nil {
		return err
	}
	inst, err := b.streamBuffer(unit.Mesh.Key+" Instance Buffer", common.SliceToBytes(unit.Instances), wgpu.BufferUsageVertex)
	if err != nil {
		return err
	}
	ib, err := b.streamBuffer(unit.Mesh.Key+" Index Buffer", common.SliceToBytes(unit.Mesh.Indices), wgpu.BufferUsageIndex)
	if err != nil {
		return err
	}

	b.framePass.SetPipeline(rp)
	b.framePass.SetBindGroup(0, b.passGroup, nil)
	b.framePass.SetBindGroup(1, texGroup, nil)
	b.framePass.SetVertexBuffer(0, vb, 0, wgpu.WholeSize)
	b.framePass.SetVertexBuffer(1, inst, 0, wgpu.WholeSize)
	b.framePass.SetIndexBuffer(ib, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.framePass.DrawIndexed(uint32(len(unit.Mesh.Indices)), uint32(len(unit.Instances)), 0, 0, 0)
	return nil
}

func (b *Backend) EndPass() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return nil
	}
	b.framePass.End()
	b.framePass = nil
	b.passGroup = nil
	return nil
}

func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return nil
	}
	defer b.releaseFrameResources()

	if b.framePass != nil {
		b.framePass.End()
		b.framePass = nil
		b.passGroup = nil
	}
	if b.firstPass {
		b.clearFrame()
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameView = nil
		b.frameSurface = nil
		return fmt.Errorf("gpu: finish frame: %v: %w", err, renderer.ErrContextLost)
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

// clearFrame records a pass that only clears the surface, for frames that drew nothing. The
// caller must hold mu.
func (b *Backend) clearFrame() {
	color := wgpu.RenderPassColorAttachment{
		View:       b.frameView,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: b.clearColor,
	}
	if b.msaaTextureView != nil {
		color.View = b.msaaTextureView
		color.ResolveTarget = b.frameView
	}
	rp := b.frameEncoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
	})
	rp.End()
	b.firstPass = false
}

// releaseFrameResources drops the buffers and bind groups streamed during the frame. The caller
// must hold mu.
func (b *Backend) releaseFrameResources() {
	for _, buf := range b.frameBuffers {
		buf.Release()
	}
	for _, group := range b.frameGroups {
		group.Release()
	}
	b.frameBuffers = b.frameBuffers[:0]
	b.frameGroups = b.frameGroups[:0]
}

func (b *Backend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

// CaptureScreen is not supported: swapchain textures cannot be copied back to the CPU.
func (b *Backend) CaptureScreen() (*image.RGBA, error) {
	return nil, renderer.ErrCaptureUnsupported
}

func (b *Backend) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		logger.Warningf("ignoring resize to %dx%d", width, height)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configureSurface(width, height)
}

// SetPresentMode changes the presentation mode and reconfigures the surface.
func (b *Backend) SetPresentMode(mode renderer.PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = presentMode(mode)
	b.configureSurface(b.width, b.height)
}

func presentMode(mode renderer.PresentMode) wgpu.PresentMode {
	if mode == renderer.PresentModeVSync {
		return wgpu.PresentModeFifo
	}
	return wgpu.PresentModeImmediate
}
