package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RegisterTexture uploads RGBA pixels and binds them to id. Re-registering an id replaces the
// texture. Id 0 is the white texture bound for untextured geometry.
//
// Parameters:
//   - id: the texture id descriptors refer to
//   - stagingData: the RGBA pixels
//
// Returns:
//   - error: error if the texture cannot be created
func (b *Backend) RegisterTexture(id pipeline.TextureID, stagingData common.TextureStagingData) error {
	if stagingData.Width == 0 || stagingData.Height == 0 ||
		len(stagingData.Pixels) < int(stagingData.Width*stagingData.Height*4) {
		return fmt.Errorf("gpu: texture %d: invalid staging data %dx%d (%d bytes)",
			id, stagingData.Width, stagingData.Height, len(stagingData.Pixels))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	extent := wgpu.Extent3D{
		Width:              stagingData.Width,
		Height:             stagingData.Height,
		DepthOrArrayLayers: 1,
	}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         fmt.Sprintf("Texture %d", id),
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          extent,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("gpu: texture %d: %w", id, err)
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.Width * 4,
			RowsPerImage: stagingData.Height,
		},
		&extent,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("gpu: texture %d view: %w", id, err)
	}

	if old, ok := b.textures[id]; ok {
		old.Release()
	}
	if group, ok := b.texGroups[id]; ok {
		group.Release()
		delete(b.texGroups, id)
	}
	b.textures[id] = view
	return nil
}

// textureBindGroup returns the cached group 1 bind group for id. The caller must hold mu.
func (b *Backend) textureBindGroup(id pipeline.TextureID) (*wgpu.BindGroup, error) {
	if group, ok := b.texGroups[id]; ok {
		return group, nil
	}
	view, ok := b.textures[id]
	if !ok {
		return nil, fmt.Errorf("gpu: texture %d: %w", id, renderer.ErrResourceMissing)
	}

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  fmt.Sprintf("Texture %d Bind Group", id),
		Layout: b.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: b.sampler},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: texture %d bind group: %w", id, err)
	}
	b.texGroups[id] = group
	return group, nil
}

// passBindGroup uploads the pass projection and returns its group 0 bind group. The caller must
// hold mu.
func (b *Backend) passBindGroup(pass renderer.PassInfo) (*wgpu.BindGroup, error) {
	projection := webGPUProjection(pass.Projection)
	buf, err := b.streamBuffer("Pass Uniform Buffer", common.Mat4Bytes(&projection), wgpu.BufferUsageUniform)
	if err != nil {
		return nil, err
	}

	group, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Pass Bind Group",
		Layout: b.passLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: pass bind group: %v: %w", err, renderer.ErrContextLost)
	}
	b.frameGroups = append(b.frameGroups, group)
	return group, nil
}

// streamBuffer creates a frame-lifetime buffer holding data. It is released after the frame is
// submitted. The caller must hold mu.
func (b *Backend) streamBuffer(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s: %v: %w", label, err, renderer.ErrContextLost)
	}
	if err := b.queue.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, fmt.Errorf("gpu: write %s: %w", label, err)
	}
	b.frameBuffers = append(b.frameBuffers, buf)
	return buf, nil
}
