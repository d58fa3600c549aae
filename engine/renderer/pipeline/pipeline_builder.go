package pipeline

// DescriptorOption is a functional option used to configure a Descriptor during construction.
type DescriptorOption func(*Descriptor)

// WithTexture binds a texture to the given texture unit. Out-of-range units are ignored.
//
// Parameters:
//   - unit: the texture unit, in [0, MaxTextureUnits)
//   - id: the backend texture identifier
//
// Returns:
//   - DescriptorOption: a function that binds the texture on the descriptor
func WithTexture(unit int, id TextureID) DescriptorOption {
	return func(d *Descriptor) {
		if unit < 0 || unit >= MaxTextureUnits {
			return
		}
		d.Textures[unit] = id
	}
}

// WithBlend sets the blend function.
//
// Parameters:
//   - blend: the blend function, e.g. BlendAlphaNonPremultiplied
//
// Returns:
//   - DescriptorOption: a function that sets the blend function on the descriptor
func WithBlend(blend BlendFunc) DescriptorOption {
	return func(d *Descriptor) {
		d.Blend = blend
	}
}

// WithDepthTestEnabled sets whether depth testing is enabled.
//
// Parameters:
//   - enabled: a boolean indicating whether depth testing should be enabled
//
// Returns:
//   - DescriptorOption: a function that sets the depth test state on the descriptor
func WithDepthTestEnabled(enabled bool) DescriptorOption {
	return func(d *Descriptor) {
		d.DepthTest = enabled
	}
}

// WithDepthWriteEnabled sets whether depth writes are enabled.
//
// Parameters:
//   - enabled: a boolean indicating whether depth writes should be enabled
//
// Returns:
//   - DescriptorOption: a function that sets the depth write state on the descriptor
func WithDepthWriteEnabled(enabled bool) DescriptorOption {
	return func(d *Descriptor) {
		d.DepthWrite = enabled
	}
}

// With3DDefaults enables depth test and depth write with back-face culling, the usual state for
// opaque 3D meshes.
//
// Returns:
//   - DescriptorOption: a function that applies the 3D defaults to the descriptor
func With3DDefaults() DescriptorOption {
	return func(d *Descriptor) {
		d.DepthTest = true
		d.DepthWrite = true
		d.Cull = CullBack
	}
}

// WithCullMode sets the face culling mode.
//
// Parameters:
//   - mode: the CullMode to use
//
// Returns:
//   - DescriptorOption: a function that sets the cull mode on the descriptor
func WithCullMode(mode CullMode) DescriptorOption {
	return func(d *Descriptor) {
		d.Cull = mode
	}
}

// WithTopology sets the primitive topology.
//
// Parameters:
//   - topology: the Topology to use
//
// Returns:
//   - DescriptorOption: a function that sets the topology on the descriptor
func WithTopology(topology Topology) DescriptorOption {
	return func(d *Descriptor) {
		d.Topology = topology
	}
}

// WithUniformKey sets the uniform key that separates descriptors with different program uniforms.
//
// Parameters:
//   - key: the uniform key
//
// Returns:
//   - DescriptorOption: a function that sets the uniform key on the descriptor
func WithUniformKey(key uint64) DescriptorOption {
	return func(d *Descriptor) {
		d.UniformKey = key
	}
}
