package main

import (
	"fmt"
	"image"
	"image/color"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/loader"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// checkerTexture is the texture id of the demo's checkerboard.
const checkerTexture pipeline.TextureID = 1

// textureRegistry is implemented by backends that accept uploaded textures.
type textureRegistry interface {
	RegisterTexture(id pipeline.TextureID, data common.TextureStagingData) error
}

// demoAssets names optional files that replace the demo's built-in content.
type demoAssets struct {
	// Model is a glTF or GLB file drawn in place of the cubes.
	Model string

	// Texture is an image file used in place of the checkerboard.
	Texture string
}

// registerDemoTextures uploads the demo texture, decoding path when it is set.
func registerDemoTextures(reg textureRegistry, path string) error {
	if path != "" {
		data, err := common.LoadTexture(path, nil)
		if err != nil {
			return err
		}
		return reg.RegisterTexture(checkerTexture, data)
	}

	const size, cell = 64, 8
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.RGBA{R: 235, G: 235, B: 235, A: 255}
			if (x/cell+y/cell)%2 == 1 {
				c = color.RGBA{R: 90, G: 90, B: 110, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return reg.RegisterTexture(checkerTexture, common.TextureFromImage(img))
}

// demo is a scene with a 2D layer drawn by the default camera and a 3D layer of spinning cubes
// drawn by a perspective camera that renders after it.
type demo struct {
	scene    scene.Scene
	camera3D *camera.Camera
	cubes    []*node.Node
	elapsed  float32
}

// loadModel loads a glTF or GLB file scaled to the size of a demo cube.
func loadModel(path string) (*command.MeshData, error) {
	l := loader.NewLoader(loader.BackendTypeGLTF,
		loader.WithFitRadius(1),
		loader.WithFallbackColor(command.NewColor4B(0.8, 0.8, 0.85, 1)),
	)
	return l.Load(path)
}

// newDemo builds the demo scene. A nil model draws cubes.
func newDemo(width, height float32, model *command.MeshData, options ...scene.SceneBuilderOption) *demo {
	d := &demo{
		scene: scene.NewSceneWithSize("demo", width, height, options...),
	}

	d.scene.AddChild(background(width, height))
	d.scene.AddChild(tiles(width, height))
	d.scene.AddChild(glass(width, height))
	d.scene.AddChild(hud(width, height))

	d.camera3D = camera.NewPerspective(camera.DefaultFov, width/height, 0.1, 100,
		camera.WithName("orbit camera"),
		camera.WithDepth(1),
		camera.WithCameraFlag(node.CameraFlagUser1),
		camera.WithPosition(0, 4, 9),
		camera.WithLookAt(0, 0, 0),
	)
	d.scene.AddChild(d.camera3D.Node)

	mesh := model
	if mesh == nil {
		mesh = cubeMesh("demo cube", 1)
	}
	opaque := pipeline.NewDescriptor(pipeline.DefaultProgram, pipeline.With3DDefaults())
	for i := 0; i < 9; i++ {
		x, z := float32(i%3-1)*3, float32(i/3-1)*3
		cube := node.New(
			node.WithName(fmt.Sprintf("cube %d", i)),
			node.WithPosition(x, 0, z),
			node.With3D(true),
			node.WithCameraMask(node.CameraFlagUser1),
			node.WithBoundingRadius(0.9),
			node.WithDrawer(node.NewMeshRenderer(mesh, opaque)),
		)
		d.cubes = append(d.cubes, cube)
		d.scene.AddChild(cube)
	}

	glassMesh := cubeMesh("glass cube", 0.6)
	translucent := pipeline.NewDescriptor(pipeline.DefaultProgram, pipeline.With3DDefaults(),
		pipeline.WithBlend(pipeline.BlendAlphaNonPremultiplied))
	glassDrawer := node.NewMeshRenderer(glassMesh, translucent)
	glassDrawer.SetTransparent(true)
	glassCube := node.New(
		node.WithName("glass cube"),
		node.WithPosition(0, 2, 0),
		node.With3D(true),
		node.WithCameraMask(node.CameraFlagUser1),
		node.WithBoundingRadius(1.2),
		node.WithDrawer(glassDrawer),
	)
	d.cubes = append(d.cubes, glassCube)
	d.scene.AddChild(glassCube)

	d.scene.AddChild(light.NewLight(light.LightTypeDirectional,
		light.WithName("sun"),
		light.WithDirection(-0.3, -1, -0.4),
		light.WithIntensity(1.2),
	).Node)
	d.scene.AddChild(light.NewLight(light.LightTypePoint,
		light.WithName("lamp"),
		light.WithPosition(0, 3, 3),
		light.WithColor(1, 0.8, 0.6),
		light.WithRange(12),
	).Node)

	return d
}

// Update spins the cubes.
func (d *demo) Update(dt float32) {
	d.elapsed += dt
	for i, cube := range d.cubes {
		angle := d.elapsed * (0.6 + 0.1*float32(i))
		cube.SetRotation(mgl32.QuatRotate(angle, mgl32.Vec3{0.3, 1, 0.2}.Normalize()))
	}
}

// captureNext queues a screen capture behind every other draw of the orbit camera, which renders
// last. The returned node keeps capturing every frame until it is removed from the scene.
func (d *demo) captureNext(fn command.CaptureFunc) *node.Node {
	capture := node.New(
		node.WithName("capture"),
		node.WithCameraMask(node.CameraFlagUser1),
		node.WithGlobalZOrder(1e9),
		node.WithDrawer(node.NewCaptureDrawable(fn)),
	)
	d.scene.AddChild(capture)
	return capture
}

func background(width, height float32) *node.Node {
	top := command.NewColor4B(0.08, 0.09, 0.16, 1)
	bottom := command.NewColor4B(0.22, 0.25, 0.38, 1)
	tris := command.Triangles{
		Vertices: []command.Vertex{
			{Position: mgl32.Vec3{0, height, 0}, Color: top},
			{Position: mgl32.Vec3{0, 0, 0}, Color: bottom},
			{Position: mgl32.Vec3{width, height, 0}, Color: top},
			{Position: mgl32.Vec3{width, 0, 0}, Color: bottom},
		},
		Indices: []uint16{0, 1, 2, 3, 2, 1},
	}
	return node.New(
		node.WithName("background"),
		node.WithGlobalZOrder(-10),
		node.WithDrawer(node.NewTrianglesDrawable(tris, pipeline.NewDescriptor(pipeline.DefaultProgram))),
	)
}

func tiles(width, height float32) *node.Node {
	root := node.New(node.WithName("tiles"), node.WithPosition(width*0.05, height*0.05, 0))
	size := width * 0.9 / 8
	for i := 0; i < 8; i++ {
		s := node.NewSprite(size-4, size-4)
		s.SetOpaque(true)
		if i%2 == 0 {
			s.SetTexture(checkerTexture)
		} else {
			s.SetColor(command.NewColor4B(0.3+0.08*float32(i), 0.5, 0.7, 1))
		}
		root.AddChild(node.New(
			node.WithName(fmt.Sprintf("tile %d", i)),
			node.WithPosition(float32(i)*size, 0, 0),
			node.WithDrawer(s),
		))
	}
	return root
}

func glass(width, height float32) *node.Node {
	root := node.New(node.WithName("glass"), node.WithPosition(width*0.6, height*0.55, 0))
	colors := []command.Color4B{
		command.NewColor4B(0.5, 0.1, 0.1, 0.5),
		command.NewColor4B(0.1, 0.5, 0.1, 0.5),
		command.NewColor4B(0.1, 0.1, 0.5, 0.5),
	}
	for i, c := range colors {
		s := node.NewSprite(width*0.2, height*0.25)
		s.SetColor(c)
		root.AddChild(node.New(
			node.WithPosition(float32(i)*width*0.06, float32(i)*height*0.05, 0),
			node.WithLocalZOrder(i),
			node.WithDrawer(s),
		))
	}
	return root
}

// hud is a panel drawn as one group on top of the 2D layer.
func hud(width, height float32) *node.Node {
	panel := node.New(
		node.WithName("hud"),
		node.WithPosition(width*0.03, height*0.85, 0),
		node.WithGlobalZOrder(10),
		node.WithDrawer(node.NewGroupDrawable()),
	)
	frame := node.NewSprite(width*0.25, height*0.1)
	frame.SetColor(command.NewColor4B(0, 0, 0, 0.6))
	panel.AddChild(node.New(node.WithName("hud frame"), node.WithLocalZOrder(-1), node.WithDrawer(frame)))
	for i := 0; i < 3; i++ {
		pip := node.NewSprite(height*0.06, height*0.06)
		pip.SetOpaque(true)
		pip.SetColor(command.NewColor4B(0.9, 0.7-0.2*float32(i), 0.2, 1))
		panel.AddChild(node.New(
			node.WithPosition(height*0.02+float32(i)*height*0.08, height*0.02, 0),
			node.WithDrawer(pip),
		))
	}
	return panel
}

// cubeMesh builds a cube of the given half extent with one flat-shaded color per face.
func cubeMesh(key string, half float32) *command.MeshData {
	faces := []struct {
		n, u, v mgl32.Vec3
		shade   float32
	}{
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, 0.8},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}, 0.6},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, 1},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, 0.4},
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, 0.9},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}, 0.5},
	}

	mesh := &command.MeshData{Key: key}
	for _, f := range faces {
		base := uint32(len(mesh.Vertices))
		c := command.NewColor4B(0.95*f.shade, 0.55*f.shade, 0.25*f.shade, 1)
		center := f.n.Mul(half)
		u, v := f.u.Mul(half), f.v.Mul(half)
		corners := []struct {
			p  mgl32.Vec3
			uv mgl32.Vec2
		}{
			{center.Sub(u).Sub(v), mgl32.Vec2{0, 1}},
			{center.Add(u).Sub(v), mgl32.Vec2{1, 1}},
			{center.Add(u).Add(v), mgl32.Vec2{1, 0}},
			{center.Sub(u).Add(v), mgl32.Vec2{0, 0}},
		}
		for _, corner := range corners {
			mesh.Vertices = append(mesh.Vertices, command.Vertex{Position: corner.p, Color: c, UV: corner.uv})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return mesh
}
