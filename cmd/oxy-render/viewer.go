package main

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/engine"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/urfave/cli"
)

// Window opens the demo scene in a window drawn through WebGPU. The orbit camera follows the
// mouse and the arrow keys.
func Window(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if bt, err := cfg.BackendType(); err == nil && bt != renderer.BackendTypeWGPU {
		logger.Warningf("the viewer always draws through WebGPU, ignoring %q", cfg.Renderer.Backend)
	}
	presentMode, err := cfg.PresentMode()
	if err != nil {
		return err
	}
	msaa, err := cfg.MSAA()
	if err != nil {
		return err
	}
	clearColor, err := cfg.ClearColor()
	if err != nil {
		return err
	}

	var model *command.MeshData
	if path := ctx.String("model"); path != "" {
		if model, err = loadModel(path); err != nil {
			return err
		}
	}

	w := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithSizeLimits(320, 240, 3840, 2160),
	)
	defer w.Close()

	width, height := w.Size()
	backend := gpu.NewBackend(w.SurfaceDescriptor(), width, height,
		gpu.WithPresentMode(presentMode),
		gpu.WithMSAA(msaa),
		gpu.WithClearColor(clearColor),
	)
	if err := registerDemoTextures(backend, ctx.String("texture")); err != nil {
		return fmt.Errorf("window: registering textures: %w", err)
	}

	d := newDemo(float32(cfg.Window.Width), float32(cfg.Window.Height), model,
		scene.WithClearColor(clearColor),
		scene.WithParallelTraversal(cfg.TraversalWorkers()),
	)
	oc := camera.NewOrbitController(
		camera.WithRadius(10),
		camera.WithElevation(0.4),
		camera.WithTarget(mgl32.Vec3{0, 0, 0}),
	)
	oc.Apply(d.camera3D)
	bindOrbitControls(w, oc)

	e := engine.NewEngine(renderer.NewRenderer(backend, cfg.RendererOptions()...),
		engine.WithWindow(w),
		engine.WithScene(0, d.scene),
		engine.WithProfiling(ctx.GlobalBool("v") || ctx.GlobalBool("vv")),
	)
	e.SetTickCallback(func(dt float32) {
		d.Update(dt)
		oc.Apply(d.camera3D)
	})

	logger.Noticef("viewer running at %dx%d, close the window or press escape to quit", width, height)
	e.Run()
	logger.Noticef("viewer closed after %d frames", e.Frames())
	return nil
}

func bindOrbitControls(w window.Window, oc camera.OrbitController) {
	w.SetDragCallback(oc.Drag)
	w.SetScrollCallback(oc.Zoom)
	w.SetPanCallback(func(dx, dy float32) {
		oc.PanRight(-dx)
		oc.PanUp(dy)
	})
	w.SetKeyCallback(func(key window.Key) {
		switch key {
		case window.KeyLeft, window.KeyA:
			oc.OrbitLeft()
		case window.KeyRight, window.KeyD:
			oc.OrbitRight()
		case window.KeyUp:
			oc.OrbitUp()
		case window.KeyDown:
			oc.OrbitDown()
		case window.KeyEqual, window.KeyW:
			oc.Zoom(1)
		case window.KeyMinus, window.KeyS:
			oc.Zoom(-1)
		}
	})
}
