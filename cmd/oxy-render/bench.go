package main

import (
	"bytes"
	"fmt"
	"image"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// benchChunk is the number of nodes under each root child, the unit of parallel traversal.
const benchChunk = 100

type benchOptions struct {
	Width, Height int
	Sprites       int
	Meshes        int
	Frames        int
	Workers       int
	Raster        bool
	Renderer      []renderer.RendererBuilderOption
}

type benchResult struct {
	Name     string
	Workers  int
	PerFrame time.Duration
	Last     scene.Stats
}

// discardBackend accepts every dispatch unit without drawing it.
type discardBackend struct{}

var _ renderer.Backend = discardBackend{}

func (discardBackend) BeginFrame() error { return nil }
func (discardBackend) BeginPass(renderer.PassInfo) error { return nil }
func (discardBackend) Dispatch(*renderer.DispatchUnit) error { return nil }
func (discardBackend) EndPass() error { return nil }
func (discardBackend) EndFrame() error { return nil }
func (discardBackend) Present() {}
func (discardBackend) Resize(int, int) {}
func (discardBackend) CaptureScreen() (*image.RGBA, error) {
	return nil, renderer.ErrCaptureUnsupported
}

// Bench renders a large generated scene serially and with parallel traversal and prints the
// statistics of both runs.
func Bench(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	opts := benchOptions{
		Width:    cfg.Window.Width,
		Height:   cfg.Window.Height,
		Sprites:  ctx.Int("sprites"),
		Meshes:   ctx.Int("meshes"),
		Frames:   ctx.Int("frames"),
		Raster:   ctx.Bool("raster"),
		Renderer: cfg.RendererOptions(),
	}
	if opts.Frames <= 0 {
		return fmt.Errorf("bench: frame count must be positive, got %d", opts.Frames)
	}

	var results []benchResult
	for _, workers := range []int{0, ctx.Int("workers")} {
		opts.Workers = workers
		res, err := runBench(opts)
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	displayBenchResults(results)
	return nil
}

func runBench(opts benchOptions) (benchResult, error) {
	var backend renderer.Backend = discardBackend{}
	if opts.Raster {
		sw := software.NewBackend(opts.Width, opts.Height)
		if err := registerDemoTextures(sw, ""); err != nil {
			return benchResult{}, fmt.Errorf("bench: registering textures: %w", err)
		}
		backend = sw
	}

	s := benchScene(opts.Sprites, opts.Meshes, float32(opts.Width), float32(opts.Height), opts.Workers)
	e := engine.NewEngine(renderer.NewRenderer(backend, opts.Renderer...), engine.WithScene(0, s))
	defer e.RemoveScene(0)

	// The first frame allocates the command queues and recorders.
	if _, err := e.RenderFrame(); err != nil {
		return benchResult{}, fmt.Errorf("bench: warm-up frame: %w", err)
	}

	start := time.Now()
	for i := 0; i < opts.Frames; i++ {
		if _, err := e.RenderFrame(); err != nil {
			return benchResult{}, fmt.Errorf("bench: frame %d: %w", i, err)
		}
	}
	elapsed := time.Since(start)

	name := "serial"
	if opts.Workers > 0 {
		name = "parallel"
	}
	res := benchResult{
		Name:     name,
		Workers:  opts.Workers,
		PerFrame: elapsed / time.Duration(opts.Frames),
		Last:     s.Stats(),
	}
	logger.Infof("%s run: %s per frame, %s", res.Name, res.PerFrame, res.Last.FrameStats)
	return res, nil
}

// benchScene lays sprites out over twice the design width so about half of them fall outside the
// default camera and get culled. Cubes fill a grid in front of a perspective camera.
func benchScene(sprites, meshes int, width, height float32, workers int) scene.Scene {
	s := scene.NewSceneWithSize("bench", width, height, scene.WithParallelTraversal(workers))

	const size = 16
	perRow := int(2 * width / size)
	if perRow < 1 {
		perRow = 1
	}
	var chunk *node.Node
	for i := 0; i < sprites; i++ {
		if i%benchChunk == 0 {
			chunk = node.New(node.WithName(fmt.Sprintf("sprites %d", i/benchChunk)))
			s.AddChild(chunk)
		}
		sp := node.NewSprite(size, size)
		sp.SetOpaque(i%3 != 0)
		if (i/64)%2 == 1 {
			sp.SetTexture(checkerTexture)
		}
		x := float32(i%perRow)*size - width/2
		y := float32((i / perRow * size) % max(int(height), size))
		chunk.AddChild(node.New(
			node.WithPosition(x, y, 0),
			node.WithBoundingRadius(size*0.75),
			node.WithDrawer(sp),
		))
	}

	if meshes == 0 {
		return s
	}
	cam := camera.NewPerspective(camera.DefaultFov, width/height, 0.1, 500,
		camera.WithName("bench camera"),
		camera.WithDepth(1),
		camera.WithCameraFlag(node.CameraFlagUser1),
		camera.WithPosition(0, 20, 40),
		camera.WithLookAt(0, 0, 0),
	)
	s.AddChild(cam.Node)

	mesh := cubeMesh("bench cube", 1)
	desc := pipeline.NewDescriptor(pipeline.DefaultProgram, pipeline.With3DDefaults())
	for i := 0; i < meshes; i++ {
		if i%benchChunk == 0 {
			chunk = node.New(node.WithName(fmt.Sprintf("meshes %d", i/benchChunk)))
			s.AddChild(chunk)
		}
		x, z := float32(i%20)*2.5-25, -float32(i/20)*2.5
		chunk.AddChild(node.New(
			node.WithPosition(x, 0, z),
			node.With3D(true),
			node.WithCameraMask(node.CameraFlagUser1),
			node.WithBoundingRadius(0.9),
			node.WithDrawer(node.NewMeshRenderer(mesh, desc)),
		))
	}
	return s
}

func displayBenchResults(results []benchResult) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Run", "Workers", "Frame time", "Submitted", "Draw calls", "Batched", "Vertices", "Culled"})
	for _, res := range results {
		table.Append([]string{
			res.Name,
			fmt.Sprintf("%d", res.Workers),
			fmt.Sprintf("%s", res.PerFrame),
			fmt.Sprintf("%d", res.Last.Submitted),
			fmt.Sprintf("%d", res.Last.DrawCalls),
			fmt.Sprintf("%d", res.Last.Batched),
			fmt.Sprintf("%d", res.Last.Vertices),
			fmt.Sprintf("%d", res.Last.Culled),
		})
	}

	table.Render()
	logger.Noticef("benchmark results\n%s", buf.String())
}
