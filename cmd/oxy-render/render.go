package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/Carmen-Shannon/oxy-render/engine"
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/software"
	"github.com/Carmen-Shannon/oxy-render/engine/scene"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// frameStep is the simulated time between offline frames.
const frameStep = float32(1) / 60

// frameRecord is the statistics of one offline frame.
type frameRecord struct {
	Frame int
	scene.Stats
}

// RenderFrames renders the demo scene offline and writes the last frame to a PNG file.
func RenderFrames(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}

	frames := ctx.Int("frames")
	if frames <= 0 {
		return fmt.Errorf("render: frame count must be positive, got %d", frames)
	}

	img, records, err := renderDemo(cfg, frames, demoAssets{Model: ctx.String("model"), Texture: ctx.String("texture")})
	if err != nil {
		return err
	}
	displayFrameStats(records)

	out := ctx.String("out")
	if err := writePNG(out, img); err != nil {
		return err
	}
	logger.Noticef("wrote %dx%d frame to %s", img.Bounds().Dx(), img.Bounds().Dy(), out)
	return nil
}

// renderDemo draws frames of the demo scene on the software backend and returns a capture of
// the last one along with the per-frame statistics.
func renderDemo(cfg *config.Config, frames int, assets demoAssets) (*image.RGBA, []frameRecord, error) {
	if bt, err := cfg.BackendType(); err == nil && bt != renderer.BackendTypeSoftware {
		logger.Warningf("offline rendering always uses the software backend, ignoring %q", cfg.Renderer.Backend)
	}
	clearColor, err := cfg.ClearColor()
	if err != nil {
		return nil, nil, err
	}

	var model *command.MeshData
	if assets.Model != "" {
		if model, err = loadModel(assets.Model); err != nil {
			return nil, nil, err
		}
	}

	width, height := cfg.Window.Width, cfg.Window.Height
	backend := software.NewBackend(width, height, software.WithClearColor(clearColor))
	if err := registerDemoTextures(backend, assets.Texture); err != nil {
		return nil, nil, fmt.Errorf("render: registering textures: %w", err)
	}

	d := newDemo(float32(width), float32(height), model,
		scene.WithClearColor(clearColor),
		scene.WithParallelTraversal(cfg.TraversalWorkers()),
	)
	e := engine.NewEngine(renderer.NewRenderer(backend, cfg.RendererOptions()...), engine.WithScene(0, d.scene))
	defer e.RemoveScene(0)

	var (
		shot    *image.RGBA
		shotErr error
		records = make([]frameRecord, 0, frames)
	)
	for i := 0; i < frames; i++ {
		d.Update(frameStep)
		if i == frames-1 {
			capture := d.captureNext(func(img *image.RGBA, err error) {
				shot, shotErr = img, err
			})
			defer capture.RemoveFromParent()
		}
		if _, err := e.RenderFrame(); err != nil {
			return nil, nil, fmt.Errorf("render: frame %d: %w", i, err)
		}
		records = append(records, frameRecord{Frame: i, Stats: d.scene.Stats()})
	}

	if shotErr != nil {
		return nil, nil, fmt.Errorf("render: capturing last frame: %w", shotErr)
	}
	if shot == nil {
		return nil, nil, errors.New("render: the last frame was never captured")
	}
	return shot, records, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("render: encoding %s: %w", path, err)
	}
	return f.Close()
}

func displayFrameStats(records []frameRecord) {
	var (
		buf    bytes.Buffer
		total  renderer.FrameStats
		culled int
	)
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Frame", "Passes", "Submitted", "Rejected", "Batched", "Draw calls", "Vertices", "Culled"})
	for _, rec := range records {
		table.Append([]string{
			fmt.Sprintf("%d", rec.Frame),
			fmt.Sprintf("%d", rec.Passes),
			fmt.Sprintf("%d", rec.Submitted),
			fmt.Sprintf("%d", rec.Rejected),
			fmt.Sprintf("%d", rec.Batched),
			fmt.Sprintf("%d", rec.DrawCalls),
			fmt.Sprintf("%d", rec.Vertices),
			fmt.Sprintf("%d", rec.Culled),
		})
		total.Add(rec.FrameStats)
		culled += rec.Culled
	}
	table.SetFooter([]string{
		"TOTAL",
		fmt.Sprintf("%d", total.Passes),
		fmt.Sprintf("%d", total.Submitted),
		fmt.Sprintf("%d", total.Rejected),
		fmt.Sprintf("%d", total.Batched),
		fmt.Sprintf("%d", total.DrawCalls),
		fmt.Sprintf("%d", total.Vertices),
		fmt.Sprintf("%d", culled),
	})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
