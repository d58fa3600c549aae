package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "oxy-render"
	app.Usage = "sort, batch and draw scene render commands"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "YAML configuration file",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render the demo scene offline and save the last frame",
			Description: `
Render the demo scene on the software backend for a number of frames. The last
frame is read back with a capture-screen command queued after every other draw
and written to a PNG file.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "frames, n",
					Value: 1,
					Usage: "number of frames to render",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the last frame",
				},
				cli.StringFlag{
					Name:  "model, m",
					Usage: "glTF or GLB file drawn in place of the cubes",
				},
				cli.StringFlag{
					Name:  "texture, t",
					Usage: "PNG or JPEG file drawn in place of the checkerboard",
				},
			},
			Action: RenderFrames,
		},
		{
			Name:  "bench",
			Usage: "measure sorting and batching throughput",
			Description: `
Build a scene with many sprites and meshes and render it repeatedly, once with
serial traversal and once with the subtree worker pool, then print the
per-frame statistics of both runs.`,
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "sprites",
					Value: 5000,
					Usage: "number of sprites",
				},
				cli.IntFlag{
					Name:  "meshes",
					Value: 200,
					Usage: "number of cube meshes",
				},
				cli.IntFlag{
					Name:  "frames, n",
					Value: 60,
					Usage: "frames per run",
				},
				cli.IntFlag{
					Name:  "workers",
					Value: 4,
					Usage: "traversal workers of the parallel run",
				},
				cli.BoolFlag{
					Name:  "raster",
					Usage: "rasterize on the software backend instead of discarding dispatch units",
				},
			},
			Action: Bench,
		},
		{
			Name:  "window",
			Usage: "open an interactive view of the demo scene",
			Description: `
Open a window and draw the demo scene through WebGPU. Drag with the left button
to orbit the 3D camera, with the middle button to pan; scroll or press +/- to
zoom. Arrow keys orbit as well.`,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "model, m",
					Usage: "glTF or GLB file drawn in place of the cubes",
				},
				cli.StringFlag{
					Name:  "texture, t",
					Usage: "PNG or JPEG file drawn in place of the checkerboard",
				},
			},
			Action: Window,
		},
	}

	app.Run(os.Args)
}
