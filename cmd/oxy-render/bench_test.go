package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBenchParallelMatchesSerial(t *testing.T) {
	opts := benchOptions{Width: 320, Height: 240, Sprites: 500, Meshes: 30, Frames: 2}

	serial, err := runBench(opts)
	require.NoError(t, err)
	opts.Workers = 4
	parallel, err := runBench(opts)
	require.NoError(t, err)

	assert.Equal(t, "serial", serial.Name)
	assert.Equal(t, "parallel", parallel.Name)
	assert.Equal(t, serial.Last, parallel.Last)
	assert.Equal(t, 2, serial.Last.Cameras)
}

func TestBenchSceneCullsOffscreenSprites(t *testing.T) {
	res, err := runBench(benchOptions{Width: 320, Height: 240, Sprites: 400, Frames: 1})
	require.NoError(t, err)

	assert.Positive(t, res.Last.Culled)
	assert.Less(t, res.Last.Submitted, 400)
	assert.Positive(t, res.Last.Batched, "neighbouring sprites share a draw")
}

func TestRunBenchRasterizes(t *testing.T) {
	res, err := runBench(benchOptions{Width: 64, Height: 48, Sprites: 50, Meshes: 4, Frames: 1, Raster: true})
	require.NoError(t, err)
	assert.Zero(t, res.Last.Failed)
	assert.Positive(t, res.Last.DrawCalls)
}
