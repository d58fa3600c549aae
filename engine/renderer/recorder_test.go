package renderer

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderReplayPreservesOrder(t *testing.T) {
	r, backend := newTestRenderer()
	rec := NewCommandRecorder()
	for i := 0; i < 3; i++ {
		c := newQuad(0, 1, true)
		c.SetSkipBatching(true)
		rec.AddCommand(c)
	}
	assert.Equal(t, 3, rec.Len())

	require.NoError(t, rec.ReplayInto(r))
	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Len(t, backend.units, 3)
}

func TestRecorderRemapsGroups(t *testing.T) {
	r, backend := newTestRenderer()
	// Occupy queue 1 in the renderer so the recorder's local id 1 has to move.
	taken := r.CreateRenderQueue()
	require.Equal(t, 1, taken)

	rec := NewCommandRecorder()
	local := rec.CreateRenderQueue()
	require.Equal(t, 1, local)
	group := command.NewGroup(local)
	group.Init(0, mgl32.Ident4(), 0)
	rec.AddCommand(group)
	require.NoError(t, rec.PushGroup(local))
	rec.AddCommand(newQuad(7, 1, true))
	rec.PopGroup()

	require.NoError(t, rec.ReplayInto(r))
	assert.Equal(t, 2, group.RenderQueueID())

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Equal(t, []float32{7}, backend.orders())
}

func TestRecorderClosesOpenGroups(t *testing.T) {
	r, backend := newTestRenderer()
	rec := NewCommandRecorder()
	id := rec.CreateRenderQueue()
	require.NoError(t, rec.PushGroup(id))
	rec.AddCommand(newQuad(1, 1, true))

	require.NoError(t, rec.ReplayInto(r))
	r.AddCommand(newQuad(2, 1, true))

	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, backend.orders(), "the unreferenced group queue is never drawn")
}

func TestRecorderPushGroupRejectsUnknownQueue(t *testing.T) {
	rec := NewCommandRecorder()
	assert.ErrorIs(t, rec.PushGroup(0), ErrInvalidRenderQueue)
	assert.ErrorIs(t, rec.PushGroup(1), ErrInvalidRenderQueue)
}

func TestRecorderReset(t *testing.T) {
	rec := NewCommandRecorder()
	rec.AddCommand(newQuad(0, 1, true))
	rec.CreateRenderQueue()
	rec.Reset()

	assert.Zero(t, rec.Len())
	assert.Equal(t, 1, rec.CreateRenderQueue())
}

func TestParallelRecordersReplayDeterministically(t *testing.T) {
	r, backend := newTestRenderer()
	recorders := make([]*CommandRecorder, 4)
	var wg sync.WaitGroup
	for i := range recorders {
		recorders[i] = NewCommandRecorder()
		wg.Add(1)
		go func(rec *CommandRecorder, base int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				c := newQuad(0, 1, false)
				c.PipelineDescriptor().UniformKey = uint64(base*10 + j)
				rec.AddCommand(c)
			}
		}(recorders[i], i)
	}
	wg.Wait()

	for _, rec := range recorders {
		require.NoError(t, rec.ReplayInto(r))
	}
	_, err := r.Render(DefaultPassInfo())
	require.NoError(t, err)

	require.Len(t, backend.units, 20)
	for i, u := range backend.units {
		base, j := i/5, i%5
		assert.Equal(t, uint64(base*10+j), u.Pipeline.UniformKey)
	}
}
