package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/log"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
)

var logger = log.New("renderer")

// Submitter accepts render commands during scene traversal. Both the Renderer and a
// CommandRecorder implement it.
type Submitter interface {
	// AddCommand appends cmd to the queue on top of the group stack.
	//
	// Parameters:
	//   - cmd: an initialized command
	AddCommand(cmd *command.RenderCommand)

	// CreateRenderQueue allocates a new queue for the current frame.
	//
	// Returns:
	//   - int: the queue id, valid until the queues are cleared
	CreateRenderQueue() int

	// PushGroup directs subsequent AddCommand calls to the queue id.
	//
	// Parameters:
	//   - id: a queue id returned by CreateRenderQueue
	//
	// Returns:
	//   - error: ErrInvalidRenderQueue if id is unknown
	PushGroup(id int) error

	// PopGroup restores the queue that was current before the matching PushGroup.
	PopGroup()
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend Backend

	queues     []renderQueue
	groupStack []int

	sortMode            TransparentSortMode
	maxBatchVertices    int
	backgroundThreshold float32

	pending FrameStats
	last    FrameStats
	frame   FrameStats

	flat    []*command.RenderCommand
	buckets [bucketCount][]*command.RenderCommand
	batcher batcher
}

// Renderer collects the commands submitted during one camera traversal, then sorts, batches and
// dispatches them to a Backend.
//
// Each call to Render is one camera pass. Commands and render queues live until the end of the
// pass that consumes them; every pass needs a full resubmission.
type Renderer interface {
	Submitter

	// Render sorts, batches and dispatches every queued command, then clears the queues.
	// Commands whose dispatch fails are logged and skipped. Only a lost backend context is
	// returned as an error.
	//
	// Parameters:
	//   - pass: the camera pass description
	//
	// Returns:
	//   - FrameStats: the counters of this pass
	//   - error: an error wrapping ErrContextLost if the backend can no longer render
	Render(pass PassInfo) (FrameStats, error)

	// Clear drops every queued command without dispatching.
	Clear()

	// Stats returns the counters of the last pass.
	Stats() FrameStats

	// FrameStats returns the counters accumulated since BeginFrame.
	FrameStats() FrameStats

	// BeginFrame resets the frame counters and prepares the backend target.
	BeginFrame() error

	// EndFrame submits the frame's work to the backend.
	EndFrame() error

	// Present shows the finished frame.
	Present()

	// Resize reconfigures the backend for a new target size.
	Resize(width, height int)

	// Backend returns the backend commands are dispatched to.
	Backend() Backend

	// TransparentSortMode returns the sort mode used for transparent buckets.
	TransparentSortMode() TransparentSortMode
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer that dispatches to backend.
//
// Parameters:
//   - backend: the backend that executes dispatch units
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(backend Backend, options ...RendererBuilderOption) Renderer {
	if backend == nil {
		panic("renderer: backend must not be nil")
	}
	r := &renderer{
		mu:               &sync.Mutex{},
		backend:          backend,
		queues:           []renderQueue{nil},
		sortMode:         SortDepthFirst,
		maxBatchVertices: DefaultMaxBatchVertices,
	}

	for _, opt := range options {
		opt(r)
	}

	r.batcher.maxVertices = r.maxBatchVertices
	return r
}

func (r *renderer) AddCommand(cmd *command.RenderCommand) {
	var err error
	switch {
	case cmd == nil:
		err = ErrNilCommand
	case !cmd.Type().Valid():
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Type())
	case !cmd.Initialized():
		err = fmt.Errorf("%w: %s", ErrUninitializedCommand, cmd.Type())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.pending.Rejected++
		logger.Errorf("rejected command: %v", err)
		return
	}

	top := r.currentQueue()
	r.queues[top] = append(r.queues[top], cmd)
	r.pending.Submitted++
}

func (r *renderer) CreateRenderQueue() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queues = append(r.queues, nil)
	return len(r.queues) - 1
}

func (r *renderer) PushGroup(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id < 0 || id >= len(r.queues) {
		return fmt.Errorf("push group %d: %w", id, ErrInvalidRenderQueue)
	}
	r.groupStack = append(r.groupStack, id)
	return nil
}

func (r *renderer) PopGroup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.groupStack) == 0 {
		const msg = "renderer: PopGroup called without a matching PushGroup"
		logger.Error(msg)
		common.Misuse(msg)
		return
	}
	r.groupStack = r.groupStack[:len(r.groupStack)-1]
}

// currentQueue returns the queue on top of the group stack. The caller must hold mu.
func (r *renderer) currentQueue() int {
	if len(r.groupStack) == 0 {
		return 0
	}
	return r.groupStack[len(r.groupStack)-1]
}

func (r *renderer) Render(pass PassInfo) (FrameStats, error) {
	r.mu.Lock()
	queues := r.queues
	stats := r.pending
	r.queues = make([]renderQueue, 1, len(queues))
	r.groupStack = r.groupStack[:0]
	r.pending = FrameStats{}
	r.mu.Unlock()

	stats.Passes = 1
	err := r.renderQueues(queues, pass, &stats)

	r.mu.Lock()
	r.last = stats
	r.frame.Add(stats)
	r.mu.Unlock()
	return stats, err
}

// renderQueues runs one pass over a snapshot of the queues. Render must not hold mu here since
// Custom and Callback commands may submit for a later pass.
func (r *renderer) renderQueues(queues []renderQueue, pass PassInfo, stats *FrameStats) error {
	r.flat = flatten(r.flat[:0], queues, 0, make([]bool, len(queues)))
	defer clear(r.flat)

	for i := range r.buckets {
		r.buckets[i] = r.buckets[i][:0]
	}
	for _, cmd := range r.flat {
		b := bucketOf(cmd, r.backgroundThreshold)
		r.buckets[b] = append(r.buckets[b], cmd)
	}

	r.batcher.reset()
	for i := range r.buckets {
		sortBucket(r.buckets[i], Bucket(i), r.sortMode)
		r.batcher.addBucket(r.buckets[i], Bucket(i))
	}
	stats.Batched += r.batcher.batched
	stats.Failed += r.batcher.malformed

	if len(r.batcher.units) == 0 {
		return nil
	}

	if err := r.backend.BeginPass(pass); err != nil {
		if errors.Is(err, ErrContextLost) {
			return fmt.Errorf("begin pass: %w", err)
		}
		logger.Warningf("begin pass failed, skipping %d units: %v", len(r.batcher.units), err)
		stats.Failed += len(r.batcher.units)
		return nil
	}

	for i := range r.batcher.units {
		if err := r.dispatch(&r.batcher.units[i], pass, stats); err != nil {
			return err
		}
	}

	if err := r.backend.EndPass(); err != nil {
		if errors.Is(err, ErrContextLost) {
			return fmt.Errorf("end pass: %w", err)
		}
		logger.Warningf("end pass failed: %v", err)
	}
	return nil
}

// dispatch executes one unit. It returns an error only when the backend context is lost.
func (r *renderer) dispatch(unit *DispatchUnit, pass PassInfo, stats *FrameStats) error {
	var err error
	draws := 0

	switch unit.Type {
	case command.TypeCustom:
		ctx := &drawContext{backend: r.backend, pass: pass, cmd: unit.Commands[0], bucket: unit.Bucket}
		err = unit.Commands[0].Custom()(ctx)
		draws = ctx.draws
		stats.Vertices += ctx.vertices
	case command.TypeCallback:
		unit.Commands[0].Callback()()
	case command.TypeCaptureScreen:
		img, captureErr := r.backend.CaptureScreen()
		if errors.Is(captureErr, ErrContextLost) {
			return fmt.Errorf("capture screen: %w", captureErr)
		}
		unit.Commands[0].Capture()(img, captureErr)
		err = captureErr
	default:
		err = r.backend.Dispatch(unit)
		if err == nil {
			draws = 1
			stats.Vertices += unit.VertexCount()
		}
	}

	stats.DrawCalls += draws
	if err != nil {
		if errors.Is(err, ErrContextLost) {
			return fmt.Errorf("dispatch %s: %w", unit.Type, err)
		}
		logger.Warningf("dispatch %s unit of %d commands failed, skipping: %v", unit.Type, len(unit.Commands), err)
		stats.Failed++
		return nil
	}
	stats.Dispatched++
	return nil
}

func (r *renderer) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queues = r.queues[:1]
	r.queues[0] = nil
	r.groupStack = r.groupStack[:0]
	r.pending = FrameStats{}
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *renderer) FrameStats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	r.frame = FrameStats{}
	r.mu.Unlock()
	return r.backend.BeginFrame()
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Resize(width, height int) {
	r.backend.Resize(width, height)
}

func (r *renderer) Backend() Backend {
	return r.backend
}

func (r *renderer) TransparentSortMode() TransparentSortMode {
	return r.sortMode
}
