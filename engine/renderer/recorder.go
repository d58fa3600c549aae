package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
)

type recordedOpKind uint8

const (
	opAddCommand recordedOpKind = iota
	opCreateQueue
	opPushGroup
	opPopGroup
)

type recordedOp struct {
	kind  recordedOpKind
	cmd   *command.RenderCommand
	queue int
}

// CommandRecorder is a Submitter that records submissions instead of queuing them. A recorder is
// owned by a single goroutine; it lets subtrees be traversed in parallel while the renderer's
// queues are only touched when the recording is replayed on the dispatch goroutine.
//
// Queue ids returned by CreateRenderQueue are local to the recorder. ReplayInto maps them onto
// queues of the destination and rewrites the Group commands that reference them.
type CommandRecorder struct {
	ops    []recordedOp
	queues int
	stack  []int
}

var _ Submitter = &CommandRecorder{}

// NewCommandRecorder creates an empty recorder.
func NewCommandRecorder() *CommandRecorder {
	return &CommandRecorder{queues: 1}
}

func (c *CommandRecorder) AddCommand(cmd *command.RenderCommand) {
	c.ops = append(c.ops, recordedOp{kind: opAddCommand, cmd: cmd})
}

func (c *CommandRecorder) CreateRenderQueue() int {
	id := c.queues
	c.queues++
	c.ops = append(c.ops, recordedOp{kind: opCreateQueue, queue: id})
	return id
}

func (c *CommandRecorder) PushGroup(id int) error {
	if id <= 0 || id >= c.queues {
		return fmt.Errorf("push group %d: %w", id, ErrInvalidRenderQueue)
	}
	c.stack = append(c.stack, id)
	c.ops = append(c.ops, recordedOp{kind: opPushGroup, queue: id})
	return nil
}

func (c *CommandRecorder) PopGroup() {
	if len(c.stack) == 0 {
		const msg = "renderer: PopGroup called on a recorder without a matching PushGroup"
		logger.Error(msg)
		common.Misuse(msg)
		return
	}
	c.stack = c.stack[:len(c.stack)-1]
	c.ops = append(c.ops, recordedOp{kind: opPopGroup})
}

// Len returns the number of recorded operations.
func (c *CommandRecorder) Len() int {
	return len(c.ops)
}

// Reset discards the recording so the recorder can be reused.
func (c *CommandRecorder) Reset() {
	clear(c.ops)
	c.ops = c.ops[:0]
	c.stack = c.stack[:0]
	c.queues = 1
}

// ReplayInto submits the recording to dst in the order it was recorded. Groups left open by the
// recording are closed so dst's group stack is balanced afterwards.
//
// Parameters:
//   - dst: the submitter to replay into, typically the Renderer
//
// Returns:
//   - error: an error if dst refuses a group push
func (c *CommandRecorder) ReplayInto(dst Submitter) error {
	mapped := make([]int, c.queues)
	pushed := 0

	for _, op := range c.ops {
		switch op.kind {
		case opAddCommand:
			if op.cmd != nil && op.cmd.Type() == command.TypeGroup {
				if local := op.cmd.RenderQueueID(); local > 0 && local < len(mapped) && mapped[local] != 0 {
					op.cmd.SetRenderQueueID(mapped[local])
				}
			}
			dst.AddCommand(op.cmd)
		case opCreateQueue:
			mapped[op.queue] = dst.CreateRenderQueue()
		case opPushGroup:
			if err := dst.PushGroup(mapped[op.queue]); err != nil {
				for ; pushed > 0; pushed-- {
					dst.PopGroup()
				}
				return fmt.Errorf("replay: %w", err)
			}
			pushed++
		case opPopGroup:
			dst.PopGroup()
			pushed--
		}
	}

	for ; pushed > 0; pushed-- {
		dst.PopGroup()
	}
	return nil
}
