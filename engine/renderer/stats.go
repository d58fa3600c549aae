package renderer

import "fmt"

// FrameStats counts what the renderer did over one pass or over a whole frame.
type FrameStats struct {
	// Submitted is the number of commands accepted by AddCommand.
	Submitted int

	// Rejected is the number of commands refused by AddCommand.
	Rejected int

	// Dispatched is the number of dispatch units that completed without error.
	Dispatched int

	// DrawCalls is the number of draws issued to the backend.
	DrawCalls int

	// Batched is the number of commands merged into a preceding command's draw.
	Batched int

	// Failed is the number of dispatch units skipped because the backend reported an error.
	Failed int

	// Vertices is the number of vertices handed to the backend.
	Vertices int

	// Passes is the number of Render calls.
	Passes int
}

// Add accumulates o into s.
func (s *FrameStats) Add(o FrameStats) {
	s.Submitted += o.Submitted
	s.Rejected += o.Rejected
	s.Dispatched += o.Dispatched
	s.DrawCalls += o.DrawCalls
	s.Batched += o.Batched
	s.Failed += o.Failed
	s.Vertices += o.Vertices
	s.Passes += o.Passes
}

func (s FrameStats) String() string {
	return fmt.Sprintf("passes=%d submitted=%d rejected=%d units=%d draws=%d batched=%d failed=%d vertices=%d",
		s.Passes, s.Submitted, s.Rejected, s.Dispatched, s.DrawCalls, s.Batched, s.Failed, s.Vertices)
}
