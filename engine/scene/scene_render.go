package scene

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

func (s *scene) Render(r renderer.Renderer, eyeTransform mgl32.Mat4, eyeProjection *mgl32.Mat4) error {
	if r == nil {
		misuse("scene: Render called with a nil renderer")
		return nil
	}
	if !s.root.Running() {
		return nil
	}

	cams := s.Cameras()
	if len(cams) == 0 {
		logger.Debugf("scene %q has no camera, nothing rendered", s.Name())
		return nil
	}

	s.mu.RLock()
	clearColor := s.clearColor
	s.mu.RUnlock()

	var total Stats
	defer func() {
		s.mu.Lock()
		s.stats = total
		s.mu.Unlock()
	}()

	for i, cam := range cams {
		if !cam.Visible() || !cam.Running() {
			continue
		}

		view := cam.WorldTransform().Mul4(eyeTransform).Inv()
		projection := cam.Projection()
		if eyeProjection != nil {
			projection = *eyeProjection
		}
		frustum := common.ExtractFrustum(projection)

		ctx := &node.VisitContext{CameraFlag: cam.CameraFlag(), Frustum: &frustum}
		if err := s.traverse(r, view, ctx); err != nil {
			// A recorder that failed to replay leaves a partial queue behind.
			r.Clear()
			logger.Warningf("scene %q: camera %d traversal failed: %v", s.Name(), i, err)
			continue
		}

		stats, err := r.Render(renderer.PassInfo{
			View:        view,
			Projection:  projection,
			CameraIndex: i,
			ClearColor:  clearColor,
			ClearDepth:  true,
		})
		total.FrameStats.Add(stats)
		total.Cameras++
		total.Culled += ctx.Culled
		if err != nil {
			return fmt.Errorf("scene %q: camera %d: %w", s.Name(), i, err)
		}
	}
	return nil
}

// traverse visits the tree for one camera. With a traversal pool the root's children are
// recorded concurrently, one recorder per child, and replayed into r in paint order so the
// submission order matches a serial visit.
func (s *scene) traverse(r renderer.Renderer, view mgl32.Mat4, ctx *node.VisitContext) error {
	s.mu.RLock()
	pool := s.traversalPool
	s.mu.RUnlock()

	children := s.root.Children()
	if pool == nil || len(children) < 2 || s.root.Drawer() != nil {
		s.root.Visit(r, view, ctx)
		return nil
	}
	if !s.root.Visible() || s.root.CameraMask()&ctx.CameraFlag == 0 {
		return nil
	}

	mv := view.Mul4(s.root.LocalTransform())
	recorders := s.recordersFor(len(children))
	culled := make([]int, len(children))

	// A WaitGroup gives a per-pass barrier; pool.Wait() only returns once workers go idle.
	var wg sync.WaitGroup
	for i, child := range children {
		wg.Add(1)
		rec := recorders[i]
		c := child
		id := i
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				local := &node.VisitContext{CameraFlag: ctx.CameraFlag, Frustum: ctx.Frustum}
				c.Visit(rec, mv, local)
				culled[id] = local.Culled
				return nil, nil
			},
		})
	}
	wg.Wait()

	for i, rec := range recorders {
		ctx.Culled += culled[i]
		if err := rec.ReplayInto(r); err != nil {
			return fmt.Errorf("replaying child %d: %w", i, err)
		}
	}
	return nil
}

// recordersFor returns n reset recorders, growing the cached set as needed.
func (s *scene) recordersFor(n int) []*renderer.CommandRecorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.recorders) < n {
		s.recorders = append(s.recorders, renderer.NewCommandRecorder())
	}
	recorders := s.recorders[:n]
	for _, rec := range recorders {
		rec.Reset()
	}
	return recorders
}
