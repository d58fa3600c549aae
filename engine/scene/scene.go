package scene

import (
	"cmp"
	"fmt"
	"image/color"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/camera"
	"github.com/Carmen-Shannon/oxy-render/engine/light"
	"github.com/Carmen-Shannon/oxy-render/engine/log"
	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/go-gl/mathgl/mgl32"
)

var logger = log.New("scene")

// CameraState is the scene's camera lifecycle state.
type CameraState int

const (
	// CameraStateUninitialized is the state of a scene that has not finished construction.
	CameraStateUninitialized CameraState = iota

	// CameraStateNoDefaultCamera is the state between construction and the first enter. The
	// scene has no default camera and its camera index holds only user cameras that registered
	// through an earlier enter, if any.
	CameraStateNoDefaultCamera

	// CameraStateHasDefaultCamera is reached on the first enter, when the scene creates its own
	// camera and adds it to the tree.
	CameraStateHasDefaultCamera

	// CameraStateDestroyed is terminal. Every camera and light reference has been released.
	CameraStateDestroyed
)

func (s CameraState) String() string {
	switch s {
	case CameraStateUninitialized:
		return "uninitialized"
	case CameraStateNoDefaultCamera:
		return "no-default-camera"
	case CameraStateHasDefaultCamera:
		return "has-default-camera"
	case CameraStateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Default design size used by NewScene.
const (
	DefaultWidth  = 960
	DefaultHeight = 640
)

// Stats holds the counters of the last Render call summed over every camera pass.
type Stats struct {
	renderer.FrameStats

	// Cameras is the number of cameras that produced a pass.
	Cameras int

	// Culled is the number of nodes skipped by frustum tests.
	Culled int
}

// Scene is the root of a node tree plus the index of the cameras and lights living in it. Each
// Render call traverses the tree once per camera, in camera depth order, and hands every pass to
// a renderer.
//
// Cameras and lights are owned by the nodes that embed them. The scene only indexes them while
// they are part of its running tree; the index is maintained by their enter and exit hooks.
type Scene interface {
	node.Host
	camera.Registry
	light.Registry

	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether the engine loop renders this scene.
	Active() bool

	// SetActive sets whether the engine loop renders this scene.
	SetActive(active bool)

	// AddChild adds n under the scene root. If the scene is running n enters at once, which
	// registers any cameras and lights in its subtree.
	AddChild(n *node.Node)

	// RemoveChild detaches n from the scene root, unregistering the cameras and lights under it.
	RemoveChild(n *node.Node)

	// RemoveAllChildren detaches every child of the root, the default camera included, clears
	// the camera and light indices and returns the scene to CameraStateNoDefaultCamera. The
	// default camera is created again on the next Enter.
	RemoveAllChildren()

	// Enter attaches the scene to the running hierarchy. The first call creates the default
	// camera. Every call propagates enter through the tree.
	Enter()

	// Exit detaches the scene from the running hierarchy. Cameras and lights unregister.
	Exit()

	// Running reports whether the scene is entered.
	Running() bool

	// Destroy exits the scene and releases every reference it holds. The cameras and lights
	// themselves are left to their owners.
	Destroy()

	// State returns the camera lifecycle state.
	State() CameraState

	// Cameras returns the registered cameras sorted by ascending depth, ties in registration
	// order. A pending re-sort is applied first.
	//
	// Returns:
	//   - []*camera.Camera: a copy of the sorted camera index
	Cameras() []*camera.Camera

	// DefaultCamera returns the scene's own camera.
	//
	// Returns:
	//   - *camera.Camera: the default camera, nil before the first Enter
	//   - bool: false unless the scene is in CameraStateHasDefaultCamera
	DefaultCamera() (*camera.Camera, bool)

	// CameraOrderDirty reports whether the camera index will be re-sorted on the next read.
	CameraOrderDirty() bool

	// Lights returns the registered lights in registration order.
	Lights() []*light.Light

	// Render runs one pass per visible camera. The view of each pass is the inverse of the
	// camera's world transform composed with eyeTransform; the projection is eyeProjection when
	// non-nil and the camera's own otherwise. A scene that is not running or has no camera
	// renders nothing.
	//
	// Parameters:
	//   - r: the renderer receiving the passes
	//   - eyeTransform: an extra eye offset applied on top of every camera, identity for mono
	//   - eyeProjection: an optional projection overriding every camera's
	//
	// Returns:
	//   - error: a wrapped renderer.ErrContextLost if the backend stopped working
	Render(r renderer.Renderer, eyeTransform mgl32.Mat4, eyeProjection *mgl32.Mat4) error

	// Stats returns the counters of the last Render call.
	Stats() Stats

	// Size returns the design size.
	Size() (width, height float32)

	// OnProjectionChanged updates the design size and re-places the default camera.
	//
	// Parameters:
	//   - width, height: the new size in pixels
	OnProjectionChanged(width, height int)

	// Description returns a short human readable summary.
	Description() string
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool
	root   *node.Node

	width  float32
	height float32

	state            CameraState
	cameras          []*camera.Camera
	cameraOrderDirty bool
	defaultCamera    *camera.Camera
	lights           []*light.Light

	clearColor color.RGBA
	stats      Stats

	// Parallel traversal state. A nil pool means the tree is visited on the calling goroutine.
	traversalWorkers int
	traversalPool    worker.DynamicWorkerPool
	recorders        []*renderer.CommandRecorder
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a scene with the default design size.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene, in CameraStateNoDefaultCamera
func NewScene(name string, options ...SceneBuilderOption) Scene {
	return NewSceneWithSize(name, DefaultWidth, DefaultHeight, options...)
}

// NewSceneWithSize creates a scene whose default camera maps width x height world units at z = 0
// onto the target.
//
// Parameters:
//   - name: the name of the scene
//   - width, height: the design size
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene, in CameraStateNoDefaultCamera
func NewSceneWithSize(name string, width, height float32, options ...SceneBuilderOption) Scene {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("scene: invalid design size %gx%g", width, height))
	}

	s := &scene{
		mu:         &sync.RWMutex{},
		name:       name,
		active:     true,
		root:       node.New(node.WithName(name), node.WithCameraMask(node.CameraMaskAll)),
		width:      width,
		height:     height,
		state:      CameraStateUninitialized,
		clearColor: color.RGBA{A: 255},
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the pool after options so WithParallelTraversal can enable it.
	if s.traversalWorkers > 0 {
		s.traversalPool = worker.NewDynamicWorkerPool(s.traversalWorkers, 256, 1*time.Second)
	}

	s.state = CameraStateNoDefaultCamera
	return s
}

func (s *scene) Root() *node.Node {
	return s.root
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) AddChild(n *node.Node) {
	if s.State() == CameraStateDestroyed {
		misuse("scene: AddChild called on a destroyed scene")
		return
	}
	s.root.AddChild(n)
}

func (s *scene) RemoveChild(n *node.Node) {
	s.root.RemoveChild(n)
}

func (s *scene) RemoveAllChildren() {
	// Exit hooks unregister through AddCamera/RemoveCamera, so the tree is cleared unlocked.
	s.root.RemoveAllChildren()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras = nil
	s.lights = nil
	s.cameraOrderDirty = false
	s.defaultCamera = nil
	if s.state == CameraStateHasDefaultCamera {
		s.state = CameraStateNoDefaultCamera
	}
}

func (s *scene) Enter() {
	s.mu.Lock()
	switch s.state {
	case CameraStateDestroyed:
		s.mu.Unlock()
		misuse("scene: Enter called on a destroyed scene")
		return
	case CameraStateNoDefaultCamera:
		s.defaultCamera = camera.NewDefault(s.width, s.height)
		s.state = CameraStateHasDefaultCamera
		logger.Debugf("scene %q created its default camera", s.name)
	}
	cam := s.defaultCamera
	s.mu.Unlock()

	if cam != nil && cam.Parent() == nil {
		s.root.AddChild(cam.Node)
	}
	s.root.OnEnter(s)
}

func (s *scene) Exit() {
	s.root.OnExit()
}

func (s *scene) Running() bool {
	return s.root.Running()
}

func (s *scene) Destroy() {
	s.Exit()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == CameraStateDestroyed {
		return
	}
	s.cameras = nil
	s.lights = nil
	s.defaultCamera = nil
	s.cameraOrderDirty = false
	s.recorders = nil
	s.state = CameraStateDestroyed
	if s.traversalPool != nil {
		s.traversalPool.Stop()
		s.traversalPool = nil
	}
}

func (s *scene) State() CameraState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *scene) AddCamera(c *camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == CameraStateDestroyed || slices.Contains(s.cameras, c) {
		return
	}
	s.cameras = append(s.cameras, c)
	s.cameraOrderDirty = true
}

func (s *scene) RemoveCamera(c *camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.cameras, c)
	if i < 0 {
		return
	}
	s.cameras = slices.Delete(s.cameras, i, i+1)
	s.cameraOrderDirty = true
}

func (s *scene) SetCameraOrderDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameraOrderDirty = true
}

func (s *scene) CameraOrderDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cameraOrderDirty
}

func (s *scene) Cameras() []*camera.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cameraOrderDirty {
		slices.SortStableFunc(s.cameras, func(a, b *camera.Camera) int {
			return cmp.Compare(a.Depth(), b.Depth())
		})
		s.cameraOrderDirty = false
	}
	return slices.Clone(s.cameras)
}

func (s *scene) DefaultCamera() (*camera.Camera, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultCamera, s.state == CameraStateHasDefaultCamera
}

func (s *scene) AddLight(l *light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == CameraStateDestroyed || slices.Contains(s.lights, l) {
		return
	}
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l *light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.lights, l); i >= 0 {
		s.lights = slices.Delete(s.lights, i, i+1)
	}
}

func (s *scene) Lights() []*light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *scene) Size() (float32, float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

func (s *scene) OnProjectionChanged(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	s.width, s.height = float32(width), float32(height)
	cam := s.defaultCamera
	s.mu.Unlock()

	if cam != nil {
		cam.Resize(float32(width), float32(height))
	}
}

func (s *scene) Description() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("<Scene | name = %s, state = %s, cameras = %d, lights = %d>", s.name, s.state, len(s.cameras), len(s.lights))
}

func misuse(msg string) {
	logger.Error(msg)
	common.Misuse(msg)
}
