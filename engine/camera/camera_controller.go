package camera

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitController moves a camera on a sphere around a target point using spherical coordinates
// (radius, azimuth, elevation), and pans the target along the camera's local axes.
type OrbitController interface {
	// Apply places cam on the orbit and points it at the target.
	//
	// Parameters:
	//   - cam: the camera to drive
	Apply(cam *Camera)

	// Position returns the eye position on the orbit.
	Position() mgl32.Vec3

	// Target returns the orbit pivot.
	Target() mgl32.Vec3

	// SetTarget moves the orbit pivot.
	SetTarget(target mgl32.Vec3)

	// OrbitLeft rotates left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts upward by one orbit speed step, clamped to the max elevation.
	OrbitUp()

	// OrbitDown tilts downward by one orbit speed step, clamped to the min elevation.
	OrbitDown()

	// Drag orbits by a pointer movement scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx, dy: the pointer delta in pixels
	Drag(dx, dy float32)

	// Zoom moves toward the target. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// PanRight translates eye and target along the camera's right axis.
	PanRight(delta float32)

	// PanUp translates eye and target along the camera's up axis.
	PanUp(delta float32)

	// Radius returns the distance from the target.
	Radius() float32

	// Azimuth returns the horizontal angle around +Y in radians.
	Azimuth() float32

	// Elevation returns the angle above the horizontal plane in radians.
	Elevation() float32
}

type orbitController struct {
	mu *sync.Mutex

	target mgl32.Vec3

	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed       float32
	mouseSensitivity float32
	zoomSpeed        float32
	panSpeed         float32
}

var _ OrbitController = &orbitController{}

// NewOrbitController creates an orbit controller looking at the origin from 30 degrees above
// the horizon.
//
// Parameters:
//   - options: variadic list of OrbitControllerOption functions
//
// Returns:
//   - OrbitController: the new controller
func NewOrbitController(options ...OrbitControllerOption) OrbitController {
	oc := &orbitController{
		mu:               &sync.Mutex{},
		radius:           250,
		elevation:        math32.Pi / 6,
		minRadius:        20,
		maxRadius:        2000,
		minElevation:     0.05,
		maxElevation:     math32.Pi/2 - 0.1,
		orbitSpeed:       0.03,
		mouseSensitivity: 0.005,
		zoomSpeed:        15,
		panSpeed:         1,
	}

	for _, opt := range options {
		opt(oc)
	}

	oc.radius = clamp(oc.radius, oc.minRadius, oc.maxRadius)
	oc.elevation = clamp(oc.elevation, oc.minElevation, oc.maxElevation)
	return oc
}

func (oc *orbitController) Apply(cam *Camera) {
	oc.mu.Lock()
	eye, target := oc.position(), oc.target
	oc.mu.Unlock()

	cam.SetPosition(eye)
	cam.LookAt(target, mgl32.Vec3{0, 1, 0})
}

// position returns the eye on the orbit. The caller must hold mu.
func (oc *orbitController) position() mgl32.Vec3 {
	cosElev, sinElev := math32.Cos(oc.elevation), math32.Sin(oc.elevation)
	cosAzim, sinAzim := math32.Cos(oc.azimuth), math32.Sin(oc.azimuth)
	return oc.target.Add(mgl32.Vec3{
		oc.radius * cosElev * sinAzim,
		oc.radius * sinElev,
		oc.radius * cosElev * cosAzim,
	})
}

// axes returns the camera's right and up vectors. The caller must hold mu.
func (oc *orbitController) axes() (right, up mgl32.Vec3) {
	back := oc.position().Sub(oc.target)
	if back.Len() < 1e-8 {
		return mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}
	}
	back = back.Normalize()
	right = mgl32.Vec3{0, 1, 0}.Cross(back)
	if right.Len() < 1e-8 {
		return mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}
	}
	right = right.Normalize()
	return right, back.Cross(right)
}

func (oc *orbitController) Position() mgl32.Vec3 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.position()
}

func (oc *orbitController) Target() mgl32.Vec3 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.target
}

func (oc *orbitController) SetTarget(target mgl32.Vec3) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.target = target
}

func (oc *orbitController) OrbitLeft() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth -= oc.orbitSpeed
}

func (oc *orbitController) OrbitRight() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth += oc.orbitSpeed
}

func (oc *orbitController) OrbitUp() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.elevation = clamp(oc.elevation+oc.orbitSpeed, oc.minElevation, oc.maxElevation)
}

func (oc *orbitController) OrbitDown() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.elevation = clamp(oc.elevation-oc.orbitSpeed, oc.minElevation, oc.maxElevation)
}

func (oc *orbitController) Drag(dx, dy float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth -= dx * oc.mouseSensitivity
	oc.elevation = clamp(oc.elevation+dy*oc.mouseSensitivity, oc.minElevation, oc.maxElevation)
}

func (oc *orbitController) Zoom(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.radius = clamp(oc.radius-delta*oc.zoomSpeed, oc.minRadius, oc.maxRadius)
}

func (oc *orbitController) PanRight(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	right, _ := oc.axes()
	oc.target = oc.target.Add(right.Mul(delta * oc.panSpeed))
}

func (oc *orbitController) PanUp(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	_, up := oc.axes()
	oc.target = oc.target.Add(up.Mul(delta * oc.panSpeed))
}

func (oc *orbitController) Radius() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.radius
}

func (oc *orbitController) Azimuth() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.azimuth
}

func (oc *orbitController) Elevation() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.elevation
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
