// Package light provides light nodes. Lights are indexed by the scene they enter; no lighting
// model consumes them inside this module, but drawables and custom commands may query the
// scene's light list to feed their own shading.
package light

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-render/engine/node"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional has no position, only the direction of its node's -Z axis.
	LightTypeDirectional LightType = iota

	// LightTypePoint emits in all directions from its node's world position and attenuates up
	// to its range.
	LightTypePoint

	// LightTypeSpot emits in a cone along its node's -Z axis, bounded by the inner and outer
	// cone angles.
	LightTypeSpot

	// LightTypeAmbient lights everything uniformly.
	LightTypeAmbient
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	case LightTypeAmbient:
		return "ambient"
	default:
		return "unknown"
	}
}

// LightFlag selects which nodes a light affects, matched against a node's light mask by
// whatever shading consumes the light list.
type LightFlag uint16

// LightFlagDefault is the flag new lights carry.
const LightFlagDefault LightFlag = 1

// Registry indexes the lights of a running scene. The scene implements it.
type Registry interface {
	AddLight(l *Light)
	RemoveLight(l *Light)
}

// Light is a light source placed in the scene tree.
type Light struct {
	*node.Node

	mu *sync.Mutex

	lightType  LightType
	color      mgl32.Vec3
	intensity  float32
	lightRange float32
	innerCone  float32 // stored as cos(angle in radians)
	outerCone  float32 // stored as cos(angle in radians)
	enabled    bool
	flag       LightFlag

	registry Registry
}

// NewLight creates a light of the given type with white color, unit intensity and a range of 10.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - *Light: the new light
func NewLight(lightType LightType, opts ...LightBuilderOption) *Light {
	l := &Light{
		Node:       node.New(node.WithName(lightType.String() + " light")),
		mu:         &sync.Mutex{},
		lightType:  lightType,
		color:      mgl32.Vec3{1, 1, 1},
		intensity:  1,
		lightRange: 10,
		innerCone:  cosDeg(25),
		outerCone:  cosDeg(35),
		enabled:    true,
		flag:       LightFlagDefault,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.Attach(l)
	return l
}

// Type returns the kind of light source.
func (l *Light) Type() LightType {
	return l.lightType
}

// Direction returns the normalized world-space direction of the node's -Z axis. Meaningless for
// point and ambient lights.
func (l *Light) Direction() mgl32.Vec3 {
	dir := l.WorldTransform().Mul4x1(mgl32.Vec4{0, 0, -1, 0}).Vec3()
	if dir.Len() == 0 {
		return mgl32.Vec3{0, 0, -1}
	}
	return dir.Normalize()
}

// Color returns the RGB color of the light.
func (l *Light) Color() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

// SetColor sets the RGB color of the light.
func (l *Light) SetColor(r, g, b float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = mgl32.Vec3{r, g, b}
}

// Intensity returns the scalar intensity multiplier.
func (l *Light) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

// SetIntensity sets the scalar intensity multiplier.
func (l *Light) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

// Range returns the attenuation distance of point and spot lights.
func (l *Light) Range() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lightRange
}

// SetRange sets the attenuation distance of point and spot lights.
func (l *Light) SetRange(lightRange float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lightRange = lightRange
}

// InnerCone returns the cosine of the inner cone half-angle.
func (l *Light) InnerCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.innerCone
}

// OuterCone returns the cosine of the outer cone half-angle.
func (l *Light) OuterCone() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outerCone
}

// SetSpotCone sets the inner and outer cone half-angles for spot lights.
//
// Parameters:
//   - innerDeg: inner cone half-angle in degrees
//   - outerDeg: outer cone half-angle in degrees
func (l *Light) SetSpotCone(innerDeg, outerDeg float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.innerCone = cosDeg(innerDeg)
	l.outerCone = cosDeg(outerDeg)
}

// Enabled reports whether the light contributes to shading.
func (l *Light) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// SetEnabled enables or disables the light.
func (l *Light) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// LightFlag returns the flag matched against node light masks.
func (l *Light) LightFlag() LightFlag {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.flag
}

// SetLightFlag sets the flag matched against node light masks.
func (l *Light) SetLightFlag(flag LightFlag) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flag = flag
}

// Registered reports whether the light is indexed by a running scene.
func (l *Light) Registered() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registry != nil
}

// OnEnter registers the light with the scene it entered.
func (l *Light) OnEnter(_ *node.Node, host node.Host) {
	reg, ok := host.(Registry)
	if !ok {
		return
	}
	l.mu.Lock()
	l.registry = reg
	l.mu.Unlock()
	reg.AddLight(l)
}

// OnExit unregisters the light.
func (l *Light) OnExit(_ *node.Node, _ node.Host) {
	l.mu.Lock()
	reg := l.registry
	l.registry = nil
	l.mu.Unlock()
	if reg != nil {
		reg.RemoveLight(l)
	}
}

func (l *Light) String() string {
	return fmt.Sprintf("<Light | %s intensity=%.2f enabled=%t>", l.lightType, l.Intensity(), l.Enabled())
}

// cosDeg converts an angle in degrees to the cosine of that angle.
func cosDeg(deg float32) float32 {
	return math32.Cos(deg * math32.Pi / 180)
}
