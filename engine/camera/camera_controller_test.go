package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestOrbitControllerPosition(t *testing.T) {
	oc := NewOrbitController(WithRadius(100), WithElevation(0.5), WithAzimuth(0))
	pos := oc.Position()

	assert.InDelta(t, 0, pos.X(), 1e-4)
	assert.InDelta(t, 100*math32.Sin(0.5), pos.Y(), 1e-3)
	assert.InDelta(t, 100*math32.Cos(0.5), pos.Z(), 1e-3)
	assert.InDelta(t, 100, pos.Len(), 1e-3)
}

func TestOrbitControllerClamps(t *testing.T) {
	oc := NewOrbitController(WithRadius(5), WithRadiusBounds(10, 50), WithOrbitSpeed(1))
	assert.Equal(t, float32(10), oc.Radius())

	oc.Zoom(-100)
	assert.Equal(t, float32(50), oc.Radius())

	for i := 0; i < 5; i++ {
		oc.OrbitUp()
	}
	assert.InDelta(t, math32.Pi/2-0.1, oc.Elevation(), 1e-6)
	for i := 0; i < 5; i++ {
		oc.OrbitDown()
	}
	assert.InDelta(t, 0.05, oc.Elevation(), 1e-6)

	oc.OrbitRight()
	oc.OrbitRight()
	oc.OrbitLeft()
	assert.InDelta(t, 1, oc.Azimuth(), 1e-6)
}

func TestOrbitControllerPanMovesTarget(t *testing.T) {
	oc := NewOrbitController(WithElevation(0.05), WithPanSpeed(2))
	before := oc.Position().Sub(oc.Target())

	oc.PanRight(3)
	assert.InDelta(t, 6, oc.Target().X(), 1e-3)
	oc.PanUp(1)
	assert.Greater(t, oc.Target().Y(), float32(1.9))

	after := oc.Position().Sub(oc.Target())
	assert.True(t, before.ApproxEqualThreshold(after, 1e-3), "panning keeps the orbit offset")
}

func TestOrbitControllerDrivesCamera(t *testing.T) {
	oc := NewOrbitController(WithRadius(30), WithTarget(mgl32.Vec3{1, 2, 3}))
	cam := NewPerspective(DefaultFov, 1, 0.1, 1000)
	oc.Apply(cam)

	assert.True(t, cam.Position().ApproxEqualThreshold(oc.Position(), 1e-4))
	target := cam.View().Mul4x1(mgl32.Vec4{1, 2, 3, 1})
	assert.InDelta(t, 0, target.X(), 1e-3)
	assert.InDelta(t, 0, target.Y(), 1e-3)
	assert.InDelta(t, -30, target.Z(), 1e-3)

	oc.Drag(100, 0)
	oc.Apply(cam)
	target = cam.View().Mul4x1(mgl32.Vec4{1, 2, 3, 1})
	assert.InDelta(t, -30, target.Z(), 1e-3)
}
