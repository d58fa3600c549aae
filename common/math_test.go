package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraSpaceDepth(t *testing.T) {
	tests := []struct {
		name string
		mv   mgl32.Mat4
		want float32
	}{
		{"identity", mgl32.Ident4(), 0},
		{"in front", mgl32.Translate3D(1, 2, -8), 8},
		{"behind", mgl32.Translate3D(0, 0, 3), -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CameraSpaceDepth(tt.mv), 1e-6)
		})
	}
}

func TestCameraSpaceDepthFollowsView(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	near := view.Mul4(mgl32.Translate3D(0, 0, 5))
	far := view.Mul4(mgl32.Translate3D(0, 0, -5))

	assert.InDelta(t, 5, CameraSpaceDepth(near), 1e-5)
	assert.InDelta(t, 15, CameraSpaceDepth(far), 1e-5)
}

func TestTransformPoint(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	got := TransformPoint(m, mgl32.Vec3{1, 1, 1})
	assert.True(t, got.ApproxEqual(mgl32.Vec3{3, 4, 5}))
}

func TestComposeTRS(t *testing.T) {
	rot := mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 0, 1})
	m := ComposeTRS(mgl32.Vec3{10, 0, 0}, rot, mgl32.Vec3{2, 2, 2})
	want := mgl32.Translate3D(10, 0, 0).Mul4(rot.Mat4()).Mul4(mgl32.Scale3D(2, 2, 2))
	assert.True(t, m.ApproxEqualThreshold(want, 1e-5))
}

func TestWebGPUClipCorrection(t *testing.T) {
	proj := WebGPUClipCorrection.Mul4(mgl32.Perspective(mgl32.DegToRad(60), 1, 1, 100))

	near := proj.Mul4x1(mgl32.Vec4{0, 0, -1, 1})
	far := proj.Mul4x1(mgl32.Vec4{0, 0, -100, 1})

	assert.InDelta(t, 0, near.Z()/near.W(), 1e-5)
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-5)
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))
	assert.Len(t, SliceToBytes([]float32{1, 2, 3}), 12)

	m := mgl32.Ident4()
	assert.Len(t, Mat4Bytes(&m), 64)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
}
