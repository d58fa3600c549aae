package common

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraSpaceDepth returns the distance in front of the camera of the origin transformed by a
// model-view matrix. Camera space looks down -Z, so a point at mv translation z = -8 has depth 8.
// Larger values are farther away.
//
// Parameters:
//   - mv: the model-view matrix (column-major)
//
// Returns:
//   - float32: the camera-space depth
func CameraSpaceDepth(mv mgl32.Mat4) float32 {
	return -mv[14]
}

// TransformPoint transforms a position by a 4x4 matrix treating it as a point (w = 1).
// The result is not divided by w.
//
// Parameters:
//   - m: the transform
//   - p: the position to transform
//
// Returns:
//   - mgl32.Vec3: the transformed position
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// ComposeTRS builds a model matrix from a translation, rotation and scale in T * R * S order.
//
// Parameters:
//   - t: the translation
//   - r: the rotation quaternion
//   - s: the per-axis scale
//
// Returns:
//   - mgl32.Mat4: the composed transform
func ComposeTRS(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	m := r.Normalize().Mat4()
	m[0], m[1], m[2] = m[0]*s[0], m[1]*s[0], m[2]*s[0]
	m[4], m[5], m[6] = m[4]*s[1], m[5]*s[1], m[6]*s[1]
	m[8], m[9], m[10] = m[8]*s[2], m[9]*s[2], m[10]*s[2]
	m[12], m[13], m[14] = t[0], t[1], t[2]
	return m
}

// WebGPUClipCorrection remaps OpenGL-style clip space depth [-1, 1] produced by mgl32 projections
// into the [0, 1] range expected by WebGPU. Pre-multiply it onto a projection matrix.
var WebGPUClipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Mat4Bytes returns a byte view of a matrix for uniform uploads.
//
// Parameters:
//   - m: pointer to the matrix to view
//
// Returns:
//   - []byte: 64 bytes sharing memory with m
func Mat4Bytes(m *mgl32.Mat4) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&m[0])), 64)
}
