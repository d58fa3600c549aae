package command

// Type tags the variant of a RenderCommand. The set is closed; the renderer switches on the tag
// and never inspects payloads to classify a command.
type Type uint8

const (
	// TypeUnknown is the zero value. Commands of this type are rejected by the renderer.
	TypeUnknown Type = iota

	// TypeQuad draws a single textured quadrilateral.
	TypeQuad

	// TypeCustom runs a caller function that issues its own draws.
	TypeCustom

	// TypeGroup references a nested render queue that is expanded in place.
	TypeGroup

	// TypeMesh draws a backend-resident indexed mesh, instanced when batched.
	TypeMesh

	// TypeTriangles draws arbitrary indexed triangles.
	TypeTriangles

	// TypeCallback runs a caller function between draws without drawing itself.
	TypeCallback

	// TypeCaptureScreen reads back the color target at its position in the pass.
	TypeCaptureScreen
)

var typeNames = [...]string{
	TypeUnknown:       "Unknown",
	TypeQuad:          "Quad",
	TypeCustom:        "Custom",
	TypeGroup:         "Group",
	TypeMesh:          "Mesh",
	TypeTriangles:     "Triangles",
	TypeCallback:      "Callback",
	TypeCaptureScreen: "CaptureScreen",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Invalid"
}

// Valid reports whether t is a drawable, known command type.
func (t Type) Valid() bool {
	return t > TypeUnknown && t <= TypeCaptureScreen
}

// IsBarrier reports whether commands of this type are opaque to batching. A barrier ends the
// running batch and is dispatched standalone.
func (t Type) IsBarrier() bool {
	switch t {
	case TypeCustom, TypeCallback, TypeCaptureScreen:
		return true
	}
	return false
}

// Batchable reports whether two adjacent commands of this type may merge into one dispatch.
func (t Type) Batchable() bool {
	switch t {
	case TypeQuad, TypeTriangles, TypeMesh:
		return true
	}
	return false
}

// Flags carries per-submission routing bits passed to Init.
type Flags uint32

const (
	// Flag3D routes the command into the depth-tested 3D pass.
	Flag3D Flags = 1 << iota

	// FlagTransformDirty marks that the submitting node's transform changed this frame.
	FlagTransformDirty
)
