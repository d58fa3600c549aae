package node

import (
	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
)

// Drawer turns a node into render commands during a visit.
type Drawer interface {
	// Draw submits the node's commands.
	//
	// Parameters:
	//   - sub: the submitter of the current pass
	//   - mv: the node's model-view transform
	//   - globalOrder: the node's global order
	//   - flags: routing flags for command Init
	Draw(sub renderer.Submitter, mv mgl32.Mat4, globalOrder float32, flags command.Flags)
}

// Grouper is implemented by drawers that wrap their node's children in a render group. BeginGroup
// runs before any child is visited and EndGroup after the last one.
type Grouper interface {
	BeginGroup(sub renderer.Submitter, mv mgl32.Mat4, globalOrder float32, flags command.Flags)
	EndGroup(sub renderer.Submitter)
}

// VisitContext is the per-pass state of a traversal.
type VisitContext struct {
	// CameraFlag is the flag of the camera being rendered.
	CameraFlag CameraFlag

	// Frustum is the camera-space view volume. Nil disables culling.
	Frustum *common.Frustum

	// Culled counts nodes skipped by the frustum test.
	Culled int
}

// Visit traverses the subtree rooted at n for one camera pass. Children with a negative local
// z-order are visited before n draws itself; the rest after. Invisible nodes and nodes whose
// camera mask excludes the camera are skipped along with their subtrees.
//
// Parameters:
//   - sub: the submitter receiving commands
//   - parent: the parent's model-view transform, the camera view for the root
//   - ctx: the pass state
func (n *Node) Visit(sub renderer.Submitter, parent mgl32.Mat4, ctx *VisitContext) {
	if !n.visible || n.cameraMask&ctx.CameraFlag == 0 {
		return
	}

	mv := parent.Mul4(n.LocalTransform())
	var flags command.Flags
	if n.is3D {
		flags |= command.Flag3D
	}

	grouper, grouped := n.drawer.(Grouper)
	if grouped {
		grouper.BeginGroup(sub, mv, n.globalZOrder, flags)
	}

	n.sortChildren()
	i := 0
	for ; i < len(n.children) && n.children[i].localZOrder < 0; i++ {
		n.children[i].Visit(sub, mv, ctx)
	}

	if n.drawer != nil && n.inFrustum(mv, ctx) {
		n.drawer.Draw(sub, mv, n.globalZOrder, flags)
	}

	for ; i < len(n.children); i++ {
		n.children[i].Visit(sub, mv, ctx)
	}

	if grouped {
		grouper.EndGroup(sub)
	}
}

// inFrustum tests the node's bounding sphere, moved to camera space by mv.
func (n *Node) inFrustum(mv mgl32.Mat4, ctx *VisitContext) bool {
	if ctx.Frustum == nil || n.boundingRadius <= 0 {
		return true
	}
	center := mv.Col(3).Vec3()
	radius := n.boundingRadius * maxAxisScale(mv)
	if ctx.Frustum.IntersectsSphere(center, radius) {
		return true
	}
	ctx.Culled++
	return false
}

func maxAxisScale(m mgl32.Mat4) float32 {
	s := m.Col(0).Vec3().Len()
	if y := m.Col(1).Vec3().Len(); y > s {
		s = y
	}
	if z := m.Col(2).Vec3().Len(); z > s {
		s = z
	}
	return s
}
