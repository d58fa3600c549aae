package node

import "github.com/go-gl/mathgl/mgl32"

// NodeBuilderOption is a functional option applied to a Node during construction via New.
type NodeBuilderOption func(*Node)

// WithName sets the node's name.
func WithName(name string) NodeBuilderOption {
	return func(n *Node) {
		n.name = name
	}
}

// WithPosition sets the initial translation relative to the parent.
//
// Parameters:
//   - x, y, z: the position components
//
// Returns:
//   - NodeBuilderOption: a function that applies the position option to a node
func WithPosition(x, y, z float32) NodeBuilderOption {
	return func(n *Node) {
		n.position = mgl32.Vec3{x, y, z}
	}
}

// WithRotation sets the initial rotation from Euler angles in radians, applied in X, Y, Z order.
//
// Parameters:
//   - rx, ry, rz: the rotation angles in radians
//
// Returns:
//   - NodeBuilderOption: a function that applies the rotation option to a node
func WithRotation(rx, ry, rz float32) NodeBuilderOption {
	return func(n *Node) {
		n.rotation = mgl32.AnglesToQuat(rx, ry, rz, mgl32.XYZ)
	}
}

// WithScale sets the initial per-axis scale.
//
// Parameters:
//   - sx, sy, sz: the scale components
//
// Returns:
//   - NodeBuilderOption: a function that applies the scale option to a node
func WithScale(sx, sy, sz float32) NodeBuilderOption {
	return func(n *Node) {
		n.scale = mgl32.Vec3{sx, sy, sz}
	}
}

// WithLocalZOrder sets the paint order among siblings.
func WithLocalZOrder(z int) NodeBuilderOption {
	return func(n *Node) {
		n.localZOrder = z
	}
}

// WithGlobalZOrder sets the order value given to the node's commands.
func WithGlobalZOrder(z float32) NodeBuilderOption {
	return func(n *Node) {
		n.globalZOrder = z
	}
}

// With3D routes the node's commands to the 3D passes.
func With3D(is3D bool) NodeBuilderOption {
	return func(n *Node) {
		n.is3D = is3D
	}
}

// WithVisible sets the initial visibility.
func WithVisible(visible bool) NodeBuilderOption {
	return func(n *Node) {
		n.visible = visible
	}
}

// WithCameraMask sets the camera flags that draw the node.
func WithCameraMask(mask CameraFlag) NodeBuilderOption {
	return func(n *Node) {
		n.cameraMask = mask
	}
}

// WithBoundingRadius enables frustum culling with a local-space bounding sphere of radius r.
func WithBoundingRadius(r float32) NodeBuilderOption {
	return func(n *Node) {
		n.boundingRadius = r
	}
}

// WithDrawer sets the drawer that submits the node's commands.
func WithDrawer(d Drawer) NodeBuilderOption {
	return func(n *Node) {
		n.drawer = d
	}
}

// WithChildren adds children in the given order.
func WithChildren(children ...*Node) NodeBuilderOption {
	return func(n *Node) {
		for _, c := range children {
			n.AddChild(c)
		}
	}
}
