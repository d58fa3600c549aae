// Package node implements the scene-graph tree that produces render commands. A Node carries a
// local transform, paint-order keys and visibility state; its optional Drawer turns the node
// into commands when the tree is visited for a camera.
package node

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/log"
	"github.com/go-gl/mathgl/mgl32"
)

var logger = log.New("node")

// CameraFlag selects which cameras draw a node. A node is drawn by a camera when the node's mask
// and the camera's flag share a bit.
type CameraFlag uint16

const (
	CameraFlagDefault CameraFlag = 1 << iota
	CameraFlagUser1
	CameraFlagUser2
	CameraFlagUser3
	CameraFlagUser4
	CameraFlagUser5
	CameraFlagUser6
	CameraFlagUser7
	CameraFlagUser8
)

// CameraMaskAll matches every camera.
const CameraMaskAll CameraFlag = 0xffff

// Host is the object at the top of a running tree, the scene. Nodes pass it to their
// attachments on enter so cameras and lights can find the registries they belong to.
type Host interface {
	// Root returns the root node of the hosted tree.
	Root() *Node
}

// Attachment is a hook into a node's lifecycle. Types that embed a Node attach themselves to it
// to learn when the node joins or leaves a running tree.
type Attachment interface {
	// OnEnter is called after n has entered a tree hosted by host.
	OnEnter(n *Node, host Host)

	// OnExit is called before n leaves the tree hosted by host.
	OnExit(n *Node, host Host)
}

// Node is one element of the scene graph. The zero value is not usable; create nodes with New.
//
// Node is not safe for concurrent mutation. During a parallel traversal distinct subtrees may be
// visited concurrently, which only touches each subtree's own nodes.
type Node struct {
	name   string
	parent *Node

	children       []*Node
	childrenDirty  bool
	arrivalCounter uint64
	orderOfArrival uint64

	position   mgl32.Vec3
	rotation   mgl32.Quat
	scale      mgl32.Vec3
	local      mgl32.Mat4
	localDirty bool

	localZOrder  int
	globalZOrder float32

	visible        bool
	is3D           bool
	cameraMask     CameraFlag
	boundingRadius float32

	running     bool
	host        Host
	drawer      Drawer
	attachments []Attachment
}

// New creates a visible node at the origin with identity rotation and unit scale.
//
// Parameters:
//   - options: variadic list of NodeBuilderOption functions
//
// Returns:
//   - *Node: the new node
func New(options ...NodeBuilderOption) *Node {
	n := &Node{
		rotation:   mgl32.QuatIdent(),
		scale:      mgl32.Vec3{1, 1, 1},
		local:      mgl32.Ident4(),
		visible:    true,
		cameraMask: CameraFlagDefault,
	}

	for _, opt := range options {
		opt(n)
	}

	n.localDirty = true
	return n
}

// Name returns the node's name.
func (n *Node) Name() string {
	return n.name
}

// SetName renames the node.
func (n *Node) SetName(name string) {
	n.name = name
}

// Parent returns the node's parent, nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the children in paint order. The slice is owned by the node.
func (n *Node) Children() []*Node {
	n.sortChildren()
	return n.children
}

// ChildByName returns the first direct child named name.
func (n *Node) ChildByName(name string) (*Node, bool) {
	for _, c := range n.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// AddChild appends child. A child that already has a parent is a misuse and is ignored in
// release builds. When n is running the child enters the tree immediately.
//
// Parameters:
//   - child: the node to add
func (n *Node) AddChild(child *Node) {
	switch {
	case child == nil:
		misuse("node: AddChild called with a nil child")
		return
	case child.parent != nil:
		misuse("node: AddChild called with a child that already has a parent")
		return
	case child == n:
		misuse("node: AddChild called with the node itself")
		return
	}

	child.parent = n
	n.arrivalCounter++
	child.orderOfArrival = n.arrivalCounter
	n.children = append(n.children, child)
	n.childrenDirty = true

	if n.running {
		child.OnEnter(n.host)
	}
}

// RemoveChild detaches child. Nothing happens when child is not a child of n.
func (n *Node) RemoveChild(child *Node) {
	i := slices.Index(n.children, child)
	if i < 0 {
		return
	}
	if child.running {
		child.OnExit()
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
}

// RemoveFromParent detaches n from its parent.
func (n *Node) RemoveFromParent() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// RemoveAllChildren detaches every child, raising exit on those that are running.
func (n *Node) RemoveAllChildren() {
	children := n.children
	n.children = nil
	for _, c := range children {
		if c.running {
			c.OnExit()
		}
		c.parent = nil
	}
}

// Walk calls fn for n and every descendant in depth-first order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Attach registers a lifecycle hook. If n is already running the hook's OnEnter fires at once.
func (n *Node) Attach(a Attachment) {
	n.attachments = append(n.attachments, a)
	if n.running {
		a.OnEnter(n, n.host)
	}
}

// Running reports whether n is part of an entered tree.
func (n *Node) Running() bool {
	return n.running
}

// Host returns the host of the running tree, nil when n is not running.
func (n *Node) Host() Host {
	return n.host
}

// OnEnter marks n and its subtree as running under host and notifies attachments.
func (n *Node) OnEnter(host Host) {
	if n.running {
		return
	}
	n.running = true
	n.host = host
	for _, a := range n.attachments {
		a.OnEnter(n, host)
	}
	for _, c := range slices.Clone(n.children) {
		c.OnEnter(host)
	}
}

// OnExit stops n and its subtree and notifies attachments.
func (n *Node) OnExit() {
	if !n.running {
		return
	}
	for _, c := range slices.Clone(n.children) {
		c.OnExit()
	}
	for _, a := range n.attachments {
		a.OnExit(n, n.host)
	}
	n.running = false
	n.host = nil
}

// Position returns the translation relative to the parent.
func (n *Node) Position() mgl32.Vec3 {
	return n.position
}

// SetPosition sets the translation relative to the parent.
func (n *Node) SetPosition(p mgl32.Vec3) {
	n.position = p
	n.localDirty = true
}

// Rotation returns the rotation relative to the parent.
func (n *Node) Rotation() mgl32.Quat {
	return n.rotation
}

// SetRotation sets the rotation relative to the parent.
func (n *Node) SetRotation(q mgl32.Quat) {
	n.rotation = q.Normalize()
	n.localDirty = true
}

// Scale returns the per-axis scale.
func (n *Node) Scale() mgl32.Vec3 {
	return n.scale
}

// SetScale sets the per-axis scale.
func (n *Node) SetScale(s mgl32.Vec3) {
	n.scale = s
	n.localDirty = true
}

// LocalTransform returns translation * rotation * scale.
func (n *Node) LocalTransform() mgl32.Mat4 {
	if n.localDirty {
		n.local = common.ComposeTRS(n.position, n.rotation, n.scale)
		n.localDirty = false
	}
	return n.local
}

// WorldTransform returns the transform from n's local space to the root's space.
func (n *Node) WorldTransform() mgl32.Mat4 {
	m := n.LocalTransform()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalTransform().Mul4(m)
	}
	return m
}

// WorldPosition returns the origin of n in the root's space.
func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.WorldTransform().Col(3).Vec3()
}

// LocalZOrder returns the paint order among siblings.
func (n *Node) LocalZOrder() int {
	return n.localZOrder
}

// SetLocalZOrder changes the paint order among siblings. Siblings with equal values keep the
// order they were added in.
func (n *Node) SetLocalZOrder(z int) {
	if n.localZOrder == z {
		return
	}
	n.localZOrder = z
	if n.parent != nil {
		n.parent.childrenDirty = true
	}
}

// GlobalZOrder returns the order value given to the node's render commands.
func (n *Node) GlobalZOrder() float32 {
	return n.globalZOrder
}

// SetGlobalZOrder sets the order value given to the node's render commands.
func (n *Node) SetGlobalZOrder(z float32) {
	n.globalZOrder = z
}

// Visible reports whether the node and its subtree are drawn.
func (n *Node) Visible() bool {
	return n.visible
}

// SetVisible shows or hides the node and its subtree.
func (n *Node) SetVisible(visible bool) {
	n.visible = visible
}

// Is3D reports whether the node's commands go to the 3D passes.
func (n *Node) Is3D() bool {
	return n.is3D
}

// Set3D routes the node's commands to the 3D or 2D passes.
func (n *Node) Set3D(is3D bool) {
	n.is3D = is3D
}

// CameraMask returns the set of camera flags that draw the node.
func (n *Node) CameraMask() CameraFlag {
	return n.cameraMask
}

// SetCameraMask sets the camera flags that draw the node. With applyChildren the whole subtree
// gets the same mask.
func (n *Node) SetCameraMask(mask CameraFlag, applyChildren bool) {
	n.cameraMask = mask
	if applyChildren {
		for _, c := range n.children {
			c.SetCameraMask(mask, true)
		}
	}
}

// BoundingRadius returns the radius used for frustum culling. Zero disables culling.
func (n *Node) BoundingRadius() float32 {
	return n.boundingRadius
}

// SetBoundingRadius sets the local-space radius used for frustum culling.
func (n *Node) SetBoundingRadius(r float32) {
	n.boundingRadius = r
}

// Drawer returns the node's drawer, nil for pure grouping nodes.
func (n *Node) Drawer() Drawer {
	return n.drawer
}

// SetDrawer replaces the node's drawer.
func (n *Node) SetDrawer(d Drawer) {
	n.drawer = d
}

// sortChildren restores paint order after additions or z-order changes.
func (n *Node) sortChildren() {
	if !n.childrenDirty {
		return
	}
	slices.SortStableFunc(n.children, func(a, b *Node) int {
		if c := cmp.Compare(a.localZOrder, b.localZOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.orderOfArrival, b.orderOfArrival)
	})
	n.childrenDirty = false
}

func misuse(msg string) {
	logger.Error(msg)
	common.Misuse(msg)
}
