package node

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/command"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// traceDrawer records the names of the nodes it draws.
type traceDrawer struct {
	name  string
	trace *[]string
	mv    mgl32.Mat4
}

func (d *traceDrawer) Draw(_ renderer.Submitter, mv mgl32.Mat4, _ float32, _ command.Flags) {
	d.mv = mv
	*d.trace = append(*d.trace, d.name)
}

type hostStub struct {
	root *Node
}

func (h *hostStub) Root() *Node { return h.root }

type attachmentStub struct {
	entered, exited int
	host            Host
}

func (a *attachmentStub) OnEnter(_ *Node, host Host) {
	a.entered++
	a.host = host
}

func (a *attachmentStub) OnExit(*Node, Host) {
	a.exited++
	a.host = nil
}

func traced(name string, trace *[]string, options ...NodeBuilderOption) *Node {
	return New(append([]NodeBuilderOption{WithName(name), WithDrawer(&traceDrawer{name: name, trace: trace})}, options...)...)
}

func TestAddAndRemoveChildren(t *testing.T) {
	parent := New(WithName("parent"))
	a, b := New(WithName("a")), New(WithName("b"))
	parent.AddChild(a)
	parent.AddChild(b)

	assert.Same(t, parent, a.Parent())
	assert.Equal(t, []*Node{a, b}, parent.Children())
	found, ok := parent.ChildByName("b")
	require.True(t, ok)
	assert.Same(t, b, found)

	if !common.DebugAssertions {
		other := New()
		other.AddChild(a)
		assert.Same(t, parent, a.Parent(), "a node keeps its first parent")
	}

	a.RemoveFromParent()
	assert.Nil(t, a.Parent())
	assert.Equal(t, []*Node{b}, parent.Children())

	parent.RemoveAllChildren()
	assert.Empty(t, parent.Children())
	assert.Nil(t, b.Parent())
}

func TestLifecyclePropagates(t *testing.T) {
	root := New()
	child := New()
	grandchild := New()
	hook := &attachmentStub{}
	grandchild.Attach(hook)
	child.AddChild(grandchild)
	root.AddChild(child)

	host := &hostStub{root: root}
	root.OnEnter(host)
	assert.True(t, grandchild.Running())
	assert.Equal(t, 1, hook.entered)
	assert.Same(t, host, hook.host)
	assert.Equal(t, host, grandchild.Host())

	root.OnEnter(host)
	assert.Equal(t, 1, hook.entered, "entering twice is a no-op")

	child.RemoveChild(grandchild)
	assert.Equal(t, 1, hook.exited)
	assert.False(t, grandchild.Running())

	late := &attachmentStub{}
	child.AddChild(grandchild)
	grandchild.Attach(late)
	assert.Equal(t, 2, hook.entered, "adding to a running parent enters immediately")
	assert.Equal(t, 1, late.entered)

	root.OnExit()
	assert.False(t, child.Running())
	assert.Equal(t, 2, hook.exited)
	assert.Nil(t, grandchild.Host())
}

func TestVisitPaintOrder(t *testing.T) {
	var trace []string
	root := traced("root", &trace)
	root.AddChild(traced("front", &trace, WithLocalZOrder(1)))
	root.AddChild(traced("back", &trace, WithLocalZOrder(-1)))
	root.AddChild(traced("middle-a", &trace))
	root.AddChild(traced("middle-b", &trace))
	root.AddChild(traced("behind", &trace, WithLocalZOrder(-5)))

	root.Visit(nil, mgl32.Ident4(), &VisitContext{CameraFlag: CameraFlagDefault})
	assert.Equal(t, []string{"behind", "back", "root", "middle-a", "middle-b", "front"}, trace)

	trace = nil
	c, _ := root.ChildByName("front")
	c.SetLocalZOrder(-10)
	root.Visit(nil, mgl32.Ident4(), &VisitContext{CameraFlag: CameraFlagDefault})
	assert.Equal(t, []string{"front", "behind", "back", "root", "middle-a", "middle-b"}, trace)
}

func TestVisitSkipsInvisibleAndMaskedSubtrees(t *testing.T) {
	var trace []string
	root := traced("root", &trace, WithCameraMask(CameraMaskAll))
	hidden := traced("hidden", &trace, WithVisible(false))
	hidden.AddChild(traced("hidden-child", &trace))
	masked := traced("masked", &trace, WithCameraMask(CameraFlagUser1))
	root.AddChild(hidden)
	root.AddChild(masked)
	root.AddChild(traced("shown", &trace))

	root.Visit(nil, mgl32.Ident4(), &VisitContext{CameraFlag: CameraFlagDefault})
	assert.Equal(t, []string{"root", "shown"}, trace)

	trace = nil
	root.Visit(nil, mgl32.Ident4(), &VisitContext{CameraFlag: CameraFlagUser1})
	assert.Equal(t, []string{"root", "masked"}, trace)
}

func TestSetCameraMaskAppliesToChildren(t *testing.T) {
	root := New()
	child := New()
	root.AddChild(child)
	root.SetCameraMask(CameraFlagUser2, true)
	assert.Equal(t, CameraFlagUser2, child.CameraMask())
}

func TestVisitFrustumCulling(t *testing.T) {
	var trace []string
	root := New()
	root.AddChild(traced("inside", &trace, WithPosition(0, 0, -10), WithBoundingRadius(1)))
	root.AddChild(traced("outside", &trace, WithPosition(500, 0, -10), WithBoundingRadius(1)))
	root.AddChild(traced("unbounded", &trace, WithPosition(500, 0, -10)))

	frustum := common.ExtractFrustum(mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 100))
	ctx := &VisitContext{CameraFlag: CameraFlagDefault, Frustum: &frustum}
	root.Visit(nil, mgl32.Ident4(), ctx)

	assert.Equal(t, []string{"inside", "unbounded"}, trace)
	assert.Equal(t, 1, ctx.Culled)
}

func TestTransforms(t *testing.T) {
	var trace []string
	parent := New(WithPosition(10, 0, 0), WithScale(2, 2, 2))
	child := traced("child", &trace, WithPosition(1, 2, 3))
	parent.AddChild(child)

	assert.Equal(t, mgl32.Vec3{12, 4, 6}, child.WorldPosition())

	view := mgl32.Translate3D(0, 0, -50)
	parent.Visit(nil, view, &VisitContext{CameraFlag: CameraFlagDefault})
	mv := child.Drawer().(*traceDrawer).mv
	assert.Equal(t, mgl32.Vec3{12, 4, -44}, mv.Col(3).Vec3())

	child.SetPosition(mgl32.Vec3{0, 0, 0})
	assert.Equal(t, mgl32.Vec3{10, 0, 0}, child.WorldPosition(), "local transform is recomputed after a change")
}

func TestWalkStopsEarly(t *testing.T) {
	root := New(WithName("root"), WithChildren(New(WithName("a")), New(WithName("b"))))
	var seen []string
	root.Walk(func(n *Node) bool {
		seen = append(seen, n.Name())
		return n.Name() != "a"
	})
	assert.Equal(t, []string{"root", "a"}, seen)
}
