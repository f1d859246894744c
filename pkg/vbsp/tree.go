package vbsp

import (
	"fmt"
	"slices"

	qmath "github.com/Faultbox/vbsp/pkg/math"
)

// NoCluster marks a leaf outside the visibility set.
const NoCluster = 0xFFFF

const (
	planeSize = 20
	nodeSize  = 32
	modelSize = 48
)

// NodeRef points at either an internal node or a leaf.
type NodeRef struct {
	Index int
	Leaf  bool
}

// nodeRefFromRaw decodes the on-disk child convention: negative values
// address leaf -raw-1.
func nodeRefFromRaw(raw int32) NodeRef {
	if raw < 0 {
		return NodeRef{Index: int(-raw - 1), Leaf: true}
	}
	return NodeRef{Index: int(raw)}
}

// Node is an internal BSP node.
type Node struct {
	Plane     qmath.Plane
	Children  [2]NodeRef // front, back
	Bounds    qmath.AABB
	FirstFace uint16
	NumFaces  uint16
	Area      int16
}

// Model is a brush model; model 0 is the world.
type Model struct {
	Bounds    qmath.AABB
	Origin    qmath.Vec3
	HeadNode  int32
	FirstFace int32
	NumFaces  int32
	Surfaces  []int
}

// Tree is the node/leaf hierarchy with its water table.
type Tree struct {
	Nodes     []Node
	Leaves    []Leaf
	WaterData []LeafWaterData
	Root      NodeRef
}

func parsePlanes(data []byte) ([]qmath.Plane, error) {
	n, err := recordCount(data, planeSize, LumpPlanes.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpPlanes.String())
	out := make([]qmath.Plane, n)
	for i := range out {
		out[i].Normal = r.vec3()
		out[i].Dist = r.f32()
		r.skip(4) // axial type
	}
	return out, r.err
}

func parseNodes(data []byte, planes []qmath.Plane, numLeaves int) ([]Node, error) {
	n, err := recordCount(data, nodeSize, LumpNodes.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpNodes.String())
	out := make([]Node, n)
	for i := range out {
		node := &out[i]
		planeNum := int(r.i32())
		if planeNum < 0 || planeNum >= len(planes) {
			return nil, fmt.Errorf("%w: node %d plane %d of %d", ErrBadIndex, i, planeNum, len(planes))
		}
		node.Plane = planes[planeNum]
		for c := range node.Children {
			ref := nodeRefFromRaw(r.i32())
			limit := n
			if ref.Leaf {
				limit = numLeaves
			}
			if ref.Index >= limit {
				return nil, fmt.Errorf("%w: node %d child %d -> %+v", ErrBadIndex, i, c, ref)
			}
			node.Children[c] = ref
		}
		node.Bounds = qmath.NewAABB(r.vec3i16(), r.vec3i16())
		node.FirstFace = r.u16()
		node.NumFaces = r.u16()
		node.Area = r.i16()
		r.skip(2)
	}
	return out, r.err
}

func parseModels(data []byte) ([]Model, error) {
	n, err := recordCount(data, modelSize, LumpModels.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpModels.String())
	out := make([]Model, n)
	for i := range out {
		m := &out[i]
		m.Bounds = qmath.NewAABB(r.vec3(), r.vec3())
		m.Origin = r.vec3()
		m.HeadNode = r.i32()
		m.FirstFace = r.i32()
		m.NumFaces = r.i32()
	}
	return out, r.err
}

// FindLeafForPoint returns the index of the leaf containing p, or -1 for an
// empty tree. Points on a plane go to the front child.
func (t *Tree) FindLeafForPoint(p qmath.Vec3) int {
	if len(t.Leaves) == 0 {
		return -1
	}
	ref := t.Root
	for range len(t.Nodes) + 1 {
		if ref.Leaf {
			return ref.Index
		}
		node := &t.Nodes[ref.Index]
		if node.Plane.Distance(p) >= 0 {
			ref = node.Children[0]
		} else {
			ref = node.Children[1]
		}
	}
	return -1
}

// FindLeafWaterForPoint searches the front side of each node first, then
// the back, and returns the first water record found.
func (t *Tree) FindLeafWaterForPoint(p qmath.Vec3) *LeafWaterData {
	if len(t.Leaves) == 0 {
		return nil
	}
	return t.findLeafWater(t.Root, p, 0)
}

func (t *Tree) findLeafWater(ref NodeRef, p qmath.Vec3, depth int) *LeafWaterData {
	if depth > len(t.Nodes) {
		return nil
	}
	if ref.Leaf {
		id := int(t.Leaves[ref.Index].WaterData)
		if id < 0 || id >= len(t.WaterData) {
			return nil
		}
		return &t.WaterData[id]
	}

	node := &t.Nodes[ref.Index]
	front, back := node.Children[0], node.Children[1]
	if node.Plane.Distance(p) < 0 {
		front, back = back, front
	}
	if w := t.findLeafWater(front, p, depth+1); w != nil {
		return w
	}
	return t.findLeafWater(back, p, depth+1)
}

// MarkClusterSet appends to dst every cluster whose leaves may touch box.
// Clusters already in dst are not added again.
func (t *Tree) MarkClusterSet(dst []int, box qmath.AABB) []int {
	if len(t.Leaves) == 0 {
		return dst
	}
	return t.markClusterSet(dst, t.Root, box, 0)
}

func (t *Tree) markClusterSet(dst []int, ref NodeRef, box qmath.AABB, depth int) []int {
	if depth > len(t.Nodes) {
		return dst
	}
	if ref.Leaf {
		cluster := int(t.Leaves[ref.Index].Cluster)
		if cluster == NoCluster || slices.Contains(dst, cluster) {
			return dst
		}
		return append(dst, cluster)
	}

	node := &t.Nodes[ref.Index]
	front, back := false, false
	for i := range 8 {
		d := node.Plane.Distance(box.Corner(i))
		if d >= 0 {
			front = true
		}
		if d <= 0 {
			back = true
		}
	}
	if front {
		dst = t.markClusterSet(dst, node.Children[0], box, depth+1)
	}
	if back {
		dst = t.markClusterSet(dst, node.Children[1], box, depth+1)
	}
	return dst
}
