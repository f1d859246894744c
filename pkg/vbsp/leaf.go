package vbsp

import (
	"fmt"

	"github.com/Faultbox/vbsp/pkg/lightmap"
	qmath "github.com/Faultbox/vbsp/pkg/math"
)

const (
	leafSizeV0              = 56
	leafSizeV1              = 32
	leafWaterDataSize       = 12
	leafAmbientIndexSize    = 4
	leafAmbientLightingSize = 28
)

// Leaf is a terminal BSP region.
type Leaf struct {
	Contents       int32
	Cluster        uint16 // NoCluster when outside the PVS
	Area           uint16
	Flags          uint16
	Bounds         qmath.AABB
	FirstLeafFace  uint16
	NumLeafFaces   uint16
	FirstLeafBrush uint16
	NumLeafBrushes uint16
	WaterData      int16 // index into Tree.WaterData, -1 when dry
	AmbientSamples []AmbientSample
	Surfaces       []int
}

// LeafWaterData describes the water volume a leaf belongs to.
type LeafWaterData struct {
	SurfaceZ       float32
	MinZ           float32
	SurfaceTexInfo int16
}

// AmbientSample is a six-sided ambient light cube at a point. Cube faces
// are ordered +X, -X, +Y, -Y, +Z, -Z and hold linear RGB.
type AmbientSample struct {
	Cube [6]qmath.Vec3
	Pos  qmath.Vec3
}

func parseLeafs(data []byte, version uint32) ([]Leaf, error) {
	stride := leafSizeV1
	switch version {
	case 0:
		stride = leafSizeV0
	case 1:
	default:
		return nil, fmt.Errorf("%w: leafs version %d", ErrLumpVersion, version)
	}
	n, err := recordCount(data, stride, LumpLeafs.String())
	if err != nil {
		return nil, err
	}

	r := newReader(data, LumpLeafs.String())
	out := make([]Leaf, n)
	for i := range out {
		start := i * stride
		r.seek(start)
		leaf := &out[i]
		leaf.Contents = r.i32()
		leaf.Cluster = r.u16()
		areaFlags := r.u16()
		leaf.Area = areaFlags & 0x1FF
		leaf.Flags = areaFlags >> 9
		leaf.Bounds = qmath.NewAABB(r.vec3i16(), r.vec3i16())
		leaf.FirstLeafFace = r.u16()
		leaf.NumLeafFaces = r.u16()
		leaf.FirstLeafBrush = r.u16()
		leaf.NumLeafBrushes = r.u16()
		leaf.WaterData = r.i16()
		if version == 0 {
			leaf.AmbientSamples = []AmbientSample{{
				Cube: readAmbientCube(r),
				Pos:  leaf.Bounds.Center(),
			}}
		}
	}
	return out, r.err
}

func readAmbientCube(r *reader) [6]qmath.Vec3 {
	var cube [6]qmath.Vec3
	for i := range cube {
		cr, cg, cb := r.u8(), r.u8(), r.u8()
		exp := int8(r.u8())
		x, y, z := lightmap.DecodeRGBExp32(cr, cg, cb, exp)
		cube[i] = qmath.Vec3{X: x, Y: y, Z: z}
	}
	return cube
}

func parseLeafWaterData(data []byte) ([]LeafWaterData, error) {
	n, err := recordCount(data, leafWaterDataSize, LumpLeafWaterData.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpLeafWaterData.String())
	out := make([]LeafWaterData, n)
	for i := range out {
		out[i].SurfaceZ = r.f32()
		out[i].MinZ = r.f32()
		out[i].SurfaceTexInfo = r.i16()
		r.skip(2)
	}
	return out, r.err
}

// attachAmbientSamples fills the per-leaf samples of version 1 maps from
// the ambient index and lighting lumps. Sample positions are stored as
// fractions of the leaf bounds in 1/255 steps.
func attachAmbientSamples(leaves []Leaf, index, lighting []byte) error {
	if len(index) == 0 {
		return nil
	}
	nIndex, err := recordCount(index, leafAmbientIndexSize, "leaf_ambient_index")
	if err != nil {
		return err
	}
	nSamples, err := recordCount(lighting, leafAmbientLightingSize, "leaf_ambient_lighting")
	if err != nil {
		return err
	}

	ir := newReader(index, "leaf_ambient_index")
	lr := newReader(lighting, "leaf_ambient_lighting")
	for i := range min(nIndex, len(leaves)) {
		count := int(ir.u16())
		first := int(ir.u16())
		if first+count > nSamples {
			return fmt.Errorf("%w: leaf %d ambient samples %d+%d of %d",
				ErrBadIndex, i, first, count, nSamples)
		}

		leaf := &leaves[i]
		size := leaf.Bounds.Max.Sub(leaf.Bounds.Min)
		samples := make([]AmbientSample, count)
		for j := range samples {
			lr.seek((first + j) * leafAmbientLightingSize)
			samples[j].Cube = readAmbientCube(lr)
			fx := float32(lr.u8()) / 255
			fy := float32(lr.u8()) / 255
			fz := float32(lr.u8()) / 255
			samples[j].Pos = qmath.Vec3{
				X: leaf.Bounds.Min.X + size.X*fx,
				Y: leaf.Bounds.Min.Y + size.Y*fy,
				Z: leaf.Bounds.Min.Z + size.Z*fz,
			}
		}
		leaf.AmbientSamples = samples
	}
	if ir.err != nil {
		return ir.err
	}
	return lr.err
}
