package vbsp

import (
	"fmt"

	"github.com/chewxy/math32"

	qmath "github.com/Faultbox/vbsp/pkg/math"
)

const (
	dispInfoSize = 176
	dispVertSize = 20
)

// DispInfo describes a displacement built over a four-sided face.
type DispInfo struct {
	StartPos                    qmath.Vec3
	DispVertStart               int32
	DispTriStart                int32
	Power                       int32
	MinTess                     int32
	SmoothingAngle              float32
	Contents                    int32
	MapFace                     uint16
	LightmapAlphaStart          int32
	LightmapSamplePositionStart int32
}

// SideLength is the number of vertices along one edge of the grid.
func (d *DispInfo) SideLength() int {
	return 1<<d.Power + 1
}

// VertexCount is the number of grid vertices.
func (d *DispInfo) VertexCount() int {
	s := d.SideLength()
	return s * s
}

// DispVert is a per-vertex offset along Vec scaled by Dist. Alpha is the
// blend weight in 0..255.
type DispVert struct {
	Vec   qmath.Vec3
	Dist  float32
	Alpha float32
}

func parseDispInfo(data []byte) ([]DispInfo, error) {
	n, err := recordCount(data, dispInfoSize, LumpDispInfo.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpDispInfo.String())
	out := make([]DispInfo, n)
	for i := range out {
		r.seek(i * dispInfoSize)
		d := &out[i]
		d.StartPos = r.vec3()
		d.DispVertStart = r.i32()
		d.DispTriStart = r.i32()
		d.Power = r.i32()
		d.MinTess = r.i32()
		d.SmoothingAngle = r.f32()
		d.Contents = r.i32()
		d.MapFace = r.u16()
		r.skip(2)
		d.LightmapAlphaStart = r.i32()
		d.LightmapSamplePositionStart = r.i32()
		// Edge and corner neighbor tables follow; tessellation does not
		// stitch neighbors.
		if d.Power < 2 || d.Power > 4 {
			return nil, fmt.Errorf("%w: dispinfo %d power %d", ErrBadIndex, i, d.Power)
		}
	}
	return out, r.err
}

func parseDispVerts(data []byte) ([]DispVert, error) {
	n, err := recordCount(data, dispVertSize, LumpDispVerts.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpDispVerts.String())
	out := make([]DispVert, n)
	for i := range out {
		out[i].Vec = r.vec3()
		out[i].Dist = r.f32()
		out[i].Alpha = r.f32()
	}
	return out, r.err
}

// meshVertex is one vertex before it is flattened into the vertex buffer.
type meshVertex struct {
	pos        qmath.Vec3
	normal     qmath.Vec3
	alpha      float32
	uv         qmath.Vec2
	lightmapUV qmath.Vec2
}

// displacement is a tessellated grid, row-major with side vertices per row.
// Lightmap UVs are normalized to 0..1 over the grid.
type displacement struct {
	side   int
	verts  []meshVertex
	bounds qmath.AABB
}

// rotateCorners shifts the winding so the corner nearest start comes first.
func rotateCorners(corners [4]qmath.Vec3, start qmath.Vec3) [4]qmath.Vec3 {
	first := 0
	best := math32.Inf(1)
	for i, c := range corners {
		if d := c.Distance(start); d < best {
			best = d
			first = i
		}
	}

	var out [4]qmath.Vec3
	for i := range out {
		out[i] = corners[(i+first)%4]
	}
	return out
}

// buildDisplacement tessellates info over corners, which must already be
// in face winding order.
func buildDisplacement(info *DispInfo, corners [4]qmath.Vec3, dispVerts []DispVert, tex *TexInfo) (*displacement, error) {
	side := info.SideLength()
	count := side * side
	start := int(info.DispVertStart)
	if start < 0 || start+count > len(dispVerts) {
		return nil, fmt.Errorf("%w: displacement verts %d+%d of %d",
			ErrBadIndex, start, count, len(dispVerts))
	}

	c := rotateCorners(corners, info.StartPos)
	d := &displacement{
		side:   side,
		verts:  make([]meshVertex, count),
		bounds: qmath.EmptyAABB(),
	}

	step := 1 / float32(side-1)
	for y := range side {
		ty := float32(y) * step
		left := c[0].Lerp(c[1], ty)
		right := c[3].Lerp(c[2], ty)
		for x := range side {
			tx := float32(x) * step
			idx := y*side + x
			dv := &dispVerts[start+idx]

			base := left.Lerp(right, tx)
			v := &d.verts[idx]
			v.uv = tex.TextureUV(base)
			v.pos = base.Add(dv.Vec.Scale(dv.Dist))
			v.alpha = clamp01(dv.Alpha / 255)
			v.lightmapUV = qmath.Vec2{X: tx, Y: ty}
			d.bounds.Extend(v.pos)
		}
	}

	d.computeNormals()
	return d, nil
}

// computeNormals averages the normalized triangle normals of every quad
// touching a vertex. The sum is divided by the triangle count and is not
// renormalized.
func (d *displacement) computeNormals() {
	side := d.side
	sums := make([]qmath.Vec3, len(d.verts))
	counts := make([]int, len(d.verts))

	for y := range side - 1 {
		for x := range side - 1 {
			ia := y*side + x
			ib := ia + 1
			ic := ia + side
			id := ic + 1
			a, b, cc, dd := d.verts[ia].pos, d.verts[ib].pos, d.verts[ic].pos, d.verts[id].pos

			n1 := b.Sub(a).Cross(cc.Sub(a)).Normalize()
			n2 := dd.Sub(b).Cross(cc.Sub(b)).Normalize()
			for _, i := range [4]int{ia, ib, ic, id} {
				sums[i] = sums[i].Add(n1).Add(n2)
				counts[i] += 2
			}
		}
	}

	for i := range d.verts {
		if counts[i] > 0 {
			d.verts[i].normal = sums[i].Scale(1 / float32(counts[i]))
		}
	}
}

// indices emits two triangles per quad, alternating the split diagonal in
// a checkerboard pattern. Indices are relative to the first grid vertex.
func (d *displacement) indices() []uint32 {
	side := d.side
	out := make([]uint32, 0, (side-1)*(side-1)*6)
	for y := range side - 1 {
		for x := range side - 1 {
			a := uint32(y*side + x)
			b := a + 1
			c := a + uint32(side)
			dd := c + 1
			if (x+y)%2 == 0 {
				out = append(out, a, c, b, b, c, dd)
			} else {
				out = append(out, a, c, dd, a, dd, b)
			}
		}
	}
	return out
}

func clamp01(v float32) float32 {
	return math32.Min(math32.Max(v, 0), 1)
}
