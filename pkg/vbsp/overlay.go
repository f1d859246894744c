package vbsp

import (
	qmath "github.com/Faultbox/vbsp/pkg/math"
)

const (
	overlaySize     = 352
	overlayMaxFaces = 64
)

// Overlay is a decal quad projected onto one or more faces.
type Overlay struct {
	ID          int32
	TexInfo     int16
	RenderOrder uint16
	Faces       []int32
	U           [2]float32
	V           [2]float32
	UVPoints    [4]qmath.Vec3
	Origin      qmath.Vec3
	BasisNormal qmath.Vec3
}

// BasisU is packed into the Z components of the UV points.
func (o *Overlay) BasisU() qmath.Vec3 {
	return qmath.Vec3{X: o.UVPoints[0].Z, Y: o.UVPoints[1].Z, Z: o.UVPoints[2].Z}
}

// BasisV completes the basis from the normal and U axis.
func (o *Overlay) BasisV() qmath.Vec3 {
	return o.BasisNormal.Cross(o.BasisU())
}

// Corners returns the four world-space corners of the quad.
func (o *Overlay) Corners() [4]qmath.Vec3 {
	u, v := o.BasisU(), o.BasisV()
	var out [4]qmath.Vec3
	for i, p := range o.UVPoints {
		out[i] = o.Origin.Add(u.Scale(p.X)).Add(v.Scale(p.Y))
	}
	return out
}

// TexCoords returns the texture coordinate of each corner.
func (o *Overlay) TexCoords() [4]qmath.Vec2 {
	return [4]qmath.Vec2{
		{X: o.U[0], Y: o.V[0]},
		{X: o.U[0], Y: o.V[1]},
		{X: o.U[1], Y: o.V[1]},
		{X: o.U[1], Y: o.V[0]},
	}
}

func parseOverlays(data []byte) ([]Overlay, error) {
	n, err := recordCount(data, overlaySize, LumpOverlays.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpOverlays.String())
	out := make([]Overlay, n)
	for i := range out {
		o := &out[i]
		o.ID = r.i32()
		o.TexInfo = r.i16()
		countAndOrder := r.u16()
		faceCount := min(int(countAndOrder&0x3FFF), overlayMaxFaces)
		o.RenderOrder = countAndOrder >> 14

		faces := make([]int32, overlayMaxFaces)
		for f := range faces {
			faces[f] = r.i32()
		}
		o.Faces = faces[:faceCount:faceCount]

		o.U = [2]float32{r.f32(), r.f32()}
		o.V = [2]float32{r.f32(), r.f32()}
		for p := range o.UVPoints {
			o.UVPoints[p] = r.vec3()
		}
		o.Origin = r.vec3()
		o.BasisNormal = r.vec3()
	}
	return out, r.err
}
