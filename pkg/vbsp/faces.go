package vbsp

import (
	qmath "github.com/Faultbox/vbsp/pkg/math"
)

const (
	faceSize      = 56
	edgeSize      = 4
	primitiveSize = 10
)

// Primitive types.
const (
	PrimTriList  uint8 = 0
	PrimTriStrip uint8 = 1
)

// Face is a raw polygon record.
type Face struct {
	PlaneNum        uint16
	Side            uint8
	OnNode          uint8
	FirstEdge       int32
	NumEdges        int16
	TexInfo         int16
	DispInfo        int16
	FogVolume       int16
	Styles          [4]uint8
	LightOffset     int32
	Area            float32
	LightmapMins    [2]int32
	LightmapSize    [2]int32
	OrigFace        int32
	NumPrims        uint16
	FirstPrimID     uint16
	SmoothingGroups uint32
}

// Primitive overrides the triangulation of a face. A non-zero VertCount
// marks a dynamic primitive with its own vertices.
type Primitive struct {
	Type       uint8
	FirstIndex uint16
	IndexCount uint16
	FirstVert  uint16
	VertCount  uint16
}

func parseFaces(data []byte) ([]Face, error) {
	n, err := recordCount(data, faceSize, LumpFaces.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpFaces.String())
	out := make([]Face, n)
	for i := range out {
		f := &out[i]
		f.PlaneNum = r.u16()
		f.Side = r.u8()
		f.OnNode = r.u8()
		f.FirstEdge = r.i32()
		f.NumEdges = r.i16()
		f.TexInfo = r.i16()
		f.DispInfo = r.i16()
		f.FogVolume = r.i16()
		for s := range f.Styles {
			f.Styles[s] = r.u8()
		}
		f.LightOffset = r.i32()
		f.Area = r.f32()
		f.LightmapMins[0] = r.i32()
		f.LightmapMins[1] = r.i32()
		f.LightmapSize[0] = r.i32()
		f.LightmapSize[1] = r.i32()
		f.OrigFace = r.i32()
		f.NumPrims = r.u16()
		f.FirstPrimID = r.u16()
		f.SmoothingGroups = r.u32()
	}
	return out, r.err
}

func parseVertexes(data []byte, lump LumpType) ([]qmath.Vec3, error) {
	n, err := recordCount(data, 12, lump.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, lump.String())
	out := make([]qmath.Vec3, n)
	for i := range out {
		out[i] = r.vec3()
	}
	return out, r.err
}

func parseEdges(data []byte) ([][2]uint16, error) {
	n, err := recordCount(data, edgeSize, LumpEdges.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpEdges.String())
	out := make([][2]uint16, n)
	for i := range out {
		out[i] = [2]uint16{r.u16(), r.u16()}
	}
	return out, r.err
}

func parseInt32s(data []byte, lump LumpType) ([]int32, error) {
	n, err := recordCount(data, 4, lump.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, lump.String())
	out := make([]int32, n)
	for i := range out {
		out[i] = r.i32()
	}
	return out, r.err
}

func parseUint16s(data []byte, lump LumpType) ([]uint16, error) {
	n, err := recordCount(data, 2, lump.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, lump.String())
	out := make([]uint16, n)
	for i := range out {
		out[i] = r.u16()
	}
	return out, r.err
}

func parsePrimitives(data []byte) ([]Primitive, error) {
	n, err := recordCount(data, primitiveSize, LumpPrimitives.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpPrimitives.String())
	out := make([]Primitive, n)
	for i := range out {
		p := &out[i]
		p.Type = r.u8()
		r.skip(1)
		p.FirstIndex = r.u16()
		p.IndexCount = r.u16()
		p.FirstVert = r.u16()
		p.VertCount = r.u16()
	}
	return out, r.err
}
