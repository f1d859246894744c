package vbsp

import (
	"fmt"
	"strings"

	qmath "github.com/Faultbox/vbsp/pkg/math"
)

// Texinfo surface flags.
const (
	SurfLight     uint32 = 0x0001
	SurfSky2D     uint32 = 0x0002
	SurfSky       uint32 = 0x0004
	SurfWarp      uint32 = 0x0008
	SurfTrans     uint32 = 0x0010
	SurfNoPortal  uint32 = 0x0020
	SurfTrigger   uint32 = 0x0040
	SurfNoDraw    uint32 = 0x0080
	SurfHint      uint32 = 0x0100
	SurfSkip      uint32 = 0x0200
	SurfNoLight   uint32 = 0x0400
	SurfBumpLight uint32 = 0x0800
)

const (
	texDataSize = 32
	texInfoSize = 72
)

// TexData describes one material referenced by texinfo records.
type TexData struct {
	Reflectivity qmath.Vec3
	Name         string // lower-cased material path
	Width        int32
	Height       int32
	ViewWidth    int32
	ViewHeight   int32
}

// TexInfo maps world positions to texture and lightmap coordinates.
// Each vector row is (x, y, z, offset).
type TexInfo struct {
	TextureVecs  [2][4]float32
	LightmapVecs [2][4]float32
	Flags        uint32
	TexData      int32

	// Resolved from TexData; empty when the record has no texdata.
	TexName string
	Width   int32
	Height  int32
}

// IsTranslucent reports whether surfaces using this texinfo are sorted
// back to front and never merged.
func (t *TexInfo) IsTranslucent() bool {
	return t.Flags&SurfTrans != 0
}

// IsBumpLit reports whether faces carry three extra bumped lightmap samples.
func (t *TexInfo) IsBumpLit() bool {
	return t.Flags&SurfBumpLight != 0
}

// Hidden reports whether faces using this texinfo produce no geometry.
func (t *TexInfo) Hidden() bool {
	return t.Flags&(SurfNoDraw|SurfSky|SurfSky2D) != 0
}

// TextureUV returns the normalized texture coordinate of p.
func (t *TexInfo) TextureUV(p qmath.Vec3) qmath.Vec2 {
	w, h := float32(t.Width), float32(t.Height)
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return qmath.Vec2{
		X: applyTexVec(t.TextureVecs[0], p) / w,
		Y: applyTexVec(t.TextureVecs[1], p) / h,
	}
}

// LightmapST returns the luxel-space coordinate of p before the face's
// lightmap mins are subtracted.
func (t *TexInfo) LightmapST(p qmath.Vec3) qmath.Vec2 {
	return qmath.Vec2{
		X: applyTexVec(t.LightmapVecs[0], p),
		Y: applyTexVec(t.LightmapVecs[1], p),
	}
}

// TangentS is the normalized S axis of the texture mapping.
func (t *TexInfo) TangentS() qmath.Vec3 {
	return texAxis(t.TextureVecs[0]).Normalize()
}

// TangentSign is -1 when the texture basis is mirrored relative to the
// plane normal n, else 1.
func (t *TexInfo) TangentSign(n qmath.Vec3) float32 {
	s := texAxis(t.TextureVecs[0]).Normalize()
	tt := texAxis(t.TextureVecs[1]).Normalize()
	if n.Dot(s.Cross(tt)) < 0 {
		return -1
	}
	return 1
}

func texAxis(v [4]float32) qmath.Vec3 {
	return qmath.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

func applyTexVec(v [4]float32, p qmath.Vec3) float32 {
	return p.X*v[0] + p.Y*v[1] + p.Z*v[2] + v[3]
}

// parseTexData decodes the texdata lump and resolves names through the
// string table and string data lumps.
func parseTexData(data, table, strData []byte) ([]TexData, error) {
	n, err := recordCount(data, texDataSize, LumpTexData.String())
	if err != nil {
		return nil, err
	}
	nStrings, err := recordCount(table, 4, LumpTexDataStringTable.String())
	if err != nil {
		return nil, err
	}

	r := newReader(data, LumpTexData.String())
	tr := newReader(table, LumpTexDataStringTable.String())
	out := make([]TexData, n)
	for i := range out {
		td := &out[i]
		td.Reflectivity = r.vec3()
		nameID := int(r.i32())
		td.Width = r.i32()
		td.Height = r.i32()
		td.ViewWidth = r.i32()
		td.ViewHeight = r.i32()

		if nameID < 0 || nameID >= nStrings {
			return nil, fmt.Errorf("%w: texdata %d name id %d of %d", ErrBadIndex, i, nameID, nStrings)
		}
		tr.seek(nameID * 4)
		off := int(tr.i32())
		if off < 0 || off > len(strData) {
			return nil, fmt.Errorf("%w: texdata %d string offset %d", ErrBadIndex, i, off)
		}
		td.Name = strings.ToLower(trimNUL(strData[off:]))
	}
	if r.err != nil {
		return nil, r.err
	}
	return out, tr.err
}

// parseTexInfo decodes the texinfo lump. Records pointing at a texdata
// index of -1 keep an empty name.
func parseTexInfo(data []byte, texData []TexData) ([]TexInfo, error) {
	n, err := recordCount(data, texInfoSize, LumpTexInfo.String())
	if err != nil {
		return nil, err
	}

	r := newReader(data, LumpTexInfo.String())
	out := make([]TexInfo, n)
	for i := range out {
		ti := &out[i]
		for s := range 2 {
			for k := range 4 {
				ti.TextureVecs[s][k] = r.f32()
			}
		}
		for s := range 2 {
			for k := range 4 {
				ti.LightmapVecs[s][k] = r.f32()
			}
		}
		ti.Flags = r.u32()
		ti.TexData = r.i32()

		if ti.TexData < 0 {
			continue
		}
		if int(ti.TexData) >= len(texData) {
			return nil, fmt.Errorf("%w: texinfo %d references texdata %d of %d",
				ErrBadIndex, i, ti.TexData, len(texData))
		}
		td := &texData[ti.TexData]
		ti.TexName = td.Name
		ti.Width = td.Width
		ti.Height = td.Height
	}
	return out, r.err
}
