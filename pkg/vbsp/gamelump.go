package vbsp

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	qmath "github.com/Faultbox/vbsp/pkg/math"
)

// Game lump ids.
const (
	GameLumpStaticProps   = "sprp"
	GameLumpDetailProps   = "dprp"
	GameLumpDetailPropLit = "dplt"
)

const (
	gameLumpEntrySize      = 16
	gameLumpFlagCompressed = 0x0001

	modelNameSize        = 128
	detailSpriteSize     = 32
	detailObjectSize     = 52
	detailPropsVersion   = 4
	minStaticPropVersion = 4
	maxStaticPropVersion = 11
)

// GameLump is one entry of the game lump directory. Offsets are absolute
// within the map file.
type GameLump struct {
	ID      string
	Flags   uint16
	Version uint16
	Offset  int32
	Length  int32
}

// Compressed reports whether the entry carries an LZMA frame.
func (g *GameLump) Compressed() bool {
	return g.Flags&gameLumpFlagCompressed != 0
}

// gameLumps resolves game lump entries against the whole map buffer.
type gameLumps struct {
	file    []byte
	entries []GameLump
}

func parseGameLumpDir(file []byte, data []byte) (*gameLumps, error) {
	g := &gameLumps{file: file}
	if len(data) == 0 {
		return g, nil
	}

	r := newReader(data, LumpGameLump.String())
	count := int(r.i32())
	if count < 0 || 4+count*gameLumpEntrySize > len(data) {
		return nil, fmt.Errorf("%w: game lump declares %d entries in %d bytes", ErrTruncated, count, len(data))
	}
	g.entries = make([]GameLump, count)
	for i := range g.entries {
		e := &g.entries[i]
		var id [4]byte
		binary.BigEndian.PutUint32(id[:], r.u32())
		e.ID = string(id[:])
		e.Flags = r.u16()
		e.Version = r.u16()
		e.Offset = r.i32()
		e.Length = r.i32()
	}
	return g, r.err
}

func (g *gameLumps) find(id string) (int, *GameLump) {
	for i := range g.entries {
		if g.entries[i].ID == id {
			return i, &g.entries[i]
		}
	}
	return -1, nil
}

// data returns the bytes of game lump id, or nil when the map has none.
// Compressed entries run up to the next entry's offset, the last one to the
// end of the file. The frame header carries the real length.
func (g *gameLumps) data(id string) ([]byte, *GameLump, error) {
	i, e := g.find(id)
	if e == nil {
		return nil, nil, nil
	}

	start := int(e.Offset)
	end := start + int(e.Length)
	if e.Compressed() {
		end = len(g.file)
		if i+1 < len(g.entries) {
			end = int(g.entries[i+1].Offset)
		}
	}
	if start < 0 || end < start || end > len(g.file) {
		return nil, nil, fmt.Errorf("%w: game lump %s spans %d..%d of %d", ErrTruncated, id, start, end, len(g.file))
	}
	raw := g.file[start:end]
	if !e.Compressed() {
		return raw, e, nil
	}

	out, err := decompressLZMA(raw, -1)
	if err != nil {
		return nil, nil, fmt.Errorf("game lump %s: %w", id, err)
	}
	return out, e, nil
}

// StaticProp is a placed prop model.
type StaticProp struct {
	Origin            qmath.Vec3
	Angles            qmath.Vec3 // pitch, yaw, roll in degrees
	ModelIndex        uint16
	Model             string
	FirstLeaf         uint16
	LeafCount         uint16
	Leaves            []uint16
	Solid             uint8
	Flags             uint8
	Skin              int32
	FadeMinDist       float32
	FadeMaxDist       float32
	LightingOrigin    qmath.Vec3
	ForcedFadeScale   float32
	MinDXLevel        uint16
	MaxDXLevel        uint16
	DiffuseModulation [4]uint8
	FlagsEx           uint32
	UniformScale      float32
}

// ModelMatrix places the prop model in world space.
func (p *StaticProp) ModelMatrix() qmath.Mat4 {
	return qmath.Translate(p.Origin).
		Mul(qmath.FromAngles(p.Angles)).
		Mul(qmath.Scale(p.UniformScale))
}

// StaticProps is the decoded "sprp" game lump.
type StaticProps struct {
	Version uint16
	Models  []string
	Props   []StaticProp
}

var staticPropSizes = map[uint16]int{
	4: 56, 5: 60, 6: 64, 7: 68, 8: 68, 9: 72, 10: 76, 11: 80,
}

func parseStaticProps(data []byte, version uint16) (*StaticProps, error) {
	stride, ok := staticPropSizes[version]
	if !ok {
		return nil, fmt.Errorf("%w: static props version %d", ErrLumpVersion, version)
	}

	r := newReader(data, GameLumpStaticProps)
	sp := &StaticProps{Version: version}
	sp.Models = make([]string, readCount(r))
	for i := range sp.Models {
		sp.Models[i] = r.cString(modelNameSize)
	}
	leaves := make([]uint16, readCount(r))
	for i := range leaves {
		leaves[i] = r.u16()
	}
	n := readCount(r)
	if r.err != nil {
		return nil, r.err
	}
	if n*stride > r.remaining() {
		return nil, fmt.Errorf("%w: %d static props of %d bytes in %d bytes",
			ErrTruncated, n, stride, r.remaining())
	}

	sp.Props = make([]StaticProp, n)
	base := r.pos
	for i := range sp.Props {
		r.seek(base + i*stride)
		p := &sp.Props[i]
		p.Origin = r.vec3()
		p.Angles = r.vec3()
		p.ModelIndex = r.u16()
		p.FirstLeaf = r.u16()
		p.LeafCount = r.u16()
		p.Solid = r.u8()
		p.Flags = r.u8()
		p.Skin = r.i32()
		p.FadeMinDist = r.f32()
		p.FadeMaxDist = r.f32()
		p.LightingOrigin = r.vec3()
		p.ForcedFadeScale = 1
		p.DiffuseModulation = [4]uint8{255, 255, 255, 255}
		p.UniformScale = 1
		if version >= 5 {
			p.ForcedFadeScale = r.f32()
		}
		switch {
		case version == 6 || version == 7:
			p.MinDXLevel = r.u16()
			p.MaxDXLevel = r.u16()
		case version >= 8:
			r.skip(4) // CPU and GPU levels
		}
		if version >= 7 {
			for c := range p.DiffuseModulation {
				p.DiffuseModulation[c] = r.u8()
			}
		}
		if version >= 9 {
			r.skip(4) // X360 disable flag
		}
		if version >= 10 {
			p.FlagsEx = r.u32()
		}
		if version >= 11 {
			p.UniformScale = r.f32()
		}

		if int(p.ModelIndex) >= len(sp.Models) {
			return nil, fmt.Errorf("%w: static prop %d model %d of %d", ErrBadIndex, i, p.ModelIndex, len(sp.Models))
		}
		p.Model = sp.Models[p.ModelIndex]
		first, count := int(p.FirstLeaf), int(p.LeafCount)
		if first+count > len(leaves) {
			return nil, fmt.Errorf("%w: static prop %d leaves %d+%d of %d", ErrBadIndex, i, first, count, len(leaves))
		}
		p.Leaves = leaves[first : first+count]
	}
	return sp, r.err
}

// DetailSprite is a sprite dictionary entry of the detail props lump.
type DetailSprite struct {
	UL    qmath.Vec2
	LR    qmath.Vec2
	TexUL qmath.Vec2
	TexLR qmath.Vec2
}

// Detail object kinds.
const (
	DetailTypeModel uint8 = iota
	DetailTypeSprite
	DetailTypeShapeCross
	DetailTypeShapeTri
)

// DetailObject is one placed detail model or sprite.
type DetailObject struct {
	Origin      qmath.Vec3
	Angles      qmath.Vec3
	Model       uint16 // index into the model or sprite dictionary
	Leaf        uint16
	Lighting    [4]uint8
	Orientation uint8
	Type        uint8
	Scale       float32
}

// DetailObjects is the decoded "dprp" game lump.
type DetailObjects struct {
	Models  []string
	Sprites []DetailSprite
	Objects []DetailObject
}

func parseDetailObjects(data []byte, version uint16) (*DetailObjects, error) {
	if version != detailPropsVersion {
		return nil, fmt.Errorf("%w: detail props version %d", ErrLumpVersion, version)
	}

	r := newReader(data, GameLumpDetailProps)
	d := &DetailObjects{}
	d.Models = make([]string, readCount(r))
	for i := range d.Models {
		d.Models[i] = r.cString(modelNameSize)
	}

	ns := readCount(r)
	if ns*detailSpriteSize > r.remaining() {
		return nil, fmt.Errorf("%w: %d detail sprites in %d bytes", ErrTruncated, ns, r.remaining())
	}
	d.Sprites = make([]DetailSprite, ns)
	for i := range d.Sprites {
		s := &d.Sprites[i]
		s.UL = qmath.Vec2{X: r.f32(), Y: r.f32()}
		s.LR = qmath.Vec2{X: r.f32(), Y: r.f32()}
		s.TexUL = qmath.Vec2{X: r.f32(), Y: r.f32()}
		s.TexLR = qmath.Vec2{X: r.f32(), Y: r.f32()}
	}

	n := readCount(r)
	if r.err != nil {
		return nil, r.err
	}
	if n*detailObjectSize > r.remaining() {
		return nil, fmt.Errorf("%w: %d detail objects in %d bytes", ErrTruncated, n, r.remaining())
	}
	d.Objects = make([]DetailObject, n)
	for i := range d.Objects {
		o := &d.Objects[i]
		o.Origin = r.vec3()
		o.Angles = r.vec3()
		o.Model = r.u16()
		o.Leaf = r.u16()
		for c := range o.Lighting {
			o.Lighting[c] = r.u8()
		}
		r.skip(4 + 1 + 3) // light styles, style count, sway, shape angle, shape size
		o.Orientation = r.u8()
		r.skip(3)
		o.Type = r.u8()
		r.skip(3)
		o.Scale = r.f32()
	}
	return d, r.err
}

// readCount reads an i32 element count. A count that is negative or larger
// than the remaining bytes records ErrTruncated and yields 0.
func readCount(r *reader) int {
	n := int(r.i32())
	if n < 0 || n > r.remaining() {
		if r.err == nil {
			r.err = fmt.Errorf("%w: %s: count %d at offset %d", ErrTruncated, r.name, n, r.pos-4)
		}
		return 0
	}
	return n
}

// loadGameLumps decodes the static and detail prop game lumps. Unsupported
// versions are logged and skipped.
func loadGameLumps(g *gameLumps, log *zap.Logger) (*StaticProps, *DetailObjects, error) {
	var (
		props  *StaticProps
		detail *DetailObjects
	)

	data, e, err := g.data(GameLumpStaticProps)
	if err != nil {
		return nil, nil, err
	}
	if e != nil {
		if e.Version < minStaticPropVersion || e.Version > maxStaticPropVersion {
			log.Warn("unsupported static prop version", zap.Uint16("version", e.Version))
		} else if props, err = parseStaticProps(data, e.Version); err != nil {
			return nil, nil, err
		}
	}

	data, e, err = g.data(GameLumpDetailProps)
	if err != nil {
		return nil, nil, err
	}
	if e != nil {
		if e.Version != detailPropsVersion {
			log.Warn("unsupported detail prop version", zap.Uint16("version", e.Version))
		} else if detail, err = parseDetailObjects(data, e.Version); err != nil {
			return nil, nil, err
		}
	}
	return props, detail, nil
}
