package vbsp

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/vbsp/pkg/lightmap"
	qmath "github.com/Faultbox/vbsp/pkg/math"
)

// VertexStride is the number of float32 values per packed vertex:
// position (3), normal and alpha (4), tangent S and sign (4), texture UV
// (2), lightmap UV (2).
const VertexStride = 15

// bumpSamples is the number of lightmap samples of a bump-lit face.
const bumpSamples = 4

// Surface is a contiguous index range drawn with one material and one
// lightmap page. Ordinary faces sharing both within a model are merged.
type Surface struct {
	TexName        string
	OnNode         bool
	StartIndex     int
	IndexCount     int
	LightmapPage   int // -1 when the surface has no lightmap
	Lightmaps      []*SurfaceLightmap
	IsDisplacement bool
	IsTranslucent  bool
	IsOverlay      bool

	// Center is set for translucent and overlay surfaces.
	Center *qmath.Vec3
	// Bounds is set for displacements.
	Bounds *qmath.AABB
}

// SurfaceLightmap is the lightmap rectangle of one face.
type SurfaceLightmap struct {
	FaceIndex int
	MapWidth  int
	MapHeight int
	Width     int
	Height    int // MapHeight times the bump sample count
	Styles    []uint8
	// Samples holds ColorRGBExp32 luxels for every style, or nil when
	// the face is unlit.
	Samples   []byte
	PageIndex int
	PagePosX  int
	PagePosY  int
}

// geometryInput is the decoded lump data the builder reads.
type geometryInput struct {
	planes            []qmath.Plane
	vertexes          []qmath.Vec3
	edges             [][2]uint16
	surfEdges         []int32
	faces             []Face
	texInfo           []TexInfo
	dispInfo          []DispInfo
	dispVerts         []DispVert
	vertNormals       []qmath.Vec3
	vertNormalIndices []uint16
	primitives        []Primitive
	primIndices       []uint16
	lighting          []byte
	leafFaces         []uint16
	overlays          []Overlay

	// Surface lists are filled in place.
	models []Model
	leaves []Leaf
}

type surfaceBuilder struct {
	in        *geometryInput
	log       *zap.Logger
	lightmaps *lightmap.Manager

	faceLightmaps []*SurfaceLightmap
	faceModel     []int
	faceSurface   []int
	faceOverlays  map[int][]int

	surfaces   []Surface
	vertexData []float32
	indexData  []uint32
}

func newSurfaceBuilder(in *geometryInput, lightmaps *lightmap.Manager, log *zap.Logger) *surfaceBuilder {
	b := &surfaceBuilder{
		in:            in,
		log:           log,
		lightmaps:     lightmaps,
		faceLightmaps: make([]*SurfaceLightmap, len(in.faces)),
		faceModel:     make([]int, len(in.faces)),
		faceSurface:   make([]int, len(in.faces)),
		faceOverlays:  make(map[int][]int),
	}
	for i := range b.faceModel {
		b.faceModel[i] = -1
		b.faceSurface[i] = -1
	}
	for m, model := range in.models {
		first := max(int(model.FirstFace), 0)
		last := min(int(model.FirstFace+model.NumFaces), len(in.faces))
		for f := first; f < last; f++ {
			b.faceModel[f] = m
		}
	}
	return b
}

// build runs every stage and leaves the results on the builder.
func (b *surfaceBuilder) build() error {
	if err := b.allocateLightmaps(); err != nil {
		return err
	}
	if err := b.buildFaces(); err != nil {
		return err
	}
	b.buildOverlays()
	if err := b.assignLeaves(); err != nil {
		return err
	}

	b.vertexData = slices.Clip(b.vertexData)
	b.indexData = slices.Clip(b.indexData)
	b.log.Debug("built surfaces",
		zap.Int("faces", len(b.in.faces)),
		zap.Int("surfaces", len(b.surfaces)),
		zap.Int("vertices", len(b.vertexData)/VertexStride),
		zap.Int("indices", len(b.indexData)),
		zap.Int("lightmap_pages", len(b.lightmaps.Pages)))
	return nil
}

func (b *surfaceBuilder) texInfoFor(faceIndex int) (*TexInfo, error) {
	id := int(b.in.faces[faceIndex].TexInfo)
	if id < 0 {
		return nil, nil
	}
	if id >= len(b.in.texInfo) {
		return nil, fmt.Errorf("%w: face %d texinfo %d of %d", ErrBadIndex, faceIndex, id, len(b.in.texInfo))
	}
	return &b.in.texInfo[id], nil
}

// allocateLightmaps packs every drawn face's rectangle in face order.
func (b *surfaceBuilder) allocateLightmaps() error {
	for i := range b.in.faces {
		f := &b.in.faces[i]
		tex, err := b.texInfoFor(i)
		if err != nil {
			return err
		}
		if tex == nil || tex.Hidden() {
			continue
		}

		lm := &SurfaceLightmap{
			FaceIndex: i,
			MapWidth:  int(f.LightmapSize[0]) + 1,
			MapHeight: int(f.LightmapSize[1]) + 1,
		}
		lm.Width = lm.MapWidth
		lm.Height = lm.MapHeight
		if tex.IsBumpLit() {
			lm.Height *= bumpSamples
		}
		for _, s := range f.Styles {
			if s != 255 {
				lm.Styles = append(lm.Styles, s)
			}
		}

		if f.LightOffset >= 0 && len(b.in.lighting) > 0 && len(lm.Styles) > 0 {
			start := int(f.LightOffset)
			end := start + lm.Width*lm.Height*len(lm.Styles)*4
			if end > len(b.in.lighting) {
				return fmt.Errorf("%w: face %d lighting %d..%d of %d",
					ErrTruncated, i, start, end, len(b.in.lighting))
			}
			lm.Samples = b.in.lighting[start:end]
		}

		alloc, err := b.lightmaps.Allocate(lm.Width, lm.Height)
		if err != nil {
			return fmt.Errorf("face %d: %w", i, err)
		}
		lm.PageIndex = alloc.PageIndex
		lm.PagePosX = alloc.X
		lm.PagePosY = alloc.Y
		b.faceLightmaps[i] = lm
	}
	return nil
}

// buildFaces emits faces sorted by material and merges runs that can be
// drawn together.
func (b *surfaceBuilder) buildFaces() error {
	faces := b.in.faces

	// Vertex normal indices are laid out per face edge in face order,
	// including faces that are never drawn.
	normalBase := make([]int, len(faces))
	cursor := 0
	for i := range faces {
		normalBase[i] = cursor
		cursor += int(faces[i].NumEdges)
	}

	order := make([]int, 0, len(faces))
	for i, lm := range b.faceLightmaps {
		if lm != nil {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return strings.Compare(b.in.texInfo[faces[x].TexInfo].TexName, b.in.texInfo[faces[y].TexInfo].TexName)
	})

	lastModel := -1
	for _, fi := range order {
		f := &faces[fi]
		tex := &b.in.texInfo[f.TexInfo]
		lm := b.faceLightmaps[fi]
		model := b.faceModel[fi]
		isDisp := f.DispInfo >= 0

		var prims []Primitive
		if !isDisp && f.NumPrims > 0 {
			first, count := int(f.FirstPrimID), int(f.NumPrims)
			if first+count > len(b.in.primitives) {
				return fmt.Errorf("%w: face %d primitives %d+%d of %d",
					ErrBadIndex, fi, first, count, len(b.in.primitives))
			}
			prims = b.in.primitives[first : first+count]
			if i := slices.IndexFunc(prims, func(p Primitive) bool { return p.VertCount != 0 }); i >= 0 {
				b.log.Debug("skipping face with dynamic primitive",
					zap.Int("face", fi), zap.Int("primitive", first+i), zap.Uint16("verts", prims[i].VertCount))
				continue
			}
		}

		start := len(b.indexData)
		var (
			bounds qmath.AABB
			err    error
		)
		if isDisp {
			bounds, err = b.emitDisplacement(fi, tex, lm)
		} else {
			bounds, err = b.emitFace(fi, tex, lm, normalBase[fi], prims)
		}
		if err != nil {
			return err
		}
		count := len(b.indexData) - start

		if !b.canMerge(tex, lm, model, lastModel, isDisp) {
			b.surfaces = append(b.surfaces, Surface{
				TexName:        tex.TexName,
				OnNode:         f.OnNode != 0,
				StartIndex:     start,
				LightmapPage:   lm.PageIndex,
				IsDisplacement: isDisp,
				IsTranslucent:  tex.IsTranslucent(),
			})
			lastModel = model
		}
		idx := len(b.surfaces) - 1
		s := &b.surfaces[idx]
		s.IndexCount += count
		s.Lightmaps = append(s.Lightmaps, lm)
		if isDisp {
			s.Bounds = &bounds
		}
		if s.IsTranslucent {
			c := bounds.Center()
			s.Center = &c
		}

		b.faceSurface[fi] = idx
		if model >= 0 {
			b.addModelSurface(model, idx)
		}
	}
	return nil
}

func (b *surfaceBuilder) canMerge(tex *TexInfo, lm *SurfaceLightmap, model, lastModel int, isDisp bool) bool {
	if len(b.surfaces) == 0 || isDisp || tex.IsTranslucent() {
		return false
	}
	prev := &b.surfaces[len(b.surfaces)-1]
	return !prev.IsDisplacement && !prev.IsTranslucent && !prev.IsOverlay &&
		prev.TexName == tex.TexName &&
		prev.LightmapPage == lm.PageIndex &&
		lastModel == model
}

func (b *surfaceBuilder) addModelSurface(model, surface int) {
	m := &b.in.models[model]
	if !slices.Contains(m.Surfaces, surface) {
		m.Surfaces = append(m.Surfaces, surface)
	}
}

// surfEdgeVertex resolves a surfedge to its first vertex in winding order.
func (b *surfaceBuilder) surfEdgeVertex(i int) (qmath.Vec3, error) {
	if i < 0 || i >= len(b.in.surfEdges) {
		return qmath.Vec3{}, fmt.Errorf("%w: surfedge %d of %d", ErrBadIndex, i, len(b.in.surfEdges))
	}
	se := int(b.in.surfEdges[i])
	side := 0
	if se < 0 {
		se, side = -se, 1
	}
	if se >= len(b.in.edges) {
		return qmath.Vec3{}, fmt.Errorf("%w: edge %d of %d", ErrBadIndex, se, len(b.in.edges))
	}
	v := int(b.in.edges[se][side])
	if v >= len(b.in.vertexes) {
		return qmath.Vec3{}, fmt.Errorf("%w: vertex %d of %d", ErrBadIndex, v, len(b.in.vertexes))
	}
	return b.in.vertexes[v], nil
}

func (b *surfaceBuilder) facePlaneNormal(f *Face) (qmath.Vec3, error) {
	if int(f.PlaneNum) >= len(b.in.planes) {
		return qmath.Vec3{}, fmt.Errorf("%w: plane %d of %d", ErrBadIndex, f.PlaneNum, len(b.in.planes))
	}
	n := b.in.planes[f.PlaneNum].Normal
	if f.Side != 0 {
		n = n.Scale(-1)
	}
	return n, nil
}

func (b *surfaceBuilder) vertexCount() uint32 {
	return uint32(len(b.vertexData) / VertexStride)
}

func (b *surfaceBuilder) pushVertex(v *meshVertex, tangent qmath.Vec3, sign float32) {
	b.vertexData = append(b.vertexData,
		v.pos.X, v.pos.Y, v.pos.Z,
		v.normal.X, v.normal.Y, v.normal.Z, v.alpha,
		tangent.X, tangent.Y, tangent.Z, sign,
		v.uv.X, v.uv.Y,
		v.lightmapUV.X, v.lightmapUV.Y,
	)
}

// emitFace writes an ordinary polygon. Lightmap UVs are in page pixels.
func (b *surfaceBuilder) emitFace(fi int, tex *TexInfo, lm *SurfaceLightmap, normalBase int, prims []Primitive) (qmath.AABB, error) {
	f := &b.in.faces[fi]
	bounds := qmath.EmptyAABB()
	planeNormal, err := b.facePlaneNormal(f)
	if err != nil {
		return bounds, fmt.Errorf("face %d: %w", fi, err)
	}
	tangent := tex.TangentS()
	sign := tex.TangentSign(planeNormal)

	n := int(f.NumEdges)
	base := b.vertexCount()
	for i := range n {
		pos, err := b.surfEdgeVertex(int(f.FirstEdge) + i)
		if err != nil {
			return bounds, fmt.Errorf("face %d: %w", fi, err)
		}

		normal := planeNormal
		if ni := normalBase + i; ni < len(b.in.vertNormalIndices) {
			if k := int(b.in.vertNormalIndices[ni]); k < len(b.in.vertNormals) {
				normal = b.in.vertNormals[k]
			}
		}

		st := tex.LightmapST(pos)
		b.pushVertex(&meshVertex{
			pos:    pos,
			normal: normal,
			alpha:  1,
			uv:     tex.TextureUV(pos),
			lightmapUV: qmath.Vec2{
				X: st.X - float32(f.LightmapMins[0]) + 0.5 + float32(lm.PagePosX),
				Y: st.Y - float32(f.LightmapMins[1]) + 0.5 + float32(lm.PagePosY),
			},
		}, tangent, sign)
		bounds.Extend(pos)
	}

	if len(prims) > 0 {
		for i := range prims {
			if err := b.emitPrimitive(fi, &prims[i], base, n); err != nil {
				return bounds, err
			}
		}
		return bounds, nil
	}
	for i := 1; i+1 < n; i++ {
		b.indexData = append(b.indexData, base, base+uint32(i), base+uint32(i+1))
	}
	return bounds, nil
}

// emitPrimitive copies a static primitive's indices, unrolling strips into
// a triangle list. Indices address the face's n polygon vertices.
func (b *surfaceBuilder) emitPrimitive(fi int, prim *Primitive, base uint32, n int) error {
	first, count := int(prim.FirstIndex), int(prim.IndexCount)
	if first+count > len(b.in.primIndices) {
		return fmt.Errorf("%w: face %d primitive indices %d+%d of %d",
			ErrBadIndex, fi, first, count, len(b.in.primIndices))
	}
	idx := b.in.primIndices[first : first+count]
	for _, i := range idx {
		if int(i) >= n {
			return fmt.Errorf("%w: face %d primitive index %d of %d vertices", ErrBadIndex, fi, i, n)
		}
	}

	switch prim.Type {
	case PrimTriStrip:
		for i := 0; i+2 < len(idx); i++ {
			i0, i1, i2 := uint32(idx[i]), uint32(idx[i+1]), uint32(idx[i+2])
			if i%2 == 1 {
				i0, i1 = i1, i0
			}
			b.indexData = append(b.indexData, base+i0, base+i1, base+i2)
		}
	default:
		for _, i := range idx {
			b.indexData = append(b.indexData, base+uint32(i))
		}
	}
	return nil
}

// emitDisplacement tessellates a displacement face. Grid lightmap UVs are
// scaled to luxels and offset into the page.
func (b *surfaceBuilder) emitDisplacement(fi int, tex *TexInfo, lm *SurfaceLightmap) (qmath.AABB, error) {
	f := &b.in.faces[fi]
	if f.NumEdges != 4 {
		return qmath.AABB{}, fmt.Errorf("%w: displacement face %d has %d edges", ErrBadIndex, fi, f.NumEdges)
	}
	if int(f.DispInfo) >= len(b.in.dispInfo) {
		return qmath.AABB{}, fmt.Errorf("%w: face %d dispinfo %d of %d", ErrBadIndex, fi, f.DispInfo, len(b.in.dispInfo))
	}

	var corners [4]qmath.Vec3
	for i := range corners {
		p, err := b.surfEdgeVertex(int(f.FirstEdge) + i)
		if err != nil {
			return qmath.AABB{}, fmt.Errorf("face %d: %w", fi, err)
		}
		corners[i] = p
	}
	planeNormal, err := b.facePlaneNormal(f)
	if err != nil {
		return qmath.AABB{}, fmt.Errorf("face %d: %w", fi, err)
	}

	disp, err := buildDisplacement(&b.in.dispInfo[f.DispInfo], corners, b.in.dispVerts, tex)
	if err != nil {
		return qmath.AABB{}, fmt.Errorf("face %d: %w", fi, err)
	}

	tangent := tex.TangentS()
	sign := tex.TangentSign(planeNormal)
	luxW, luxH := float32(f.LightmapSize[0]), float32(f.LightmapSize[1])
	base := b.vertexCount()
	for i := range disp.verts {
		v := &disp.verts[i]
		v.lightmapUV = qmath.Vec2{
			X: v.lightmapUV.X*luxW + 0.5 + float32(lm.PagePosX),
			Y: v.lightmapUV.Y*luxH + 0.5 + float32(lm.PagePosY),
		}
		b.pushVertex(v, tangent, sign)
	}
	for _, i := range disp.indices() {
		b.indexData = append(b.indexData, base+i)
	}
	return disp.bounds, nil
}

// buildOverlays appends one unmerged surface per overlay. Overlays reuse
// the lightmap page and mapping of the first face they cover.
func (b *surfaceBuilder) buildOverlays() {
	for oi := range b.in.overlays {
		o := &b.in.overlays[oi]
		if o.TexInfo < 0 || int(o.TexInfo) >= len(b.in.texInfo) {
			b.log.Debug("skipping overlay with bad texinfo", zap.Int("overlay", oi), zap.Int16("texinfo", o.TexInfo))
			continue
		}
		tex := &b.in.texInfo[o.TexInfo]

		var (
			host    *Face
			hostTex *TexInfo
			hostLM  *SurfaceLightmap
		)
		if len(o.Faces) > 0 && o.Faces[0] >= 0 && int(o.Faces[0]) < len(b.in.faces) {
			host = &b.in.faces[o.Faces[0]]
			hostLM = b.faceLightmaps[o.Faces[0]]
			if ht, err := b.texInfoFor(int(o.Faces[0])); err == nil {
				hostTex = ht
			}
		}

		normal := o.BasisNormal
		tangent := o.BasisU().Normalize()
		sign := tex.TangentSign(normal)
		corners := o.Corners()
		uvs := o.TexCoords()
		bounds := qmath.EmptyAABB()
		base := b.vertexCount()
		start := len(b.indexData)
		for i, pos := range corners {
			v := meshVertex{pos: pos, normal: normal, alpha: 1, uv: uvs[i]}
			if hostLM != nil && hostTex != nil {
				st := hostTex.LightmapST(pos)
				v.lightmapUV = qmath.Vec2{
					X: st.X - float32(host.LightmapMins[0]) + 0.5 + float32(hostLM.PagePosX),
					Y: st.Y - float32(host.LightmapMins[1]) + 0.5 + float32(hostLM.PagePosY),
				}
			}
			b.pushVertex(&v, tangent, sign)
			bounds.Extend(pos)
		}
		b.indexData = append(b.indexData, base, base+1, base+2, base, base+2, base+3)

		page := -1
		if hostLM != nil {
			page = hostLM.PageIndex
		}
		center := bounds.Center()
		b.surfaces = append(b.surfaces, Surface{
			TexName:       tex.TexName,
			StartIndex:    start,
			IndexCount:    6,
			LightmapPage:  page,
			IsTranslucent: tex.IsTranslucent(),
			IsOverlay:     true,
			Center:        &center,
		})
		idx := len(b.surfaces) - 1

		for _, fi := range o.Faces {
			if fi < 0 || int(fi) >= len(b.in.faces) {
				continue
			}
			b.faceOverlays[int(fi)] = append(b.faceOverlays[int(fi)], idx)
			if m := b.faceModel[fi]; m >= 0 {
				b.addModelSurface(m, idx)
			}
		}
	}
}

// assignLeaves records, per leaf, the surfaces built from its faces and
// any overlays on them.
func (b *surfaceBuilder) assignLeaves() error {
	for li := range b.in.leaves {
		leaf := &b.in.leaves[li]
		first, count := int(leaf.FirstLeafFace), int(leaf.NumLeafFaces)
		if first+count > len(b.in.leafFaces) {
			return fmt.Errorf("%w: leaf %d faces %d+%d of %d",
				ErrBadIndex, li, first, count, len(b.in.leafFaces))
		}
		for _, lf := range b.in.leafFaces[first : first+count] {
			fi := int(lf)
			if fi >= len(b.faceSurface) {
				return fmt.Errorf("%w: leaf %d face %d of %d", ErrBadIndex, li, fi, len(b.faceSurface))
			}
			if s := b.faceSurface[fi]; s >= 0 && !slices.Contains(leaf.Surfaces, s) {
				leaf.Surfaces = append(leaf.Surfaces, s)
			}
			for _, s := range b.faceOverlays[fi] {
				if !slices.Contains(leaf.Surfaces, s) {
					leaf.Surfaces = append(leaf.Surfaces, s)
				}
			}
		}
	}
	return nil
}
