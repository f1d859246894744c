// Package vbsp loads compiled Source engine maps: lumps, visibility,
// surfaces with packed lightmaps, and the BSP tree used for spatial
// queries.
package vbsp

import (
	"go.uber.org/zap"

	"github.com/Faultbox/vbsp/pkg/lightmap"
	qmath "github.com/Faultbox/vbsp/pkg/math"
)

const (
	// DefaultLightmapPageSize is the default page width and height.
	DefaultLightmapPageSize = 2048

	facesVersion = 1
)

// Options controls a parse.
type Options struct {
	// UseHDR prefers the HDR lighting, faces and world light lumps.
	UseHDR             bool
	LightmapPageWidth  int
	LightmapPageHeight int
	LoadGameLumps      bool
	LoadPakfile        bool
	Logger             *zap.Logger
}

// DefaultOptions returns options that load everything into 2048x2048 pages.
func DefaultOptions() Options {
	return Options{
		LightmapPageWidth:  DefaultLightmapPageSize,
		LightmapPageHeight: DefaultLightmapPageSize,
		LoadGameLumps:      true,
		LoadPakfile:        true,
	}
}

// File is a fully loaded map. It is read-only once Parse returns.
type File struct {
	Header   Header
	Entities []*Entity

	Planes   []qmath.Plane
	Vertexes []qmath.Vec3
	TexData  []TexData
	TexInfo  []TexInfo
	Faces    []Face
	DispInfo []DispInfo
	Overlays []Overlay
	Models   []Model

	Tree       Tree
	Visibility *Visibility

	Cubemaps      []Cubemap
	WorldLights   []WorldLight
	GameLumps     []GameLump
	StaticProps   *StaticProps
	DetailObjects *DetailObjects
	Pakfile       *Pakfile

	// Packed geometry, VertexStride floats per vertex.
	Surfaces   []Surface
	VertexData []float32
	IndexData  []uint32
	Lightmaps  *lightmap.Manager
}

// Parse decodes a map from data. Any format or capacity error aborts the
// whole parse.
func Parse(data []byte, opts Options) (*File, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.LightmapPageWidth <= 0 {
		opts.LightmapPageWidth = DefaultLightmapPageSize
	}
	if opts.LightmapPageHeight <= 0 {
		opts.LightmapPageHeight = DefaultLightmapPageSize
	}

	l, err := newLumpReader(data, log)
	if err != nil {
		return nil, err
	}
	f := &File{Header: l.header}
	in := &geometryInput{}

	if err := f.parseWorld(l, opts, in); err != nil {
		return nil, err
	}
	if err := f.parseExtras(l, opts, log); err != nil {
		return nil, err
	}

	f.Lightmaps = lightmap.NewManager(opts.LightmapPageWidth, opts.LightmapPageHeight)
	in.models = f.Models
	in.leaves = f.Tree.Leaves
	b := newSurfaceBuilder(in, f.Lightmaps, log)
	if err := b.build(); err != nil {
		return nil, err
	}
	f.Surfaces = b.surfaces
	f.VertexData = b.vertexData
	f.IndexData = b.indexData

	log.Info("map loaded",
		zap.Int32("version", f.Header.Version),
		zap.Int32("revision", f.Header.Revision),
		zap.Int("surfaces", len(f.Surfaces)),
		zap.Int("leaves", len(f.Tree.Leaves)),
		zap.Int("clusters", f.Visibility.NumClusters),
		zap.Int("lightmap_pages", len(f.Lightmaps.Pages)))
	return f, nil
}

// parseWorld decodes the geometry, tree and visibility lumps and collects
// the builder input.
func (f *File) parseWorld(l *lumpReader, opts Options, in *geometryInput) error {
	// Every fixed-layout lump below has a single known layout, version 0.
	raw := make(map[LumpType][]byte)
	for _, id := range []LumpType{
		LumpPlanes, LumpTexData, LumpTexDataStringTable, LumpTexDataStringData,
		LumpTexInfo, LumpVertexes, LumpEdges, LumpSurfEdges, LumpLeafWaterData,
		LumpNodes, LumpModels, LumpVisibility, LumpDispInfo, LumpDispVerts,
		LumpVertNormals, LumpVertNormalIndices, LumpPrimitives, LumpPrimIndices,
		LumpLeafFaces, LumpOverlays,
	} {
		data, err := l.lumpVersion(id, 0)
		if err != nil {
			return err
		}
		raw[id] = data
	}

	var err error
	if f.Planes, err = parsePlanes(raw[LumpPlanes]); err != nil {
		return err
	}
	if f.TexData, err = parseTexData(raw[LumpTexData], raw[LumpTexDataStringTable], raw[LumpTexDataStringData]); err != nil {
		return err
	}
	if f.TexInfo, err = parseTexInfo(raw[LumpTexInfo], f.TexData); err != nil {
		return err
	}
	if f.Vertexes, err = parseVertexes(raw[LumpVertexes], LumpVertexes); err != nil {
		return err
	}
	if in.edges, err = parseEdges(raw[LumpEdges]); err != nil {
		return err
	}
	if in.surfEdges, err = parseInt32s(raw[LumpSurfEdges], LumpSurfEdges); err != nil {
		return err
	}

	faces, err := l.lumpHDRVersion(LumpFaces, LumpFacesHDR, opts.UseHDR, facesVersion)
	if err != nil {
		return err
	}
	if f.Faces, err = parseFaces(faces); err != nil {
		return err
	}
	if in.lighting, _, err = l.lumpHDR(LumpLighting, LumpLightingHDR, opts.UseHDR); err != nil {
		return err
	}

	leafs, leafVersion, err := l.lump(LumpLeafs)
	if err != nil {
		return err
	}
	if f.Tree.Leaves, err = parseLeafs(leafs, leafVersion); err != nil {
		return err
	}
	if f.Tree.WaterData, err = parseLeafWaterData(raw[LumpLeafWaterData]); err != nil {
		return err
	}
	if leafVersion == 1 {
		index, _, err := l.lumpHDR(LumpLeafAmbientIndex, LumpLeafAmbientIndexHDR, opts.UseHDR)
		if err != nil {
			return err
		}
		lighting, _, err := l.lumpHDR(LumpLeafAmbientLighting, LumpLeafAmbientLightingHDR, opts.UseHDR)
		if err != nil {
			return err
		}
		if err := attachAmbientSamples(f.Tree.Leaves, index, lighting); err != nil {
			return err
		}
	}

	if f.Tree.Nodes, err = parseNodes(raw[LumpNodes], f.Planes, len(f.Tree.Leaves)); err != nil {
		return err
	}
	f.Tree.Root = NodeRef{Leaf: len(f.Tree.Nodes) == 0}
	if f.Models, err = parseModels(raw[LumpModels]); err != nil {
		return err
	}
	if f.Visibility, err = decodeVisibility(raw[LumpVisibility]); err != nil {
		return err
	}

	if f.DispInfo, err = parseDispInfo(raw[LumpDispInfo]); err != nil {
		return err
	}
	if in.dispVerts, err = parseDispVerts(raw[LumpDispVerts]); err != nil {
		return err
	}
	if in.vertNormals, err = parseVertexes(raw[LumpVertNormals], LumpVertNormals); err != nil {
		return err
	}
	if in.vertNormalIndices, err = parseUint16s(raw[LumpVertNormalIndices], LumpVertNormalIndices); err != nil {
		return err
	}
	if in.primitives, err = parsePrimitives(raw[LumpPrimitives]); err != nil {
		return err
	}
	if in.primIndices, err = parseUint16s(raw[LumpPrimIndices], LumpPrimIndices); err != nil {
		return err
	}
	if in.leafFaces, err = parseUint16s(raw[LumpLeafFaces], LumpLeafFaces); err != nil {
		return err
	}
	if f.Overlays, err = parseOverlays(raw[LumpOverlays]); err != nil {
		return err
	}

	in.planes = f.Planes
	in.vertexes = f.Vertexes
	in.faces = f.Faces
	in.texInfo = f.TexInfo
	in.dispInfo = f.DispInfo
	in.overlays = f.Overlays
	return nil
}

// parseExtras decodes entities, cubemaps, lights, game lumps and the
// pakfile.
func (f *File) parseExtras(l *lumpReader, opts Options, log *zap.Logger) error {
	data, _, err := l.lump(LumpEntities)
	if err != nil {
		return err
	}
	if f.Entities, err = parseEntities(data); err != nil {
		return err
	}

	if data, err = l.lumpVersion(LumpCubemaps, 0); err != nil {
		return err
	}
	if f.Cubemaps, err = parseCubemaps(data); err != nil {
		return err
	}

	data, version, err := l.lumpHDR(LumpWorldLights, LumpWorldLightsHDR, opts.UseHDR)
	if err != nil {
		return err
	}
	if f.WorldLights, err = parseWorldLights(data, version); err != nil {
		return err
	}

	if opts.LoadGameLumps {
		if data, _, err = l.lump(LumpGameLump); err != nil {
			return err
		}
		g, err := parseGameLumpDir(l.data, data)
		if err != nil {
			return err
		}
		f.GameLumps = g.entries
		if f.StaticProps, f.DetailObjects, err = loadGameLumps(g, log); err != nil {
			return err
		}
	}

	if opts.LoadPakfile {
		if data, _, err = l.lump(LumpPakfile); err != nil {
			return err
		}
		if len(data) > 0 {
			if f.Pakfile, err = openPakfile(data); err != nil {
				return err
			}
		}
	}
	return nil
}

// WorldModel returns model 0, or nil for a map without models.
func (f *File) WorldModel() *Model {
	if len(f.Models) == 0 {
		return nil
	}
	return &f.Models[0]
}

// VertexCount is the number of packed vertices.
func (f *File) VertexCount() int {
	return len(f.VertexData) / VertexStride
}

// FindLeafForPoint returns the index of the leaf containing p.
func (f *File) FindLeafForPoint(p qmath.Vec3) int {
	return f.Tree.FindLeafForPoint(p)
}

// FindLeafWaterForPoint returns the water record nearest p in tree order.
func (f *File) FindLeafWaterForPoint(p qmath.Vec3) *LeafWaterData {
	return f.Tree.FindLeafWaterForPoint(p)
}

// MarkClusterSet appends the clusters box may touch to dst.
func (f *File) MarkClusterSet(dst []int, box qmath.AABB) []int {
	return f.Tree.MarkClusterSet(dst, box)
}

// LightmapSources lists every lit face lightmap with its allocation, for
// composing pages with lightmap.BuildAtlas.
func (f *File) LightmapSources() []lightmap.Source {
	var out []lightmap.Source
	for i := range f.Surfaces {
		for _, lm := range f.Surfaces[i].Lightmaps {
			if lm.Samples == nil {
				continue
			}
			out = append(out, lightmap.Source{
				Alloc:   lightmap.Allocation{PageIndex: lm.PageIndex, X: lm.PagePosX, Y: lm.PagePosY},
				Width:   lm.Width,
				Height:  lm.Height,
				Samples: lm.Samples,
			})
		}
	}
	return out
}
