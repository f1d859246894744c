package vbsp

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// LumpType indexes the lump directory.
type LumpType int

// Lump kinds, in directory order.
const (
	LumpEntities LumpType = iota
	LumpPlanes
	LumpTexData
	LumpVertexes
	LumpVisibility
	LumpNodes
	LumpTexInfo
	LumpFaces
	LumpLighting
	LumpOcclusion
	LumpLeafs
	LumpFaceIDs
	LumpEdges
	LumpSurfEdges
	LumpModels
	LumpWorldLights
	LumpLeafFaces
	LumpLeafBrushes
	LumpBrushes
	LumpBrushSides
	LumpAreas
	LumpAreaPortals
	LumpPropCollision
	LumpPropHulls
	LumpPropHullVerts
	LumpPropTris
	LumpDispInfo
	LumpOriginalFaces
	LumpPhysDisp
	LumpPhysCollide
	LumpVertNormals
	LumpVertNormalIndices
	LumpDispLightmapAlphas
	LumpDispVerts
	LumpDispLightmapSamplePositions
	LumpGameLump
	LumpLeafWaterData
	LumpPrimitives
	LumpPrimVerts
	LumpPrimIndices
	LumpPakfile
	LumpClipPortalVerts
	LumpCubemaps
	LumpTexDataStringData
	LumpTexDataStringTable
	LumpOverlays
	LumpLeafMinDistToWater
	LumpFaceMacroTextureInfo
	LumpDispTris
	LumpPropBlob
	LumpWaterOverlays
	LumpLeafAmbientIndexHDR
	LumpLeafAmbientIndex
	LumpLightingHDR
	LumpWorldLightsHDR
	LumpLeafAmbientLightingHDR
	LumpLeafAmbientLighting
	LumpXZipPakfile
	LumpFacesHDR
	LumpMapFlags
	LumpOverlayFades
	LumpOverlaySystemLevels
	LumpPhysLevel
	LumpDispMultiblend

	lumpCount
)

var lumpNames = map[LumpType]string{
	LumpEntities:               "entities",
	LumpPlanes:                 "planes",
	LumpTexData:                "texdata",
	LumpVertexes:               "vertexes",
	LumpVisibility:             "visibility",
	LumpNodes:                  "nodes",
	LumpTexInfo:                "texinfo",
	LumpFaces:                  "faces",
	LumpLighting:               "lighting",
	LumpLeafs:                  "leafs",
	LumpEdges:                  "edges",
	LumpSurfEdges:              "surfedges",
	LumpModels:                 "models",
	LumpWorldLights:            "worldlights",
	LumpLeafFaces:              "leaffaces",
	LumpDispInfo:               "dispinfo",
	LumpVertNormals:            "vertnormals",
	LumpVertNormalIndices:      "vertnormalindices",
	LumpDispVerts:              "dispverts",
	LumpGameLump:               "gamelump",
	LumpLeafWaterData:          "leafwaterdata",
	LumpPrimitives:             "primitives",
	LumpPrimIndices:            "primindices",
	LumpPakfile:                "pakfile",
	LumpCubemaps:               "cubemaps",
	LumpTexDataStringData:      "texdata_string_data",
	LumpTexDataStringTable:     "texdata_string_table",
	LumpOverlays:               "overlays",
	LumpLeafAmbientIndexHDR:    "leaf_ambient_index_hdr",
	LumpLeafAmbientIndex:       "leaf_ambient_index",
	LumpLightingHDR:            "lighting_hdr",
	LumpWorldLightsHDR:         "worldlights_hdr",
	LumpLeafAmbientLightingHDR: "leaf_ambient_lighting_hdr",
	LumpLeafAmbientLighting:    "leaf_ambient_lighting",
	LumpFacesHDR:               "faces_hdr",
}

// String returns the lump name.
func (t LumpType) String() string {
	if n, ok := lumpNames[t]; ok {
		return n
	}
	return fmt.Sprintf("lump%d", int(t))
}

const (
	headerMagic   = "VBSP"
	lumpDirOffset = 8
	lumpEntrySize = 16
	headerSize    = lumpDirOffset + int(lumpCount)*lumpEntrySize + 4
)

// SupportedVersions lists the container versions the loader accepts.
var SupportedVersions = []int32{19, 20, 21}

// LumpEntry is one directory record.
type LumpEntry struct {
	Offset           uint32
	Size             uint32
	Version          uint32
	UncompressedSize uint32
}

// Header is the decoded container header.
type Header struct {
	Version  int32
	Revision int32
	Lumps    [lumpCount]LumpEntry
}

// lumpReader resolves lump ids to byte ranges of one immutable buffer.
type lumpReader struct {
	data   []byte
	header Header
	log    *zap.Logger
}

func newLumpReader(data []byte, log *zap.Logger) (*lumpReader, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, headerSize, len(data))
	}
	if string(data[:4]) != headerMagic {
		return nil, ErrInvalidMagic
	}

	r := newReader(data, "header")
	r.seek(4)
	h := Header{Version: r.i32()}
	if !slices.Contains(SupportedVersions, h.Version) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	for i := range h.Lumps {
		h.Lumps[i] = LumpEntry{
			Offset:           r.u32(),
			Size:             r.u32(),
			Version:          r.u32(),
			UncompressedSize: r.u32(),
		}
	}
	h.Revision = r.i32()
	if r.err != nil {
		return nil, r.err
	}

	return &lumpReader{data: data, header: h, log: log}, nil
}

// lump returns the bytes and version of a lump, decompressing it when the
// directory records an uncompressed size.
func (l *lumpReader) lump(id LumpType) ([]byte, uint32, error) {
	if id < 0 || id >= lumpCount {
		return nil, 0, fmt.Errorf("%w: lump id %d", ErrBadIndex, id)
	}
	e := l.header.Lumps[id]
	end := uint64(e.Offset) + uint64(e.Size)
	if end > uint64(len(l.data)) {
		return nil, 0, fmt.Errorf("%w: lump %s spans %d..%d of %d",
			ErrTruncated, id, e.Offset, end, len(l.data))
	}
	raw := l.data[e.Offset:end]
	if e.UncompressedSize == 0 {
		return raw, e.Version, nil
	}

	out, err := decompressLZMA(raw, int(e.UncompressedSize))
	if err != nil {
		return nil, 0, fmt.Errorf("lump %s: %w", id, err)
	}
	return out, e.Version, nil
}

// lumpVersion returns a lump whose version must equal want when it is
// non-empty.
func (l *lumpReader) lumpVersion(id LumpType, want uint32) ([]byte, error) {
	data, version, err := l.lump(id)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && version != want {
		return nil, fmt.Errorf("%w: %s is version %d, want %d", ErrLumpVersion, id, version, want)
	}
	return data, nil
}

// lumpHDR picks between the LDR and HDR variant of a lump, preferring the
// requested one and falling back to the other when it is empty.
func (l *lumpReader) lumpHDR(ldr, hdr LumpType, useHDR bool) ([]byte, uint32, error) {
	first, second := ldr, hdr
	if useHDR {
		first, second = hdr, ldr
	}

	data, version, err := l.lump(first)
	if err != nil {
		return nil, 0, err
	}
	if len(data) > 0 {
		return data, version, nil
	}

	l.log.Info("lump variant empty, falling back",
		zap.Stringer("wanted", first), zap.Stringer("using", second))
	return l.lump(second)
}

// lumpHDRVersion is lumpHDR for lumps whose chosen variant must be at
// version want when non-empty.
func (l *lumpReader) lumpHDRVersion(ldr, hdr LumpType, useHDR bool, want uint32) ([]byte, error) {
	data, version, err := l.lumpHDR(ldr, hdr, useHDR)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && version != want {
		return nil, fmt.Errorf("%w: %s is version %d, want %d", ErrLumpVersion, ldr, version, want)
	}
	return data, nil
}
