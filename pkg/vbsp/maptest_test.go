package vbsp

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ulikunitz/xz/lzma"
)

// le encodes values little-endian back to back.
func le(t *testing.T, values ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, v := range values {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("binary.Write(%T): %v", v, err)
		}
	}
	return buf.Bytes()
}

// lzmaFrame compresses data into the 17-byte framed layout used by maps:
// known size, no end marker.
func lzmaFrame(t *testing.T, data []byte) []byte {
	t.Helper()
	return lzmaFrameWith(t, data, false)
}

// lzmaFrameWith is lzmaFrame with an optional end-of-stream marker.
func lzmaFrameWith(t *testing.T, data []byte, eos bool) []byte {
	t.Helper()
	var b bytes.Buffer
	cfg := lzma.WriterConfig{SizeInHeader: true, Size: int64(len(data)), EOSMarker: eos}
	w, err := cfg.NewWriter(&b)
	if err != nil {
		t.Fatalf("lzma.NewWriter: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("lzma write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("lzma close: %v", err)
	}

	classic := b.Bytes()
	props := classic[:lzmaPropsSize]
	stream := classic[lzmaPropsSize+8:]

	var out bytes.Buffer
	out.WriteString(lzmaMagic)
	out.Write(le(t, uint32(len(data)), uint32(len(stream))))
	out.Write(props)
	out.Write(stream)
	return out.Bytes()
}

type testLump struct {
	data     []byte
	version  uint32
	compress bool
}

type testGameLump struct {
	id       string
	version  uint16
	data     []byte
	compress bool
}

// testMap assembles a VBSP container from lump payloads.
type testMap struct {
	version   int32
	revision  int32
	lumps     map[LumpType]testLump
	gameLumps []testGameLump
}

func newTestMap() *testMap {
	return &testMap{version: 20, revision: 7, lumps: make(map[LumpType]testLump)}
}

func (m *testMap) set(id LumpType, version uint32, data []byte) *testMap {
	m.lumps[id] = testLump{data: data, version: version}
	return m
}

func (m *testMap) setCompressed(id LumpType, version uint32, data []byte) *testMap {
	m.lumps[id] = testLump{data: data, version: version, compress: true}
	return m
}

func (m *testMap) build(t *testing.T) []byte {
	t.Helper()
	buf := make([]byte, headerSize)
	copy(buf, headerMagic)
	binary.LittleEndian.PutUint32(buf[4:], uint32(m.version))
	binary.LittleEndian.PutUint32(buf[headerSize-4:], uint32(m.revision))

	ids := make([]LumpType, 0, len(m.lumps)+1)
	for id := range lumpCount {
		if _, ok := m.lumps[id]; ok || (id == LumpGameLump && m.gameLumps != nil) {
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		off := len(buf)
		l := m.lumps[id]
		data := l.data
		uncompressed := 0
		switch {
		case id == LumpGameLump && m.gameLumps != nil:
			data = m.gameLumpData(t, off)
		case l.compress:
			data = lzmaFrame(t, l.data)
			uncompressed = len(l.data)
		}
		buf = append(buf, data...)
		for len(buf)%4 != 0 {
			buf = append(buf, 0)
		}

		entry := lumpDirOffset + int(id)*lumpEntrySize
		binary.LittleEndian.PutUint32(buf[entry:], uint32(off))
		binary.LittleEndian.PutUint32(buf[entry+4:], uint32(len(data)))
		binary.LittleEndian.PutUint32(buf[entry+8:], l.version)
		binary.LittleEndian.PutUint32(buf[entry+12:], uint32(uncompressed))
	}
	return buf
}

// gameLumpData lays out the game lump directory followed by its payloads,
// with offsets absolute from base.
func (m *testMap) gameLumpData(t *testing.T, base int) []byte {
	t.Helper()
	payloads := make([][]byte, len(m.gameLumps))
	for i, g := range m.gameLumps {
		payloads[i] = g.data
		if g.compress {
			payloads[i] = lzmaFrame(t, g.data)
		}
	}

	var out bytes.Buffer
	out.Write(le(t, int32(len(m.gameLumps))))
	pos := base + 4 + len(m.gameLumps)*gameLumpEntrySize
	for i, g := range m.gameLumps {
		var flags uint16
		length := len(g.data)
		if g.compress {
			flags = gameLumpFlagCompressed
			length = len(payloads[i])
		}
		id := binary.BigEndian.Uint32([]byte(g.id))
		out.Write(le(t, id, flags, g.version, int32(pos), int32(length)))
		pos += len(payloads[i])
	}
	for _, p := range payloads {
		out.Write(p)
	}
	return out.Bytes()
}

// Fixed-layout records for building lumps.
type (
	testPlane struct {
		Normal [3]float32
		Dist   float32
		Type   int32
	}
	testTexData struct {
		Reflectivity                        [3]float32
		NameID, Width, Height, ViewW, ViewH int32
	}
	testTexInfo struct {
		TextureVecs  [2][4]float32
		LightmapVecs [2][4]float32
		Flags        uint32
		TexData      int32
	}
	testNode struct {
		PlaneNum            int32
		Children            [2]int32
		Mins, Maxs          [3]int16
		FirstFace, NumFaces uint16
		Area, Pad           int16
	}
	testLeaf struct {
		Contents                       int32
		Cluster, AreaFlags             uint16
		Mins, Maxs                     [3]int16
		FirstLeafFace, NumLeafFaces    uint16
		FirstLeafBrush, NumLeafBrushes uint16
		WaterData, Pad                 int16
	}
	testModel struct {
		Mins, Maxs, Origin            [3]float32
		HeadNode, FirstFace, NumFaces int32
	}
	testDispInfo struct {
		StartPos                    [3]float32
		DispVertStart, DispTriStart int32
		Power, MinTess              int32
		SmoothingAngle              float32
		Contents                    int32
		MapFace, Pad                uint16
		LightmapAlphaStart          int32
		LightmapSamplePosStart      int32
		Neighbors                   [128]byte
	}
	testDispVert struct {
		Vec   [3]float32
		Dist  float32
		Alpha float32
	}
	testPrimitive struct {
		Type, Pad              uint8
		FirstIndex, IndexCount uint16
		FirstVert, VertCount   uint16
	}
)

type testTexture struct {
	name  string
	flags uint32
}

// testQuad is a square face at z=0 with its corner at (x, y).
type testQuad struct {
	x, y, size float32
	texture    int16
	disp       int16
	prims      uint16
	firstPrim  uint16
	lightOfs   int32
}

func quad(x, y, size float32, texture int16) testQuad {
	return testQuad{x: x, y: y, size: size, texture: texture, disp: -1, lightOfs: -1}
}

// testWorld is a single-leaf map of flat quads facing +Z. Every face
// belongs to model 0 and leaf 0, and the node splits on z=0 with both
// children pointing at leaf 0.
type testWorld struct {
	textures []testTexture
	quads    []testQuad
	extra    func(m *testMap)
}

func (w *testWorld) build(t *testing.T) []byte {
	t.Helper()
	m := newTestMap()

	var names bytes.Buffer
	var table []int32
	var texData []testTexData
	var texInfo []testTexInfo
	for i, tex := range w.textures {
		table = append(table, int32(names.Len()))
		names.WriteString(tex.name)
		names.WriteByte(0)
		texData = append(texData, testTexData{NameID: int32(i), Width: 64, Height: 64, ViewW: 64, ViewH: 64})
		texInfo = append(texInfo, testTexInfo{
			TextureVecs:  [2][4]float32{{1, 0, 0, 0}, {0, 1, 0, 0}},
			LightmapVecs: [2][4]float32{{1.0 / 16, 0, 0, 0}, {0, 1.0 / 16, 0, 0}},
			Flags:        tex.flags,
			TexData:      int32(i),
		})
	}

	var (
		verts     [][3]float32
		edges     = [][2]uint16{{0, 0}}
		surfEdges []int32
		faces     []Face
		leafFaces []uint16
		normalIdx []uint16
	)
	for i, q := range w.quads {
		base := uint16(len(verts))
		verts = append(verts,
			[3]float32{q.x, q.y, 0},
			[3]float32{q.x + q.size, q.y, 0},
			[3]float32{q.x + q.size, q.y + q.size, 0},
			[3]float32{q.x, q.y + q.size, 0},
		)
		firstEdge := int32(len(surfEdges))
		for k := range uint16(4) {
			surfEdges = append(surfEdges, int32(len(edges)))
			edges = append(edges, [2]uint16{base + k, base + (k+1)%4})
			normalIdx = append(normalIdx, 0)
		}
		faces = append(faces, Face{
			FirstEdge:    firstEdge,
			NumEdges:     4,
			TexInfo:      q.texture,
			DispInfo:     q.disp,
			FogVolume:    -1,
			Styles:       [4]uint8{0, 255, 255, 255},
			LightOffset:  q.lightOfs,
			Area:         q.size * q.size,
			LightmapMins: [2]int32{int32(q.x / 16), int32(q.y / 16)},
			LightmapSize: [2]int32{int32(q.size / 16), int32(q.size / 16)},
			OrigFace:     -1,
			NumPrims:     q.prims,
			FirstPrimID:  q.firstPrim,
		})
		leafFaces = append(leafFaces, uint16(i))
	}

	m.set(LumpPlanes, 0, le(t, testPlane{Normal: [3]float32{0, 0, 1}, Type: 2}))
	m.set(LumpTexData, 0, le(t, texData))
	m.set(LumpTexDataStringTable, 0, le(t, table))
	m.set(LumpTexDataStringData, 0, names.Bytes())
	m.set(LumpTexInfo, 0, le(t, texInfo))
	m.set(LumpVertexes, 0, le(t, verts))
	m.set(LumpEdges, 0, le(t, edges))
	m.set(LumpSurfEdges, 0, le(t, surfEdges))
	m.set(LumpFaces, facesVersion, le(t, faces))
	m.set(LumpVertNormals, 0, le(t, [3]float32{0, 0, 1}))
	m.set(LumpVertNormalIndices, 0, le(t, normalIdx))
	m.set(LumpLeafFaces, 0, le(t, leafFaces))
	m.set(LumpNodes, 0, le(t, testNode{
		Children: [2]int32{-1, -1},
		Mins:     [3]int16{-512, -512, -512},
		Maxs:     [3]int16{512, 512, 512},
		NumFaces: uint16(len(faces)),
	}))
	m.set(LumpLeafs, 1, le(t, testLeaf{
		Mins:         [3]int16{-512, -512, -512},
		Maxs:         [3]int16{512, 512, 512},
		NumLeafFaces: uint16(len(leafFaces)),
		WaterData:    -1,
	}))
	m.set(LumpModels, 0, le(t, testModel{
		Mins:     [3]float32{-512, -512, -512},
		Maxs:     [3]float32{512, 512, 512},
		NumFaces: int32(len(faces)),
	}))
	// One cluster with no PVS row: everything visible.
	m.set(LumpVisibility, 0, le(t, int32(1), int32(0), int32(0)))

	if w.extra != nil {
		w.extra(m)
	}
	return m.build(t)
}

func parseWorld(t *testing.T, w *testWorld) *File {
	t.Helper()
	f, err := Parse(w.build(t), DefaultOptions())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}
