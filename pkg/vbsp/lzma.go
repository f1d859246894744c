package vbsp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

const (
	lzmaMagic      = "LZMA"
	lzmaHeaderSize = 17 // magic, actual size, compressed size, 5 property bytes
	lzmaPropsSize  = 5
)

// decompressLZMA unpacks a Source-framed LZMA stream. want is the size the
// caller expects, or -1 when only the frame knows it.
func decompressLZMA(data []byte, want int) ([]byte, error) {
	if len(data) < lzmaHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrBadLZMA, len(data))
	}
	if string(data[:4]) != lzmaMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadLZMA, data[:4])
	}

	actualSize := binary.LittleEndian.Uint32(data[4:8])
	compressedSize := binary.LittleEndian.Uint32(data[8:12])
	if uint64(lzmaHeaderSize)+uint64(compressedSize) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: compressed size %d exceeds %d available bytes",
			ErrBadLZMA, compressedSize, len(data)-lzmaHeaderSize)
	}
	if want >= 0 && int(actualSize) != want {
		return nil, fmt.Errorf("%w: frame says %d bytes, directory says %d", ErrBadLZMA, actualSize, want)
	}

	// Rebuild the classic .lzma header: properties, then the size. Source
	// streams usually carry no end marker, so the decoder must know the size.
	var classic [lzmaPropsSize + 8]byte
	copy(classic[:], data[12:lzmaHeaderSize])
	binary.LittleEndian.PutUint64(classic[lzmaPropsSize:], uint64(actualSize))

	stream := data[lzmaHeaderSize : lzmaHeaderSize+int(compressedSize)]
	zr, err := lzma.NewReader(io.MultiReader(bytes.NewReader(classic[:]), bytes.NewReader(stream)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLZMA, err)
	}

	out := make([]byte, actualSize)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadLZMA, err)
	}
	return out, nil
}
