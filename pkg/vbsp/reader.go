package vbsp

import (
	"encoding/binary"
	"fmt"
	"math"

	qmath "github.com/Faultbox/vbsp/pkg/math"
)

// reader is a little-endian cursor over a byte slice. The first
// out-of-range read records an error; later reads return zero values, so
// callers check err once per record batch.
type reader struct {
	data []byte
	pos  int
	name string
	err  error
}

func newReader(data []byte, name string) *reader {
	return &reader{data: data, name: name}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || r.pos < 0 || r.pos+n > len(r.data) {
		r.err = fmt.Errorf("%w: %s: reading %d bytes at offset %d of %d",
			ErrTruncated, r.name, n, r.pos, len(r.data))
		return false
	}
	return true
}

func (r *reader) seek(off int) {
	r.pos = off
}

func (r *reader) skip(n int) {
	if r.need(n) {
		r.pos += n
	}
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) u8() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u16() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) i16() int16 {
	return int16(r.u16())
}

func (r *reader) u32() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *reader) i32() int32 {
	return int32(r.u32())
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) vec3() qmath.Vec3 {
	return qmath.Vec3{X: r.f32(), Y: r.f32(), Z: r.f32()}
}

// vec3i16 reads three int16 components, as used by node and leaf bounds.
func (r *reader) vec3i16() qmath.Vec3 {
	return qmath.Vec3{X: float32(r.i16()), Y: float32(r.i16()), Z: float32(r.i16())}
}

// fourCC reads a 4-byte tag.
func (r *reader) fourCC() string {
	return string(r.bytes(4))
}

// cString reads a fixed-size, NUL-padded string field.
func (r *reader) cString(n int) string {
	return trimNUL(r.bytes(n))
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// recordCount validates that a lump holds whole records of size stride.
func recordCount(data []byte, stride int, name string) (int, error) {
	if len(data)%stride != 0 {
		return 0, fmt.Errorf("%w: %s: %d bytes is not a multiple of %d",
			ErrTruncated, name, len(data), stride)
	}
	return len(data) / stride, nil
}
