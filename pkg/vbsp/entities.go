package vbsp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	qmath "github.com/Faultbox/vbsp/pkg/math"
)

// Entity is one key/value block of the entity lump. When a key repeats,
// the first value wins.
type Entity struct {
	Keys       []string
	properties map[string]string
}

func newEntity() *Entity {
	return &Entity{properties: make(map[string]string)}
}

func (e *Entity) set(key, value string) {
	if _, ok := e.properties[key]; ok {
		return
	}
	e.Keys = append(e.Keys, key)
	e.properties[key] = value
}

// Get returns the value stored for key.
func (e *Entity) Get(key string) (string, bool) {
	v, ok := e.properties[key]
	return v, ok
}

// ClassName returns the "classname" value, or "" when absent.
func (e *Entity) ClassName() string {
	return e.properties["classname"]
}

// Vec3 parses a space separated "x y z" value.
func (e *Entity) Vec3(key string) (qmath.Vec3, bool) {
	v, ok := e.properties[key]
	if !ok {
		return qmath.Vec3{}, false
	}
	fields := strings.Fields(v)
	if len(fields) != 3 {
		return qmath.Vec3{}, false
	}
	var out [3]float32
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return qmath.Vec3{}, false
		}
		out[i] = float32(x)
	}
	return qmath.Vec3{X: out[0], Y: out[1], Z: out[2]}, true
}

// parseEntities splits the entity lump into blocks of quoted key/value
// pairs:
//
//	{
//	"classname" "worldspawn"
//	"skyname" "sky_day01_01"
//	}
func parseEntities(data []byte) ([]*Entity, error) {
	data = bytes.TrimRight(data, "\x00")

	var (
		out     []*Entity
		current *Entity
		pending *string
	)
	for i := 0; i < len(data); i++ {
		switch c := data[i]; c {
		case '{':
			if current != nil {
				return nil, fmt.Errorf("%w: entities: nested block at offset %d", ErrTruncated, i)
			}
			current = newEntity()
		case '}':
			if current == nil {
				return nil, fmt.Errorf("%w: entities: unmatched '}' at offset %d", ErrTruncated, i)
			}
			out = append(out, current)
			current, pending = nil, nil
		case '"':
			end := bytes.IndexByte(data[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("%w: entities: unterminated string at offset %d", ErrTruncated, i)
			}
			s := string(data[i+1 : i+1+end])
			i += end + 1
			if current == nil {
				continue
			}
			if pending == nil {
				pending = &s
			} else {
				current.set(*pending, s)
				pending = nil
			}
		}
	}
	if current != nil {
		return nil, fmt.Errorf("%w: entities: unterminated block", ErrTruncated)
	}
	return out, nil
}
