package vbsp

import (
	"fmt"

	qmath "github.com/Faultbox/vbsp/pkg/math"
)

const (
	worldLightSizeV0 = 88
	worldLightSizeV1 = 100
	cubemapSize      = 16
)

// EmitType is the kind of a world light.
type EmitType int32

// World light kinds.
const (
	EmitSurface EmitType = iota
	EmitPoint
	EmitSpotlight
	EmitSkyLight
	EmitQuakeLight
	EmitSkyAmbient
)

func (t EmitType) String() string {
	switch t {
	case EmitSurface:
		return "surface"
	case EmitPoint:
		return "point"
	case EmitSpotlight:
		return "spotlight"
	case EmitSkyLight:
		return "skylight"
	case EmitQuakeLight:
		return "quakelight"
	case EmitSkyAmbient:
		return "skyambient"
	default:
		return fmt.Sprintf("emit%d", int32(t))
	}
}

// WorldLight is a light source baked into the map.
type WorldLight struct {
	Origin           qmath.Vec3
	Intensity        qmath.Vec3
	Normal           qmath.Vec3
	ShadowCastOffset qmath.Vec3 // version 1 only
	Cluster          int32
	Type             EmitType
	Style            int32
	StopDot          float32
	StopDot2         float32
	Exponent         float32
	Radius           float32
	ConstantAttn     float32
	LinearAttn       float32
	QuadraticAttn    float32
	Flags            int32
	TexInfo          int32
	Owner            int32
}

func parseWorldLights(data []byte, version uint32) ([]WorldLight, error) {
	var stride int
	switch version {
	case 0:
		stride = worldLightSizeV0
	case 1:
		stride = worldLightSizeV1
	default:
		return nil, fmt.Errorf("%w: worldlights version %d", ErrLumpVersion, version)
	}
	n, err := recordCount(data, stride, LumpWorldLights.String())
	if err != nil {
		return nil, err
	}

	r := newReader(data, LumpWorldLights.String())
	out := make([]WorldLight, n)
	for i := range out {
		l := &out[i]
		l.Origin = r.vec3()
		l.Intensity = r.vec3()
		l.Normal = r.vec3()
		if version == 1 {
			l.ShadowCastOffset = r.vec3()
		}
		l.Cluster = r.i32()
		l.Type = EmitType(r.i32())
		l.Style = r.i32()
		l.StopDot = r.f32()
		l.StopDot2 = r.f32()
		l.Exponent = r.f32()
		l.Radius = r.f32()
		l.ConstantAttn = r.f32()
		l.LinearAttn = r.f32()
		l.QuadraticAttn = r.f32()
		l.Flags = r.i32()
		l.TexInfo = r.i32()
		l.Owner = r.i32()
	}
	return out, r.err
}

// Cubemap is an environment map sample point.
type Cubemap struct {
	Pos  qmath.Vec3
	Size int32
}

func parseCubemaps(data []byte) ([]Cubemap, error) {
	n, err := recordCount(data, cubemapSize, LumpCubemaps.String())
	if err != nil {
		return nil, err
	}
	r := newReader(data, LumpCubemaps.String())
	out := make([]Cubemap, n)
	for i := range out {
		out[i].Pos = qmath.Vec3{X: float32(r.i32()), Y: float32(r.i32()), Z: float32(r.i32())}
		out[i].Size = r.i32()
	}
	return out, r.err
}
