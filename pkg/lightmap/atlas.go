package lightmap

import (
	"fmt"
	"image"
	"io"

	"github.com/chewxy/math32"
	"github.com/xfmoulet/qoi"
)

// Source is one surface's packed lightmap and its luxels.
type Source struct {
	Alloc  Allocation
	Width  int
	Height int
	// Samples holds ColorRGBExp32 luxels; only the first Width×Height
	// luxels (the first light style) are composed.
	Samples []byte
}

// Atlas holds the composed RGBA image of every page.
type Atlas struct {
	Pages []*image.RGBA
}

// DecodeRGBExp32 converts one ColorRGBExp32 luxel to linear RGB, where 1.0
// is full brightness.
func DecodeRGBExp32(r, g, b uint8, exp int8) (float32, float32, float32) {
	scale := math32.Pow(2, float32(exp)) / 255
	return float32(r) * scale, float32(g) * scale, float32(b) * scale
}

// toSRGB8 gamma-encodes a linear channel into a byte.
func toSRGB8(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	e := math32.Pow(v, 1/2.2) * 255
	if e >= 255 {
		return 255
	}
	return uint8(e + 0.5)
}

// BuildAtlas composes every source into its page. Pages start white so
// surfaces without samples render at full brightness.
func BuildAtlas(m *Manager, sources []Source) *Atlas {
	atlas := &Atlas{Pages: make([]*image.RGBA, len(m.Pages))}
	for i, page := range m.Pages {
		img := image.NewRGBA(image.Rect(0, 0, max(page.Width, 1), max(page.Height, 1)))
		for j := range img.Pix {
			img.Pix[j] = 255
		}
		atlas.Pages[i] = img
	}

	for _, src := range sources {
		if src.Alloc.PageIndex < 0 || src.Alloc.PageIndex >= len(atlas.Pages) {
			continue
		}
		img := atlas.Pages[src.Alloc.PageIndex]
		for y := range src.Height {
			for x := range src.Width {
				srcIdx := (y*src.Width + x) * 4
				if srcIdx+3 >= len(src.Samples) {
					continue
				}
				r, g, b := DecodeRGBExp32(src.Samples[srcIdx], src.Samples[srcIdx+1],
					src.Samples[srcIdx+2], int8(src.Samples[srcIdx+3]))

				dstIdx := img.PixOffset(src.Alloc.X+x, src.Alloc.Y+y)
				img.Pix[dstIdx] = toSRGB8(r)
				img.Pix[dstIdx+1] = toSRGB8(g)
				img.Pix[dstIdx+2] = toSRGB8(b)
				img.Pix[dstIdx+3] = 255
			}
		}
	}

	return atlas
}

// WriteQOI encodes page i as a QOI image.
func (a *Atlas) WriteQOI(w io.Writer, i int) error {
	if i < 0 || i >= len(a.Pages) {
		return fmt.Errorf("lightmap page %d out of range (%d pages)", i, len(a.Pages))
	}
	return qoi.Encode(w, a.Pages[i])
}
