// Package lightmap packs per-surface lightmap rectangles onto fixed-size
// pages and composes the packed pages into RGBA images.
package lightmap

import (
	"errors"
	"fmt"
)

// ErrRectTooLarge is returned when a rectangle does not fit even on a
// freshly created page.
var ErrRectTooLarge = errors.New("lightmap rectangle larger than page")

// Page is one lightmap page packed with a skyline: skyline[y] is the first
// free column of row y.
type Page struct {
	MaxWidth  int
	MaxHeight int

	// Width and Height are the used extents.
	Width  int
	Height int

	skyline []int
}

// NewPage creates an empty page.
func NewPage(maxWidth, maxHeight int) *Page {
	return &Page{
		MaxWidth:  maxWidth,
		MaxHeight: maxHeight,
		skyline:   make([]int, maxHeight),
	}
}

// Allocate places a w×h rectangle on the page. It picks the placement with
// the smallest x over all candidate top rows; ties keep the lowest row.
func (p *Page) Allocate(w, h int) (x, y int, ok bool) {
	if w <= 0 || h <= 0 || w > p.MaxWidth || h > p.MaxHeight {
		return 0, 0, false
	}

	bestX, bestY := -1, -1
	for row := 0; row+h <= p.MaxHeight; {
		// The row with the largest skyline in [row, row+h) bounds this placement.
		minX, binding := 0, row
		for r := row; r < row+h; r++ {
			if p.skyline[r] >= minX {
				minX = p.skyline[r]
				binding = r
			}
		}

		if minX+w <= p.MaxWidth && (bestX < 0 || minX < bestX) {
			bestX, bestY = minX, row
			if bestX == 0 {
				break
			}
		}

		// Every start row up to the binding one still covers it.
		row = binding + 1
	}

	if bestX < 0 {
		return 0, 0, false
	}

	for r := bestY; r < bestY+h; r++ {
		p.skyline[r] = bestX + w
	}
	p.Width = max(p.Width, bestX+w)
	p.Height = max(p.Height, bestY+h)
	return bestX, bestY, true
}

// Allocation is where a rectangle landed.
type Allocation struct {
	PageIndex int
	X         int
	Y         int
}

// Manager owns the growing list of pages. It is not safe for concurrent
// use.
type Manager struct {
	PageWidth  int
	PageHeight int
	Pages      []*Page
}

// NewManager creates a manager whose pages are pageWidth×pageHeight.
func NewManager(pageWidth, pageHeight int) *Manager {
	return &Manager{
		PageWidth:  pageWidth,
		PageHeight: pageHeight,
	}
}

// Allocate tries each existing page in order and appends a new page when
// none has room.
func (m *Manager) Allocate(w, h int) (Allocation, error) {
	for i, page := range m.Pages {
		if x, y, ok := page.Allocate(w, h); ok {
			return Allocation{PageIndex: i, X: x, Y: y}, nil
		}
	}

	page := NewPage(m.PageWidth, m.PageHeight)
	x, y, ok := page.Allocate(w, h)
	if !ok {
		return Allocation{}, fmt.Errorf("%w: %dx%d on %dx%d page",
			ErrRectTooLarge, w, h, m.PageWidth, m.PageHeight)
	}
	m.Pages = append(m.Pages, page)
	return Allocation{PageIndex: len(m.Pages) - 1, X: x, Y: y}, nil
}

// PageSize returns the used extents of page i.
func (m *Manager) PageSize(i int) (width, height int) {
	p := m.Pages[i]
	return p.Width, p.Height
}
