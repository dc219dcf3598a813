// Package render draws the analysis maps as SVG: metric choropleths with
// min/max markers, the cluster map with the fire-station overlay, and the
// bivariate income/response map with its 3x3 legend.
package render

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

const canvasPadding = 40

// Projector maps lon/lat onto canvas pixels with a uniform scale
// (equirectangular: fine at city extent) and a flipped y axis.
type Projector struct {
	minX, minY float64
	scale      float64
	height     int
}

// NewProjector fits the bounding box of all district geometry into the
// canvas, preserving aspect ratio.
func NewProjector(districts []model.District, width, height int) *Projector {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, d := range districts {
		if d.Geometry == nil {
			continue
		}
		flat := d.Geometry.FlatCoords()
		for i := 0; i+1 < len(flat); i += 2 {
			minX = math.Min(minX, flat[i])
			maxX = math.Max(maxX, flat[i])
			minY = math.Min(minY, flat[i+1])
			maxY = math.Max(maxY, flat[i+1])
		}
	}

	if math.IsInf(minX, 1) {
		// No geometry at all: identity-ish projector.
		return &Projector{scale: 1, height: height}
	}

	dx, dy := maxX-minX, maxY-minY
	usableW := float64(width - 2*canvasPadding)
	usableH := float64(height - 2*canvasPadding)

	scale := 1.0
	if dx > 0 || dy > 0 {
		sx, sy := math.Inf(1), math.Inf(1)
		if dx > 0 {
			sx = usableW / dx
		}
		if dy > 0 {
			sy = usableH / dy
		}
		scale = math.Min(sx, sy)
	}

	return &Projector{minX: minX, minY: minY, scale: scale, height: height}
}

// Point projects a coordinate to canvas pixels.
func (p *Projector) Point(c geom.Coord) (int, int) {
	x := canvasPadding + int(math.Round((c[0]-p.minX)*p.scale))
	y := p.height - canvasPadding - int(math.Round((c[1]-p.minY)*p.scale))
	return x, y
}

// Rings returns the projected exterior ring of every polygon in the
// district geometry, ready for SVG polygon elements.
func (p *Projector) Rings(d *model.District) [][2][]int {
	if d.Geometry == nil {
		return nil
	}

	var rings [][2][]int
	for i := 0; i < d.Geometry.NumPolygons(); i++ {
		poly := d.Geometry.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		flat := poly.LinearRing(0).FlatCoords()
		n := len(flat) / 2
		xs := make([]int, 0, n)
		ys := make([]int, 0, n)
		for j := 0; j < n; j++ {
			x, y := p.Point(geom.Coord{flat[2*j], flat[2*j+1]})
			xs = append(xs, x)
			ys = append(ys, y)
		}
		rings = append(rings, [2][]int{xs, ys})
	}
	return rings
}
