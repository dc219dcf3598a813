// Package dataset ingests the four analysis inputs: EMS incident records,
// council-district boundaries, district demographics, and fire-station
// locations.
package dataset

import (
	"math"

	"github.com/jonas-p/go-shp"
	"github.com/twpayne/go-geom"
)

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon
// with SRID 4326. Returns nil for empty or malformed shapes.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// Centroid returns the area-weighted planar centroid of a multipolygon.
// Degenerate (zero-area) geometries fall back to the vertex mean.
func Centroid(mp *geom.MultiPolygon) geom.Coord {
	var cx, cy, areaSum float64

	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		for r := 0; r < poly.NumLinearRings(); r++ {
			ring := poly.LinearRing(r)
			flat := ring.FlatCoords()
			var a, rx, ry float64
			n := len(flat) / 2
			for j := 0; j < n; j++ {
				x0, y0 := flat[2*j], flat[2*j+1]
				k := (j + 1) % n
				x1, y1 := flat[2*k], flat[2*k+1]
				cross := x0*y1 - x1*y0
				a += cross
				rx += (x0 + x1) * cross
				ry += (y0 + y1) * cross
			}
			// Interior rings carry opposite winding and subtract naturally.
			weight := a / 2
			if weight != 0 {
				cx += rx / 6
				cy += ry / 6
				areaSum += weight
			}
		}
	}

	if math.Abs(areaSum) > 1e-12 {
		return geom.Coord{cx / areaSum, cy / areaSum}
	}

	// Vertex mean fallback.
	var sx, sy float64
	var count int
	for i := 0; i < mp.NumPolygons(); i++ {
		flat := mp.Polygon(i).FlatCoords()
		for j := 0; j+1 < len(flat); j += 2 {
			sx += flat[j]
			sy += flat[j+1]
			count++
		}
	}
	if count == 0 {
		return geom.Coord{0, 0}
	}
	return geom.Coord{sx / float64(count), sy / float64(count)}
}
