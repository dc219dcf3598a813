package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
	"github.com/civitas-analytics/ems-response-atlas/internal/pipeline"
)

// Map carries the presentation inputs shared by every rendered map.
type Map struct {
	Title    string
	Subtitle string
	Width    int
	Height   int
}

// RenderChoropleth shades district polygons by the metric on a sequential
// scale and places Min/Max markers at the annotated centroids. Districts
// without a value render in the neutral fill.
func RenderChoropleth(w io.Writer, stats []model.DistrictStats, metric pipeline.MetricFn, marks []model.MinMaxRow, m Map) error {
	districts := make([]model.District, 0, len(stats))
	for i := range stats {
		districts = append(districts, stats[i].District)
	}
	proj := NewProjector(districts, m.Width, m.Height)

	// Value range for the ramp.
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range stats {
		if v, ok := metric(&stats[i]); ok {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	canvas := svg.New(w)
	canvas.Start(m.Width, m.Height)
	drawFrame(canvas, m)

	for i := range stats {
		fill := NeutralFill
		if v, ok := metric(&stats[i]); ok {
			fill = rampFill(v, lo, hi)
		}
		drawDistrict(canvas, proj, &stats[i].District, fillStyle(fill))
	}

	drawMinMaxMarkers(canvas, proj, marks)

	canvas.End()
	return nil
}

// drawDistrict draws every exterior ring of the district.
func drawDistrict(canvas *svg.SVG, proj *Projector, d *model.District, style string) {
	for _, ring := range proj.Rings(d) {
		canvas.Polygon(ring[0], ring[1], style)
	}
}

// drawMinMaxMarkers places a distinct point symbol and label per annotated
// extreme.
func drawMinMaxMarkers(canvas *svg.SVG, proj *Projector, marks []model.MinMaxRow) {
	for _, mark := range marks {
		x, y := proj.Point(mark.Centroid)
		canvas.Circle(x, y, 6, "fill:#000000;stroke:#ffffff;stroke-width:2")
		canvas.Text(x+10, y+4,
			fmt.Sprintf("%s: %s (%.1f)", mark.Label, mark.DistrictID, mark.Value),
			"font-family:sans-serif;font-size:12px;fill:#000000")
	}
}

// drawFrame draws the border rule and title block.
func drawFrame(canvas *svg.SVG, m Map) {
	canvas.Rect(0, 0, m.Width, m.Height, "fill:#ffffff;stroke:#333333;stroke-width:2")
	if m.Title != "" {
		canvas.Text(canvasPadding/2, 24, m.Title, "font-family:sans-serif;font-size:18px;font-weight:bold;fill:#111111")
	}
	if m.Subtitle != "" {
		canvas.Text(canvasPadding/2, 42, m.Subtitle, "font-family:sans-serif;font-size:13px;fill:#555555")
	}
}
