package render

import (
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// RenderBivariate shades districts by their joint income/response class and
// composites the 3x3 legend into the lower-left corner. Unclassified
// districts (no incidents or no demographics) stay neutral.
func RenderBivariate(w io.Writer, stats []model.DistrictStats, classes map[string]model.BivariateClass, m Map) error {
	districts := make([]model.District, 0, len(stats))
	for i := range stats {
		districts = append(districts, stats[i].District)
	}
	proj := NewProjector(districts, m.Width, m.Height)

	canvas := svg.New(w)
	canvas.Start(m.Width, m.Height)
	drawFrame(canvas, m)

	for i := range stats {
		fill := NeutralFill
		if c, ok := classes[stats[i].District.ID]; ok {
			fill = bivariateFill(c)
		}
		drawDistrict(canvas, proj, &stats[i].District, fillStyle(fill))
	}

	drawBivariateLegend(canvas, m)

	canvas.End()
	return nil
}

// drawBivariateLegend draws the 3x3 class grid with axis captions.
func drawBivariateLegend(canvas *svg.SVG, m Map) {
	const cell = 18
	x0 := canvasPadding / 2
	y0 := m.Height - canvasPadding - 3*cell

	for income := 0; income < 3; income++ {
		for response := 0; response < 3; response++ {
			c := model.BivariateClass{IncomeTercile: income, ResponseTercile: response}
			// Income increases upward, response time rightward.
			x := x0 + response*cell
			y := y0 + (2-income)*cell
			canvas.Rect(x, y, cell, cell, fillStyle(bivariateFill(c)))
		}
	}

	canvas.Text(x0, y0+3*cell+14, "response time →",
		"font-family:sans-serif;font-size:10px;fill:#333333")
	canvas.Text(x0-4, y0-6, "income ↑",
		"font-family:sans-serif;font-size:10px;fill:#333333")
}
