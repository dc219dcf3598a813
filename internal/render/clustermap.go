package render

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// RenderClusterMap colors districts by their cluster rank and overlays the
// fire-station points. Districts outside every cluster stay neutral.
func RenderClusterMap(w io.Writer, stats []model.DistrictStats, assignment model.ClusterAssignment, stations []model.FireStation, m Map) error {
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
		if rank, ok := assignment[stats[i].District.ID]; ok {
			fill = clusterFill(rank)
		}
		drawDistrict(canvas, proj, &stats[i].District, fillStyle(fill))
	}

	// Station overlay on top of the polygons.
	for _, st := range stations {
		x, y := proj.Point(st.Location)
		canvas.Circle(x, y, 4, "fill:#222222;stroke:#ffffff;stroke-width:1")
	}

	drawClusterLegend(canvas, assignment, m)

	canvas.End()
	return nil
}

// drawClusterLegend lists the cluster ranks present on the map.
func drawClusterLegend(canvas *svg.SVG, assignment model.ClusterAssignment, m Map) {
	ranks := make(map[int]bool)
	maxRank := 0
	for _, r := range assignment {
		ranks[r] = true
		if r > maxRank {
			maxRank = r
		}
	}

	y := m.Height - canvasPadding - 16*maxRank
	for rank := 1; rank <= maxRank; rank++ {
		if !ranks[rank] {
			continue
		}
		canvas.Rect(canvasPadding/2, y, 12, 12, fillStyle(clusterFill(rank)))
		canvas.Text(canvasPadding/2+18, y+10, fmt.Sprintf("Cluster %d", rank),
			"font-family:sans-serif;font-size:12px;fill:#111111")
		y += 16
	}
}
