package render

import (
	"fmt"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// NeutralFill is used for districts with no value for the mapped metric.
const NeutralFill = "#d9d9d9"

// rampFills is a five-step sequential scale, light to dark.
var rampFills = []string{"#fee5d9", "#fcae91", "#fb6a4a", "#de2d26", "#a50f15"}

// clusterFills color detected clusters by rank; unclustered districts stay
// neutral. Capped at five reported clusters.
var clusterFills = []string{"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00"}

// bivariateFills is the 3x3 palette indexed income-major: row = income
// tercile, column = response-time tercile.
var bivariateFills = [9]string{
	"#e8e8e8", "#b5c0da", "#6c83b5",
	"#b8d6be", "#90b2b3", "#567994",
	"#73ae80", "#5a9178", "#2a5a5b",
}

// rampFill buckets a value into the sequential scale.
func rampFill(v, min, max float64) string {
	if max <= min {
		return rampFills[0]
	}
	bucket := int((v - min) / (max - min) * float64(len(rampFills)))
	if bucket >= len(rampFills) {
		bucket = len(rampFills) - 1
	}
	if bucket < 0 {
		bucket = 0
	}
	return rampFills[bucket]
}

// clusterFill returns the fill for a cluster rank (1-based).
func clusterFill(rank int) string {
	if rank < 1 || rank > len(clusterFills) {
		return NeutralFill
	}
	return clusterFills[rank-1]
}

// bivariateFill returns the fill for a joint class.
func bivariateFill(c model.BivariateClass) string {
	return bivariateFills[c.Index()]
}

func fillStyle(fill string) string {
	return fmt.Sprintf("fill:%s;stroke:#ffffff;stroke-width:1", fill)
}
