// Package model defines the tabular and geometry snapshot types that flow
// between pipeline stages.
package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// Incident is a single EMS call record as ingested from the incident table.
type Incident struct {
	DistrictID    string  `json:"district_id"`
	TravelSeconds float64 `json:"travel_seconds"`
	// Compliant is derived during cleaning: travel time within the
	// response goal.
	Compliant bool `json:"compliant"`
}

// District is a council district polygon keyed by district identifier.
// Geometry is EPSG:4326; Centroid is computed after ingest and reused for
// cluster detection and label placement.
type District struct {
	ID       string             `json:"id"`
	Name     string             `json:"name,omitempty"`
	Geometry *geom.MultiPolygon `json:"-"`
	Centroid geom.Coord         `json:"centroid"`
}

// DistrictAggregate holds per-district response statistics.
type DistrictAggregate struct {
	DistrictID         string  `json:"district_id"`
	ResponseCount      int     `json:"response_count"`
	AvgResponseSeconds float64 `json:"avg_response_seconds"`
	CompliantCount     int     `json:"compliant_count"`
	NonCompliantCount  int     `json:"non_compliant_count"`
	NonCompProp        float64 `json:"non_comp_prop"`
}

// DemographicRecord holds census attributes for one district.
type DemographicRecord struct {
	DistrictID      string  `json:"district_id"`
	Population      int     `json:"population"`
	PropAge85Plus   float64 `json:"prop_age_85_plus"`
	MedianHHIncome  float64 `json:"median_hh_income"`
}

// FireStation is a station point location with a categorical label.
type FireStation struct {
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Location geom.Coord `json:"location"`
}

// DistrictStats is the joined row: district geometry plus its aggregate and
// demographics. Aggregate and Demographics are nil when the left join found
// no match for the district key.
type DistrictStats struct {
	District     District           `json:"district"`
	Aggregate    *DistrictAggregate `json:"aggregate,omitempty"`
	Demographics *DemographicRecord `json:"demographics,omitempty"`
}

// HasAggregate reports whether the district recorded any incidents.
func (d *DistrictStats) HasAggregate() bool {
	return d.Aggregate != nil && d.Aggregate.ResponseCount > 0
}

// Cluster is one detected spatial cluster of non-compliant response times.
type Cluster struct {
	Rank          int      `json:"rank"`
	DistrictIDs   []string `json:"district_ids"`
	Cases         int      `json:"cases"`
	Baseline      int      `json:"baseline"`
	Expected      float64  `json:"expected"`
	LogLikelihood float64  `json:"log_likelihood"`
	PValue        float64  `json:"p_value"`
}

// ClusterAssignment maps a district to at most one cluster rank.
type ClusterAssignment map[string]int

// MinMaxRow annotates the single extreme row for a metric, carrying the
// centroid for marker placement.
type MinMaxRow struct {
	DistrictID string     `json:"district_id"`
	Label      string     `json:"label"` // "Max" or "Min"
	Value      float64    `json:"value"`
	Centroid   geom.Coord `json:"centroid"`
}

// BivariateClass is a 3x3 joint classification of income tercile and
// response-time tercile, each in 0..2.
type BivariateClass struct {
	IncomeTercile   int `json:"income_tercile"`
	ResponseTercile int `json:"response_tercile"`
}

// Index returns the flat class index in 0..8 (income-major).
func (b BivariateClass) Index() int {
	return b.IncomeTercile*3 + b.ResponseTercile
}

// DatasetMeta records provenance for one ingested dataset.
type DatasetMeta struct {
	Name      string    `json:"name"`
	SourceURL string    `json:"source_url"`
	RowCount  int       `json:"row_count"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Snapshot is the full materialized input for one analysis run.
type Snapshot struct {
	Incidents    []Incident
	Districts    []District
	Demographics []DemographicRecord
	Stations     []FireStation
	Meta         []DatasetMeta
}
