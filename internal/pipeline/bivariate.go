package pipeline

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// ClassifyBivariate assigns each district with both an income and a response
// time to one of nine joint classes: income tertile crossed with
// response-time tertile. Breakpoints are empirical 1/3 and 2/3 quantiles
// computed independently per variable over the classified districts.
// Districts missing either value get no class.
func ClassifyBivariate(stats []model.DistrictStats) map[string]model.BivariateClass {
	type row struct {
		id       string
		income   float64
		response float64
	}
	var rows []row

	for i := range stats {
		income, ok := MetricMedianIncome(&stats[i])
		if !ok {
			continue
		}
		response, ok := MetricAvgResponse(&stats[i])
		if !ok {
			continue
		}
		rows = append(rows, row{id: stats[i].District.ID, income: income, response: response})
	}

	if len(rows) == 0 {
		return map[string]model.BivariateClass{}
	}

	incomes := make([]float64, len(rows))
	responses := make([]float64, len(rows))
	for i, r := range rows {
		incomes[i] = r.income
		responses[i] = r.response
	}

	incQ1, incQ2 := tertileBreaks(incomes)
	resQ1, resQ2 := tertileBreaks(responses)

	classes := make(map[string]model.BivariateClass, len(rows))
	for _, r := range rows {
		classes[r.id] = model.BivariateClass{
			IncomeTercile:   tercile(r.income, incQ1, incQ2),
			ResponseTercile: tercile(r.response, resQ1, resQ2),
		}
	}

	return classes
}

// tertileBreaks returns the empirical 1/3 and 2/3 quantiles of values.
func tertileBreaks(values []float64) (float64, float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := stat.Quantile(1.0/3.0, stat.Empirical, sorted, nil)
	q2 := stat.Quantile(2.0/3.0, stat.Empirical, sorted, nil)
	return q1, q2
}

// tercile places a value into 0, 1 or 2 against the two breakpoints.
func tercile(v, q1, q2 float64) int {
	switch {
	case v <= q1:
		return 0
	case v <= q2:
		return 1
	default:
		return 2
	}
}
