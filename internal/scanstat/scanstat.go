// Package scanstat implements a Kulldorff-style spatial scan statistic under
// a Poisson model. Candidate zones are distance-ordered windows around each
// district centroid; significance comes from Monte Carlo replication.
package scanstat

import (
	"context"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/civitas-analytics/ems-response-atlas/internal/model"
)

// Point is one spatial unit entering the scan: a district centroid with its
// case count (non-compliant responses) and baseline (total responses).
type Point struct {
	ID       string
	X, Y     float64
	Cases    int
	Baseline int
}

// Options configures the scan.
type Options struct {
	Simulations         int     // Monte Carlo replications (default 999)
	Alpha               float64 // significance level (default 0.05)
	MaxBaselineFraction float64 // window cap as a fraction of total baseline (default 0.2)
	MaxClusters         int     // reported clusters cap (default 5)
	Seed                uint64  // 0 = time-seeded
}

// zone is a candidate window: a set of point indices with summed counts.
type zone struct {
	members  []int
	cases    int
	baseline int
	llr      float64
	pvalue   float64
}

// Detect runs the scan and returns significant, non-overlapping clusters in
// likelihood order, capped at MaxClusters. Each district belongs to at most
// one returned cluster. An empty result means no significant clusters, not
// an error.
func Detect(ctx context.Context, points []Point, opts Options) ([]model.Cluster, error) {
	if opts.Simulations <= 0 {
		opts.Simulations = 999
	}
	if opts.Alpha <= 0 {
		opts.Alpha = 0.05
	}
	if opts.MaxBaselineFraction <= 0 {
		opts.MaxBaselineFraction = 0.2
	}
	if opts.MaxClusters <= 0 {
		opts.MaxClusters = 5
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	var totalCases, totalBaseline int
	for _, p := range points {
		totalCases += p.Cases
		totalBaseline += p.Baseline
	}
	if totalCases == 0 || totalBaseline == 0 {
		return nil, nil
	}

	zones := candidateZones(points, totalBaseline, opts.MaxBaselineFraction)
	if len(zones) == 0 {
		return nil, nil
	}

	baselines := make([]int, len(points))
	for i, p := range points {
		baselines[i] = p.Baseline
	}

	// Observed likelihood ratios.
	for i := range zones {
		zones[i].llr = poissonLLR(zones[i].cases, zones[i].baseline, totalCases, totalBaseline)
	}

	simMaxima, err := simulate(ctx, zones, baselines, totalCases, totalBaseline, opts.Simulations, seed)
	if err != nil {
		return nil, err
	}

	// Monte Carlo rank p-value for each zone.
	sort.Float64s(simMaxima)
	for i := range zones {
		exceed := len(simMaxima) - sort.SearchFloat64s(simMaxima, zones[i].llr)
		zones[i].pvalue = float64(1+exceed) / float64(1+opts.Simulations)
	}

	clusters := selectClusters(points, zones, totalCases, totalBaseline, opts)

	zap.L().Info("scanstat: detection complete",
		zap.Int("candidate_zones", len(zones)),
		zap.Int("simulations", opts.Simulations),
		zap.Int("clusters", len(clusters)),
	)

	return clusters, nil
}

// candidateZones grows a distance-ordered window around every centroid until
// the baseline cap, deduplicating windows that contain the same members.
func candidateZones(points []Point, totalBaseline int, maxFraction float64) []zone {
	capBaseline := int(maxFraction * float64(totalBaseline))
	seen := make(map[string]bool)
	var zones []zone

	for center := range points {
		order := byDistanceFrom(points, center)

		var members []int
		var cases, baseline int
		for _, idx := range order {
			if baseline+points[idx].Baseline > capBaseline && len(members) > 0 {
				break
			}
			members = append(members, idx)
			cases += points[idx].Cases
			baseline += points[idx].Baseline
			if baseline > capBaseline {
				break
			}
			if baseline == 0 {
				continue
			}

			key := memberKey(members)
			if seen[key] {
				continue
			}
			seen[key] = true

			z := zone{members: make([]int, len(members)), cases: cases, baseline: baseline}
			copy(z.members, members)
			zones = append(zones, z)
		}
	}

	return zones
}

// byDistanceFrom returns point indices ordered by squared distance from the
// center, the center itself first.
func byDistanceFrom(points []Point, center int) []int {
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	cx, cy := points[center].X, points[center].Y
	sort.SliceStable(order, func(a, b int) bool {
		da := sqDist(points[order[a]].X, points[order[a]].Y, cx, cy)
		db := sqDist(points[order[b]].X, points[order[b]].Y, cx, cy)
		return da < db
	})
	return order
}

func sqDist(x0, y0, x1, y1 float64) float64 {
	dx, dy := x1-x0, y1-y0
	return dx*dx + dy*dy
}

// memberKey builds a dedupe key from sorted member indices.
func memberKey(members []int) string {
	sorted := make([]int, len(members))
	copy(sorted, members)
	sort.Ints(sorted)

	// Compact byte key; indices fit comfortably in two bytes for any city.
	buf := make([]byte, 0, len(sorted)*2)
	for _, m := range sorted {
		buf = append(buf, byte(m>>8), byte(m))
	}
	return string(buf)
}

// poissonLLR is the Poisson log likelihood ratio for a window with c cases
// against an expectation proportional to its baseline share. Zero when the
// window is not elevated.
func poissonLLR(c, baseline, totalCases, totalBaseline int) float64 {
	expected := float64(totalCases) * float64(baseline) / float64(totalBaseline)
	cf := float64(c)
	C := float64(totalCases)
	if cf <= expected || expected == 0 {
		return 0
	}

	llr := cf * math.Log(cf/expected)
	if C > cf {
		llr += (C - cf) * math.Log((C-cf)/(C-expected))
	}
	return llr
}

// simulate redistributes the observed case total across districts in
// proportion to baseline and records the maximum likelihood ratio of each
// replication. Replications run in parallel batches.
func simulate(ctx context.Context, zones []zone, baselines []int, totalCases, totalBaseline, sims int, seed uint64) ([]float64, error) {
	// Cumulative baseline for multinomial draws by binary search.
	cum := make([]int, len(baselines))
	run := 0
	for i, b := range baselines {
		run += b
		cum[i] = run
	}

	maxima := make([]float64, sims)
	workers := runtime.GOMAXPROCS(0)
	if workers > sims {
		workers = sims
	}

	g, gCtx := errgroup.WithContext(ctx)
	per := (sims + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * per
		end := start + per
		if end > sims {
			end = sims
		}
		if start >= end {
			break
		}
		rng := rand.New(rand.NewPCG(seed, uint64(w)))

		g.Go(func() error {
			cases := make([]int, len(baselines))
			for s := start; s < end; s++ {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}

				for i := range cases {
					cases[i] = 0
				}
				for n := 0; n < totalCases; n++ {
					r := rng.IntN(totalBaseline) + 1
					idx := sort.SearchInts(cum, r)
					cases[idx]++
				}

				var best float64
				for _, z := range zones {
					c := 0
					for _, m := range z.members {
						c += cases[m]
					}
					if llr := poissonLLR(c, z.baseline, totalCases, totalBaseline); llr > best {
						best = llr
					}
				}
				maxima[s] = best
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return maxima, nil
}

// selectClusters orders zones by likelihood and greedily keeps significant,
// disjoint zones up to the cap.
func selectClusters(points []Point, zones []zone, totalCases, totalBaseline int, opts Options) []model.Cluster {
	order := make([]int, len(zones))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return zones[order[a]].llr > zones[order[b]].llr
	})

	assigned := make(map[int]bool)
	var clusters []model.Cluster

	for _, zi := range order {
		z := zones[zi]
		if z.pvalue > opts.Alpha || z.llr == 0 {
			continue
		}

		overlap := false
		for _, m := range z.members {
			if assigned[m] {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}

		for _, m := range z.members {
			assigned[m] = true
		}

		ids := make([]string, 0, len(z.members))
		for _, m := range z.members {
			ids = append(ids, points[m].ID)
		}
		sort.Strings(ids)

		clusters = append(clusters, model.Cluster{
			Rank:          len(clusters) + 1,
			DistrictIDs:   ids,
			Cases:         z.cases,
			Baseline:      z.baseline,
			Expected:      float64(totalCases) * float64(z.baseline) / float64(totalBaseline),
			LogLikelihood: z.llr,
			PValue:        z.pvalue,
		})

		if len(clusters) >= opts.MaxClusters {
			break
		}
	}

	return clusters
}

// Assign maps each clustered district to its cluster rank.
func Assign(clusters []model.Cluster) model.ClusterAssignment {
	assignment := make(model.ClusterAssignment)
	for _, c := range clusters {
		for _, id := range c.DistrictIDs {
			assignment[id] = c.Rank
		}
	}
	return assignment
}
