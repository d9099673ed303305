package comparison

import (
	"math/rand"
	"sort"
	"time"

	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
	"gonum.org/v1/gonum/stat"

	"github.com/willbeason/coding-reliability/pkg/agreement"
	"github.com/willbeason/coding-reliability/pkg/coding"
)

// An Interval is a percentile bootstrap confidence interval.
type Interval struct {
	Low     float64
	High    float64
	Defined bool
}

// A BootstrapResult holds percentile 95% confidence intervals for the mean
// inter- and intra-rater Kappa of one analysis, estimated by resampling
// rows with replacement.
type BootstrapResult struct {
	Iterations int
	Seed       int64
	Inter      Interval
	Intra      Interval
}

// Bootstrap resamples the table's rows with replacement and recomputes the
// mean inter- and intra-rater Kappa each iteration. Iterations producing
// undefined means (a constant resampled series) are discarded.
//
// progress may be nil; when set, a bar tracks iterations.
func Bootstrap(table *coding.Table, iterations int, seed int64, progress *mpb.Progress) BootstrapResult {
	result := BootstrapResult{Iterations: iterations, Seed: seed}
	if iterations <= 0 || len(table.Rows) == 0 {
		return result
	}

	var bar *mpb.Bar
	var start time.Time
	if progress != nil {
		bar = progress.AddBar(int64(iterations),
			mpb.AppendDecorators(decor.AverageETA(decor.ET_STYLE_GO)),
			mpb.PrependDecorators(decor.Name("bootstrap")),
			mpb.PrependDecorators(decor.CountersNoUnit("%d/%d", decor.WCSyncSpace)),
			mpb.BarRemoveOnComplete())
		start = time.Now()
	}

	rng := rand.New(rand.NewSource(seed))
	n := len(table.Rows)

	var interMeans, intraMeans []float64
	sample := make([]coding.Row, n)
	for iteration := 0; iteration < iterations; iteration++ {
		for i := range sample {
			sample[i] = table.Rows[rng.Intn(n)]
		}

		inter, intra := agreement.MeanKappas(sample)
		if inter.Defined {
			interMeans = append(interMeans, inter.Value)
		}
		if intra.Defined {
			intraMeans = append(intraMeans, intra.Value)
		}

		if bar != nil {
			bar.IncrBy(1, time.Since(start))
		}
	}

	result.Inter = percentileInterval(interMeans)
	result.Intra = percentileInterval(intraMeans)
	return result
}

// percentileInterval returns the empirical [2.5%, 97.5%] interval.
func percentileInterval(values []float64) Interval {
	if len(values) < 2 {
		return Interval{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Interval{
		Low:     stat.Quantile(0.025, stat.Empirical, sorted, nil),
		High:    stat.Quantile(0.975, stat.Empirical, sorted, nil),
		Defined: true,
	}
}
