package pivot

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

const keySep = "\x1f"

// Aggregate groups prepared rows by dims and derives per-K rates. Missing
// dimension values form their own group. Groups are ordered by their
// dimension values, numerically where both sides are numbers, with missing
// values last. A group with zero pages gets 0.0 for every rate.
func Aggregate(p *Prepared, dims []string) []Row {
	cols := make([]int, len(dims))
	for i, d := range dims {
		cols[i] = p.Table.Index(d)
	}
	nm := len(p.Metrics)
	groups := make(map[string]*Row)
	var order []*Row
	for r := 0; r < p.Table.Len(); r++ {
		values := make([]string, len(dims))
		for i, c := range cols {
			values[i] = p.Table.Cell(r, c)
		}
		key := strings.Join(values, keySep)
		g, ok := groups[key]
		if !ok {
			g = &Row{Dims: values, Counts: make([]float64, nm)}
			groups[key] = g
			order = append(order, g)
		}
		g.Pages += p.Pages[r]
		for m := range p.Metrics {
			g.Counts[m] += p.Metrics[m].Values[r]
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return compareDims(order[i].Dims, order[j].Dims) < 0
	})
	rows := make([]Row, len(order))
	for i, g := range order {
		g.Rates = make([]float64, nm)
		for m, c := range g.Counts {
			g.Rates[m] = PerK(c, g.Pages)
		}
		g.Total = SumRates(g.Rates)
		rows[i] = *g
	}
	return rows
}

// WithGrandTotals interleaves a weighted grand-total row after every block of
// siblings that share all dimensions except terminal. Blocks of one row get
// no total. Rows are returned unchanged when terminal is not a dimension.
func WithGrandTotals(rows []Row, dims []string, terminal string) []Row {
	ti := -1
	for i, d := range dims {
		if d == terminal {
			ti = i
			break
		}
	}
	if ti < 0 {
		return rows
	}
	type block struct{ members []int }
	blocks := make(map[string]*block)
	var order []*block
	for i, r := range rows {
		key := rollupKey(r.Dims, ti)
		b, ok := blocks[key]
		if !ok {
			b = &block{}
			blocks[key] = b
			order = append(order, b)
		}
		b.members = append(b.members, i)
	}
	out := make([]Row, 0, len(rows)+len(order))
	for _, b := range order {
		for _, i := range b.members {
			out = append(out, rows[i])
		}
		if len(b.members) > 1 {
			out = append(out, grandTotal(rows, b.members, ti))
		}
	}
	return out
}

func grandTotal(rows []Row, members []int, terminal int) Row {
	first := rows[members[0]]
	dims := cloneStrings(first.Dims)
	dims[terminal] = GrandTotalLabel
	nm := len(first.Rates)
	gt := Row{
		Dims:       dims,
		Counts:     make([]float64, len(first.Counts)),
		Rates:      make([]float64, nm),
		GrandTotal: true,
	}
	weighted := make([]float64, nm)
	var weightedTotal float64
	for _, i := range members {
		r := rows[i]
		gt.Pages += r.Pages
		for m := range r.Counts {
			gt.Counts[m] += r.Counts[m]
		}
		for m := 0; m < nm; m++ {
			weighted[m] += r.Rates[m] * r.Pages / 1000
		}
		weightedTotal += r.Total * r.Pages / 1000
	}
	for m := range weighted {
		gt.Rates[m] = weightedRate(weighted[m], gt.Pages)
	}
	gt.Total = weightedRate(weightedTotal, gt.Pages)
	return gt
}

// PerK is round(count/pages*1000, 3), or 0 when pages is 0.
func PerK(count, pages float64) float64 {
	if pages == 0 {
		return 0
	}
	return Round3(count / pages * 1000)
}

// SumRates is the rounded sum of per-K rates.
func SumRates(rates []float64) float64 {
	if len(rates) == 0 {
		return 0
	}
	total, err := stats.Sum(stats.Float64Data(rates))
	if err != nil {
		return 0
	}
	return Round3(total)
}

func weightedRate(weighted, pages float64) float64 {
	if pages == 0 {
		return 0
	}
	return Round3(weighted / pages * 1000)
}

// Round3 rounds half away from zero to three decimals. NaN passes through.
func Round3(v float64) float64 {
	return roundTo(v, 3)
}

func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) {
		return v
	}
	r, err := stats.Round(v, places)
	if err != nil {
		return v
	}
	return r
}

func rollupKey(dims []string, skip int) string {
	parts := make([]string, 0, len(dims))
	for i, d := range dims {
		if i != skip {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, keySep)
}

func compareDims(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareValue(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareValue(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	}
	return strings.Compare(a, b)
}
