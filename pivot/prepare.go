package pivot

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"yashubustudio/lifetest/internal/metrics"
)

// ErrNoPageCount is returned when no page-count column survives normalization.
var ErrNoPageCount = errors.New("no page-count column (" + ColPages + ")")

// MetricColumn is one prepared numeric metric.
type MetricColumn struct {
	Name    string
	Values  []float64
	Sources []ColumnRef
}

// Prepared is a normalized table plus numeric page counts and metric columns
// aligned with its rows. The table itself is not modified.
type Prepared struct {
	Table    *Table
	Pages    []float64
	Metrics  []MetricColumn
	Warnings []string
}

// MetricNames lists the resolved metrics in catalog order.
func (p *Prepared) MetricNames() []string {
	out := make([]string, len(p.Metrics))
	for i, m := range p.Metrics {
		out[i] = m.Name
	}
	return out
}

// Preparer turns raw defect columns into numeric metrics.
type Preparer struct {
	Resolvers ResolverChain
	Logger    *zap.Logger
	Recorder  *metrics.Recorder
}

// Prepare builds one numeric column per catalog metric. Missing sources never
// fail the call: they drop the metric and leave a warning. Duplicate page
// count columns are summed row-wise.
func (p *Preparer) Prepare(t *Table, cat *Category) (*Prepared, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resolvers := p.Resolvers
	if len(resolvers) == 0 {
		resolvers = DefaultResolvers()
	}
	out := &Prepared{Table: t}
	logger = logger.With(zap.String("category", cat.Name))
	warn := func(text string, fields ...zap.Field) {
		logger.Warn(text, fields...)
		out.Warnings = append(out.Warnings, text)
	}

	pageCols := t.Indices(ColPages)
	if len(pageCols) == 0 {
		return nil, ErrNoPageCount
	}
	if len(pageCols) > 1 {
		warn(fmt.Sprintf("%d %s columns summed row-wise", len(pageCols), ColPages), zap.Int("columns", len(pageCols)))
	}
	out.Pages = sumColumns(t, pageCols)

	for _, spec := range cat.Metrics {
		var refs []ColumnRef
		var missing []string
		for _, name := range spec.Columns() {
			ref, err := resolvers.Resolve(t.Columns, name)
			if err != nil {
				missing = append(missing, name)
				continue
			}
			if ref.Strategy != "exact" {
				logger.Debug("fuzzy column match",
					zap.String("metric", spec.Name),
					zap.String("configured", name),
					zap.String("column", ref.Name))
			}
			p.Recorder.ColumnResolved(ref.Strategy)
			if containsRef(refs, ref.Index) {
				continue
			}
			refs = append(refs, ref)
		}
		if len(refs) == 0 {
			p.Recorder.MetricDropped(cat.Name)
			warn(fmt.Sprintf("metric %q dropped: none of %s found", spec.Name, strings.Join(spec.Columns(), ", ")),
				zap.String("metric", spec.Name))
			continue
		}
		if spec.Multi() && len(missing) > 0 {
			warn(fmt.Sprintf("metric %q partially matched: %d of %d columns, missing %s",
				spec.Name, len(refs), len(refs)+len(missing), strings.Join(missing, ", ")),
				zap.String("metric", spec.Name),
				zap.Int("found", len(refs)),
				zap.Int("expected", len(refs)+len(missing)),
				zap.Strings("missing", missing))
		}
		idx := make([]int, len(refs))
		for i, r := range refs {
			idx[i] = r.Index
		}
		out.Metrics = append(out.Metrics, MetricColumn{
			Name:    spec.Name,
			Values:  sumColumns(t, idx),
			Sources: refs,
		})
	}
	return out, nil
}

func sumColumns(t *Table, cols []int) []float64 {
	out := make([]float64, t.Len())
	for r := range out {
		for _, c := range cols {
			out[r] += ParseNumber(t.Cell(r, c))
		}
	}
	return out
}

// ParseNumber reads a numeric cell; anything non-numeric is 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func containsRef(refs []ColumnRef, idx int) bool {
	for _, r := range refs {
		if r.Index == idx {
			return true
		}
	}
	return false
}
