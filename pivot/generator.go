package pivot

import (
	"fmt"

	"go.uber.org/zap"

	"yashubustudio/lifetest/internal/metrics"
)

// GeneratorOptions carries the optional collaborators of a Generator.
type GeneratorOptions struct {
	Aliases   []AliasGroup
	Resolvers ResolverChain
	Logger    *zap.Logger
	Recorder  *metrics.Recorder
}

// Generator builds the pivots of one category. It owns a normalized copy of
// the raw table, so generators for different categories can run at the same
// time.
type Generator struct {
	category  *Category
	prepared  *Prepared
	evaluator Evaluator
	logger    *zap.Logger
	recorder  *metrics.Recorder
}

// NewGenerator normalizes raw and prepares the category's metrics. A nil
// evaluator marks every row NO SPEC FILE.
func NewGenerator(raw *Table, cat *Category, ev Evaluator, opts GeneratorOptions) (*Generator, error) {
	if cat == nil {
		return nil, fmt.Errorf("generator: category is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	aliases := opts.Aliases
	if aliases == nil {
		aliases = DefaultAliases()
	}
	if ev == nil {
		ev = NoSpecEvaluator{}
	}
	table, renames := NormalizeColumns(raw, aliases)
	for _, r := range renames {
		logger.Debug("column renamed", zap.String("category", cat.Name), zap.String("from", r.From), zap.String("to", r.To))
	}
	prep := &Preparer{Resolvers: opts.Resolvers, Logger: logger, Recorder: opts.Recorder}
	prepared, err := prep.Prepare(table, cat)
	if err != nil {
		return nil, fmt.Errorf("prepare %s: %w", cat.Name, err)
	}
	return &Generator{
		category:  cat,
		prepared:  prepared,
		evaluator: ev,
		logger:    logger,
		recorder:  opts.Recorder,
	}, nil
}

// Category returns the category being generated.
func (g *Generator) Category() *Category { return g.category }

// Prepared exposes the prepared metrics.
func (g *Generator) Prepared() *Prepared { return g.prepared }

// Warnings returns the data-shape warnings raised while preparing.
func (g *Generator) Warnings() []string { return cloneStrings(g.prepared.Warnings) }

// ByMedia builds the pivot grouped down to media name.
func (g *Generator) ByMedia() *Pivot { return g.Pivot(ViewMedia) }

// ByUnit builds the pivot grouped down to test unit.
func (g *Generator) ByUnit() *Pivot { return g.Pivot(ViewUnit) }

// Pivot aggregates, adds grand totals and evaluates every row. The media view
// only gets grand totals when Media Name is one of several dimensions; the
// unit view always does.
func (g *Generator) Pivot(view View) *Pivot {
	dims := BuildDimensionColumns(g.prepared.Table.Columns, g.category, view)
	rows := Aggregate(g.prepared, dims)
	terminal := TerminalColumn(view)
	if view == ViewUnit || (len(dims) > 1 && dims[len(dims)-1] == terminal) {
		rows = WithGrandTotals(rows, dims, terminal)
	}
	p := &Pivot{
		Category:    g.category.Name,
		View:        view,
		Dimensions:  dims,
		Metrics:     g.prepared.MetricNames(),
		TotalColumn: g.category.TotalColumn,
		HasLimit:    g.evaluator.ReportsLimit(),
		Rows:        rows,
	}
	for i := range p.Rows {
		p.Rows[i].Evaluation = g.evaluator.Evaluate(p.Attributes(p.Rows[i]), p.Rows[i].Total)
		g.recorder.ObserveOutcome(p.Category, string(view), string(p.Rows[i].Evaluation.Outcome))
	}
	g.logger.Debug("pivot built",
		zap.String("category", p.Category),
		zap.String("view", string(view)),
		zap.Strings("dimensions", dims),
		zap.Int("rows", len(p.Rows)))
	return p
}
