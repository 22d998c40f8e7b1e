package pivot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrMissingSpecCategory means the spec sheet lacks a "Spec Category" column.
	ErrMissingSpecCategory = errors.New(`spec sheet has no "` + ColSpecCategory + `" column`)
	// ErrMissingSpecLimit means the spec sheet lacks a "Spec (per K)" column.
	ErrMissingSpecLimit = errors.New(`spec sheet has no "` + ColSpecPerK + `" column`)
	// ErrNoSpecRows means no usable spec row exists for the category.
	ErrNoSpecRows = errors.New("no spec rows for category")
)

// matchPriority is the order in which attributes narrow spec candidates.
var matchPriority = []string{
	ColProduct,
	ColSubAssembly,
	ColTestCondition,
	ColInputTray,
	ColPrintMode,
	ColMediaType,
	ColMediaCat,
	ColPrintQuality,
}

// MatchContext carries run-wide attributes that are not pivot dimensions.
type MatchContext struct {
	Product     string
	SubAssembly string
}

// SpecMatcher finds the applicable limit for a row in a category-scoped spec
// table.
type SpecMatcher struct {
	category string
	base     MatchContext
	columns  map[string]int
	rows     [][]string
	limits   []float64
}

// NewSpecMatcher keeps the rows of table whose Spec Category equals category
// (case-insensitive). Rows whose limit is not a number are skipped with a
// warning.
func NewSpecMatcher(table *Table, category string, base MatchContext, logger *zap.Logger) (*SpecMatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	catCol := specColumn(table, ColSpecCategory)
	if catCol < 0 {
		return nil, ErrMissingSpecCategory
	}
	limitCol := specColumn(table, ColSpecPerK)
	if limitCol < 0 {
		return nil, ErrMissingSpecLimit
	}
	m := &SpecMatcher{
		category: category,
		base:     base,
		columns:  make(map[string]int),
	}
	for _, attr := range matchPriority {
		if idx := specColumn(table, attr); idx >= 0 {
			m.columns[attr] = idx
		}
	}
	want := strings.TrimSpace(category)
	for r := range table.Rows {
		if !strings.EqualFold(strings.TrimSpace(table.Cell(r, catCol)), want) {
			continue
		}
		raw := strings.TrimSpace(table.Cell(r, limitCol))
		limit, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logger.Warn("spec row skipped, limit is not a number",
				zap.String("category", category),
				zap.Int("row", r+1),
				zap.String("value", raw))
			continue
		}
		m.rows = append(m.rows, table.Rows[r])
		m.limits = append(m.limits, limit)
	}
	if len(m.rows) == 0 {
		return nil, fmt.Errorf("%w %q", ErrNoSpecRows, category)
	}
	return m, nil
}

// Len returns the number of candidate rows for the category.
func (m *SpecMatcher) Len() int { return len(m.rows) }

// ReportsLimit is always true for spec matching.
func (m *SpecMatcher) ReportsLimit() bool { return true }

// Evaluate narrows the candidates attribute by attribute in priority order.
// A blank spec cell matches anything and a comma list matches any of its
// entries. A step that would leave no candidates is skipped, and narrowing
// stops once a single row is left. The first remaining row in sheet order
// supplies the limit.
func (m *SpecMatcher) Evaluate(attrs Attributes, total float64) Evaluation {
	limit, ok := m.Match(attrs)
	if !ok {
		return classify(nil, total)
	}
	return classify(&limit, total)
}

// Match returns the selected limit for attrs.
func (m *SpecMatcher) Match(attrs Attributes) (float64, bool) {
	candidates := make([]int, len(m.rows))
	for i := range candidates {
		candidates[i] = i
	}
	for _, a := range m.context(attrs) {
		col, ok := m.columns[a.name]
		if !ok {
			continue
		}
		next := make([]int, 0, len(candidates))
		for _, i := range candidates {
			if cellMatches(cellAt(m.rows[i], col), a.value) {
				next = append(next, i)
			}
		}
		if len(next) > 0 {
			candidates = next
		}
		if len(candidates) == 1 {
			break
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	return m.limits[candidates[0]], true
}

type attribute struct {
	name  string
	value string
}

func (m *SpecMatcher) context(attrs Attributes) []attribute {
	out := make([]attribute, 0, len(matchPriority))
	for _, name := range matchPriority {
		v := attrs[name]
		if v == "" {
			switch name {
			case ColProduct:
				v = m.base.Product
			case ColSubAssembly:
				v = m.base.SubAssembly
			}
		}
		v = matchKey(v)
		if v == "" || isNullToken(v) {
			continue
		}
		out = append(out, attribute{name: name, value: v})
	}
	return out
}

func cellMatches(cell, value string) bool {
	cell = strings.TrimSpace(cell)
	if cell == "" || isNullToken(cell) {
		return true
	}
	for _, tok := range strings.Split(cell, ",") {
		if matchKey(tok) == value {
			return true
		}
	}
	return false
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func specColumn(t *Table, name string) int {
	for i, col := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}
