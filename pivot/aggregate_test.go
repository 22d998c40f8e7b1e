package pivot

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prepare(t *testing.T, tbl *Table, cat *Category) *Prepared {
	t.Helper()
	p, err := (&Preparer{}).Prepare(tbl, cat)
	require.NoError(t, err)
	return p
}

func singleMetric(name string) *Category {
	return &Category{Name: "Test", TotalColumn: "Sum", Metrics: []MetricSpec{{Name: name}}}
}

func TestRateFormulaExact(t *testing.T) {
	tbl := &Table{
		Columns: []string{ColMediaType, ColPages, "M"},
		Rows: [][]string{
			{"Plain", "1200", "3"},
			{"Plain", "800", "4"},
		},
	}
	rows := Aggregate(prepare(t, tbl, singleMetric("M")), []string{ColMediaType})
	require.Len(t, rows, 1)
	assert.Equal(t, 2000.0, rows[0].Pages)
	assert.Equal(t, 7.0, rows[0].Counts[0])
	assert.Equal(t, 3.5, rows[0].Rates[0])
	assert.Equal(t, 3.5, rows[0].Total)
}

func TestPerKRounding(t *testing.T) {
	assert.Equal(t, 0.333, PerK(1, 3000))
	assert.Equal(t, 0.667, PerK(2, 3000))
	assert.Equal(t, 0.0, PerK(5, 0))
	// exact halves round away from zero
	assert.Equal(t, 0.063, PerK(1, 16000))
	assert.Equal(t, 1.5, SumRates([]float64{0.5, 1.0}))
	assert.Equal(t, 0.0, SumRates(nil))
}

func TestWeightedGrandTotal(t *testing.T) {
	tbl := &Table{
		Columns: []string{ColMediaType, ColMediaName, ColPages, "M"},
		Rows: [][]string{
			{"Plain", "A", "1000", "2"},
			{"Plain", "B", "3000", "18"},
		},
	}
	dims := []string{ColMediaType, ColMediaName}
	rows := WithGrandTotals(Aggregate(prepare(t, tbl, singleMetric("M")), dims), dims, ColMediaName)
	require.Len(t, rows, 3)
	assert.Equal(t, 2.0, rows[0].Rates[0])
	assert.Equal(t, 6.0, rows[1].Rates[0])

	gt := rows[2]
	assert.True(t, gt.GrandTotal)
	assert.Equal(t, []string{"Plain", GrandTotalLabel}, gt.Dims)
	assert.Equal(t, 4000.0, gt.Pages)
	assert.Equal(t, 5.0, gt.Rates[0])
	assert.Equal(t, 5.0, gt.Total)
	assert.Equal(t, 20.0, gt.Counts[0])
}

func TestGrandTotalSuppressedForSingleRow(t *testing.T) {
	rows := []Row{
		{Dims: []string{"Plain", "A"}, Pages: 100, Rates: []float64{1}, Counts: []float64{0.1}, Total: 1},
		{Dims: []string{"Photo", "B"}, Pages: 100, Rates: []float64{2}, Counts: []float64{0.2}, Total: 2},
		{Dims: []string{"Photo", "C"}, Pages: 300, Rates: []float64{4}, Counts: []float64{1.2}, Total: 4},
	}
	out := WithGrandTotals(rows, []string{ColMediaType, ColMediaName}, ColMediaName)
	require.Len(t, out, 4)
	assert.False(t, out[0].GrandTotal)
	assert.Equal(t, []string{"Photo", GrandTotalLabel}, out[3].Dims)
	assert.Equal(t, 3.5, out[3].Rates[0])

	// without the terminal column nothing is added
	assert.Len(t, WithGrandTotals(rows, []string{ColMediaType, ColMediaName}, ColUnit), 3)
}

func TestGrandTotalZeroWeight(t *testing.T) {
	tbl := &Table{
		Columns: []string{ColMediaType, ColUnit, ColPages, "M", "N"},
		Rows: [][]string{
			{"Plain", "U1", "0", "4", "1"},
			{"Plain", "U2", "", "2", "x"},
		},
	}
	cat := &Category{Name: "Test", TotalColumn: "Sum", Metrics: []MetricSpec{{Name: "M"}, {Name: "N"}}}
	dims := []string{ColMediaType, ColUnit}
	rows := WithGrandTotals(Aggregate(prepare(t, tbl, cat), dims), dims, ColUnit)
	require.Len(t, rows, 3)
	for _, r := range rows {
		for _, v := range r.Rates {
			assert.Equal(t, 0.0, v)
			assert.False(t, math.IsNaN(v))
		}
		assert.Equal(t, 0.0, r.Total)
	}
	assert.True(t, rows[2].GrandTotal)
}

func TestAggregateOrderingAndMissingValues(t *testing.T) {
	tbl := &Table{
		Columns: []string{ColUnit, ColPages, "M"},
		Rows: [][]string{
			{"10", "100", "1"},
			{"", "100", "1"},
			{"9", "100", "1"},
			{"B", "100", "1"},
			{"", "100", "1"},
			{"A", "100", "1"},
		},
	}
	rows := Aggregate(prepare(t, tbl, singleMetric("M")), []string{ColUnit})
	var units []string
	for _, r := range rows {
		units = append(units, r.Dims[0])
	}
	assert.Equal(t, []string{"9", "10", "A", "B", ""}, units)
	assert.Equal(t, 200.0, rows[4].Pages)
}

func TestBuildDimensionColumns(t *testing.T) {
	available := []string{ColUnit, ColMediaName, ColPrintQuality, ColMediaType, ColTestCondition, ColPrintMode, "NP"}
	skew := &Category{Name: "Skew", ExtraGrouping: []string{ColPrintQuality, "Missing"}}

	cases := []struct {
		name string
		cat  *Category
		view View
		cols []string
		want []string
	}{
		{"media", npCategory(), ViewMedia, available,
			[]string{ColTestCondition, ColMediaType, ColPrintMode, ColMediaName}},
		{"unit", npCategory(), ViewUnit, available,
			[]string{ColTestCondition, ColMediaType, ColPrintMode, ColUnit}},
		{"extra grouping", skew, ViewMedia, available,
			[]string{ColTestCondition, ColMediaType, ColPrintMode, ColPrintQuality, ColMediaName}},
		{"no media name", nil, ViewMedia, []string{ColMediaType},
			[]string{ColMediaType}},
		{"unit always present", nil, ViewUnit, []string{ColMediaType},
			[]string{ColMediaType, ColUnit}},
	}
	for _, tc := range cases {
		got := BuildDimensionColumns(tc.cols, tc.cat, tc.view)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%s: dimensions mismatch (-want +got):\n%s", tc.name, diff)
		}
	}
	assert.Equal(t, ColMediaName, TerminalColumn(ViewMedia))
	assert.Equal(t, ColUnit, TerminalColumn(ViewUnit))
}

func TestPrepareRepairsAndWarns(t *testing.T) {
	tbl := &Table{
		Columns: []string{ColPages, ColPages, "NP_Top", "np-bottom"},
		Rows: [][]string{
			{"600", "400", "1", "2"},
			{"bad", "500", "", "1"},
		},
	}
	cat := &Category{
		Name:        "Intervention",
		TotalColumn: "Sum",
		Metrics: []MetricSpec{
			{Name: "NP", Sources: []string{"NP_Top", "NP_Bottom", "NP_Last Page"}},
			{Name: "Gone", Sources: []string{"X1", "X2"}},
			{Name: "Top", Sources: []string{"NP_Top", "NP Top"}},
		},
	}
	p := prepare(t, tbl, cat)
	assert.Equal(t, []float64{1000, 500}, p.Pages)
	assert.Equal(t, []string{"NP", "Top"}, p.MetricNames())
	assert.Equal(t, []float64{3, 1}, p.Metrics[0].Values)
	assert.Equal(t, "fuzzy", p.Metrics[0].Sources[1].Strategy)
	// both sources resolve to one column, which is counted once
	assert.Equal(t, []float64{1, 0}, p.Metrics[1].Values)
	require.Len(t, p.Warnings, 3)
	assert.Contains(t, p.Warnings[0], "summed")
	assert.Contains(t, p.Warnings[1], "partially matched")
	assert.Contains(t, p.Warnings[2], `"Gone" dropped`)
}

func TestPrepareWithoutPageCount(t *testing.T) {
	_, err := (&Preparer{}).Prepare(&Table{Columns: []string{"NP"}}, singleMetric("NP"))
	assert.ErrorIs(t, err, ErrNoPageCount)
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 12.5, ParseNumber(" 12.5 "))
	assert.Equal(t, 0.0, ParseNumber(""))
	assert.Equal(t, 0.0, ParseNumber("n/a"))
	assert.Equal(t, 0.0, ParseNumber("NaN"))
	assert.Equal(t, 0.0, ParseNumber("+Inf"))
}
