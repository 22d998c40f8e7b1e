package pivot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/lifetest/internal/metrics"
)

func scenarioGenerator(t *testing.T, rec *metrics.Recorder) *Generator {
	t.Helper()
	cat := npCategory()
	gen, err := NewGenerator(scenarioTable(), cat, ThresholdEvaluator{Category: cat}, GeneratorOptions{Recorder: rec})
	require.NoError(t, err)
	return gen
}

func TestGeneratorByMedia(t *testing.T) {
	rec := metrics.NewRecorder()
	p := scenarioGenerator(t, rec).ByMedia()

	assert.Equal(t, []string{ColMediaType, ColMediaName}, p.Dimensions)
	assert.True(t, p.HasLimit)
	assert.Equal(t,
		[]string{ColMediaType, ColMediaName, ColPages, "NP/K", "Sum of Total Intervention", ColSpecLimit, ColResult},
		p.Header())

	want := [][]string{
		{"Photo", "HP Photo", "1000", "2", "2", "5", "PASS"},
		{"Plain", "HP Plain", "2000", "2", "2", "0.58", "FAIL"},
	}
	if diff := cmp.Diff(want, p.Records()); diff != "" {
		t.Fatalf("media pivot mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, p.DetailRows(), 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.PivotRows.WithLabelValues("Intervention", "media", "FAIL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.PivotRows.WithLabelValues("Intervention", "media", "PASS")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.ColumnResolutions.WithLabelValues("exact")))
}

func TestGeneratorByUnit(t *testing.T) {
	p := scenarioGenerator(t, nil).ByUnit()

	assert.Equal(t, []string{ColMediaType, ColUnit}, p.Dimensions)
	want := [][]string{
		{"Photo", "U1", "500", "0", "0", "5", "PASS"},
		{"Photo", "U2", "500", "4", "4", "5", "PASS"},
		{"Photo", GrandTotalLabel, "1000", "2", "2", "5", "PASS"},
		{"Plain", "U1", "1000", "1", "1", "0.58", "FAIL"},
		{"Plain", "U2", "1000", "3", "3", "0.58", "FAIL"},
		{"Plain", GrandTotalLabel, "2000", "2", "2", "0.58", "FAIL"},
	}
	if diff := cmp.Diff(want, p.Records()); diff != "" {
		t.Fatalf("unit pivot mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, p.DetailRows(), 4)
	assert.True(t, p.Rows[2].GrandTotal)
}

func TestGeneratorLeavesRawTableAlone(t *testing.T) {
	raw := scenarioTable()
	raw.Columns[2] = "Unit#"
	before := raw.Clone()

	cat := npCategory()
	gen, err := NewGenerator(raw, cat, nil, GeneratorOptions{})
	require.NoError(t, err)
	assert.Equal(t, before, raw)

	p := gen.ByUnit()
	assert.False(t, p.HasLimit)
	assert.NotContains(t, p.Header(), ColSpecLimit)
	for _, r := range p.Rows {
		assert.Equal(t, OutcomeNoSpecFile, r.Evaluation.Outcome)
	}
	assert.Empty(t, gen.Warnings())
}

func TestNewGeneratorErrors(t *testing.T) {
	_, err := NewGenerator(scenarioTable(), nil, nil, GeneratorOptions{})
	assert.Error(t, err)

	raw := &Table{Columns: []string{ColMediaType, "NP_Top"}, Rows: [][]string{{"Plain", "1"}}}
	_, err = NewGenerator(raw, npCategory(), nil, GeneratorOptions{})
	assert.ErrorIs(t, err, ErrNoPageCount)
}

func scenarioResult(t *testing.T) *Result {
	t.Helper()
	gen := scenarioGenerator(t, nil)
	return &Result{
		Set:  "Bench",
		Mode: EvalThreshold,
		Categories: []CategoryResult{{
			Category: gen.Category(),
			Name:     gen.Category().Name,
			Media:    gen.ByMedia(),
			Unit:     gen.ByUnit(),
		}},
	}
}

func TestSummarize(t *testing.T) {
	res := scenarioResult(t)
	// a category with no media view is ignored
	res.Categories = append(res.Categories, CategoryResult{Name: "Empty"})

	sum := Summarize(res)
	require.Len(t, sum.Categories, 1)
	want := CategorySummary{
		Category:     "Intervention",
		Pass:         1,
		Fail:         1,
		FailRate:     50,
		WorstColumns: []ColumnScore{{Column: "NP/K", Value: 4}},
	}
	if diff := cmp.Diff(want, sum.Categories[0]); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, sum.Worst)
	assert.Equal(t, "Intervention", sum.Worst.Category)

	text := sum.Text()
	assert.Contains(t, text, "PIVOT TABLE SUMMARY")
	assert.Contains(t, text, "Category: Intervention\n  Pass: 1\n  Fail: 1\n  Fail Rate: 50%")
	assert.Contains(t, text, "     - NP/K: 4\n")
	assert.Contains(t, text, "WORST PERFORMING CATEGORY: Intervention")

	recs := sum.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, 1, recs[0].TotalFail)
	assert.Equal(t, 50.0, recs[0].FailRate)

	assert.Empty(t, Summarize(nil).Categories)
}

func TestSummarizeRanksWorstColumns(t *testing.T) {
	p := &Pivot{
		Category: "Soft Error",
		View:     ViewMedia,
		Metrics:  []string{"A", "B", "C", "D"},
		Rows: []Row{
			{Rates: []float64{1, 5, 0, 2}, Evaluation: Evaluation{Outcome: OutcomeFail}},
			{Rates: []float64{1, 1, 0, 2}, Evaluation: Evaluation{Outcome: OutcomeNoSpecFile}},
			{Rates: []float64{9, 9, 9, 9}, GrandTotal: true, Evaluation: Evaluation{Outcome: OutcomeFail}},
		},
	}
	cs := summarizePivot(p.Category, p)
	assert.Equal(t, 0, cs.Pass)
	assert.Equal(t, 1, cs.Fail)
	assert.Equal(t, 100.0, cs.FailRate)
	assert.Equal(t, []ColumnScore{{"B/K", 6}, {"D/K", 4}, {"A/K", 2}}, cs.WorstColumns)
}
