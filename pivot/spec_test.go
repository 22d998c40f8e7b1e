package pivot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specTable() *Table {
	return &Table{
		Columns: []string{"Spec Category", "Product", "Sub Assembly", "Media Type", "Print Mode", "Spec (per K)"},
		Rows: [][]string{
			{"Intervention", "Nova", "Paperpath", "plain, brochure", "", "0.5"},
			{"intervention", "Nova", "Paperpath", "Photo", "Duplex", "3"},
			{"Intervention", "Nova", "Paperpath", "Photo", "Duplex", "4"},
			{"Intervention", "Nova", "Paperpath", "", "", "1.5"},
			{"Intervention", "Nova", "Paperpath", "Envelope", "", "tbd"},
			{"Skew", "", "", "", "", "9"},
		},
	}
}

func TestSpecMatcherNarrowing(t *testing.T) {
	m, err := NewSpecMatcher(specTable(), "Intervention", MatchContext{Product: "Nova", SubAssembly: "Paperpath"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Len())

	cases := []struct {
		name  string
		attrs Attributes
		want  float64
	}{
		{"comma list plain", Attributes{ColMediaType: "Plain"}, 0.5},
		{"comma list brochure", Attributes{ColMediaType: " BROCHURE "}, 0.5},
		{"blank cell is a wildcard", Attributes{ColMediaType: "Labels"}, 1.5},
		{"first of duplicates wins", Attributes{ColMediaType: "Photo", ColPrintMode: "Duplex"}, 3},
		{"print mode mismatch falls back to wildcard", Attributes{ColMediaType: "Photo", ColPrintMode: "Simplex"}, 1.5},
		{"no attributes", Attributes{}, 0.5},
	}
	for _, tc := range cases {
		got, ok := m.Match(tc.attrs)
		require.True(t, ok, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestSpecMatcherContextInjection(t *testing.T) {
	tbl := &Table{
		Columns: []string{"Spec Category", "Product", "Spec (per K)"},
		Rows: [][]string{
			{"Jam", "Orion", "2"},
			{"Jam", "Nova", "7"},
		},
	}
	m, err := NewSpecMatcher(tbl, "Jam", MatchContext{Product: "Nova"}, nil)
	require.NoError(t, err)
	limit, ok := m.Match(Attributes{})
	require.True(t, ok)
	assert.Equal(t, 7.0, limit)

	// a row attribute overrides the run context
	limit, _ = m.Match(Attributes{ColProduct: "orion"})
	assert.Equal(t, 2.0, limit)
}

func TestSpecMatcherEvaluateBoundary(t *testing.T) {
	m, err := NewSpecMatcher(specTable(), "Intervention", MatchContext{}, nil)
	require.NoError(t, err)
	assert.True(t, m.ReportsLimit())

	ev := m.Evaluate(Attributes{ColMediaType: "Plain"}, 0.5)
	assert.Equal(t, OutcomePass, ev.Outcome)
	assert.Equal(t, ptr(0.5), ev.Limit)
	assert.Equal(t, ptr(0.5), ev.Actual)

	ev = m.Evaluate(Attributes{ColMediaType: "Plain"}, 0.5004)
	assert.Equal(t, OutcomePass, ev.Outcome)

	ev = m.Evaluate(Attributes{ColMediaType: "Plain"}, 0.501)
	assert.Equal(t, OutcomeFail, ev.Outcome)
}

func TestNewSpecMatcherErrors(t *testing.T) {
	_, err := NewSpecMatcher(&Table{Columns: []string{"Spec (per K)"}}, "Jam", MatchContext{}, nil)
	assert.ErrorIs(t, err, ErrMissingSpecCategory)

	_, err = NewSpecMatcher(&Table{Columns: []string{"spec category"}}, "Jam", MatchContext{}, nil)
	assert.ErrorIs(t, err, ErrMissingSpecLimit)

	_, err = NewSpecMatcher(specTable(), "Jam", MatchContext{}, nil)
	assert.ErrorIs(t, err, ErrNoSpecRows)

	only := &Table{
		Columns: []string{"Spec Category", "Spec (per K)"},
		Rows:    [][]string{{"Jam", "n/a"}},
	}
	_, err = NewSpecMatcher(only, "Jam", MatchContext{}, nil)
	assert.ErrorIs(t, err, ErrNoSpecRows)
}

func TestClassify(t *testing.T) {
	ev := classify(nil, 1.23456)
	assert.Equal(t, OutcomeSpecNotFound, ev.Outcome)
	assert.Nil(t, ev.Limit)
	assert.Equal(t, ptr(1.235), ev.Actual)

	ev = classify(ptr(2), math.NaN())
	assert.Equal(t, OutcomeNoData, ev.Outcome)
	assert.Nil(t, ev.Actual)

	assert.Equal(t, OutcomePass, classify(ptr(2), 2).Outcome)
	assert.Equal(t, OutcomeFail, classify(ptr(2), 2.001).Outcome)
	assert.Equal(t, OutcomePass, classify(ptr(0), 0).Outcome)
}

func TestEvaluators(t *testing.T) {
	ev := NoSpecEvaluator{}.Evaluate(Attributes{ColMediaType: "Plain"}, 99)
	assert.Equal(t, Evaluation{Outcome: OutcomeNoSpecFile}, ev)
	assert.False(t, NoSpecEvaluator{}.ReportsLimit())

	th := ThresholdEvaluator{Category: npCategory()}
	assert.True(t, th.ReportsLimit())
	assert.Equal(t, OutcomeFail, th.Evaluate(Attributes{ColMediaType: "Plain"}, 0.6).Outcome)
	got := th.Evaluate(Attributes{ColMediaType: "Photo"}, 4.9)
	assert.Equal(t, OutcomePass, got.Outcome)
	assert.Equal(t, ptr(DefaultLimit), got.Limit)
}

func TestParseEvaluationMode(t *testing.T) {
	for in, want := range map[string]EvaluationMode{
		"":           EvalAuto,
		"Spec":       EvalSpec,
		" threshold": EvalThreshold,
		"none":       EvalNone,
	} {
		got, err := ParseEvaluationMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseEvaluationMode("strict")
	assert.Error(t, err)
}

func TestDetect(t *testing.T) {
	tbl := &Table{
		Columns: []string{ColTestName, ColProgramSKU},
		Rows: [][]string{
			{"", ""},
			{"Nova ADF life", "  Nova-X1 Pro  "},
		},
	}
	assert.Equal(t, Detection{Product: "Nova-X1", SubAssembly: SetADF}, Detect(tbl))

	tbl.Rows[1][0] = "Endurance"
	tbl.Rows[1][1] = "Nova CUSLT 2"
	assert.Equal(t, SetPaperpath, DetectSubAssembly(tbl))

	tbl.Rows[1][1] = "Nova"
	assert.Equal(t, SubAssemblyUnknown, DetectSubAssembly(tbl))
	assert.Equal(t, "", DetectProduct(&Table{Columns: []string{ColUnit}}))

	assert.Equal(t, SetADF, SetForSubAssembly("adf"))
	assert.Equal(t, SetPaperpath, SetForSubAssembly(SetPaperpath))
	assert.Equal(t, SetPaperpath, SetForSubAssembly(SubAssemblyUnknown))
}

func TestDetectSpecSheet(t *testing.T) {
	tbl := &Table{
		Columns: []string{ColProgramSKU},
		Rows:    [][]string{{"Nova X1 base"}, {"Orion 220"}},
	}
	assert.Equal(t, "ORION", DetectSpecSheet(tbl, []string{"Summary", " ", "ORION", "Nova"}))
	assert.Equal(t, "", DetectSpecSheet(tbl, []string{"Vega"}))
	assert.Equal(t, "", DetectSpecSheet(&Table{Columns: []string{ColUnit}}, []string{"Nova"}))
}
