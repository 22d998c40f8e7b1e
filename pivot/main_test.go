package pivot

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func npCategory() *Category {
	return &Category{
		Name:        "Intervention",
		TotalColumn: "Sum of Total Intervention",
		Thresholds:  map[string]Threshold{"Plain": Flat(0.58)},
		Metrics: []MetricSpec{
			{Name: "NP", Sources: []string{"NP_Top", "NP_Bottom"}},
		},
	}
}

// scenarioTable is four rows over two media types with NP split across two
// source columns.
func scenarioTable() *Table {
	return &Table{
		Columns: []string{ColMediaType, ColMediaName, ColUnit, ColPages, "NP_Top", "NP_Bottom"},
		Rows: [][]string{
			{"Plain", "HP Plain", "U1", "1000", "1", "0"},
			{"Plain", "HP Plain", "U2", "1000", "1", "2"},
			{"Photo", "HP Photo", "U1", "500", "0", "0"},
			{"Photo", "HP Photo", "U2", "500", "2", "0"},
		},
	}
}

func ptr(v float64) *float64 { return &v }
