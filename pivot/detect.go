package pivot

import "strings"

// SubAssemblyUnknown is reported when neither Test Name nor Program & SKU
// names a sub-assembly.
const SubAssemblyUnknown = "Unknown"

// Detection is what a raw table says about its own context.
type Detection struct {
	Product     string `json:"product"`
	SubAssembly string `json:"subAssembly"`
}

// Detect reads product and sub-assembly from a normalized table.
func Detect(t *Table) Detection {
	return Detection{
		Product:     DetectProduct(t),
		SubAssembly: DetectSubAssembly(t),
	}
}

// DetectProduct returns the first word of the first Program & SKU value.
func DetectProduct(t *Table) string {
	fields := strings.Fields(t.FirstValue(ColProgramSKU))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// DetectSubAssembly classifies the run as ADF or Paperpath from the first
// Test Name, falling back to the first Program & SKU value.
func DetectSubAssembly(t *Table) string {
	for _, col := range []string{ColTestName, ColProgramSKU} {
		if sub := subAssemblyOf(t.FirstValue(col)); sub != "" {
			return sub
		}
	}
	return SubAssemblyUnknown
}

func subAssemblyOf(v string) string {
	v = strings.ToLower(v)
	switch {
	case v == "":
		return ""
	case strings.Contains(v, "adf"):
		return SetADF
	case strings.Contains(v, "paperpath"), strings.Contains(v, "cuslt"):
		return SetPaperpath
	}
	return ""
}

// SetForSubAssembly maps a detected sub-assembly to a category set name.
// Anything that is not ADF runs the Paperpath set.
func SetForSubAssembly(sub string) string {
	if strings.EqualFold(sub, SetADF) {
		return SetADF
	}
	return SetPaperpath
}

// DetectSpecSheet returns the first sheet whose name occurs in any
// Program & SKU value, case-insensitively, or "" when none does.
func DetectSpecSheet(t *Table, sheets []string) string {
	values := t.Column(ColProgramSKU)
	if len(values) == 0 {
		return ""
	}
	for i, v := range values {
		values[i] = strings.ToLower(v)
	}
	for _, sheet := range sheets {
		needle := strings.ToLower(strings.TrimSpace(sheet))
		if needle == "" {
			continue
		}
		for _, v := range values {
			if strings.Contains(v, needle) {
				return sheet
			}
		}
	}
	return ""
}
