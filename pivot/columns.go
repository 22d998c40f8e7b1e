package pivot

// AliasGroup lists the accepted spellings of one canonical column.
type AliasGroup struct {
	Canonical string   `yaml:"canonical" json:"canonical"`
	Aliases   []string `yaml:"aliases" json:"aliases"`
}

// Rename records a header rewritten during normalization.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func defaultAliases() []AliasGroup {
	return []AliasGroup{
		{Canonical: ColTestName, Aliases: []string{"Test Name", "TestName", "Test_Name", "Test name"}},
		{Canonical: ColProgramSKU, Aliases: []string{"Program & SKU", "Program&SKU", "Program_SKU"}},
		{Canonical: ColTestMode, Aliases: []string{"Test mode", "Test Mode"}},
		{Canonical: ColInputTray, Aliases: []string{"Input_Tray", "Tray", "Input Tray"}},
		{Canonical: ColMediaType, Aliases: []string{"Media Type"}},
		{Canonical: ColPrintMode, Aliases: []string{"Print Mode", "Paper Mode", "Run Type"}},
		{Canonical: ColMediaName, Aliases: []string{"Media Name"}},
		{Canonical: ColMediaCat, Aliases: []string{"Media Cat", "Media Category"}},
		{Canonical: ColTestCondition, Aliases: []string{"Test Condition", "Test conditions"}},
		{Canonical: ColUnit, Aliases: []string{"Unit", "unit", "Unit#", "Unit No"}},
		{Canonical: ColPages, Aliases: []string{"Tpages", "Tpages Printed", "Actual Printed Sheets", "Actual Run Pages", "ADF TPages"}},
		{Canonical: ColPrintQuality, Aliases: []string{"Print Quality", "Color/Quality"}},
	}
}

// DefaultAliases returns the built-in alias table.
func DefaultAliases() []AliasGroup {
	return cloneAliases(defaultAliases())
}

// NormalizeColumns returns a copy of t with known alias headers renamed to
// their canonical names. A canonical column that already exists is left
// alone, so normalizing a canonical table renames nothing. Otherwise the
// first alias present wins and every column carrying that exact spelling is
// renamed. Canonical names with no alias present are simply absent.
func NormalizeColumns(t *Table, aliases []AliasGroup) (*Table, []Rename) {
	out := t.Clone()
	var renames []Rename
	for _, group := range aliases {
		if out.Has(group.Canonical) {
			continue
		}
		for _, alias := range group.Aliases {
			idx := out.Indices(alias)
			if len(idx) == 0 {
				continue
			}
			for _, i := range idx {
				out.Columns[i] = group.Canonical
			}
			renames = append(renames, Rename{From: alias, To: group.Canonical})
			break
		}
	}
	return out, renames
}

func cloneAliases(groups []AliasGroup) []AliasGroup {
	if groups == nil {
		return nil
	}
	out := make([]AliasGroup, len(groups))
	for i, g := range groups {
		out[i] = AliasGroup{Canonical: g.Canonical, Aliases: cloneStrings(g.Aliases)}
	}
	return out
}
