package pivot

var baseDimensions = []string{
	ColTestCondition,
	ColTestMode,
	ColMediaCat,
	ColInputTray,
	ColMediaType,
	ColPrintMode,
}

// TerminalColumn returns the innermost dimension of a view.
func TerminalColumn(view View) string {
	if view == ViewUnit {
		return ColUnit
	}
	return ColMediaName
}

// BuildDimensionColumns returns the grouping columns for a view in fixed
// order: the base dimensions and the category's extra grouping columns that
// exist in available, then the terminal column. Media Name is only added when
// present; Unit is always added.
func BuildDimensionColumns(available []string, cat *Category, view View) []string {
	has := make(map[string]bool, len(available))
	for _, c := range available {
		has[c] = true
	}
	var dims []string
	seen := make(map[string]bool)
	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		dims = append(dims, name)
	}
	for _, c := range baseDimensions {
		if has[c] {
			add(c)
		}
	}
	if cat != nil {
		for _, c := range cat.ExtraGrouping {
			if has[c] {
				add(c)
			}
		}
	}
	switch view {
	case ViewUnit:
		add(ColUnit)
	default:
		if has[ColMediaName] {
			add(ColMediaName)
		}
	}
	return dims
}
