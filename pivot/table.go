package pivot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptySheet is returned when a sheet has no usable rows.
var ErrEmptySheet = errors.New("sheet is empty")

// Table is a loosely typed sheet: a header plus string cells. Empty cells are
// treated as missing values. Column names may repeat.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the first column named name, or -1.
func (t *Table) Index(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Indices returns every column position named name.
func (t *Table) Indices(name string) []int {
	var out []int
	for i, col := range t.Columns {
		if col == name {
			out = append(out, i)
		}
	}
	return out
}

// Has reports whether a column named name exists.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Cell returns the value at (row, col). Ragged rows and negative columns read
// as empty.
func (t *Table) Cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Column returns the values of the first column named name, or nil.
func (t *Table) Column(name string) []string {
	idx := t.Index(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cell(i, idx)
	}
	return out
}

// FirstValue returns the first non-empty value of a column.
func (t *Table) FirstValue(name string) string {
	for _, v := range t.Column(name) {
		if v = strings.TrimSpace(v); v != "" && !isNullToken(v) {
			return v
		}
	}
	return ""
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: cloneStrings(t.Columns),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = cloneStrings(r)
	}
	return out
}

// TableFromGrid builds a table from raw sheet rows using headerRow as the
// header. Blank header cells are named "Unnamed: N" and fully empty data rows
// are skipped.
func TableFromGrid(grid [][]string, headerRow int) (*Table, error) {
	if len(grid) == 0 {
		return nil, ErrEmptySheet
	}
	if headerRow < 0 || headerRow >= len(grid) {
		return nil, fmt.Errorf("header row %d outside sheet of %d rows", headerRow+1, len(grid))
	}
	width := 0
	for _, r := range grid[headerRow:] {
		if len(r) > width {
			width = len(r)
		}
	}
	header := make([]string, width)
	for i := range header {
		var cell string
		if i < len(grid[headerRow]) {
			cell = NormalizeText(cleanCell(grid[headerRow][i]))
		}
		if cell == "" {
			cell = fmt.Sprintf("Unnamed: %d", i)
		}
		header[i] = cell
	}
	t := &Table{Columns: header}
	for _, raw := range grid[headerRow+1:] {
		row := make([]string, width)
		empty := true
		for i := 0; i < width && i < len(raw); i++ {
			row[i] = cleanCell(raw[i])
			if row[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return strings.TrimSpace(v)
}

func isNullToken(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "nan", "none", "null":
		return true
	}
	return false
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
