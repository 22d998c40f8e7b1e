package pivot

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	maxSheetName   = 31
	minColumnWidth = 8
	maxColumnWidth = 20
	// highlightShare marks a rate that makes up more than this share of its
	// row total.
	highlightShare = 0.5
)

// SheetName returns the workbook sheet name of a category view.
func SheetName(category string, view View) string {
	suffix := " By Media"
	if view == ViewUnit {
		suffix = " By Unit"
	}
	name := category + suffix
	if utf8.RuneCountInString(name) <= maxSheetName {
		return name
	}
	keep := maxSheetName - utf8.RuneCountInString(suffix)
	return string([]rune(category)[:keep]) + suffix
}

// WriteCSV writes one pivot as CSV.
func WriteCSV(w io.Writer, p *Pivot) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(p.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range p.Records() {
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes one pivot to path, creating its directory.
func WriteCSVFile(path string, p *Pivot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := WriteCSV(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type sheetStyles struct {
	header, grandTotal, bold, pass, fail, passTotal, failTotal, highlight int
}

// WriteWorkbook saves every category's media and unit pivots as styled
// sheets: blue header with filters, orange grand-total rows, bold total
// column, green/red results and red rates above half of their row total.
func WriteWorkbook(path string, res *Result) error {
	f, err := buildWorkbook(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// WriteWorkbookTo streams the same workbook as WriteWorkbook to w.
func WriteWorkbookTo(w io.Writer, res *Result) error {
	f, err := buildWorkbook(res)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(res *Result) (*excelize.File, error) {
	if res == nil || len(res.Categories) == 0 {
		return nil, errors.New("no pivots to export")
	}
	f := excelize.NewFile()
	styles, err := newSheetStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	first := true
	for _, cr := range res.Categories {
		for _, p := range []*Pivot{cr.Media, cr.Unit} {
			if p == nil {
				continue
			}
			name := SheetName(cr.Name, p.View)
			if first {
				err = f.SetSheetName("Sheet1", name)
				first = false
			} else {
				_, err = f.NewSheet(name)
			}
			if err == nil {
				err = writeSheet(f, name, p, styles)
			}
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("sheet %q: %w", name, err)
			}
		}
	}
	return f, nil
}

type styleDef struct {
	dst   *int
	style *excelize.Style
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}
	}
	whiteBold := &excelize.Font{Bold: true, Color: "FFFFFF"}
	var s sheetStyles
	defs := []styleDef{
		{&s.header, &excelize.Style{Font: whiteBold, Fill: fill("4472C4")}},
		{&s.grandTotal, &excelize.Style{Font: whiteBold, Fill: fill("F4B084")}},
		{&s.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.pass, &excelize.Style{Fill: fill("C6EFCE")}},
		{&s.fail, &excelize.Style{Fill: fill("FF9999")}},
		{&s.passTotal, &excelize.Style{Font: whiteBold, Fill: fill("C6EFCE")}},
		{&s.failTotal, &excelize.Style{Font: whiteBold, Fill: fill("FF9999")}},
		{&s.highlight, &excelize.Style{Fill: fill("FF9999")}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("create style: %w", err)
		}
		*d.dst = id
	}
	return s, nil
}

func writeSheet(f *excelize.File, sheet string, p *Pivot, st sheetStyles) error {
	header := p.Header()
	ncols := len(header)
	headerRow := make([]interface{}, ncols)
	widths := make([]int, ncols)
	for i, h := range header {
		headerRow[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(ncols)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", st.header); err != nil {
		return err
	}

	nd := len(p.Dimensions)
	rateStart := nd + 1
	totalCol := rateStart + len(p.Metrics)
	resultCol := ncols - 1
	for i, r := range p.Rows {
		excelRow := i + 2
		values := rowValues(p, r)
		for c, v := range values {
			if n := utf8.RuneCountInString(fmt.Sprint(v)); n > widths[c] {
				widths[c] = n
			}
		}
		start, _ := excelize.CoordinatesToCellName(1, excelRow)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return err
		}
		if r.GrandTotal {
			end, _ := excelize.CoordinatesToCellName(ncols, excelRow)
			if err := f.SetCellStyle(sheet, start, end, st.grandTotal); err != nil {
				return err
			}
		} else {
			cell, _ := excelize.CoordinatesToCellName(totalCol+1, excelRow)
			if err := f.SetCellStyle(sheet, cell, cell, st.bold); err != nil {
				return err
			}
			if r.Total > 0 {
				for m, rate := range r.Rates {
					if rate <= r.Total*highlightShare {
						continue
					}
					cell, _ := excelize.CoordinatesToCellName(rateStart+m+1, excelRow)
					if err := f.SetCellStyle(sheet, cell, cell, st.highlight); err != nil {
						return err
					}
				}
			}
		}
		if style, ok := resultStyle(r, st); ok {
			cell, _ := excelize.CoordinatesToCellName(resultCol+1, excelRow)
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}

	lastRow := len(p.Rows) + 1
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, lastRow), nil); err != nil {
		return err
	}
	for c, w := range widths {
		name, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(sheet, name, name, float64(clampWidth(w+2))); err != nil {
			return err
		}
	}
	return nil
}

func rowValues(p *Pivot, r Row) []interface{} {
	values := make([]interface{}, 0, len(p.Dimensions)+len(r.Rates)+4)
	for _, d := range r.Dims {
		values = append(values, d)
	}
	values = append(values, r.Pages)
	for _, v := range r.Rates {
		values = append(values, v)
	}
	values = append(values, r.Total)
	if p.HasLimit {
		if r.Evaluation.Limit != nil {
			values = append(values, *r.Evaluation.Limit)
		} else {
			values = append(values, "")
		}
	}
	return append(values, string(r.Evaluation.Outcome))
}

func resultStyle(r Row, st sheetStyles) (int, bool) {
	switch r.Evaluation.Outcome {
	case OutcomePass:
		if r.GrandTotal {
			return st.passTotal, true
		}
		return st.pass, true
	case OutcomeFail:
		if r.GrandTotal {
			return st.failTotal, true
		}
		return st.fail, true
	}
	return 0, false
}

func clampWidth(w int) int {
	if w < minColumnWidth {
		return minColumnWidth
	}
	if w > maxColumnWidth {
		return maxColumnWidth
	}
	return w
}
