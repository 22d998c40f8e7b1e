package pivot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadOptions selects the sheet of a workbook; empty means the first one.
type LoadOptions struct {
	Sheet string
}

// ReadGrid returns the raw cell text of a workbook sheet or delimited file
// and the sheet that was read.
func ReadGrid(path string, opts LoadOptions) ([][]string, string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm", ".xltx":
		return readWorkbookGrid(path, opts.Sheet)
	case ".csv":
		grid, err := readDelimitedGrid(path, ',')
		return grid, "", err
	case ".tsv":
		grid, err := readDelimitedGrid(path, '\t')
		return grid, "", err
	default:
		return nil, "", fmt.Errorf("unsupported file type %q", ext)
	}
}

// SheetNames lists the sheets of a workbook in order.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// LoadRawTable reads a measurement sheet and locates its header row.
func LoadRawTable(path string, opts LoadOptions) (*Table, HeaderDetection, error) {
	grid, _, err := ReadGrid(path, opts)
	if err != nil {
		return nil, HeaderDetection{}, err
	}
	det := DetectHeaderRow(grid)
	t, err := TableFromGrid(grid, det.Row)
	if err != nil {
		return nil, det, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return t, det, nil
}

// LoadSpecTable reads one sheet of a spec workbook. The header is the first
// of the leading rows holding a "Spec Category" cell, or the first row.
func LoadSpecTable(path, sheet string) (*Table, error) {
	grid, _, err := ReadGrid(path, LoadOptions{Sheet: sheet})
	if err != nil {
		return nil, err
	}
	header := 0
	limit := len(grid)
	if limit > MaxHeaderScan {
		limit = MaxHeaderScan
	}
	for i := 0; i < limit; i++ {
		if specRowHasCategory(grid[i]) {
			header = i
			break
		}
	}
	t, err := TableFromGrid(grid, header)
	if err != nil {
		return nil, fmt.Errorf("read spec sheet %q: %w", sheet, err)
	}
	return t, nil
}

func specRowHasCategory(row []string) bool {
	for _, cell := range row {
		if strings.EqualFold(strings.TrimSpace(cell), ColSpecCategory) {
			return true
		}
	}
	return false
}

func readWorkbookGrid(path, sheet string) ([][]string, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, "", ErrEmptySheet
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, sheet, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, sheet, nil
}

func readDelimitedGrid(path string, comma rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}
