package pivot

import (
	"strconv"
	"strings"
)

// Canonical column names after alias resolution.
const (
	ColTestName      = "Test Name"
	ColProgramSKU    = "Program & SKU"
	ColTestMode      = "Test mode"
	ColInputTray     = "Input Tray"
	ColMediaType     = "Media Type"
	ColPrintMode     = "Print Mode"
	ColMediaName     = "Media Name"
	ColMediaCat      = "Media Cat"
	ColTestCondition = "Test Condition"
	ColUnit          = "Unit"
	ColPages         = "Tpages"
	ColPrintQuality  = "Print Quality"

	// Attributes that only exist in spec workbooks or are injected from detection.
	ColProduct      = "Product"
	ColSubAssembly  = "Sub Assembly"
	ColSpecCategory = "Spec Category"
	ColSpecPerK     = "Spec (per K)"

	// Output-only columns.
	ColSpecLimit = "Spec Limit"
	ColResult    = "Result"

	GrandTotalLabel = "Grand Total"
	RateSuffix      = "/K"
)

// View selects the terminal dimension of a pivot.
type View string

const (
	// ViewMedia groups down to the media name.
	ViewMedia View = "media"
	// ViewUnit groups down to the physical test unit.
	ViewUnit View = "unit"
)

// Outcome classifies an aggregated rate against its limit.
type Outcome string

const (
	OutcomePass         Outcome = "PASS"
	OutcomeFail         Outcome = "FAIL"
	OutcomeSpecNotFound Outcome = "SPEC NOT FOUND"
	OutcomeNoData       Outcome = "NO DATA"
	OutcomeNoSpecFile   Outcome = "NO SPEC FILE"
)

// Evaluation is the result of judging one pivot row.
type Evaluation struct {
	Limit   *float64 `json:"limit,omitempty"`
	Actual  *float64 `json:"actual,omitempty"`
	Outcome Outcome  `json:"outcome"`
}

// Row is one aggregated line of a pivot. Dims, Counts and Rates are aligned
// with the owning Pivot's Dimensions and Metrics. An empty dimension value is
// a missing cell, which groups like any other value.
type Row struct {
	Dims       []string   `json:"dims"`
	Pages      float64    `json:"pages"`
	Counts     []float64  `json:"counts"`
	Rates      []float64  `json:"rates"`
	Total      float64    `json:"total"`
	GrandTotal bool       `json:"grandTotal,omitempty"`
	Evaluation Evaluation `json:"evaluation"`
}

// Pivot is the per-category output table for one view.
type Pivot struct {
	Category    string   `json:"category"`
	View        View     `json:"view"`
	Dimensions  []string `json:"dimensions"`
	Metrics     []string `json:"metrics"`
	TotalColumn string   `json:"totalColumn"`
	HasLimit    bool     `json:"hasLimit"`
	Rows        []Row    `json:"rows"`
}

// RateColumn returns the output column name of a metric's per-K rate.
func RateColumn(metric string) string {
	return metric + RateSuffix
}

// Header returns the output column order: dimensions, page count, rates,
// total, optional spec limit and result.
func (p *Pivot) Header() []string {
	header := make([]string, 0, len(p.Dimensions)+len(p.Metrics)+4)
	header = append(header, p.Dimensions...)
	header = append(header, ColPages)
	for _, m := range p.Metrics {
		header = append(header, RateColumn(m))
	}
	header = append(header, p.TotalColumn)
	if p.HasLimit {
		header = append(header, ColSpecLimit)
	}
	return append(header, ColResult)
}

// Records renders every row as text cells in Header order.
func (p *Pivot) Records() [][]string {
	out := make([][]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		rec := make([]string, 0, len(p.Dimensions)+len(r.Rates)+4)
		rec = append(rec, r.Dims...)
		rec = append(rec, FormatNumber(r.Pages))
		for _, v := range r.Rates {
			rec = append(rec, FormatNumber(v))
		}
		rec = append(rec, FormatNumber(r.Total))
		if p.HasLimit {
			limit := ""
			if r.Evaluation.Limit != nil {
				limit = FormatNumber(*r.Evaluation.Limit)
			}
			rec = append(rec, limit)
		}
		rec = append(rec, string(r.Evaluation.Outcome))
		out = append(out, rec)
	}
	return out
}

// Value returns the row's value for a dimension column, or "" when the
// column is not part of this pivot.
func (p *Pivot) Value(r Row, dim string) string {
	for i, d := range p.Dimensions {
		if d == dim && i < len(r.Dims) {
			return r.Dims[i]
		}
	}
	return ""
}

// Attributes collects the non-empty dimension values of a row.
func (p *Pivot) Attributes(r Row) Attributes {
	attrs := make(Attributes, len(p.Dimensions))
	for i, d := range p.Dimensions {
		if i >= len(r.Dims) {
			break
		}
		if v := strings.TrimSpace(r.Dims[i]); v != "" {
			attrs[d] = v
		}
	}
	return attrs
}

// DetailRows returns the rows that are not synthesized grand totals.
func (p *Pivot) DetailRows() []Row {
	out := make([]Row, 0, len(p.Rows))
	for _, r := range p.Rows {
		if !r.GrandTotal {
			out = append(out, r)
		}
	}
	return out
}

// Attributes maps dimension names to row values.
type Attributes map[string]string

// CategoryResult holds both views of one category.
type CategoryResult struct {
	Category *Category `json:"-"`
	Name     string    `json:"name"`
	Media    *Pivot    `json:"media"`
	Unit     *Pivot    `json:"unit"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Result is the output of one pipeline run.
type Result struct {
	Set        string           `json:"set"`
	Mode       EvaluationMode   `json:"mode"`
	SpecSheet  string           `json:"specSheet,omitempty"`
	Detection  Detection        `json:"detection"`
	Header     HeaderDetection  `json:"header"`
	Renames    []Rename         `json:"renames,omitempty"`
	Categories []CategoryResult `json:"categories"`
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
