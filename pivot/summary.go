package pivot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"yashubustudio/lifetest/internal/store"
)

const worstColumnCount = 3

// ColumnScore is a per-K column and its sum over a pivot's detail rows.
type ColumnScore struct {
	Column string  `json:"column"`
	Value  float64 `json:"value"`
}

// CategorySummary condenses one category's media pivot.
type CategorySummary struct {
	Category     string        `json:"category"`
	Pass         int           `json:"pass"`
	Fail         int           `json:"fail"`
	FailRate     float64       `json:"failRate"`
	WorstColumns []ColumnScore `json:"worstColumns,omitempty"`
}

// Summary is the run overview shown after generation and stored per run.
type Summary struct {
	Categories []CategorySummary `json:"categories"`
	Worst      *CategorySummary  `json:"worst,omitempty"`
}

// Summarize counts PASS and FAIL over the media view's detail rows and ranks
// the per-K columns that contribute most.
func Summarize(res *Result) Summary {
	var sum Summary
	if res == nil {
		return sum
	}
	for _, cr := range res.Categories {
		if cr.Media == nil {
			continue
		}
		sum.Categories = append(sum.Categories, summarizePivot(cr.Name, cr.Media))
	}
	for i := range sum.Categories {
		if sum.Worst == nil || sum.Categories[i].FailRate > sum.Worst.FailRate {
			sum.Worst = &sum.Categories[i]
		}
	}
	return sum
}

func summarizePivot(name string, p *Pivot) CategorySummary {
	cs := CategorySummary{Category: name}
	details := p.DetailRows()
	for _, r := range details {
		switch r.Evaluation.Outcome {
		case OutcomePass:
			cs.Pass++
		case OutcomeFail:
			cs.Fail++
		}
	}
	if judged := cs.Pass + cs.Fail; judged > 0 {
		cs.FailRate = roundTo(float64(cs.Fail)/float64(judged)*100, 2)
	}

	scores := make([]ColumnScore, 0, len(p.Metrics))
	for m, metric := range p.Metrics {
		values := make(stats.Float64Data, 0, len(details))
		for _, r := range details {
			if m < len(r.Rates) {
				values = append(values, r.Rates[m])
			}
		}
		total, err := stats.Sum(values)
		if err != nil {
			total = 0
		}
		scores = append(scores, ColumnScore{Column: RateColumn(metric), Value: Round3(total)})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Value > scores[j].Value })
	if len(scores) > worstColumnCount {
		scores = scores[:worstColumnCount]
	}
	cs.WorstColumns = scores
	return cs
}

// Text renders the summary for the log pane and the CLI.
func (s Summary) Text() string {
	rule := strings.Repeat("=", 60)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nPIVOT TABLE SUMMARY\n%s\n\n", rule, rule)
	for _, c := range s.Categories {
		fmt.Fprintf(&b, "Category: %s\n", c.Category)
		fmt.Fprintf(&b, "  Pass: %d\n", c.Pass)
		fmt.Fprintf(&b, "  Fail: %d\n", c.Fail)
		fmt.Fprintf(&b, "  Fail Rate: %s%%\n", FormatNumber(c.FailRate))
		if len(c.WorstColumns) > 0 {
			b.WriteString("  Top Fail Contributors:\n")
			for _, col := range c.WorstColumns {
				fmt.Fprintf(&b, "     - %s: %s\n", col.Column, FormatNumber(col.Value))
			}
		}
		b.WriteString("\n")
	}
	if s.Worst != nil {
		fmt.Fprintf(&b, "%s\nWORST PERFORMING CATEGORY: %s\nFail Rate: %s%%\n%s",
			rule, s.Worst.Category, FormatNumber(s.Worst.FailRate), rule)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Records converts the summary into rows for the summary store.
func (s Summary) Records() []store.SummaryRecord {
	out := make([]store.SummaryRecord, 0, len(s.Categories))
	for _, c := range s.Categories {
		out = append(out, store.SummaryRecord{
			Category:  c.Category,
			TotalPass: c.Pass,
			TotalFail: c.Fail,
			FailRate:  c.FailRate,
		})
	}
	return out
}

// Save stores the summary under a new run id and returns the id.
func (s Summary) Save(ctx context.Context, db *store.Store, at time.Time) (string, error) {
	runID := store.NewRunID()
	if err := db.SaveSummary(ctx, runID, at, s.Records()); err != nil {
		return "", fmt.Errorf("save summary: %w", err)
	}
	return runID, nil
}
