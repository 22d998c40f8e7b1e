package pivot

import (
	"fmt"
	"math"
	"strings"
)

// EvaluationMode selects how pivot rows are judged.
type EvaluationMode string

const (
	// EvalAuto uses the spec workbook when one is given, otherwise no evaluation.
	EvalAuto EvaluationMode = "auto"
	// EvalSpec matches rows against a spec workbook.
	EvalSpec EvaluationMode = "spec"
	// EvalThreshold compares rows with the catalog's default thresholds.
	EvalThreshold EvaluationMode = "threshold"
	// EvalNone marks every row NO SPEC FILE.
	EvalNone EvaluationMode = "none"
)

// ParseEvaluationMode validates a mode name; empty means auto.
func ParseEvaluationMode(s string) (EvaluationMode, error) {
	switch m := EvaluationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return EvalAuto, nil
	case EvalAuto, EvalSpec, EvalThreshold, EvalNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown evaluation mode %q", s)
	}
}

// Evaluator judges a row's total rate in the context of its dimensions.
type Evaluator interface {
	Evaluate(attrs Attributes, total float64) Evaluation
	// ReportsLimit reports whether outcomes carry a limit worth a column.
	ReportsLimit() bool
}

// NoSpecEvaluator is used when no spec workbook is available.
type NoSpecEvaluator struct{}

func (NoSpecEvaluator) Evaluate(Attributes, float64) Evaluation {
	return Evaluation{Outcome: OutcomeNoSpecFile}
}

func (NoSpecEvaluator) ReportsLimit() bool { return false }

// ThresholdEvaluator looks the limit up in the category's default thresholds
// by media type, then print mode.
type ThresholdEvaluator struct {
	Category *Category
}

func (e ThresholdEvaluator) Evaluate(attrs Attributes, total float64) Evaluation {
	limit := e.Category.ThresholdFor(attrs[ColMediaType], attrs[ColPrintMode])
	return classify(&limit, total)
}

func (ThresholdEvaluator) ReportsLimit() bool { return true }

// classify applies the shared outcome rules: no limit is SPEC NOT FOUND, a
// NaN rate is NO DATA, otherwise PASS when the rounded rate is at most the
// limit.
func classify(limit *float64, total float64) Evaluation {
	if limit == nil {
		ev := Evaluation{Outcome: OutcomeSpecNotFound}
		if !math.IsNaN(total) {
			actual := Round3(total)
			ev.Actual = &actual
		}
		return ev
	}
	lim := *limit
	if math.IsNaN(total) {
		return Evaluation{Limit: &lim, Outcome: OutcomeNoData}
	}
	actual := Round3(total)
	outcome := OutcomeFail
	if actual <= lim {
		outcome = OutcomePass
	}
	return Evaluation{Limit: &lim, Actual: &actual, Outcome: outcome}
}
