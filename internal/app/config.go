package app

import "yashubustudio/lifetest/pivot"

const (
	fyneAppID = "studio.yashubu.lifetest"

	defaultConfigFile = "config.json"
	logLineLimit      = 300
)

var modeChoices = []struct {
	Label string
	Value pivot.EvaluationMode
}{
	{Label: "Auto (spec when loaded)", Value: pivot.EvalAuto},
	{Label: "Spec workbook", Value: pivot.EvalSpec},
	{Label: "Default thresholds", Value: pivot.EvalThreshold},
	{Label: "No evaluation", Value: pivot.EvalNone},
}

func modeLabel(mode pivot.EvaluationMode) string {
	for _, c := range modeChoices {
		if c.Value == mode {
			return c.Label
		}
	}
	return modeChoices[0].Label
}

func modeValue(label string) pivot.EvaluationMode {
	for _, c := range modeChoices {
		if c.Label == label {
			return c.Value
		}
	}
	return pivot.EvalAuto
}

// setChoices lists "auto" followed by the catalog's sets.
func setChoices(catalog *pivot.Catalog) []string {
	return append([]string{pivot.SetAuto}, catalog.SetNames()...)
}

var viewChoices = []struct {
	Label string
	Value pivot.View
}{
	{Label: "By Media", Value: pivot.ViewMedia},
	{Label: "By Unit", Value: pivot.ViewUnit},
}

func viewValue(label string) pivot.View {
	for _, c := range viewChoices {
		if c.Label == label {
			return c.Value
		}
	}
	return pivot.ViewMedia
}
