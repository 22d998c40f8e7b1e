package pivot

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultLimit applies to media types or print modes missing from a category's
// threshold table.
const DefaultLimit = 5.0

// ThresholdKind discriminates Threshold.
type ThresholdKind int

const (
	// ThresholdFlat is one limit for every print mode.
	ThresholdFlat ThresholdKind = iota
	// ThresholdByPrintMode holds one limit per print mode.
	ThresholdByPrintMode
)

// Threshold is a default per-K limit: either flat or keyed by print mode.
type Threshold struct {
	kind   ThresholdKind
	flat   float64
	byMode map[string]float64
}

// Flat builds a single-valued threshold.
func Flat(v float64) Threshold {
	return Threshold{kind: ThresholdFlat, flat: v}
}

// ByPrintMode builds a threshold keyed by print mode.
func ByPrintMode(limits map[string]float64) Threshold {
	m := make(map[string]float64, len(limits))
	for k, v := range limits {
		m[k] = v
	}
	return Threshold{kind: ThresholdByPrintMode, byMode: m}
}

// Kind reports which variant t holds.
func (t Threshold) Kind() ThresholdKind { return t.kind }

// Limit resolves the limit for a print mode. A per-print-mode threshold
// returns DefaultLimit when the print mode is empty or unknown.
func (t Threshold) Limit(printMode string) float64 {
	switch t.kind {
	case ThresholdByPrintMode:
		if printMode == "" {
			return DefaultLimit
		}
		if v, ok := t.byMode[printMode]; ok {
			return v
		}
		return DefaultLimit
	default:
		return t.flat
	}
}

// PrintModes lists the keys of a per-print-mode threshold in sorted order.
func (t Threshold) PrintModes() []string {
	keys := make([]string, 0, len(t.byMode))
	for k := range t.byMode {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalYAML accepts a number or a print-mode mapping.
func (t *Threshold) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("threshold: %w", err)
		}
		*t = Flat(v)
		return nil
	case yaml.MappingNode:
		var m map[string]float64
		if err := node.Decode(&m); err != nil {
			return fmt.Errorf("threshold: %w", err)
		}
		*t = ByPrintMode(m)
		return nil
	default:
		return fmt.Errorf("threshold: line %d: expected number or mapping", node.Line)
	}
}

// MarshalYAML writes the variant back in the same shape it was read.
func (t Threshold) MarshalYAML() (interface{}, error) {
	if t.kind == ThresholdByPrintMode {
		return t.byMode, nil
	}
	return t.flat, nil
}
