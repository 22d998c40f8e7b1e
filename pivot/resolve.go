package pivot

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUnresolvedColumn is returned when no resolver finds a column.
var ErrUnresolvedColumn = errors.New("column not found")

// fuzzyMinLength is the normalized length a configured name must exceed
// before substring matches are accepted.
const fuzzyMinLength = 5

// ColumnRef points at a resolved column.
type ColumnRef struct {
	Name     string `json:"name"`
	Index    int    `json:"index"`
	Strategy string `json:"strategy"`
}

// ColumnResolver locates a configured column name among table headers.
type ColumnResolver interface {
	Name() string
	Resolve(columns []string, name string) (int, bool)
}

// ExactResolver matches header text verbatim.
type ExactResolver struct{}

func (ExactResolver) Name() string { return "exact" }

func (ExactResolver) Resolve(columns []string, name string) (int, bool) {
	for i, col := range columns {
		if col == name {
			return i, true
		}
	}
	return -1, false
}

// FuzzyResolver matches case- and separator-insensitively. Equal keys always
// match; containment in either direction only counts when the configured
// name is longer than MinLength, so short names like "Nick" never match
// inside unrelated headers. The header itself may be shorter.
type FuzzyResolver struct {
	MinLength int
}

func (FuzzyResolver) Name() string { return "fuzzy" }

func (f FuzzyResolver) Resolve(columns []string, name string) (int, bool) {
	target := fuzzyKey(name)
	if target == "" {
		return -1, false
	}
	substring := utf8.RuneCountInString(target) > f.MinLength
	for i, col := range columns {
		key := fuzzyKey(col)
		if key == "" {
			continue
		}
		if key == target {
			return i, true
		}
		if substring && (strings.Contains(key, target) || strings.Contains(target, key)) {
			return i, true
		}
	}
	return -1, false
}

// ResolverChain tries each resolver in order.
type ResolverChain []ColumnResolver

// DefaultResolvers tries an exact match, then a fuzzy one.
func DefaultResolvers() ResolverChain {
	return ResolverChain{ExactResolver{}, FuzzyResolver{MinLength: fuzzyMinLength}}
}

// Resolve returns the first hit, or ErrUnresolvedColumn.
func (c ResolverChain) Resolve(columns []string, name string) (ColumnRef, error) {
	for _, r := range c {
		if idx, ok := r.Resolve(columns, name); ok {
			return ColumnRef{Name: columns[idx], Index: idx, Strategy: r.Name()}, nil
		}
	}
	return ColumnRef{Index: -1}, fmt.Errorf("%w: %q", ErrUnresolvedColumn, name)
}
