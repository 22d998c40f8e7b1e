package pivot

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// ErrUnknownCategorySet is returned for a set name the catalog does not hold.
var ErrUnknownCategorySet = errors.New("unknown category set")

// Built-in category set names.
const (
	SetPaperpath = "Paperpath"
	SetADF       = "ADF"
)

// MetricSpec maps one output metric to its source columns. Without Source or
// Sources the metric reads the column carrying its own name.
type MetricSpec struct {
	Name    string   `yaml:"name"`
	Source  string   `yaml:"source,omitempty"`
	Sources []string `yaml:"sources,omitempty"`
}

// Multi reports whether the metric sums several columns.
func (m MetricSpec) Multi() bool { return len(m.Sources) > 0 }

// Columns returns the configured source column names.
func (m MetricSpec) Columns() []string {
	switch {
	case len(m.Sources) > 0:
		return cloneStrings(m.Sources)
	case m.Source != "":
		return []string{m.Source}
	default:
		return []string{m.Name}
	}
}

// Category is the configuration of one test category.
type Category struct {
	Name          string               `yaml:"name"`
	TotalColumn   string               `yaml:"total"`
	ExtraGrouping []string             `yaml:"extraGrouping,omitempty"`
	Thresholds    map[string]Threshold `yaml:"thresholds,omitempty"`
	Metrics       []MetricSpec         `yaml:"metrics"`
}

// ThresholdFor returns the default limit for a media type and print mode.
func (c *Category) ThresholdFor(mediaType, printMode string) float64 {
	t, ok := c.Thresholds[mediaType]
	if !ok {
		return DefaultLimit
	}
	return t.Limit(printMode)
}

// UsesPrintMode reports whether any threshold is keyed by print mode.
func (c *Category) UsesPrintMode() bool {
	for _, t := range c.Thresholds {
		if t.Kind() == ThresholdByPrintMode {
			return true
		}
	}
	return false
}

// CategorySet groups the categories run together for one sub-assembly.
type CategorySet struct {
	Name       string     `yaml:"name"`
	Categories []Category `yaml:"categories"`
}

// Catalog is the versioned registry of category sets.
type Catalog struct {
	Version int           `yaml:"version"`
	Aliases []AliasGroup  `yaml:"aliases,omitempty"`
	Sets    []CategorySet `yaml:"sets"`
}

var loadDefaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
})

// DefaultCatalog returns the embedded catalog. The value is shared and must
// not be modified.
func DefaultCatalog() (*Catalog, error) {
	return loadDefaultCatalog()
}

// DefaultCatalogYAML returns the embedded catalog source.
func DefaultCatalogYAML() []byte {
	out := make([]byte, len(defaultCatalogYAML))
	copy(out, defaultCatalogYAML)
	return out
}

// LoadCatalog reads a catalog file, or returns the embedded one when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(filepath.Clean(clean))
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the catalog for structural mistakes.
func (c *Catalog) Validate() error {
	if c.Version < 1 {
		return fmt.Errorf("catalog: unsupported version %d", c.Version)
	}
	if len(c.Sets) == 0 {
		return errors.New("catalog: no category sets")
	}
	seenSets := make(map[string]struct{}, len(c.Sets))
	for _, set := range c.Sets {
		key := strings.ToLower(strings.TrimSpace(set.Name))
		if key == "" {
			return errors.New("catalog: category set without name")
		}
		if _, dup := seenSets[key]; dup {
			return fmt.Errorf("catalog: duplicate set %q", set.Name)
		}
		seenSets[key] = struct{}{}
		for _, cat := range set.Categories {
			if err := cat.validate(); err != nil {
				return fmt.Errorf("catalog: set %q: %w", set.Name, err)
			}
		}
	}
	return nil
}

func (c *Category) validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("category without name")
	}
	if strings.TrimSpace(c.TotalColumn) == "" {
		return fmt.Errorf("category %q: missing total column", c.Name)
	}
	if len(c.Metrics) == 0 {
		return fmt.Errorf("category %q: no metrics", c.Name)
	}
	seen := make(map[string]struct{}, len(c.Metrics))
	for _, m := range c.Metrics {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("category %q: metric without name", c.Name)
		}
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("category %q: duplicate metric %q", c.Name, m.Name)
		}
		seen[m.Name] = struct{}{}
	}
	return nil
}

// Set returns a category set by case-insensitive name.
func (c *Catalog) Set(name string) (*CategorySet, error) {
	for i := range c.Sets {
		if strings.EqualFold(c.Sets[i].Name, strings.TrimSpace(name)) {
			return &c.Sets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategorySet, name)
}

// SetNames lists the set names in catalog order.
func (c *Catalog) SetNames() []string {
	out := make([]string, len(c.Sets))
	for i, s := range c.Sets {
		out[i] = s.Name
	}
	return out
}

// AliasGroups returns the catalog's alias table, or the built-in one.
func (c *Catalog) AliasGroups() []AliasGroup {
	if len(c.Aliases) == 0 {
		return DefaultAliases()
	}
	return cloneAliases(c.Aliases)
}

// Category looks up a category inside a set.
func (s *CategorySet) Category(name string) (*Category, bool) {
	for i := range s.Categories {
		if strings.EqualFold(s.Categories[i].Name, name) {
			return &s.Categories[i], true
		}
	}
	return nil, false
}

// WriteDefaultCatalog writes the embedded catalog to path when the file does
// not exist yet, giving users a starting point for edits. It reports whether
// a file was written.
func WriteDefaultCatalog(path string) (bool, error) {
	clean := strings.TrimSpace(path)
	if clean == "" {
		return false, errors.New("catalog path is empty")
	}
	clean = filepath.Clean(clean)
	if _, err := os.Stat(clean); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat catalog: %w", err)
	}
	if dir := filepath.Dir(clean); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("create catalog dir: %w", err)
		}
	}
	if err := os.WriteFile(clean, defaultCatalogYAML, 0o644); err != nil {
		return false, fmt.Errorf("write catalog: %w", err)
	}
	return true, nil
}
