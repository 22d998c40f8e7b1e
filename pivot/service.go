package pivot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"yashubustudio/lifetest/internal/metrics"
)

// ErrSpecRequired is returned when spec evaluation is requested without a workbook.
var ErrSpecRequired = errors.New(`evaluation mode "spec" needs a spec workbook`)

// Request names the files of one run. Non-empty fields override the
// service configuration.
type Request struct {
	RawPath   string
	RawSheet  string
	SpecPath  string
	SpecSheet string
	Set       string
	Mode      EvaluationMode
	// Progress, when set, is called after each finished category. It may be
	// called from several goroutines.
	Progress func(done, total int)
}

// Inspection describes a raw file without generating pivots.
type Inspection struct {
	Header     HeaderDetection `json:"header"`
	Renames    []Rename        `json:"renames,omitempty"`
	Columns    []string        `json:"columns"`
	Rows       int             `json:"rows"`
	Detection  Detection       `json:"detection"`
	Set        string          `json:"set"`
	SpecSheets []string        `json:"specSheets,omitempty"`
	SpecSheet  string          `json:"specSheet,omitempty"`
}

// Service runs the whole pipeline for a category set.
type Service struct {
	catalog *Catalog

	cfgMu sync.RWMutex
	cfg   Config

	logger   *zap.Logger
	recorder *metrics.Recorder
}

// NewService constructs a service around a loaded catalog.
func NewService(catalog *Catalog, cfg Config, logger *zap.Logger, recorder *metrics.Recorder) (*Service, error) {
	if catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
	}, nil
}

// Catalog returns the shared catalog.
func (s *Service) Catalog() *Catalog { return s.catalog }

// Recorder returns the metrics recorder, which may be nil.
func (s *Service) Recorder() *metrics.Recorder { return s.recorder }

// Config returns a copy of the current configuration.
func (s *Service) Config() Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg.Clone()
}

// UpdateConfig replaces the configuration.
func (s *Service) UpdateConfig(cfg Config) (Config, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return s.Config(), err
	}
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
	return cfg, nil
}

// Inspect loads the raw file and reports header placement, renames and the
// detected context.
func (s *Service) Inspect(req Request) (*Inspection, error) {
	cfg := s.Config()
	raw, header, err := LoadRawTable(req.RawPath, LoadOptions{Sheet: req.RawSheet})
	if err != nil {
		return nil, fmt.Errorf("load raw data: %w", err)
	}
	normalized, renames := NormalizeColumns(raw, s.catalog.AliasGroups())
	det := Detect(normalized)
	set, err := s.resolveSet(firstNonEmpty(req.Set, cfg.Set), det)
	if err != nil {
		return nil, err
	}
	in := &Inspection{
		Header:    header,
		Renames:   renames,
		Columns:   normalized.Columns,
		Rows:      normalized.Len(),
		Detection: det,
		Set:       set.Name,
	}
	if specPath := firstNonEmpty(req.SpecPath, cfg.SpecPath); specPath != "" {
		sheets, err := SheetNames(specPath)
		if err != nil {
			return nil, fmt.Errorf("read spec workbook: %w", err)
		}
		in.SpecSheets = sheets
		in.SpecSheet = firstNonEmpty(req.SpecSheet, cfg.SpecSheet, DetectSpecSheet(normalized, sheets))
	}
	return in, nil
}

// Run loads the raw file once and builds both pivots of every category in the
// selected set. Categories run one after another unless Config.Workers is
// above one.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	cfg := s.Config()
	raw, header, err := LoadRawTable(req.RawPath, LoadOptions{Sheet: req.RawSheet})
	if err != nil {
		return nil, fmt.Errorf("load raw data: %w", err)
	}
	normalized, renames := NormalizeColumns(raw, s.catalog.AliasGroups())
	det := Detect(normalized)
	s.logger.Info("raw data loaded",
		zap.String("file", filepath.Base(req.RawPath)),
		zap.Int("rows", raw.Len()),
		zap.Int("headerRow", header.Row),
		zap.String("headerMethod", string(header.Method)),
		zap.String("product", det.Product),
		zap.String("subAssembly", det.SubAssembly))

	set, err := s.resolveSet(firstNonEmpty(req.Set, cfg.Set), det)
	if err != nil {
		return nil, err
	}
	mode, err := ParseEvaluationMode(firstNonEmpty(string(req.Mode), string(cfg.Mode)))
	if err != nil {
		return nil, err
	}
	mode, spec, sheet, err := s.resolveSpec(mode,
		firstNonEmpty(req.SpecPath, cfg.SpecPath),
		firstNonEmpty(req.SpecSheet, cfg.SpecSheet),
		normalized)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Set:        set.Name,
		Mode:       mode,
		SpecSheet:  sheet,
		Detection:  det,
		Header:     header,
		Renames:    renames,
		Categories: make([]CategoryResult, len(set.Categories)),
	}
	aliases := s.catalog.AliasGroups()
	var done atomic.Int32
	build := func(i int) error {
		cat := &set.Categories[i]
		ev := s.evaluatorFor(mode, spec, cat, det)
		gen, err := NewGenerator(raw, cat, ev, GeneratorOptions{
			Aliases:  aliases,
			Logger:   s.logger,
			Recorder: s.recorder,
		})
		if err != nil {
			return err
		}
		res.Categories[i] = CategoryResult{
			Category: cat,
			Name:     cat.Name,
			Media:    gen.ByMedia(),
			Unit:     gen.ByUnit(),
			Warnings: gen.Warnings(),
		}
		if req.Progress != nil {
			req.Progress(int(done.Add(1)), len(set.Categories))
		}
		return nil
	}
	if err := forEachCategory(ctx, len(set.Categories), cfg.Workers, build); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	s.recorder.ObserveRun(elapsed)
	s.logger.Info("pivots generated",
		zap.String("set", set.Name),
		zap.String("mode", string(mode)),
		zap.Int("categories", len(res.Categories)),
		zap.Duration("elapsed", elapsed))
	return res, nil
}

func (s *Service) resolveSet(name string, det Detection) (*CategorySet, error) {
	if name == "" || strings.EqualFold(name, SetAuto) {
		name = SetForSubAssembly(det.SubAssembly)
		s.logger.Debug("category set chosen from sub-assembly",
			zap.String("subAssembly", det.SubAssembly),
			zap.String("set", name))
	}
	return s.catalog.Set(name)
}

// resolveSpec settles the evaluation mode and loads the spec sheet when one
// is used. A spec workbook with no sheet matching the product downgrades to
// no evaluation.
func (s *Service) resolveSpec(mode EvaluationMode, path, sheet string, t *Table) (EvaluationMode, *Table, string, error) {
	switch mode {
	case EvalAuto:
		if path == "" {
			return EvalNone, nil, "", nil
		}
		mode = EvalSpec
	case EvalSpec:
		if path == "" {
			return mode, nil, "", ErrSpecRequired
		}
	default:
		return mode, nil, "", nil
	}
	if sheet == "" {
		sheets, err := SheetNames(path)
		if err != nil {
			return mode, nil, "", fmt.Errorf("read spec workbook: %w", err)
		}
		sheet = DetectSpecSheet(t, sheets)
		if sheet == "" {
			s.logger.Warn("no spec sheet matches Program & SKU, rows are not evaluated",
				zap.String("file", filepath.Base(path)),
				zap.Strings("sheets", sheets))
			return EvalNone, nil, "", nil
		}
		s.logger.Info("spec sheet detected", zap.String("sheet", sheet))
	}
	spec, err := LoadSpecTable(path, sheet)
	if err != nil {
		return mode, nil, sheet, fmt.Errorf("load spec sheet: %w", err)
	}
	return EvalSpec, spec, sheet, nil
}

func (s *Service) evaluatorFor(mode EvaluationMode, spec *Table, cat *Category, det Detection) Evaluator {
	switch mode {
	case EvalThreshold:
		return ThresholdEvaluator{Category: cat}
	case EvalSpec:
		m, err := NewSpecMatcher(spec, cat.Name, MatchContext{Product: det.Product, SubAssembly: det.SubAssembly}, s.logger)
		if err != nil {
			s.logger.Warn("spec matching disabled for category", zap.String("category", cat.Name), zap.Error(err))
			return NoSpecEvaluator{}
		}
		return m
	default:
		return NoSpecEvaluator{}
	}
}

func forEachCategory(ctx context.Context, n, workers int, fn func(int) error) error {
	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
