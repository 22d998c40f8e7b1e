package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/lifetest/internal/store"
	"yashubustudio/lifetest/pivot"
)

var generateOpts struct {
	input       string
	sheet       string
	spec        string
	specSheet   string
	set         string
	mode        string
	output      string
	outputDir   string
	csvDir      string
	workers     int
	dbPath      string
	metricsFile string
	stdout      bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build the media and unit pivots of every category in a set",
	Long: `Loads the raw workbook, picks the category set (Paperpath or ADF, detected
from the Test Name column unless --set is given) and writes one styled sheet per
category and view.

Example:
  pivot-cli generate --input raw.xlsx --spec spec.xlsx --output-dir out`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&generateOpts.input, "input", "", "Raw measurement workbook (.xlsx) or CSV")
	f.StringVar(&generateOpts.sheet, "sheet", "", "Sheet of the raw workbook (default: first sheet)")
	f.StringVar(&generateOpts.spec, "spec", "", "Spec workbook with per-product limits")
	f.StringVar(&generateOpts.specSheet, "spec-sheet", "", "Spec sheet (default: detected from Program & SKU)")
	f.StringVar(&generateOpts.set, "set", "", "Category set: auto, Paperpath or ADF")
	f.StringVar(&generateOpts.mode, "mode", "", "Evaluation mode: auto, spec, threshold or none")
	f.StringVar(&generateOpts.output, "output", "", "Workbook to write (default uses --output-dir/pivot_*.xlsx)")
	f.StringVar(&generateOpts.outputDir, "output-dir", "", "Directory for the workbook when --output is omitted")
	f.StringVar(&generateOpts.csvDir, "csv-dir", "", "Also write one CSV per category and view into this directory")
	f.IntVar(&generateOpts.workers, "workers", 0, "Categories generated in parallel")
	f.StringVar(&generateOpts.dbPath, "db", "", "SQLite database that keeps run summaries")
	f.StringVar(&generateOpts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format")
	f.BoolVar(&generateOpts.stdout, "stdout", false, "Print the run summary to STDOUT")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	input := strings.TrimSpace(generateOpts.input)
	if input == "" {
		return errors.New("missing required --input file")
	}
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		env.cfg.Workers = generateOpts.workers
	}
	svc, err := env.service()
	if err != nil {
		return err
	}
	cfg := svc.Config()

	res, err := svc.Run(cmd.Context(), pivot.Request{
		RawPath:   input,
		RawSheet:  generateOpts.sheet,
		SpecPath:  generateOpts.spec,
		SpecSheet: generateOpts.specSheet,
		Set:       generateOpts.set,
		Mode:      pivot.EvaluationMode(generateOpts.mode),
	})
	if err != nil {
		return err
	}
	for _, cr := range res.Categories {
		for _, w := range cr.Warnings {
			logger.Warn(w, zap.String("category", cr.Name))
		}
	}

	outputPath, err := resolveOutputPath(strings.TrimSpace(generateOpts.output), firstNonEmpty(generateOpts.outputDir, cfg.OutputDir))
	if err != nil {
		return err
	}
	if err := pivot.WriteWorkbook(outputPath, res); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pivot tables saved to %s\n", outputPath)

	if dir := strings.TrimSpace(generateOpts.csvDir); dir != "" {
		if err := writeCSVs(dir, res); err != nil {
			return err
		}
	}

	summary := pivot.Summarize(res)
	if generateOpts.stdout {
		fmt.Fprintln(cmd.OutOrStdout(), summary.Text())
	}
	if dbPath := firstNonEmpty(generateOpts.dbPath, cfg.DatabasePath); dbPath != "" {
		if err := saveSummary(cmd, dbPath, summary); err != nil {
			return err
		}
	}
	if path := firstNonEmpty(generateOpts.metricsFile, cfg.MetricsFile); path != "" {
		if err := env.recorder.WriteTextfile(path); err != nil {
			return err
		}
		logger.Debug("metrics written", zap.String("file", path))
	}
	return nil
}

func writeCSVs(dir string, res *pivot.Result) error {
	for _, cr := range res.Categories {
		for _, p := range []*pivot.Pivot{cr.Media, cr.Unit} {
			if p == nil {
				continue
			}
			name := strings.ReplaceAll(pivot.SheetName(cr.Name, p.View), " ", "_") + ".csv"
			if err := pivot.WriteCSVFile(filepath.Join(dir, name), p); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
		}
	}
	logger.Info("csv pivots written", zap.String("dir", dir))
	return nil
}

func saveSummary(cmd *cobra.Command, path string, summary pivot.Summary) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	runID, err := summary.Save(cmd.Context(), db, time.Now())
	if err != nil {
		return err
	}
	logger.Info("summary stored", zap.String("runId", runID), zap.String("db", path))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
