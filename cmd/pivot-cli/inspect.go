package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"yashubustudio/lifetest/internal/store"
	"yashubustudio/lifetest/pivot"
)

var detectOpts struct {
	input     string
	sheet     string
	spec      string
	specSheet string
	set       string
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Show header row, column renames, product and category set of a raw file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(detectOpts.input) == "" {
			return errors.New("missing required --input file")
		}
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		svc, err := env.service()
		if err != nil {
			return err
		}
		in, err := svc.Inspect(pivot.Request{
			RawPath:   detectOpts.input,
			RawSheet:  detectOpts.sheet,
			SpecPath:  detectOpts.spec,
			SpecSheet: detectOpts.specSheet,
			Set:       detectOpts.set,
		})
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(in)
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect or export the category catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List category sets, categories and their metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SET\tCATEGORY\tTOTAL\tMETRICS")
		for _, name := range env.catalog.SetNames() {
			set, err := env.catalog.Set(name)
			if err != nil {
				return err
			}
			for _, c := range set.Categories {
				names := make([]string, len(c.Metrics))
				for i, m := range c.Metrics {
					names[i] = m.Name
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d (%s)\n", set.Name, c.Name, c.TotalColumn, len(names), strings.Join(names, ", "))
			}
		}
		return w.Flush()
	},
}

var catalogDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the active catalog as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(env.catalog); err != nil {
			return fmt.Errorf("encode catalog: %w", err)
		}
		return enc.Close()
	},
}

var catalogInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the built-in catalog to a file for editing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		written, err := pivot.WriteDefaultCatalog(args[0])
		if err != nil {
			return err
		}
		if !written {
			fmt.Fprintf(cmd.OutOrStdout(), "%s already exists, left unchanged\n", args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Catalog written to %s\n", args[0])
		return nil
	},
}

var historyOpts struct {
	dbPath string
	limit  int
	runID  string
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored run summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		path := firstNonEmpty(historyOpts.dbPath, env.cfg.DatabasePath)
		if path == "" {
			return errors.New("no database: pass --db or set databasePath in config.json")
		}
		db, err := store.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()

		var rows []store.StoredSummary
		if historyOpts.runID != "" {
			rows, err = db.Run(cmd.Context(), historyOpts.runID)
		} else {
			rows, err = db.Recent(cmd.Context(), historyOpts.limit)
		}
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RUN\tTIME\tCATEGORY\tPASS\tFAIL\tFAIL RATE")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s%%\n",
				r.RunID, r.Timestamp.Local().Format("2006-01-02 15:04:05"), r.Category,
				r.TotalPass, r.TotalFail, pivot.FormatNumber(r.FailRate))
		}
		return w.Flush()
	},
}

func init() {
	f := detectCmd.Flags()
	f.StringVar(&detectOpts.input, "input", "", "Raw measurement workbook (.xlsx) or CSV")
	f.StringVar(&detectOpts.sheet, "sheet", "", "Sheet of the raw workbook (default: first sheet)")
	f.StringVar(&detectOpts.spec, "spec", "", "Spec workbook to list and match sheets from")
	f.StringVar(&detectOpts.specSheet, "spec-sheet", "", "Spec sheet override")
	f.StringVar(&detectOpts.set, "set", "", "Category set: auto, Paperpath or ADF")

	catalogCmd.AddCommand(catalogListCmd, catalogDumpCmd, catalogInitCmd)

	h := historyCmd.Flags()
	h.StringVar(&historyOpts.dbPath, "db", "", "SQLite database that keeps run summaries")
	h.IntVar(&historyOpts.limit, "limit", 20, "Number of records to show (0 for all)")
	h.StringVar(&historyOpts.runID, "run", "", "Only show the records of one run")
}
