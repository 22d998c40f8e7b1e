package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/lifetest/internal/logging"
	"yashubustudio/lifetest/internal/metrics"
	"yashubustudio/lifetest/pivot"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pivot-cli",
	Short: "Generate life-test pivot tables from raw measurement workbooks",
	Long: `pivot-cli groups raw life-test rows by test condition, media and unit,
converts defect counts to per-thousand-page rates and judges every row against
a spec workbook or the catalog's default thresholds.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.Options{Verbose: verbose})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json (default: ./config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(generateCmd, detectCmd, catalogCmd, historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pivot-cli: %v\n", err)
		os.Exit(1)
	}
}

// environment is what every command needs from config.json.
type environment struct {
	cfg      pivot.Config
	catalog  *pivot.Catalog
	recorder *metrics.Recorder
}

func loadEnvironment() (*environment, error) {
	cfg, err := pivot.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	return &environment{cfg: cfg, catalog: catalog, recorder: metrics.NewRecorder()}, nil
}

func loadCatalog(path string) (*pivot.Catalog, error) {
	if path == "" {
		return pivot.DefaultCatalog()
	}
	catalog, err := pivot.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog, nil
}

func (e *environment) service() (*pivot.Service, error) {
	svc, err := pivot.NewService(e.catalog, e.cfg, logger, e.recorder)
	if err != nil {
		return nil, fmt.Errorf("init service: %w", err)
	}
	return svc, nil
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "output"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("pivot_%s.xlsx", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}
