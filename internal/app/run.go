package app

import (
	"fmt"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/data/binding"
	"go.uber.org/zap"

	"yashubustudio/lifetest/internal/logging"
	"yashubustudio/lifetest/internal/metrics"
	"yashubustudio/lifetest/pivot"
)

// Run loads config.json and the category catalog, then starts the desktop UI.
func Run() error {
	cfg, err := pivot.LoadConfig(defaultConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	catalog, err := pivot.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	logBind := binding.NewString()
	capture := newLogCapture(logBind, logLineLimit)
	capture.start()
	defer capture.stop()

	logger, err := logging.New(logging.Options{Console: true, Extra: capture})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, err := pivot.NewService(catalog, cfg, logger, metrics.NewRecorder())
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, svc, logger, logBind)
	u.w.ShowAndRun()

	if err := pivot.SaveConfig(defaultConfigFile, svc.Config()); err != nil {
		logger.Warn("failed to save config", zap.Error(err))
	}
	return nil
}
