package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/lifetest/internal/store"
	"yashubustudio/lifetest/pivot"
)

const (
	dimColumnWidth   = 150
	valueColumnWidth = 96
	tableRowHeight   = 30
)

type uiState struct {
	service *pivot.Service
	logger  *zap.Logger

	w             fyne.Window
	rawLabel      *widget.Label
	specLabel     *widget.Label
	setSel        *widget.Select
	modeSel       *widget.Select
	categorySel   *widget.Select
	viewRadio     *widget.RadioGroup
	pivotTbl      *widget.Table
	summary       *widget.Entry
	log           *widget.Entry
	status        *widget.Label
	progress      *widget.ProgressBar
	configSummary *widget.Label
	statusBind    binding.String
	progressBind  binding.Float
	summaryBind   binding.String

	// touched on the UI goroutine only
	rawPath  string
	specPath string
	result   *pivot.Result
	current  *pivot.Pivot
	records  [][]string

	runBtn    *widget.Button
	exportBtn *widget.Button
	csvBtn    *widget.Button
	rawBtn    *widget.Button
	specBtn   *widget.Button
}

func buildUI(a fyne.App, svc *pivot.Service, logger *zap.Logger, logBind binding.String) *uiState {
	u := &uiState{service: svc, logger: logger}
	cfg := svc.Config()
	u.specPath = cfg.SpecPath
	u.w = a.NewWindow("Life Test Pivot Generator")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Ready")
	u.progressBind = binding.NewFloat()
	u.summaryBind = binding.NewString()

	u.rawLabel = widget.NewLabel("No raw data file selected")
	u.rawLabel.Truncation = fyne.TextTruncateEllipsis
	u.specLabel = widget.NewLabel(specText(u.specPath))
	u.specLabel.Truncation = fyne.TextTruncateEllipsis

	u.setSel = widget.NewSelect(setChoices(svc.Catalog()), func(string) { u.onSettingsChanged() })
	u.setSel.SetSelected(cfg.Set)
	if u.setSel.Selected == "" {
		u.setSel.SetSelected(pivot.SetAuto)
	}
	modeLabels := make([]string, len(modeChoices))
	for i, c := range modeChoices {
		modeLabels[i] = c.Label
	}
	u.modeSel = widget.NewSelect(modeLabels, func(string) { u.onSettingsChanged() })
	u.modeSel.SetSelected(modeLabel(cfg.Mode))

	u.log = widget.NewEntryWithData(logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("Processing log")
	u.log.Disable()

	u.summary = widget.NewEntryWithData(u.summaryBind)
	u.summary.MultiLine = true
	u.summary.TextStyle = fyne.TextStyle{Monospace: true}
	u.summary.Disable()

	u.status = widget.NewLabelWithData(u.statusBind)
	u.progress = widget.NewProgressBarWithData(u.progressBind)
	u.progress.Hide()
	u.configSummary = widget.NewLabel("")
	u.configSummary.Wrapping = fyne.TextWrapWord

	u.rawBtn = widget.NewButtonWithIcon("Raw data", theme.FolderOpenIcon(), func() { u.onPickRaw() })
	u.specBtn = widget.NewButtonWithIcon("Spec file", theme.FolderOpenIcon(), func() { u.onPickSpec() })
	clearSpecBtn := widget.NewButtonWithIcon("", theme.ContentClearIcon(), func() { u.setSpecPath("") })
	u.runBtn = widget.NewButtonWithIcon("Generate pivots", theme.ConfirmIcon(), func() { u.onRun() })
	u.exportBtn = widget.NewButtonWithIcon("Export workbook", theme.DocumentSaveIcon(), func() { u.onExportWorkbook() })
	u.csvBtn = widget.NewButtonWithIcon("Export CSV", theme.DocumentSaveIcon(), func() { u.onExportCSV() })
	u.exportBtn.Disable()
	u.csvBtn.Disable()

	u.categorySel = widget.NewSelect(nil, func(string) { u.showCurrentPivot() })
	u.categorySel.PlaceHolder = "Category"
	viewLabels := make([]string, len(viewChoices))
	for i, c := range viewChoices {
		viewLabels[i] = c.Label
	}
	u.viewRadio = widget.NewRadioGroup(viewLabels, func(string) { u.showCurrentPivot() })
	u.viewRadio.Horizontal = true
	u.viewRadio.Required = true
	u.viewRadio.SetSelected(viewChoices[0].Label)

	u.pivotTbl = widget.NewTable(
		func() (int, int) {
			if len(u.records) == 0 {
				return 0, 0
			}
			return len(u.records), len(u.records[0])
		},
		func() fyne.CanvasObject {
			lbl := widget.NewLabel("")
			lbl.Truncation = fyne.TextTruncateEllipsis
			return lbl
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			if id.Row >= len(u.records) || id.Col >= len(u.records[id.Row]) {
				lbl.SetText("")
				return
			}
			lbl.TextStyle = fyne.TextStyle{Bold: id.Row == 0 || u.isGrandTotalRow(id.Row-1)}
			lbl.Alignment = fyne.TextAlignLeading
			if id.Row == 0 {
				lbl.Alignment = fyne.TextAlignCenter
			}
			lbl.SetText(u.records[id.Row][id.Col])
		},
	)

	fileForm := container.New(
		layout.NewFormLayout(),
		u.rawBtn, u.rawLabel,
		container.NewHBox(u.specBtn, clearSpecBtn), u.specLabel,
		widget.NewLabel("Category set"), u.setSel,
		widget.NewLabel("Evaluation"), u.modeSel,
	)
	controls := container.NewGridWithColumns(3, u.runBtn, u.exportBtn, u.csvBtn)
	left := container.NewBorder(
		container.NewVBox(
			widget.NewLabelWithStyle("Input", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			fileForm,
			controls,
			widget.NewSeparator(),
			widget.NewLabelWithStyle("Progress", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			u.progress,
			u.status,
			widget.NewSeparator(),
			widget.NewLabelWithStyle("Settings", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			u.configSummary,
			widget.NewSeparator(),
			widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		),
		nil, nil, nil,
		u.log,
	)

	pivotTab := container.NewBorder(
		container.NewHBox(u.categorySel, u.viewRadio),
		nil, nil, nil,
		u.pivotTbl,
	)
	tabs := container.NewAppTabs(
		container.NewTabItem("Pivot", pivotTab),
		container.NewTabItem("Summary", u.summary),
	)

	split := container.NewHSplit(left, tabs)
	split.Offset = 0.32

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1280, 800))
	u.updateConfigSummary()
	return u
}

func specText(path string) string {
	if path == "" {
		return "No spec file (threshold or no evaluation)"
	}
	return filepath.Base(path)
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		for _, btn := range []*widget.Button{u.runBtn, u.rawBtn, u.specBtn} {
			if b {
				btn.Disable()
			} else {
				btn.Enable()
			}
		}
		if b || u.result == nil {
			u.exportBtn.Disable()
			u.csvBtn.Disable()
		} else {
			u.exportBtn.Enable()
			u.csvBtn.Enable()
		}
	})
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) showProgress() {
	fyne.Do(func() {
		u.progress.Show()
	})
}

func (u *uiState) hideProgress() {
	fyne.Do(func() {
		u.progress.Hide()
	})
}

func (u *uiState) updateConfigSummary() {
	cfg := u.service.Config()
	db := "off"
	if cfg.DatabasePath != "" {
		db = filepath.Base(cfg.DatabasePath)
	}
	u.configSummary.SetText(fmt.Sprintf("Set: %s / Evaluation: %s / Spec: %s / Workers: %d / History DB: %s",
		cfg.Set, modeLabel(cfg.Mode), specText(cfg.SpecPath), cfg.Workers, db))
}

// onSettingsChanged pushes the selections into the service configuration.
func (u *uiState) onSettingsChanged() {
	if u.setSel == nil || u.modeSel == nil || u.configSummary == nil {
		return
	}
	cfg := u.service.Config()
	cfg.Set = u.setSel.Selected
	cfg.Mode = modeValue(u.modeSel.Selected)
	cfg.SpecPath = u.specPath
	if _, err := u.service.UpdateConfig(cfg); err != nil {
		dialog.ShowError(err, u.w)
		return
	}
	u.updateConfigSummary()
}

func (u *uiState) onPickRaw() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		u.rawPath = path
		u.rawLabel.SetText(filepath.Base(path))
		u.logger.Info("raw data selected", zap.String("file", filepath.Base(path)))
		go u.inspect(path)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".xlsx", ".xlsm", ".csv", ".tsv"}))
	fd.Show()
}

// inspect logs what the raw file looks like before generation.
func (u *uiState) inspect(path string) {
	in, err := u.service.Inspect(pivot.Request{RawPath: path, SpecPath: u.service.Config().SpecPath})
	if err != nil {
		u.logger.Warn("raw data inspection failed", zap.Error(err))
		return
	}
	u.logger.Info("raw data inspected",
		zap.Int("headerRow", in.Header.Row),
		zap.Int("rows", in.Rows),
		zap.String("product", in.Detection.Product),
		zap.String("subAssembly", in.Detection.SubAssembly),
		zap.String("set", in.Set),
		zap.String("specSheet", in.SpecSheet))
}

func (u *uiState) onPickSpec() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		u.setSpecPath(path)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".xlsx", ".xlsm"}))
	fd.Show()
}

func (u *uiState) setSpecPath(path string) {
	u.specPath = path
	u.specLabel.SetText(specText(path))
	u.onSettingsChanged()
}

func (u *uiState) onRun() {
	if u.rawPath == "" {
		dialog.ShowInformation("Information", "Select a raw data file first", u.w)
		return
	}
	u.onSettingsChanged()
	cfg := u.service.Config()
	_ = u.progressBind.Set(0)
	u.showProgress()
	u.setStatus("Generating...")
	u.setBusy(true)
	start := time.Now()

	go func(rawPath string) {
		res, err := u.service.Run(context.Background(), pivot.Request{
			RawPath: rawPath,
			Progress: func(done, total int) {
				_ = u.progressBind.Set(float64(done) / float64(total))
				u.setStatus(fmt.Sprintf("Generating %d/%d", done, total))
			},
		})
		if err != nil {
			u.hideProgress()
			u.setBusy(false)
			fyne.Do(func() {
				dialog.ShowError(err, u.w)
			})
			u.setStatus("Error")
			u.logger.Error("pivot generation failed", zap.Error(err))
			return
		}
		summary := pivot.Summarize(res)
		u.persist(cfg, summary)

		fyne.Do(func() {
			u.result = res
			_ = u.summaryBind.Set(summary.Text())
			names := make([]string, len(res.Categories))
			for i, cr := range res.Categories {
				names[i] = cr.Name
			}
			u.categorySel.SetOptions(names)
			if len(names) > 0 {
				u.categorySel.SetSelected(names[0])
			}
			u.showCurrentPivot()
		})
		u.hideProgress()
		u.setBusy(false)
		u.setStatus(fmt.Sprintf("Done: %s set, %d categories (%.1fs)", res.Set, len(res.Categories), time.Since(start).Seconds()))
	}(u.rawPath)
}

// persist stores the run summary and metrics where configured.
func (u *uiState) persist(cfg pivot.Config, summary pivot.Summary) {
	if cfg.DatabasePath != "" {
		db, err := store.Open(cfg.DatabasePath)
		if err != nil {
			u.logger.Warn("summary database unavailable", zap.Error(err))
		} else {
			runID, err := summary.Save(context.Background(), db, time.Now())
			if err != nil {
				u.logger.Warn("failed to store summary", zap.Error(err))
			} else {
				u.logger.Info("summary stored", zap.String("runId", runID))
			}
			_ = db.Close()
		}
	}
	if cfg.MetricsFile != "" {
		if err := u.service.Recorder().WriteTextfile(cfg.MetricsFile); err != nil {
			u.logger.Warn("failed to write metrics", zap.Error(err))
		}
	}
}

func (u *uiState) selectedPivot() *pivot.Pivot {
	if u.result == nil {
		return nil
	}
	view := viewValue(u.viewRadio.Selected)
	for _, cr := range u.result.Categories {
		if cr.Name != u.categorySel.Selected {
			continue
		}
		if view == pivot.ViewUnit {
			return cr.Unit
		}
		return cr.Media
	}
	return nil
}

func (u *uiState) showCurrentPivot() {
	if u.pivotTbl == nil {
		return
	}
	u.current = u.selectedPivot()
	u.records = nil
	if u.current != nil {
		u.records = append([][]string{u.current.Header()}, u.current.Records()...)
		for i := range u.records[0] {
			width := float32(valueColumnWidth)
			if i < len(u.current.Dimensions) {
				width = dimColumnWidth
			}
			u.pivotTbl.SetColumnWidth(i, width)
		}
		u.pivotTbl.SetRowHeight(0, tableRowHeight)
	}
	u.pivotTbl.Refresh()
}

func (u *uiState) isGrandTotalRow(i int) bool {
	return u.current != nil && i >= 0 && i < len(u.current.Rows) && u.current.Rows[i].GrandTotal
}

func (u *uiState) onExportWorkbook() {
	res := u.result
	if res == nil {
		dialog.ShowInformation("Information", "No pivots to export", u.w)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if err := pivot.WriteWorkbookTo(uc, res); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Info("workbook exported", zap.String("file", uc.URI().Name()), zap.Int("categories", len(res.Categories)))
	}, u.w)
	fd.SetFileName(fmt.Sprintf("pivot_%s.xlsx", time.Now().Format("20060102150405")))
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".xlsx"}))
	fd.Show()
}

func (u *uiState) onExportCSV() {
	p := u.current
	if p == nil {
		dialog.ShowError(errors.New("select a category first"), u.w)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if err := pivot.WriteCSV(uc, p); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Info("csv exported", zap.String("file", uc.URI().Name()), zap.Int("rows", len(p.Rows)))
	}, u.w)
	fd.SetFileName(pivot.SheetName(p.Category, p.View) + ".csv")
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv"}))
	fd.Show()
}
