//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"inkpad/internal/backend"
	"inkpad/internal/config"
	"inkpad/internal/crash"
	"inkpad/internal/document"
	"inkpad/internal/engine"
	"inkpad/internal/export"
	applog "inkpad/internal/log"
	"inkpad/internal/store"
)

// Run opens the desktop note viewer. storeRoot overrides the configured notes
// root when non-empty. The viewer renders pages through the same rasterizer as
// the PNG export so that what you see is what you export.
func Run(storeRoot, noteID string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", "note", noteID)

	cfg, _, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", "err", err)
		cfg = config.Defaults()
	}
	if storeRoot == "" {
		storeRoot = cfg.Store.Root
	}
	if storeRoot == "" {
		return fmt.Errorf("no notes root configured; pass one or set %s", config.EnvStoreRoot)
	}
	fileStore, err := store.NewFileStore(storeRoot)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	doc, err := fileStore.Load(ctx, noteID)
	cancel()
	if err == store.ErrNotFound {
		l.Info("note not found, creating", "note", noteID)
		doc = document.New(document.Layout{
			PageWidth:  cfg.Canvas.PageWidth,
			PageHeight: cfg.Canvas.PageHeight,
			Gap:        cfg.Canvas.PageGap,
		})
		err = nil
	}
	if err != nil {
		return fmt.Errorf("open note %s: %w", noteID, err)
	}

	var notifier engine.PageNotifier
	if cfg.Indexer.BaseURL != "" {
		client := backend.NewClient(cfg.Indexer.BaseURL, "", time.Duration(cfg.Indexer.TimeoutMs)*time.Millisecond)
		notifier = backend.NewNotifier(client)
	}

	eng := engine.New(doc, engine.Options{
		NoteID:       noteID,
		ScreenW:      1000,
		ScreenH:      760,
		EraserRadius: cfg.Canvas.EraserRadius,
		UndoDepth:    cfg.Canvas.UndoDepth,
		Notifier:     notifier,
	})

	saver := store.NewAutosaver(fileStore, noteID, time.Duration(cfg.Store.AutosaveDelayMs)*time.Millisecond)
	defer saver.Close()

	defer crash.Recover(crash.Context{Store: fileStore, NoteID: noteID, Document: doc})

	fyneApp := app.NewWithID("inkpad")
	w := fyneApp.NewWindow("Inkpad — " + noteID)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1000)
	winH := prefs.IntWithFallback("window.height", 760)
	if winW < 640 {
		winW = 640
	}
	if winH < 480 {
		winH = 480
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	pageLabel := widget.NewLabel("")

	pageImage := canvas.NewImageFromImage(nil)
	pageImage.FillMode = canvas.ImageFillContain
	scroll := container.NewScroll(pageImage)

	pageIdx := 0
	renderScale := 0.75

	refresh := func() {
		cur := eng.Document()
		if pageIdx >= cur.PageCount() {
			pageIdx = cur.PageCount() - 1
		}
		if pageIdx < 0 {
			pageIdx = 0
		}
		img, rerr := export.RenderPagePNG(cur, pageIdx, renderScale)
		if rerr != nil {
			status.SetText("Render failed: " + rerr.Error())
			return
		}
		pageImage.Image = img
		pageImage.SetMinSize(fyne.NewSize(float32(img.Bounds().Dx()), float32(img.Bounds().Dy())))
		pageImage.Refresh()
		pageLabel.SetText(fmt.Sprintf("Page %d / %d", pageIdx+1, cur.PageCount()))
	}

	eng.SetOnChange(func() {
		saver.NoteChanged(eng.Document())
	})

	saveNow := func() {
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer scancel()
		if err := fileStore.Save(sctx, noteID, eng.Document()); err != nil {
			status.SetText("Save failed: " + err.Error())
			l.Error("save failed", "err", err)
			return
		}
		status.SetText("Saved " + time.Now().Format("15:04:05"))
	}

	toolbar := container.NewHBox(
		widget.NewButton("Prev", func() {
			if pageIdx > 0 {
				pageIdx--
				refresh()
			}
		}),
		widget.NewButton("Next", func() {
			if pageIdx < eng.Document().PageCount()-1 {
				pageIdx++
				refresh()
			}
		}),
		widget.NewSeparator(),
		widget.NewButton("Add Page", func() {
			eng.AddPage(pageIdx)
			pageIdx++
			refresh()
			status.SetText("Page added")
		}),
		widget.NewButton("Delete Page", func() {
			dialog.ShowConfirm("Delete Page",
				fmt.Sprintf("Delete page %d? This clears undo history.", pageIdx+1),
				func(ok bool) {
					if !ok {
						return
					}
					if eng.DeletePage(pageIdx) {
						refresh()
						status.SetText("Page deleted")
					} else {
						status.SetText("Cannot delete the last page")
					}
				}, w)
		}),
		widget.NewSeparator(),
		widget.NewButton("Undo", func() {
			if eng.Undo() {
				refresh()
				status.SetText("Undone")
			} else {
				status.SetText("Nothing to undo")
			}
		}),
		widget.NewButton("Redo", func() {
			if eng.Redo() {
				refresh()
				status.SetText("Redone")
			} else {
				status.SetText("Nothing to redo")
			}
		}),
		widget.NewSeparator(),
		widget.NewButton("Zoom -", func() {
			if renderScale > 0.3 {
				renderScale -= 0.15
				refresh()
			}
		}),
		widget.NewButton("Zoom +", func() {
			if renderScale < 2.4 {
				renderScale += 0.15
				refresh()
			}
		}),
		widget.NewSeparator(),
		widget.NewButton("Save", saveNow),
		widget.NewButton("Export PDF", func() {
			out := filepath.Join(storeRoot, noteID+".pdf")
			if err := export.ExportNotePDF(eng.Document(), out, export.PDFOptions{Title: noteID}); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("Exported " + out)
		}),
	)

	w.SetContent(container.NewBorder(
		toolbar,
		container.NewHBox(pageLabel, widget.NewSeparator(), status),
		nil, nil,
		scroll,
	))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		saveNow()
		w.Close()
	})

	refresh()
	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}
