/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"inkpad/internal/config"
	"inkpad/internal/crash"
	"inkpad/internal/document"
	"inkpad/internal/export"
	applog "inkpad/internal/log"
	"inkpad/internal/store"
	"inkpad/internal/ui"
	"inkpad/internal/version"
)

func usage() {
	fmt.Println("Inkpad — multi-page handwriting notes")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  inkpad version|-v|--version                 Show version")
	fmt.Println("  inkpad new <noteID>                         Create an empty note")
	fmt.Println("  inkpad open <noteID>                        Open a note and print a summary")
	fmt.Println("  inkpad list                                 List notes, newest first")
	fmt.Println("  inkpad delete <noteID>                      Delete a note and its backups")
	fmt.Println("  inkpad export-pdf <noteID> <out.pdf>        Export all pages as a PDF")
	fmt.Println("  inkpad export-png <noteID> <page> <out.png> Export one page as a PNG (1-based page)")
	fmt.Println("  inkpad search <query>                       Full-text search over indexed page text")
	fmt.Println("  inkpad ui <noteID>                          Launch desktop UI (build with -tags fyne)")
	fmt.Println()
	fmt.Printf("Notes live under the configured store root (%s or config file).\n", config.EnvStoreRoot)
}

// openStore resolves the configured backend: Postgres when a DSN is set,
// otherwise the file store under the notes root.
func openStore(ctx context.Context, cfg config.AppConfig) (store.Store, string, error) {
	if cfg.Store.PostgresDSN != "" {
		s, err := store.NewPGStore(ctx, cfg.Store.PostgresDSN)
		return s, "", err
	}
	root := cfg.Store.Root
	if root == "" {
		return nil, "", fmt.Errorf("no notes root configured; set %s or store.root in the config file", config.EnvStoreRoot)
	}
	s, err := store.NewFileStore(root)
	return s, root, err
}

func fatal(l *slog.Logger, msg string, err error) {
	l.Error(msg, slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	defer crash.Recover(crash.Context{})

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}

	cfg, cfgPath, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err), slog.String("path", cfgPath))
		cfg = config.Defaults()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Inkpad — multi-page handwriting notes")
		fmt.Println(version.String())

	case "new":
		if len(args) < 3 {
			fmt.Println("new requires <noteID>")
			usage()
			os.Exit(2)
		}
		noteID := args[2]
		s, _, err := openStore(ctx, cfg)
		if err != nil {
			fatal(l, "open store failed", err)
		}
		if _, err := s.Load(ctx, noteID); err == nil {
			fatal(l, "note exists", fmt.Errorf("note %q already exists", noteID))
		}
		d := document.New(document.Layout{
			PageWidth:  cfg.Canvas.PageWidth,
			PageHeight: cfg.Canvas.PageHeight,
			Gap:        cfg.Canvas.PageGap,
		})
		if err := s.Save(ctx, noteID, d); err != nil {
			fatal(l, "create note failed", err)
		}
		l.Info("note created", slog.String("note", noteID))
		fmt.Println("Created note", noteID)

	case "open":
		if len(args) < 3 {
			fmt.Println("open requires <noteID>")
			usage()
			os.Exit(2)
		}
		noteID := args[2]
		s, _, err := openStore(ctx, cfg)
		if err != nil {
			fatal(l, "open store failed", err)
		}
		d, err := s.Load(ctx, noteID)
		if err != nil {
			fatal(l, "open note failed", err)
		}
		fmt.Printf("Note: %s\n", noteID)
		fmt.Printf("Pages: %d\n", d.PageCount())
		fmt.Printf("Elements: %d\n", d.ElementCount())
		fmt.Printf("Page size: %.0f x %.0f (gap %.0f)\n", d.Layout.PageWidth, d.Layout.PageHeight, d.Layout.Gap)

	case "list":
		s, _, err := openStore(ctx, cfg)
		if err != nil {
			fatal(l, "open store failed", err)
		}
		infos, err := s.List(ctx)
		if err != nil {
			fatal(l, "list failed", err)
		}
		if len(infos) == 0 {
			fmt.Println("No notes.")
			return
		}
		for _, in := range infos {
			fmt.Printf("%-32s %3d pages  %s\n", in.ID, in.PageCount, in.UpdatedAt.Format("2006-01-02 15:04"))
		}

	case "delete":
		if len(args) < 3 {
			fmt.Println("delete requires <noteID>")
			usage()
			os.Exit(2)
		}
		noteID := args[2]
		s, _, err := openStore(ctx, cfg)
		if err != nil {
			fatal(l, "open store failed", err)
		}
		if err := s.Delete(ctx, noteID); err != nil {
			fatal(l, "delete failed", err)
		}
		fmt.Println("Deleted note", noteID)

	case "export-pdf":
		if len(args) < 4 {
			fmt.Println("export-pdf requires <noteID> and <out.pdf>")
			usage()
			os.Exit(2)
		}
		noteID, out := args[2], args[3]
		s, _, err := openStore(ctx, cfg)
		if err != nil {
			fatal(l, "open store failed", err)
		}
		d, err := s.Load(ctx, noteID)
		if err != nil {
			fatal(l, "open note failed", err)
		}
		if err := export.ExportNotePDF(d, out, export.PDFOptions{Title: noteID}); err != nil {
			fatal(l, "pdf export failed", err)
		}
		fmt.Println("Exported", out)

	case "export-png":
		if len(args) < 5 {
			fmt.Println("export-png requires <noteID>, <page> and <out.png>")
			usage()
			os.Exit(2)
		}
		noteID, out := args[2], args[4]
		page, err := strconv.Atoi(args[3])
		if err != nil || page < 1 {
			fatal(l, "bad page number", fmt.Errorf("page must be a positive number, got %q", args[3]))
		}
		s, _, err := openStore(ctx, cfg)
		if err != nil {
			fatal(l, "open store failed", err)
		}
		d, err := s.Load(ctx, noteID)
		if err != nil {
			fatal(l, "open note failed", err)
		}
		if err := export.ExportPagePNG(d, page-1, 1.0, out); err != nil {
			fatal(l, "png export failed", err)
		}
		fmt.Println("Exported", out)

	case "search":
		if len(args) < 3 {
			fmt.Println("search requires <query>")
			usage()
			os.Exit(2)
		}
		if cfg.Store.Root == "" {
			fatal(l, "no store root", fmt.Errorf("search needs a local notes root; set %s", config.EnvStoreRoot))
		}
		db, err := store.InitOrOpenIndex(cfg.Store.Root)
		if err != nil {
			fatal(l, "open index failed", err)
		}
		defer db.Close()
		hits, err := store.SearchNotes(ctx, db, args[2], 20)
		if err != nil {
			fatal(l, "search failed", err)
		}
		if len(hits) == 0 {
			fmt.Println("No matches.")
			return
		}
		for _, h := range hits {
			fmt.Printf("%s page %d: %s\n", h.NoteID, h.PageIndex+1, h.Snippet)
		}

	case "ui":
		var noteID string
		if len(args) >= 3 {
			noteID = args[2]
		}
		if noteID == "" {
			noteID = "scratch"
		}
		if err := ui.Run(cfg.Store.Root, noteID); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

	default:
		usage()
		os.Exit(2)
	}
}
