/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a report file plus a best-effort save of
// the open note, so a crash never costs more than the unflushed gesture.
package crash

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	"inkpad/internal/document"
	applog "inkpad/internal/log"
	"inkpad/internal/store"
	"inkpad/internal/telemetry"
	"inkpad/internal/version"
)

// exitFn is swapped out in tests so Recover can be exercised without
// terminating the test process.
var exitFn = os.Exit

// Context carries what Recover needs to salvage the session. Any field may
// be zero; Recover degrades gracefully.
type Context struct {
	Store     store.Store
	NoteID    string
	Document  *document.Document
	ReportDir string // defaults to os.TempDir()
}

// Recover captures a panic, logs it with a stacktrace, writes a report file
// and attempts a crash-safe save of the open note.
//
// Usage: defer func() { crash.Recover(cc) }()
func Recover(cc Context) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(cc, r, stack)
		if cc.Store != nil && cc.NoteID != "" && cc.Document != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := cc.Store.Save(ctx, cc.NoteID, cc.Document); err != nil {
				l.Error("crash-safe note save failed", slog.Any("err", err))
			} else {
				l.Info("crash-safe note save written", slog.String("note", cc.NoteID))
			}
			cancel()
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		exitFn(2)
	}
}

func writeReport(cc Context, panicVal any, stack []byte) (string, error) {
	dir := cc.ReportDir
	if dir == "" {
		dir = os.TempDir()
	} else {
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", stamp))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Inkpad Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if cc.NoteID != "" {
		_, _ = fmt.Fprintf(&buf, "Note: %s\n", cc.NoteID)
	}
	if cc.Document != nil {
		_, _ = fmt.Fprintf(&buf, "Pages: %d, Elements: %d\n", cc.Document.PageCount(), cc.Document.ElementCount())
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()

	// optionally upload anonymized crash report (opt-in via env)
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
